package middleware

import (
	"errors"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	maxMessageLength    = 100000
	maxPromptNameLength = 255
	maxPromptLength     = 100000
)

// ValidateMessageContent validates message content.
func ValidateMessageContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return errors.New("message_content cannot be empty")
	}
	if len(content) > maxMessageLength {
		return errors.New("message_content exceeds maximum length")
	}
	if !utf8.ValidString(content) {
		return errors.New("message_content must be valid UTF-8")
	}
	return nil
}

// ValidatePromptName validates a prompt name. Emptiness is checked by the service.
func ValidatePromptName(name string) error {
	if utf8.RuneCountInString(name) > maxPromptNameLength {
		return errors.New("name exceeds maximum length")
	}
	if !utf8.ValidString(name) {
		return errors.New("name must be valid UTF-8")
	}
	return nil
}

// ValidatePromptText validates prompt or system prompt text.
func ValidatePromptText(text string) error {
	if len(text) > maxPromptLength {
		return errors.New("prompt text exceeds maximum length")
	}
	if !utf8.ValidString(text) {
		return errors.New("prompt text must be valid UTF-8")
	}
	return nil
}

// ParseID parses a positive integer resource ID from a path segment.
func ParseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid ID format")
	}
	return uint(id), nil
}
