package model

import (
	"time"
)

// EventType represents the type of chat event.
type EventType string

const (
	EventMessageCreated      EventType = "message.created"
	EventMessageFeedback     EventType = "message.feedback"
	EventConversationDeleted EventType = "conversation.deleted"
	EventGenerationFailed    EventType = "generation.failed"
)

// ChatEvent is published after a state change in a conversation.
type ChatEvent struct {
	ID             string    `json:"id"`
	ConversationID uint      `json:"conversation_id"`
	Type           EventType `json:"type"`
	Message        *Message  `json:"message,omitempty"`
	Reason         string    `json:"reason,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
