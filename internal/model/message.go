package model

import (
	"encoding/json"
	"time"
)

// Sender identifies who authored a message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderAI   Sender = "ai"
)

// Valid reports whether s is a known sender.
func (s Sender) Valid() bool {
	return s == SenderUser || s == SenderAI
}

// Feedback is the tri-state like/dislike annotation of an AI message.
// A single column keeps liked and disliked mutually exclusive.
type Feedback string

const (
	FeedbackNone     Feedback = "none"
	FeedbackLiked    Feedback = "liked"
	FeedbackDisliked Feedback = "disliked"
)

// Apply returns the feedback state after applying the optional liked and
// disliked flags, liked first. Setting a flag true replaces the other one;
// setting it false clears it only if it is the current state.
func (f Feedback) Apply(liked, disliked *bool) Feedback {
	if f == "" {
		f = FeedbackNone
	}
	if liked != nil {
		switch {
		case *liked:
			f = FeedbackLiked
		case f == FeedbackLiked:
			f = FeedbackNone
		}
	}
	if disliked != nil {
		switch {
		case *disliked:
			f = FeedbackDisliked
		case f == FeedbackDisliked:
			f = FeedbackNone
		}
	}
	return f
}

// MessageStatus records whether an AI reply was generated to completion.
type MessageStatus string

const (
	StatusComplete   MessageStatus = "complete"
	StatusIncomplete MessageStatus = "incomplete"
)

// Message is one turn in a conversation.
type Message struct {
	ID             uint          `gorm:"primaryKey"`
	ConversationID uint          `gorm:"index;not null"`
	Sender         Sender        `gorm:"size:16;not null"`
	Content        string        `gorm:"type:text;not null"`
	Timestamp      time.Time     `gorm:"not null"`
	Feedback       Feedback      `gorm:"size:16;not null;default:none"`
	Status         MessageStatus `gorm:"size:16;not null;default:complete"`
}

// TableName returns the database table name for Message.
func (Message) TableName() string { return "messages" }

// Liked reports whether the message carries a like.
func (m *Message) Liked() bool { return m.Feedback == FeedbackLiked }

// Disliked reports whether the message carries a dislike.
func (m *Message) Disliked() bool { return m.Feedback == FeedbackDisliked }

type messageJSON struct {
	ID             uint          `json:"id"`
	ConversationID uint          `json:"conversation_id"`
	Sender         Sender        `json:"sender"`
	Content        string        `json:"content"`
	Timestamp      time.Time     `json:"timestamp"`
	Liked          bool          `json:"liked"`
	Disliked       bool          `json:"disliked"`
	Status         MessageStatus `json:"status"`
}

// MarshalJSON renders feedback as the liked/disliked pair clients expect.
func (m Message) MarshalJSON() ([]byte, error) {
	return json.Marshal(messageJSON{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		Sender:         m.Sender,
		Content:        m.Content,
		Timestamp:      m.Timestamp,
		Liked:          m.Liked(),
		Disliked:       m.Disliked(),
		Status:         m.Status,
	})
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (m *Message) UnmarshalJSON(data []byte) error {
	var raw messageJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*m = Message{
		ID:             raw.ID,
		ConversationID: raw.ConversationID,
		Sender:         raw.Sender,
		Content:        raw.Content,
		Timestamp:      raw.Timestamp,
		Feedback:       FeedbackNone,
		Status:         raw.Status,
	}
	if raw.Liked {
		m.Feedback = FeedbackLiked
	} else if raw.Disliked {
		m.Feedback = FeedbackDisliked
	}
	return nil
}

// SendMessageRequest is the request to send a new message.
type SendMessageRequest struct {
	MessageContent string `json:"message_content"`
	APIKey         string `json:"api_key"`
}

// FeedbackRequest updates like/dislike state; omitted fields are left alone.
type FeedbackRequest struct {
	Liked    *bool `json:"liked,omitempty"`
	Disliked *bool `json:"disliked,omitempty"`
}
