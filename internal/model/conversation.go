// Package model defines data structures for the chat backend.
package model

import (
	"time"
)

// Conversation is a chat session bound to a system prompt snapshot.
// SystemPromptUsed is copied by value and never follows later prompt edits.
type Conversation struct {
	ID               uint      `json:"id" gorm:"primaryKey"`
	SystemPromptUsed string    `json:"system_prompt_used" gorm:"type:text;not null"`
	CreatedAt        time.Time `json:"created_at"`
	Messages         []Message `json:"messages" gorm:"foreignKey:ConversationID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Conversation.
func (Conversation) TableName() string { return "conversations" }

// CreateConversationRequest is the request to create a new conversation.
type CreateConversationRequest struct {
	SystemPromptUsed string `json:"system_prompt_used"`
}
