package model

import (
	"time"
)

// Prompt is a named, reusable system instruction.
type Prompt struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"uniqueIndex;size:255;not null"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for Prompt.
func (Prompt) TableName() string { return "prompts" }

// CreatePromptRequest is the request to create a prompt.
type CreatePromptRequest struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// UpdatePromptRequest is a partial update; nil fields are left untouched.
type UpdatePromptRequest struct {
	Name    *string `json:"name,omitempty"`
	Content *string `json:"content,omitempty"`
}
