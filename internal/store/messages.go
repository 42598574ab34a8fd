package store

import (
	"fmt"

	"github.com/capitalize-ai/promptcraft/internal/model"
)

// CreateMessage inserts a complete message with no feedback.
func (r *Repository) CreateMessage(conversationID uint, sender model.Sender, content string) (*model.Message, error) {
	return r.CreateMessageWithStatus(conversationID, sender, content, model.StatusComplete)
}

// CreateMessageWithStatus inserts a message with an explicit generation status.
func (r *Repository) CreateMessageWithStatus(conversationID uint, sender model.Sender, content string, status model.MessageStatus) (*model.Message, error) {
	msg := &model.Message{
		ConversationID: conversationID,
		Sender:         sender,
		Content:        content,
		Timestamp:      r.now(),
		Feedback:       model.FeedbackNone,
		Status:         status,
	}
	if err := r.db.Create(msg).Error; err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}
	return msg, nil
}

// GetMessage finds a message by id.
func (r *Repository) GetMessage(id uint) (*model.Message, error) {
	var msg model.Message
	if err := r.db.First(&msg, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &msg, nil
}

// ListMessages returns a conversation's messages in creation order.
func (r *Repository) ListMessages(conversationID uint, skip, limit int) ([]model.Message, error) {
	skip, limit = page(skip, limit)

	msgs := make([]model.Message, 0)
	err := r.db.
		Where("conversation_id = ?", conversationID).
		Order("id asc").
		Offset(skip).
		Limit(limit).
		Find(&msgs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return msgs, nil
}

// AllMessages returns every message of a conversation in creation order.
func (r *Repository) AllMessages(conversationID uint) ([]model.Message, error) {
	msgs := make([]model.Message, 0)
	err := r.db.
		Where("conversation_id = ?", conversationID).
		Order("id asc").
		Find(&msgs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	return msgs, nil
}

// UpdateMessageFeedback applies like/dislike flags, keeping them mutually
// exclusive. Nil flags are left untouched.
func (r *Repository) UpdateMessageFeedback(id uint, liked, disliked *bool) (*model.Message, error) {
	msg, err := r.GetMessage(id)
	if err != nil {
		return nil, err
	}

	next := msg.Feedback.Apply(liked, disliked)
	if next == msg.Feedback {
		return msg, nil
	}

	if err := r.db.Model(msg).Update("feedback", next).Error; err != nil {
		return nil, fmt.Errorf("failed to update feedback: %w", err)
	}
	msg.Feedback = next
	return msg, nil
}
