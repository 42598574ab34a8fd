package store

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/capitalize-ai/promptcraft/internal/model"
)

// CreateConversation inserts a conversation with a snapshot of the system prompt.
func (r *Repository) CreateConversation(systemPromptUsed string) (*model.Conversation, error) {
	conv := &model.Conversation{SystemPromptUsed: systemPromptUsed, Messages: []model.Message{}}
	if err := r.db.Create(conv).Error; err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	return conv, nil
}

// GetConversation finds a conversation by id. Messages are not loaded.
func (r *Repository) GetConversation(id uint) (*model.Conversation, error) {
	var conv model.Conversation
	if err := r.db.First(&conv, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &conv, nil
}

// ListConversations returns conversations in creation order with their
// messages populated.
func (r *Repository) ListConversations(skip, limit int) ([]model.Conversation, error) {
	skip, limit = page(skip, limit)

	convs := make([]model.Conversation, 0)
	err := r.db.
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("messages.id asc")
		}).
		Order("id asc").
		Offset(skip).
		Limit(limit).
		Find(&convs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}

	for i := range convs {
		if convs[i].Messages == nil {
			convs[i].Messages = []model.Message{}
		}
	}
	return convs, nil
}

// DeleteConversation removes a conversation and all of its messages.
func (r *Repository) DeleteConversation(id uint) (bool, error) {
	var deleted bool
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("conversation_id = ?", id).Delete(&model.Message{}).Error; err != nil {
			return fmt.Errorf("failed to delete messages: %w", err)
		}
		result := tx.Delete(&model.Conversation{}, id)
		if result.Error != nil {
			return fmt.Errorf("failed to delete conversation: %w", result.Error)
		}
		deleted = result.RowsAffected > 0
		return nil
	})
	if err != nil {
		return false, err
	}
	return deleted, nil
}
