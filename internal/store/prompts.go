package store

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/capitalize-ai/promptcraft/internal/model"
)

// CreatePrompt inserts a prompt. Callers check the name first; a race that
// slips past the check surfaces as ErrDuplicateName.
func (r *Repository) CreatePrompt(name, content string) (*model.Prompt, error) {
	prompt := &model.Prompt{Name: name, Content: content}
	if err := r.db.Create(prompt).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateName
		}
		return nil, fmt.Errorf("failed to create prompt: %w", err)
	}
	return prompt, nil
}

// GetPrompt finds a prompt by id.
func (r *Repository) GetPrompt(id uint) (*model.Prompt, error) {
	var prompt model.Prompt
	if err := r.db.First(&prompt, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &prompt, nil
}

// GetPromptByName finds a prompt by its exact name.
func (r *Repository) GetPromptByName(name string) (*model.Prompt, error) {
	var prompt model.Prompt
	if err := r.db.Where("name = ?", name).First(&prompt).Error; err != nil {
		return nil, notFound(err)
	}
	return &prompt, nil
}

// ListPrompts returns prompts in insertion order.
func (r *Repository) ListPrompts(skip, limit int) ([]model.Prompt, error) {
	skip, limit = page(skip, limit)

	prompts := make([]model.Prompt, 0)
	if err := r.db.Order("id asc").Offset(skip).Limit(limit).Find(&prompts).Error; err != nil {
		return nil, fmt.Errorf("failed to list prompts: %w", err)
	}
	return prompts, nil
}

// UpdatePrompt applies a partial update. Only non-nil fields change.
func (r *Repository) UpdatePrompt(id uint, name, content *string) (*model.Prompt, error) {
	prompt, err := r.GetPrompt(id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if name != nil {
		updates["name"] = *name
	}
	if content != nil {
		updates["content"] = *content
	}
	if len(updates) == 0 {
		return prompt, nil
	}

	if err := r.db.Model(prompt).Updates(updates).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateName
		}
		return nil, fmt.Errorf("failed to update prompt: %w", err)
	}
	return r.GetPrompt(id)
}

// DeletePrompt removes a prompt and reports whether a row was deleted.
func (r *Repository) DeletePrompt(id uint) (bool, error) {
	result := r.db.Delete(&model.Prompt{}, id)
	if result.Error != nil {
		return false, fmt.Errorf("failed to delete prompt: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}
