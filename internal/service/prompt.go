package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/capitalize-ai/promptcraft/internal/model"
	"github.com/capitalize-ai/promptcraft/internal/store"
	"github.com/capitalize-ai/promptcraft/pkg/apperr"
	"github.com/capitalize-ai/promptcraft/pkg/logger"
)

const (
	msgPromptNotFound = "Prompt not found."
	msgPromptExists   = "Prompt with this name already exists."
)

// PromptService manages the library of reusable system prompts.
type PromptService struct {
	store  *store.Store
	logger *logger.Logger
}

// NewPromptService creates a new prompt service.
func NewPromptService(st *store.Store, log *logger.Logger) *PromptService {
	return &PromptService{store: st, logger: log}
}

// Create saves a new prompt. Names are unique and compared case-sensitively.
func (s *PromptService) Create(ctx context.Context, req *model.CreatePromptRequest) (*model.Prompt, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, apperr.InvalidInput("name is required")
	}
	if strings.TrimSpace(req.Content) == "" {
		return nil, apperr.InvalidInput("content is required")
	}

	var prompt *model.Prompt
	err := s.store.WithTx(ctx, func(repo *store.Repository) error {
		_, err := repo.GetPromptByName(req.Name)
		if err == nil {
			return apperr.Conflict(msgPromptExists)
		}
		if !errors.Is(err, store.ErrNotFound) {
			return err
		}

		prompt, err = repo.CreatePrompt(req.Name, req.Content)
		return err
	})
	if err != nil {
		return nil, promptErr(err)
	}

	s.logger.Info("prompt created", zap.Uint("prompt_id", prompt.ID), zap.String("name", prompt.Name))
	return prompt, nil
}

// Get returns a prompt by id.
func (s *PromptService) Get(ctx context.Context, id uint) (*model.Prompt, error) {
	prompt, err := s.store.Repository(ctx).GetPrompt(id)
	if err != nil {
		return nil, lookupErr(err, msgPromptNotFound)
	}
	return prompt, nil
}

// List returns prompts in insertion order.
func (s *PromptService) List(ctx context.Context, skip, limit int) ([]model.Prompt, error) {
	prompts, err := s.store.Repository(ctx).ListPrompts(skip, limit)
	if err != nil {
		return nil, apperr.Internal("failed to list prompts", err)
	}
	return prompts, nil
}

// Update changes the name and/or content of a prompt. Conversations created
// from it keep their own copy of the text.
func (s *PromptService) Update(ctx context.Context, id uint, req *model.UpdatePromptRequest) (*model.Prompt, error) {
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return nil, apperr.InvalidInput("name must not be empty")
	}
	if req.Content != nil && strings.TrimSpace(*req.Content) == "" {
		return nil, apperr.InvalidInput("content must not be empty")
	}

	var prompt *model.Prompt
	err := s.store.WithTx(ctx, func(repo *store.Repository) error {
		if req.Name != nil {
			existing, err := repo.GetPromptByName(*req.Name)
			if err == nil && existing.ID != id {
				return apperr.Conflict(msgPromptExists)
			}
			if err != nil && !errors.Is(err, store.ErrNotFound) {
				return err
			}
		}

		var err error
		prompt, err = repo.UpdatePrompt(id, req.Name, req.Content)
		return err
	})
	if err != nil {
		return nil, promptErr(err)
	}

	s.logger.Info("prompt updated", zap.Uint("prompt_id", prompt.ID))
	return prompt, nil
}

// Delete removes a prompt. Existing conversations are unaffected.
func (s *PromptService) Delete(ctx context.Context, id uint) error {
	deleted, err := s.store.Repository(ctx).DeletePrompt(id)
	if err != nil {
		return apperr.Internal("failed to delete prompt", err)
	}
	if !deleted {
		return apperr.NotFound(msgPromptNotFound)
	}

	s.logger.Info("prompt deleted", zap.Uint("prompt_id", id))
	return nil
}

func promptErr(err error) error {
	if errors.Is(err, store.ErrDuplicateName) {
		return apperr.Conflict(msgPromptExists)
	}
	return lookupErr(err, msgPromptNotFound)
}
