package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/capitalize-ai/promptcraft/internal/model"
	"github.com/capitalize-ai/promptcraft/internal/store"
	"github.com/capitalize-ai/promptcraft/pkg/apperr"
	"github.com/capitalize-ai/promptcraft/pkg/logger"
	"github.com/capitalize-ai/promptcraft/pkg/metrics"
)

const msgConversationNotFound = "Conversation not found."

// ConversationService handles conversation operations.
type ConversationService struct {
	store  *store.Store
	events events
	logger *logger.Logger
}

// NewConversationService creates a new conversation service. publisher may be nil.
func NewConversationService(st *store.Store, publisher EventPublisher, log *logger.Logger) *ConversationService {
	return &ConversationService{
		store:  st,
		events: events{publisher: publisher, logger: log},
		logger: log,
	}
}

// Create starts a conversation with a snapshot of the given system prompt.
func (s *ConversationService) Create(ctx context.Context, req *model.CreateConversationRequest) (*model.Conversation, error) {
	conv, err := s.store.Repository(ctx).CreateConversation(req.SystemPromptUsed)
	if err != nil {
		return nil, apperr.Internal("failed to create conversation", err)
	}

	metrics.ConversationsTotal.Inc()
	s.logger.Info("conversation created", zap.Uint("conversation_id", conv.ID))
	return conv, nil
}

// List returns conversations with their messages.
func (s *ConversationService) List(ctx context.Context, skip, limit int) ([]model.Conversation, error) {
	convs, err := s.store.Repository(ctx).ListConversations(skip, limit)
	if err != nil {
		return nil, apperr.Internal("failed to list conversations", err)
	}
	return convs, nil
}

// ListMessages returns a page of a conversation's messages in creation order.
func (s *ConversationService) ListMessages(ctx context.Context, conversationID uint, skip, limit int) ([]model.Message, error) {
	var msgs []model.Message
	err := s.store.WithTx(ctx, func(repo *store.Repository) error {
		if _, err := repo.GetConversation(conversationID); err != nil {
			return err
		}
		var err error
		msgs, err = repo.ListMessages(conversationID, skip, limit)
		return err
	})
	if err != nil {
		return nil, lookupErr(err, msgConversationNotFound)
	}
	return msgs, nil
}

// Delete removes a conversation and all of its messages.
func (s *ConversationService) Delete(ctx context.Context, conversationID uint) error {
	deleted, err := s.store.Repository(ctx).DeleteConversation(conversationID)
	if err != nil {
		return apperr.Internal("failed to delete conversation", err)
	}
	if !deleted {
		return apperr.NotFound(msgConversationNotFound)
	}

	s.logger.Info("conversation deleted", zap.Uint("conversation_id", conversationID))
	s.events.emit(ctx, conversationID, model.EventConversationDeleted, nil, "")
	return nil
}
