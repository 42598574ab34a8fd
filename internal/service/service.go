// Package service provides business logic for prompts, conversations and chat.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/capitalize-ai/promptcraft/internal/model"
	"github.com/capitalize-ai/promptcraft/internal/store"
	"github.com/capitalize-ai/promptcraft/pkg/apperr"
	"github.com/capitalize-ai/promptcraft/pkg/logger"
	"github.com/capitalize-ai/promptcraft/pkg/tracing"
)

const publishTimeout = 2 * time.Second

var tracer = tracing.Tracer("promptcraft/service")

// EventPublisher receives chat events after state changes.
type EventPublisher interface {
	Publish(ctx context.Context, event *model.ChatEvent) error
}

// events publishes best-effort; a nil publisher drops everything.
type events struct {
	publisher EventPublisher
	logger    *logger.Logger
}

func (e events) emit(ctx context.Context, conversationID uint, eventType model.EventType, msg *model.Message, reason string) {
	if e.publisher == nil {
		return
	}

	event := &model.ChatEvent{
		ID:             uuid.Must(uuid.NewV7()).String(),
		ConversationID: conversationID,
		Type:           eventType,
		Message:        msg,
		Reason:         reason,
		CreatedAt:      time.Now().UTC(),
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := e.publisher.Publish(pubCtx, event); err != nil {
		e.logger.Warn("failed to publish chat event",
			zap.String("event_type", string(eventType)),
			zap.Uint("conversation_id", conversationID),
			zap.Error(err),
		)
	}
}

// lookupErr converts a repository lookup failure into an application error.
func lookupErr(err error, notFoundMessage string) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound(notFoundMessage)
	}
	var appErr *apperr.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return apperr.Internal("database error", err)
}
