package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/capitalize-ai/promptcraft/internal/middleware"
	"github.com/capitalize-ai/promptcraft/internal/model"
	"github.com/capitalize-ai/promptcraft/internal/service"
	"github.com/capitalize-ai/promptcraft/pkg/logger"
)

// EventReplayer reads back a conversation's published events.
type EventReplayer interface {
	ReplayEvents(ctx context.Context, conversationID uint, afterSequence uint64, limit int) ([]model.ChatEvent, uint64, error)
}

// ConversationHandler handles conversation endpoints.
type ConversationHandler struct {
	service *service.ConversationService
	events  EventReplayer
	logger  *logger.Logger
}

// NewConversationHandler creates a new conversation handler. events may be nil.
func NewConversationHandler(svc *service.ConversationService, events EventReplayer, log *logger.Logger) *ConversationHandler {
	return &ConversationHandler{
		service: svc,
		events:  events,
		logger:  log,
	}
}

// Create handles POST /api/conversation
func (h *ConversationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateConversationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := middleware.ValidatePromptText(req.SystemPromptUsed); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	conv, err := h.service.Create(r.Context(), &req)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, conv)
}

// List handles GET /api/conversations
func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	skip, limit, err := pagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	convs, err := h.service.List(r.Context(), skip, limit)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, convs)
}

// Messages handles GET /api/conversation/{id}/messages
func (h *ConversationHandler) Messages(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	skip, limit, err := pagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	msgs, err := h.service.ListMessages(r.Context(), id, skip, limit)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, msgs)
}

// Delete handles DELETE /api/conversation/{id}
func (h *ConversationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// EventsResponse is a page of replayed chat events.
type EventsResponse struct {
	Events       []model.ChatEvent `json:"events"`
	LastSequence uint64            `json:"last_sequence"`
}

// Events handles GET /api/conversation/{id}/events
// Supports ?after_sequence=N to resume after a previously seen event.
func (h *ConversationHandler) Events(w http.ResponseWriter, r *http.Request) {
	if h.events == nil {
		writeError(w, http.StatusServiceUnavailable, "event stream not configured")
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var afterSequence uint64
	if v := r.URL.Query().Get("after_sequence"); v != "" {
		if afterSequence, err = strconv.ParseUint(v, 10, 64); err != nil {
			writeError(w, http.StatusBadRequest, "after_sequence must be a non-negative integer")
			return
		}
	}

	_, limit, err := pagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	events, last, err := h.events.ReplayEvents(r.Context(), id, afterSequence, limit)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, &EventsResponse{Events: events, LastSequence: last})
}
