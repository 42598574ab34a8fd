package handler

import (
	"net/http"

	"github.com/capitalize-ai/promptcraft/internal/middleware"
	"github.com/capitalize-ai/promptcraft/internal/model"
	"github.com/capitalize-ai/promptcraft/internal/service"
	"github.com/capitalize-ai/promptcraft/pkg/logger"
)

// MessageHandler handles message endpoints.
type MessageHandler struct {
	chat   *service.ChatService
	logger *logger.Logger
}

// NewMessageHandler creates a new message handler.
func NewMessageHandler(chat *service.ChatService, log *logger.Logger) *MessageHandler {
	return &MessageHandler{
		chat:   chat,
		logger: log,
	}
}

// Send handles POST /api/conversation/{id}/send_message
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req model.SendMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := middleware.ValidateMessageContent(req.MessageContent); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	reply, err := h.chat.Send(r.Context(), id, &req)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, reply)
}

// Feedback handles PUT /api/message/{id}/feedback
func (h *MessageHandler) Feedback(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req model.FeedbackRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	msg, err := h.chat.UpdateFeedback(r.Context(), id, &req)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, msg)
}
