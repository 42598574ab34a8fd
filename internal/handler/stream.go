package handler

import (
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/capitalize-ai/promptcraft/internal/middleware"
	"github.com/capitalize-ai/promptcraft/internal/model"
	"github.com/capitalize-ai/promptcraft/internal/service"
	"github.com/capitalize-ai/promptcraft/pkg/logger"
)

// StreamStatusTrailer reports whether a streamed reply finished.
const StreamStatusTrailer = "X-Stream-Status"

// StreamHandler handles the chunked streaming reply endpoint.
type StreamHandler struct {
	chat   *service.ChatService
	logger *logger.Logger
}

// NewStreamHandler creates a new stream handler.
func NewStreamHandler(chat *service.ChatService, log *logger.Logger) *StreamHandler {
	return &StreamHandler{
		chat:   chat,
		logger: log,
	}
}

// SendStream handles POST /api/conversation/{id}/send_message_stream
// The body is the raw reply text, flushed fragment by fragment. The outcome
// is sent in the X-Stream-Status trailer.
func (h *StreamHandler) SendStream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

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

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	stream, err := h.chat.BeginStream(ctx, id, &req)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	w.Header().Set("Trailer", StreamStatusTrailer)
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	result := stream.Run(ctx, func(fragment string) error {
		if _, err := io.WriteString(w, fragment); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	})

	w.Header().Set(StreamStatusTrailer, string(result.Status))

	if result.Err != nil {
		log := h.logger.WithCorrelationID(middleware.GetCorrelationID(ctx))
		log.Warn("stream ended early",
			zap.Uint("conversation_id", id),
			zap.Bool("saved", result.Message != nil),
			zap.Error(result.Err),
		)
	}
}
