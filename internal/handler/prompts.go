package handler

import (
	"net/http"

	"github.com/capitalize-ai/promptcraft/internal/middleware"
	"github.com/capitalize-ai/promptcraft/internal/model"
	"github.com/capitalize-ai/promptcraft/internal/service"
	"github.com/capitalize-ai/promptcraft/pkg/logger"
)

// PromptHandler handles prompt library endpoints.
type PromptHandler struct {
	service *service.PromptService
	logger  *logger.Logger
}

// NewPromptHandler creates a new prompt handler.
func NewPromptHandler(svc *service.PromptService, log *logger.Logger) *PromptHandler {
	return &PromptHandler{
		service: svc,
		logger:  log,
	}
}

// Create handles POST /api/prompts
func (h *PromptHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreatePromptRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := middleware.ValidatePromptName(req.Name); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := middleware.ValidatePromptText(req.Content); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	prompt, err := h.service.Create(r.Context(), &req)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, prompt)
}

// List handles GET /api/prompts
func (h *PromptHandler) List(w http.ResponseWriter, r *http.Request) {
	skip, limit, err := pagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	prompts, err := h.service.List(r.Context(), skip, limit)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, prompts)
}

// Get handles GET /api/prompts/{id}
func (h *PromptHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	prompt, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, prompt)
}

// Update handles PUT /api/prompts/{id}
func (h *PromptHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req model.UpdatePromptRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Name != nil {
		if err := middleware.ValidatePromptName(*req.Name); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if req.Content != nil {
		if err := middleware.ValidatePromptText(*req.Content); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	prompt, err := h.service.Update(r.Context(), id, &req)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, prompt)
}

// Delete handles DELETE /api/prompts/{id}
func (h *PromptHandler) Delete(w http.ResponseWriter, r *http.Request) {
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
