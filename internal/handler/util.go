// Package handler provides HTTP handlers for the API.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/capitalize-ai/promptcraft/internal/middleware"
	"github.com/capitalize-ai/promptcraft/pkg/apperr"
	"github.com/capitalize-ai/promptcraft/pkg/logger"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
	})
}

// writeAppError maps a service error to its status code and logs server-side failures.
func writeAppError(w http.ResponseWriter, r *http.Request, log *logger.Logger, err error) {
	status := apperr.HTTPStatus(err)

	message := "internal server error"
	var appErr *apperr.AppError
	if errors.As(err, &appErr) {
		switch appErr.Code {
		case apperr.CodeInternal:
		case apperr.CodeGenerationFailed:
			message = appErr.Error()
		default:
			message = appErr.Message
		}
	}

	if status >= http.StatusInternalServerError {
		log.WithCorrelationID(middleware.GetCorrelationID(r.Context())).Error("request failed",
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Error(err),
		)
	}

	writeError(w, status, message)
}

func decodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.New("invalid request body")
	}
	return nil
}

// pathID parses the {name} URL parameter as a resource ID.
func pathID(r *http.Request, name string) (uint, error) {
	return middleware.ParseID(chi.URLParam(r, name))
}

// pagination reads skip and limit query parameters. Missing values fall back
// to 0 and 100; range clamping happens in the store.
func pagination(r *http.Request) (skip, limit int, err error) {
	skip, limit = 0, 100

	q := r.URL.Query()
	if v := q.Get("skip"); v != "" {
		if skip, err = strconv.Atoi(v); err != nil {
			return 0, 0, errors.New("skip must be an integer")
		}
	}
	if v := q.Get("limit"); v != "" {
		if limit, err = strconv.Atoi(v); err != nil {
			return 0, 0, errors.New("limit must be an integer")
		}
	}
	return skip, limit, nil
}
