package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/UnknownOlympus/athena/internal/apperror"
	"github.com/UnknownOlympus/athena/internal/lib/logger/sl"
	"github.com/UnknownOlympus/athena/internal/models"
)

// envelope is the body of every API response.
type envelope struct {
	Success    bool                `json:"success"`
	Data       any                 `json:"data,omitempty"`
	Pagination *models.Pagination  `json:"pagination,omitempty"`
	Message    string              `json:"message,omitempty"`
	Errors     []models.FieldError `json:"errors,omitempty"`
	Stack      string              `json:"stack,omitempty"`
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		loggerFrom(ctx).ErrorContext(ctx, "Failed to write response", sl.Err(err))
	}
}

// writeError classifies err, logs it once and renders the error envelope.
func (a *API) writeError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	resp := apperror.Classify(err, apperror.Options{ExposeStack: a.opts.Env == envDevelopment})

	level := slog.LevelWarn
	if resp.Status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	loggerFrom(ctx).Log(ctx, level, "Request failed",
		slog.Int("status", resp.Status),
		slog.String("kind", resp.Kind.String()),
		sl.Err(err),
		sl.Trace(err),
	)

	if a.metrics != nil {
		a.metrics.ErrorsClassified.WithLabelValues(resp.Kind.String()).Inc()
	}

	writeJSON(ctx, w, resp.Status, envelope{
		Success: false,
		Message: resp.Message,
		Errors:  resp.Errors,
		Stack:   resp.Stack,
	})
}
