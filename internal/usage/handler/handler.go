package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"chatgate/internal/gateway"
	"chatgate/internal/usage/models"
	dErrors "chatgate/pkg/domain-errors"
)

// StatsReader is the slice of the usage service the handler needs.
type StatsReader interface {
	Stats(ctx context.Context, userID string) (models.Stats, error)
}

type Handler struct {
	usage  StatsReader
	logger *slog.Logger
}

func New(usage StatsReader, logger *slog.Logger) *Handler {
	return &Handler{usage: usage, logger: logger}
}

// Routes mounts the usage endpoints. Callers must wrap them with
// gateway.RequireIdentity.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/usage", h.getUsage)
}

func (h *Handler) getUsage(w http.ResponseWriter, r *http.Request) {
	identity := gateway.IdentityFrom(r.Context())

	stats, err := h.usage.Stats(r.Context(), identity.UserID)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to read usage stats",
			"user_id", identity.UserID, "error", err)
		writeDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(stats)
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch dErrors.CodeOf(err) {
	case dErrors.CodeBadRequest:
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request")
	case dErrors.CodeUnavailable:
		writeError(w, http.StatusServiceUnavailable, "unavailable", "Please try again shortly")
	default:
		writeError(w, http.StatusInternalServerError, "internal", "Something went wrong")
	}
}

func writeError(w http.ResponseWriter, status int, code, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":             code,
		"error_description": description,
	})
}
