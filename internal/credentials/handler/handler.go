package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"chatgate/internal/gateway"
	dErrors "chatgate/pkg/domain-errors"
)

// Registry is the slice of the credential service the handler needs.
type Registry interface {
	Set(ctx context.Context, userID, key string) error
	Clear(ctx context.Context, userID string) error
}

type Handler struct {
	registry Registry
	logger   *slog.Logger
}

func New(registry Registry, logger *slog.Logger) *Handler {
	return &Handler{registry: registry, logger: logger}
}

// Routes mounts the provider-key endpoints. Callers must wrap them with
// gateway.RequireIdentity.
func (h *Handler) Routes(r chi.Router) {
	r.Put("/account/provider-key", h.setProviderKey)
	r.Delete("/account/provider-key", h.clearProviderKey)
}

type setKeyRequest struct {
	Key string `json:"key"`
}

func (h *Handler) setProviderKey(w http.ResponseWriter, r *http.Request) {
	identity := gateway.IdentityFrom(r.Context())

	var req setKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Key == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "A non-empty key is required")
		return
	}

	if err := h.registry.Set(r.Context(), identity.UserID, req.Key); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to register provider key",
			"user_id", identity.UserID, "error", err)
		writeDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) clearProviderKey(w http.ResponseWriter, r *http.Request) {
	identity := gateway.IdentityFrom(r.Context())

	if err := h.registry.Clear(r.Context(), identity.UserID); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to remove provider key",
			"user_id", identity.UserID, "error", err)
		writeDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
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
