package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"chatgate/internal/completion"
	"chatgate/internal/gateway"
	"chatgate/internal/usage/models"
	dErrors "chatgate/pkg/domain-errors"
)

// Authorizer is the slice of the usage service the chat handler needs.
type Authorizer interface {
	AuthorizeCall(ctx context.Context, userID string) (models.Grant, error)
}

// ChatHandler fronts the metered completion capability. Every request is
// authorized against the per-user quota before the completion client runs.
type ChatHandler struct {
	usage      Authorizer
	completion completion.Client
	logger     *slog.Logger
}

func NewChatHandler(usage Authorizer, client completion.Client, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{usage: usage, completion: client, logger: logger}
}

type chatResponse struct {
	completion.Response
	Reason    models.Reason `json:"reason"`
	Remaining int           `json:"remaining,omitempty"`
}

func (h *ChatHandler) HandleChat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity := gateway.IdentityFrom(ctx)

	var req completion.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "A JSON body with a prompt is required")
		return
	}

	grant, err := h.usage.AuthorizeCall(ctx, identity.UserID)
	if err != nil {
		h.logger.ErrorContext(ctx, "call authorization failed",
			"user_id", identity.UserID, "error", err)
		writeDomainError(w, err)
		return
	}

	if !grant.Allowed {
		// The quota denial gets its own message so clients can distinguish
		// it from authentication failures.
		writeError(w, http.StatusTooManyRequests, string(models.ReasonQuotaExceeded),
			"Daily call limit reached. Add a personal provider key or try again tomorrow.")
		return
	}

	resp, err := h.completion.Complete(ctx, req)
	if err != nil {
		h.logger.ErrorContext(ctx, "completion call failed",
			"user_id", identity.UserID, "error", err)
		writeError(w, http.StatusBadGateway, "upstream_error", "The completion backend failed")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(chatResponse{
		Response:  resp,
		Reason:    grant.Reason,
		Remaining: grant.Remaining,
	})
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
