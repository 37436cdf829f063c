// Package http assembles the transport layer: middleware order, route
// grouping, and the thin handlers that bridge HTTP to the domain services.
package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"chatgate/internal/gateway"
	"chatgate/internal/platform/middleware"
)

// Deps carries everything the router mounts. All fields except Metrics are
// required.
type Deps struct {
	Logger      *slog.Logger
	Gateway     *gateway.Middleware
	Chat        *ChatHandler
	Usage       interface{ Routes(chi.Router) }
	Credentials interface{ Routes(chi.Router) }
	Metrics     http.Handler
}

// NewRouter builds the full request pipeline. Liveness and metrics endpoints
// sit outside the gateway so probes never depend on session state; everything
// else passes through one access decision per request.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging(deps.Logger))

	r.Get("/healthz", handleHealth)
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	r.Group(func(r chi.Router) {
		r.Use(deps.Gateway.Handle)

		r.Get("/", page("chatgate", "Welcome."))
		r.Get("/login", page("Sign in", "Sign in to continue."))
		r.Get("/signup", page("Sign up", "Create an account."))
		r.Get("/chat", page("Chat", "Start a conversation."))
		r.Get("/account", page("Account", "Manage your provider key."))

		r.Route("/api", func(r chi.Router) {
			r.Use(gateway.RequireIdentity(deps.Logger))
			r.Post("/chat", deps.Chat.HandleChat)
			deps.Usage.Routes(r)
			deps.Credentials.Routes(r)
		})
	})

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// page serves a minimal HTML shell. The real front end is rendered
// client-side; these exist so the redirect flow lands somewhere.
func page(title, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("<!doctype html><title>" + title + "</title><h1>" + title + "</h1><p>" + body + "</p>"))
	}
}
