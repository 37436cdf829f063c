package gateway

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"chatgate/internal/gateway/metrics"
	"chatgate/internal/session/models"
)

const bearerPrefix = "Bearer "

// Decider is implemented by Service; the middleware depends on the interface
// so handler tests can substitute canned decisions.
type Decider interface {
	Decide(ctx context.Context, creds models.Credentials, path string) Decision
}

// Middleware applies the access decision to every request: redirects denials,
// rewrites rotated session cookies, and exposes the identity on the context.
type Middleware struct {
	decider    Decider
	cookieName string
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

type MiddlewareOption func(*Middleware)

func WithMetrics(m *metrics.Metrics) MiddlewareOption {
	return func(mw *Middleware) {
		mw.metrics = m
	}
}

func NewMiddleware(decider Decider, cookieName string, logger *slog.Logger, opts ...MiddlewareOption) *Middleware {
	mw := &Middleware{
		decider:    decider,
		cookieName: cookieName,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(mw)
	}
	return mw
}

// Handle is the composable request-pipeline stage: one decision per request,
// no implicit global session state.
func (m *Middleware) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		creds := m.extractCredentials(r)

		decision := m.decider.Decide(ctx, creds, r.URL.Path)

		if decision.RefreshedToken != "" {
			m.setSessionCookie(w, r, decision.RefreshedToken)
			m.metrics.RecordTokenRefresh()
		}

		if !decision.Allow {
			outcome := "redirect_sign_in"
			if !decision.Identity.IsAnonymous() {
				outcome = "redirect_landing"
			}
			m.metrics.RecordDecision(outcome)
			m.logger.DebugContext(ctx, "request redirected",
				"path", r.URL.Path,
				"location", decision.RedirectTo,
			)
			http.Redirect(w, r, decision.RedirectTo, http.StatusFound)
			return
		}

		m.metrics.RecordDecision("allow")
		if !decision.Identity.IsAnonymous() {
			ctx = WithIdentity(ctx, decision.Identity)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireIdentity guards API routes: anonymous requests get a 401 JSON body
// instead of a browser redirect.
func RequireIdentity(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := IdentityFrom(r.Context())
			if identity.IsAnonymous() {
				logger.DebugContext(r.Context(), "unauthorized api request", "path", r.URL.Path)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"unauthenticated","error_description":"A valid session is required"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (m *Middleware) extractCredentials(r *http.Request) models.Credentials {
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, bearerPrefix) {
		return models.Credentials{Token: strings.TrimPrefix(header, bearerPrefix)}
	}
	if cookie, err := r.Cookie(m.cookieName); err == nil {
		return models.Credentials{Token: cookie.Value}
	}
	return models.Credentials{}
}

func (m *Middleware) setSessionCookie(w http.ResponseWriter, r *http.Request, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}
