package gateway

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatgate/internal/session/models"
)

type stubDecider struct {
	decision Decision
	gotCreds models.Credentials
	gotPath  string
}

func (s *stubDecider) Decide(_ context.Context, creds models.Credentials, path string) Decision {
	s.gotCreds = creds
	s.gotPath = path
	return s.decision
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMiddleware_Handle(t *testing.T) {
	okHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("denied request is redirected", func(t *testing.T) {
		decider := &stubDecider{decision: Decision{Allow: false, RedirectTo: "/login"}}
		mw := NewMiddleware(decider, "chatgate_session", discardLogger())

		rec := httptest.NewRecorder()
		mw.Handle(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/chat", nil))

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/login", rec.Header().Get("Location"))
	})

	t.Run("allowed request passes through with identity in context", func(t *testing.T) {
		decider := &stubDecider{decision: Decision{
			Allow:    true,
			Identity: models.Identity{UserID: "user-1"},
		}}
		mw := NewMiddleware(decider, "chatgate_session", discardLogger())

		var seen models.Identity
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = IdentityFrom(r.Context())
		})

		rec := httptest.NewRecorder()
		mw.Handle(handler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/chat", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "user-1", seen.UserID)
	})

	t.Run("rotated token is written back as a cookie", func(t *testing.T) {
		decider := &stubDecider{decision: Decision{
			Allow:          true,
			Identity:       models.Identity{UserID: "user-1"},
			RefreshedToken: "rotated-token",
		}}
		mw := NewMiddleware(decider, "chatgate_session", discardLogger())

		rec := httptest.NewRecorder()
		mw.Handle(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/chat", nil))

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, "chatgate_session", cookies[0].Name)
		assert.Equal(t, "rotated-token", cookies[0].Value)
		assert.True(t, cookies[0].HttpOnly)
	})

	t.Run("credentials come from the session cookie", func(t *testing.T) {
		decider := &stubDecider{decision: Decision{Allow: true}}
		mw := NewMiddleware(decider, "chatgate_session", discardLogger())

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "chatgate_session", Value: "cookie-token"})
		mw.Handle(okHandler).ServeHTTP(httptest.NewRecorder(), req)

		assert.Equal(t, "cookie-token", decider.gotCreds.Token)
	})

	t.Run("bearer token wins over the cookie", func(t *testing.T) {
		decider := &stubDecider{decision: Decision{Allow: true}}
		mw := NewMiddleware(decider, "chatgate_session", discardLogger())

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer header-token")
		req.AddCookie(&http.Cookie{Name: "chatgate_session", Value: "cookie-token"})
		mw.Handle(okHandler).ServeHTTP(httptest.NewRecorder(), req)

		assert.Equal(t, "header-token", decider.gotCreds.Token)
	})
}

func TestRequireIdentity(t *testing.T) {
	handler := RequireIdentity(discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("anonymous gets 401", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/usage", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "unauthenticated")
	})

	t.Run("authenticated passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/usage", nil)
		req = req.WithContext(WithIdentity(req.Context(), models.Identity{UserID: "user-1"}))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
