package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	dErrors "chatgate/pkg/domain-errors"
	"chatgate/pkg/testutil"
)

type stubRegistry struct {
	setCalls   []string
	clearCalls []string
	err        error
}

func (s *stubRegistry) Set(_ context.Context, userID, key string) error {
	s.setCalls = append(s.setCalls, userID+":"+key)
	return s.err
}

func (s *stubRegistry) Clear(_ context.Context, userID string) error {
	s.clearCalls = append(s.clearCalls, userID)
	return s.err
}

func newRouter(registry Registry) http.Handler {
	h := New(registry, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r := chi.NewRouter()
	h.Routes(r)
	return r
}

func TestSetProviderKey(t *testing.T) {
	testutil.Given(t, "an authenticated user", func(t *testing.T) {
		testutil.When(t, "they register a provider key", func(t *testing.T) {
			registry := &stubRegistry{}
			req := testutil.NewJSONRequest(t, http.MethodPut, "/account/provider-key",
				map[string]string{"key": "sk-live-abc"})

			rr := testutil.DoRequest(newRouter(registry), testutil.AsUser(req, "user-1"))

			testutil.AssertStatus(t, rr, http.StatusNoContent)
			assert.Equal(t, []string{"user-1:sk-live-abc"}, registry.setCalls)
		})
	})
}

func TestSetProviderKey_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body any
	}{
		{name: "empty key", body: map[string]string{"key": ""}},
		{name: "missing key field", body: map[string]string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := &stubRegistry{}
			req := testutil.NewJSONRequest(t, http.MethodPut, "/account/provider-key", tt.body)

			rr := testutil.DoRequest(newRouter(registry), testutil.AsUser(req, "user-1"))

			testutil.AssertStatus(t, rr, http.StatusBadRequest)
			testutil.AssertErrorCode(t, rr, "bad_request")
			assert.Empty(t, registry.setCalls)
		})
	}
}

func TestSetProviderKey_StoreUnavailable(t *testing.T) {
	registry := &stubRegistry{err: dErrors.New(dErrors.CodeUnavailable, "store down")}
	req := testutil.NewJSONRequest(t, http.MethodPut, "/account/provider-key",
		map[string]string{"key": "sk-live-abc"})

	rr := testutil.DoRequest(newRouter(registry), testutil.AsUser(req, "user-1"))

	testutil.AssertStatus(t, rr, http.StatusServiceUnavailable)
	testutil.AssertErrorCode(t, rr, "unavailable")
}

func TestClearProviderKey(t *testing.T) {
	registry := &stubRegistry{}
	req := testutil.NewRequest(t, http.MethodDelete, "/account/provider-key")

	rr := testutil.DoRequest(newRouter(registry), testutil.AsUser(req, "user-1"))

	testutil.AssertStatus(t, rr, http.StatusNoContent)
	assert.Equal(t, []string{"user-1"}, registry.clearCalls)
}
