package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"docstamp/internal/auth/models"
)

type stubResolver struct {
	identity models.Identity
	err      error
	calls    int
}

func (s *stubResolver) Resolve(context.Context, string) (models.Identity, error) {
	s.calls++
	return s.identity, s.err
}

type stubReader string

func (s stubReader) Read(*http.Request) string { return string(s) }

func serve(resolver SessionResolver, reader SessionReader) models.Identity {
	var got models.Identity
	h := ResolveSession(resolver, reader, slog.New(slog.NewTextHandler(io.Discard, nil)))(
		http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			got = GetIdentity(r.Context())
		}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	return got
}

func TestResolveSession(t *testing.T) {
	t.Run("no cookie is anonymous without lookup", func(t *testing.T) {
		resolver := &stubResolver{identity: models.Identity{Actor: "alice"}}
		got := serve(resolver, stubReader(""))
		assert.True(t, got.IsAnonymous())
		assert.Zero(t, resolver.calls)
	})

	t.Run("resolved identity is attached", func(t *testing.T) {
		want := models.Identity{Actor: "alice", SessionID: "sid"}
		got := serve(&stubResolver{identity: want}, stubReader("sid"))
		assert.Equal(t, want, got)
	})

	t.Run("lookup failure continues anonymous", func(t *testing.T) {
		got := serve(&stubResolver{identity: models.Identity{Actor: "alice"}, err: errors.New("down")}, stubReader("sid"))
		assert.True(t, got.IsAnonymous())
	})
}
