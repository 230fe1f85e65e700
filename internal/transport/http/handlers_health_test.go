package httptransport

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"docstamp/pkg/testutil"
)

func TestHealthEndpoints(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	healthy := func(context.Context) error { return nil }
	broken := func(context.Context) error { return errors.New("connection refused") }

	t.Run("liveness is always ok", func(t *testing.T) {
		router := NewRouter(NewHandler(nil, nil, nil, nil, logger, WithReadinessCheck("postgres", broken)))
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/healthz"))
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("readiness reports each check", func(t *testing.T) {
		router := NewRouter(NewHandler(nil, nil, nil, nil, logger,
			WithReadinessCheck("postgres", healthy),
			WithReadinessCheck("redis", broken)))
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/readyz"))
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
		assert.JSONEq(t, `{"status":"unavailable","checks":{"postgres":"ok","redis":"unavailable"}}`, rr.Body.String())
	})

	t.Run("metrics handler is mounted", func(t *testing.T) {
		metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("# HELP"))
		})
		router := NewRouter(NewHandler(nil, nil, nil, nil, logger, WithMetricsHandler(metrics)))
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/metrics"))
		assert.Equal(t, "# HELP", rr.Body.String())
	})
}
