package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.IncrementDocumentsGenerated()
	m.IncrementDocumentsGenerated()
	m.IncrementGenerationFailure("render_failure")
	m.IncrementLogin("success")
	m.ObserveRenderDuration(time.Now().Add(-10 * time.Millisecond))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.DocumentsGenerated))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GenerationFailures.WithLabelValues("render_failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LoginAttempts.WithLabelValues("success")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.RenderDuration))
}

func TestNewOnSeparateRegistries(t *testing.T) {
	require.NotPanics(t, func() {
		New(prometheus.NewRegistry())
		New(prometheus.NewRegistry())
	})
}
