package audit

import (
	"context"
	"log/slog"
	"time"

	"docstamp/internal/platform/metrics"
	"docstamp/pkg/platform/circuit"
)

// Publisher ships a record to an external sink.
type Publisher interface {
	Publish(ctx context.Context, rec Record) error
}

// Worker drains a bounded queue of records into a Publisher. It implements Mirror.
type Worker struct {
	publisher Publisher
	inbox     chan Record
	breaker   *circuit.Breaker
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

func NewWorker(publisher Publisher, buffer int, logger *slog.Logger, m *metrics.Metrics) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		publisher: publisher,
		inbox:     make(chan Record, buffer),
		breaker:   mirrorBreaker(),
		logger:    logger,
		metrics:   m,
	}
}

func mirrorBreaker() *circuit.Breaker {
	return circuit.New("audit-mirror",
		circuit.WithFailureThreshold(5),
		circuit.WithSuccessThreshold(1),
		circuit.WithCooldown(30*time.Second),
	)
}

// Enqueue hands rec to the worker without blocking. It reports false when the
// queue is full and the record was dropped.
func (w *Worker) Enqueue(rec Record) bool {
	select {
	case w.inbox <- rec:
		return true
	default:
		return false
	}
}

// Run publishes queued records until ctx is cancelled. Publish failures are
// logged and counted; they never stop the worker. While the broker circuit is
// open, records are dropped without a publish attempt.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case rec := <-w.inbox:
			w.publish(ctx, rec)
		}
	}
}

func (w *Worker) publish(ctx context.Context, rec Record) {
	if !w.breaker.Allow() {
		w.countError()
		return
	}
	if err := w.publisher.Publish(ctx, rec); err != nil {
		w.logger.WarnContext(ctx, "generation log mirror publish failed",
			"record_id", rec.ID,
			"error", err,
		)
		w.countError()
		if _, change := w.breaker.RecordFailure(); change.Opened {
			w.logger.ErrorContext(ctx, "generation log mirror circuit opened", "breaker", w.breaker.Name())
		}
		return
	}
	if _, change := w.breaker.RecordSuccess(); change.Closed {
		w.logger.InfoContext(ctx, "generation log mirror circuit closed", "breaker", w.breaker.Name())
	}
}

func (w *Worker) countError() {
	if w.metrics != nil {
		w.metrics.IncrementAuditMirrorErrors()
	}
}
