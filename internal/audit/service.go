// Package audit owns the generation log: an append-only sequence of records,
// listed most recent first and removable only by a bulk clear.
package audit

import (
	"context"
	"log/slog"
	"time"

	"docstamp/internal/platform/metrics"
	"docstamp/internal/stamp"
	dErrors "docstamp/pkg/domain-errors"
	auditevents "docstamp/pkg/platform/audit"
	"docstamp/pkg/requestcontext"
)

// Store persists records. Append assigns rec.ID. ListDescending orders by
// timestamp descending with ties broken by ID descending.
type Store interface {
	Append(ctx context.Context, rec *Record) error
	ListDescending(ctx context.Context) ([]*Record, error)
	Clear(ctx context.Context) error
}

// Mirror receives a copy of each appended record. Mirroring is best effort.
type Mirror interface {
	Enqueue(rec Record) bool
}

// Log is the generation log service.
type Log struct {
	store   Store
	mirror  Mirror
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Log)

func WithLogger(logger *slog.Logger) Option {
	return func(l *Log) {
		l.logger = logger
	}
}

func WithMirror(m Mirror) Option {
	return func(l *Log) {
		l.mirror = m
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Log) {
		l.metrics = m
	}
}

// New constructs a Log backed by store.
func New(store Store, opts ...Option) *Log {
	l := &Log{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Append records one successful generation by actor.
func (l *Log) Append(ctx context.Context, actor string, req stamp.Request, ts time.Time) (*Record, error) {
	rec := &Record{
		Actor:      actor,
		NationalID: req.NationalID,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Timestamp:  ts.UTC(),
	}
	if err := l.store.Append(ctx, rec); err != nil {
		l.logger.ErrorContext(ctx, "generation log append failed",
			"actor", actor,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		return nil, dErrors.Wrap(err, dErrors.CodeStorageFailure, "failed to record generation")
	}
	if l.mirror != nil && !l.mirror.Enqueue(*rec) {
		l.logger.WarnContext(ctx, "generation log mirror queue full", "record_id", rec.ID)
		if l.metrics != nil {
			l.metrics.IncrementAuditMirrorErrors()
		}
	}
	return rec, nil
}

// ListDescendingByTime returns every record, most recent first.
func (l *Log) ListDescendingByTime(ctx context.Context) ([]*Record, error) {
	records, err := l.store.ListDescending(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorageFailure, "failed to list generation log")
	}
	return records, nil
}

// Clear irreversibly removes every record.
func (l *Log) Clear(ctx context.Context) error {
	if err := l.store.Clear(ctx); err != nil {
		return dErrors.Wrap(err, dErrors.CodeStorageFailure, "failed to clear generation log")
	}
	event := auditevents.EventGenerationLogCleared
	l.logger.InfoContext(ctx, string(event), append(event.Attrs(),
		"actor", requestcontext.Actor(ctx),
		"request_id", requestcontext.RequestID(ctx),
	)...)
	if l.metrics != nil {
		l.metrics.IncrementLogsCleared()
	}
	return nil
}
