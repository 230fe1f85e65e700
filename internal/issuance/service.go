// Package issuance runs one certificate request end to end: validate, stamp,
// then record the generation.
package issuance

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"docstamp/internal/audit"
	"docstamp/internal/platform/metrics"
	"docstamp/internal/stamp"
	dErrors "docstamp/pkg/domain-errors"
	"docstamp/pkg/requestcontext"
)

type Stamper interface {
	Generate(ctx context.Context, req stamp.Request) (*stamp.Document, error)
}

type AuditLog interface {
	Append(ctx context.Context, actor string, req stamp.Request, ts time.Time) (*audit.Record, error)
}

type Service struct {
	stamper Stamper
	log     AuditLog
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

func New(stamper Stamper, log AuditLog, opts ...Option) *Service {
	s := &Service{
		stamper: stamper,
		log:     log,
		logger:  slog.Default(),
		tracer:  otel.Tracer("docstamp/internal/issuance"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue returns the stamped document for req. No document is returned unless
// its generation was recorded, and failed renders are never recorded.
func (s *Service) Issue(ctx context.Context, actor string, req stamp.Request) (*stamp.Document, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		s.fail(reasonValidation)
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "issuance.Issue", trace.WithAttributes(attribute.String("actor", actor)))
	defer span.End()

	doc, err := s.stamper.Generate(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "stamp failed")
		s.fail(reasonFor(err, reasonRender))
		return nil, err
	}

	rec, err := s.log.Append(ctx, actor, req, requestcontext.Now(ctx))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "audit append failed")
		s.fail(reasonStorage)
		if !dErrors.HasCode(err, dErrors.CodeStorageFailure) {
			err = dErrors.Wrap(err, dErrors.CodeStorageFailure, "failed to record generation")
		}
		return nil, err
	}

	span.SetAttributes(attribute.Int64("audit.record_id", rec.ID))
	s.logger.InfoContext(ctx, "document issued",
		"actor", actor,
		"record_id", rec.ID,
		"filename", doc.Filename,
		"request_id", requestcontext.RequestID(ctx),
	)
	if s.metrics != nil {
		s.metrics.IncrementDocumentsGenerated()
	}
	return doc, nil
}

const (
	reasonValidation = "validation"
	reasonRender     = "render"
	reasonStorage    = "storage"
)

func reasonFor(err error, fallback string) string {
	if dErrors.HasCode(err, dErrors.CodeValidation) {
		return reasonValidation
	}
	return fallback
}

func (s *Service) fail(reason string) {
	if s.metrics != nil {
		s.metrics.IncrementGenerationFailure(reason)
	}
}
