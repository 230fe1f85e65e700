// Package stamp fills the certificate template with the three request fields.
package stamp

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"docstamp/internal/platform/metrics"
	"docstamp/internal/render"
	dErrors "docstamp/pkg/domain-errors"
)

// Stamper erases each layout band on the template and draws the matching value.
// Assets are read from the filesystem on every call so the output always reflects
// the files on disk.
type Stamper struct {
	renderer     render.Renderer
	assets       fs.FS
	templatePath string
	fontPath     string
	layout       Layout
	logger       *slog.Logger
	metrics      *metrics.Metrics
	tracer       trace.Tracer
}

type Option func(*Stamper)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Stamper) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Stamper) {
		s.metrics = m
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Stamper) {
		s.tracer = t
	}
}

// WithLayout replaces DefaultLayout. The layout is validated by New.
func WithLayout(l Layout) Option {
	return func(s *Stamper) {
		s.layout = l
	}
}

// New constructs a Stamper reading templatePath and fontPath from assets.
func New(renderer render.Renderer, assets fs.FS, templatePath, fontPath string, opts ...Option) (*Stamper, error) {
	s := &Stamper{
		renderer:     renderer,
		assets:       assets,
		templatePath: templatePath,
		fontPath:     fontPath,
		layout:       DefaultLayout,
		logger:       slog.Default(),
		tracer:       otel.Tracer("docstamp/internal/stamp"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.layout.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Generate validates req and returns the stamped document.
func (s *Stamper) Generate(ctx context.Context, req Request) (*Document, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "stamp.Generate")
	defer span.End()
	if s.metrics != nil {
		defer s.metrics.ObserveRenderDuration(time.Now())
	}

	out, err := s.render(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "render failed")
		s.logger.ErrorContext(ctx, "stamping failed", "error", err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("stamp.output_bytes", len(out)))

	return &Document{Bytes: out, Filename: Filename(req.FirstName, req.LastName)}, nil
}

func (s *Stamper) render(ctx context.Context, req Request) ([]byte, error) {
	template, fontProgram, err := s.loadAssets(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeRenderFailure, "failed to read stamping assets")
	}

	doc, err := s.renderer.Load(template)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeRenderFailure, "failed to load template")
	}
	if doc.PageCount() < s.layout.Page {
		return nil, dErrors.New(dErrors.CodeRenderFailure,
			fmt.Sprintf("template has %d pages, layout needs page %d", doc.PageCount(), s.layout.Page))
	}

	font, err := doc.EmbedFont(fontProgram)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeRenderFailure, "failed to embed font")
	}

	for _, field := range s.layout.Fields {
		value := req.Value(field.Name)
		if missing, ok := font.Covers(value); !ok {
			return nil, dErrors.New(dErrors.CodeRenderFailure,
				fmt.Sprintf("font %s cannot draw %q in field %s", font.Name(), missing, field.Name))
		}
		if err := doc.DrawRectangle(s.layout.Page, field.EraseRect(), render.White); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeRenderFailure, "failed to erase field "+field.Name)
		}
		err := doc.DrawText(s.layout.Page, value, render.TextOptions{
			X:     field.X,
			Y:     field.Y,
			Size:  field.FontSize,
			Font:  font,
			Color: render.Black,
		})
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeRenderFailure, "failed to draw field "+field.Name)
		}
	}

	out, err := doc.Serialize()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeRenderFailure, "failed to serialize document")
	}
	return out, nil
}

// loadAssets reads the template and the font concurrently.
func (s *Stamper) loadAssets(ctx context.Context) (template, fontProgram []byte, err error) {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		b, err := readAsset(ctx, s.assets, s.templatePath)
		template = b
		return err
	})
	g.Go(func() error {
		b, err := readAsset(ctx, s.assets, s.fontPath)
		fontProgram = b
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return template, fontProgram, nil
}

func readAsset(ctx context.Context, assets fs.FS, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := fs.ReadFile(assets, name)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return b, nil
}
