package stamp

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"golang.org/x/image/font/gofont/goregular"

	"docstamp/internal/render"
	"docstamp/internal/render/pdfcpu"
	dErrors "docstamp/pkg/domain-errors"
	"docstamp/pkg/testutil"
)

const (
	templatePath = "templates/certificate.pdf"
	fontPath     = "fonts/LiberationSans-Bold.ttf"
)

type StamperSuite struct {
	suite.Suite
	assets   fstest.MapFS
	renderer *fakeRenderer
	stamper  *Stamper
}

func TestStamperSuite(t *testing.T) {
	suite.Run(t, new(StamperSuite))
}

func (s *StamperSuite) SetupTest() {
	s.assets = fstest.MapFS{
		templatePath: {Data: []byte("%PDF-template-v1")},
		fontPath:     {Data: []byte("TTF-program")},
	}
	s.renderer = &fakeRenderer{}
	st, err := New(s.renderer, s.assets, templatePath, fontPath)
	s.Require().NoError(err)
	s.stamper = st
}

func validRequest() Request {
	return Request{NationalID: "12345678901", FirstName: "Ali", LastName: "Veli"}
}

func (s *StamperSuite) TestGenerate() {
	s.Run("erases then draws each field at its layout position", func() {
		doc, err := s.stamper.Generate(context.Background(), validRequest())
		s.Require().NoError(err)
		s.Equal("Ali_Veli.pdf", doc.Filename)
		s.True(bytes.HasPrefix(doc.Bytes, []byte("%PDF-")))

		s.Require().Len(s.renderer.docs, 1)
		ops := s.renderer.docs[0].ops
		s.Require().Len(ops, 6)

		expected := []struct {
			y    float64
			text string
		}{{588, "12345678901"}, {571, "Ali"}, {554, "Veli"}}
		for i, want := range expected {
			erase, draw := ops[2*i], ops[2*i+1]
			s.Equal("rect", erase.kind)
			s.Equal(1, erase.page)
			s.Equal(render.Rect{X: 180, Y: want.y - 2, Width: 180, Height: 14}, erase.rect)
			s.Equal(render.White, erase.color)

			s.Equal("text", draw.kind)
			s.Equal(want.text, draw.text)
			s.Equal(180.0, draw.opts.X)
			s.Equal(want.y, draw.opts.Y)
			s.Equal(11.0, draw.opts.Size)
			s.Equal(render.Black, draw.opts.Color)
		}
	})

	s.Run("trims surrounding whitespace", func() {
		doc, err := s.stamper.Generate(context.Background(), Request{NationalID: " 1 ", FirstName: "\tAli", LastName: "Veli\n"})
		s.Require().NoError(err)
		s.Equal("Ali_Veli.pdf", doc.Filename)
	})
}

func (s *StamperSuite) TestValidationHappensBeforeRendering() {
	cases := map[string]Request{
		"missing national id": {FirstName: "Ali", LastName: "Veli"},
		"missing first name":  {NationalID: "1", LastName: "Veli"},
		"blank last name":     {NationalID: "1", FirstName: "Ali", LastName: "   "},
		"control character":   {NationalID: "1\x00", FirstName: "Ali", LastName: "Veli"},
	}
	for name, req := range cases {
		s.Run(name, func() {
			_, err := s.stamper.Generate(context.Background(), req)
			s.Require().Error(err)
			s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		})
	}
	s.Empty(s.renderer.loaded, "renderer must not be touched for invalid input")
}

func (s *StamperSuite) TestRenderFailures() {
	s.Run("missing template", func() {
		delete(s.assets, templatePath)
		_, err := s.stamper.Generate(context.Background(), validRequest())
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeRenderFailure))
	})

	s.SetupTest()
	s.Run("missing font", func() {
		delete(s.assets, fontPath)
		_, err := s.stamper.Generate(context.Background(), validRequest())
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeRenderFailure))
	})

	s.SetupTest()
	s.Run("corrupt font", func() {
		s.assets[fontPath] = &fstest.MapFile{Data: []byte("garbage")}
		_, err := s.stamper.Generate(context.Background(), validRequest())
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeRenderFailure))
	})

	s.SetupTest()
	s.Run("corrupt template", func() {
		s.renderer.loadErr = dErrors.New(dErrors.CodeInternal, "xref broken")
		_, err := s.stamper.Generate(context.Background(), validRequest())
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeRenderFailure))
	})

	s.SetupTest()
	s.Run("template without the layout page", func() {
		st, err := New(s.renderer, s.assets, templatePath, fontPath, WithLayout(Layout{Page: 2, Fields: DefaultLayout.Fields}))
		s.Require().NoError(err)
		_, err = st.Generate(context.Background(), validRequest())
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeRenderFailure))
	})

	s.SetupTest()
	s.Run("glyph outside font coverage is surfaced", func() {
		s.renderer.uncovered = "ş"
		_, err := s.stamper.Generate(context.Background(), Request{NationalID: "1", FirstName: "Ayşe", LastName: "Veli"})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeRenderFailure))
		s.Contains(err.Error(), "ş")
		s.False(s.renderer.docs[0].serialized)
	})
}

func (s *StamperSuite) TestAssetsAreReadOnEveryCall() {
	_, err := s.stamper.Generate(context.Background(), validRequest())
	s.Require().NoError(err)

	s.assets[templatePath] = &fstest.MapFile{Data: []byte("%PDF-template-v2")}
	_, err = s.stamper.Generate(context.Background(), validRequest())
	s.Require().NoError(err)

	s.Require().Len(s.renderer.loaded, 2)
	s.Equal("%PDF-template-v1", string(s.renderer.loaded[0]))
	s.Equal("%PDF-template-v2", string(s.renderer.loaded[1]))
}

func (s *StamperSuite) TestOverlayDoesNotCarryOverBetweenGenerations() {
	first, err := s.stamper.Generate(context.Background(), validRequest())
	s.Require().NoError(err)
	second, err := s.stamper.Generate(context.Background(), Request{NationalID: "98765432109", FirstName: "Can", LastName: "Demir"})
	s.Require().NoError(err)

	s.Contains(string(first.Bytes), "Ali")
	for _, leftover := range []string{"12345678901", "Ali", "Veli"} {
		s.NotContains(string(second.Bytes), leftover)
	}
}

func (s *StamperSuite) TestNewRejectsInvalidLayout() {
	_, err := New(s.renderer, s.assets, templatePath, fontPath, WithLayout(Layout{Page: 1}))
	s.Require().Error(err)
}

func TestGenerateWithPdfcpu(t *testing.T) {
	renderer, err := pdfcpu.New(t.TempDir())
	if err != nil {
		t.Fatalf("renderer: %v", err)
	}
	assets := fstest.MapFS{
		templatePath: {Data: testutil.BlankPDF(1)},
		fontPath:     {Data: goregular.TTF},
	}
	st, err := New(renderer, assets, templatePath, fontPath)
	if err != nil {
		t.Fatalf("stamper: %v", err)
	}

	doc, err := st.Generate(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !bytes.HasPrefix(doc.Bytes, []byte("%PDF-")) {
		t.Fatalf("expected PDF signature, got %q", doc.Bytes[:8])
	}
	if doc.Filename != "Ali_Veli.pdf" {
		t.Fatalf("unexpected filename %q", doc.Filename)
	}

	_, err = st.Generate(context.Background(), Request{NationalID: "1", FirstName: "Ali", LastName: strings.Repeat("中", 2)})
	if !dErrors.HasCode(err, dErrors.CodeRenderFailure) {
		t.Fatalf("expected render failure for uncovered glyph, got %v", err)
	}
}

func newPdfcpuStamper(t *testing.T) *Stamper {
	t.Helper()
	renderer, err := pdfcpu.New(t.TempDir())
	require.NoError(t, err)
	st, err := New(renderer, fstest.MapFS{
		templatePath: {Data: testutil.BlankPDF(1)},
		fontPath:     {Data: goregular.TTF},
	}, templatePath, fontPath)
	require.NoError(t, err)
	return st
}

// assertStampedLayout checks each field is blanked and redrawn at its layout
// position, and that nothing else was stamped.
func assertStampedLayout(t *testing.T, pdf []byte) {
	t.Helper()
	placed, err := testutil.StampPlacements(pdf, DefaultLayout.Page)
	require.NoError(t, err)
	require.Len(t, placed, 2*len(DefaultLayout.Fields))

	for i, field := range DefaultLayout.Fields {
		box, text := placed[2*i], placed[2*i+1]
		erase := field.EraseRect()

		assert.False(t, box.Text, field.Name)
		assert.InDelta(t, erase.X, box.X, 0.01, field.Name)
		assert.InDelta(t, erase.Y, box.Y, 0.01, field.Name)
		assert.InDelta(t, erase.Width, box.Width, 0.01, field.Name)
		assert.InDelta(t, erase.Height, box.Height, 0.01, field.Name)

		assert.True(t, text.Text, field.Name)
		assert.InDelta(t, field.X, text.BaselineX, 0.01, field.Name)
		assert.InDelta(t, field.Y, text.BaselineY, 0.01, field.Name)
		assert.InDelta(t, field.FontSize, text.FontSize, 0.01, field.Name)
	}
}

func TestPdfcpuStampsCoverPlaceholderAndLandOnBaseline(t *testing.T) {
	st := newPdfcpuStamper(t)

	first, err := st.Generate(context.Background(), validRequest())
	require.NoError(t, err)
	assertStampedLayout(t, first.Bytes)

	// The template's placeholder baseline sits inside the national id erase band.
	band := DefaultLayout.Fields[0].EraseRect()
	assert.LessOrEqual(t, band.Y, 588.0)
	assert.GreaterOrEqual(t, band.Y+band.Height, 588.0+11)

	second, err := st.Generate(context.Background(), Request{NationalID: "98765432109", FirstName: "Can", LastName: "Demir"})
	require.NoError(t, err)
	assertStampedLayout(t, second.Bytes)
	assert.Equal(t, "Can_Demir.pdf", second.Filename)
}

func TestPdfcpuConcurrentGenerations(t *testing.T) {
	st := newPdfcpuStamper(t)
	const workers = 16

	var wg sync.WaitGroup
	docs := make([]*Document, workers)
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			docs[i], errs[i] = st.Generate(context.Background(), validRequest())
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assertStampedLayout(t, docs[i].Bytes)
	}
}
