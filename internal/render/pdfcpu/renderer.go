// Package pdfcpu implements render.Renderer on top of pdfcpu stamps.
//
// Drawing operations are recorded per page and applied in order as stamps when the
// document is serialized. Rectangles become opaque image stamps, text becomes text
// stamps using a user font installed into pdfcpu's font directory.
package pdfcpu

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/font"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"golang.org/x/image/font/sfnt"

	"docstamp/internal/render"
)

// Renderer loads PDF templates and installs embedded fonts once per content hash.
// pdfcpu mutates its Configuration while reading and stamping, so every
// document gets its own.
type Renderer struct {
	fontDir string

	mu        sync.Mutex
	installed map[string]string
}

// New prepares pdfcpu to use fontDir for installed user fonts.
func New(fontDir string) (*Renderer, error) {
	if fontDir == "" {
		return nil, fmt.Errorf("font directory is required")
	}
	if err := os.MkdirAll(fontDir, 0o755); err != nil {
		return nil, fmt.Errorf("create font directory: %w", err)
	}
	api.DisableConfigDir()
	font.UserFontDir = fontDir

	return &Renderer{
		fontDir:   fontDir,
		installed: make(map[string]string),
	}, nil
}

// Load parses and validates template bytes.
func (r *Renderer) Load(template []byte) (render.Document, error) {
	conf := newConfiguration()
	ctx, err := api.ReadContext(bytes.NewReader(template), conf)
	if err != nil {
		return nil, fmt.Errorf("read template: %w", err)
	}
	if err := api.ValidateContext(ctx); err != nil {
		return nil, fmt.Errorf("validate template: %w", err)
	}
	return &document{
		renderer: r,
		conf:     conf,
		src:      template,
		pages:    ctx.PageCount,
		stamps:   make(map[int][]*model.Watermark),
	}, nil
}

// install registers a TrueType program with pdfcpu under its PostScript name.
func (r *Renderer) install(name string, program []byte) error {
	sum := sha256.Sum256(program)
	digest := hex.EncodeToString(sum[:])

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.installed[name] == digest {
		return nil
	}

	tmp, err := os.MkdirTemp("", "docstamp-font-")
	if err != nil {
		return fmt.Errorf("stage font: %w", err)
	}
	defer os.RemoveAll(tmp)

	path := filepath.Join(tmp, name+".ttf")
	if err := os.WriteFile(path, program, 0o600); err != nil {
		return fmt.Errorf("stage font: %w", err)
	}
	if err := api.InstallFonts([]string{path}); err != nil {
		return fmt.Errorf("install font %s: %w", name, err)
	}
	// InstallFonts only logs per-file failures.
	if !font.SupportedFont(name) {
		return fmt.Errorf("install font %s: not registered with pdfcpu", name)
	}
	r.installed[name] = digest
	return nil
}

type document struct {
	renderer *Renderer
	conf     *model.Configuration
	src      []byte
	pages    int
	stamps   map[int][]*model.Watermark
	font     *embeddedFont
}

func (d *document) PageCount() int {
	return d.pages
}

func (d *document) EmbedFont(program []byte) (render.Font, error) {
	parsed, err := sfnt.Parse(program)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	name, err := parsed.Name(nil, sfnt.NameIDPostScript)
	if err != nil || name == "" {
		return nil, fmt.Errorf("font has no PostScript name")
	}
	if err := d.renderer.install(name, program); err != nil {
		return nil, err
	}
	d.font = &embeddedFont{name: name, sfnt: parsed}
	return d.font, nil
}

func (d *document) DrawRectangle(page int, rect render.Rect, fill color.Color) error {
	if err := d.checkPage(page); err != nil {
		return err
	}
	w, h := int(math.Ceil(rect.Width)), int(math.Ceil(rect.Height))
	if w <= 0 || h <= 0 {
		return fmt.Errorf("rectangle has empty area")
	}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(fill), image.Point{}, draw.Src)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("encode rectangle: %w", err)
	}

	desc := fmt.Sprintf("position:bl, offset:%s %s, scalefactor:1 abs, rotation:0, opacity:1",
		pt(rect.X), pt(rect.Y))
	wm, err := api.ImageWatermarkForReader(&buf, desc, true, false, types.POINTS)
	if err != nil {
		return fmt.Errorf("build rectangle stamp: %w", err)
	}
	d.stamps[page] = append(d.stamps[page], wm)
	return nil
}

func (d *document) DrawText(page int, text string, opts render.TextOptions) error {
	if err := d.checkPage(page); err != nil {
		return err
	}
	f, ok := opts.Font.(*embeddedFont)
	if !ok || f != d.font {
		return fmt.Errorf("font is not embedded in this document")
	}
	if missing, ok := f.Covers(text); !ok {
		return fmt.Errorf("font %s has no glyph for %q", f.name, missing)
	}

	size := int(math.Round(opts.Size))
	if size <= 0 {
		return fmt.Errorf("font size %v is not a positive whole point size", opts.Size)
	}

	// pdfcpu anchors the text box, not the baseline. The box bottom sits at the
	// font's rounded-up descent below the baseline.
	descent := math.Ceil(font.Descent(f.name, size))
	desc := fmt.Sprintf("fontname:%s, points:%d, position:bl, offset:%s %s, scalefactor:1 abs, rotation:0, fillcolor:%s, opacity:1",
		f.name, size, pt(opts.X), pt(opts.Y-descent), hexColor(opts.Color))
	wm, err := api.TextWatermark(text, desc, true, false, types.POINTS)
	if err != nil {
		return fmt.Errorf("build text stamp: %w", err)
	}
	d.stamps[page] = append(d.stamps[page], wm)
	return nil
}

func (d *document) Serialize() ([]byte, error) {
	if len(d.stamps) == 0 {
		out := make([]byte, len(d.src))
		copy(out, d.src)
		return out, nil
	}
	var out bytes.Buffer
	if err := api.AddWatermarksSliceMap(bytes.NewReader(d.src), &out, d.stamps, d.conf); err != nil {
		return nil, fmt.Errorf("apply stamps: %w", err)
	}
	return out.Bytes(), nil
}

func (d *document) checkPage(page int) error {
	if page < 1 || page > d.pages {
		return fmt.Errorf("page %d out of range (document has %d)", page, d.pages)
	}
	return nil
}

type embeddedFont struct {
	name string
	sfnt *sfnt.Font
}

func (f *embeddedFont) Name() string {
	return f.name
}

func (f *embeddedFont) Covers(text string) (rune, bool) {
	var buf sfnt.Buffer
	for _, r := range text {
		idx, err := f.sfnt.GlyphIndex(&buf, r)
		if err != nil || idx == 0 {
			return r, false
		}
	}
	return 0, true
}

func newConfiguration() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

func pt(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func hexColor(c color.Color) string {
	if c == nil {
		c = color.Black
	}
	r, g, b, _ := c.RGBA()
	return fmt.Sprintf("#%02X%02X%02X", r>>8, g>>8, b>>8)
}
