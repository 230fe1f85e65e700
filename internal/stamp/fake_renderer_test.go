package stamp

import (
	"bytes"
	"errors"
	"image/color"
	"strings"

	"docstamp/internal/render"
)

type drawOp struct {
	kind  string
	page  int
	rect  render.Rect
	text  string
	opts  render.TextOptions
	color color.Color
}

// fakeRenderer records every document it loads.
type fakeRenderer struct {
	loadErr   error
	pages     int
	uncovered string
	loaded    [][]byte
	docs      []*fakeDocument
}

func (r *fakeRenderer) Load(template []byte) (render.Document, error) {
	r.loaded = append(r.loaded, template)
	if r.loadErr != nil {
		return nil, r.loadErr
	}
	pages := r.pages
	if pages == 0 {
		pages = 1
	}
	d := &fakeDocument{pages: pages, uncovered: r.uncovered}
	r.docs = append(r.docs, d)
	return d, nil
}

type fakeDocument struct {
	pages      int
	uncovered  string
	fonts      [][]byte
	ops        []drawOp
	serialized bool
}

func (d *fakeDocument) PageCount() int { return d.pages }

func (d *fakeDocument) EmbedFont(program []byte) (render.Font, error) {
	if !bytes.HasPrefix(program, []byte("TTF")) {
		return nil, errors.New("not a font")
	}
	d.fonts = append(d.fonts, program)
	return fakeFont{uncovered: d.uncovered}, nil
}

func (d *fakeDocument) DrawRectangle(page int, r render.Rect, fill color.Color) error {
	d.ops = append(d.ops, drawOp{kind: "rect", page: page, rect: r, color: fill})
	return nil
}

func (d *fakeDocument) DrawText(page int, text string, opts render.TextOptions) error {
	d.ops = append(d.ops, drawOp{kind: "text", page: page, text: text, opts: opts, color: opts.Color})
	return nil
}

// Serialize emits only the text drawn on this document, so outputs can be
// compared for leftovers from other generations.
func (d *fakeDocument) Serialize() ([]byte, error) {
	d.serialized = true
	var texts []string
	for _, op := range d.ops {
		if op.kind == "text" {
			texts = append(texts, op.text)
		}
	}
	return []byte("%PDF-fake\n" + strings.Join(texts, "\n")), nil
}

type fakeFont struct {
	uncovered string
}

func (f fakeFont) Name() string { return "FakeSans-Bold" }

func (f fakeFont) Covers(text string) (rune, bool) {
	for _, r := range text {
		if strings.ContainsRune(f.uncovered, r) {
			return r, false
		}
	}
	return 0, true
}
