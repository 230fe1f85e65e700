// Package render defines the document primitives the stamper composes:
// load a template, embed a font, draw rectangles and text, serialize.
package render

import "image/color"

// Renderer parses template bytes into an editable document.
type Renderer interface {
	Load(template []byte) (Document, error)
}

// Document is a loaded template accumulating drawing operations.
// Pages are 1-based; coordinates are page space with origin bottom-left.
type Document interface {
	PageCount() int
	EmbedFont(program []byte) (Font, error)
	DrawRectangle(page int, r Rect, fill color.Color) error
	DrawText(page int, text string, opts TextOptions) error
	Serialize() ([]byte, error)
}

// Font is an embedded font program.
type Font interface {
	Name() string
	// Covers returns the first rune of text the font has no glyph for.
	Covers(text string) (missing rune, ok bool)
}

// Rect is an axis-aligned rectangle in points.
type Rect struct {
	X, Y          float64
	Width, Height float64
}

// TextOptions positions a single line of text. X, Y is the baseline origin
// of the first glyph. Size is in whole points.
type TextOptions struct {
	X, Y  float64
	Size  float64
	Font  Font
	Color color.Color
}

var (
	White color.Color = color.White
	Black color.Color = color.Black
)
