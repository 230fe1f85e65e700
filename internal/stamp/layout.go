package stamp

import (
	"fmt"
	"math"

	"docstamp/internal/render"
)

// Field names match the form keys of the generation request.
const (
	FieldNationalID = "tc"
	FieldFirstName  = "ad"
	FieldLastName   = "soyad"
)

// eraseDrop lowers the erase band below the baseline to cover descenders.
const eraseDrop = 2

// Field positions one value on the template page.
type Field struct {
	Name        string
	X, Y        float64
	EraseWidth  float64
	EraseHeight float64
	FontSize    float64
}

// EraseRect is the band blanked before the value is drawn.
func (f Field) EraseRect() render.Rect {
	return render.Rect{X: f.X, Y: f.Y - eraseDrop, Width: f.EraseWidth, Height: f.EraseHeight}
}

// Layout is the fixed set of fields stamped onto one page, in drawing order.
type Layout struct {
	Page   int
	Fields []Field
}

// DefaultLayout matches the certificate template shipped with the service.
var DefaultLayout = Layout{
	Page: 1,
	Fields: []Field{
		{Name: FieldNationalID, X: 180, Y: 588, EraseWidth: 180, EraseHeight: 14, FontSize: 11},
		{Name: FieldFirstName, X: 180, Y: 571, EraseWidth: 180, EraseHeight: 14, FontSize: 11},
		{Name: FieldLastName, X: 180, Y: 554, EraseWidth: 180, EraseHeight: 14, FontSize: 11},
	},
}

// Validate checks the layout is drawable.
func (l Layout) Validate() error {
	if l.Page < 1 {
		return fmt.Errorf("layout page must be >= 1, got %d", l.Page)
	}
	if len(l.Fields) == 0 {
		return fmt.Errorf("layout has no fields")
	}
	seen := make(map[string]bool, len(l.Fields))
	for _, f := range l.Fields {
		switch f.Name {
		case FieldNationalID, FieldFirstName, FieldLastName:
		default:
			return fmt.Errorf("unknown layout field %q", f.Name)
		}
		if seen[f.Name] {
			return fmt.Errorf("duplicate layout field %q", f.Name)
		}
		seen[f.Name] = true
		if f.EraseWidth <= 0 || f.EraseHeight <= 0 || f.FontSize <= 0 {
			return fmt.Errorf("layout field %q needs positive erase size and font size", f.Name)
		}
		if f.FontSize != math.Trunc(f.FontSize) {
			return fmt.Errorf("layout field %q font size must be whole points, got %v", f.Name, f.FontSize)
		}
	}
	return nil
}
