package stamp

import (
	"fmt"
	"strings"
	"unicode"

	dErrors "docstamp/pkg/domain-errors"
)

// Request carries the three untrusted field values for one generation.
type Request struct {
	NationalID string
	FirstName  string
	LastName   string
}

// Normalize trims surrounding whitespace from every field.
func (r *Request) Normalize() {
	r.NationalID = strings.TrimSpace(r.NationalID)
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
}

// Validate requires every field to be non-empty printable text.
func (r Request) Validate() error {
	for _, f := range []struct{ label, value string }{
		{"national id", r.NationalID},
		{"first name", r.FirstName},
		{"last name", r.LastName},
	} {
		if f.value == "" {
			return dErrors.New(dErrors.CodeValidation, f.label+" is required")
		}
		for _, c := range f.value {
			if !unicode.IsPrint(c) {
				return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s contains a non-printable character", f.label))
			}
		}
	}
	return nil
}

// Value returns the request value stamped into the named layout field.
func (r Request) Value(field string) string {
	switch field {
	case FieldNationalID:
		return r.NationalID
	case FieldFirstName:
		return r.FirstName
	case FieldLastName:
		return r.LastName
	default:
		return ""
	}
}

// Document is a generated PDF. It is never persisted.
type Document struct {
	Bytes    []byte
	Filename string
}

// Filename derives "<first>_<last>.pdf", replacing characters that are unsafe in
// a download name with '_'.
func Filename(firstName, lastName string) string {
	clean := func(s string) string {
		return strings.Map(func(c rune) rune {
			switch {
			case c == '/', c == '\\', c == '"', c == ':', unicode.IsControl(c):
				return '_'
			default:
				return c
			}
		}, s)
	}
	return clean(firstName) + "_" + clean(lastName) + ".pdf"
}
