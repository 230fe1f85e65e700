package httptransport

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"docstamp/internal/auth/models"
	"docstamp/internal/stamp"
	dErrors "docstamp/pkg/domain-errors"
	authmw "docstamp/pkg/platform/middleware/auth"
)

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity := authmw.GetIdentity(ctx)
	isAdmin, err := h.gate.Authorize(ctx, identity, models.CapabilityAdminister)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	h.renderPage(w, r, http.StatusOK, "index", indexPage{Actor: identity.Actor, IsAdmin: isAdmin})
}

// handleGenerate stamps the submitted fields and streams the PDF back.
func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := r.ParseForm(); err != nil {
		h.renderError(w, r, dErrors.New(dErrors.CodeBadRequest, "invalid form body"))
		return
	}
	req := stamp.Request{
		NationalID: r.PostForm.Get("tc"),
		FirstName:  r.PostForm.Get("ad"),
		LastName:   r.PostForm.Get("soyad"),
	}

	doc, err := h.issuer.Issue(ctx, h.gate.Actor(authmw.GetIdentity(ctx)), req)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", contentDisposition(doc.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(doc.Bytes)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc.Bytes)
}

// contentDisposition builds an attachment header. Non-ASCII names get an ASCII
// fallback plus an RFC 5987 filename* parameter.
func contentDisposition(filename string) string {
	if isASCII(filename) {
		return fmt.Sprintf(`attachment; filename="%s"`, filename)
	}
	return fmt.Sprintf(`attachment; filename="%s"; filename*=UTF-8''%s`, asciiFallback(filename), encodeExtValue(filename))
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

func asciiFallback(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r < utf8.RuneSelf {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

// encodeExtValue percent-encodes everything outside RFC 5987 attr-char.
func encodeExtValue(s string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isAttrChar(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0f])
	}
	return b.String()
}

func isAttrChar(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte("!#$&+-.^_`|~", c) >= 0
}
