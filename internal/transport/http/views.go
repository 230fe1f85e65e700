package httptransport

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"time"

	"docstamp/internal/admin"
)

//go:embed templates/*.gohtml
var templateFS embed.FS

type views struct {
	pages map[string]*template.Template
}

var funcs = template.FuncMap{
	"timestamp": func(t time.Time) string {
		return t.UTC().Format(time.RFC3339)
	},
}

func mustParseViews() *views {
	v := &views{pages: make(map[string]*template.Template)}
	for _, page := range []string{"login", "index", "admin", "logs", "message"} {
		v.pages[page] = template.Must(template.New("layout.gohtml").Funcs(funcs).
			ParseFS(templateFS, "templates/layout.gohtml", "templates/"+page+".gohtml"))
	}
	return v
}

// render executes page into a buffer first so a template error never leaves a
// half-written response.
func (v *views) render(w http.ResponseWriter, status int, page string, data any) error {
	var buf bytes.Buffer
	if err := v.pages[page].Execute(&buf, data); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

type loginPage struct {
	Error string
}

type indexPage struct {
	Actor   string
	IsAdmin bool
}

type adminPage struct {
	Actor string
	Users *admin.UsersListResponse
	Logs  *admin.LogsListResponse
}

type logsPage struct {
	Logs *admin.LogsListResponse
}

type messagePage struct {
	Title    string
	Message  string
	BackURL  string
	BackText string
}
