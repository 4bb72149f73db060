package handler

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/csrf"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"github.com/mylankajourney/admin-console/internal/catalog"
	"github.com/mylankajourney/admin-console/internal/session"
	"github.com/mylankajourney/admin-console/web"
)

// mdRenderer converts descriptions and special requests to HTML. Raw HTML in
// the input is escaped because WithUnsafe is not set.
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

func markdown(md string) template.HTML {
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(buf.String())
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02 15:04")
}

var funcs = template.FuncMap{
	"markdown":   markdown,
	"formatTime": formatTime,
	"join":       func(items []string) string { return strings.Join(items, ", ") },
}

var pages = []string{"login", "dashboard", "content", "bookings", "booking", "audit", "error"}

// renderer holds one parsed template set per page, each combined with the layout.
type renderer struct {
	pages map[string]*template.Template
}

func newRenderer() (*renderer, error) {
	v := &renderer{pages: make(map[string]*template.Template, len(pages))}
	for _, name := range pages {
		t, err := template.New(name).Funcs(funcs).ParseFS(web.Templates, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", name, err)
		}
		v.pages[name] = t
	}
	return v, nil
}

// page is the data every template receives. Data carries the page's own view.
type page struct {
	Title    string
	Section  string
	Operator string
	Banner   string
	Kinds    []catalog.Kind
	CSRF     template.HTML
	Data     any
}

// render executes the named page into a buffer first so a template failure
// never leaves a half-written response.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, p page) {
	if sess, ok := session.FromContext(r.Context()); ok && sess.Authenticated() {
		p.Operator = sess.Email
		p.Kinds = s.content.Kinds()
	}
	p.CSRF = csrf.TemplateField(r)

	var buf bytes.Buffer
	if err := s.views.pages[name].ExecuteTemplate(&buf, "layout", p); err != nil {
		s.log.ErrorContext(r.Context(), "rendering page failed", "page", name, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
