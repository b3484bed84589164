package web

import (
	"embed"
	"fmt"
	"html/template"
	"log"
	"net/http"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

// Page is the payload every template receives.
type Page struct {
	Title string
	User  any
	Error string
	Data  any
}

// Renderer executes the embedded page templates.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses all embedded templates once at startup.
func NewRenderer() (*Renderer, error) {
	t, err := template.ParseFS(templatesFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}
	return &Renderer{tmpl: t}, nil
}

// HTML writes the named template with the given status. Render failures
// are logged, not fatal; part of the page may already be on the wire.
func (r *Renderer) HTML(w http.ResponseWriter, status int, name string, p Page) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := r.tmpl.ExecuteTemplate(w, name, p); err != nil {
		log.Printf("[web] render %s: %v", name, err)
	}
}
