// Package webui mirrors the Signal Model / Menu State onto a browser over
// SSE, for development without an LCD, grounded on teacher's web.go and
// hub/hub.go adapted from a CAN-frame event hub to display.DashboardTarget's
// two-row frame broadcast.
package webui

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"

	ds "github.com/starfederation/datastar-go/datastar"

	"kwpdash/display"
)

//go:embed templates/*.gohtml
var templatesFS embed.FS

//go:embed static/*
var staticFS embed.FS

// Server renders display.DashboardTarget over HTTP: a full page on "/" and
// an SSE stream of patches on "/events".
type Server struct {
	tmpl      *template.Template
	dashboard *display.DashboardTarget
}

// New parses the embedded templates and binds to dashboard.
func New(dashboard *display.DashboardTarget) (*Server, error) {
	tmpl, err := template.New("").ParseFS(templatesFS, "templates/*.gohtml")
	if err != nil {
		return nil, fmt.Errorf("webui: parse templates: %w", err)
	}
	return &Server{tmpl: tmpl, dashboard: dashboard}, nil
}

// Mux returns the registered handler, matching teacher's main.go routing.
func (s *Server) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.IndexHandler)
	mux.HandleFunc("/events", s.EventsHandler)
	mux.Handle("/static/", http.FileServer(http.FS(staticFS)))
	return mux
}

// IndexHandler renders the current dashboard frame as the initial page.
func (s *Server) IndexHandler(w http.ResponseWriter, _ *http.Request) {
	frame := s.dashboard.Frame()
	err := s.tmpl.ExecuteTemplate(w, "index", map[string]any{
		"Row0": frame[0],
		"Row1": frame[1],
	})
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}

// EventsHandler streams every subsequent dashboard frame as an SSE patch to
// the "#display" element, until the client disconnects.
func (s *Server) EventsHandler(w http.ResponseWriter, r *http.Request) {
	sse := ds.NewSSE(w, r)

	ch, cancel := s.dashboard.Subscribe()
	defer cancel()

	for {
		select {
		case <-r.Context().Done():
			return
		case frame, ok := <-ch:
			if !ok {
				return
			}
			if err := sse.PatchElements(renderFragment(frame)); err != nil {
				return
			}
		}
	}
}

func renderFragment(frame [2]string) string {
	return fmt.Sprintf(
		`<div id="display"><pre class="lcd-row">%s</pre><pre class="lcd-row">%s</pre></div>`,
		template.HTMLEscapeString(frame[0]),
		template.HTMLEscapeString(frame[1]),
	)
}
