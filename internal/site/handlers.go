package site

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/relnote-labs/relnote/internal/loader"
	"github.com/relnote-labs/relnote/internal/release"
)

//go:embed templates/*.tmpl
var pageFS embed.FS

var pageTemplates = template.Must(
	template.New("site").Funcs(template.FuncMap{
		"tickets": func(tickets []int) string {
			out := ""
			for i, t := range tickets {
				if i > 0 {
					out += ", "
				}
				out += fmt.Sprintf("#%d", t)
			}
			return out
		},
	}).ParseFS(pageFS, "templates/*.tmpl"),
)

// seriesPreview is one series' compiled unreleased notes, for rendering.
type seriesPreview struct {
	Name      string
	Fragments int
	Document  *release.Document
}

// pageData is the template context for the preview pages.
type pageData struct {
	Title       string
	GeneratedAt string
	Series      []seriesPreview
	Failures    []string
}

// buildPreviews loads the tree fresh and compiles every series. The tree is
// small enough that re-parsing per request beats cache invalidation.
func (s *Server) buildPreviews(r *http.Request, only string) (*pageData, error) {
	tree, err := loader.Load(r.Context(), s.changelogDir)
	if err != nil {
		return nil, err
	}

	data := &pageData{
		Title:       "Unreleased changes",
		GeneratedAt: time.Now().Format("2006-01-02 15:04:05"),
	}
	date := time.Now().Format("2006-01-02")

	for _, name := range tree.SeriesNames() {
		if only != "" && name != only {
			continue
		}
		files := tree.SeriesFiles(name)
		doc := release.Compile(files, "unreleased", date, name,
			release.CompileOptions{Categories: s.categories})
		data.Series = append(data.Series, seriesPreview{
			Name:      name,
			Fragments: len(files),
			Document:  doc,
		})
	}

	for _, fail := range tree.ParseFailures() {
		data.Failures = append(data.Failures, fail.Error())
	}
	return data, nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, "")
}

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, chi.URLParam(r, "series"))
}

func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, series string) {
	data, err := s.buildPreviews(r, series)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if series != "" {
		if len(data.Series) == 0 {
			http.NotFound(w, r)
			return
		}
		data.Title = fmt.Sprintf("Unreleased changes - series %s", series)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplates.ExecuteTemplate(w, "page.html.tmpl", data); err != nil {
		s.logger.Error("failed to render preview page", "error", err)
	}
}

// handleRaw returns the compiled notes for one series as plain text, in the
// same format 'relnote render' would print.
func (s *Server) handleRaw(w http.ResponseWriter, r *http.Request) {
	series := chi.URLParam(r, "series")
	data, err := s.buildPreviews(r, series)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if len(data.Series) == 0 {
		http.NotFound(w, r)
		return
	}

	format := r.URL.Query().Get("format")
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if err := data.Series[0].Document.Render(w, format); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
	}
}

// handleEvents streams reload pings as server-sent events.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := s.notifier.Subscribe()
	defer s.notifier.Unsubscribe(ch)

	fmt.Fprint(w, "event: ready\ndata: {}\n\n")
	flusher.Flush()

	heartbeat := time.NewTicker(15 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ch:
			fmt.Fprint(w, "event: reload\ndata: {}\n\n")
			flusher.Flush()
		case <-heartbeat.C:
			// Comment line keeps proxies from closing the stream.
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		}
	}
}
