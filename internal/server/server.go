package server

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/yuin/goldmark"
	"go.uber.org/zap"

	"github.com/harrisjose/homepage/internal/config"
	"github.com/harrisjose/homepage/internal/content"
	"github.com/harrisjose/homepage/internal/database"
	"github.com/harrisjose/homepage/internal/feed"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

var md = goldmark.New()

// Server is the HTTP server for the site.
type Server struct {
	bundle *content.Bundle
	db     *database.DB
	site   config.Site
	logger *zap.Logger
	pages  map[string]*template.Template
	mux    *http.ServeMux
}

// New creates a new Server. db may be nil, in which case the notes pages
// answer 404.
func New(bundle *content.Bundle, db *database.DB, site config.Site, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	funcMap := template.FuncMap{
		"markdown":    renderMarkdown,
		"displayDate": database.FormatDisplayDate,
		"noteDate":    noteDate,
		"noteAge":     noteAge,
		"safeHTML": func(s string) template.HTML {
			return template.HTML(s) //nolint: gosec
		},
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
	}

	// Parse base template first
	base, err := template.New("base.html").Funcs(funcMap).ParseFS(templateFS, "templates/base.html")
	if err != nil {
		return nil, fmt.Errorf("parsing base template: %w", err)
	}

	// For each page template, clone the base and parse the page into the clone.
	// This gives each page its own {{define "content"}} and {{define "title"}}.
	pageNames := []string{"index.html", "articles.html", "article.html", "notes.html", "note.html"}
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("cloning base for %s: %w", name, err)
		}
		_, err = clone.ParseFS(templateFS, "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		pages[name] = clone
	}

	s := &Server{
		bundle: bundle,
		db:     db,
		site:   site,
		logger: logger,
		pages:  pages,
		mux:    http.NewServeMux(),
	}
	s.routes()
	return s, nil
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return withClientHints(s.mux)
}

func (s *Server) routes() {
	// Static files
	staticSub, _ := fs.Sub(staticFS, "static")
	s.mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))))

	// Routes
	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("GET /articles", s.handleArticles)
	s.mux.HandleFunc("GET /notes", s.handleNotes)
	s.mux.HandleFunc("GET /notes/{id}", s.handleNote)
	s.mux.HandleFunc("POST /theme", s.handleTheme)
	s.mux.HandleFunc("GET /", s.handleArticle)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "index.html", map[string]any{
		"Articles": feed.Recent(s.bundle.Articles()),
	})
}

func (s *Server) handleArticles(w http.ResponseWriter, r *http.Request) {
	all := feed.Select(s.bundle.Articles(), 0)
	tag := r.URL.Query().Get("tag")
	articles := all
	if tag != "" {
		articles = feed.Tagged(all, tag)
	}

	s.render(w, r, "articles.html", map[string]any{
		"Articles": articles,
		"Tags":     feed.Tags(all),
		"Tag":      tag,
	})
}

func (s *Server) handleArticle(w http.ResponseWriter, r *http.Request) {
	article, ok := s.bundle.Get(r.URL.Path)
	if !ok || article.Draft {
		http.NotFound(w, r)
		return
	}

	s.render(w, r, "article.html", map[string]any{
		"Article": article,
	})
}

func (s *Server) handleNotes(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		http.NotFound(w, r)
		return
	}

	notes, err := s.db.GetNotes(0)
	if err != nil {
		s.logger.Error("listing notes", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	s.render(w, r, "notes.html", map[string]any{
		"Notes": notes,
	})
}

func (s *Server) handleNote(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		http.NotFound(w, r)
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	note, err := s.db.GetNote(id)
	if err != nil {
		s.logger.Error("loading note", zap.Int64("id", id), zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if note == nil {
		http.NotFound(w, r)
		return
	}

	s.render(w, r, "note.html", map[string]any{
		"Note": *note,
	})
}

// render executes a page with the site and the visitor's resolved theme
// merged into data.
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data map[string]any) {
	tmpl, ok := s.pages[name]
	if !ok {
		s.logger.Error("template not found", zap.String("template", name))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	data["Site"] = s.site
	data["Theme"] = visitorTheme(w, r)

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base.html", data); err != nil {
		s.logger.Error("rendering template", zap.String("template", name), zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	buf.WriteTo(w)
}

func renderMarkdown(text string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(text))
	}
	return template.HTML(buf.String()) //nolint: gosec
}

func noteDate(n database.Note) string {
	t, ok := database.NoteDate(n)
	if !ok {
		return ""
	}
	return database.FormatDisplayDate(t)
}

func noteAge(n database.Note) string {
	t, ok := database.NoteDate(n)
	if !ok {
		return ""
	}
	return humanize.Time(t)
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", zap.String("url", "http://"+addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}
