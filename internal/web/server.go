// Package web serves the browser UI: login, the event list and form, ICS
// import and export, and the task splitter page with its JSON endpoints.
package web

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"go.uber.org/zap"

	"personal-calendar/internal/account"
	"personal-calendar/internal/archive"
	"personal-calendar/internal/middleware"
	"personal-calendar/internal/model"
	"personal-calendar/internal/store"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = []string{"login", "index", "event_form", "import", "tasks"}

// Splitter breaks a task description into ordered steps.
type Splitter interface {
	Split(ctx context.Context, task, lang string) ([]string, error)
}

type Deps struct {
	Accounts *account.Service
	Events   store.Events
	Splitter Splitter
	Archive  archive.Archiver // nil streams exports directly
	Limiter  *middleware.RateLimiter
	Secret   string
	TTL      time.Duration
	Log      *zap.Logger
}

type Server struct {
	Deps
	mux   *http.ServeMux
	pages map[string]*template.Template
	now   func() time.Time
}

func New(d Deps) (*Server, error) {
	s := &Server{
		Deps:  d,
		mux:   http.NewServeMux(),
		pages: make(map[string]*template.Template, len(pages)),
		now:   time.Now,
	}
	funcs := template.FuncMap{"inputTime": model.InputTimestamp}
	for _, name := range pages {
		t, err := template.New("layout.html").Funcs(funcs).
			ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", name, err)
		}
		s.pages[name] = t
	}
	s.registerRoutes()
	return s, nil
}

// Handler returns the routes wrapped in session decoding and access logging.
func (s *Server) Handler() http.Handler {
	return s.accessLog(middleware.LoadSession(s.Secret)(s.mux))
}

func (s *Server) registerRoutes() {
	authed := func(h http.HandlerFunc) http.Handler {
		return middleware.RequireSession("/login", h)
	}

	s.mux.HandleFunc("GET /{$}", s.handleRoot)
	s.mux.HandleFunc("GET /healthz", s.handleHealth)

	s.mux.HandleFunc("GET /login", s.handleLoginPage)
	s.mux.Handle("POST /login", middleware.RateLimitHTTP(s.Limiter, http.HandlerFunc(s.handleLogin)))
	s.mux.HandleFunc("GET /logout", s.handleLogout)

	s.mux.Handle("GET /index", authed(s.handleIndex))
	s.mux.Handle("GET /events/new", authed(s.handleNewEvent))
	s.mux.Handle("POST /events/new", authed(s.handleCreateEvent))
	s.mux.Handle("GET /events/{id}/edit", authed(s.handleEditEvent))
	s.mux.Handle("POST /events/{id}", authed(s.handleUpdateEvent))
	s.mux.Handle("POST /events/{id}/delete", authed(s.handleDeleteEvent))

	s.mux.Handle("GET /export.ics", authed(s.handleExport))
	s.mux.Handle("GET /import", authed(s.handleImportPage))
	s.mux.Handle("POST /import", authed(s.handleImport))

	s.mux.Handle("GET /tasks", authed(s.handleTasksPage))
	s.mux.HandleFunc("POST /api/split_task", s.handleSplitTask)
	s.mux.HandleFunc("POST /api/save_subtasks", s.handleSaveSubtasks)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.SessionFrom(r.Context()); ok {
		http.Redirect(w, r, "/index", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

type pageData struct {
	Username string
	Notice   string
	Data     any
}

// render executes a page into a buffer first so a template error never
// leaves a half-written response.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, page string, data any) {
	pd := pageData{Notice: popFlash(w, r), Data: data}
	if sess, ok := middleware.SessionFrom(r.Context()); ok {
		pd.Username = sess.Username
	}

	var buf bytes.Buffer
	if err := s.pages[page].Execute(&buf, pd); err != nil {
		s.Log.Error("render", zap.String("page", page), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// notice flashes msg and redirects to target.
func (s *Server) notice(w http.ResponseWriter, r *http.Request, target, msg string) {
	setFlash(w, msg)
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "error": msg})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.Log.Debug("http",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("took", time.Since(start)),
		)
	})
}
