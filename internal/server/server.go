package server

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"

	"slidegen/internal/app"
	"slidegen/internal/history"
	"slidegen/internal/storage"
)

const (
	WelcomeMessage        = "Добро пожаловать в API генерации презентаций!"
	defaultMaxUploadBytes = 32 << 20
)

type Generator interface {
	FromSlides(ctx context.Context, req app.SlidesRequest) (*app.Result, error)
	FromTopic(ctx context.Context, req app.TopicRequest) (*app.Result, error)
}

type Workspaces interface {
	NewWorkspace() (*storage.Workspace, error)
}

type HistoryLister interface {
	List(ctx context.Context, limit int) ([]history.Entry, error)
}

type Options struct {
	Generator      Generator
	Workspaces     Workspaces
	History        HistoryLister
	StaticDir      string
	MaxUploadBytes int64
}

type Server struct {
	generator      Generator
	workspaces     Workspaces
	history        HistoryLister
	staticDir      string
	maxUploadBytes int64
}

func New(opts Options) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = defaultMaxUploadBytes
	}
	return &Server{
		generator:      opts.Generator,
		workspaces:     opts.Workspaces,
		history:        opts.History,
		staticDir:      opts.StaticDir,
		maxUploadBytes: opts.MaxUploadBytes,
	}
}

func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(logRequests)

	r.HandleFunc("/", s.handleRoot).Methods(http.MethodGet)
	for _, path := range []string{"/generate-presentation/", "/generate-presentation"} {
		r.HandleFunc(path, s.handleGeneratePresentation).Methods(http.MethodPost)
	}
	for _, path := range []string{"/generate-from-topic/", "/generate-from-topic"} {
		r.HandleFunc(path, s.handleGenerateFromTopic).Methods(http.MethodPost)
	}
	for _, path := range []string{"/history/", "/history"} {
		r.HandleFunc(path, s.handleHistory).Methods(http.MethodGet)
	}

	if s.staticDir != "" {
		if info, err := os.Stat(s.staticDir); err == nil && info.IsDir() {
			r.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServer(http.Dir(s.staticDir))))
		} else {
			slog.Warn("Static directory not found, /static/ disabled", "dir", s.staticDir)
		}
	}

	return r
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		slog.Info("Request handled",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start).Round(time.Millisecond),
		)
	})
}
