package httpserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Timeout time.Duration
	// Debug exposes internal error text in 500 responses.
	Debug bool
}

type Server struct{ mux *chi.Mux }

func New(opts Options) *Server {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	m := chi.NewRouter()

	// All middlewares go here (before any routes are added)
	m.Use(chimw.RealIP)
	m.Use(chimw.RequestID)
	m.Use(Recover(opts.Debug))
	m.Use(Timeout(opts.Timeout))
	m.Use(Metrics)
	m.Use(Logger(log.Logger))

	// set before routes so mounted subrouters inherit them
	m.NotFound(NotFound)
	m.MethodNotAllowed(MethodNotAllowed)

	return &Server{mux: m}
}

func (s *Server) Mux() http.Handler { return s.mux }

// Mount attaches any extra handler (e.g., /metrics) to the router.
func (s *Server) Mount(path string, h http.Handler) {
	s.mux.Handle(path, h)
}

// MountStatic serves files under root at /storage/. Directory listings are refused.
func (s *Server) MountStatic(root string) {
	fs := http.StripPrefix("/storage/", http.FileServer(http.Dir(root)))
	s.mux.Get("/storage/*", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/storage/" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		fs.ServeHTTP(w, r)
	})
}
