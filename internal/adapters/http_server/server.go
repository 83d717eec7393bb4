package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Timeout time.Duration
	// Dev adds stack traces to 500 responses.
	Dev bool
	// TrustProxy takes the client address from X-Forwarded-For / X-Real-IP.
	// Only enable it behind a proxy that overwrites those headers.
	TrustProxy bool
}

type Server struct {
	mux *chi.Mux
	dev bool
}

func New(opts Options) *Server {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	m := chi.NewRouter()

	// All middlewares go here (before any routes are added)
	if opts.TrustProxy {
		m.Use(chimw.RealIP)
	}
	m.Use(chimw.RequestID)
	m.Use(Metrics)
	m.Use(Logger(log.Logger))
	m.Use(Recover(opts.Dev))
	m.Use(Timeout(opts.Timeout))

	m.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeFallback(w, http.StatusNotFound, fallback{
			Title:   "Resource Not Found",
			Message: msgResourceNotFound,
			Errors:  []string{msgResourceNotFound},
		})
	})
	m.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeFallback(w, http.StatusMethodNotAllowed, fallback{
			Title:   "Method Not Allowed",
			Message: "The requested method is not supported for this resource.",
			Errors:  []string{r.Method + " " + r.URL.Path},
		})
	})

	return &Server{mux: m, dev: opts.Dev}
}

func (s *Server) Mux() http.Handler { return s.mux }

// Mount attaches any extra handler (e.g., /metrics) to the router.
func (s *Server) Mount(path string, h http.Handler) {
	s.mux.Handle(path, h)
}
