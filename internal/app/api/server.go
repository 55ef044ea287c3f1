package api

import (
	"context"
	"net/http"
	"time"

	"github.com/kotche/ledger/infrastructure/metrics"
	"github.com/kotche/ledger/internal/identity"
	"github.com/kotche/ledger/internal/service/notes"
	"github.com/sirupsen/logrus"
)

const (
	maxBodyBytes          = 1 << 20
	defaultRequestTimeout = 5 * time.Second
)

type Server struct {
	http.Server
	notes          notes.Service
	resolver       identity.Resolver
	log            *logrus.Entry
	requestTimeout time.Duration
}

type Option func(*Server)

func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.requestTimeout = d
		}
	}
}

func WithLogger(log *logrus.Entry) Option {
	return func(s *Server) { s.log = log }
}

// NewServer wires the note routes. Everything under /api requires a bearer
// credential; /healthz and /metrics do not.
func NewServer(addr string, svc notes.Service, resolver identity.Resolver, opts ...Option) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		notes:          svc,
		resolver:       resolver,
		log:            logrus.NewEntry(logrus.StandardLogger()),
		requestTimeout: defaultRequestTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.route(mux, "GET /api/notes", s.handleList)
	s.route(mux, "GET /api/notes/summary", s.handleSummary)
	s.route(mux, "POST /api/notes", s.handleCreate)
	s.route(mux, "GET /api/notes/{id}", s.handleGet)
	s.route(mux, "PUT /api/notes/{id}", s.handleUpdate)
	s.route(mux, "DELETE /api/notes/{id}", s.handleDelete)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.Handle("GET /metrics", metrics.Handler())

	return s
}

func (s *Server) route(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	mux.Handle(pattern, s.instrument(pattern, s.authenticate(h)))
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, shutdownTimeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", s.Addr).Info("api server started")
		if err := s.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.log.Info("api server shutting down")
	return s.Shutdown(shutdownCtx)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, message{Message: "ok"})
}
