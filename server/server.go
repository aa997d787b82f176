// Package server exposes the engine over HTTP: live validation and
// in-memory generation for config editors, plus the target registry
// they build their pickers from.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/joho/godotenv/autoload"

	"github.com/syssam/faber"
	"github.com/syssam/faber/compiler/gen"
)

const (
	defaultAddr   = ":8080"
	defaultTTL    = 5 * time.Minute
	shutdownGrace = 5 * time.Second
)

// Server serves the engine API. Construct it with New; the zero value
// is not usable.
type Server struct {
	addr    string
	log     *slog.Logger
	cache   faber.Cache
	ttl     time.Duration
	stats   *gen.RunStats
	targets []targetInfo
	http    *http.Server
}

// Option configures a Server.
type Option func(*Server) error

// WithAddr sets the listen address, overriding FABER_PORT.
func WithAddr(addr string) Option {
	return func(s *Server) error {
		if addr == "" {
			return errors.New("server: listen address cannot be empty")
		}
		s.addr = addr
		return nil
	}
}

// WithLogger sets the logger requests and runs are reported to.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) error {
		if l == nil {
			return errors.New("server: logger cannot be nil")
		}
		s.log = l
		return nil
	}
}

// WithCache sets the cache validation responses are memoized in.
func WithCache(c faber.Cache) Option {
	return func(s *Server) error {
		if c == nil {
			return errors.New("server: cache cannot be nil")
		}
		s.cache = c
		return nil
	}
}

// WithCacheTTL bounds the lifetime of memoized validation responses.
func WithCacheTTL(d time.Duration) Option {
	return func(s *Server) error {
		if d < 0 {
			return errors.New("server: cache ttl cannot be negative")
		}
		s.ttl = d
		return nil
	}
}

// New creates a configured server. The listen address comes from
// FABER_PORT unless WithAddr overrides it; a .env file next to the
// process is loaded automatically.
func New(opts ...Option) (*Server, error) {
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	s := &Server{
		addr:  defaultAddr,
		log:   slog.Default(),
		cache: faber.NewMemoryCache(),
		ttl:   defaultTTL,
		stats: &gen.RunStats{},
	}
	if port := os.Getenv("FABER_PORT"); port != "" {
		s.addr = ":" + port
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	targets, err := listTargets()
	if err != nil {
		return nil, err
	}
	s.targets = targets
	s.http = &http.Server{
		Addr:         s.addr,
		Handler:      s.routes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s, nil
}

// Handler returns the HTTP handler of the server, for tests and for
// embedders mounting it on their own listener.
func (s *Server) Handler() http.Handler { return s.http.Handler }

// Addr returns the resolved listen address.
func (s *Server) Addr() string { return s.http.Addr }

// Run serves until ctx is canceled, then drains in-flight requests
// for up to five seconds.
func (s *Server) Run(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		s.log.Info("server listening", "addr", s.http.Addr)
		err := s.http.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
			return
		}
		errc <- nil
	}()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	s.log.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	return s.http.Shutdown(shutdownCtx)
}
