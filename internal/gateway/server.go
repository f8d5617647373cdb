package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/voyago/voyago/internal/config"
	"github.com/voyago/voyago/internal/logging"
	"github.com/voyago/voyago/internal/search"
	"github.com/voyago/voyago/internal/store"
	"github.com/voyago/voyago/internal/version"
)

// Server is the voyago HTTP gateway. It exposes the flight-search entry
// point and read access to the tool-call registry.
type Server struct {
	cfg       config.Config
	log       *logging.Logger
	search    *search.Service
	toolCalls *store.ToolCallStore
	version   string

	startedAt  time.Time
	httpServer *http.Server
}

// New creates a gateway server over the search service and registry.
func New(cfg config.Config, searchSvc *search.Service, toolCalls *store.ToolCallStore, log *logging.Logger) *Server {
	return &Server{
		cfg:       cfg,
		log:       log.Sub("gateway"),
		search:    searchSvc,
		toolCalls: toolCalls,
		version:   version.Version,
	}
}

// Handler builds the full route + middleware stack.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /v1/flights/search", s.handleSearch)
	mux.HandleFunc("GET /v1/toolcalls/{id}", s.handleGetToolCall)
	mux.HandleFunc("GET /v1/toolcalls", s.handleListToolCalls)
	mux.HandleFunc("/", handleNotFound)

	return withMiddleware(mux, s.log, s.cfg.Gateway.Auth.Token)
}

// Start begins listening. It blocks until the context is cancelled or an
// error occurs; the stale-run reaper shares the context's lifetime.
func (s *Server) Start(ctx context.Context) error {
	host := s.cfg.Gateway.Bind
	if host == "" {
		host = "127.0.0.1"
	}
	addr := fmt.Sprintf("%s:%d", host, s.cfg.Gateway.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
		BaseContext:  func(l net.Listener) context.Context { return ctx },
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	if s.cfg.Gateway.Auth.Token == "" && host != "127.0.0.1" {
		s.log.Warn().Msg("gateway auth is disabled on a non-loopback bind")
	}

	s.startedAt = time.Now()
	s.log.Info().
		Str("addr", ln.Addr().String()).
		Bool("auth", s.cfg.Gateway.Auth.Token != "").
		Msg("gateway server ready")

	if s.cfg.Registry.StaleRunningMinutes > 0 {
		go s.runReaper(ctx)
	}

	go func() {
		<-ctx.Done()
		s.log.Info().Msg("shutting down gateway server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.httpServer.Shutdown(shutdownCtx)
	}()

	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Addr returns the server's listen address, or empty string if not started.
func (s *Server) Addr() string {
	if s.httpServer != nil {
		return s.httpServer.Addr
	}
	return ""
}

// runReaper periodically moves running registry rows whose process died to
// the timeout state so their dedupe keys become usable again.
func (s *Server) runReaper(ctx context.Context) {
	olderThan := time.Duration(s.cfg.Registry.StaleRunningMinutes) * time.Minute
	interval := time.Duration(s.cfg.Registry.ReapIntervalMinutes) * time.Minute
	if interval <= 0 {
		interval = olderThan
	}

	log := s.log.Sub("reaper")
	log.Info().Dur("older_than", olderThan).Dur("interval", interval).Msg("stale-run reaper started")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.toolCalls.ReapStale(olderThan)
			if err != nil {
				log.Error().Err(err).Msg("reap stale tool calls")
				continue
			}
			if n > 0 {
				log.Warn().Int("reaped", n).Msg("timed out stale running tool calls")
			}
		}
	}
}
