package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	hprate "github.com/HerbHall/hostpulse/internal/rate"
	"github.com/HerbHall/hostpulse/internal/snapshot"
	"github.com/HerbHall/hostpulse/internal/version"
)

// ErrInvalidInterval is returned for interval query values that do not parse
// or fall outside the allowed range.
var ErrInvalidInterval = errors.New("invalid interval")

// Collector is the part of snapshot.Aggregator the HTTP API serves.
type Collector interface {
	Collect(ctx context.Context, interval time.Duration) snapshot.Snapshot
	Network(ctx context.Context) hprate.Throughput
	IO(ctx context.Context) hprate.IORate
	System(ctx context.Context) snapshot.System
}

// Compile-time guard.
var _ Collector = (*snapshot.Aggregator)(nil)

// Config controls the HTTP API.
type Config struct {
	Addr    string
	AgentID string

	// DefaultInterval is the CPU sampling interval when a request omits one.
	DefaultInterval time.Duration
	// MaxInterval bounds the interval a client may ask for.
	MaxInterval time.Duration

	// RateLimit is requests per second across the sampling endpoints.
	// Zero or negative disables limiting.
	RateLimit float64
	RateBurst int

	// Gatherer backs /metrics. Nil uses prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer
}

// Server is the HostPulse HTTP API.
type Server struct {
	httpServer *http.Server
	collector  Collector
	cfg        Config
	limiter    *rate.Limiter
	logger     *zap.Logger
	mux        *http.ServeMux

	// baseCtx is cancelled on Shutdown so hijacked stream connections stop.
	baseCtx context.Context
	cancel  context.CancelFunc
}

// New creates a new Server instance.
func New(cfg Config, c Collector, logger *zap.Logger) *Server {
	mux := http.NewServeMux()
	baseCtx, cancel := context.WithCancel(context.Background())

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	if cfg.RateBurst < 1 {
		cfg.RateBurst = 1
	}
	if cfg.Gatherer == nil {
		cfg.Gatherer = prometheus.DefaultGatherer
	}

	s := &Server{
		httpServer: &http.Server{
			Addr:         cfg.Addr,
			Handler:      mux,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: cfg.MaxInterval + 15*time.Second,
			IdleTimeout:  60 * time.Second,
			BaseContext:  func(net.Listener) context.Context { return baseCtx },
		},
		collector: c,
		cfg:       cfg,
		limiter:   rate.NewLimiter(limit, cfg.RateBurst),
		logger:    logger,
		mux:       mux,
		baseCtx:   baseCtx,
		cancel:    cancel,
	}

	s.registerRoutes()

	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /api/v1/health", s.handleHealth)
	s.mux.HandleFunc("GET /api/v1/snapshot", s.limited(s.handleSnapshot))
	s.mux.HandleFunc("GET /api/v1/network", s.limited(s.handleNetwork))
	s.mux.HandleFunc("GET /api/v1/io", s.limited(s.handleIO))
	s.mux.HandleFunc("GET /api/v1/system", s.handleSystem)
	s.mux.HandleFunc("GET /api/v1/stream", s.handleStream)
	s.mux.HandleFunc("/api/", s.handleNotFound)
	s.mux.Handle("GET /metrics", promhttp.HandlerFor(s.cfg.Gatherer, promhttp.HandlerOpts{}))
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	s.cancel()
	return s.httpServer.Shutdown(ctx)
}

// limited rejects requests beyond the configured rate with a 429 problem.
func (s *Server) limited(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			w.Header().Set("Retry-After", "1")
			RateLimited(w, "sampling rate limit exceeded", r.URL.Path)
			return
		}
		next(w, r)
	}
}

// handleHealth reports liveness and build information.
//
//	@Summary		Health check
//	@Description	Returns agent status, agent ID and version information.
//	@Tags			system
//	@Produce		json
//	@Success		200 {object} map[string]any
//	@Router			/health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, map[string]any{
		"status":   "ok",
		"service":  "hostpulse",
		"agent_id": s.cfg.AgentID,
		"version":  version.Map(),
	})
}

// handleSnapshot collects a full host snapshot.
//
//	@Summary		Host snapshot
//	@Description	Samples CPU over the requested interval and returns every section.
//	@Tags			metrics
//	@Produce		json
//	@Param			interval query string false "CPU sampling window, duration or seconds"
//	@Success		200 {object} snapshot.Snapshot
//	@Failure		400 {object} Problem
//	@Failure		429 {object} Problem
//	@Router			/snapshot [get]
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	interval, err := parseInterval(r.URL.Query().Get("interval"), s.cfg.DefaultInterval, 0, s.cfg.MaxInterval)
	if err != nil {
		InvalidInterval(w, err.Error(), r.URL.Path)
		return
	}
	s.writeJSON(w, r, s.collector.Collect(r.Context(), interval))
}

// handleNetwork returns throughput since the previous network sample.
//
//	@Summary		Network throughput
//	@Tags			metrics
//	@Produce		json
//	@Success		200 {object} hprate.Throughput
//	@Failure		429 {object} Problem
//	@Router			/network [get]
func (s *Server) handleNetwork(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, s.collector.Network(r.Context()))
}

// handleIO returns disk read/write rates since the previous sample.
//
//	@Summary		Disk I/O rates
//	@Tags			metrics
//	@Produce		json
//	@Success		200 {object} hprate.IORate
//	@Failure		429 {object} Problem
//	@Router			/io [get]
func (s *Server) handleIO(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, s.collector.IO(r.Context()))
}

// handleSystem describes the host.
//
//	@Summary		System information
//	@Description	Returns platform, OS version and CPU identity.
//	@Tags			system
//	@Produce		json
//	@Success		200 {object} snapshot.System
//	@Router			/system [get]
func (s *Server) handleSystem(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, s.collector.System(r.Context()))
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	NotFound(w, fmt.Sprintf("no route for %s %s", r.Method, r.URL.Path), r.URL.Path)
}

// writeJSON buffers the encoding so a marshal failure can still become a
// problem response.
func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		s.logger.Error("encode response", zap.String("path", r.URL.Path), zap.Error(err))
		InternalError(w, "failed to encode response", r.URL.Path)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-HostPulse-Version", version.Short())
	_, _ = w.Write(buf.Bytes())
}

// parseInterval accepts a Go duration ("1500ms") or a number of seconds
// ("1.5"). An empty value yields def. Both bounds are inclusive.
func parseInterval(raw string, def, minimum, maximum time.Duration) (time.Duration, error) {
	if raw == "" {
		return def, nil
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		secs, ferr := strconv.ParseFloat(raw, 64)
		if ferr != nil || math.IsNaN(secs) || math.IsInf(secs, 0) {
			return 0, fmt.Errorf("%w: %q is neither a duration nor a number of seconds", ErrInvalidInterval, raw)
		}
		d = time.Duration(secs * float64(time.Second))
	}

	if d < minimum {
		return 0, fmt.Errorf("%w: %s is below the minimum of %s", ErrInvalidInterval, d, minimum)
	}
	if d > maximum {
		return 0, fmt.Errorf("%w: %s exceeds the maximum of %s", ErrInvalidInterval, d, maximum)
	}
	return d, nil
}
