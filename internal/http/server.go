// Package http serves the LINE webhook and the health endpoints.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"pocketbot/internal/line"
	"pocketbot/internal/log"
	"pocketbot/internal/middleware/ratelimit"
	"pocketbot/internal/middleware/security"
	"pocketbot/internal/middleware/trace"
)

// BatchHandler processes the events of one webhook delivery.
type BatchHandler interface {
	HandleBatch(ctx context.Context, events []line.WebhookEvent)
}

// ReadinessChecker reports whether a dependency can serve traffic.
type ReadinessChecker interface {
	Ping(ctx context.Context) error
}

type Config struct {
	Addr          string
	ChannelSecret string
	MaxBodyBytes  int64
	RateLimit     ratelimit.Config
	// TrustedProxies are CIDRs allowed to set forwarding headers, in
	// addition to loopback and private ranges.
	TrustedProxies []string
	Logger         *log.Logger
}

type Server struct {
	http.Server
	handler BatchHandler
	ready   ReadinessChecker
	logger  *log.Logger
	tracer  *trace.Middleware
	limiter *ratelimit.Limiter

	batches      sync.WaitGroup
	inflight     atomic.Int64
	shutdownOnce sync.Once
}

// NewServer configures routes, returning a ready-to-run http.Server. ready
// may be nil.
func NewServer(cfg Config, handler BatchHandler, ready ReadinessChecker) (*Server, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Nop()
	}
	clientIP, err := security.NewClientIP(cfg.TrustedProxies...)
	if err != nil {
		return nil, err
	}

	s := &Server{
		handler: handler,
		ready:   ready,
		logger:  logger.WithComponent(log.ComponentHTTP),
		tracer:  trace.NewMiddleware(logger, clientIP.Extract),
		limiter: ratelimit.NewLimiter(cfg.RateLimit, ratelimit.WithLogger(logger)),
	}

	webhook := s.limiter.Middleware(clientIP.Extract)(
		security.Signature(cfg.ChannelSecret, cfg.MaxBodyBytes, logger)(
			http.HandlerFunc(s.handleWebhook)))

	mux := http.NewServeMux()
	mux.Handle("POST /webhook", webhook)
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           security.Headers(s.tracer.Middleware(mux)),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

// handleWebhook acknowledges the delivery at once and processes the batch
// in the background, detached from the request's cancellation.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	payload, err := line.ParseWebhook(body)
	if err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Malformed webhook payload", log.FieldError, err)
		http.Error(w, "malformed payload", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("{}"))

	if len(payload.Events) == 0 {
		return
	}

	ctx := context.WithoutCancel(r.Context())
	s.batches.Add(1)
	s.inflight.Add(1)
	go func() {
		defer s.batches.Done()
		defer s.inflight.Add(-1)
		s.handler.HandleBatch(ctx, payload.Events)
	}()
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

type readiness struct {
	Status   string `json:"status"`
	Inflight int64  `json:"inflight_batches"`
	Error    string `json:"error,omitempty"`
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	resp := readiness{Status: "ready", Inflight: s.inflight.Load()}
	code := http.StatusOK
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready.Ping(ctx); err != nil {
			s.logger.WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
			resp.Status, resp.Error = "unavailable", err.Error()
			code = http.StatusServiceUnavailable
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}

// Wait blocks until every accepted batch has finished or ctx ends.
func (s *Server) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.batches.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops accepting requests, then drains in-flight batches.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		err := s.Server.Shutdown(ctx)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		if waitErr := s.Wait(ctx); waitErr != nil {
			s.logger.WarnContext(ctx, "Shutdown timed out with batches in flight", "inflight", s.inflight.Load())
			err = errors.Join(err, waitErr)
		}
		shutdownErr = err
	})
	return shutdownErr
}
