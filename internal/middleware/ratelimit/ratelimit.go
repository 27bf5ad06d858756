// Package ratelimit throttles webhook callers per client address.
package ratelimit

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"pocketbot/internal/log"
)

// Limiter allows a fixed number of requests per client per window.
type Limiter struct {
	mu        sync.Mutex
	clients   map[string]*window
	lastSweep time.Time

	limit  int
	window time.Duration
	idle   time.Duration
	now    func() time.Time
	logger *log.Logger

	rejected int64
}

type window struct {
	start    time.Time
	lastSeen time.Time
	requests int
}

// Config holds rate limiter configuration
type Config struct {
	// RequestsPerWindow is how many requests one client may make per Window.
	RequestsPerWindow int
	Window            time.Duration

	// IdleTimeout drops clients not seen for this long.
	IdleTimeout time.Duration
}

// DefaultConfig allows bursts of LINE redeliveries while capping abuse.
func DefaultConfig() Config {
	return Config{
		RequestsPerWindow: 120,
		Window:            time.Minute,
		IdleTimeout:       10 * time.Minute,
	}
}

type Option func(*Limiter)

func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

func WithLogger(logger *log.Logger) Option {
	return func(l *Limiter) { l.logger = logger.WithComponent(log.ComponentRateLimit) }
}

// NewLimiter creates a new rate limiter
func NewLimiter(config Config, opts ...Option) *Limiter {
	def := DefaultConfig()
	if config.RequestsPerWindow <= 0 {
		config.RequestsPerWindow = def.RequestsPerWindow
	}
	if config.Window <= 0 {
		config.Window = def.Window
	}
	if config.IdleTimeout <= 0 {
		config.IdleTimeout = def.IdleTimeout
	}

	l := &Limiter{
		clients: make(map[string]*window),
		limit:   config.RequestsPerWindow,
		window:  config.Window,
		idle:    config.IdleTimeout,
		now:     time.Now,
		logger:  log.Nop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.lastSweep = l.now()
	return l
}

// Allow checks if a request from the given client should be allowed
func (l *Limiter) Allow(client string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= l.idle {
		l.sweep(now)
	}

	w, ok := l.clients[client]
	if !ok || now.Sub(w.start) >= l.window {
		l.clients[client] = &window{start: now, lastSeen: now, requests: 1}
		return true
	}

	w.lastSeen = now
	w.requests++
	if w.requests > l.limit {
		l.rejected++
		return false
	}
	return true
}

// RetryAfter is how long client must wait before its window resets.
func (l *Limiter) RetryAfter(client string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.clients[client]
	if !ok {
		return 0
	}
	return max(w.start.Add(l.window).Sub(l.now()), 0)
}

func (l *Limiter) sweep(now time.Time) {
	for client, w := range l.clients {
		if now.Sub(w.lastSeen) >= l.idle {
			delete(l.clients, client)
		}
	}
	l.lastSweep = now
}

// ActiveClients returns the number of currently tracked clients
func (l *Limiter) ActiveClients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// Rejected returns how many requests were refused so far.
func (l *Limiter) Rejected() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rejected
}

// Middleware creates HTTP middleware for rate limiting
func (l *Limiter) Middleware(extractIP func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientIP := extractIP(r)
			if !l.Allow(clientIP) {
				l.logger.WarnContext(r.Context(), "Rate limit exceeded",
					log.FieldClientIP, clientIP,
					log.FieldPath, r.URL.Path)
				secs := int(l.RetryAfter(clientIP).Round(time.Second) / time.Second)
				w.Header().Set("Retry-After", strconv.Itoa(max(secs, 1)))
				http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
