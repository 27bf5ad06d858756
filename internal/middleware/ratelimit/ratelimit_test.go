package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func TestAllow(t *testing.T) {
	c := &clock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	l := NewLimiter(Config{RequestsPerWindow: 2, Window: time.Minute, IdleTimeout: time.Hour}, WithClock(c.now))

	assert.True(t, l.Allow("a"))
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
	assert.True(t, l.Allow("b"), "clients are limited independently")
	assert.Equal(t, int64(1), l.Rejected())
	assert.Equal(t, time.Minute, l.RetryAfter("a"))

	c.t = c.t.Add(time.Minute)
	assert.True(t, l.Allow("a"), "a new window starts")
	assert.Equal(t, time.Duration(0), l.RetryAfter("unknown"))
}

func TestIdleClientsAreSwept(t *testing.T) {
	c := &clock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	l := NewLimiter(Config{RequestsPerWindow: 5, Window: time.Second, IdleTimeout: time.Minute}, WithClock(c.now))

	l.Allow("a")
	l.Allow("b")
	assert.Equal(t, 2, l.ActiveClients())

	c.t = c.t.Add(2 * time.Minute)
	l.Allow("c")
	assert.Equal(t, 1, l.ActiveClients())
}

func TestMiddleware(t *testing.T) {
	l := NewLimiter(Config{RequestsPerWindow: 1, Window: time.Minute})
	h := l.Middleware(func(*http.Request) string { return "client" })(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhook", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhook", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}
