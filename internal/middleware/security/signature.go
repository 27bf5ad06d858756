// Package security holds the webhook's request guards.
package security

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"pocketbot/internal/line"
	"pocketbot/internal/log"
)

// SignatureHeader carries the base64 HMAC-SHA256 of the body.
const SignatureHeader = line.SignatureHeader

// DefaultMaxBodyBytes bounds webhook bodies.
const DefaultMaxBodyBytes = 1 << 20

// Signature rejects requests whose body does not carry a valid channel
// signature. The verified body is handed on to next unchanged.
func Signature(channelSecret string, maxBody int64, logger *log.Logger) func(http.Handler) http.Handler {
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}
	if logger == nil {
		logger = log.Nop()
	}
	logger = logger.WithComponent(log.ComponentWebhook)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
			if err != nil {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					logger.WarnContext(r.Context(), "Webhook body too large", "limit", maxBody)
					http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
					return
				}
				logger.WarnContext(r.Context(), "Failed to read webhook body", log.FieldError, err)
				http.Error(w, "bad request", http.StatusBadRequest)
				return
			}

			if !line.VerifySignature(channelSecret, body, r.Header.Get(SignatureHeader)) {
				logger.WarnContext(r.Context(), "Invalid webhook signature")
				http.Error(w, "invalid signature", http.StatusUnauthorized)
				return
			}

			r.Body = io.NopCloser(bytes.NewReader(body))
			r.ContentLength = int64(len(body))
			next.ServeHTTP(w, r)
		})
	}
}

// Headers sets the response headers every endpoint shares.
func Headers(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Cache-Control", "no-store")
		h.Set("Referrer-Policy", "no-referrer")
		next.ServeHTTP(w, r)
	})
}
