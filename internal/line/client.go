package line

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"pocketbot/internal/log"
)

const (
	DefaultBaseURL = "https://api.line.me"

	replyPath = "/v2/bot/message/reply"
	pushPath  = "/v2/bot/message/push"

	// MaxMessages is the per-request message limit of the reply and push APIs.
	MaxMessages = 5

	retryKeyHeader = "X-Line-Retry-Key"
)

var ErrTooManyMessages = errors.New("too many messages")

// APIError is a non-2xx response from the Messaging API.
type APIError struct {
	StatusCode int    `json:"-"`
	Message    string `json:"message"`
	Details    []struct {
		Message  string `json:"message"`
		Property string `json:"property"`
	} `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	if len(e.Details) > 0 {
		return fmt.Sprintf("line api: status %d: %s (%s: %s)", e.StatusCode, e.Message, e.Details[0].Property, e.Details[0].Message)
	}
	return fmt.Sprintf("line api: status %d: %s", e.StatusCode, e.Message)
}

// Client sends messages through the reply and push endpoints.
type Client struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
	logger      *log.Logger
}

type ClientOption func(*Client)

func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = h }
}

func WithLogger(l *log.Logger) ClientOption {
	return func(c *Client) { c.logger = l.WithComponent(log.ComponentLine) }
}

func NewClient(accessToken string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:     DefaultBaseURL,
		accessToken: accessToken,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		logger:      log.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type replyRequest struct {
	ReplyToken string    `json:"replyToken"`
	Messages   []Message `json:"messages"`
}

type pushRequest struct {
	To       string    `json:"to"`
	Messages []Message `json:"messages"`
}

// Reply answers an event with its single-use reply token.
func (c *Client) Reply(ctx context.Context, replyToken string, msgs []Message) error {
	if err := checkMessages(msgs); err != nil {
		return err
	}
	return c.post(ctx, replyPath, replyRequest{ReplyToken: replyToken, Messages: msgs}, "")
}

// Push sends messages to a user id. Each call carries a fresh retry key so
// that LINE drops duplicates of the same request.
func (c *Client) Push(ctx context.Context, to string, msgs []Message) error {
	if to == "" {
		return errors.New("push: empty recipient")
	}
	if err := checkMessages(msgs); err != nil {
		return err
	}
	return c.post(ctx, pushPath, pushRequest{To: to, Messages: msgs}, uuid.NewString())
}

func checkMessages(msgs []Message) error {
	if len(msgs) == 0 {
		return errors.New("no messages")
	}
	if len(msgs) > MaxMessages {
		return fmt.Errorf("%w: %d > %d", ErrTooManyMessages, len(msgs), MaxMessages)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, body any, retryKey string) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	if retryKey != "" {
		req.Header.Set(retryKeyHeader, retryKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post %s: %w", path, err)
	}
	defer resp.Body.Close()

	c.logger.DebugContext(ctx, "LINE API call",
		log.FieldPath, path,
		log.FieldStatusCode, resp.StatusCode,
		log.FieldDuration, time.Since(start).Milliseconds())

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	apiErr := &APIError{StatusCode: resp.StatusCode}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(raw, apiErr); err != nil || apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(raw))
	}
	return apiErr
}
