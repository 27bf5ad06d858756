// Package dispatch delivers the reply for one chat event. LINE reply tokens
// are single-use and short-lived, so a slow event first gets a typing
// placeholder through the token and its real answer later through push.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"pocketbot/internal/line"
	"pocketbot/internal/log"
	"pocketbot/internal/router"
)

// DefaultDelay is how long work may run before the placeholder is sent.
const DefaultDelay = 700 * time.Millisecond

// Messenger is the outbound side of the chat channel.
type Messenger interface {
	Reply(ctx context.Context, replyToken string, msgs []line.Message) error
	Push(ctx context.Context, userID string, msgs []line.Message) error
}

// Renderer turns actions into chat messages.
type Renderer interface {
	Render(act router.Action) []line.Message
	Placeholder() []line.Message
}

// Work computes the action for an event.
type Work func(ctx context.Context) (router.Action, error)

// Target addresses one event.
type Target struct {
	EventID    string
	ReplyToken string
	UserID     string
}

// State is where an event's delivery ended.
type State int

const (
	StatePending State = iota
	StateRepliedViaHandle
	StateRepliedViaPush
	// StateNoReply means work failed or produced nothing; no final message
	// was sent.
	StateNoReply
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateRepliedViaHandle:
		return "replied_via_handle"
	case StateRepliedViaPush:
		return "replied_via_push"
	case StateNoReply:
		return "no_reply"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Outcome reports what Dispatch did. Err holds a work or send failure.
type Outcome struct {
	State           State
	PlaceholderSent bool
	Err             error
}

type Dispatcher struct {
	messenger Messenger
	renderer  Renderer
	delay     time.Duration
	logger    *log.Logger
}

type Option func(*Dispatcher)

// WithDelay sets the placeholder delay. Zero or negative disables the
// placeholder.
func WithDelay(d time.Duration) Option {
	return func(ds *Dispatcher) { ds.delay = d }
}

func WithLogger(l *log.Logger) Option {
	return func(ds *Dispatcher) { ds.logger = l.WithComponent(log.ComponentDispatch) }
}

func New(m Messenger, r Renderer, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		messenger: m,
		renderer:  r,
		delay:     DefaultDelay,
		logger:    log.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// handle is the single-use reply token. Whoever claims it first may send
// through it.
type handle struct {
	used atomic.Bool
}

func (h *handle) claim() bool {
	return h.used.CompareAndSwap(false, true)
}

// Dispatch runs work and delivers its result. It returns once every send it
// started has returned.
func (d *Dispatcher) Dispatch(ctx context.Context, t Target, work Work) Outcome {
	h := &handle{}
	if t.ReplyToken == "" {
		h.claim()
	}

	var (
		placeholderSent bool
		placeholderDone = make(chan struct{})
		timer           *time.Timer
	)
	if d.delay > 0 && t.ReplyToken != "" {
		timer = time.AfterFunc(d.delay, func() {
			defer close(placeholderDone)
			if !h.claim() {
				return
			}
			if err := d.messenger.Reply(ctx, t.ReplyToken, d.renderer.Placeholder()); err != nil {
				d.logger.WarnContext(ctx, "Placeholder reply failed", log.FieldEventID, t.EventID, log.FieldError, err)
				return
			}
			placeholderSent = true
		})
	} else {
		close(placeholderDone)
	}

	act, err := run(ctx, work)
	if timer != nil && timer.Stop() {
		// the callback will never run
		close(placeholderDone)
	}

	out := d.deliver(ctx, t, h, placeholderDone, act, err)
	<-placeholderDone
	out.PlaceholderSent = placeholderSent
	return out
}

func (d *Dispatcher) deliver(ctx context.Context, t Target, h *handle, placeholderDone <-chan struct{}, act router.Action, err error) Outcome {
	if err != nil {
		d.logger.ErrorContext(ctx, "Event work failed", log.FieldEventID, t.EventID, log.FieldError, err)
		return Outcome{State: StateNoReply, Err: err}
	}
	if act == nil {
		return Outcome{State: StateNoReply}
	}

	msgs := d.renderer.Render(act)
	if h.claim() {
		if err := d.messenger.Reply(ctx, t.ReplyToken, msgs); err != nil {
			return Outcome{State: StateRepliedViaHandle, Err: fmt.Errorf("reply: %w", err)}
		}
		return Outcome{State: StateRepliedViaHandle}
	}

	// keep the placeholder ahead of the answer
	<-placeholderDone
	if err := d.messenger.Push(ctx, t.UserID, msgs); err != nil {
		return Outcome{State: StateRepliedViaPush, Err: fmt.Errorf("push: %w", err)}
	}
	return Outcome{State: StateRepliedViaPush}
}

var errWorkPanic = errors.New("work panicked")

func run(ctx context.Context, work Work) (act router.Action, err error) {
	defer func() {
		if r := recover(); r != nil {
			act, err = nil, fmt.Errorf("%w: %v", errWorkPanic, r)
		}
	}()
	return work(ctx)
}
