// Package bot turns a webhook batch into routed, dispatched replies.
package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"pocketbot/internal/dispatch"
	"pocketbot/internal/line"
	"pocketbot/internal/log"
	"pocketbot/internal/router"
)

// DefaultConcurrency bounds how many events of one batch run at once.
const DefaultConcurrency = 8

// Router decides the action for an event.
type Router interface {
	Actionable(ev router.Event) bool
	Route(ctx context.Context, ev router.Event) (router.Action, error)
}

// Dispatcher delivers the result of routing an event.
type Dispatcher interface {
	Dispatch(ctx context.Context, t dispatch.Target, work dispatch.Work) dispatch.Outcome
}

type Engine struct {
	router      Router
	dispatcher  Dispatcher
	concurrency int
	logger      *log.Logger
}

type Option func(*Engine)

func WithConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

func WithLogger(l *log.Logger) Option {
	return func(e *Engine) { e.logger = l.WithComponent(log.ComponentWebhook) }
}

func New(r Router, d Dispatcher, opts ...Option) *Engine {
	e := &Engine{
		router:      r,
		dispatcher:  d,
		concurrency: DefaultConcurrency,
		logger:      log.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// HandleBatch processes every event of a webhook batch independently and
// returns when all of them are done. A failing event never affects the
// others.
func (e *Engine) HandleBatch(ctx context.Context, events []line.WebhookEvent) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	for _, raw := range events {
		ev := ToEvent(raw)
		if raw.Mode == "standby" || !e.router.Actionable(ev) {
			e.logger.DebugContext(ctx, "Ignoring event",
				log.FieldEventID, ev.ID,
				log.FieldEventType, raw.Type)
			continue
		}
		g.Go(func() error {
			e.handle(ctx, ev)
			return nil
		})
	}
	_ = g.Wait()
}

func (e *Engine) handle(ctx context.Context, ev router.Event) {
	fields := log.NewFields().WithEvent(ev.ID, ev.Kind.String(), ev.LineUserID)
	logger := e.logger.With(fields.ToSlice()...)

	defer func() {
		if r := recover(); r != nil {
			logger.ErrorContext(ctx, "Event handling panicked", log.FieldError, fmt.Sprint(r))
		}
	}()

	start := time.Now()
	target := dispatch.Target{EventID: ev.ID, ReplyToken: ev.ReplyToken, UserID: ev.LineUserID}
	out := e.dispatcher.Dispatch(ctx, target, func(ctx context.Context) (router.Action, error) {
		return e.router.Route(ctx, ev)
	})

	args := []any{
		log.FieldDispatch, out.State.String(),
		log.FieldPlaceholder, out.PlaceholderSent,
		log.FieldDuration, time.Since(start).Milliseconds(),
	}
	if out.Err != nil {
		log.NewStructuredLogger(logger).LogError(ctx, "Event failed", out.Err, "", log.OpReply, log.LogFields{
			log.FieldDispatch:    out.State.String(),
			log.FieldPlaceholder: out.PlaceholderSent,
		})
		return
	}
	logger.InfoContext(ctx, "Event handled", args...)
}

// ToEvent converts a webhook event into the router's view. Events without
// a webhook id get a random one so logs can still be correlated.
func ToEvent(raw line.WebhookEvent) router.Event {
	ev := router.Event{
		ID:         raw.WebhookEventID,
		ReplyToken: raw.ReplyToken,
		LineUserID: raw.Source.UserID,
	}
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if raw.Timestamp > 0 {
		ev.Timestamp = time.UnixMilli(raw.Timestamp)
	}

	switch raw.Type {
	case line.EventTypeFollow:
		ev.Kind = router.EventFollow
	case line.EventTypeMessage:
		ev.Kind = router.EventMessage
		if raw.Message != nil {
			ev.MessageType = raw.Message.Type
			ev.Text = raw.Message.Text
		}
	case line.EventTypePostback:
		ev.Kind = router.EventPostback
		if raw.Postback != nil {
			ev.PostbackData = raw.Postback.Data
		}
	default:
		ev.Kind = router.EventUnknown
	}
	return ev
}
