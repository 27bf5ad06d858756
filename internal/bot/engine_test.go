package bot

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"pocketbot/internal/catalog"
	"pocketbot/internal/dispatch"
	"pocketbot/internal/line"
	"pocketbot/internal/router"
	"pocketbot/internal/services"
	"pocketbot/internal/storage/memory"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recordingMessenger struct {
	mu      sync.Mutex
	replies map[string]string
}

func (m *recordingMessenger) Reply(_ context.Context, token string, msgs []line.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.replies == nil {
		m.replies = make(map[string]string)
	}
	m.replies[token] = msgs[0].Text
	return nil
}

func (m *recordingMessenger) Push(context.Context, string, []line.Message) error { return nil }

type nameRenderer struct{}

func (nameRenderer) Render(act router.Action) []line.Message {
	return []line.Message{line.TextMessage(act.Name())}
}

func (nameRenderer) Placeholder() []line.Message { return []line.Message{line.TextMessage("…")} }

func textEvent(id, token, user, text string) line.WebhookEvent {
	return line.WebhookEvent{
		Type:           line.EventTypeMessage,
		WebhookEventID: id,
		ReplyToken:     token,
		Source:         line.Source{Type: "user", UserID: user},
		Message:        &line.EventMessage{ID: "m-" + id, Type: "text", Text: text},
	}
}

func TestHandleBatchEndToEnd(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	cat := catalog.Default()
	_, err := services.LinkUser(ctx, store, cat, "U1", "Somchai")
	require.NoError(t, err)

	r := router.New(cat, router.Deps{
		Users:        store,
		Categories:   store,
		Transactions: services.NewLedgerService(store, nil, nil),
		Summaries:    store,
	})
	msgr := &recordingMessenger{}
	d := dispatch.New(msgr, nameRenderer{}, dispatch.WithDelay(0))
	e := New(r, d, WithConcurrency(2))

	e.HandleBatch(ctx, []line.WebhookEvent{
		textEvent("e1", "t1", "U1", "coffee 45"),
		textEvent("e2", "t2", "U1", "help"),
		textEvent("e3", "t3", "U2", "coffee 45"),
		{Type: line.EventTypeFollow, ReplyToken: "t4", Source: line.Source{UserID: "U3"}},
		{Type: "unfollow", ReplyToken: "t5", Source: line.Source{UserID: "U1"}},
		{Type: line.EventTypeMessage, ReplyToken: "t6", Source: line.Source{UserID: "U1"}, Message: &line.EventMessage{Type: "sticker"}},
		{Type: line.EventTypeMessage, Mode: "standby", ReplyToken: "t7", Source: line.Source{UserID: "U1"}, Message: &line.EventMessage{Type: "text", Text: "help"}},
	})

	assert.Equal(t, map[string]string{
		"t1": "transaction_logged",
		"t2": "help",
		"t3": "link_required",
		"t4": "onboarding",
	}, msgr.replies)
}

type fakeRouter struct{}

func (fakeRouter) Actionable(router.Event) bool { return true }

func (fakeRouter) Route(_ context.Context, ev router.Event) (router.Action, error) {
	return router.Help{}, nil
}

type panickyDispatcher struct {
	mu      sync.Mutex
	handled []string
}

func (p *panickyDispatcher) Dispatch(ctx context.Context, t dispatch.Target, work dispatch.Work) dispatch.Outcome {
	if t.EventID == "boom" {
		panic("renderer exploded")
	}
	if _, err := work(ctx); err != nil {
		return dispatch.Outcome{State: dispatch.StateNoReply, Err: err}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handled = append(p.handled, t.EventID)
	return dispatch.Outcome{State: dispatch.StateRepliedViaHandle}
}

func TestHandleBatchIsolatesPanics(t *testing.T) {
	d := &panickyDispatcher{}
	e := New(fakeRouter{}, d)

	e.HandleBatch(context.Background(), []line.WebhookEvent{
		textEvent("boom", "t1", "U1", "x"),
		textEvent("ok", "t2", "U1", "x"),
	})

	assert.Equal(t, []string{"ok"}, d.handled)
}

func TestToEvent(t *testing.T) {
	ts := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)

	ev := ToEvent(line.WebhookEvent{
		Type:       line.EventTypePostback,
		Timestamp:  ts.UnixMilli(),
		ReplyToken: "rt",
		Source:     line.Source{UserID: "U9"},
		Postback:   &line.Postback{Data: "action=cancel_tx&tid=abc"},
	})
	assert.Equal(t, router.EventPostback, ev.Kind)
	assert.Equal(t, "action=cancel_tx&tid=abc", ev.PostbackData)
	assert.Equal(t, "U9", ev.LineUserID)
	assert.True(t, ts.Equal(ev.Timestamp))
	assert.NotEmpty(t, ev.ID, "a missing webhook id is generated")

	msg := ToEvent(textEvent("e1", "t", "U1", "taxi 120"))
	assert.Equal(t, router.EventMessage, msg.Kind)
	assert.Equal(t, "e1", msg.ID)
	assert.Equal(t, "text", msg.MessageType)
	assert.Equal(t, "taxi 120", msg.Text)

	assert.Equal(t, router.EventUnknown, ToEvent(line.WebhookEvent{Type: "beacon"}).Kind)
}
