package router

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pocketbot/internal/catalog"
	"pocketbot/internal/core"
)

type fakeStore struct {
	users   map[string]core.User
	cats    map[string][]core.UserCategory
	txs     map[string]core.Transaction
	nextID  int
	failAll error

	summaryFrom, summaryTo time.Time
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users: map[string]core.User{"U1": {ID: "user-1", LineUserID: "U1"}},
		cats: map[string][]core.UserCategory{"user-1": {
			{ID: "c-food", UserID: "user-1", Name: "อาหาร/เครื่องดื่ม", Type: core.Expense},
			{ID: "c-transport", UserID: "user-1", Name: "Transport", Type: core.Expense},
			{ID: "c-salary", UserID: "user-1", Name: "เงินเดือน", Type: core.Income},
		}},
		txs: map[string]core.Transaction{},
	}
}

func (f *fakeStore) FindByLineID(_ context.Context, id string) (core.User, error) {
	if f.failAll != nil {
		return core.User{}, f.failAll
	}
	u, ok := f.users[id]
	if !ok {
		return core.User{}, core.ErrNotFound
	}
	return u, nil
}

func (f *fakeStore) FindUserCategories(_ context.Context, userID string) ([]core.UserCategory, error) {
	return f.cats[userID], nil
}

func (f *fakeStore) Create(_ context.Context, tx core.Transaction) (core.Transaction, error) {
	f.nextID++
	tx.ID = fmt.Sprintf("tx-%d", f.nextID)
	f.txs[tx.ID] = tx
	return tx, nil
}

func (f *fakeStore) Find(_ context.Context, id, userID string) (core.Transaction, error) {
	tx, ok := f.txs[id]
	if !ok || tx.UserID != userID {
		return core.Transaction{}, core.ErrNotFound
	}
	return tx, nil
}

func (f *fakeStore) Delete(_ context.Context, id, userID string) error {
	if _, err := f.Find(context.Background(), id, userID); err != nil {
		return err
	}
	delete(f.txs, id)
	return nil
}

func (f *fakeStore) Summarize(_ context.Context, userID string, from, to time.Time) (core.Summary, error) {
	f.summaryFrom, f.summaryTo = from, to
	var s core.Summary
	for _, tx := range f.txs {
		if tx.UserID == userID && !tx.OccurredAt.Before(from) && tx.OccurredAt.Before(to) {
			s.Add(tx)
		}
	}
	return s, nil
}

var fixedNow = time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)

func newTestRouter(t *testing.T, store *fakeStore) *Router {
	t.Helper()
	bkk, err := time.LoadLocation("Asia/Bangkok")
	require.NoError(t, err)
	return New(catalog.Default(), Deps{
		Users:        store,
		Categories:   store,
		Transactions: store,
		Summaries:    store,
	}, WithLocation(bkk), WithClock(func() time.Time { return fixedNow }))
}

func textEvent(text string) Event {
	return Event{ID: "ev", Kind: EventMessage, MessageType: "text", Text: text, LineUserID: "U1", ReplyToken: "rt"}
}

func TestRouteCommands(t *testing.T) {
	r := newTestRouter(t, newFakeStore())
	ctx := context.Background()

	tests := []struct {
		text string
		want string
	}{
		{"help", "help"},
		{" HELP ", "help"},
		{"วิธีใช้", "help"},
		{"?", "help"},
		{"pocket", "category_list"},
		{"หมวดหมู่", "category_list"},
		{"สรุป", "summary_report"},
		{"summary", "summary_report"},
		{"สรุป 7 วัน", "summary_report"},
		{"summary 30 days", "summary_report"},
		{"สรุป 0 วัน", "usage_guidance"},
		{"สรุป 366 วัน", "usage_guidance"},
		{"hello there", "usage_guidance"},
		{"coffee45", "usage_guidance"},
		{"coffee 0", "usage_guidance"},
		{"coffee 99999999999999999999", "usage_guidance"},
		{"coffee 45", "transaction_logged"},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			act, err := r.Route(ctx, textEvent(tt.text))
			require.NoError(t, err)
			require.NotNil(t, act)
			assert.Equal(t, tt.want, act.Name())
		})
	}
}

func TestParseCommandTransaction(t *testing.T) {
	tests := []struct {
		text   string
		desc   string
		amount int64
	}{
		{"coffee 45", "coffee", 45},
		{"coffee -45", "coffee", 45},
		{"coffee+45", "coffee", 45},
		{"coffee-45", "coffee", 45},
		{"ข้าวมันไก่ 50 บาท", "ข้าวมันไก่", 50},
		{"grab 120฿", "grab", 120},
		{"rent 12,000 THB", "rent", 12000},
		{"bus 2 stops 30", "bus 2 stops", 30},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			cmd := parseCommand(tt.text)
			require.Equal(t, cmdTransaction, cmd.kind)
			assert.Equal(t, tt.desc, cmd.description)
			assert.Equal(t, tt.amount, cmd.amount)
		})
	}
}

func TestRouteLogsTransaction(t *testing.T) {
	store := newFakeStore()
	r := newTestRouter(t, store)

	act, err := r.Route(context.Background(), textEvent("taxi 120"))
	require.NoError(t, err)
	logged, ok := act.(TransactionLogged)
	require.True(t, ok, "got %T", act)

	assert.Equal(t, "transport", logged.Classification.CategoryID)
	assert.Equal(t, "c-transport", logged.Transaction.CategoryID)
	assert.Equal(t, int64(120), logged.Transaction.Amount)
	assert.Equal(t, core.Expense, logged.Transaction.Type)
	assert.Equal(t, "taxi", logged.Transaction.Description)
	assert.Equal(t, "U1", logged.Transaction.LineUserID)
	assert.Len(t, store.txs, 1)
}

func TestRouteCategoryMissing(t *testing.T) {
	store := newFakeStore()
	r := newTestRouter(t, store)

	act, err := r.Route(context.Background(), textEvent("netflix 399"))
	require.NoError(t, err)
	missing, ok := act.(CategoryMissing)
	require.True(t, ok, "got %T", act)
	assert.Equal(t, "entertainment", missing.Classification.CategoryID)
	assert.Equal(t, int64(399), missing.Amount)
	assert.Empty(t, store.txs)
}

func TestRouteLinkRequired(t *testing.T) {
	r := newTestRouter(t, newFakeStore())
	ev := textEvent("coffee 45")
	ev.LineUserID = "stranger"

	act, err := r.Route(context.Background(), ev)
	require.NoError(t, err)
	assert.Equal(t, LinkRequired{}, act)

	// help does not need a linked account
	ev.Text = "help"
	act, err = r.Route(context.Background(), ev)
	require.NoError(t, err)
	assert.Equal(t, Help{}, act)
}

func TestRouteStoreFailure(t *testing.T) {
	store := newFakeStore()
	store.failAll = errors.New("db down")
	r := newTestRouter(t, store)

	act, err := r.Route(context.Background(), textEvent("coffee 45"))
	assert.Nil(t, act)
	assert.ErrorContains(t, err, "db down")
}

func TestRouteSummaryWindow(t *testing.T) {
	store := newFakeStore()
	r := newTestRouter(t, store)
	bkk, _ := time.LoadLocation("Asia/Bangkok")

	store.txs["a"] = core.Transaction{ID: "a", UserID: "user-1", Type: core.Expense, Amount: 45,
		OccurredAt: time.Date(2026, 3, 10, 8, 0, 0, 0, bkk)}
	store.txs["b"] = core.Transaction{ID: "b", UserID: "user-1", Type: core.Income, Amount: 1000,
		OccurredAt: time.Date(2026, 3, 9, 8, 0, 0, 0, bkk)}

	act, err := r.Route(context.Background(), textEvent("สรุป"))
	require.NoError(t, err)
	rep := act.(SummaryReport)
	assert.Equal(t, 1, rep.Days)
	assert.True(t, time.Date(2026, 3, 10, 0, 0, 0, 0, bkk).Equal(store.summaryFrom), "from = %v", store.summaryFrom)
	assert.Equal(t, int64(45), rep.Summary.TotalExpense)
	assert.Equal(t, int64(0), rep.Summary.TotalIncome)

	act, err = r.Route(context.Background(), textEvent("สรุป 2 วัน"))
	require.NoError(t, err)
	rep = act.(SummaryReport)
	assert.Equal(t, 2, rep.Days)
	assert.True(t, time.Date(2026, 3, 9, 0, 0, 0, 0, bkk).Equal(store.summaryFrom), "from = %v", store.summaryFrom)
	assert.Equal(t, int64(955), rep.Summary.Balance())
}

func TestRouteCategoryList(t *testing.T) {
	r := newTestRouter(t, newFakeStore())
	act, err := r.Route(context.Background(), textEvent("pockets"))
	require.NoError(t, err)
	list := act.(CategoryList)
	assert.Len(t, list.Income, 1)
	assert.Len(t, list.Expense, 2)
}

func TestRouteCancel(t *testing.T) {
	store := newFakeStore()
	r := newTestRouter(t, store)
	ctx := context.Background()

	act, err := r.Route(ctx, textEvent("coffee 45"))
	require.NoError(t, err)
	tx := act.(TransactionLogged).Transaction

	cancel := Event{ID: "ev2", Kind: EventPostback, LineUserID: "U1",
		PostbackData: CancelPostbackData(tx.ID, tx.Type.String())}
	require.True(t, r.Actionable(cancel))

	act, err = r.Route(ctx, cancel)
	require.NoError(t, err)
	confirmed, ok := act.(CancelConfirmed)
	require.True(t, ok, "got %T", act)
	assert.Equal(t, tx.ID, confirmed.Transaction.ID)
	assert.Empty(t, store.txs)

	act, err = r.Route(ctx, cancel)
	require.NoError(t, err)
	assert.Equal(t, CancelNotFound{TransactionID: tx.ID}, act)

	// another user cannot cancel
	store.users["U2"] = core.User{ID: "user-2", LineUserID: "U2"}
	act, _ = r.Route(ctx, textEvent("coffee 45"))
	other := cancel
	other.LineUserID = "U2"
	other.PostbackData = CancelPostbackData(act.(TransactionLogged).Transaction.ID, "expense")
	act, err = r.Route(ctx, other)
	require.NoError(t, err)
	assert.IsType(t, CancelNotFound{}, act)
}

func TestRouteIgnoredEvents(t *testing.T) {
	r := newTestRouter(t, newFakeStore())
	ctx := context.Background()

	ignored := []Event{
		{Kind: EventUnknown},
		{Kind: EventMessage, MessageType: "sticker", LineUserID: "U1"},
		{Kind: EventPostback, PostbackData: "action=other&tid=1", LineUserID: "U1"},
		{Kind: EventPostback, PostbackData: "%zz", LineUserID: "U1"},
	}
	for i, ev := range ignored {
		assert.False(t, r.Actionable(ev), "case %d", i)
		act, err := r.Route(ctx, ev)
		assert.NoError(t, err)
		assert.Nil(t, act, "case %d", i)
	}

	act, err := r.Route(ctx, Event{Kind: EventFollow})
	require.NoError(t, err)
	assert.Equal(t, Onboarding{}, act)
}
