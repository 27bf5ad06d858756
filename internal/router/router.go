// Package router maps inbound chat events to reply actions. It runs the
// classifier and matcher for transaction messages and talks to storage only
// through the ports in ports.go.
package router

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pocketbot/internal/catalog"
	"pocketbot/internal/classifier"
	"pocketbot/internal/core"
	"pocketbot/internal/log"
	"pocketbot/internal/matcher"
)

// Deps are the stores the router reads and writes.
type Deps struct {
	Users        UserDirectory
	Categories   CategoryStore
	Transactions TransactionStore
	Summaries    SummaryReader
}

type Router struct {
	classifier *classifier.Classifier
	matcher    *matcher.Matcher
	deps       Deps
	loc        *time.Location
	now        func() time.Time
	logger     *log.Logger
}

type Option func(*Router)

// WithLocation sets the timezone summary windows are computed in.
func WithLocation(loc *time.Location) Option {
	return func(r *Router) {
		if loc != nil {
			r.loc = loc
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(r *Router) { r.now = now }
}

func WithLogger(l *log.Logger) Option {
	return func(r *Router) { r.logger = l.WithComponent(log.ComponentRouter) }
}

func New(cat *catalog.Catalog, deps Deps, opts ...Option) *Router {
	r := &Router{
		classifier: classifier.New(cat),
		matcher:    matcher.New(cat),
		deps:       deps,
		loc:        time.UTC,
		now:        time.Now,
		logger:     log.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Actionable reports whether Route could produce an action for ev. Ignored
// events skip the reply machinery entirely.
func (r *Router) Actionable(ev Event) bool {
	switch ev.Kind {
	case EventFollow:
		return true
	case EventMessage:
		return ev.MessageType == "text"
	case EventPostback:
		_, ok := parseCancel(ev.PostbackData)
		return ok
	default:
		return false
	}
}

// Route decides the reply for ev. A nil action means the event is ignored.
func (r *Router) Route(ctx context.Context, ev Event) (Action, error) {
	switch ev.Kind {
	case EventFollow:
		return Onboarding{}, nil
	case EventPostback:
		tid, ok := parseCancel(ev.PostbackData)
		if !ok {
			return nil, nil
		}
		return r.cancel(ctx, ev, tid)
	case EventMessage:
		if ev.MessageType != "text" {
			return nil, nil
		}
		return r.text(ctx, ev)
	default:
		return nil, nil
	}
}

func (r *Router) text(ctx context.Context, ev Event) (Action, error) {
	cmd := parseCommand(ev.Text)
	switch cmd.kind {
	case cmdHelp:
		return Help{}, nil
	case cmdNone:
		return UsageGuidance{}, nil
	}

	user, linked, err := r.resolveUser(ctx, ev.LineUserID)
	if err != nil {
		return nil, err
	}
	if !linked {
		return LinkRequired{}, nil
	}

	switch cmd.kind {
	case cmdCategories:
		return r.listCategories(ctx, user)
	case cmdToday:
		return r.summarize(ctx, user, 1)
	case cmdRange:
		return r.summarize(ctx, user, cmd.days)
	default:
		return r.logTransaction(ctx, ev, user, cmd)
	}
}

func (r *Router) resolveUser(ctx context.Context, lineUserID string) (core.User, bool, error) {
	if lineUserID == "" {
		return core.User{}, false, nil
	}
	user, err := r.deps.Users.FindByLineID(ctx, lineUserID)
	if errors.Is(err, core.ErrNotFound) {
		return core.User{}, false, nil
	}
	if err != nil {
		return core.User{}, false, fmt.Errorf("resolve user: %w", err)
	}
	return user, true, nil
}

func (r *Router) listCategories(ctx context.Context, user core.User) (Action, error) {
	cats, err := r.deps.Categories.FindUserCategories(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	var list CategoryList
	for _, c := range cats {
		if c.Type == core.Income {
			list.Income = append(list.Income, c)
		} else {
			list.Expense = append(list.Expense, c)
		}
	}
	return list, nil
}

func (r *Router) summarize(ctx context.Context, user core.User, days int) (Action, error) {
	now := r.now().In(r.loc)
	y, m, d := now.Date()
	from := time.Date(y, m, d, 0, 0, 0, 0, r.loc).AddDate(0, 0, -(days - 1))

	sum, err := r.deps.Summaries.Summarize(ctx, user.ID, from, now)
	if err != nil {
		return nil, fmt.Errorf("summarize %d days: %w", days, err)
	}
	sum.From, sum.To = from, now
	return SummaryReport{Days: days, Summary: sum}, nil
}

func (r *Router) logTransaction(ctx context.Context, ev Event, user core.User, cmd command) (Action, error) {
	trace := r.classifier.Explain(cmd.description)
	cl := trace.Result
	r.logger.DebugContext(ctx, "Classified message",
		log.FieldEventID, ev.ID,
		log.FieldCategoryID, cl.CategoryID,
		log.FieldTxType, cl.Type.String(),
		log.FieldRule, string(trace.Rule))

	cats, err := r.deps.Categories.FindUserCategories(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	pocket, ok := r.matcher.Match(cl, cmd.description, cats)
	if !ok {
		return CategoryMissing{Classification: cl, Description: cmd.description, Amount: cmd.amount}, nil
	}

	tx := core.Transaction{
		UserID:       user.ID,
		CategoryID:   pocket.ID,
		CategoryName: pocket.Name,
		Type:         pocket.Type,
		Amount:       cmd.amount,
		Description:  cmd.description,
		OccurredAt:   r.now(),
		LineUserID:   ev.LineUserID,
	}
	if err := tx.Validate(); err != nil {
		r.logger.WarnContext(ctx, "Rejected transaction", log.FieldEventID, ev.ID, log.FieldError, err)
		return UsageGuidance{}, nil
	}

	created, err := r.deps.Transactions.Create(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("create transaction: %w", err)
	}
	log.NewStructuredLogger(r.logger).LogTransactionLogged(ctx, created.ID, created.Type.String(), created.Amount, created.CategoryID)
	return TransactionLogged{Transaction: created, Classification: cl}, nil
}

func (r *Router) cancel(ctx context.Context, ev Event, tid string) (Action, error) {
	user, linked, err := r.resolveUser(ctx, ev.LineUserID)
	if err != nil {
		return nil, err
	}
	if !linked {
		return LinkRequired{}, nil
	}
	if tid == "" {
		return CancelNotFound{}, nil
	}

	tx, err := r.deps.Transactions.Find(ctx, tid, user.ID)
	if errors.Is(err, core.ErrNotFound) {
		return CancelNotFound{TransactionID: tid}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find transaction %s: %w", tid, err)
	}

	err = r.deps.Transactions.Delete(ctx, tid, user.ID)
	if errors.Is(err, core.ErrNotFound) {
		return CancelNotFound{TransactionID: tid}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("delete transaction %s: %w", tid, err)
	}
	return CancelConfirmed{Transaction: tx, CanceledAt: r.now()}, nil
}
