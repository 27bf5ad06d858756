package router

import (
	"time"

	"pocketbot/internal/core"
)

// Action is the outcome of routing one event. The concrete types below are
// the only implementations.
type Action interface {
	action()
	// Name identifies the action in logs.
	Name() string
}

type (
	// Onboarding greets a user who just added the bot.
	Onboarding struct{}

	// Help lists the supported commands.
	Help struct{}

	// UsageGuidance is sent for text that matches no command.
	UsageGuidance struct{}

	// LinkRequired tells the sender to link their account first.
	LinkRequired struct{}

	// CategoryList shows the user's pockets grouped by type.
	CategoryList struct {
		Income  []core.UserCategory
		Expense []core.UserCategory
	}

	// SummaryReport carries totals for a window ending now. Days is 1 for
	// today.
	SummaryReport struct {
		Days    int
		Summary core.Summary
	}

	// TransactionLogged confirms a new ledger entry.
	TransactionLogged struct {
		Transaction    core.Transaction
		Classification core.Classification
	}

	// CategoryMissing reports that the guessed category has no user pocket.
	CategoryMissing struct {
		Classification core.Classification
		Description    string
		Amount         int64
	}

	// CancelConfirmed reports a deleted transaction.
	CancelConfirmed struct {
		Transaction core.Transaction
		CanceledAt  time.Time
	}

	// CancelNotFound reports a cancel request for an unknown transaction.
	CancelNotFound struct {
		TransactionID string
	}
)

func (Onboarding) action()        {}
func (Help) action()              {}
func (UsageGuidance) action()     {}
func (LinkRequired) action()      {}
func (CategoryList) action()      {}
func (SummaryReport) action()     {}
func (TransactionLogged) action() {}
func (CategoryMissing) action()   {}
func (CancelConfirmed) action()   {}
func (CancelNotFound) action()    {}

func (Onboarding) Name() string        { return "onboarding" }
func (Help) Name() string              { return "help" }
func (UsageGuidance) Name() string     { return "usage_guidance" }
func (LinkRequired) Name() string      { return "link_required" }
func (CategoryList) Name() string      { return "category_list" }
func (SummaryReport) Name() string     { return "summary_report" }
func (TransactionLogged) Name() string { return "transaction_logged" }
func (CategoryMissing) Name() string   { return "category_missing" }
func (CancelConfirmed) Name() string   { return "cancel_confirmed" }
func (CancelNotFound) Name() string    { return "cancel_not_found" }
