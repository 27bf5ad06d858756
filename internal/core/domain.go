package core

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

const maxDescriptionLength = 200

type (
	// TransactionType is the direction of money movement.
	TransactionType string

	// CategoryDescriptor is a catalog entry. Instances are built and validated by
	// the catalog package and never mutated afterwards.
	CategoryDescriptor struct {
		ID          string
		Type        TransactionType
		PrimaryName string
		AltName     string
		Icon        string
		Synonyms    []string
	}

	// Classification is the (type, category) guess derived from message text alone.
	Classification struct {
		Type         TransactionType
		CategoryID   string
		CategoryName string
	}

	// UserCategory is a pocket owned by a single user.
	UserCategory struct {
		ID     string
		UserID string
		Name   string
		Type   TransactionType
		Icon   string
	}

	// User is an application account linked to a chat identity.
	User struct {
		ID          string
		LineUserID  string
		DisplayName string
	}

	Transaction struct {
		ID           string
		UserID       string
		CategoryID   string
		CategoryName string
		Type         TransactionType
		Amount       int64
		Description  string
		OccurredAt   time.Time
		LineUserID   string
	}

	// Summary aggregates a user's transactions over [From, To).
	Summary struct {
		From         time.Time
		To           time.Time
		TotalIncome  int64
		TotalExpense int64
		Count        int
	}
)

var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidType      = errors.New("invalid transaction type")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyUser        = errors.New("empty user id")
	ErrEmptyCategory    = errors.New("empty category")
)

// ParseTransactionType accepts "income"/"expense" in any case.
func ParseTransactionType(s string) (TransactionType, error) {
	switch TransactionType(strings.ToLower(strings.TrimSpace(s))) {
	case Income:
		return Income, nil
	case Expense:
		return Expense, nil
	default:
		return "", ErrInvalidType
	}
}

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

func (t TransactionType) String() string {
	return string(t)
}

// Balance is income minus expense.
func (s Summary) Balance() int64 {
	return s.TotalIncome - s.TotalExpense
}

// Add folds a transaction into the summary totals.
func (s *Summary) Add(tx Transaction) {
	switch tx.Type {
	case Income:
		s.TotalIncome += tx.Amount
	case Expense:
		s.TotalExpense += tx.Amount
	}
	s.Count++
}

func (tx Transaction) Validate() error {
	if !tx.Type.Valid() {
		return ErrInvalidType
	}
	if tx.Amount <= 0 {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(tx.UserID) == "" {
		return ErrEmptyUser
	}
	if strings.TrimSpace(tx.CategoryID) == "" {
		return ErrEmptyCategory
	}
	if strings.TrimSpace(tx.Description) == "" {
		return ErrEmptyDescription
	}
	if utf8.RuneCountInString(tx.Description) > maxDescriptionLength {
		return errors.New("description too long (max 200 characters)")
	}
	return nil
}

func (c UserCategory) Validate() error {
	if strings.TrimSpace(c.UserID) == "" {
		return ErrEmptyUser
	}
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyCategory
	}
	if !c.Type.Valid() {
		return ErrInvalidType
	}
	return nil
}
