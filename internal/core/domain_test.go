package core

import (
	"strings"
	"testing"
	"time"
)

func TestParseTransactionType(t *testing.T) {
	cases := []struct {
		in   string
		want TransactionType
		ok   bool
	}{
		{"income", Income, true},
		{" Expense ", Expense, true},
		{"INCOME", Income, true},
		{"transfer", "", false},
		{"", "", false},
	}
	for i, tc := range cases {
		got, err := ParseTransactionType(tc.in)
		if tc.ok && (err != nil || got != tc.want) {
			t.Fatalf("case %d: got %q, %v", i, got, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		UserID:      "u1",
		CategoryID:  "c1",
		Type:        Expense,
		Amount:      45,
		Description: "coffee",
		OccurredAt:  time.Now(),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Transaction{
		{UserID: "u1", CategoryID: "c1", Type: "x", Amount: 1, Description: "a"},
		{UserID: "u1", CategoryID: "c1", Type: Income, Amount: 0, Description: "a"},
		{UserID: "", CategoryID: "c1", Type: Income, Amount: 1, Description: "a"},
		{UserID: "u1", CategoryID: "", Type: Income, Amount: 1, Description: "a"},
		{UserID: "u1", CategoryID: "c1", Type: Income, Amount: 1, Description: "  "},
		{UserID: "u1", CategoryID: "c1", Type: Income, Amount: 1, Description: strings.Repeat("ก", 201)},
	}
	for i, tx := range bads {
		if err := tx.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestSummaryAddAndBalance(t *testing.T) {
	var s Summary
	s.Add(Transaction{Type: Income, Amount: 1000})
	s.Add(Transaction{Type: Expense, Amount: 300})
	s.Add(Transaction{Type: Expense, Amount: 900})
	if s.TotalIncome != 1000 || s.TotalExpense != 1200 || s.Count != 3 {
		t.Fatalf("unexpected totals: %+v", s)
	}
	if s.Balance() != -200 {
		t.Fatalf("balance = %d, want -200", s.Balance())
	}
}
