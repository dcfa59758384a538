package core

import (
	"testing"
	"time"
)

func TestKindValidate(t *testing.T) {
	if err := Income.Validate(); err != nil {
		t.Fatalf("income: %v", err)
	}
	if err := Expense.Validate(); err != nil {
		t.Fatalf("expense: %v", err)
	}
	if err := Kind("transfer").Validate(); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
}

func TestAccountIsActive(t *testing.T) {
	yes, no := true, false
	cases := []struct {
		flag *bool
		want bool
	}{
		{nil, true}, // absent flag defaults to active
		{&yes, true},
		{&no, false},
	}
	for i, tc := range cases {
		a := Account{Name: "a", Active: tc.flag}
		if got := a.IsActive(); got != tc.want {
			t.Fatalf("case %d: expected %v, got %v", i, tc.want, got)
		}
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		AccountID: "acc-1",
		Kind:      Expense,
		Amount:    Money{Cents: 100},
		Date:      NewDate(2025, 3, 1),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Transaction{
		{AccountID: "a", Kind: "other", Amount: Money{Cents: 1}, Date: NewDate(2025, 1, 1)},
		{AccountID: "a", Kind: Expense, Amount: Money{Cents: 0}, Date: NewDate(2025, 1, 1)},
		{AccountID: "a", Kind: Expense, Amount: Money{Cents: -5}, Date: NewDate(2025, 1, 1)},
		{AccountID: "a", Kind: Expense, Amount: Money{Cents: 1}, Date: Date{Time: time.Time{}}},
		{AccountID: "", Kind: Expense, Amount: Money{Cents: 1}, Date: NewDate(2025, 1, 1)},
	}
	for i, tx := range bads {
		if err := tx.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestBudgetValidate(t *testing.T) {
	good := Budget{CategoryID: "c", Limit: Money{Cents: 1000}, Month: 12, Year: 2025}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	bads := []Budget{
		{CategoryID: "c", Limit: Money{Cents: 0}, Month: 1, Year: 2025},
		{CategoryID: "c", Limit: Money{Cents: 1}, Month: 0, Year: 2025},
		{CategoryID: "c", Limit: Money{Cents: 1}, Month: 13, Year: 2025},
		{CategoryID: "c", Limit: Money{Cents: 1}, Month: 1, Year: 0},
		{CategoryID: "", Limit: Money{Cents: 1}, Month: 1, Year: 2025},
	}
	for i, b := range bads {
		if err := b.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestUncategorizedPlaceholder(t *testing.T) {
	c := Uncategorized("owner-1")
	if c.ID != UncategorizedID || c.OwnerID != "owner-1" || c.Kind != Expense {
		t.Fatalf("unexpected placeholder: %+v", c)
	}
}
