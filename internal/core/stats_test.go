package core

import (
	"testing"
	"time"
)

var statsNow = time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)

func tx(kind Kind, cents int64, d Date, categoryID string) Transaction {
	return Transaction{
		ID:         "tx",
		OwnerID:    "owner-1",
		AccountID:  "acc-1",
		CategoryID: categoryID,
		Kind:       kind,
		Amount:     Money{Cents: cents},
		Date:       d,
	}
}

func TestPeriodTotalsBalance(t *testing.T) {
	iv := MonthInterval(2025, 3)
	txs := []Transaction{
		tx(Income, 500000, NewDate(2025, 3, 1), "salary"),
		tx(Expense, 120000, NewDate(2025, 3, 5), "food"),
		tx(Expense, 80000, NewDate(2025, 3, 31), "food"),
		tx(Expense, 999999, NewDate(2025, 2, 28), "food"), // outside interval
	}
	got := PeriodTotals(txs, iv)
	if got.Income.Cents != 500000 || got.Expense.Cents != 200000 {
		t.Fatalf("unexpected totals: %+v", got)
	}
	if got.Balance.Cents != got.Income.Cents-got.Expense.Cents {
		t.Fatalf("balance must equal income minus expense: %+v", got)
	}
}

func TestPeriodTotalsEmpty(t *testing.T) {
	got := PeriodTotals(nil, MonthInterval(2025, 3))
	if got.Income.Cents != 0 || got.Expense.Cents != 0 || got.Balance.Cents != 0 {
		t.Fatalf("expected all zero, got %+v", got)
	}
}

func TestTrendPercent(t *testing.T) {
	cases := []struct {
		name string
		txs  []Transaction
		want float64
	}{
		{
			name: "no previous month yields no trend",
			txs:  []Transaction{tx(Expense, 100000, NewDate(2025, 3, 10), "food")},
			want: 0,
		},
		{
			name: "increase",
			txs: []Transaction{
				tx(Expense, 100000, NewDate(2025, 2, 10), "food"),
				tx(Expense, 150000, NewDate(2025, 3, 10), "food"),
			},
			want: 50,
		},
		{
			name: "decrease",
			txs: []Transaction{
				tx(Expense, 200000, NewDate(2025, 2, 10), "food"),
				tx(Expense, 100000, NewDate(2025, 3, 10), "food"),
			},
			want: -50,
		},
		{
			name: "empty",
			txs:  nil,
			want: 0,
		},
	}
	for _, tc := range cases {
		if got := TrendPercent(tc.txs, statsNow); got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestTrendPercentAcrossYearBoundary(t *testing.T) {
	jan := time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC)
	txs := []Transaction{
		tx(Expense, 100000, NewDate(2024, 12, 15), "food"),
		tx(Expense, 120000, NewDate(2025, 1, 10), "food"),
	}
	if got := TrendPercent(txs, jan); got != 20 {
		t.Fatalf("expected 20, got %v", got)
	}
}

func TestDailyAverage(t *testing.T) {
	txs := []Transaction{
		tx(Expense, 150000, NewDate(2025, 3, 2), "food"),
	}
	if got := DailyAverage(txs, statsNow); got.Cents != 10000 {
		t.Fatalf("expected 10000, got %d", got.Cents)
	}

	// First calendar day of a month never divides by zero.
	first := time.Date(2025, 3, 1, 0, 0, 1, 0, time.UTC)
	if got := DailyAverage(txs, first); got.Cents != 150000 {
		t.Fatalf("expected 150000 on day one, got %d", got.Cents)
	}
	if got := DailyAverage(nil, first); got.Cents != 0 {
		t.Fatalf("expected 0 with no transactions, got %d", got.Cents)
	}
}

func TestCategoryRanking(t *testing.T) {
	cats := []Category{
		{ID: "food", OwnerID: "owner-1", Name: "Food", Kind: Expense},
		{ID: "transport", OwnerID: "owner-1", Name: "Transport", Kind: Expense},
		{ID: "salary", OwnerID: "owner-1", Name: "Salary", Kind: Income},
	}
	txs := []Transaction{
		tx(Expense, 50000, NewDate(2025, 3, 3), "food"),
		tx(Expense, 30000, NewDate(2025, 3, 4), "food"),
		tx(Expense, 20000, NewDate(2025, 3, 5), "transport"),
		tx(Income, 900000, NewDate(2025, 3, 1), "salary"),
		tx(Expense, 70000, NewDate(2025, 2, 5), "transport"), // prior month
	}
	ranking := CategoryRanking(cats, txs, "owner-1", statsNow)
	if len(ranking) != 2 {
		t.Fatalf("expected 2 expense categories, got %d", len(ranking))
	}
	if ranking[0].Category.ID != "food" || ranking[0].Amount.Cents != 80000 {
		t.Fatalf("unexpected top entry: %+v", ranking[0])
	}
	if ranking[1].Category.ID != "transport" || ranking[1].Amount.Cents != 20000 {
		t.Fatalf("unexpected second entry: %+v", ranking[1])
	}
}

func TestTopCategoryZeroSpendStillRanked(t *testing.T) {
	cats := []Category{{ID: "food", OwnerID: "owner-1", Name: "Food", Kind: Expense}}
	top := TopCategory(cats, nil, "owner-1", statsNow)
	if top == nil {
		t.Fatalf("expected a zero-spend top category, got nil")
	}
	if top.Category.ID != "food" || top.Amount.Cents != 0 {
		t.Fatalf("unexpected top: %+v", top)
	}
}

func TestTopCategoryNilWhenNothingToRank(t *testing.T) {
	if top := TopCategory(nil, nil, "owner-1", statsNow); top != nil {
		t.Fatalf("expected nil, got %+v", top)
	}
}

func TestDanglingCategoryFallsBackToUncategorized(t *testing.T) {
	// The category was deleted; its transactions remain and must surface
	// under the synthetic uncategorized bucket.
	txs := []Transaction{tx(Expense, 40000, NewDate(2025, 3, 7), "ghost")}
	ranking := CategoryRanking(nil, txs, "owner-1", statsNow)
	if len(ranking) != 1 {
		t.Fatalf("expected 1 bucket, got %d", len(ranking))
	}
	if ranking[0].Category.ID != UncategorizedID || ranking[0].Amount.Cents != 40000 {
		t.Fatalf("unexpected bucket: %+v", ranking[0])
	}
}

func TestAggregateAccounts(t *testing.T) {
	inactive := false
	accounts := []Account{
		{ID: "a", Balance: Money{Cents: 500000}},
		{ID: "b", Balance: Money{Cents: -20000}, Active: &inactive},
	}
	agg := Aggregate(accounts)
	if agg.NetWorth.Cents != 480000 {
		t.Fatalf("net worth counts every account: got %d", agg.NetWorth.Cents)
	}
	if agg.ActiveCount != 1 || agg.AccountCount != 2 {
		t.Fatalf("unexpected counts: %+v", agg)
	}

	empty := Aggregate(nil)
	if empty.NetWorth.Cents != 0 || empty.ActiveCount != 0 {
		t.Fatalf("expected zero aggregates, got %+v", empty)
	}
}

func TestStatusForBoundaries(t *testing.T) {
	cases := []struct {
		pct  float64
		want BudgetStatus
	}{
		{0, WithinBudget},
		{79.99, WithinBudget},
		{80, NearLimit}, // inclusive toward higher severity
		{99.99, NearLimit},
		{100, Exceeded}, // inclusive toward higher severity
		{124, Exceeded},
	}
	for _, tc := range cases {
		if got := StatusFor(tc.pct); got != tc.want {
			t.Fatalf("%v: expected %s, got %s", tc.pct, tc.want, got)
		}
	}
}

func TestCalculateBudgetProgress(t *testing.T) {
	cats := []Category{{ID: "food", OwnerID: "owner-1", Name: "Food", Kind: Expense}}
	budget := Budget{
		ID: "b1", OwnerID: "owner-1", CategoryID: "food",
		Limit: Money{Cents: 500000}, Month: 3, Year: 2025,
	}

	steps := []struct {
		extraCents int64
		wantSpent  int64
		wantUsed   float64
		wantStatus BudgetStatus
	}{
		{100000, 100000, 20, WithinBudget},
		{320000, 420000, 84, NearLimit},
		{200000, 620000, 124, Exceeded},
	}

	var txs []Transaction
	for i, step := range steps {
		txs = append(txs, tx(Expense, step.extraCents, NewDate(2025, 3, 10+i), "food"))
		progress := CalculateBudgetProgress([]Budget{budget}, cats, txs, 3, 2025)
		if len(progress) != 1 {
			t.Fatalf("step %d: expected 1 progress entry, got %d", i, len(progress))
		}
		p := progress[0]
		if p.Spent.Cents != step.wantSpent {
			t.Fatalf("step %d: expected spent %d, got %d", i, step.wantSpent, p.Spent.Cents)
		}
		if p.UsedPercentage != step.wantUsed {
			t.Fatalf("step %d: expected used %v, got %v", i, step.wantUsed, p.UsedPercentage)
		}
		if p.Status != step.wantStatus {
			t.Fatalf("step %d: expected status %s, got %s", i, step.wantStatus, p.Status)
		}
		if p.Remaining.Cents != budget.Limit.Cents-step.wantSpent {
			t.Fatalf("step %d: expected remaining %d, got %d",
				i, budget.Limit.Cents-step.wantSpent, p.Remaining.Cents)
		}
	}

	// Final step leaves the budget exceeded by 120000.
	progress := CalculateBudgetProgress([]Budget{budget}, cats, txs, 3, 2025)
	if progress[0].Remaining.Cents != -120000 {
		t.Fatalf("expected remaining -120000, got %d", progress[0].Remaining.Cents)
	}
}

func TestBudgetProgressZeroLimit(t *testing.T) {
	budget := Budget{ID: "b", OwnerID: "o", CategoryID: "food", Month: 3, Year: 2025}
	txs := []Transaction{tx(Expense, 100000, NewDate(2025, 3, 2), "food")}
	progress := CalculateBudgetProgress([]Budget{budget}, nil, txs, 3, 2025)
	if len(progress) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(progress))
	}
	if progress[0].UsedPercentage != 0 || progress[0].Status != WithinBudget {
		t.Fatalf("zero limit must report zero usage: %+v", progress[0])
	}
}

func TestBudgetProgressDuplicatesTrackedIndependently(t *testing.T) {
	mk := func(id string, limit int64) Budget {
		return Budget{ID: id, OwnerID: "o", CategoryID: "food", Limit: Money{Cents: limit}, Month: 3, Year: 2025}
	}
	txs := []Transaction{tx(Expense, 90000, NewDate(2025, 3, 2), "food")}
	progress := CalculateBudgetProgress([]Budget{mk("b1", 100000), mk("b2", 300000)}, nil, txs, 3, 2025)
	if len(progress) != 2 {
		t.Fatalf("expected both duplicates progressed, got %d", len(progress))
	}
	if progress[0].Status != NearLimit || progress[1].Status != WithinBudget {
		t.Fatalf("duplicates must be progressed independently: %+v", progress)
	}
}

func TestBudgetProgressDanglingCategory(t *testing.T) {
	budget := Budget{
		ID: "b", OwnerID: "owner-1", CategoryID: "ghost",
		Limit: Money{Cents: 100000}, Month: 3, Year: 2025,
	}
	progress := CalculateBudgetProgress([]Budget{budget}, nil, nil, 3, 2025)
	if len(progress) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(progress))
	}
	if progress[0].Category.ID != UncategorizedID {
		t.Fatalf("expected uncategorized fallback, got %+v", progress[0].Category)
	}
}

func TestBudgetProgressOtherMonthExcluded(t *testing.T) {
	budget := Budget{
		ID: "b", OwnerID: "o", CategoryID: "food",
		Limit: Money{Cents: 100000}, Month: 2, Year: 2025,
	}
	progress := CalculateBudgetProgress([]Budget{budget}, nil, nil, 3, 2025)
	if len(progress) != 0 {
		t.Fatalf("budget for another month must be filtered out, got %+v", progress)
	}
}
