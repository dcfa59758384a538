package core

import (
	"sort"
	"time"
)

type (
	// Totals are the period-bounded income/expense sums. Balance is income
	// minus expense and may be negative.
	Totals struct {
		Income  Money
		Expense Money
		Balance Money
	}

	// CategorySpend is an expense sum attributed to one category.
	CategorySpend struct {
		Category Category
		Amount   Money
	}

	// AccountAggregates are the portfolio-level account figures.
	AccountAggregates struct {
		NetWorth     Money
		ActiveCount  int
		AccountCount int
	}
)

// PeriodTotals partitions transactions by kind over the interval and sums the
// amounts per partition.
func PeriodTotals(txs []Transaction, iv Interval) Totals {
	var t Totals
	for _, tx := range txs {
		if !iv.Contains(tx.Date) {
			continue
		}
		switch tx.Kind {
		case Income:
			t.Income.Cents += tx.Amount.Cents
		case Expense:
			t.Expense.Cents += tx.Amount.Cents
		}
	}
	t.Balance.Cents = t.Income.Cents - t.Expense.Cents
	return t
}

// MonthExpenseTotal sums expense transactions falling in the given calendar
// month.
func MonthExpenseTotal(txs []Transaction, year, month int) Money {
	var total Money
	for _, tx := range txs {
		if tx.Kind != Expense {
			continue
		}
		if tx.Date.Year() == year && tx.Date.Month() == month {
			total.Cents += tx.Amount.Cents
		}
	}
	return total
}

// TrendPercent compares the current calendar month's expense total to the
// previous calendar month's. A previous total of zero yields no trend rather
// than an infinite one.
func TrendPercent(txs []Transaction, now time.Time) float64 {
	curr := MonthExpenseTotal(txs, now.Year(), int(now.Month()))
	prev := now.AddDate(0, 0, -now.Day()) // last day of the previous month
	prevTotal := MonthExpenseTotal(txs, prev.Year(), int(prev.Month()))
	if prevTotal.Cents <= 0 {
		return 0
	}
	return float64(curr.Cents-prevTotal.Cents) / float64(prevTotal.Cents) * 100
}

// DailyAverage is the current-month expense total divided by the calendar
// days elapsed so far this month. The denominator floors at 1 so the first
// moment of a month never divides by zero.
func DailyAverage(txs []Transaction, now time.Time) Money {
	total := MonthExpenseTotal(txs, now.Year(), int(now.Month()))
	days := now.Day()
	if days < 1 {
		days = 1
	}
	return Money{Cents: total.Cents / int64(days)}
}

// CategoryRanking sums the current calendar month's expense transactions per
// category, sorted by amount descending then name. Every expense-kind
// category appears even with zero spend, so callers can tell "no category"
// from "category with zero spend". Transactions whose category no longer
// resolves are grouped under the synthetic uncategorized bucket.
func CategoryRanking(cats []Category, txs []Transaction, ownerID string, now time.Time) []CategorySpend {
	iv := MonthInterval(now.Year(), int(now.Month()))
	byID := make(map[string]Category, len(cats))
	for _, c := range cats {
		byID[c.ID] = c
	}

	sums := make(map[string]int64)
	for _, c := range cats {
		if c.Kind == Expense {
			sums[c.ID] = 0
		}
	}
	for _, tx := range txs {
		if tx.Kind != Expense || !iv.Contains(tx.Date) {
			continue
		}
		id := tx.CategoryID
		if _, ok := byID[id]; !ok {
			id = UncategorizedID
		}
		sums[id] += tx.Amount.Cents
	}

	ranking := make([]CategorySpend, 0, len(sums))
	for id, cents := range sums {
		cat, ok := byID[id]
		if !ok {
			cat = Uncategorized(ownerID)
		}
		ranking = append(ranking, CategorySpend{Category: cat, Amount: Money{Cents: cents}})
	}
	sort.Slice(ranking, func(i, j int) bool {
		if ranking[i].Amount.Cents != ranking[j].Amount.Cents {
			return ranking[i].Amount.Cents > ranking[j].Amount.Cents
		}
		return ranking[i].Category.Name < ranking[j].Category.Name
	})
	return ranking
}

// TopCategory returns the highest-ranked entry of CategoryRanking, or nil
// when there is nothing to rank.
func TopCategory(cats []Category, txs []Transaction, ownerID string, now time.Time) *CategorySpend {
	ranking := CategoryRanking(cats, txs, ownerID, now)
	if len(ranking) == 0 {
		return nil
	}
	top := ranking[0]
	return &top
}

// Aggregate computes the portfolio account figures. Net worth sums every
// account balance regardless of the active flag; the active count honors the
// absent-means-active rule.
func Aggregate(accounts []Account) AccountAggregates {
	agg := AccountAggregates{AccountCount: len(accounts)}
	for _, a := range accounts {
		agg.NetWorth.Cents += a.Balance.Cents
		if a.IsActive() {
			agg.ActiveCount++
		}
	}
	return agg
}

// StatusFor maps a used percentage to a budget status. Both boundaries
// resolve toward the higher-severity state.
func StatusFor(usedPercentage float64) BudgetStatus {
	switch {
	case usedPercentage >= 100:
		return Exceeded
	case usedPercentage >= 80:
		return NearLimit
	default:
		return WithinBudget
	}
}

// CalculateBudgetProgress filters budgets to the target month and year and
// computes spend, used percentage, remaining and status for each. Budgets
// duplicated on the same (category, month, year) tuple are progressed
// independently. A zero limit reports zero percent used, never a division by
// zero. Dangling category references resolve to the uncategorized
// placeholder.
func CalculateBudgetProgress(budgets []Budget, cats []Category, txs []Transaction, month, year int) []BudgetProgress {
	byID := make(map[string]Category, len(cats))
	for _, c := range cats {
		byID[c.ID] = c
	}

	var out []BudgetProgress
	for _, b := range budgets {
		if b.Month != month || b.Year != year {
			continue
		}
		var spent Money
		for _, tx := range txs {
			if tx.Kind != Expense || tx.CategoryID != b.CategoryID {
				continue
			}
			if tx.Date.Year() == year && tx.Date.Month() == month {
				spent.Cents += tx.Amount.Cents
			}
		}
		var used float64
		if b.Limit.Cents > 0 {
			used = float64(spent.Cents) / float64(b.Limit.Cents) * 100
		}
		cat, ok := byID[b.CategoryID]
		if !ok {
			cat = Uncategorized(b.OwnerID)
		}
		out = append(out, BudgetProgress{
			Budget:         b,
			Category:       cat,
			Spent:          spent,
			UsedPercentage: used,
			Remaining:      Money{Cents: b.Limit.Cents - spent.Cents},
			Status:         StatusFor(used),
		})
	}
	return out
}

// BudgetProgressNow is CalculateBudgetProgress targeted at the calendar month
// containing now.
func BudgetProgressNow(budgets []Budget, cats []Category, txs []Transaction, now time.Time) []BudgetProgress {
	return CalculateBudgetProgress(budgets, cats, txs, int(now.Month()), now.Year())
}
