package httpapi

import (
	"net/http"
	"strings"
	"time"

	"moneta/internal/core"
)

type totalsResponse struct {
	IncomeCents  int64 `json:"income_cents"`
	ExpenseCents int64 `json:"expense_cents"`
	BalanceCents int64 `json:"balance_cents"`
}

type categorySpendResponse struct {
	CategoryID   string `json:"category_id"`
	CategoryName string `json:"category_name"`
	AmountCents  int64  `json:"amount_cents"`
}

type accountsResponse struct {
	NetWorthCents int64 `json:"net_worth_cents"`
	ActiveCount   int   `json:"active_count"`
	AccountCount  int   `json:"account_count"`
}

type summaryResponse struct {
	Period            string                 `json:"period"`
	From              string                 `json:"from"`
	To                string                 `json:"to"`
	Totals            totalsResponse         `json:"totals"`
	MonthExpenseCents int64                  `json:"month_expense_cents"`
	TrendPercent      float64                `json:"trend_percent"`
	DailyAverageCents int64                  `json:"daily_average_cents"`
	TopCategory       *categorySpendResponse `json:"top_category"`
	Accounts          accountsResponse       `json:"accounts"`
}

type budgetProgressResponse struct {
	BudgetID       string  `json:"budget_id"`
	CategoryID     string  `json:"category_id"`
	CategoryName   string  `json:"category_name"`
	LimitCents     int64   `json:"limit_cents"`
	SpentCents     int64   `json:"spent_cents"`
	RemainingCents int64   `json:"remaining_cents"`
	UsedPercentage float64 `json:"used_percentage"`
	Status         string  `json:"status"`
	Month          int     `json:"month"`
	Year           int     `json:"year"`
}

type budgetsResponse struct {
	Month   int                      `json:"month"`
	Year    int                      `json:"year"`
	Budgets []budgetProgressResponse `json:"budgets"`
}

func (s *Server) handleDashboardSummary(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.authedOwner(w, r)
	if !ok {
		return
	}

	period := core.PeriodKey(strings.TrimSpace(r.URL.Query().Get("period")))
	if period == "" {
		period = core.PeriodMonth
	}
	now := time.Now()

	key := owner + "|" + string(period) + "|" + now.Format("2006-01-02")
	if cached, hit := s.summaryCache.Get(key); hit {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	snap := s.store.Snapshot()
	iv := period.Resolve(now)
	totals := core.PeriodTotals(snap.Transactions, iv)
	agg := core.Aggregate(snap.Accounts)

	resp := summaryResponse{
		Period: string(period),
		From:   iv.Start.Format("2006-01-02"),
		To:     iv.End.Format("2006-01-02"),
		Totals: totalsResponse{
			IncomeCents:  totals.Income.Cents,
			ExpenseCents: totals.Expense.Cents,
			BalanceCents: totals.Balance.Cents,
		},
		MonthExpenseCents: core.MonthExpenseTotal(snap.Transactions, now.Year(), int(now.Month())).Cents,
		TrendPercent:      core.TrendPercent(snap.Transactions, now),
		DailyAverageCents: core.DailyAverage(snap.Transactions, now).Cents,
		Accounts: accountsResponse{
			NetWorthCents: agg.NetWorth.Cents,
			ActiveCount:   agg.ActiveCount,
			AccountCount:  agg.AccountCount,
		},
	}
	if top := core.TopCategory(snap.Categories, snap.Transactions, owner, now); top != nil {
		resp.TopCategory = &categorySpendResponse{
			CategoryID:   top.Category.ID,
			CategoryName: top.Category.Name,
			AmountCents:  top.Amount.Cents,
		}
	}

	s.summaryCache.Set(key, resp)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDashboardBudgets(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.authedOwner(w, r)
	if !ok {
		return
	}
	now := time.Now()

	key := owner + "|" + now.Format("2006-01")
	if cached, hit := s.budgetsCache.Get(key); hit {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	snap := s.store.Snapshot()
	progress := core.BudgetProgressNow(snap.Budgets, snap.Categories, snap.Transactions, now)

	resp := budgetsResponse{
		Month:   int(now.Month()),
		Year:    now.Year(),
		Budgets: make([]budgetProgressResponse, 0, len(progress)),
	}
	for _, p := range progress {
		resp.Budgets = append(resp.Budgets, budgetProgressResponse{
			BudgetID:       p.Budget.ID,
			CategoryID:     p.Category.ID,
			CategoryName:   p.Category.Name,
			LimitCents:     p.Budget.Limit.Cents,
			SpentCents:     p.Spent.Cents,
			RemainingCents: p.Remaining.Cents,
			UsedPercentage: p.UsedPercentage,
			Status:         string(p.Status),
			Month:          p.Budget.Month,
			Year:           p.Budget.Year,
		})
	}

	s.budgetsCache.Set(key, resp)
	writeJSON(w, http.StatusOK, resp)
}
