package remote

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"moneta/internal/core"
	"moneta/internal/ledger"
)

const dateLayout = "2006-01-02"

// Row shapes mirror the hosted tables one column per entity field. Optional
// text columns are pointers so that absent values are written as NULL, never
// as empty strings.
type (
	accountRow struct {
		ID           string    `json:"id,omitempty"`
		OwnerID      string    `json:"owner_id"`
		Name         string    `json:"name"`
		BalanceCents int64     `json:"balance_cents"`
		Active       *bool     `json:"active"`
		CreatedAt    time.Time `json:"created_at,omitempty"`
	}

	categoryRow struct {
		ID      string  `json:"id,omitempty"`
		OwnerID string  `json:"owner_id"`
		Name    string  `json:"name"`
		Kind    string  `json:"kind"`
		Color   string  `json:"color"`
		Icon    *string `json:"icon"`
	}

	transactionRow struct {
		ID          string  `json:"id,omitempty"`
		OwnerID     string  `json:"owner_id"`
		AccountID   string  `json:"account_id"`
		CategoryID  *string `json:"category_id"`
		Kind        string  `json:"kind"`
		AmountCents int64   `json:"amount_cents"`
		Date        string  `json:"date"`
		Name        *string `json:"name"`
		Note        *string `json:"note"`
		Recurring   bool    `json:"recurring"`
	}

	budgetRow struct {
		ID         string    `json:"id,omitempty"`
		OwnerID    string    `json:"owner_id"`
		CategoryID string    `json:"category_id"`
		LimitCents int64     `json:"limit_cents"`
		Month      int       `json:"month"`
		Year       int       `json:"year"`
		CreatedAt  time.Time `json:"created_at,omitempty"`
	}
)

// nullable normalizes an optional text field: blank becomes NULL.
func nullable(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (r accountRow) toDomain() core.Account {
	return core.Account{
		ID:        r.ID,
		OwnerID:   r.OwnerID,
		Name:      r.Name,
		Balance:   core.Money{Cents: r.BalanceCents},
		Active:    r.Active,
		CreatedAt: r.CreatedAt,
	}
}

func (r categoryRow) toDomain() core.Category {
	return core.Category{
		ID:      r.ID,
		OwnerID: r.OwnerID,
		Name:    r.Name,
		Kind:    core.Kind(r.Kind),
		Color:   r.Color,
		Icon:    deref(r.Icon),
	}
}

func (r transactionRow) toDomain() core.Transaction {
	d, err := time.Parse(dateLayout, r.Date)
	if err != nil {
		// The zero date keeps the row visible in listings while excluding it
		// from every aggregation period.
		slog.Warn("Transaction row has malformed date, falling back to zero date",
			"transaction_id", r.ID, "date", r.Date)
	}
	return core.Transaction{
		ID:         r.ID,
		OwnerID:    r.OwnerID,
		AccountID:  r.AccountID,
		CategoryID: deref(r.CategoryID),
		Kind:       core.Kind(r.Kind),
		Amount:     core.Money{Cents: r.AmountCents},
		Date:       core.DateOf(d),
		Name:       deref(r.Name),
		Note:       deref(r.Note),
		Recurring:  r.Recurring,
	}
}

func (r budgetRow) toDomain() core.Budget {
	return core.Budget{
		ID:         r.ID,
		OwnerID:    r.OwnerID,
		CategoryID: r.CategoryID,
		Limit:      core.Money{Cents: r.LimitCents},
		Month:      r.Month,
		Year:       r.Year,
		CreatedAt:  r.CreatedAt,
	}
}

func accountRowFrom(ownerID string, in ledger.AccountInput) accountRow {
	return accountRow{
		OwnerID:      ownerID,
		Name:         in.Name,
		BalanceCents: in.Balance.Cents,
		Active:       in.Active,
	}
}

func categoryRowFrom(ownerID string, in ledger.CategoryInput) categoryRow {
	return categoryRow{
		OwnerID: ownerID,
		Name:    in.Name,
		Kind:    string(in.Kind),
		Color:   in.Color,
		Icon:    nullable(in.Icon),
	}
}

func transactionRowFrom(ownerID string, in ledger.TransactionInput) transactionRow {
	return transactionRow{
		OwnerID:     ownerID,
		AccountID:   in.AccountID,
		CategoryID:  nullable(in.CategoryID),
		Kind:        string(in.Kind),
		AmountCents: in.Amount.Cents,
		Date:        in.Date.Format(dateLayout),
		Name:        nullable(in.Name),
		Note:        nullable(in.Note),
		Recurring:   in.Recurring,
	}
}

func budgetRowFrom(ownerID string, in ledger.BudgetInput) budgetRow {
	return budgetRow{
		OwnerID:    ownerID,
		CategoryID: in.CategoryID,
		LimitCents: in.Limit.Cents,
		Month:      in.Month,
		Year:       in.Year,
	}
}

func mapRows[R any, D any](rows []R, conv func(R) D) []D {
	out := make([]D, 0, len(rows))
	for _, r := range rows {
		out = append(out, conv(r))
	}
	return out
}

// ListAccounts implements ledger.AccountStore.
func (c *Client) ListAccounts(ctx context.Context, ownerID string) ([]core.Account, error) {
	rows, err := list[accountRow](ctx, c, "accounts", ownerID, "created_at.asc")
	if err != nil {
		return nil, err
	}
	return mapRows(rows, accountRow.toDomain), nil
}

func (c *Client) CreateAccount(ctx context.Context, ownerID string, in ledger.AccountInput) (core.Account, error) {
	row, err := insert(ctx, c, "accounts", accountRowFrom(ownerID, in))
	if err != nil {
		return core.Account{}, err
	}
	return row.toDomain(), nil
}

func (c *Client) UpdateAccount(ctx context.Context, id string, in ledger.AccountInput) (core.Account, error) {
	row, err := patch[accountRow](ctx, c, "accounts", id, accountRowPatch(in))
	if err != nil {
		return core.Account{}, err
	}
	return row.toDomain(), nil
}

func (c *Client) DeleteAccount(ctx context.Context, id string) (bool, error) {
	return remove(ctx, c, "accounts", id)
}

// ListCategories implements ledger.CategoryStore.
func (c *Client) ListCategories(ctx context.Context, ownerID string) ([]core.Category, error) {
	rows, err := list[categoryRow](ctx, c, "categories", ownerID, "name.asc")
	if err != nil {
		return nil, err
	}
	return mapRows(rows, categoryRow.toDomain), nil
}

func (c *Client) CreateCategory(ctx context.Context, ownerID string, in ledger.CategoryInput) (core.Category, error) {
	row, err := insert(ctx, c, "categories", categoryRowFrom(ownerID, in))
	if err != nil {
		return core.Category{}, err
	}
	return row.toDomain(), nil
}

func (c *Client) UpdateCategory(ctx context.Context, id string, in ledger.CategoryInput) (core.Category, error) {
	row, err := patch[categoryRow](ctx, c, "categories", id, categoryRowPatch(in))
	if err != nil {
		return core.Category{}, err
	}
	return row.toDomain(), nil
}

func (c *Client) DeleteCategory(ctx context.Context, id string) (bool, error) {
	// No cascade: referencing transactions and budgets keep their dangling
	// category ids and degrade to uncategorized at aggregation time.
	return remove(ctx, c, "categories", id)
}

// ListTransactions implements ledger.TransactionStore.
func (c *Client) ListTransactions(ctx context.Context, ownerID string) ([]core.Transaction, error) {
	rows, err := list[transactionRow](ctx, c, "transactions", ownerID, "date.desc")
	if err != nil {
		return nil, err
	}
	return mapRows(rows, transactionRow.toDomain), nil
}

func (c *Client) CreateTransaction(ctx context.Context, ownerID string, in ledger.TransactionInput) (core.Transaction, error) {
	row, err := insert(ctx, c, "transactions", transactionRowFrom(ownerID, in))
	if err != nil {
		return core.Transaction{}, err
	}
	return row.toDomain(), nil
}

func (c *Client) UpdateTransaction(ctx context.Context, id string, in ledger.TransactionInput) (core.Transaction, error) {
	row, err := patch[transactionRow](ctx, c, "transactions", id, transactionRowPatch(in))
	if err != nil {
		return core.Transaction{}, err
	}
	return row.toDomain(), nil
}

func (c *Client) DeleteTransaction(ctx context.Context, id string) (bool, error) {
	return remove(ctx, c, "transactions", id)
}

// ListBudgets implements ledger.BudgetStore.
func (c *Client) ListBudgets(ctx context.Context, ownerID string) ([]core.Budget, error) {
	rows, err := list[budgetRow](ctx, c, "budgets", ownerID, "year.desc,month.desc")
	if err != nil {
		return nil, err
	}
	return mapRows(rows, budgetRow.toDomain), nil
}

func (c *Client) CreateBudget(ctx context.Context, ownerID string, in ledger.BudgetInput) (core.Budget, error) {
	row, err := insert(ctx, c, "budgets", budgetRowFrom(ownerID, in))
	if err != nil {
		return core.Budget{}, err
	}
	return row.toDomain(), nil
}

func (c *Client) UpdateBudget(ctx context.Context, id string, in ledger.BudgetInput) (core.Budget, error) {
	row, err := patch[budgetRow](ctx, c, "budgets", id, budgetRowPatch(in))
	if err != nil {
		return core.Budget{}, err
	}
	return row.toDomain(), nil
}

func (c *Client) DeleteBudget(ctx context.Context, id string) (bool, error) {
	return remove(ctx, c, "budgets", id)
}

// Patch payloads omit owner and creation columns; ownership never changes on
// update.
func accountRowPatch(in ledger.AccountInput) map[string]any {
	return map[string]any{
		"name":          in.Name,
		"balance_cents": in.Balance.Cents,
		"active":        in.Active,
	}
}

func categoryRowPatch(in ledger.CategoryInput) map[string]any {
	return map[string]any{
		"name":  in.Name,
		"kind":  string(in.Kind),
		"color": in.Color,
		"icon":  nullable(in.Icon),
	}
}

func transactionRowPatch(in ledger.TransactionInput) map[string]any {
	return map[string]any{
		"account_id":   in.AccountID,
		"category_id":  nullable(in.CategoryID),
		"kind":         string(in.Kind),
		"amount_cents": in.Amount.Cents,
		"date":         in.Date.Format(dateLayout),
		"name":         nullable(in.Name),
		"note":         nullable(in.Note),
		"recurring":    in.Recurring,
	}
}

func budgetRowPatch(in ledger.BudgetInput) map[string]any {
	return map[string]any{
		"category_id": in.CategoryID,
		"limit_cents": in.Limit.Cents,
		"month":       in.Month,
		"year":        in.Year,
	}
}
