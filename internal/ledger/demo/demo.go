// Package demo implements the ledger ports entirely in memory. It backs demo
// mode: data lives for the process lifetime only, is seeded once per login
// and never touches a network.
package demo

import (
	"context"
	"fmt"
	"sync"
	"time"

	"moneta/internal/core"
	"moneta/internal/ledger"
)

type Store struct {
	mu           sync.Mutex
	seq          int64
	latency      time.Duration
	accounts     []core.Account
	categories   []core.Category
	transactions []core.Transaction
	budgets      []core.Budget
}

// Option configures a Store.
type Option func(*Store)

// WithLatency makes every call sleep for d first, so loading states are
// exercised the same way they are against the remote backend.
func WithLatency(d time.Duration) Option {
	return func(s *Store) { s.latency = d }
}

func New(opts ...Option) *Store {
	s := &Store{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Seed populates fixture data for an owner, anchored at now so the current
// and previous calendar months both carry activity. Any previous data for the
// owner is discarded first; a login seeds exactly once.
func (s *Store) Seed(ownerID string, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dropOwnerLocked(ownerID)
	month := core.NewDate(now.Year(), int(now.Month()), 1)
	prev := core.DateOf(month.AddDate(0, -1, 0))

	checking := s.appendAccountLocked(core.Account{
		OwnerID: ownerID, Name: "Checking", Balance: core.Money{Cents: 500000}, CreatedAt: now,
	})
	savings := s.appendAccountLocked(core.Account{
		OwnerID: ownerID, Name: "Savings", Balance: core.Money{Cents: 1250000}, CreatedAt: now,
	})

	salary := s.appendCategoryLocked(core.Category{
		OwnerID: ownerID, Name: "Salary", Kind: core.Income, Color: "#4CAF50", Icon: "wallet",
	})
	food := s.appendCategoryLocked(core.Category{
		OwnerID: ownerID, Name: "Food", Kind: core.Expense, Color: "#FF7043", Icon: "restaurant",
	})
	transport := s.appendCategoryLocked(core.Category{
		OwnerID: ownerID, Name: "Transport", Kind: core.Expense, Color: "#42A5F5", Icon: "bus",
	})
	s.appendCategoryLocked(core.Category{
		OwnerID: ownerID, Name: "Entertainment", Kind: core.Expense, Color: "#AB47BC", Icon: "film",
	})

	seedTxs := []core.Transaction{
		{AccountID: checking.ID, CategoryID: salary.ID, Kind: core.Income,
			Amount: core.Money{Cents: 900000}, Date: month, Name: "Monthly salary", Recurring: true},
		{AccountID: checking.ID, CategoryID: food.ID, Kind: core.Expense,
			Amount: core.Money{Cents: 62000}, Date: core.DateOf(month.AddDate(0, 0, 2)), Name: "Groceries"},
		{AccountID: checking.ID, CategoryID: transport.ID, Kind: core.Expense,
			Amount: core.Money{Cents: 18000}, Date: core.DateOf(month.AddDate(0, 0, 4)), Name: "Transit pass"},
		{AccountID: savings.ID, CategoryID: salary.ID, Kind: core.Income,
			Amount: core.Money{Cents: 850000}, Date: prev, Name: "Monthly salary", Recurring: true},
		{AccountID: checking.ID, CategoryID: food.ID, Kind: core.Expense,
			Amount: core.Money{Cents: 74000}, Date: core.DateOf(prev.AddDate(0, 0, 10)), Name: "Groceries"},
	}
	for _, tx := range seedTxs {
		tx.OwnerID = ownerID
		tx.ID = s.nextIDLocked("txn")
		s.transactions = append(s.transactions, tx)
	}

	s.budgets = append(s.budgets, core.Budget{
		ID: s.nextIDLocked("bdg"), OwnerID: ownerID, CategoryID: food.ID,
		Limit: core.Money{Cents: 300000}, Month: int(now.Month()), Year: now.Year(), CreatedAt: now,
	})
}

func (s *Store) dropOwnerLocked(ownerID string) {
	s.accounts = dropOwned(s.accounts, ownerID, func(a core.Account) string { return a.OwnerID })
	s.categories = dropOwned(s.categories, ownerID, func(c core.Category) string { return c.OwnerID })
	s.transactions = dropOwned(s.transactions, ownerID, func(t core.Transaction) string { return t.OwnerID })
	s.budgets = dropOwned(s.budgets, ownerID, func(b core.Budget) string { return b.OwnerID })
}

func dropOwned[T any](in []T, ownerID string, owner func(T) string) []T {
	out := in[:0]
	for _, v := range in {
		if owner(v) != ownerID {
			out = append(out, v)
		}
	}
	return out
}

func (s *Store) appendAccountLocked(a core.Account) core.Account {
	a.ID = s.nextIDLocked("acc")
	s.accounts = append(s.accounts, a)
	return a
}

func (s *Store) appendCategoryLocked(c core.Category) core.Category {
	c.ID = s.nextIDLocked("cat")
	s.categories = append(s.categories, c)
	return c
}

// nextIDLocked generates a locally-unique id with a time-based suffix.
func (s *Store) nextIDLocked(prefix string) string {
	s.seq++
	return fmt.Sprintf("demo-%s-%d-%d", prefix, s.seq, time.Now().UnixNano()%1_000_000)
}

func (s *Store) wait(ctx context.Context) error {
	if s.latency <= 0 {
		return nil
	}
	select {
	case <-time.After(s.latency):
		return nil
	case <-ctx.Done():
		return ledger.NewFailure(ledger.FailureTimeout, "demo backend interrupted", ctx.Err())
	}
}

// ListAccounts implements ledger.AccountStore.
func (s *Store) ListAccounts(ctx context.Context, ownerID string) ([]core.Account, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Account
	for _, a := range s.accounts {
		if a.OwnerID == ownerID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *Store) CreateAccount(ctx context.Context, ownerID string, in ledger.AccountInput) (core.Account, error) {
	if err := s.wait(ctx); err != nil {
		return core.Account{}, err
	}
	a := core.Account{
		OwnerID:   ownerID,
		Name:      in.Name,
		Balance:   in.Balance,
		Active:    in.Active,
		CreatedAt: time.Now(),
	}
	if err := a.Validate(); err != nil {
		return core.Account{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendAccountLocked(a), nil
}

func (s *Store) UpdateAccount(ctx context.Context, id string, in ledger.AccountInput) (core.Account, error) {
	if err := s.wait(ctx); err != nil {
		return core.Account{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, a := range s.accounts {
		if a.ID == id {
			a.Name = in.Name
			a.Balance = in.Balance
			a.Active = in.Active
			if err := a.Validate(); err != nil {
				return core.Account{}, err
			}
			s.accounts[i] = a
			return a, nil
		}
	}
	return core.Account{}, ledger.ErrNotFound
}

func (s *Store) DeleteAccount(ctx context.Context, id string) (bool, error) {
	if err := s.wait(ctx); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, a := range s.accounts {
		if a.ID == id {
			s.accounts = append(s.accounts[:i], s.accounts[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// ListCategories implements ledger.CategoryStore.
func (s *Store) ListCategories(ctx context.Context, ownerID string) ([]core.Category, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Category
	for _, c := range s.categories {
		if c.OwnerID == ownerID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *Store) CreateCategory(ctx context.Context, ownerID string, in ledger.CategoryInput) (core.Category, error) {
	if err := s.wait(ctx); err != nil {
		return core.Category{}, err
	}
	c := core.Category{
		OwnerID: ownerID,
		Name:    in.Name,
		Kind:    in.Kind,
		Color:   in.Color,
		Icon:    in.Icon,
	}
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendCategoryLocked(c), nil
}

func (s *Store) UpdateCategory(ctx context.Context, id string, in ledger.CategoryInput) (core.Category, error) {
	if err := s.wait(ctx); err != nil {
		return core.Category{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.categories {
		if c.ID == id {
			c.Name = in.Name
			c.Kind = in.Kind
			c.Color = in.Color
			c.Icon = in.Icon
			if err := c.Validate(); err != nil {
				return core.Category{}, err
			}
			s.categories[i] = c
			return c, nil
		}
	}
	return core.Category{}, ledger.ErrNotFound
}

// DeleteCategory removes the category only. Transactions and budgets that
// reference it are left intact with a dangling reference; aggregation
// resolves those to the uncategorized placeholder.
func (s *Store) DeleteCategory(ctx context.Context, id string) (bool, error) {
	if err := s.wait(ctx); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.categories {
		if c.ID == id {
			s.categories = append(s.categories[:i], s.categories[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// ListTransactions implements ledger.TransactionStore.
func (s *Store) ListTransactions(ctx context.Context, ownerID string) ([]core.Transaction, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Transaction
	for _, tx := range s.transactions {
		if tx.OwnerID == ownerID {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (s *Store) CreateTransaction(ctx context.Context, ownerID string, in ledger.TransactionInput) (core.Transaction, error) {
	if err := s.wait(ctx); err != nil {
		return core.Transaction{}, err
	}
	tx := core.Transaction{
		OwnerID:    ownerID,
		AccountID:  in.AccountID,
		CategoryID: in.CategoryID,
		Kind:       in.Kind,
		Amount:     in.Amount,
		Date:       in.Date,
		Name:       in.Name,
		Note:       in.Note,
		Recurring:  in.Recurring,
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tx.ID = s.nextIDLocked("txn")
	s.transactions = append(s.transactions, tx)
	return tx, nil
}

func (s *Store) UpdateTransaction(ctx context.Context, id string, in ledger.TransactionInput) (core.Transaction, error) {
	if err := s.wait(ctx); err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, tx := range s.transactions {
		if tx.ID == id {
			tx.AccountID = in.AccountID
			tx.CategoryID = in.CategoryID
			tx.Kind = in.Kind
			tx.Amount = in.Amount
			tx.Date = in.Date
			tx.Name = in.Name
			tx.Note = in.Note
			tx.Recurring = in.Recurring
			if err := tx.Validate(); err != nil {
				return core.Transaction{}, err
			}
			s.transactions[i] = tx
			return tx, nil
		}
	}
	return core.Transaction{}, ledger.ErrNotFound
}

func (s *Store) DeleteTransaction(ctx context.Context, id string) (bool, error) {
	if err := s.wait(ctx); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, tx := range s.transactions {
		if tx.ID == id {
			s.transactions = append(s.transactions[:i], s.transactions[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// ListBudgets implements ledger.BudgetStore.
func (s *Store) ListBudgets(ctx context.Context, ownerID string) ([]core.Budget, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Budget
	for _, b := range s.budgets {
		if b.OwnerID == ownerID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *Store) CreateBudget(ctx context.Context, ownerID string, in ledger.BudgetInput) (core.Budget, error) {
	if err := s.wait(ctx); err != nil {
		return core.Budget{}, err
	}
	b := core.Budget{
		OwnerID:    ownerID,
		CategoryID: in.CategoryID,
		Limit:      in.Limit,
		Month:      in.Month,
		Year:       in.Year,
		CreatedAt:  time.Now(),
	}
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b.ID = s.nextIDLocked("bdg")
	s.budgets = append(s.budgets, b)
	return b, nil
}

func (s *Store) UpdateBudget(ctx context.Context, id string, in ledger.BudgetInput) (core.Budget, error) {
	if err := s.wait(ctx); err != nil {
		return core.Budget{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, b := range s.budgets {
		if b.ID == id {
			b.CategoryID = in.CategoryID
			b.Limit = in.Limit
			b.Month = in.Month
			b.Year = in.Year
			if err := b.Validate(); err != nil {
				return core.Budget{}, err
			}
			s.budgets[i] = b
			return b, nil
		}
	}
	return core.Budget{}, ledger.ErrNotFound
}

func (s *Store) DeleteBudget(ctx context.Context, id string) (bool, error) {
	if err := s.wait(ctx); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, b := range s.budgets {
		if b.ID == id {
			s.budgets = append(s.budgets[:i], s.budgets[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}
