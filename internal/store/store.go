// Package store owns the in-memory entity collections for the active owner.
// All reads and mutations go through it: loads replace a collection wholesale
// from the backend, and CRUD calls apply the local mutation only after the
// backend confirmed the write.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"moneta/internal/backend"
	"moneta/internal/core"
	"moneta/internal/events"
	"moneta/internal/ledger"
)

// Publisher is the optional mutation-event sink. A nil publisher disables
// events; a failing one is logged and ignored.
type Publisher interface {
	PublishEntityEvent(ctx context.Context, ev events.EntityEvent) error
}

type Store struct {
	backend   backend.Backend
	publisher Publisher

	mu           sync.Mutex
	ownerID      string
	accounts     collection[core.Account]
	categories   collection[core.Category]
	transactions collection[core.Transaction]
	budgets      collection[core.Budget]
}

// collection tracks one entity slice together with its load sequencing.
// started is bumped when a load begins; a load whose token no longer matches
// started at resolution time is stale and its result is discarded, so the
// last-started load always wins regardless of resolution order.
type collection[T any] struct {
	items   []T
	loading bool
	started uint64
}

// Snapshot is a point-in-time copy of all four collections, safe to hand to
// the aggregation functions.
type Snapshot struct {
	Accounts     []core.Account
	Categories   []core.Category
	Transactions []core.Transaction
	Budgets      []core.Budget
}

func New(b backend.Backend, publisher Publisher) *Store {
	return &Store{backend: b, publisher: publisher}
}

// SetOwner switches the store to a new owner. The collections are cleared and
// any in-flight load for the previous owner is invalidated; callers follow up
// with Refresh.
func (s *Store) SetOwner(ownerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ownerID = ownerID
	s.accounts.reset()
	s.categories.reset()
	s.transactions.reset()
	s.budgets.reset()
}

func (c *collection[T]) reset() {
	c.items = nil
	c.loading = false
	c.started++ // in-flight loads become stale
}

// Owner returns the active owner id.
func (s *Store) Owner() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ownerID
}

// load runs one backend fetch under the sequencing contract: the loading flag
// stays true until the newest load resolves, a failed load keeps the
// last-known-good items, and a superseded load changes nothing.
func load[T any](ctx context.Context, s *Store, col *collection[T], name string,
	fetch func(context.Context, string) ([]T, error)) error {

	s.mu.Lock()
	col.started++
	token := col.started
	col.loading = true
	owner := s.ownerID
	s.mu.Unlock()

	items, err := fetch(ctx, owner)

	s.mu.Lock()
	defer s.mu.Unlock()
	if token != col.started {
		// A newer load superseded this one; its outcome is irrelevant.
		return nil
	}
	col.loading = false
	if err != nil {
		return fmt.Errorf("load %s: %w", name, err)
	}
	col.items = items
	return nil
}

func (s *Store) LoadAccounts(ctx context.Context) error {
	return load(ctx, s, &s.accounts, "accounts", s.backend.ListAccounts)
}

func (s *Store) LoadCategories(ctx context.Context) error {
	return load(ctx, s, &s.categories, "categories", s.backend.ListCategories)
}

func (s *Store) LoadTransactions(ctx context.Context) error {
	return load(ctx, s, &s.transactions, "transactions", s.backend.ListTransactions)
}

func (s *Store) LoadBudgets(ctx context.Context) error {
	return load(ctx, s, &s.budgets, "budgets", s.backend.ListBudgets)
}

// Refresh loads all four collections concurrently.
func (s *Store) Refresh(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.LoadAccounts(ctx) })
	g.Go(func() error { return s.LoadCategories(ctx) })
	g.Go(func() error { return s.LoadTransactions(ctx) })
	g.Go(func() error { return s.LoadBudgets(ctx) })
	return g.Wait()
}

// Snapshot copies the current collections.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Accounts:     append([]core.Account(nil), s.accounts.items...),
		Categories:   append([]core.Category(nil), s.categories.items...),
		Transactions: append([]core.Transaction(nil), s.transactions.items...),
		Budgets:      append([]core.Budget(nil), s.budgets.items...),
	}
}

// Loading reports whether any collection has a load in flight.
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accounts.loading || s.categories.loading ||
		s.transactions.loading || s.budgets.loading
}

func (s *Store) publish(ctx context.Context, ev events.EntityEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishEntityEvent(ctx, ev); err != nil {
		// Best effort: the mutation already succeeded.
		slog.ErrorContext(ctx, "Failed to publish entity event",
			"entity", ev.Entity, "id", ev.ID, "op", ev.Op, "error", err)
	}
}

func replaceByID[T any](items []T, id string, v T, idOf func(T) string) []T {
	for i := range items {
		if idOf(items[i]) == id {
			items[i] = v
			break
		}
	}
	return items
}

func removeByID[T any](items []T, id string, idOf func(T) string) []T {
	for i := range items {
		if idOf(items[i]) == id {
			return append(items[:i], items[i+1:]...)
		}
	}
	return items
}

// CreateAccount writes through the backend and appends locally on success.
func (s *Store) CreateAccount(ctx context.Context, in ledger.AccountInput) (core.Account, error) {
	owner := s.Owner()
	a, err := s.backend.CreateAccount(ctx, owner, in)
	if err != nil {
		return core.Account{}, err
	}
	s.mu.Lock()
	if s.ownerID == owner {
		s.accounts.items = append(s.accounts.items, a)
	}
	s.mu.Unlock()
	s.publish(ctx, events.NewEntityEvent("account", a.ID, events.OpCreated, owner))
	return a, nil
}

func (s *Store) UpdateAccount(ctx context.Context, id string, in ledger.AccountInput) (core.Account, error) {
	owner := s.Owner()
	a, err := s.backend.UpdateAccount(ctx, id, in)
	if err != nil {
		return core.Account{}, err
	}
	s.mu.Lock()
	s.accounts.items = replaceByID(s.accounts.items, id, a, func(v core.Account) string { return v.ID })
	s.mu.Unlock()
	s.publish(ctx, events.NewEntityEvent("account", id, events.OpUpdated, owner))
	return a, nil
}

func (s *Store) DeleteAccount(ctx context.Context, id string) (bool, error) {
	owner := s.Owner()
	deleted, err := s.backend.DeleteAccount(ctx, id)
	if err != nil || !deleted {
		return deleted, err
	}
	s.mu.Lock()
	s.accounts.items = removeByID(s.accounts.items, id, func(v core.Account) string { return v.ID })
	s.mu.Unlock()
	s.publish(ctx, events.NewEntityEvent("account", id, events.OpDeleted, owner))
	return true, nil
}

func (s *Store) CreateCategory(ctx context.Context, in ledger.CategoryInput) (core.Category, error) {
	owner := s.Owner()
	c, err := s.backend.CreateCategory(ctx, owner, in)
	if err != nil {
		return core.Category{}, err
	}
	s.mu.Lock()
	if s.ownerID == owner {
		s.categories.items = append(s.categories.items, c)
	}
	s.mu.Unlock()
	s.publish(ctx, events.NewEntityEvent("category", c.ID, events.OpCreated, owner))
	return c, nil
}

func (s *Store) UpdateCategory(ctx context.Context, id string, in ledger.CategoryInput) (core.Category, error) {
	owner := s.Owner()
	c, err := s.backend.UpdateCategory(ctx, id, in)
	if err != nil {
		return core.Category{}, err
	}
	s.mu.Lock()
	s.categories.items = replaceByID(s.categories.items, id, c, func(v core.Category) string { return v.ID })
	s.mu.Unlock()
	s.publish(ctx, events.NewEntityEvent("category", id, events.OpUpdated, owner))
	return c, nil
}

// DeleteCategory removes only the category; referencing transactions and
// budgets stay, dangling, and aggregate as uncategorized.
func (s *Store) DeleteCategory(ctx context.Context, id string) (bool, error) {
	owner := s.Owner()
	deleted, err := s.backend.DeleteCategory(ctx, id)
	if err != nil || !deleted {
		return deleted, err
	}
	s.mu.Lock()
	s.categories.items = removeByID(s.categories.items, id, func(v core.Category) string { return v.ID })
	s.mu.Unlock()
	s.publish(ctx, events.NewEntityEvent("category", id, events.OpDeleted, owner))
	return true, nil
}

func (s *Store) CreateTransaction(ctx context.Context, in ledger.TransactionInput) (core.Transaction, error) {
	owner := s.Owner()
	tx, err := s.backend.CreateTransaction(ctx, owner, in)
	if err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	if s.ownerID == owner {
		s.transactions.items = append(s.transactions.items, tx)
	}
	s.mu.Unlock()
	s.publish(ctx, events.NewEntityEvent("transaction", tx.ID, events.OpCreated, owner))
	return tx, nil
}

func (s *Store) UpdateTransaction(ctx context.Context, id string, in ledger.TransactionInput) (core.Transaction, error) {
	owner := s.Owner()
	tx, err := s.backend.UpdateTransaction(ctx, id, in)
	if err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	s.transactions.items = replaceByID(s.transactions.items, id, tx, func(v core.Transaction) string { return v.ID })
	s.mu.Unlock()
	s.publish(ctx, events.NewEntityEvent("transaction", id, events.OpUpdated, owner))
	return tx, nil
}

func (s *Store) DeleteTransaction(ctx context.Context, id string) (bool, error) {
	owner := s.Owner()
	deleted, err := s.backend.DeleteTransaction(ctx, id)
	if err != nil || !deleted {
		return deleted, err
	}
	s.mu.Lock()
	s.transactions.items = removeByID(s.transactions.items, id, func(v core.Transaction) string { return v.ID })
	s.mu.Unlock()
	s.publish(ctx, events.NewEntityEvent("transaction", id, events.OpDeleted, owner))
	return true, nil
}

func (s *Store) CreateBudget(ctx context.Context, in ledger.BudgetInput) (core.Budget, error) {
	owner := s.Owner()
	b, err := s.backend.CreateBudget(ctx, owner, in)
	if err != nil {
		return core.Budget{}, err
	}
	s.mu.Lock()
	if s.ownerID == owner {
		s.budgets.items = append(s.budgets.items, b)
	}
	s.mu.Unlock()
	s.publish(ctx, events.NewEntityEvent("budget", b.ID, events.OpCreated, owner))
	return b, nil
}

func (s *Store) UpdateBudget(ctx context.Context, id string, in ledger.BudgetInput) (core.Budget, error) {
	owner := s.Owner()
	b, err := s.backend.UpdateBudget(ctx, id, in)
	if err != nil {
		return core.Budget{}, err
	}
	s.mu.Lock()
	s.budgets.items = replaceByID(s.budgets.items, id, b, func(v core.Budget) string { return v.ID })
	s.mu.Unlock()
	s.publish(ctx, events.NewEntityEvent("budget", id, events.OpUpdated, owner))
	return b, nil
}

func (s *Store) DeleteBudget(ctx context.Context, id string) (bool, error) {
	owner := s.Owner()
	deleted, err := s.backend.DeleteBudget(ctx, id)
	if err != nil || !deleted {
		return deleted, err
	}
	s.mu.Lock()
	s.budgets.items = removeByID(s.budgets.items, id, func(v core.Budget) string { return v.ID })
	s.mu.Unlock()
	s.publish(ctx, events.NewEntityEvent("budget", id, events.OpDeleted, owner))
	return true, nil
}
