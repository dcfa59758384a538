package store

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"moneta/internal/core"
	"moneta/internal/events"
	"moneta/internal/ledger"
)

// fakeBackend lets each test script backend behavior per call.
type fakeBackend struct {
	listAccounts     func(ctx context.Context, ownerID string) ([]core.Account, error)
	listCategories   func(ctx context.Context, ownerID string) ([]core.Category, error)
	listTransactions func(ctx context.Context, ownerID string) ([]core.Transaction, error)
	listBudgets      func(ctx context.Context, ownerID string) ([]core.Budget, error)

	createTransaction func(ctx context.Context, ownerID string, in ledger.TransactionInput) (core.Transaction, error)
	deleteTransaction func(ctx context.Context, id string) (bool, error)
	deleteCategory    func(ctx context.Context, id string) (bool, error)
}

func (f *fakeBackend) ListAccounts(ctx context.Context, ownerID string) ([]core.Account, error) {
	if f.listAccounts != nil {
		return f.listAccounts(ctx, ownerID)
	}
	return nil, nil
}

func (f *fakeBackend) CreateAccount(ctx context.Context, ownerID string, in ledger.AccountInput) (core.Account, error) {
	return core.Account{ID: "acc-new", OwnerID: ownerID, Name: in.Name}, nil
}

func (f *fakeBackend) UpdateAccount(ctx context.Context, id string, in ledger.AccountInput) (core.Account, error) {
	return core.Account{ID: id, Name: in.Name}, nil
}

func (f *fakeBackend) DeleteAccount(ctx context.Context, id string) (bool, error) {
	return true, nil
}

func (f *fakeBackend) ListCategories(ctx context.Context, ownerID string) ([]core.Category, error) {
	if f.listCategories != nil {
		return f.listCategories(ctx, ownerID)
	}
	return nil, nil
}

func (f *fakeBackend) CreateCategory(ctx context.Context, ownerID string, in ledger.CategoryInput) (core.Category, error) {
	return core.Category{ID: "cat-new", OwnerID: ownerID, Name: in.Name, Kind: in.Kind}, nil
}

func (f *fakeBackend) UpdateCategory(ctx context.Context, id string, in ledger.CategoryInput) (core.Category, error) {
	return core.Category{ID: id, Name: in.Name, Kind: in.Kind}, nil
}

func (f *fakeBackend) DeleteCategory(ctx context.Context, id string) (bool, error) {
	if f.deleteCategory != nil {
		return f.deleteCategory(ctx, id)
	}
	return true, nil
}

func (f *fakeBackend) ListTransactions(ctx context.Context, ownerID string) ([]core.Transaction, error) {
	if f.listTransactions != nil {
		return f.listTransactions(ctx, ownerID)
	}
	return nil, nil
}

func (f *fakeBackend) CreateTransaction(ctx context.Context, ownerID string, in ledger.TransactionInput) (core.Transaction, error) {
	if f.createTransaction != nil {
		return f.createTransaction(ctx, ownerID, in)
	}
	return core.Transaction{ID: "tx-new", OwnerID: ownerID, Kind: in.Kind, Amount: in.Amount, Date: in.Date, Name: in.Name}, nil
}

func (f *fakeBackend) UpdateTransaction(ctx context.Context, id string, in ledger.TransactionInput) (core.Transaction, error) {
	return core.Transaction{ID: id, Kind: in.Kind, Amount: in.Amount, Date: in.Date, Name: in.Name}, nil
}

func (f *fakeBackend) DeleteTransaction(ctx context.Context, id string) (bool, error) {
	if f.deleteTransaction != nil {
		return f.deleteTransaction(ctx, id)
	}
	return true, nil
}

func (f *fakeBackend) ListBudgets(ctx context.Context, ownerID string) ([]core.Budget, error) {
	if f.listBudgets != nil {
		return f.listBudgets(ctx, ownerID)
	}
	return nil, nil
}

func (f *fakeBackend) CreateBudget(ctx context.Context, ownerID string, in ledger.BudgetInput) (core.Budget, error) {
	return core.Budget{ID: "bud-new", OwnerID: ownerID, CategoryID: in.CategoryID, Limit: in.Limit, Month: in.Month, Year: in.Year}, nil
}

func (f *fakeBackend) UpdateBudget(ctx context.Context, id string, in ledger.BudgetInput) (core.Budget, error) {
	return core.Budget{ID: id, CategoryID: in.CategoryID, Limit: in.Limit, Month: in.Month, Year: in.Year}, nil
}

func (f *fakeBackend) DeleteBudget(ctx context.Context, id string) (bool, error) {
	return true, nil
}

type recordingPublisher struct {
	events []events.EntityEvent
	err    error
}

func (p *recordingPublisher) PublishEntityEvent(ctx context.Context, ev events.EntityEvent) error {
	p.events = append(p.events, ev)
	return p.err
}

func TestLastStartedLoadWins(t *testing.T) {
	releaseFirst := make(chan struct{})
	releaseSecond := make(chan struct{})
	entered := make(chan int, 2)
	var calls int32

	fb := &fakeBackend{
		listAccounts: func(ctx context.Context, ownerID string) ([]core.Account, error) {
			n := atomic.AddInt32(&calls, 1)
			entered <- int(n)
			if n == 1 {
				<-releaseFirst
				return []core.Account{{ID: "stale", Name: "Stale"}}, nil
			}
			<-releaseSecond
			return []core.Account{{ID: "fresh", Name: "Fresh"}}, nil
		},
	}
	s := New(fb, nil)
	s.SetOwner("alice")

	firstDone := make(chan error, 1)
	go func() { firstDone <- s.LoadAccounts(context.Background()) }()
	waitEntered(t, entered)

	secondDone := make(chan error, 1)
	go func() { secondDone <- s.LoadAccounts(context.Background()) }()
	waitEntered(t, entered)

	// The second load resolves first and applies its result.
	close(releaseSecond)
	if err := <-secondDone; err != nil {
		t.Fatalf("second load: %v", err)
	}

	// The first load resolves late; it is stale and must change nothing.
	close(releaseFirst)
	if err := <-firstDone; err != nil {
		t.Fatalf("first load: %v", err)
	}

	snap := s.Snapshot()
	if len(snap.Accounts) != 1 || snap.Accounts[0].ID != "fresh" {
		t.Fatalf("accounts = %+v, want the later-started load's result", snap.Accounts)
	}
	if s.Loading() {
		t.Fatal("Loading() = true after all loads resolved")
	}
}

func waitEntered(t *testing.T, entered <-chan int) {
	t.Helper()
	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatal("backend call did not start")
	}
}

func TestFailedLoadKeepsLastKnownGood(t *testing.T) {
	var calls int32
	fb := &fakeBackend{
		listAccounts: func(ctx context.Context, ownerID string) ([]core.Account, error) {
			if atomic.AddInt32(&calls, 1) == 1 {
				return []core.Account{{ID: "acc-1", Name: "Checking"}}, nil
			}
			return nil, errors.New("backend down")
		},
	}
	s := New(fb, nil)
	s.SetOwner("alice")

	if err := s.LoadAccounts(context.Background()); err != nil {
		t.Fatalf("first load: %v", err)
	}
	err := s.LoadAccounts(context.Background())
	if err == nil {
		t.Fatal("expected second load to fail")
	}

	snap := s.Snapshot()
	if len(snap.Accounts) != 1 || snap.Accounts[0].ID != "acc-1" {
		t.Fatalf("accounts = %+v, want last-known-good preserved", snap.Accounts)
	}
	if s.Loading() {
		t.Fatal("Loading() = true after failed load resolved")
	}
}

func TestSetOwnerInvalidatesInFlightLoad(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan int, 1)
	fb := &fakeBackend{
		listAccounts: func(ctx context.Context, ownerID string) ([]core.Account, error) {
			entered <- 1
			<-release
			return []core.Account{{ID: "old-owner-acc"}}, nil
		},
	}
	s := New(fb, nil)
	s.SetOwner("alice")

	done := make(chan error, 1)
	go func() { done <- s.LoadAccounts(context.Background()) }()
	waitEntered(t, entered)

	s.SetOwner("bob")
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("stale load: %v", err)
	}

	if snap := s.Snapshot(); len(snap.Accounts) != 0 {
		t.Fatalf("accounts = %+v, want empty after owner switch", snap.Accounts)
	}
}

func TestRefreshLoadsAllCollections(t *testing.T) {
	fb := &fakeBackend{
		listAccounts: func(ctx context.Context, ownerID string) ([]core.Account, error) {
			return []core.Account{{ID: "a1", OwnerID: ownerID}}, nil
		},
		listCategories: func(ctx context.Context, ownerID string) ([]core.Category, error) {
			return []core.Category{{ID: "c1"}}, nil
		},
		listTransactions: func(ctx context.Context, ownerID string) ([]core.Transaction, error) {
			return []core.Transaction{{ID: "t1"}}, nil
		},
		listBudgets: func(ctx context.Context, ownerID string) ([]core.Budget, error) {
			return []core.Budget{{ID: "b1"}}, nil
		},
	}
	s := New(fb, nil)
	s.SetOwner("alice")

	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	snap := s.Snapshot()
	if len(snap.Accounts) != 1 || len(snap.Categories) != 1 ||
		len(snap.Transactions) != 1 || len(snap.Budgets) != 1 {
		t.Fatalf("snapshot incomplete: %+v", snap)
	}
	if snap.Accounts[0].OwnerID != "alice" {
		t.Fatalf("OwnerID = %q, want active owner passed to backend", snap.Accounts[0].OwnerID)
	}
}

func TestMutationAppliedOnlyOnSuccess(t *testing.T) {
	fb := &fakeBackend{
		createTransaction: func(ctx context.Context, ownerID string, in ledger.TransactionInput) (core.Transaction, error) {
			return core.Transaction{}, errors.New("rejected")
		},
	}
	s := New(fb, nil)
	s.SetOwner("alice")

	_, err := s.CreateTransaction(context.Background(), ledger.TransactionInput{
		Kind: core.Expense, Amount: core.Money{Cents: 500}, Name: "Coffee",
	})
	if err == nil {
		t.Fatal("expected create to fail")
	}
	if snap := s.Snapshot(); len(snap.Transactions) != 0 {
		t.Fatalf("transactions = %+v, want no local mutation on backend failure", snap.Transactions)
	}

	fb.createTransaction = nil
	tx, err := s.CreateTransaction(context.Background(), ledger.TransactionInput{
		Kind: core.Expense, Amount: core.Money{Cents: 500}, Name: "Coffee",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	snap := s.Snapshot()
	if len(snap.Transactions) != 1 || snap.Transactions[0].ID != tx.ID {
		t.Fatalf("transactions = %+v, want the created transaction", snap.Transactions)
	}
}

func TestDeleteReportsExistence(t *testing.T) {
	fb := &fakeBackend{
		listTransactions: func(ctx context.Context, ownerID string) ([]core.Transaction, error) {
			return []core.Transaction{{ID: "tx-1"}}, nil
		},
		deleteTransaction: func(ctx context.Context, id string) (bool, error) {
			return id == "tx-1", nil
		},
	}
	s := New(fb, nil)
	s.SetOwner("alice")
	if err := s.LoadTransactions(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}

	deleted, err := s.DeleteTransaction(context.Background(), "tx-missing")
	if err != nil || deleted {
		t.Fatalf("DeleteTransaction(missing) = %v, %v", deleted, err)
	}
	if snap := s.Snapshot(); len(snap.Transactions) != 1 {
		t.Fatal("collection changed by a delete that removed nothing")
	}

	deleted, err = s.DeleteTransaction(context.Background(), "tx-1")
	if err != nil || !deleted {
		t.Fatalf("DeleteTransaction(tx-1) = %v, %v", deleted, err)
	}
	if snap := s.Snapshot(); len(snap.Transactions) != 0 {
		t.Fatal("deleted transaction still in collection")
	}
}

func TestMutationsPublishEvents(t *testing.T) {
	pub := &recordingPublisher{}
	s := New(&fakeBackend{}, pub)
	s.SetOwner("alice")

	if _, err := s.CreateAccount(context.Background(), ledger.AccountInput{Name: "Checking"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.DeleteAccount(context.Background(), "acc-new"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if len(pub.events) != 2 {
		t.Fatalf("published %d events, want 2", len(pub.events))
	}
	if pub.events[0].Op != events.OpCreated || pub.events[0].Entity != "account" {
		t.Fatalf("first event = %+v", pub.events[0])
	}
	if pub.events[1].Op != events.OpDeleted {
		t.Fatalf("second event = %+v", pub.events[1])
	}
}

func TestPublishFailureDoesNotFailMutation(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	s := New(&fakeBackend{}, pub)
	s.SetOwner("alice")

	a, err := s.CreateAccount(context.Background(), ledger.AccountInput{Name: "Checking"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if snap := s.Snapshot(); len(snap.Accounts) != 1 || snap.Accounts[0].ID != a.ID {
		t.Fatal("mutation not applied despite backend success")
	}
}
