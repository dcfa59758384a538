// Package ledger defines the ports for the entity backends. The demo and
// remote adapters both satisfy these interfaces; everything above them is
// written against the ports only and never learns which variant is active.
package ledger

import (
	"context"

	"moneta/internal/core"
)

type (
	// AccountInput carries the caller-settable account fields for create and
	// update calls. A nil Active flag means active.
	AccountInput struct {
		Name    string
		Balance core.Money
		Active  *bool
	}

	CategoryInput struct {
		Name  string
		Kind  core.Kind
		Color string
		Icon  string
	}

	TransactionInput struct {
		AccountID  string
		CategoryID string
		Kind       core.Kind
		Amount     core.Money
		Date       core.Date
		Name       string
		Note       string
		Recurring  bool
	}

	BudgetInput struct {
		CategoryID string
		Limit      core.Money
		Month      int
		Year       int
	}

	AccountStore interface {
		ListAccounts(ctx context.Context, ownerID string) ([]core.Account, error)
		CreateAccount(ctx context.Context, ownerID string, in AccountInput) (core.Account, error)
		UpdateAccount(ctx context.Context, id string, in AccountInput) (core.Account, error)
		DeleteAccount(ctx context.Context, id string) (bool, error)
	}

	CategoryStore interface {
		ListCategories(ctx context.Context, ownerID string) ([]core.Category, error)
		CreateCategory(ctx context.Context, ownerID string, in CategoryInput) (core.Category, error)
		UpdateCategory(ctx context.Context, id string, in CategoryInput) (core.Category, error)
		DeleteCategory(ctx context.Context, id string) (bool, error)
	}

	TransactionStore interface {
		ListTransactions(ctx context.Context, ownerID string) ([]core.Transaction, error)
		CreateTransaction(ctx context.Context, ownerID string, in TransactionInput) (core.Transaction, error)
		UpdateTransaction(ctx context.Context, id string, in TransactionInput) (core.Transaction, error)
		DeleteTransaction(ctx context.Context, id string) (bool, error)
	}

	BudgetStore interface {
		ListBudgets(ctx context.Context, ownerID string) ([]core.Budget, error)
		CreateBudget(ctx context.Context, ownerID string, in BudgetInput) (core.Budget, error)
		UpdateBudget(ctx context.Context, id string, in BudgetInput) (core.Budget, error)
		DeleteBudget(ctx context.Context, id string) (bool, error)
	}
)
