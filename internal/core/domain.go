package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  Kind = "income"
	Expense Kind = "expense"
)

const (
	WithinBudget BudgetStatus = "withinBudget"
	NearLimit    BudgetStatus = "nearLimit"
	Exceeded     BudgetStatus = "exceeded"
)

// UncategorizedID is the synthetic category id used when a transaction or
// budget references a category that no longer exists.
const UncategorizedID = "uncategorized"

type (
	// Kind is the direction of a transaction or category. Amounts are always
	// positive magnitudes; sign is carried by the kind, never by the amount.
	Kind string

	// BudgetStatus classifies budget consumption against its limit.
	BudgetStatus string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	Account struct {
		ID        string
		OwnerID   string
		Name      string
		Balance   Money
		Active    *bool // nil means active (older rows predate the flag)
		CreatedAt time.Time
	}

	Category struct {
		ID      string
		OwnerID string
		Name    string
		Kind    Kind
		Color   string
		Icon    string
	}

	Transaction struct {
		ID         string
		OwnerID    string
		AccountID  string
		CategoryID string
		Kind       Kind
		Amount     Money
		Date       Date
		Name       string
		Note       string
		Recurring  bool
	}

	Budget struct {
		ID         string
		OwnerID    string
		CategoryID string
		Limit      Money
		Month      int // 1-12
		Year       int
		CreatedAt  time.Time
	}

	// BudgetProgress is a Budget joined with its resolved Category plus the
	// computed consumption for the budget's target month. It is derived, never
	// persisted.
	BudgetProgress struct {
		Budget         Budget
		Category       Category
		Spent          Money
		UsedPercentage float64
		Remaining      Money
		Status         BudgetStatus
	}
)

var (
	ErrInvalidKind     = errors.New("invalid kind")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidMonth    = errors.New("invalid month")
	ErrInvalidYear     = errors.New("invalid year")
	ErrEmptyName       = errors.New("empty name")
	ErrMissingAccount  = errors.New("missing account reference")
	ErrMissingCategory = errors.New("missing category reference")
)

// NewDate creates a timezone-naive calendar date at UTC midnight.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates an instant to its calendar date in UTC.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// Day returns the day of the month.
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month as 1-12.
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year.
func (d Date) Year() int {
	return d.Time.Year()
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

func (k Kind) Validate() error {
	switch k {
	case Income, Expense:
		return nil
	default:
		return ErrInvalidKind
	}
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// IsActive reports whether the account is active. An absent flag counts as
// active, a backward-compatibility rule for rows created before the flag
// existed.
func (a Account) IsActive() bool {
	return a.Active == nil || *a.Active
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	return c.Kind.Validate()
}

func (t Transaction) Validate() error {
	if err := t.Kind.Validate(); err != nil {
		return err
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(t.AccountID) == "" {
		return ErrMissingAccount
	}
	return nil
}

func (b Budget) Validate() error {
	if err := b.Limit.Validate(); err != nil {
		return err
	}
	if b.Month < 1 || b.Month > 12 {
		return ErrInvalidMonth
	}
	if b.Year < 1 {
		return ErrInvalidYear
	}
	if strings.TrimSpace(b.CategoryID) == "" {
		return ErrMissingCategory
	}
	return nil
}

// Uncategorized returns the synthetic fallback category for an owner. It is
// used whenever a category reference no longer resolves; referencing entities
// are kept intact rather than cascaded away.
func Uncategorized(ownerID string) Category {
	return Category{
		ID:      UncategorizedID,
		OwnerID: ownerID,
		Name:    "Uncategorized",
		Kind:    Expense,
		Color:   "#9E9E9E",
	}
}
