package httpapi

import (
	"net/http"
	"time"

	"moneta/internal/core"
	"moneta/internal/ledger"
	applog "moneta/internal/log"
)

type accountJSON struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	BalanceCents int64  `json:"balance_cents"`
	Active       bool   `json:"active"`
	CreatedAt    string `json:"created_at,omitempty"`
}

type accountRequest struct {
	Name         string `json:"name"`
	BalanceCents int64  `json:"balance_cents"`
	Active       *bool  `json:"active"`
}

func accountView(a core.Account) accountJSON {
	v := accountJSON{
		ID:           a.ID,
		Name:         a.Name,
		BalanceCents: a.Balance.Cents,
		Active:       a.IsActive(),
	}
	if !a.CreatedAt.IsZero() {
		v.CreatedAt = a.CreatedAt.UTC().Format(time.RFC3339)
	}
	return v
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authedOwner(w, r); !ok {
		return
	}
	snap := s.store.Snapshot()
	out := make([]accountJSON, 0, len(snap.Accounts))
	for _, a := range snap.Accounts {
		out = append(out, accountView(a))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.authedOwner(w, r)
	if !ok {
		return
	}
	var req accountRequest
	if !decodeBody(w, r, &req) {
		return
	}
	a, err := s.store.CreateAccount(r.Context(), ledger.AccountInput{
		Name:    req.Name,
		Balance: core.Money{Cents: req.BalanceCents},
		Active:  req.Active,
	})
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	s.afterMutation(r.Context(), applog.OpCreate, "account", a.ID, owner)
	writeJSON(w, http.StatusCreated, accountView(a))
}

func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.authedOwner(w, r)
	if !ok {
		return
	}
	var req accountRequest
	if !decodeBody(w, r, &req) {
		return
	}
	a, err := s.store.UpdateAccount(r.Context(), r.PathValue("id"), ledger.AccountInput{
		Name:    req.Name,
		Balance: core.Money{Cents: req.BalanceCents},
		Active:  req.Active,
	})
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	s.afterMutation(r.Context(), applog.OpUpdate, "account", a.ID, owner)
	writeJSON(w, http.StatusOK, accountView(a))
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.authedOwner(w, r)
	if !ok {
		return
	}
	deleted, err := s.store.DeleteAccount(r.Context(), r.PathValue("id"))
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	s.afterMutation(r.Context(), applog.OpDelete, "account", r.PathValue("id"), owner)
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

type categoryJSON struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Kind  string `json:"kind"`
	Color string `json:"color,omitempty"`
	Icon  string `json:"icon,omitempty"`
}

type categoryRequest struct {
	Name  string `json:"name"`
	Kind  string `json:"kind"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

func categoryView(c core.Category) categoryJSON {
	return categoryJSON{ID: c.ID, Name: c.Name, Kind: string(c.Kind), Color: c.Color, Icon: c.Icon}
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authedOwner(w, r); !ok {
		return
	}
	snap := s.store.Snapshot()
	out := make([]categoryJSON, 0, len(snap.Categories))
	for _, c := range snap.Categories {
		out = append(out, categoryView(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.authedOwner(w, r)
	if !ok {
		return
	}
	var req categoryRequest
	if !decodeBody(w, r, &req) {
		return
	}
	c, err := s.store.CreateCategory(r.Context(), ledger.CategoryInput{
		Name:  req.Name,
		Kind:  core.Kind(req.Kind),
		Color: req.Color,
		Icon:  req.Icon,
	})
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	s.afterMutation(r.Context(), applog.OpCreate, "category", c.ID, owner)
	writeJSON(w, http.StatusCreated, categoryView(c))
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.authedOwner(w, r)
	if !ok {
		return
	}
	var req categoryRequest
	if !decodeBody(w, r, &req) {
		return
	}
	c, err := s.store.UpdateCategory(r.Context(), r.PathValue("id"), ledger.CategoryInput{
		Name:  req.Name,
		Kind:  core.Kind(req.Kind),
		Color: req.Color,
		Icon:  req.Icon,
	})
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	s.afterMutation(r.Context(), applog.OpUpdate, "category", c.ID, owner)
	writeJSON(w, http.StatusOK, categoryView(c))
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.authedOwner(w, r)
	if !ok {
		return
	}
	deleted, err := s.store.DeleteCategory(r.Context(), r.PathValue("id"))
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	s.afterMutation(r.Context(), applog.OpDelete, "category", r.PathValue("id"), owner)
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

type transactionJSON struct {
	ID          string `json:"id"`
	AccountID   string `json:"account_id,omitempty"`
	CategoryID  string `json:"category_id,omitempty"`
	Kind        string `json:"kind"`
	AmountCents int64  `json:"amount_cents"`
	Amount      string `json:"amount"`
	Date        string `json:"date"`
	Name        string `json:"name"`
	Note        string `json:"note,omitempty"`
	Recurring   bool   `json:"recurring"`
}

// transactionRequest takes the amount either as integer cents or as a
// decimal string ("12.50"); the decimal form wins when both are present.
type transactionRequest struct {
	AccountID   string `json:"account_id"`
	CategoryID  string `json:"category_id"`
	Kind        string `json:"kind"`
	AmountCents int64  `json:"amount_cents"`
	Amount      string `json:"amount"`
	Date        string `json:"date"`
	Name        string `json:"name"`
	Note        string `json:"note"`
	Recurring   bool   `json:"recurring"`
}

func transactionView(t core.Transaction) transactionJSON {
	return transactionJSON{
		ID:          t.ID,
		AccountID:   t.AccountID,
		CategoryID:  t.CategoryID,
		Kind:        string(t.Kind),
		AmountCents: t.Amount.Cents,
		Amount:      t.Amount.String(),
		Date:        t.Date.Format("2006-01-02"),
		Name:        t.Name,
		Note:        t.Note,
		Recurring:   t.Recurring,
	}
}

func transactionInput(w http.ResponseWriter, req transactionRequest) (ledger.TransactionInput, bool) {
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date, want YYYY-MM-DD")
		return ledger.TransactionInput{}, false
	}
	cents := req.AmountCents
	if req.Amount != "" {
		cents, err = core.ParseDecimalToCents(req.Amount)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid amount, want a positive decimal like 12.50")
			return ledger.TransactionInput{}, false
		}
	}
	return ledger.TransactionInput{
		AccountID:  req.AccountID,
		CategoryID: req.CategoryID,
		Kind:       core.Kind(req.Kind),
		Amount:     core.Money{Cents: cents},
		Date:       core.DateOf(date),
		Name:       req.Name,
		Note:       req.Note,
		Recurring:  req.Recurring,
	}, true
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authedOwner(w, r); !ok {
		return
	}
	snap := s.store.Snapshot()
	out := make([]transactionJSON, 0, len(snap.Transactions))
	for _, t := range snap.Transactions {
		out = append(out, transactionView(t))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.authedOwner(w, r)
	if !ok {
		return
	}
	var req transactionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	in, ok := transactionInput(w, req)
	if !ok {
		return
	}
	t, err := s.store.CreateTransaction(r.Context(), in)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	s.afterMutation(r.Context(), applog.OpCreate, "transaction", t.ID, owner)
	writeJSON(w, http.StatusCreated, transactionView(t))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.authedOwner(w, r)
	if !ok {
		return
	}
	var req transactionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	in, ok := transactionInput(w, req)
	if !ok {
		return
	}
	t, err := s.store.UpdateTransaction(r.Context(), r.PathValue("id"), in)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	s.afterMutation(r.Context(), applog.OpUpdate, "transaction", t.ID, owner)
	writeJSON(w, http.StatusOK, transactionView(t))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.authedOwner(w, r)
	if !ok {
		return
	}
	deleted, err := s.store.DeleteTransaction(r.Context(), r.PathValue("id"))
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	s.afterMutation(r.Context(), applog.OpDelete, "transaction", r.PathValue("id"), owner)
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

type budgetJSON struct {
	ID         string `json:"id"`
	CategoryID string `json:"category_id,omitempty"`
	LimitCents int64  `json:"limit_cents"`
	Month      int    `json:"month"`
	Year       int    `json:"year"`
}

type budgetRequest struct {
	CategoryID string `json:"category_id"`
	LimitCents int64  `json:"limit_cents"`
	Month      int    `json:"month"`
	Year       int    `json:"year"`
}

func budgetView(b core.Budget) budgetJSON {
	return budgetJSON{
		ID:         b.ID,
		CategoryID: b.CategoryID,
		LimitCents: b.Limit.Cents,
		Month:      b.Month,
		Year:       b.Year,
	}
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authedOwner(w, r); !ok {
		return
	}
	snap := s.store.Snapshot()
	out := make([]budgetJSON, 0, len(snap.Budgets))
	for _, b := range snap.Budgets {
		out = append(out, budgetView(b))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.authedOwner(w, r)
	if !ok {
		return
	}
	var req budgetRequest
	if !decodeBody(w, r, &req) {
		return
	}
	b, err := s.store.CreateBudget(r.Context(), ledger.BudgetInput{
		CategoryID: req.CategoryID,
		Limit:      core.Money{Cents: req.LimitCents},
		Month:      req.Month,
		Year:       req.Year,
	})
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	s.afterMutation(r.Context(), applog.OpCreate, "budget", b.ID, owner)
	writeJSON(w, http.StatusCreated, budgetView(b))
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.authedOwner(w, r)
	if !ok {
		return
	}
	var req budgetRequest
	if !decodeBody(w, r, &req) {
		return
	}
	b, err := s.store.UpdateBudget(r.Context(), r.PathValue("id"), ledger.BudgetInput{
		CategoryID: req.CategoryID,
		Limit:      core.Money{Cents: req.LimitCents},
		Month:      req.Month,
		Year:       req.Year,
	})
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	s.afterMutation(r.Context(), applog.OpUpdate, "budget", b.ID, owner)
	writeJSON(w, http.StatusOK, budgetView(b))
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.authedOwner(w, r)
	if !ok {
		return
	}
	deleted, err := s.store.DeleteBudget(r.Context(), r.PathValue("id"))
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	s.afterMutation(r.Context(), applog.OpDelete, "budget", r.PathValue("id"), owner)
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}
