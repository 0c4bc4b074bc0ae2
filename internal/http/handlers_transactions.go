package http

import (
	"net/http"

	"carteira/internal/core"
	applog "carteira/internal/log"
)

type transactionRequest struct {
	UserID        int64                `json:"userId"`
	Name          string               `json:"name"`
	Type          core.TransactionType `json:"type"`
	Category      core.Category        `json:"category"`
	Amount        core.Money           `json:"amount"`
	PaymentMethod core.PaymentMethod   `json:"paymentMethod"`
	Date          core.Date            `json:"date"`
	Installments  *int                 `json:"installments,omitempty"`
}

func (req transactionRequest) toTransaction() core.Transaction {
	return core.Transaction{
		UserID:        req.UserID,
		Name:          req.Name,
		Type:          req.Type,
		Category:      req.Category,
		Amount:        req.Amount,
		PaymentMethod: req.PaymentMethod,
		Date:          req.Date,
		Installments:  req.Installments,
	}
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	year, month, err := parseYearMonth(r, s.now())
	if err != nil {
		s.fail(w, r, "list_transactions", err)
		return
	}

	user := currentUser(r)
	start := core.NewDate(year, int(month), 1)
	txs, err := s.store.ListFamilyTransactions(r.Context(), user.FamilyID, start, core.MonthEnd(start))
	if err != nil {
		s.fail(w, r, "list_transactions", err)
		return
	}
	if txs == nil {
		txs = []core.Transaction{}
	}
	writeJSON(w, http.StatusOK, txs)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	t := req.toTransaction()
	if t.Date.IsEmpty() {
		t.Date = core.DateOf(s.now())
	}

	user := currentUser(r)
	saved, err := s.transactions.Create(r.Context(), user, t)
	if err != nil {
		s.fail(w, r, "create_transaction", err)
		return
	}

	applog.NewStructuredLogger(applog.FromContext(r.Context())).LogTransactionCreated(r.Context(),
		saved.UserID, user.FamilyID, saved.ID, saved.Name, saved.Amount.Cents, string(saved.Type), string(saved.Category))
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.fail(w, r, "delete_transaction", err)
		return
	}
	if err := s.transactions.Delete(r.Context(), currentUser(r), id); err != nil {
		s.fail(w, r, "delete_transaction", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
