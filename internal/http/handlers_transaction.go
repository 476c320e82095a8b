package http

import (
	"net/http"

	"fintrack/internal/core"
)

var (
	listTxMessages   = errorMessages{Internal: "Failed to fetch transactions"}
	getTxMessages    = errorMessages{NotFound: "Transaction not found", Internal: "Database error"}
	createTxMessages = errorMessages{Internal: "Failed to create transaction"}
	updateTxMessages = errorMessages{NotFound: "Transaction not found", Internal: "Failed to update transaction"}
	deleteTxMessages = errorMessages{NotFound: "Transaction not found", Internal: "Failed to delete transaction"}
)

// handleListTransactions returns the caller's ledger newest first.
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := s.transactions.List(r.Context(), mustUserID(r))
	if err != nil {
		s.fail(w, r, err, listTxMessages)
		return
	}
	NewJSONResponse().Payload(struct {
		messageJSON
		Transactions []transactionJSON `json:"transactions"`
	}{
		messageJSON:  messageJSON{Success: true, Message: "Transactions fetched successfully"},
		Transactions: toTransactionsJSON(txs),
	}).Write(w)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseIDParam(r)
	if !ok {
		NotFoundError(getTxMessages.NotFound).Write(w)
		return
	}
	tx, err := s.transactions.Get(r.Context(), mustUserID(r), id)
	if err != nil {
		s.fail(w, r, err, getTxMessages)
		return
	}
	NewJSONResponse().Payload(toTransactionJSON(tx)).Write(w)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	in, err := ParseTransactionInput(p)
	if err != nil {
		s.fail(w, r, err, createTxMessages)
		return
	}

	tx, err := s.transactions.Create(r.Context(), mustUserID(r), in)
	if err != nil {
		s.fail(w, r, err, createTxMessages)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Payload(struct {
		messageJSON
		Transaction transactionJSON `json:"transaction"`
	}{
		messageJSON: messageJSON{Success: true, Message: "Transaction created successfully"},
		Transaction: toTransactionJSON(tx),
	}).Write(w)
}

// handleUpdateTransaction overwrites the caller's transaction. Foreign or
// missing ids are 404.
func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseIDParam(r)
	if !ok {
		NotFoundError(updateTxMessages.NotFound).Write(w)
		return
	}
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	in, err := ParseTransactionInput(p)
	if err != nil {
		s.fail(w, r, err, updateTxMessages)
		return
	}

	tx, err := s.transactions.Update(r.Context(), mustUserID(r), id, in)
	if err != nil {
		s.fail(w, r, err, updateTxMessages)
		return
	}
	NewJSONResponse().Payload(toTransactionJSON(tx)).Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseIDParam(r)
	if !ok {
		NotFoundError(deleteTxMessages.NotFound).Write(w)
		return
	}
	if err := s.transactions.Delete(r.Context(), mustUserID(r), id); err != nil {
		s.fail(w, r, err, deleteTxMessages)
		return
	}
	NewJSONResponse().Payload(messageJSON{Success: true, Message: "Transaction deleted successfully"}).Write(w)
}

// handleListCategories lists the caller's categories, optionally filtered
// by ?type=income|expense.
func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	var typ core.TransactionType
	if raw := r.URL.Query().Get("type"); raw != "" {
		t, err := core.ParseTransactionType(raw)
		if err != nil {
			s.fail(w, r, err, errorMessages{})
			return
		}
		typ = t
	}

	cats, err := s.transactions.ListCategories(r.Context(), mustUserID(r), typ)
	if err != nil {
		s.fail(w, r, err, errorMessages{Internal: "Failed to fetch categories"})
		return
	}
	out := make([]categoryJSON, 0, len(cats))
	for _, c := range cats {
		out = append(out, categoryJSON{ID: c.ID, Name: c.Name, Type: c.Type.String()})
	}
	NewJSONResponse().Payload(struct {
		Success    bool           `json:"success"`
		Categories []categoryJSON `json:"categories"`
	}{Success: true, Categories: out}).Write(w)
}
