package handlers

import (
	"context"
	"net/http"

	"github.com/dvloznov/bank-backoffice/internal/api/middleware"
	"github.com/dvloznov/bank-backoffice/internal/domain"
	"github.com/rs/zerolog"
)

// TransactionService is the subset of usecase.TransactionUseCases the API needs.
type TransactionService interface {
	List(ctx context.Context) ([]domain.Transaction, error)
	Get(ctx context.Context, id int64) (*domain.Transaction, error)
	Create(ctx context.Context, t domain.Transaction) (*domain.Transaction, error)
	Update(ctx context.Context, id int64, t domain.Transaction) (*domain.Transaction, error)
	Delete(ctx context.Context, id int64) error
}

// TransactionsHandler handles transaction endpoints.
type TransactionsHandler struct {
	transactions TransactionService
	log          zerolog.Logger
}

// NewTransactionsHandler creates a new transactions handler.
func NewTransactionsHandler(transactions TransactionService, log zerolog.Logger) *TransactionsHandler {
	return &TransactionsHandler{transactions: transactions, log: log}
}

// Register mounts the transaction routes on mux.
func (h *TransactionsHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/transactions", h.List)
	mux.HandleFunc("POST /api/transactions", h.Create)
	mux.HandleFunc("GET /api/transactions/{id}", h.Get)
	mux.HandleFunc("PUT /api/transactions/{id}", h.Update)
	mux.HandleFunc("DELETE /api/transactions/{id}", h.Delete)
}

// List handles GET /api/transactions
func (h *TransactionsHandler) List(w http.ResponseWriter, r *http.Request) {
	txs, err := h.transactions.List(r.Context())
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	// Return array directly for frontend compatibility
	if txs == nil {
		txs = []domain.Transaction{}
	}
	middleware.WriteJSON(w, http.StatusOK, txs)
}

// Get handles GET /api/transactions/{id}
func (h *TransactionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	t, err := h.transactions.Get(r.Context(), id)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, t)
}

// Create handles POST /api/transactions
func (h *TransactionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var t domain.Transaction
	if !decodeBody(w, r, &t) {
		return
	}
	created, err := h.transactions.Create(r.Context(), t)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	h.log.Info().
		Str("account_number", created.AccountNumber).
		Str("type", string(created.TransactionType)).
		Str("amount", created.Amount.String()).
		Msg("Transaction recorded")
	middleware.WriteJSON(w, http.StatusCreated, created)
}

// Update handles PUT /api/transactions/{id}
func (h *TransactionsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var t domain.Transaction
	if !decodeBody(w, r, &t) {
		return
	}
	updated, err := h.transactions.Update(r.Context(), id, t)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, updated)
}

// Delete handles DELETE /api/transactions/{id}
func (h *TransactionsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.transactions.Delete(r.Context(), id); err != nil {
		writeFailure(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
