package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/dvloznov/bank-backoffice/internal/api/middleware"
	"github.com/dvloznov/bank-backoffice/internal/domain"
	"github.com/rs/zerolog"
)

// AccountService is the subset of usecase.AccountUseCases the API needs.
type AccountService interface {
	List(ctx context.Context) ([]domain.Account, error)
	Get(ctx context.Context, id int64) (*domain.Account, error)
	Create(ctx context.Context, req domain.CreateAccountRequest) (*domain.Account, error)
	CreateWithClientLookup(ctx context.Context, req domain.CreateAccountRequest) (*domain.Account, error)
	Update(ctx context.Context, id int64, a domain.Account) (*domain.Account, error)
	Delete(ctx context.Context, id int64) error
}

// AccountsHandler handles account endpoints.
type AccountsHandler struct {
	accounts AccountService
	log      zerolog.Logger
}

// NewAccountsHandler creates a new accounts handler.
func NewAccountsHandler(accounts AccountService, log zerolog.Logger) *AccountsHandler {
	return &AccountsHandler{accounts: accounts, log: log}
}

// Register mounts the account routes on mux.
func (h *AccountsHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/accounts", h.List)
	mux.HandleFunc("POST /api/accounts", h.Create)
	mux.HandleFunc("GET /api/accounts/{id}", h.Get)
	mux.HandleFunc("PUT /api/accounts/{id}", h.Update)
	mux.HandleFunc("DELETE /api/accounts/{id}", h.Delete)
}

// List handles GET /api/accounts
func (h *AccountsHandler) List(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.accounts.List(r.Context())
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	if accounts == nil {
		accounts = []domain.Account{}
	}
	middleware.WriteJSON(w, http.StatusOK, accounts)
}

// Get handles GET /api/accounts/{id}
func (h *AccountsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	a, err := h.accounts.Get(r.Context(), id)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, a)
}

// Create handles POST /api/accounts. With ?verifyClient=true the client name
// is resolved against the client service before the account is opened.
func (h *AccountsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateAccountRequest
	if !decodeBody(w, r, &req) {
		return
	}

	create := h.accounts.Create
	if verify, _ := strconv.ParseBool(r.URL.Query().Get("verifyClient")); verify {
		create = h.accounts.CreateWithClientLookup
	}

	a, err := create(r.Context(), req)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	h.log.Info().Str("account_number", a.AccountNumber).Msg("Account created")
	middleware.WriteJSON(w, http.StatusCreated, a)
}

// Update handles PUT /api/accounts/{id}
func (h *AccountsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var a domain.Account
	if !decodeBody(w, r, &a) {
		return
	}
	updated, err := h.accounts.Update(r.Context(), id, a)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, updated)
}

// Delete handles DELETE /api/accounts/{id}
func (h *AccountsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.accounts.Delete(r.Context(), id); err != nil {
		writeFailure(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
