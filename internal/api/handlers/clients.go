package handlers

import (
	"context"
	"net/http"

	"github.com/dvloznov/bank-backoffice/internal/api/middleware"
	"github.com/dvloznov/bank-backoffice/internal/domain"
	"github.com/rs/zerolog"
)

// ClientService is the subset of usecase.ClientUseCases the API needs.
type ClientService interface {
	List(ctx context.Context) ([]domain.Client, error)
	Get(ctx context.Context, id int64) (*domain.Client, error)
	Create(ctx context.Context, req domain.CreateClientRequest) (*domain.Client, error)
	Update(ctx context.Context, id int64, c domain.Client) (*domain.Client, error)
	Activate(ctx context.Context, id int64) (*domain.Client, error)
	Deactivate(ctx context.Context, id int64) (*domain.Client, error)
	Delete(ctx context.Context, id int64) error
}

// ClientsHandler handles client endpoints.
type ClientsHandler struct {
	clients ClientService
	log     zerolog.Logger
}

// NewClientsHandler creates a new clients handler.
func NewClientsHandler(clients ClientService, log zerolog.Logger) *ClientsHandler {
	return &ClientsHandler{clients: clients, log: log}
}

// Register mounts the client routes on mux.
func (h *ClientsHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/clients", h.List)
	mux.HandleFunc("POST /api/clients", h.Create)
	mux.HandleFunc("GET /api/clients/{id}", h.Get)
	mux.HandleFunc("PUT /api/clients/{id}", h.Update)
	mux.HandleFunc("PATCH /api/clients/{id}/activate", h.Activate)
	mux.HandleFunc("PATCH /api/clients/{id}/deactivate", h.Deactivate)
	mux.HandleFunc("DELETE /api/clients/{id}", h.Delete)
}

// List handles GET /api/clients
func (h *ClientsHandler) List(w http.ResponseWriter, r *http.Request) {
	clients, err := h.clients.List(r.Context())
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	if clients == nil {
		clients = []domain.Client{}
	}
	middleware.WriteJSON(w, http.StatusOK, clients)
}

// Get handles GET /api/clients/{id}
func (h *ClientsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	c, err := h.clients.Get(r.Context(), id)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, c)
}

// Create handles POST /api/clients
func (h *ClientsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateClientRequest
	if !decodeBody(w, r, &req) {
		return
	}
	c, err := h.clients.Create(r.Context(), req)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	h.log.Info().Str("full_name", c.Person.FullName).Msg("Client created")
	middleware.WriteJSON(w, http.StatusCreated, c)
}

// Update handles PUT /api/clients/{id}
func (h *ClientsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var c domain.Client
	if !decodeBody(w, r, &c) {
		return
	}
	updated, err := h.clients.Update(r.Context(), id, c)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, updated)
}

// Activate handles PATCH /api/clients/{id}/activate
func (h *ClientsHandler) Activate(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, h.clients.Activate)
}

// Deactivate handles PATCH /api/clients/{id}/deactivate
func (h *ClientsHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, h.clients.Deactivate)
}

func (h *ClientsHandler) setStatus(w http.ResponseWriter, r *http.Request, op func(context.Context, int64) (*domain.Client, error)) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	c, err := op(r.Context(), id)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, c)
}

// Delete handles DELETE /api/clients/{id}
func (h *ClientsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.clients.Delete(r.Context(), id); err != nil {
		writeFailure(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
