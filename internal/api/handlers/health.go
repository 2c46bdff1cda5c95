package handlers

import (
	"context"
	"net/http"

	"github.com/dvloznov/bank-backoffice/internal/api/middleware"
	"github.com/rs/zerolog"
)

// Pinger probes a downstream service.
type Pinger interface {
	Health(ctx context.Context) error
}

// HealthHandler reports whether the transaction service answers.
type HealthHandler struct {
	transactions Pinger
	log          zerolog.Logger
}

func NewHealthHandler(transactions Pinger, log zerolog.Logger) *HealthHandler {
	return &HealthHandler{transactions: transactions, log: log}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	status, code := "healthy", http.StatusOK
	service := "up"
	if err := h.transactions.Health(r.Context()); err != nil {
		h.log.Warn().Err(err).Msg("Transaction service health check failed")
		status, code, service = "degraded", http.StatusServiceUnavailable, "down"
	}
	middleware.WriteJSON(w, code, map[string]any{
		"status":   status,
		"services": map[string]string{"transaction": service},
	})
}
