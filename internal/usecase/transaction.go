package usecase

import (
	"context"
	"strings"

	"github.com/dvloznov/bank-backoffice/internal/domain"
	"github.com/dvloznov/bank-backoffice/internal/gateway"
	"github.com/dvloznov/bank-backoffice/internal/logger"
	"github.com/dvloznov/bank-backoffice/internal/validation"
)

// TransactionUseCases records deposits and withdrawals.
type TransactionUseCases struct {
	gw gateway.TransactionGateway
}

// NewTransactionUseCases creates transaction use cases over gw.
func NewTransactionUseCases(gw gateway.TransactionGateway) *TransactionUseCases {
	return &TransactionUseCases{gw: gw}
}

// List returns every movement.
func (u *TransactionUseCases) List(ctx context.Context) ([]domain.Transaction, error) {
	txs, err := u.gw.GetAll(ctx)
	return txs, u.fail(ctx, "list", err)
}

// Get returns one movement.
func (u *TransactionUseCases) Get(ctx context.Context, id int64) (*domain.Transaction, error) {
	if err := validation.ValidateID(id); err != nil {
		return nil, err
	}
	tx, err := u.gw.GetByID(ctx, id)
	return tx, u.fail(ctx, "get", err)
}

// Create submits a movement. Balance and date come back from the service.
func (u *TransactionUseCases) Create(ctx context.Context, t domain.Transaction) (*domain.Transaction, error) {
	t.AccountNumber = strings.TrimSpace(t.AccountNumber)
	if err := validation.ValidateTransaction(t); err != nil {
		return nil, err
	}

	log := logger.FromContext(ctx)
	log.Debug().
		Str("account_number", t.AccountNumber).
		Str("type", string(t.TransactionType)).
		Str("amount", t.Amount.String()).
		Msg("Creating transaction")

	created, err := u.gw.Create(ctx, t)
	return created, u.fail(ctx, "create", err)
}

// Update changes a movement's type and amount; the service recomputes the
// balance.
func (u *TransactionUseCases) Update(ctx context.Context, id int64, t domain.Transaction) (*domain.Transaction, error) {
	if err := validation.ValidateID(id); err != nil {
		return nil, err
	}
	t.AccountNumber = strings.TrimSpace(t.AccountNumber)
	if err := validation.ValidateTransaction(t); err != nil {
		return nil, err
	}
	updated, err := u.gw.Update(ctx, id, t)
	return updated, u.fail(ctx, "update", err)
}

// Delete removes a movement.
func (u *TransactionUseCases) Delete(ctx context.Context, id int64) error {
	if err := validation.ValidateID(id); err != nil {
		return err
	}
	return u.fail(ctx, "delete", u.gw.Delete(ctx, id))
}

func (u *TransactionUseCases) fail(ctx context.Context, op string, err error) error {
	return logFailure(ctx, Wrap(EntityTransaction, op, err))
}
