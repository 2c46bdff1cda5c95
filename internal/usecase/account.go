package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dvloznov/bank-backoffice/internal/domain"
	"github.com/dvloznov/bank-backoffice/internal/gateway"
	"github.com/dvloznov/bank-backoffice/internal/logger"
	"github.com/dvloznov/bank-backoffice/internal/validation"
)

var (
	// ErrClientLookupUnavailable is returned by ResolveClient when no client
	// gateway was configured.
	ErrClientLookupUnavailable = errors.New("client lookup is not configured")

	// ErrClientNotFound is returned by FindByName when no client has the name.
	ErrClientNotFound = errors.New("client not found")
)

// AccountUseCases manages accounts. The client gateway is optional and only
// used by the lookup variants.
type AccountUseCases struct {
	gw      gateway.AccountGateway
	clients gateway.ClientGateway
}

// NewAccountUseCases creates account use cases. clients may be nil.
func NewAccountUseCases(gw gateway.AccountGateway, clients gateway.ClientGateway) *AccountUseCases {
	return &AccountUseCases{gw: gw, clients: clients}
}

// List returns every account.
func (u *AccountUseCases) List(ctx context.Context) ([]domain.Account, error) {
	accounts, err := u.gw.GetAll(ctx)
	return accounts, u.fail(ctx, "list", err)
}

// Get returns one account.
func (u *AccountUseCases) Get(ctx context.Context, id int64) (*domain.Account, error) {
	if err := validation.ValidateID(id); err != nil {
		return nil, err
	}
	a, err := u.gw.GetByID(ctx, id)
	return a, u.fail(ctx, "get", err)
}

// Create opens an account for the client named in req. The name is passed
// through as written; the account service decides whether it matches a client.
func (u *AccountUseCases) Create(ctx context.Context, req domain.CreateAccountRequest) (*domain.Account, error) {
	req.AccountNumber = strings.TrimSpace(req.AccountNumber)
	req.ClientName = strings.TrimSpace(req.ClientName)
	if err := validation.ValidateAccountCreate(req); err != nil {
		return nil, err
	}

	log := logger.FromContext(ctx)
	log.Debug().
		Str("account_number", req.AccountNumber).
		Str("client_name", req.ClientName).
		Msg("Creating account")

	a, err := u.gw.CreateWithClient(ctx, req)
	return a, u.fail(ctx, "create", err)
}

// CreateWithClientLookup resolves req.ClientName against the client service
// first and fails with a validation error when no client matches. On success
// the service receives the client's registered spelling of the name.
func (u *AccountUseCases) CreateWithClientLookup(ctx context.Context, req domain.CreateAccountRequest) (*domain.Account, error) {
	if err := validation.ValidateAccountCreate(req); err != nil {
		return nil, err
	}
	ref, err := u.ResolveClient(ctx, req.ClientName)
	if err != nil {
		return nil, err
	}
	req.ClientName = ref.DisplayName

	a, err := u.Create(ctx, req)
	if err == nil && a != nil && a.ClientID == nil {
		a.ClientID = &ref.ID
	}
	return a, err
}

// ResolveClient turns a free-text client name into a typed reference.
func (u *AccountUseCases) ResolveClient(ctx context.Context, name string) (*domain.ClientRef, error) {
	if u.clients == nil {
		return nil, ErrClientLookupUnavailable
	}
	c, err := NewClientUseCases(u.clients).FindByName(ctx, name)
	if err != nil && !errors.Is(err, ErrClientNotFound) {
		return nil, err
	}
	if c == nil || c.ID == nil {
		return nil, validation.Violations{{
			Field:   "clientName",
			Message: fmt.Sprintf("No existe ese cliente: %s", strings.TrimSpace(name)),
		}}.Err()
	}
	return &domain.ClientRef{ID: *c.ID, DisplayName: c.Person.FullName}, nil
}

// Update edits an account. The owning client is not changed.
func (u *AccountUseCases) Update(ctx context.Context, id int64, a domain.Account) (*domain.Account, error) {
	if err := validation.ValidateID(id); err != nil {
		return nil, err
	}
	a.AccountNumber = strings.TrimSpace(a.AccountNumber)
	if err := validation.ValidateAccountUpdate(a); err != nil {
		return nil, err
	}
	updated, err := u.gw.Update(ctx, id, a)
	return updated, u.fail(ctx, "update", err)
}

// Delete removes an account.
func (u *AccountUseCases) Delete(ctx context.Context, id int64) error {
	if err := validation.ValidateID(id); err != nil {
		return err
	}
	return u.fail(ctx, "delete", u.gw.Delete(ctx, id))
}

func (u *AccountUseCases) fail(ctx context.Context, op string, err error) error {
	return logFailure(ctx, Wrap(EntityAccount, op, err))
}
