// Package usecase runs the back-office operations: validate input, call the
// owning service, hand back its answer or a wrapped failure. Nothing here is
// retried and no operation spans more than one entity unless asked to.
package usecase

import (
	"context"
	"strings"

	"github.com/dvloznov/bank-backoffice/internal/domain"
	"github.com/dvloznov/bank-backoffice/internal/gateway"
	"github.com/dvloznov/bank-backoffice/internal/logger"
	"github.com/dvloznov/bank-backoffice/internal/validation"
)

// ClientUseCases manages clients.
type ClientUseCases struct {
	gw gateway.ClientGateway
}

// NewClientUseCases creates client use cases over gw.
func NewClientUseCases(gw gateway.ClientGateway) *ClientUseCases {
	return &ClientUseCases{gw: gw}
}

// List returns every client.
func (u *ClientUseCases) List(ctx context.Context) ([]domain.Client, error) {
	clients, err := u.gw.GetAll(ctx)
	return clients, u.fail(ctx, "list", err)
}

// Get returns one client.
func (u *ClientUseCases) Get(ctx context.Context, id int64) (*domain.Client, error) {
	if err := validation.ValidateID(id); err != nil {
		return nil, err
	}
	c, err := u.gw.GetByID(ctx, id)
	return c, u.fail(ctx, "get", err)
}

// Create registers a client with the basic fields.
func (u *ClientUseCases) Create(ctx context.Context, req domain.CreateClientRequest) (*domain.Client, error) {
	req.FullName = strings.TrimSpace(req.FullName)
	req.Address = strings.TrimSpace(req.Address)
	req.Phone = strings.TrimSpace(req.Phone)
	if err := validation.ValidateClientCreate(req); err != nil {
		return nil, err
	}

	log := logger.FromContext(ctx)
	log.Debug().Str("full_name", req.FullName).Msg("Creating client")

	c, err := u.gw.CreateBasic(ctx, req)
	return c, u.fail(ctx, "create", err)
}

// Update replaces a client's data.
func (u *ClientUseCases) Update(ctx context.Context, id int64, c domain.Client) (*domain.Client, error) {
	if err := validation.ValidateID(id); err != nil {
		return nil, err
	}
	c.Person.FullName = strings.TrimSpace(c.Person.FullName)
	c.Person.Address = strings.TrimSpace(c.Person.Address)
	c.Person.Phone = strings.TrimSpace(c.Person.Phone)
	if err := validation.ValidateClientUpdate(c); err != nil {
		return nil, err
	}
	updated, err := u.gw.Update(ctx, id, c)
	return updated, u.fail(ctx, "update", err)
}

// Activate marks a client active. Activating an active client is a no-op
// on the service side.
func (u *ClientUseCases) Activate(ctx context.Context, id int64) (*domain.Client, error) {
	if err := validation.ValidateID(id); err != nil {
		return nil, err
	}
	c, err := u.gw.Activate(ctx, id)
	return c, u.fail(ctx, "activate", err)
}

// Deactivate marks a client inactive.
func (u *ClientUseCases) Deactivate(ctx context.Context, id int64) (*domain.Client, error) {
	if err := validation.ValidateID(id); err != nil {
		return nil, err
	}
	c, err := u.gw.Deactivate(ctx, id)
	return c, u.fail(ctx, "deactivate", err)
}

// Delete removes a client.
func (u *ClientUseCases) Delete(ctx context.Context, id int64) error {
	if err := validation.ValidateID(id); err != nil {
		return err
	}
	return u.fail(ctx, "delete", u.gw.Delete(ctx, id))
}

// FindByName returns the first client whose full name matches name, ignoring
// case and surrounding spaces. It returns ErrClientNotFound when none matches.
func (u *ClientUseCases) FindByName(ctx context.Context, name string) (*domain.Client, error) {
	clients, err := u.gw.GetAll(ctx)
	if err != nil {
		return nil, u.fail(ctx, "find", err)
	}
	want := strings.TrimSpace(name)
	for i := range clients {
		if strings.EqualFold(strings.TrimSpace(clients[i].Person.FullName), want) {
			return &clients[i], nil
		}
	}
	return nil, ErrClientNotFound
}

func (u *ClientUseCases) fail(ctx context.Context, op string, err error) error {
	return logFailure(ctx, Wrap(EntityClient, op, err))
}

func logFailure(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	log := logger.FromContext(ctx)
	if oerr, ok := err.(*OperationError); ok {
		log.Warn().
			Err(oerr.Err).
			Str("entity", string(oerr.Entity)).
			Str("op", oerr.Op).
			Int("status", oerr.StatusCode()).
			Msg(oerr.Message)
	}
	return err
}
