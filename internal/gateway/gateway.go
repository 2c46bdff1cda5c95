// Package gateway defines how the back-office reaches the client, account and
// transaction services. Implementations translate failures into
// TransportError or ServiceError and never retry.
package gateway

import (
	"context"

	"github.com/dvloznov/bank-backoffice/internal/domain"
)

// ClientGateway persists clients.
type ClientGateway interface {
	GetAll(ctx context.Context) ([]domain.Client, error)
	GetByID(ctx context.Context, id int64) (*domain.Client, error)
	CreateBasic(ctx context.Context, req domain.CreateClientRequest) (*domain.Client, error)
	Update(ctx context.Context, id int64, c domain.Client) (*domain.Client, error)
	Activate(ctx context.Context, id int64) (*domain.Client, error)
	Deactivate(ctx context.Context, id int64) (*domain.Client, error)
	Delete(ctx context.Context, id int64) error
}

// AccountGateway persists accounts.
type AccountGateway interface {
	GetAll(ctx context.Context) ([]domain.Account, error)
	GetByID(ctx context.Context, id int64) (*domain.Account, error)
	CreateWithClient(ctx context.Context, req domain.CreateAccountRequest) (*domain.Account, error)
	Update(ctx context.Context, id int64, a domain.Account) (*domain.Account, error)
	Delete(ctx context.Context, id int64) error
}

// TransactionGateway persists movements and produces reports.
type TransactionGateway interface {
	GetAll(ctx context.Context) ([]domain.Transaction, error)
	GetByID(ctx context.Context, id int64) (*domain.Transaction, error)
	Create(ctx context.Context, t domain.Transaction) (*domain.Transaction, error)
	Update(ctx context.Context, id int64, t domain.Transaction) (*domain.Transaction, error)
	Delete(ctx context.Context, id int64) error

	// GetReport lists movements for one day; date is DD/MM/YYYY.
	GetReport(ctx context.Context, date string) ([]domain.ReportRow, error)

	// GetStatement lists a client's movements between two ISO dates,
	// inclusive, with an optional base64 PDF rendering.
	GetStatement(ctx context.Context, startDate, endDate, clientName string) (*domain.StatementResponse, error)

	// Health probes the transaction service.
	Health(ctx context.Context) error
}
