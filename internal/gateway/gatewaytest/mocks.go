// Package gatewaytest provides hand-written gateway mocks for tests. Each
// method delegates to its Func field when set and returns a zero value otherwise.
package gatewaytest

import (
	"context"

	"github.com/dvloznov/bank-backoffice/internal/domain"
	"github.com/dvloznov/bank-backoffice/internal/gateway"
)

// MockClientGateway is a mock implementation of gateway.ClientGateway.
type MockClientGateway struct {
	GetAllFunc      func(ctx context.Context) ([]domain.Client, error)
	GetByIDFunc     func(ctx context.Context, id int64) (*domain.Client, error)
	CreateBasicFunc func(ctx context.Context, req domain.CreateClientRequest) (*domain.Client, error)
	UpdateFunc      func(ctx context.Context, id int64, c domain.Client) (*domain.Client, error)
	ActivateFunc    func(ctx context.Context, id int64) (*domain.Client, error)
	DeactivateFunc  func(ctx context.Context, id int64) (*domain.Client, error)
	DeleteFunc      func(ctx context.Context, id int64) error

	Calls int
}

func (m *MockClientGateway) GetAll(ctx context.Context) ([]domain.Client, error) {
	m.Calls++
	if m.GetAllFunc != nil {
		return m.GetAllFunc(ctx)
	}
	return nil, nil
}

func (m *MockClientGateway) GetByID(ctx context.Context, id int64) (*domain.Client, error) {
	m.Calls++
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return &domain.Client{ID: &id}, nil
}

func (m *MockClientGateway) CreateBasic(ctx context.Context, req domain.CreateClientRequest) (*domain.Client, error) {
	m.Calls++
	if m.CreateBasicFunc != nil {
		return m.CreateBasicFunc(ctx, req)
	}
	return &domain.Client{Person: domain.Person{FullName: req.FullName, Address: req.Address, Phone: req.Phone}, Status: req.Status}, nil
}

func (m *MockClientGateway) Update(ctx context.Context, id int64, c domain.Client) (*domain.Client, error) {
	m.Calls++
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, c)
	}
	c.ID = &id
	return &c, nil
}

func (m *MockClientGateway) Activate(ctx context.Context, id int64) (*domain.Client, error) {
	m.Calls++
	if m.ActivateFunc != nil {
		return m.ActivateFunc(ctx, id)
	}
	return &domain.Client{ID: &id, Status: true}, nil
}

func (m *MockClientGateway) Deactivate(ctx context.Context, id int64) (*domain.Client, error) {
	m.Calls++
	if m.DeactivateFunc != nil {
		return m.DeactivateFunc(ctx, id)
	}
	return &domain.Client{ID: &id, Status: false}, nil
}

func (m *MockClientGateway) Delete(ctx context.Context, id int64) error {
	m.Calls++
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

// MockAccountGateway is a mock implementation of gateway.AccountGateway.
type MockAccountGateway struct {
	GetAllFunc           func(ctx context.Context) ([]domain.Account, error)
	GetByIDFunc          func(ctx context.Context, id int64) (*domain.Account, error)
	CreateWithClientFunc func(ctx context.Context, req domain.CreateAccountRequest) (*domain.Account, error)
	UpdateFunc           func(ctx context.Context, id int64, a domain.Account) (*domain.Account, error)
	DeleteFunc           func(ctx context.Context, id int64) error

	Calls int
}

func (m *MockAccountGateway) GetAll(ctx context.Context) ([]domain.Account, error) {
	m.Calls++
	if m.GetAllFunc != nil {
		return m.GetAllFunc(ctx)
	}
	return nil, nil
}

func (m *MockAccountGateway) GetByID(ctx context.Context, id int64) (*domain.Account, error) {
	m.Calls++
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return &domain.Account{ID: &id}, nil
}

func (m *MockAccountGateway) CreateWithClient(ctx context.Context, req domain.CreateAccountRequest) (*domain.Account, error) {
	m.Calls++
	if m.CreateWithClientFunc != nil {
		return m.CreateWithClientFunc(ctx, req)
	}
	return &domain.Account{
		AccountNumber:  req.AccountNumber,
		AccountType:    req.AccountType,
		InitialBalance: req.InitialBalance,
		Status:         req.Status,
		ClientName:     req.ClientName,
	}, nil
}

func (m *MockAccountGateway) Update(ctx context.Context, id int64, a domain.Account) (*domain.Account, error) {
	m.Calls++
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, a)
	}
	a.ID = &id
	return &a, nil
}

func (m *MockAccountGateway) Delete(ctx context.Context, id int64) error {
	m.Calls++
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

// MockTransactionGateway is a mock implementation of gateway.TransactionGateway.
type MockTransactionGateway struct {
	GetAllFunc       func(ctx context.Context) ([]domain.Transaction, error)
	GetByIDFunc      func(ctx context.Context, id int64) (*domain.Transaction, error)
	CreateFunc       func(ctx context.Context, t domain.Transaction) (*domain.Transaction, error)
	UpdateFunc       func(ctx context.Context, id int64, t domain.Transaction) (*domain.Transaction, error)
	DeleteFunc       func(ctx context.Context, id int64) error
	GetReportFunc    func(ctx context.Context, date string) ([]domain.ReportRow, error)
	GetStatementFunc func(ctx context.Context, startDate, endDate, clientName string) (*domain.StatementResponse, error)
	HealthFunc       func(ctx context.Context) error

	Calls int
}

func (m *MockTransactionGateway) GetAll(ctx context.Context) ([]domain.Transaction, error) {
	m.Calls++
	if m.GetAllFunc != nil {
		return m.GetAllFunc(ctx)
	}
	return nil, nil
}

func (m *MockTransactionGateway) GetByID(ctx context.Context, id int64) (*domain.Transaction, error) {
	m.Calls++
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return &domain.Transaction{ID: &id}, nil
}

func (m *MockTransactionGateway) Create(ctx context.Context, t domain.Transaction) (*domain.Transaction, error) {
	m.Calls++
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, t)
	}
	return &t, nil
}

func (m *MockTransactionGateway) Update(ctx context.Context, id int64, t domain.Transaction) (*domain.Transaction, error) {
	m.Calls++
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, t)
	}
	t.ID = &id
	return &t, nil
}

func (m *MockTransactionGateway) Delete(ctx context.Context, id int64) error {
	m.Calls++
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *MockTransactionGateway) GetReport(ctx context.Context, date string) ([]domain.ReportRow, error) {
	m.Calls++
	if m.GetReportFunc != nil {
		return m.GetReportFunc(ctx, date)
	}
	return nil, nil
}

func (m *MockTransactionGateway) GetStatement(ctx context.Context, startDate, endDate, clientName string) (*domain.StatementResponse, error) {
	m.Calls++
	if m.GetStatementFunc != nil {
		return m.GetStatementFunc(ctx, startDate, endDate, clientName)
	}
	return &domain.StatementResponse{}, nil
}

func (m *MockTransactionGateway) Health(ctx context.Context) error {
	m.Calls++
	if m.HealthFunc != nil {
		return m.HealthFunc(ctx)
	}
	return nil
}

var (
	_ gateway.ClientGateway      = (*MockClientGateway)(nil)
	_ gateway.AccountGateway     = (*MockAccountGateway)(nil)
	_ gateway.TransactionGateway = (*MockTransactionGateway)(nil)
)
