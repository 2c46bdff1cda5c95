package httpapi

import (
	"context"
	"net/http"
	"net/url"

	"github.com/dvloznov/bank-backoffice/internal/domain"
	"github.com/dvloznov/bank-backoffice/internal/gateway"
)

// ClientService talks to the client service, e.g. http://localhost:8001/api/v1/client.
type ClientService struct {
	rest restClient
}

// NewClientService creates a client-service gateway rooted at baseURL.
func NewClientService(baseURL string, opts ...Option) *ClientService {
	return &ClientService{rest: newRESTClient(baseURL, opts...)}
}

func (s *ClientService) GetAll(ctx context.Context) ([]domain.Client, error) {
	var out []domain.Client
	if err := s.rest.do(ctx, "ClientService.GetAll", http.MethodGet, "", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *ClientService) GetByID(ctx context.Context, id int64) (*domain.Client, error) {
	var out domain.Client
	if err := s.rest.do(ctx, "ClientService.GetByID", http.MethodGet, idPath(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *ClientService) CreateBasic(ctx context.Context, req domain.CreateClientRequest) (*domain.Client, error) {
	var out domain.Client
	if err := s.rest.do(ctx, "ClientService.CreateBasic", http.MethodPost, "/basic", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *ClientService) Update(ctx context.Context, id int64, c domain.Client) (*domain.Client, error) {
	var out domain.Client
	if err := s.rest.do(ctx, "ClientService.Update", http.MethodPut, idPath(id), nil, c, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *ClientService) Activate(ctx context.Context, id int64) (*domain.Client, error) {
	var out domain.Client
	if err := s.rest.do(ctx, "ClientService.Activate", http.MethodPatch, idPath(id, "/activate"), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *ClientService) Deactivate(ctx context.Context, id int64) (*domain.Client, error) {
	var out domain.Client
	if err := s.rest.do(ctx, "ClientService.Deactivate", http.MethodPatch, idPath(id, "/deactivate"), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *ClientService) Delete(ctx context.Context, id int64) error {
	return s.rest.do(ctx, "ClientService.Delete", http.MethodDelete, idPath(id), nil, nil, nil)
}

// AccountService talks to the account service, e.g. http://localhost:8002/account.
type AccountService struct {
	rest restClient
}

// NewAccountService creates an account-service gateway rooted at baseURL.
func NewAccountService(baseURL string, opts ...Option) *AccountService {
	return &AccountService{rest: newRESTClient(baseURL, opts...)}
}

func (s *AccountService) GetAll(ctx context.Context) ([]domain.Account, error) {
	var out []domain.Account
	if err := s.rest.do(ctx, "AccountService.GetAll", http.MethodGet, "", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *AccountService) GetByID(ctx context.Context, id int64) (*domain.Account, error) {
	var out domain.Account
	if err := s.rest.do(ctx, "AccountService.GetByID", http.MethodGet, idPath(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *AccountService) CreateWithClient(ctx context.Context, req domain.CreateAccountRequest) (*domain.Account, error) {
	var out domain.Account
	if err := s.rest.do(ctx, "AccountService.CreateWithClient", http.MethodPost, "/with-client", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *AccountService) Update(ctx context.Context, id int64, a domain.Account) (*domain.Account, error) {
	var out domain.Account
	if err := s.rest.do(ctx, "AccountService.Update", http.MethodPut, idPath(id), nil, a, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *AccountService) Delete(ctx context.Context, id int64) error {
	return s.rest.do(ctx, "AccountService.Delete", http.MethodDelete, idPath(id), nil, nil, nil)
}

// TransactionService talks to the transaction service, e.g. http://localhost:8003/transaction.
type TransactionService struct {
	rest restClient
}

// NewTransactionService creates a transaction-service gateway rooted at baseURL.
func NewTransactionService(baseURL string, opts ...Option) *TransactionService {
	return &TransactionService{rest: newRESTClient(baseURL, opts...)}
}

func (s *TransactionService) GetAll(ctx context.Context) ([]domain.Transaction, error) {
	var out []domain.Transaction
	if err := s.rest.do(ctx, "TransactionService.GetAll", http.MethodGet, "", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *TransactionService) GetByID(ctx context.Context, id int64) (*domain.Transaction, error) {
	var out domain.Transaction
	if err := s.rest.do(ctx, "TransactionService.GetByID", http.MethodGet, idPath(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *TransactionService) Create(ctx context.Context, t domain.Transaction) (*domain.Transaction, error) {
	var out domain.Transaction
	if err := s.rest.do(ctx, "TransactionService.Create", http.MethodPost, "", nil, t, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *TransactionService) Update(ctx context.Context, id int64, t domain.Transaction) (*domain.Transaction, error) {
	var out domain.Transaction
	if err := s.rest.do(ctx, "TransactionService.Update", http.MethodPut, idPath(id), nil, t, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *TransactionService) Delete(ctx context.Context, id int64) error {
	return s.rest.do(ctx, "TransactionService.Delete", http.MethodDelete, idPath(id), nil, nil, nil)
}

func (s *TransactionService) GetReport(ctx context.Context, date string) ([]domain.ReportRow, error) {
	var out []domain.ReportRow
	q := url.Values{"date": {date}}
	if err := s.rest.do(ctx, "TransactionService.GetReport", http.MethodGet, "/report", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *TransactionService) GetStatement(ctx context.Context, startDate, endDate, clientName string) (*domain.StatementResponse, error) {
	var out domain.StatementResponse
	q := url.Values{
		"startDate":  {startDate},
		"endDate":    {endDate},
		"clientName": {clientName},
	}
	if err := s.rest.do(ctx, "TransactionService.GetStatement", http.MethodGet, "/reports-report", q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *TransactionService) Health(ctx context.Context) error {
	return s.rest.do(ctx, "TransactionService.Health", http.MethodGet, "/health", nil, nil, nil)
}

var (
	_ gateway.ClientGateway      = (*ClientService)(nil)
	_ gateway.AccountGateway     = (*AccountService)(nil)
	_ gateway.TransactionGateway = (*TransactionService)(nil)
)
