package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dvloznov/bank-backoffice/internal/domain"
	"github.com/dvloznov/bank-backoffice/internal/gateway"
	"github.com/shopspring/decimal"
)

type recordedRequest struct {
	method string
	path   string
	query  string
	body   string
}

// newTestServer answers every request with status and body, recording what it got.
func newTestServer(t *testing.T, status int, body string) (*httptest.Server, *recordedRequest) {
	t.Helper()
	rec := &recordedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		rec.method = r.Method
		rec.path = r.URL.Path
		rec.query = r.URL.RawQuery
		rec.body = string(raw)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

func TestClientService_Routes(t *testing.T) {
	ctx := context.Background()
	clientJSON := `{"id":7,"person":{"fullName":"Jose Lema","address":"Otavalo sn y principal","phone":"+593-98-254-7850"},"status":true}`

	tests := []struct {
		name       string
		call       func(s *ClientService) error
		wantMethod string
		wantPath   string
	}{
		{
			name:       "get all",
			call:       func(s *ClientService) error { _, err := s.GetAll(ctx); return err },
			wantMethod: http.MethodGet,
			wantPath:   "/api/v1/client",
		},
		{
			name:       "get by id",
			call:       func(s *ClientService) error { _, err := s.GetByID(ctx, 7); return err },
			wantMethod: http.MethodGet,
			wantPath:   "/api/v1/client/7",
		},
		{
			name: "create basic",
			call: func(s *ClientService) error {
				_, err := s.CreateBasic(ctx, domain.CreateClientRequest{FullName: "Jose Lema"})
				return err
			},
			wantMethod: http.MethodPost,
			wantPath:   "/api/v1/client/basic",
		},
		{
			name:       "update",
			call:       func(s *ClientService) error { _, err := s.Update(ctx, 7, domain.Client{}); return err },
			wantMethod: http.MethodPut,
			wantPath:   "/api/v1/client/7",
		},
		{
			name:       "activate",
			call:       func(s *ClientService) error { _, err := s.Activate(ctx, 7); return err },
			wantMethod: http.MethodPatch,
			wantPath:   "/api/v1/client/7/activate",
		},
		{
			name:       "deactivate",
			call:       func(s *ClientService) error { _, err := s.Deactivate(ctx, 7); return err },
			wantMethod: http.MethodPatch,
			wantPath:   "/api/v1/client/7/deactivate",
		},
		{
			name:       "delete",
			call:       func(s *ClientService) error { return s.Delete(ctx, 7) },
			wantMethod: http.MethodDelete,
			wantPath:   "/api/v1/client/7",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := clientJSON
			if tt.name == "get all" {
				body = "[" + clientJSON + "]"
			}
			srv, rec := newTestServer(t, http.StatusOK, body)
			svc := NewClientService(srv.URL + "/api/v1/client/")

			if err := tt.call(svc); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rec.method != tt.wantMethod || rec.path != tt.wantPath {
				t.Errorf("got %s %s, want %s %s", rec.method, rec.path, tt.wantMethod, tt.wantPath)
			}
		})
	}
}

func TestClientService_CreateBasicSendsPayload(t *testing.T) {
	srv, rec := newTestServer(t, http.StatusCreated, `{"id":1,"person":{"fullName":"Jose Lema"},"status":true}`)
	svc := NewClientService(srv.URL)

	got, err := svc.CreateBasic(context.Background(), domain.CreateClientRequest{
		FullName: "Jose Lema",
		Address:  "Otavalo sn y principal",
		Phone:    "+593-98-254-7850",
		Password: "1234abcd",
		Status:   true,
	})
	if err != nil {
		t.Fatalf("CreateBasic failed: %v", err)
	}
	if got.ID == nil || *got.ID != 1 {
		t.Errorf("id = %v", got.ID)
	}

	var sent map[string]any
	if err := json.Unmarshal([]byte(rec.body), &sent); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if sent["fullName"] != "Jose Lema" || sent["password"] != "1234abcd" || sent["status"] != true {
		t.Errorf("unexpected payload %v", sent)
	}
}

func TestAccountService_CreateWithClient(t *testing.T) {
	srv, rec := newTestServer(t, http.StatusCreated,
		`{"id":3,"accountNumber":"478758","accountType":"Ahorro","initialBalance":2000,"status":true,"clientName":"Jose Lema"}`)
	svc := NewAccountService(srv.URL + "/account")

	acc, err := svc.CreateWithClient(context.Background(), domain.CreateAccountRequest{
		AccountNumber:  "478758",
		AccountType:    domain.AccountSavings,
		InitialBalance: decimal.NewFromInt(2000),
		Status:         true,
		ClientName:     "Jose Lema",
	})
	if err != nil {
		t.Fatalf("CreateWithClient failed: %v", err)
	}
	if rec.method != http.MethodPost || rec.path != "/account/with-client" {
		t.Errorf("got %s %s", rec.method, rec.path)
	}
	if acc.ID == nil || *acc.ID != 3 || !acc.InitialBalance.Equal(decimal.NewFromInt(2000)) {
		t.Errorf("unexpected account %+v", acc)
	}
}

func TestTransactionService_Reports(t *testing.T) {
	t.Run("report by date", func(t *testing.T) {
		srv, rec := newTestServer(t, http.StatusOK,
			`[{"fecha":"10/02/2022","cliente":"Marianela Montalvo","numeroCuenta":"225487","tipo":"Corriente","saldoInicial":100,"estado":true,"movimiento":600,"saldoDisponible":700}]`)
		svc := NewTransactionService(srv.URL + "/transaction")

		rows, err := svc.GetReport(context.Background(), "10/02/2022")
		if err != nil {
			t.Fatalf("GetReport failed: %v", err)
		}
		if rec.path != "/transaction/report" || rec.query != "date=10%2F02%2F2022" {
			t.Errorf("got %s?%s", rec.path, rec.query)
		}
		if len(rows) != 1 || rows[0].NumeroCuenta != "225487" {
			t.Errorf("unexpected rows %+v", rows)
		}
	})

	t.Run("statement", func(t *testing.T) {
		srv, rec := newTestServer(t, http.StatusOK, `{"reportData":[],"pdfBase64":"JVBERi0="}`)
		svc := NewTransactionService(srv.URL + "/transaction")

		resp, err := svc.GetStatement(context.Background(), "2024-01-01", "2024-01-31", "Jose Lema")
		if err != nil {
			t.Fatalf("GetStatement failed: %v", err)
		}
		if rec.path != "/transaction/reports-report" {
			t.Errorf("path = %s", rec.path)
		}
		if rec.query != "clientName=Jose+Lema&endDate=2024-01-31&startDate=2024-01-01" {
			t.Errorf("query = %s", rec.query)
		}
		if resp.PDFBase64 != "JVBERi0=" {
			t.Errorf("pdfBase64 = %q", resp.PDFBase64)
		}
	})
}

func TestTransactionService_CreateDecodesServiceFields(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusOK,
		`{"id":9,"accountNumber":"478758","transactionType":"Retiro","amount":575,"balance":1425,"transactionDate":"2024-03-15T10:30:00"}`)
	svc := NewTransactionService(srv.URL)

	tx, err := svc.Create(context.Background(), domain.Transaction{
		AccountNumber:   "478758",
		TransactionType: domain.TransactionWithdrawal,
		Amount:          decimal.NewFromInt(575),
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if tx.Balance == nil || !tx.Balance.Equal(decimal.NewFromInt(1425)) {
		t.Errorf("balance = %v", tx.Balance)
	}
	if tx.Date == nil || tx.Date.Day() != 15 {
		t.Errorf("date = %v", tx.Date)
	}
}

func TestServiceErrors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantSent   error
		wantDetail string
	}{
		{name: "not found", status: 404, body: `{"status":404,"error":"Not Found","message":"Cliente no encontrado con ID: 9"}`, wantSent: gateway.ErrNotFound, wantDetail: "Cliente no encontrado con ID: 9"},
		{name: "conflict", status: 409, body: `{"message":"Cuenta ya existe con número: 478758"}`, wantSent: gateway.ErrConflict, wantDetail: "Cuenta ya existe con número: 478758"},
		{name: "bad request plain text", status: 400, body: "La cuenta está desactivada", wantSent: gateway.ErrBadRequest, wantDetail: "La cuenta está desactivada"},
		{name: "server error", status: 500, body: `{"error":"Internal Server Error"}`, wantSent: gateway.ErrServer, wantDetail: "Internal Server Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t, tt.status, tt.body)
			svc := NewAccountService(srv.URL)

			_, err := svc.GetByID(context.Background(), 9)
			var se *gateway.ServiceError
			if !errors.As(err, &se) {
				t.Fatalf("expected *ServiceError, got %v", err)
			}
			if se.StatusCode != tt.status || se.Detail != tt.wantDetail {
				t.Errorf("got status %d detail %q", se.StatusCode, se.Detail)
			}
			if !errors.Is(err, tt.wantSent) {
				t.Errorf("expected errors.Is(%v)", tt.wantSent)
			}
		})
	}
}

func TestTransportErrors(t *testing.T) {
	t.Run("connection refused", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		_, err := NewClientService(url).GetAll(context.Background())
		if !gateway.IsTransport(err) {
			t.Fatalf("expected transport error, got %v", err)
		}
	})

	t.Run("timeout", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-time.After(time.Second):
			case <-r.Context().Done():
			}
		}))
		defer srv.Close()

		_, err := NewClientService(srv.URL, WithTimeout(20*time.Millisecond)).GetAll(context.Background())
		if !gateway.IsTransport(err) {
			t.Fatalf("expected transport error, got %v", err)
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		srv, _ := newTestServer(t, http.StatusOK, `{"id":`)
		_, err := NewClientService(srv.URL).GetByID(context.Background(), 1)
		if !gateway.IsTransport(err) {
			t.Fatalf("expected transport error, got %v", err)
		}
	})
}

func TestDeleteAcceptsEmptyBody(t *testing.T) {
	srv, rec := newTestServer(t, http.StatusNoContent, "")
	if err := NewTransactionService(srv.URL).Delete(context.Background(), 4); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if rec.method != http.MethodDelete || rec.path != "/4" {
		t.Errorf("got %s %s", rec.method, rec.path)
	}
}

func TestClientOptions(t *testing.T) {
	shared := &http.Client{Timeout: time.Minute}

	tests := []struct {
		name        string
		opts        []Option
		wantTimeout time.Duration
		wantShared  bool
	}{
		{name: "default", wantTimeout: defaultTimeout},
		{name: "timeout on default client", opts: []Option{WithTimeout(3 * time.Second)}, wantTimeout: 3 * time.Second},
		{name: "shared client kept", opts: []Option{WithHTTPClient(shared)}, wantTimeout: time.Minute, wantShared: true},
		{name: "timeout copies shared client", opts: []Option{WithHTTPClient(shared), WithTimeout(2 * time.Second)}, wantTimeout: 2 * time.Second},
		{name: "nil client ignored", opts: []Option{WithHTTPClient(nil), WithTimeout(time.Second)}, wantTimeout: time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRESTClient("http://localhost:8003/transaction/", tt.opts...)
			if r.http.Timeout != tt.wantTimeout {
				t.Errorf("timeout = %v, want %v", r.http.Timeout, tt.wantTimeout)
			}
			if (r.http == shared) != tt.wantShared {
				t.Errorf("uses shared client = %v, want %v", r.http == shared, tt.wantShared)
			}
			if shared.Timeout != time.Minute {
				t.Fatalf("shared client was modified: timeout %v", shared.Timeout)
			}
		})
	}
}
