package validation

import (
	"errors"
	"testing"

	"github.com/dvloznov/bank-backoffice/internal/domain"
	"github.com/shopspring/decimal"
)

func intPtr(i int) *int { return &i }

func validBasicClient() domain.CreateClientRequest {
	return domain.CreateClientRequest{
		FullName: "Jose Lema",
		Address:  "Otavalo sn y principal",
		Phone:    "+593-98-254-7850",
		Password: "1234abcd",
		Status:   true,
	}
}

func TestValidateClientCreate(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(r *domain.CreateClientRequest)
		wantFields []string
	}{
		{name: "valid", mutate: func(r *domain.CreateClientRequest) {}},
		{name: "short name", mutate: func(r *domain.CreateClientRequest) { r.FullName = "J" }, wantFields: []string{"fullName"}},
		{name: "blank name", mutate: func(r *domain.CreateClientRequest) { r.FullName = "   " }, wantFields: []string{"fullName"}},
		{name: "short address", mutate: func(r *domain.CreateClientRequest) { r.Address = "Av 1" }, wantFields: []string{"address"}},
		{name: "phone without prefix", mutate: func(r *domain.CreateClientRequest) { r.Phone = "098254785" }, wantFields: []string{"phone"}},
		{name: "phone wrong grouping", mutate: func(r *domain.CreateClientRequest) { r.Phone = "+593-982-54-7850" }, wantFields: []string{"phone"}},
		{name: "short password", mutate: func(r *domain.CreateClientRequest) { r.Password = "12345" }, wantFields: []string{"password"}},
		{
			name: "everything wrong",
			mutate: func(r *domain.CreateClientRequest) {
				*r = domain.CreateClientRequest{}
			},
			wantFields: []string{"fullName", "address", "phone", "password"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validBasicClient()
			tt.mutate(&req)
			assertFields(t, ValidateClientCreate(req), tt.wantFields)
		})
	}
}

func TestValidateClientUpdate(t *testing.T) {
	base := func() domain.Client {
		return domain.Client{
			Person: domain.Person{
				FullName: "Marianela Montalvo",
				Address:  "Amazonas y NNUU",
				Phone:    "+593-97-548-9650",
				Age:      intPtr(30),
			},
			Status: true,
		}
	}
	bad := domain.Gender("OTRO")

	tests := []struct {
		name       string
		mutate     func(c *domain.Client)
		wantFields []string
	}{
		{name: "valid without password", mutate: func(c *domain.Client) {}},
		{name: "age at lower bound", mutate: func(c *domain.Client) { c.Person.Age = intPtr(18) }},
		{name: "age at upper bound", mutate: func(c *domain.Client) { c.Person.Age = intPtr(120) }},
		{name: "age absent", mutate: func(c *domain.Client) { c.Person.Age = nil }},
		{name: "minor", mutate: func(c *domain.Client) { c.Person.Age = intPtr(17) }, wantFields: []string{"age"}},
		{name: "too old", mutate: func(c *domain.Client) { c.Person.Age = intPtr(121) }, wantFields: []string{"age"}},
		{name: "unknown gender", mutate: func(c *domain.Client) { c.Person.Gender = &bad }, wantFields: []string{"gender"}},
		{name: "short new password", mutate: func(c *domain.Client) { c.Password = "abc" }, wantFields: []string{"password"}},
		{name: "bad phone and address", mutate: func(c *domain.Client) { c.Person.Phone = ""; c.Person.Address = "x" }, wantFields: []string{"address", "phone"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(&c)
			assertFields(t, ValidateClientUpdate(c), tt.wantFields)
		})
	}
}

func TestValidateAccountCreate(t *testing.T) {
	base := func() domain.CreateAccountRequest {
		return domain.CreateAccountRequest{
			AccountNumber:  "478758",
			AccountType:    domain.AccountSavings,
			InitialBalance: decimal.NewFromInt(2000),
			Status:         true,
			ClientName:     "Jose Lema",
		}
	}

	tests := []struct {
		name       string
		mutate     func(r *domain.CreateAccountRequest)
		wantFields []string
	}{
		{name: "valid", mutate: func(r *domain.CreateAccountRequest) {}},
		{name: "zero balance", mutate: func(r *domain.CreateAccountRequest) { r.InitialBalance = decimal.Zero }},
		{name: "short number", mutate: func(r *domain.CreateAccountRequest) { r.AccountNumber = "123" }, wantFields: []string{"accountNumber"}},
		{name: "letters in number", mutate: func(r *domain.CreateAccountRequest) { r.AccountNumber = "47A758" }, wantFields: []string{"accountNumber"}},
		{name: "unknown type", mutate: func(r *domain.CreateAccountRequest) { r.AccountType = "Plazo" }, wantFields: []string{"accountType"}},
		{name: "negative balance", mutate: func(r *domain.CreateAccountRequest) { r.InitialBalance = decimal.NewFromFloat(-0.01) }, wantFields: []string{"initialBalance"}},
		{name: "missing client", mutate: func(r *domain.CreateAccountRequest) { r.ClientName = " " }, wantFields: []string{"clientName"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := base()
			tt.mutate(&req)
			assertFields(t, ValidateAccountCreate(req), tt.wantFields)
		})
	}
}

func TestValidateAccountUpdate_IgnoresClientName(t *testing.T) {
	acc := domain.Account{AccountNumber: "225487", AccountType: domain.AccountChecking, InitialBalance: decimal.NewFromInt(100)}
	if err := ValidateAccountUpdate(acc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	acc.AccountType = ""
	acc.InitialBalance = decimal.NewFromInt(-5)
	assertFields(t, ValidateAccountUpdate(acc), []string{"accountType", "initialBalance"})
}

func TestValidateTransaction(t *testing.T) {
	tests := []struct {
		name       string
		tx         domain.Transaction
		wantFields []string
		wantMsg    string
	}{
		{
			name: "valid deposit",
			tx:   domain.Transaction{AccountNumber: "478758", TransactionType: domain.TransactionDeposit, Amount: decimal.NewFromInt(600)},
		},
		{
			name: "amount at limit",
			tx:   domain.Transaction{AccountNumber: "478758", TransactionType: domain.TransactionWithdrawal, Amount: decimal.NewFromInt(10000)},
		},
		{
			name:       "amount over limit",
			tx:         domain.Transaction{AccountNumber: "478758", TransactionType: domain.TransactionDeposit, Amount: decimal.RequireFromString("10000.01")},
			wantFields: []string{"amount"},
			wantMsg:    MsgAmountLimit,
		},
		{
			name:       "zero amount",
			tx:         domain.Transaction{AccountNumber: "478758", TransactionType: domain.TransactionDeposit},
			wantFields: []string{"amount"},
			wantMsg:    MsgAmountPositive,
		},
		{
			name:       "negative amount",
			tx:         domain.Transaction{AccountNumber: "478758", TransactionType: domain.TransactionWithdrawal, Amount: decimal.NewFromInt(-1)},
			wantFields: []string{"amount"},
			wantMsg:    MsgAmountPositive,
		},
		{
			name:       "unknown type and short account",
			tx:         domain.Transaction{AccountNumber: "47", TransactionType: "Transferencia", Amount: decimal.NewFromInt(1)},
			wantFields: []string{"accountNumber", "transactionType"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTransaction(tt.tx)
			assertFields(t, err, tt.wantFields)
			if tt.wantMsg != "" {
				var verr *Error
				if errors.As(err, &verr) && verr.Violations[0].Message != tt.wantMsg {
					t.Errorf("message = %q, want %q", verr.Violations[0].Message, tt.wantMsg)
				}
			}
		})
	}
}

func TestValidateID(t *testing.T) {
	if err := ValidateID(1); err != nil {
		t.Errorf("ValidateID(1) = %v", err)
	}
	assertFields(t, ValidateID(0), []string{"id"})
	assertFields(t, ValidateID(-3), []string{"id"})
}

func TestError_Messages(t *testing.T) {
	err := ValidateClientCreate(domain.CreateClientRequest{})
	var verr *Error
	if !errors.As(err, &verr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if len(verr.Messages()) != 4 {
		t.Errorf("expected 4 messages, got %v", verr.Messages())
	}
	if verr.Error() == "" {
		t.Error("Error() should not be empty")
	}
}

// assertFields checks that err reports exactly the given fields, in order.
func assertFields(t *testing.T, err error, want []string) {
	t.Helper()
	if len(want) == 0 {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return
	}

	var verr *Error
	if !errors.As(err, &verr) {
		t.Fatalf("expected *validation.Error, got %v", err)
	}
	if len(verr.Violations) != len(want) {
		t.Fatalf("got violations %v, want fields %v", verr.Violations, want)
	}
	for i, f := range want {
		if verr.Violations[i].Field != f {
			t.Errorf("violation[%d].Field = %q, want %q", i, verr.Violations[i].Field, f)
		}
		if verr.Violations[i].Message == "" {
			t.Errorf("violation[%d] has empty message", i)
		}
	}
}
