package domain

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestAccountType_Valid(t *testing.T) {
	tests := []struct {
		in   AccountType
		want bool
	}{
		{AccountSavings, true},
		{AccountChecking, true},
		{AccountCredit, true},
		{"ahorro", false},
		{"Inversion", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := tt.in.Valid(); got != tt.want {
			t.Errorf("AccountType(%q).Valid() = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestTransactionType_Valid(t *testing.T) {
	if !TransactionDeposit.Valid() || !TransactionWithdrawal.Valid() {
		t.Error("known transaction types must be valid")
	}
	if TransactionType("Transferencia").Valid() {
		t.Error("unknown transaction type must be invalid")
	}
}

func TestAccount_JSONUsesNumbers(t *testing.T) {
	acc := Account{
		AccountNumber:  "478758",
		AccountType:    AccountSavings,
		InitialBalance: decimal.RequireFromString("2000.50"),
		Status:         true,
		ClientName:     "Jose Lema",
	}
	data, err := json.Marshal(acc)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"initialBalance":2000.5`) {
		t.Errorf("expected numeric balance, got %s", data)
	}
	if strings.Contains(string(data), `"id"`) {
		t.Errorf("nil id should be omitted, got %s", data)
	}
}

func TestReportRow_WireKeys(t *testing.T) {
	body := `{"fecha":"10/02/2022","cliente":"Marianela Montalvo","numeroCuenta":"225487","tipo":"Corriente",
		"saldoInicial":100,"estado":true,"movimiento":600,"saldoDisponible":700}`

	var row ReportRow
	if err := json.Unmarshal([]byte(body), &row); err != nil {
		t.Fatal(err)
	}
	if row.Cliente != "Marianela Montalvo" || row.NumeroCuenta != "225487" || !row.Estado {
		t.Errorf("unexpected row %+v", row)
	}
	if !row.SaldoDisponible.Equal(decimal.NewFromInt(700)) {
		t.Errorf("saldoDisponible = %s", row.SaldoDisponible)
	}
}

func TestTimestamp_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    time.Time
		wantErr bool
	}{
		{name: "local date time", in: `"2024-03-15T10:30:00"`, want: time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)},
		{name: "fractional seconds", in: `"2024-03-15T10:30:00.123456"`, want: time.Date(2024, 3, 15, 10, 30, 0, 123456000, time.UTC)},
		{name: "rfc3339", in: `"2024-03-15T10:30:00Z"`, want: time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)},
		{name: "date only", in: `"2024-03-15"`, want: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
		{name: "garbage", in: `"15/03/2024"`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ts Timestamp
			err := ts.UnmarshalJSON([]byte(tt.in))
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !ts.Time.Equal(tt.want) {
				t.Errorf("got %s, want %s", ts.Time, tt.want)
			}
		})
	}
}

func TestTransaction_NullDate(t *testing.T) {
	var tx Transaction
	if err := json.Unmarshal([]byte(`{"accountNumber":"478758","transactionType":"Retiro","amount":575,"transactionDate":null}`), &tx); err != nil {
		t.Fatal(err)
	}
	if tx.Date != nil {
		t.Errorf("expected nil date, got %v", tx.Date)
	}
	if !tx.Amount.Equal(decimal.NewFromInt(575)) {
		t.Errorf("amount = %s", tx.Amount)
	}
}

func TestTransaction_DateKeys(t *testing.T) {
	tests := []struct {
		name string
		body string
		day  int
	}{
		{"date", `{"id":1,"accountNumber":"1234","transactionType":"Deposito","amount":50,"date":"2024-03-15T10:00:00","balance":150}`, 15},
		{"transactionDate", `{"id":1,"accountNumber":"1234","transactionType":"Deposito","amount":50,"transactionDate":"2024-03-16T10:00:00","balance":150}`, 16},
		{"date wins", `{"id":1,"accountNumber":"1234","transactionType":"Deposito","amount":50,"date":"2024-03-17T10:00:00","transactionDate":"2024-03-18T10:00:00"}`, 17},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var tx Transaction
			if err := json.Unmarshal([]byte(tt.body), &tx); err != nil {
				t.Fatalf("Unmarshal failed: %v", err)
			}
			if tx.Date == nil || tx.Date.Day() != tt.day {
				t.Fatalf("Date = %v, want day %d", tx.Date, tt.day)
			}
			if tx.ID == nil || *tx.ID != 1 || tx.AccountNumber != "1234" || !tx.Amount.Equal(decimal.NewFromInt(50)) {
				t.Errorf("other fields lost: %+v", tx)
			}

			data, err := json.Marshal(tx)
			if err != nil {
				t.Fatal(err)
			}
			if !strings.Contains(string(data), `"date":"2024-03-`) || strings.Contains(string(data), "transactionDate") {
				t.Errorf("expected the date under \"date\", got %s", data)
			}
		})
	}
}
