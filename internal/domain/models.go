// Package domain holds the back-office entities exchanged with the client,
// account and transaction services.
package domain

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

func init() {
	// The services speak JSON numbers for money, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// Gender of a person. Optional on every payload.
type Gender string

const (
	GenderMale   Gender = "HOMBRE"
	GenderFemale Gender = "MUJER"
)

// Valid reports whether g is one of the known genders.
func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale
}

// Person is the identity part of a client.
type Person struct {
	FullName       string  `json:"fullName"`
	Gender         *Gender `json:"gender,omitempty"`
	Age            *int    `json:"age,omitempty"`
	Identification string  `json:"identification,omitempty"`
	Address        string  `json:"address"`
	Phone          string  `json:"phone"`
}

// Client is a bank customer. Password is stored as sent; hashing is the
// client service's concern.
type Client struct {
	ID       *int64 `json:"id,omitempty"`
	Person   Person `json:"person"`
	Password string `json:"password,omitempty"`
	Status   bool   `json:"status"`
}

// CreateClientRequest is the basic registration payload (POST /basic).
type CreateClientRequest struct {
	FullName string `json:"fullName"`
	Address  string `json:"address"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
	Status   bool   `json:"status"`
}

// ClientRef is a resolved reference to an existing client.
type ClientRef struct {
	ID          int64  `json:"id"`
	DisplayName string `json:"displayName"`
}

// AccountType is the product kind of an account.
type AccountType string

const (
	AccountSavings  AccountType = "Ahorro"
	AccountChecking AccountType = "Corriente"
	AccountCredit   AccountType = "Credito"
)

// AccountTypes lists every accepted account type.
var AccountTypes = []AccountType{AccountSavings, AccountChecking, AccountCredit}

// Valid reports whether t is an accepted account type.
func (t AccountType) Valid() bool {
	for _, known := range AccountTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Account is a bank account owned by a client. ClientName is free text; the
// account service resolves it when the account is created.
type Account struct {
	ID             *int64          `json:"id,omitempty"`
	AccountNumber  string          `json:"accountNumber"`
	AccountType    AccountType     `json:"accountType"`
	InitialBalance decimal.Decimal `json:"initialBalance"`
	Status         bool            `json:"status"`
	ClientName     string          `json:"clientName,omitempty"`
	ClientID       *int64          `json:"clientId,omitempty"`
}

// CreateAccountRequest is the payload for POST /with-client.
type CreateAccountRequest struct {
	AccountNumber  string          `json:"accountNumber"`
	AccountType    AccountType     `json:"accountType"`
	InitialBalance decimal.Decimal `json:"initialBalance"`
	Status         bool            `json:"status"`
	ClientName     string          `json:"clientName"`
}

// TransactionType is the direction of a movement.
type TransactionType string

const (
	TransactionDeposit    TransactionType = "Deposito"
	TransactionWithdrawal TransactionType = "Retiro"
)

// Valid reports whether t is a known transaction type.
func (t TransactionType) Valid() bool {
	return t == TransactionDeposit || t == TransactionWithdrawal
}

// Transaction is a movement on an account. Date and Balance are assigned by
// the transaction service.
type Transaction struct {
	ID              *int64           `json:"id,omitempty"`
	AccountNumber   string           `json:"accountNumber"`
	TransactionType TransactionType  `json:"transactionType"`
	Amount          decimal.Decimal  `json:"amount"`
	Date            *Timestamp       `json:"date,omitempty"`
	Balance         *decimal.Decimal `json:"balance,omitempty"`
}

// UnmarshalJSON implements json.Unmarshaler. The date is read from "date";
// "transactionDate", as some transaction service builds send it, is accepted
// when "date" is absent.
func (t *Transaction) UnmarshalJSON(data []byte) error {
	type plain Transaction
	var aux struct {
		plain
		TransactionDate *Timestamp `json:"transactionDate,omitempty"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*t = Transaction(aux.plain)
	if t.Date == nil {
		t.Date = aux.TransactionDate
	}
	return nil
}

// ReportRow is one line of a movements report. Keys follow the transaction
// service's wire format.
type ReportRow struct {
	Fecha           string          `json:"fecha"`
	Cliente         string          `json:"cliente"`
	NumeroCuenta    string          `json:"numeroCuenta"`
	Tipo            string          `json:"tipo"`
	SaldoInicial    decimal.Decimal `json:"saldoInicial"`
	Estado          bool            `json:"estado"`
	Movimiento      decimal.Decimal `json:"movimiento"`
	SaldoDisponible decimal.Decimal `json:"saldoDisponible"`
}

// StatementResponse is the body of GET /reports-report.
type StatementResponse struct {
	ReportData []ReportRow `json:"reportData"`
	PDFBase64  string      `json:"pdfBase64"`
}
