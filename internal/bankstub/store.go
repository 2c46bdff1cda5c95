// Package bankstub is an in-memory stand-in for the client, account and
// transaction services, speaking the same REST dialect.
package bankstub

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dvloznov/bank-backoffice/internal/domain"
	"github.com/dvloznov/bank-backoffice/internal/validation"
	"github.com/shopspring/decimal"
)

// Error is a service failure with the HTTP status it maps to.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string { return fmt.Sprintf("%d %s", e.Status, e.Message) }

func notFound(format string, args ...any) *Error {
	return &Error{Status: http.StatusNotFound, Message: fmt.Sprintf(format, args...)}
}

func conflict(format string, args ...any) *Error {
	return &Error{Status: http.StatusConflict, Message: fmt.Sprintf(format, args...)}
}

func badRequest(format string, args ...any) *Error {
	return &Error{Status: http.StatusBadRequest, Message: fmt.Sprintf(format, args...)}
}

type accountRecord struct {
	account domain.Account
	opening decimal.Decimal
}

type transactionRecord struct {
	tx        domain.Transaction
	accountID int64
	at        time.Time
}

// Store holds clients, accounts and movements shared by the three services.
type Store struct {
	mu           sync.RWMutex
	clients      map[int64]domain.Client
	accounts     map[int64]*accountRecord
	transactions map[int64]*transactionRecord
	nextID       int64
	now          func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		clients:      make(map[int64]domain.Client),
		accounts:     make(map[int64]*accountRecord),
		transactions: make(map[int64]*transactionRecord),
		now:          time.Now,
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func sortedKeys[V any](m map[int64]V) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Clients

func (s *Store) ListClients() []domain.Client {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Client, 0, len(s.clients))
	for _, id := range sortedKeys(s.clients) {
		out = append(out, s.clients[id])
	}
	return out
}

func (s *Store) GetClient(id int64) (domain.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.clients[id]
	if !ok {
		return domain.Client{}, notFound("Cliente no encontrado con ID: %d", id)
	}
	return c, nil
}

// CreateClient registers a client from the basic payload.
func (s *Store) CreateClient(req domain.CreateClientRequest) domain.Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.id()
	c := domain.Client{
		ID: &id,
		Person: domain.Person{
			FullName: strings.TrimSpace(req.FullName),
			Address:  strings.TrimSpace(req.Address),
			Phone:    strings.TrimSpace(req.Phone),
		},
		Password: req.Password,
		Status:   req.Status,
	}
	s.clients[id] = c
	return c
}

// UpdateClient replaces a client. A blank password keeps the stored one.
func (s *Store) UpdateClient(id int64, c domain.Client) (domain.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.clients[id]
	if !ok {
		return domain.Client{}, notFound("Cliente no encontrado con ID: %d", id)
	}
	if ident := c.Person.Identification; ident != "" {
		for otherID, other := range s.clients {
			if otherID != id && other.Person.Identification == ident {
				return domain.Client{}, conflict("Ya existe un cliente con la identificación: %s", ident)
			}
		}
	}
	if c.Password == "" {
		c.Password = old.Password
	}
	c.ID = &id
	s.clients[id] = c
	return c, nil
}

func (s *Store) SetClientStatus(id int64, active bool) (domain.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.clients[id]
	if !ok {
		return domain.Client{}, notFound("Cliente no encontrado con ID: %d", id)
	}
	c.Status = active
	s.clients[id] = c
	return c, nil
}

func (s *Store) DeleteClient(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[id]; !ok {
		return notFound("Cliente no encontrado con ID: %d", id)
	}
	delete(s.clients, id)
	return nil
}

// clientByName matches full names case-insensitively. Callers hold the lock.
func (s *Store) clientByName(name string) (domain.Client, bool) {
	name = strings.TrimSpace(name)
	for _, id := range sortedKeys(s.clients) {
		if strings.EqualFold(s.clients[id].Person.FullName, name) {
			return s.clients[id], true
		}
	}
	return domain.Client{}, false
}

// Accounts

func (s *Store) accountView(rec *accountRecord) domain.Account {
	a := rec.account
	if a.ClientID != nil {
		if c, ok := s.clients[*a.ClientID]; ok {
			a.ClientName = c.Person.FullName
		}
	}
	return a
}

func (s *Store) ListAccounts() []domain.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Account, 0, len(s.accounts))
	for _, id := range sortedKeys(s.accounts) {
		out = append(out, s.accountView(s.accounts[id]))
	}
	return out
}

func (s *Store) GetAccount(id int64) (domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.accounts[id]
	if !ok {
		return domain.Account{}, notFound("Cuenta no encontrada con ID: %d", id)
	}
	return s.accountView(rec), nil
}

func (s *Store) accountNumberTaken(number string, except int64) bool {
	for id, rec := range s.accounts {
		if id != except && rec.account.AccountNumber == number {
			return true
		}
	}
	return false
}

// CreateAccountWithClient opens an account for the client whose full name
// matches req.ClientName.
func (s *Store) CreateAccountWithClient(req domain.CreateAccountRequest) (domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	client, ok := s.clientByName(req.ClientName)
	if !ok {
		return domain.Account{}, notFound("No existe cliente con el nombre: %s", strings.TrimSpace(req.ClientName))
	}
	if s.accountNumberTaken(req.AccountNumber, 0) {
		return domain.Account{}, conflict("Ya existe una cuenta con el número: %s", req.AccountNumber)
	}

	id := s.id()
	rec := &accountRecord{
		account: domain.Account{
			ID:             &id,
			AccountNumber:  req.AccountNumber,
			AccountType:    req.AccountType,
			InitialBalance: req.InitialBalance,
			Status:         req.Status,
			ClientID:       client.ID,
		},
		opening: req.InitialBalance,
	}
	s.accounts[id] = rec
	return s.accountView(rec), nil
}

// UpdateAccount replaces number, type, balance and status. The owner is kept.
func (s *Store) UpdateAccount(id int64, a domain.Account) (domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.accounts[id]
	if !ok {
		return domain.Account{}, notFound("Cuenta no encontrada con ID: %d", id)
	}
	if s.accountNumberTaken(a.AccountNumber, id) {
		return domain.Account{}, conflict("Ya existe una cuenta con el número: %s", a.AccountNumber)
	}
	rec.account.AccountNumber = a.AccountNumber
	rec.account.AccountType = a.AccountType
	rec.account.InitialBalance = a.InitialBalance
	rec.account.Status = a.Status
	return s.accountView(rec), nil
}

func (s *Store) DeleteAccount(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[id]; !ok {
		return notFound("Cuenta no encontrada con ID: %d", id)
	}
	delete(s.accounts, id)
	return nil
}

func (s *Store) accountByNumber(number string) (int64, *accountRecord, bool) {
	for id, rec := range s.accounts {
		if rec.account.AccountNumber == number {
			return id, rec, true
		}
	}
	return 0, nil, false
}

// Transactions

func (s *Store) transactionView(rec *transactionRecord) domain.Transaction {
	t := rec.tx
	if acc, ok := s.accounts[rec.accountID]; ok {
		t.AccountNumber = acc.account.AccountNumber
	}
	return t
}

func (s *Store) ListTransactions() []domain.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Transaction, 0, len(s.transactions))
	for _, id := range sortedKeys(s.transactions) {
		out = append(out, s.transactionView(s.transactions[id]))
	}
	return out
}

func (s *Store) GetTransaction(id int64) (domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.transactions[id]
	if !ok {
		return domain.Transaction{}, notFound("Movimiento no encontrado")
	}
	return s.transactionView(rec), nil
}

// apply computes the balance after a movement of amount on balance.
func apply(balance decimal.Decimal, kind domain.TransactionType, amount decimal.Decimal) (decimal.Decimal, error) {
	switch kind {
	case domain.TransactionDeposit:
		return balance.Add(amount), nil
	case domain.TransactionWithdrawal:
		if amount.GreaterThan(balance) {
			return decimal.Decimal{}, conflict("Saldo insuficiente")
		}
		return balance.Sub(amount), nil
	}
	return decimal.Decimal{}, badRequest("Tipo de transacción inválido")
}

// CreateTransaction records a movement and updates the account balance.
func (s *Store) CreateTransaction(t domain.Transaction) (domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	accID, acc, ok := s.accountByNumber(t.AccountNumber)
	if !ok {
		return domain.Transaction{}, notFound("La cuenta no existe")
	}
	if !acc.account.Status {
		return domain.Transaction{}, badRequest("La cuenta está desactivada")
	}
	balance, err := apply(acc.account.InitialBalance, t.TransactionType, t.Amount)
	if err != nil {
		return domain.Transaction{}, err
	}
	acc.account.InitialBalance = balance

	id := s.id()
	at := s.now()
	rec := &transactionRecord{
		tx: domain.Transaction{
			ID:              &id,
			TransactionType: t.TransactionType,
			Amount:          t.Amount,
			Date:            &domain.Timestamp{Time: at},
			Balance:         &balance,
		},
		accountID: accID,
		at:        at,
	}
	s.transactions[id] = rec
	return s.transactionView(rec), nil
}

// UpdateTransaction changes type and amount. The previous movement is
// reverted before the new one is applied.
func (s *Store) UpdateTransaction(id int64, t domain.Transaction) (domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.transactions[id]
	if !ok {
		return domain.Transaction{}, notFound("Movimiento no encontrado")
	}
	acc, ok := s.accounts[rec.accountID]
	if !ok {
		return domain.Transaction{}, notFound("Cuenta no encontrada")
	}
	if !acc.account.Status {
		return domain.Transaction{}, badRequest("La cuenta está desactivada")
	}

	reverted := acc.account.InitialBalance
	if rec.tx.TransactionType == domain.TransactionDeposit {
		reverted = reverted.Sub(rec.tx.Amount)
	} else {
		reverted = reverted.Add(rec.tx.Amount)
	}
	balance, err := apply(reverted, t.TransactionType, t.Amount)
	if err != nil {
		return domain.Transaction{}, err
	}

	acc.account.InitialBalance = balance
	rec.tx.TransactionType = t.TransactionType
	rec.tx.Amount = t.Amount
	rec.tx.Balance = &balance
	return s.transactionView(rec), nil
}

func (s *Store) DeleteTransaction(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.transactions[id]; !ok {
		return notFound("Movimiento no encontrado")
	}
	delete(s.transactions, id)
	return nil
}

// Reports

func (s *Store) reportRow(rec *transactionRecord, acc *accountRecord) domain.ReportRow {
	row := domain.ReportRow{
		Fecha:        validation.FormatDisplay(rec.at),
		Cliente:      "Cliente no encontrado",
		NumeroCuenta: acc.account.AccountNumber,
		Tipo:         string(acc.account.AccountType),
		SaldoInicial: acc.opening,
		Estado:       acc.account.Status,
		Movimiento:   rec.tx.Amount,
	}
	if rec.tx.TransactionType == domain.TransactionWithdrawal {
		row.Movimiento = rec.tx.Amount.Neg()
	}
	if rec.tx.Balance != nil {
		row.SaldoDisponible = *rec.tx.Balance
	}
	if acc.account.ClientID != nil {
		if c, ok := s.clients[*acc.account.ClientID]; ok {
			row.Cliente = c.Person.FullName
		}
	}
	return row
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// Report lists every movement made on day.
func (s *Store) Report(day time.Time) ([]domain.ReportRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var rows []domain.ReportRow
	for _, id := range sortedKeys(s.transactions) {
		rec := s.transactions[id]
		acc, ok := s.accounts[rec.accountID]
		if !ok || !sameDay(rec.at, day) {
			continue
		}
		rows = append(rows, s.reportRow(rec, acc))
	}
	if len(rows) == 0 {
		return nil, notFound("No existen movimientos en la fecha %s", validation.FormatDisplay(day))
	}
	return rows, nil
}

// Statement lists a client's movements between from and to, inclusive.
func (s *Store) Statement(from, to time.Time, clientName string) ([]domain.ReportRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	client, ok := s.clientByName(clientName)
	if !ok {
		return nil, notFound("No existe cliente con el nombre: %s", strings.TrimSpace(clientName))
	}
	var owned int
	var rows []domain.ReportRow
	for _, accID := range sortedKeys(s.accounts) {
		acc := s.accounts[accID]
		if acc.account.ClientID == nil || *acc.account.ClientID != *client.ID {
			continue
		}
		owned++
		for _, txID := range sortedKeys(s.transactions) {
			rec := s.transactions[txID]
			day := time.Date(rec.at.Year(), rec.at.Month(), rec.at.Day(), 0, 0, 0, 0, time.UTC)
			if rec.accountID != accID || day.Before(from) || day.After(to) {
				continue
			}
			rows = append(rows, s.reportRow(rec, acc))
		}
	}
	if owned == 0 {
		return nil, notFound("El cliente %s no tiene cuentas asociadas", client.Person.FullName)
	}
	if len(rows) == 0 {
		return nil, notFound("No existen movimientos para el cliente %s en el rango de fechas especificado (%s - %s)",
			client.Person.FullName, validation.FormatDisplay(from), validation.FormatDisplay(to))
	}
	return rows, nil
}
