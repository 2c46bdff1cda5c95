// Package validation holds the field rules shared by every back-office surface.
// Rules are pure: they inspect a value and report every broken rule at once.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/dvloznov/bank-backoffice/internal/domain"
	"github.com/shopspring/decimal"
)

// Limits enforced before anything is sent to the services.
const (
	MinNameLength          = 2
	MinAddressLength       = 5
	MinPasswordLength      = 6
	MinAccountNumberLength = 4
	MinAge                 = 18
	MaxAge                 = 120
)

// MaxTransactionAmount is the per-transaction ceiling.
var MaxTransactionAmount = decimal.NewFromInt(10000)

// Messages shown to operators.
const (
	MsgFullName        = "El nombre completo es requerido y debe tener al menos 2 caracteres"
	MsgAddress         = "La dirección es requerida y debe tener al menos 5 caracteres"
	MsgPhone           = "El teléfono debe tener un formato válido (+593-XX-XXX-XXXX)"
	MsgPassword        = "La contraseña debe tener al menos 6 caracteres"
	MsgAge             = "La edad debe estar entre 18 y 120 años"
	MsgGender          = "El género debe ser: HOMBRE o MUJER"
	MsgAccountNumber   = "El número de cuenta es requerido y debe tener al menos 4 dígitos"
	MsgAccountDigits   = "El número de cuenta solo debe contener números"
	MsgAccountType     = "El tipo de cuenta debe ser: Ahorro, Corriente o Credito"
	MsgInitialBalance  = "El saldo inicial no puede ser negativo"
	MsgClientName      = "El nombre del cliente es requerido"
	MsgTransactionType = "El tipo de transacción debe ser: Deposito o Retiro"
	MsgAmountPositive  = "El monto debe ser mayor a 0"
	MsgAmountLimit     = "El monto no puede exceder $10,000 por transacción"
	MsgDateRequired    = "La fecha es requerida"
	MsgDateFormat      = "El formato de fecha debe ser: DD/MM/YYYY o D/M/YYYY"
	MsgDateInvalid     = "La fecha proporcionada no es válida"
	MsgDateRangeOrder  = "La fecha de inicio no puede ser posterior a la fecha de fin"
	MsgID              = "El identificador debe ser un número positivo"
)

var (
	phonePattern  = regexp.MustCompile(`^\+\d{1,4}-\d{2}-\d{3}-\d{4}$`)
	digitsPattern = regexp.MustCompile(`^\d+$`)
)

// Violation is one broken rule on one field.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Violations collects broken rules in the order they were checked.
type Violations []Violation

// Add appends a violation.
func (v *Violations) Add(field, message string) {
	*v = append(*v, Violation{Field: field, Message: message})
}

// Err returns nil when there are no violations, otherwise an *Error.
func (v Violations) Err() error {
	if len(v) == 0 {
		return nil
	}
	return &Error{Violations: v}
}

// Error is returned when input fails validation. No service was contacted.
type Error struct {
	Violations Violations
}

func (e *Error) Error() string {
	msgs := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		msgs = append(msgs, v.Message)
	}
	return strings.Join(msgs, "; ")
}

// Messages returns the human-readable messages only.
func (e *Error) Messages() []string {
	msgs := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		msgs = append(msgs, v.Message)
	}
	return msgs
}

// Has reports whether field has at least one violation.
func (e *Error) Has(field string) bool {
	for _, v := range e.Violations {
		if v.Field == field {
			return true
		}
	}
	return false
}

// ValidateClientCreate checks a basic registration request.
func ValidateClientCreate(req domain.CreateClientRequest) error {
	var v Violations
	checkFullName(&v, req.FullName)
	checkAddress(&v, req.Address)
	checkPhone(&v, req.Phone)
	if utf8.RuneCountInString(req.Password) < MinPasswordLength {
		v.Add("password", MsgPassword)
	}
	return v.Err()
}

// ValidateClientUpdate checks a full client. Password may be left empty to
// keep the stored one.
func ValidateClientUpdate(c domain.Client) error {
	var v Violations
	checkFullName(&v, c.Person.FullName)
	checkAddress(&v, c.Person.Address)
	checkPhone(&v, c.Person.Phone)
	if c.Person.Age != nil && (*c.Person.Age < MinAge || *c.Person.Age > MaxAge) {
		v.Add("age", MsgAge)
	}
	if c.Person.Gender != nil && !c.Person.Gender.Valid() {
		v.Add("gender", MsgGender)
	}
	if c.Password != "" && utf8.RuneCountInString(c.Password) < MinPasswordLength {
		v.Add("password", MsgPassword)
	}
	return v.Err()
}

// ValidateAccountCreate checks a create-with-client request.
func ValidateAccountCreate(req domain.CreateAccountRequest) error {
	var v Violations
	checkAccountNumber(&v, req.AccountNumber)
	checkAccountType(&v, req.AccountType)
	if req.InitialBalance.IsNegative() {
		v.Add("initialBalance", MsgInitialBalance)
	}
	if utf8.RuneCountInString(strings.TrimSpace(req.ClientName)) < MinNameLength {
		v.Add("clientName", MsgClientName)
	}
	return v.Err()
}

// ValidateAccountUpdate checks an account edit. The owning client cannot
// change, so clientName is not checked.
func ValidateAccountUpdate(a domain.Account) error {
	var v Violations
	checkAccountNumber(&v, a.AccountNumber)
	checkAccountType(&v, a.AccountType)
	if a.InitialBalance.IsNegative() {
		v.Add("initialBalance", MsgInitialBalance)
	}
	return v.Err()
}

// ValidateTransaction checks a movement before submission.
func ValidateTransaction(t domain.Transaction) error {
	var v Violations
	if utf8.RuneCountInString(strings.TrimSpace(t.AccountNumber)) < MinAccountNumberLength {
		v.Add("accountNumber", MsgAccountNumber)
	}
	if !t.TransactionType.Valid() {
		v.Add("transactionType", MsgTransactionType)
	}
	switch {
	case !t.Amount.IsPositive():
		v.Add("amount", MsgAmountPositive)
	case t.Amount.GreaterThan(MaxTransactionAmount):
		v.Add("amount", MsgAmountLimit)
	}
	return v.Err()
}

// ValidateID rejects zero and negative identifiers.
func ValidateID(id int64) error {
	if id <= 0 {
		return Violations{{Field: "id", Message: MsgID}}.Err()
	}
	return nil
}

func checkFullName(v *Violations, name string) {
	if utf8.RuneCountInString(strings.TrimSpace(name)) < MinNameLength {
		v.Add("fullName", MsgFullName)
	}
}

func checkAddress(v *Violations, address string) {
	if utf8.RuneCountInString(strings.TrimSpace(address)) < MinAddressLength {
		v.Add("address", MsgAddress)
	}
}

func checkPhone(v *Violations, phone string) {
	if !phonePattern.MatchString(strings.TrimSpace(phone)) {
		v.Add("phone", MsgPhone)
	}
}

func checkAccountNumber(v *Violations, number string) {
	number = strings.TrimSpace(number)
	if utf8.RuneCountInString(number) < MinAccountNumberLength {
		v.Add("accountNumber", MsgAccountNumber)
		return
	}
	if !digitsPattern.MatchString(number) {
		v.Add("accountNumber", MsgAccountDigits)
	}
}

func checkAccountType(v *Violations, t domain.AccountType) {
	if !t.Valid() {
		v.Add("accountType", MsgAccountType)
	}
}

// IsPhone reports whether s is in the +CCC-XX-XXX-XXXX format.
func IsPhone(s string) bool {
	return phonePattern.MatchString(s)
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}
