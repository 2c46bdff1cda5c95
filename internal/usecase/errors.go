package usecase

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dvloznov/bank-backoffice/internal/gateway"
	"github.com/dvloznov/bank-backoffice/internal/validation"
)

// Entity names the resource an operation touched.
type Entity string

const (
	EntityClient      Entity = "client"
	EntityAccount     Entity = "account"
	EntityTransaction Entity = "transaction"
)

// MsgUnexpected is shown when an error carries no better message.
const MsgUnexpected = "Ha ocurrido un error inesperado"

// OperationError wraps a gateway failure with an operator-facing message.
// Err is the untouched gateway error.
type OperationError struct {
	Entity  Entity
	Op      string
	Message string
	Err     error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("%s %s: %s: %v", e.Entity, e.Op, e.Message, e.Err)
}

func (e *OperationError) Unwrap() error { return e.Err }

// StatusCode is the HTTP status of the underlying service error, or 0.
func (e *OperationError) StatusCode() int {
	return gateway.StatusCode(e.Err)
}

// Wrap turns a gateway failure into an *OperationError; nil stays nil.
func Wrap(entity Entity, op string, err error) error {
	if err == nil {
		return nil
	}
	return &OperationError{Entity: entity, Op: op, Message: messageFor(entity, err), Err: err}
}

var notFound = map[Entity]string{
	EntityClient:      "Cliente no encontrado",
	EntityAccount:     "Cuenta no encontrada",
	EntityTransaction: "Transacción no encontrada",
}

var conflict = map[Entity]string{
	EntityClient:      "Cliente ya existe o conflicto de datos",
	EntityAccount:     "Número de cuenta ya existe",
	EntityTransaction: "Saldo insuficiente para realizar la operación",
}

var serviceName = map[Entity]string{
	EntityClient:      "clientes",
	EntityAccount:     "cuentas",
	EntityTransaction: "transacciones",
}

func messageFor(entity Entity, err error) string {
	if gateway.IsTransport(err) {
		return fmt.Sprintf("No se pudo conectar con el servicio de %s", serviceName[entity])
	}

	switch status := gateway.StatusCode(err); {
	case status == 0:
		return MsgUnexpected
	case status == http.StatusBadRequest:
		return "Datos inválidos proporcionados"
	case status == http.StatusNotFound:
		return notFound[entity]
	case status == http.StatusConflict:
		return conflict[entity]
	case status == http.StatusInternalServerError:
		return "Error interno del servidor"
	default:
		return fmt.Sprintf("Error del servidor: %d", status)
	}
}

// Message renders any error from this package for display.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var verr *validation.Error
	if errors.As(err, &verr) {
		return verr.Error()
	}
	var oerr *OperationError
	if errors.As(err, &oerr) {
		return oerr.Message
	}
	return MsgUnexpected
}
