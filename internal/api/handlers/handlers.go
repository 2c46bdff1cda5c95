// Package handlers exposes the back-office use cases over HTTP.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/dvloznov/bank-backoffice/internal/api/middleware"
	"github.com/dvloznov/bank-backoffice/internal/gateway"
	"github.com/dvloznov/bank-backoffice/internal/logger"
	"github.com/dvloznov/bank-backoffice/internal/usecase"
	"github.com/dvloznov/bank-backoffice/internal/validation"
)

// writeFailure maps an error from the use cases or the report assembler to a
// response. Validation failures list every violation; operation failures
// reuse the service's status, or 502 when it could not be reached.
func writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	var verr *validation.Error
	if errors.As(err, &verr) {
		middleware.WriteJSON(w, http.StatusBadRequest, map[string]any{
			"errors": verr.Violations,
		})
		return
	}

	var oerr *usecase.OperationError
	if errors.As(err, &oerr) {
		status := oerr.StatusCode()
		switch {
		case gateway.IsTransport(oerr.Err):
			status = http.StatusBadGateway
		case status < 400 || status > 599:
			status = http.StatusInternalServerError
		}
		middleware.WriteError(w, status, oerr.Message)
		return
	}

	log := logger.FromContext(r.Context())
	log.Error().Err(err).Str("path", r.URL.Path).Msg("Unhandled error")
	middleware.WriteError(w, http.StatusInternalServerError, usecase.MsgUnexpected)
}

// decodeBody reads a JSON request body into dst, answering 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Cuerpo de la solicitud inválido")
		return false
	}
	return true
}

// pathID parses the {id} wildcard.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		id = 0
	}
	if err := validation.ValidateID(id); err != nil {
		writeFailure(w, r, err)
		return 0, false
	}
	return id, true
}
