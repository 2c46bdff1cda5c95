package bankstub

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dvloznov/bank-backoffice/internal/domain"
	"github.com/dvloznov/bank-backoffice/internal/validation"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Route prefixes of the three services.
const (
	ClientPrefix      = "/api/v1/client"
	AccountPrefix     = "/account"
	TransactionPrefix = "/transaction"
)

// Service selects which REST surface a router exposes.
type Service int

const (
	ClientService Service = iota
	AccountService
	TransactionService
)

var registerOnce sync.Once

// registerValidators teaches gin's validator the phone format and makes
// field errors report JSON names.
func registerValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
			return validation.IsPhone(fl.Field().String())
		})
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
}

type basicClientRequest struct {
	FullName string `json:"fullName" binding:"required,min=2"`
	Address  string `json:"address" binding:"required,min=5"`
	Phone    string `json:"phone" binding:"required,phone"`
	Password string `json:"password" binding:"required,min=6"`
	Status   bool   `json:"status"`
}

type accountWithClientRequest struct {
	AccountNumber  string          `json:"accountNumber" binding:"required,min=4,numeric"`
	AccountType    string          `json:"accountType" binding:"required,oneof=Ahorro Corriente Credito"`
	InitialBalance decimal.Decimal `json:"initialBalance"`
	Status         bool            `json:"status"`
	ClientName     string          `json:"clientName" binding:"required"`
}

type transactionRequest struct {
	AccountNumber   string          `json:"accountNumber" binding:"required"`
	TransactionType string          `json:"transactionType" binding:"required,oneof=Deposito Retiro"`
	Amount          decimal.Decimal `json:"amount"`
}

// errorResponse mirrors the services' error body.
type errorResponse struct {
	Timestamp string `json:"timestamp"`
	Status    int    `json:"status"`
	Error     string `json:"error"`
	Message   string `json:"message"`
	Path      string `json:"path"`
}

// Server exposes a Store over the services' REST routes.
type Server struct {
	store *Store
	log   zerolog.Logger
}

func NewServer(store *Store, log zerolog.Logger) *Server {
	registerValidators()
	return &Server{store: store, log: log}
}

// Router builds a gin engine serving the given services, or all three when
// none are named.
func (s *Server) Router(services ...Service) *gin.Engine {
	if len(services) == 0 {
		services = []Service{ClientService, AccountService, TransactionService}
	}
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	for _, svc := range services {
		switch svc {
		case ClientService:
			g := r.Group(ClientPrefix)
			g.GET("", s.listClients)
			g.GET("/:id", s.getClient)
			g.POST("/basic", s.createBasicClient)
			g.PUT("/:id", s.updateClient)
			g.PATCH("/:id/activate", s.setClientStatus(true))
			g.PATCH("/:id/deactivate", s.setClientStatus(false))
			g.DELETE("/:id", s.deleteClient)
		case AccountService:
			g := r.Group(AccountPrefix)
			g.GET("", s.listAccounts)
			g.GET("/:id", s.getAccount)
			g.POST("/with-client", s.createAccountWithClient)
			g.PUT("/:id", s.updateAccount)
			g.DELETE("/:id", s.deleteAccount)
		case TransactionService:
			g := r.Group(TransactionPrefix)
			g.GET("", s.listTransactions)
			g.GET("/health", s.health)
			g.GET("/report", s.report)
			g.GET("/reports-report", s.statement)
			g.GET("/:id", s.getTransaction)
			g.POST("", s.createTransaction)
			g.PUT("/:id", s.updateTransaction)
			g.DELETE("/:id", s.deleteTransaction)
		}
	}
	return r
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("Stub request")
	}
}

func (s *Server) fail(c *gin.Context, status int, message string) {
	c.JSON(status, errorResponse{
		Timestamp: time.Now().Format("2006-01-02T15:04:05"),
		Status:    status,
		Error:     http.StatusText(status),
		Message:   message,
		Path:      c.Request.URL.Path,
	})
}

func (s *Server) failErr(c *gin.Context, err error) {
	var serr *Error
	if errors.As(err, &serr) {
		s.fail(c, serr.Status, serr.Message)
		return
	}
	var verr *validation.Error
	if errors.As(err, &verr) {
		s.fail(c, http.StatusBadRequest, strings.Join(verr.Messages(), "; "))
		return
	}
	s.log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Stub request failed")
	s.fail(c, http.StatusInternalServerError, err.Error())
}

// bindJSON decodes the body into dst, answering 400 on failure.
func (s *Server) bindJSON(c *gin.Context, dst any) bool {
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return true
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fmt.Sprintf("%s: %s", fe.Field(), fe.Tag()))
		}
		s.fail(c, http.StatusBadRequest, strings.Join(msgs, "; "))
		return false
	}
	s.fail(c, http.StatusBadRequest, "Cuerpo de la solicitud inválido")
	return false
}

func (s *Server) pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		s.fail(c, http.StatusBadRequest, validation.MsgID)
		return 0, false
	}
	return id, true
}

// Client service

func (s *Server) listClients(c *gin.Context) {
	clients := s.store.ListClients()
	if strings.EqualFold(c.Query("status"), "active") {
		active := clients[:0]
		for _, cl := range clients {
			if cl.Status {
				active = append(active, cl)
			}
		}
		clients = active
	}
	c.JSON(http.StatusOK, clients)
}

func (s *Server) getClient(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}
	client, err := s.store.GetClient(id)
	if err != nil {
		s.failErr(c, err)
		return
	}
	c.JSON(http.StatusOK, client)
}

func (s *Server) createBasicClient(c *gin.Context) {
	var req basicClientRequest
	if !s.bindJSON(c, &req) {
		return
	}
	client := s.store.CreateClient(domain.CreateClientRequest(req))
	c.JSON(http.StatusCreated, client)
}

func (s *Server) updateClient(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}
	var body domain.Client
	if !s.bindJSON(c, &body) {
		return
	}
	if err := validation.ValidateClientUpdate(body); err != nil {
		s.failErr(c, err)
		return
	}
	client, err := s.store.UpdateClient(id, body)
	if err != nil {
		s.failErr(c, err)
		return
	}
	c.JSON(http.StatusOK, client)
}

func (s *Server) setClientStatus(active bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := s.pathID(c)
		if !ok {
			return
		}
		client, err := s.store.SetClientStatus(id, active)
		if err != nil {
			s.failErr(c, err)
			return
		}
		c.JSON(http.StatusOK, client)
	}
}

func (s *Server) deleteClient(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}
	if err := s.store.DeleteClient(id); err != nil {
		s.failErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Account service

func (s *Server) listAccounts(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.ListAccounts())
}

func (s *Server) getAccount(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}
	acc, err := s.store.GetAccount(id)
	if err != nil {
		s.failErr(c, err)
		return
	}
	c.JSON(http.StatusOK, acc)
}

func (s *Server) createAccountWithClient(c *gin.Context) {
	var req accountWithClientRequest
	if !s.bindJSON(c, &req) {
		return
	}
	if req.InitialBalance.IsNegative() {
		s.fail(c, http.StatusBadRequest, validation.MsgInitialBalance)
		return
	}
	acc, err := s.store.CreateAccountWithClient(domain.CreateAccountRequest{
		AccountNumber:  req.AccountNumber,
		AccountType:    domain.AccountType(req.AccountType),
		InitialBalance: req.InitialBalance,
		Status:         req.Status,
		ClientName:     req.ClientName,
	})
	if err != nil {
		s.failErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, acc)
}

func (s *Server) updateAccount(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}
	var body domain.Account
	if !s.bindJSON(c, &body) {
		return
	}
	if err := validation.ValidateAccountUpdate(body); err != nil {
		s.failErr(c, err)
		return
	}
	acc, err := s.store.UpdateAccount(id, body)
	if err != nil {
		s.failErr(c, err)
		return
	}
	c.JSON(http.StatusOK, acc)
}

func (s *Server) deleteAccount(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}
	if err := s.store.DeleteAccount(id); err != nil {
		s.failErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Transaction service

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "UP"})
}

func (s *Server) listTransactions(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.ListTransactions())
}

func (s *Server) getTransaction(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}
	tx, err := s.store.GetTransaction(id)
	if err != nil {
		s.failErr(c, err)
		return
	}
	c.JSON(http.StatusOK, tx)
}

func (s *Server) bindTransaction(c *gin.Context) (domain.Transaction, bool) {
	var req transactionRequest
	if !s.bindJSON(c, &req) {
		return domain.Transaction{}, false
	}
	if !req.Amount.IsPositive() {
		s.fail(c, http.StatusBadRequest, validation.MsgAmountPositive)
		return domain.Transaction{}, false
	}
	return domain.Transaction{
		AccountNumber:   req.AccountNumber,
		TransactionType: domain.TransactionType(req.TransactionType),
		Amount:          req.Amount,
	}, true
}

func (s *Server) createTransaction(c *gin.Context) {
	t, ok := s.bindTransaction(c)
	if !ok {
		return
	}
	tx, err := s.store.CreateTransaction(t)
	if err != nil {
		s.failErr(c, err)
		return
	}
	c.JSON(http.StatusOK, tx)
}

func (s *Server) updateTransaction(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}
	t, ok := s.bindTransaction(c)
	if !ok {
		return
	}
	tx, err := s.store.UpdateTransaction(id, t)
	if err != nil {
		s.failErr(c, err)
		return
	}
	c.JSON(http.StatusOK, tx)
}

func (s *Server) deleteTransaction(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}
	if err := s.store.DeleteTransaction(id); err != nil {
		s.failErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// report expects date as DD/MM/YYYY.
func (s *Server) report(c *gin.Context) {
	day, err := time.Parse(validation.DisplayLayout, c.Query("date"))
	if err != nil {
		s.fail(c, http.StatusBadRequest, "Formato de fecha inválido. Use dd/MM/yyyy")
		return
	}
	rows, err := s.store.Report(day)
	if err != nil {
		s.failErr(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// statement expects ISO dates and answers with rows plus a base64 payload.
// The payload is a plain-text rendering, not a PDF.
func (s *Server) statement(c *gin.Context) {
	start, errStart := time.Parse(validation.ISOLayout, c.Query("startDate"))
	end, errEnd := time.Parse(validation.ISOLayout, c.Query("endDate"))
	if errStart != nil || errEnd != nil {
		s.fail(c, http.StatusBadRequest, "Los parámetros 'startDate' y 'endDate' son requeridos")
		return
	}
	clientName := strings.TrimSpace(c.Query("clientName"))
	if clientName == "" {
		s.fail(c, http.StatusBadRequest, "El parámetro 'clientName' es requerido")
		return
	}
	if start.After(end) {
		s.fail(c, http.StatusBadRequest, validation.MsgDateRangeOrder)
		return
	}

	rows, err := s.store.Statement(start, end, clientName)
	if err != nil {
		s.failErr(c, err)
		return
	}
	c.JSON(http.StatusOK, domain.StatementResponse{
		ReportData: rows,
		PDFBase64:  base64.StdEncoding.EncodeToString([]byte(statementText(rows))),
	})
}

func statementText(rows []domain.ReportRow) string {
	var b strings.Builder
	b.WriteString("REPORTE DE ESTADO DE CUENTA\n\n")
	for _, r := range rows {
		fmt.Fprintf(&b, "Cliente: %s\n", r.Cliente)
		fmt.Fprintf(&b, "Fecha: %s\n", r.Fecha)
		fmt.Fprintf(&b, "Número Cuenta: %s\n", r.NumeroCuenta)
		fmt.Fprintf(&b, "Tipo: %s\n", r.Tipo)
		fmt.Fprintf(&b, "Saldo Inicial: %s\n", r.SaldoInicial.StringFixed(2))
		fmt.Fprintf(&b, "Estado: %t\n", r.Estado)
		fmt.Fprintf(&b, "Movimiento: %s\n", r.Movimiento.StringFixed(2))
		fmt.Fprintf(&b, "Saldo Disponible: %s\n", r.SaldoDisponible.StringFixed(2))
		b.WriteString("\n----------------------------\n\n")
	}
	return b.String()
}
