// Package report assembles movement reports from the transaction service and
// makes sure every successful report carries a PDF, either the service's own
// rendering or one synthesised locally.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/dvloznov/bank-backoffice/internal/domain"
	"github.com/dvloznov/bank-backoffice/internal/validation"
	"github.com/shopspring/decimal"
)

// Status tags the outcome of a report request.
type Status string

const (
	// StatusSuccess means rows were returned.
	StatusSuccess Status = "success"
	// StatusEmpty means the query matched no movements.
	StatusEmpty Status = "empty"
	// StatusUnavailable means the transaction service could not be reached.
	StatusUnavailable Status = "unavailable"
)

// PDFSource records where Report.PDF came from.
type PDFSource string

const (
	PDFSourceNone    PDFSource = ""
	PDFSourceService PDFSource = "service"
	PDFSourceLocal   PDFSource = "local"
)

// Kind distinguishes single-day reports from client statements.
type Kind string

const (
	KindDaily     Kind = "daily"
	KindStatement Kind = "statement"
)

// Operator-facing messages for non-success outcomes.
const (
	MsgEmpty       = "No se encontraron movimientos para la fecha seleccionada"
	MsgEmptyRange  = "No se encontraron movimientos para el cliente en el rango seleccionado"
	MsgUnavailable = "No se pudo conectar con el servicio de transacciones"
)

// Summary aggregates a report's movements. Deposits are positive movements,
// withdrawals negative ones.
type Summary struct {
	Total           int             `json:"total"`
	Deposits        int             `json:"deposits"`
	Withdrawals     int             `json:"withdrawals"`
	DepositTotal    decimal.Decimal `json:"depositTotal"`
	WithdrawalTotal decimal.Decimal `json:"withdrawalTotal"`
}

// Summarize counts and totals rows.
func Summarize(rows []domain.ReportRow) Summary {
	s := Summary{Total: len(rows)}
	for _, r := range rows {
		switch r.Movimiento.Sign() {
		case 1:
			s.Deposits++
			s.DepositTotal = s.DepositTotal.Add(r.Movimiento)
		case -1:
			s.Withdrawals++
			s.WithdrawalTotal = s.WithdrawalTotal.Add(r.Movimiento.Abs())
		}
	}
	return s
}

// Report is the assembled result. PDF is set only when Status is StatusSuccess.
type Report struct {
	ID          string             `json:"id"`
	Kind        Kind               `json:"kind"`
	Status      Status             `json:"status"`
	Message     string             `json:"message,omitempty"`
	Date        time.Time          `json:"date,omitzero"`
	StartDate   time.Time          `json:"startDate,omitzero"`
	EndDate     time.Time          `json:"endDate,omitzero"`
	ClientName  string             `json:"clientName,omitempty"`
	Rows        []domain.ReportRow `json:"rows"`
	Summary     Summary            `json:"summary"`
	GeneratedAt time.Time          `json:"generatedAt"`
	PDFSource   PDFSource          `json:"pdfSource,omitempty"`
	PDF         []byte             `json:"-"`
	// Preview holds the service payload as text when it decoded to something
	// other than a PDF.
	Preview string `json:"preview,omitempty"`
	// DecodeErr is set when the service payload could not be decoded and the
	// PDF was synthesised instead.
	DecodeErr error `json:"-"`
}

// PeriodLabel renders the report's date or date range as DD/MM/YYYY.
func (r *Report) PeriodLabel() string {
	if r.Kind == KindStatement {
		return validation.FormatDisplay(r.StartDate) + " - " + validation.FormatDisplay(r.EndDate)
	}
	return validation.FormatDisplay(r.Date)
}

// FileName is the suggested download name for the PDF.
func (r *Report) FileName() string {
	dash := func(t time.Time) string { return t.Format("02-01-2006") }
	if r.Kind == KindStatement {
		return fmt.Sprintf("reporte-movimientos-%s_%s.pdf", dash(r.StartDate), dash(r.EndDate))
	}
	return fmt.Sprintf("reporte-movimientos-%s.pdf", dash(r.Date))
}

// Text renders the report as plain text. It returns Preview when the service
// sent one.
func (r *Report) Text() string {
	if r.Preview != "" {
		return r.Preview
	}

	var b strings.Builder
	b.WriteString("REPORTE DE MOVIMIENTOS\n")
	if r.ClientName != "" {
		fmt.Fprintf(&b, "Cliente: %s\n", r.ClientName)
	}
	fmt.Fprintf(&b, "Periodo: %s\n\n", r.PeriodLabel())
	if len(r.Rows) == 0 {
		b.WriteString(MsgEmpty + "\n")
		return b.String()
	}
	for _, row := range r.Rows {
		fmt.Fprintf(&b, "Fecha: %s\n", row.Fecha)
		fmt.Fprintf(&b, "Cliente: %s\n", row.Cliente)
		fmt.Fprintf(&b, "Número Cuenta: %s\n", row.NumeroCuenta)
		fmt.Fprintf(&b, "Tipo: %s\n", row.Tipo)
		fmt.Fprintf(&b, "Saldo Inicial: %s\n", row.SaldoInicial.StringFixed(2))
		fmt.Fprintf(&b, "Estado: %t\n", row.Estado)
		fmt.Fprintf(&b, "Movimiento: %s\n", row.Movimiento.StringFixed(2))
		fmt.Fprintf(&b, "Saldo Disponible: %s\n", row.SaldoDisponible.StringFixed(2))
		b.WriteString("----------------------------\n")
	}
	fmt.Fprintf(&b, "\nTotal movimientos: %d\nDepósitos: %d\nRetiros: %d\n",
		r.Summary.Total, r.Summary.Deposits, r.Summary.Withdrawals)
	return b.String()
}
