// Package pdf renders movement reports locally with fpdf.
package pdf

import (
	"bytes"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/dvloznov/bank-backoffice/internal/report"
	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

const (
	pageBreakY    = 260.0
	rowHeight     = 7.0
	clientNameMax = 15
	fontFamily    = "Helvetica"
)

var (
	columns = []string{"Fecha", "Cliente", "Cuenta", "Tipo", "Saldo Inicial", "Movimiento", "Saldo Disponible"}
	widths  = []float64{25, 35, 25, 20, 25, 25, 30}
)

// Renderer draws an A4 portrait report: header block, paginated table with
// a repeated header row, summary and a "Página i de n" footer.
type Renderer struct {
	compress bool
	now      func() time.Time
}

// New returns a Renderer producing compressed PDFs.
func New() *Renderer {
	return &Renderer{compress: true, now: time.Now}
}

// Render implements report.Renderer.
func (r *Renderer) Render(rep *report.Report) ([]byte, error) {
	doc, err := r.build(rep)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("Render: writing pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) build(rep *report.Report) (*fpdf.Fpdf, error) {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetCompression(r.compress)
	doc.SetAutoPageBreak(false, 0)
	doc.AliasNbPages("")
	doc.SetCreationDate(rep.GeneratedAt)
	tr := doc.UnicodeTranslatorFromDescriptor("")
	doc.SetTitle(tr("BANCO - Reporte de Movimientos"), false)

	doc.SetFooterFunc(func() {
		doc.SetY(-15)
		doc.SetFont(fontFamily, "I", 8)
		doc.SetTextColor(120, 120, 120)
		doc.CellFormat(95, 10, tr(fmt.Sprintf("Página %d de {nb}", doc.PageNo())), "", 0, "L", false, 0, "")
		doc.CellFormat(95, 10, "Banking System - Confidencial", "", 0, "R", false, 0, "")
	})

	doc.AddPage()
	r.header(doc, tr, rep)

	if len(rep.Rows) == 0 {
		doc.SetFont(fontFamily, "", 11)
		doc.CellFormat(0, 10, tr(report.MsgEmpty), "", 1, "C", false, 0, "")
	} else {
		tableHeader(doc, tr)
		for _, row := range rep.Rows {
			if doc.GetY() > pageBreakY {
				doc.AddPage()
				tableHeader(doc, tr)
			}
			cells := []string{
				row.Fecha,
				truncate(row.Cliente, clientNameMax),
				row.NumeroCuenta,
				row.Tipo,
				money(row.SaldoInicial),
				money(row.Movimiento),
				money(row.SaldoDisponible),
			}
			doc.SetFont(fontFamily, "", 8)
			for i, c := range cells {
				align := "L"
				if i >= 4 {
					align = "R"
				}
				doc.CellFormat(widths[i], rowHeight, tr(c), "1", 0, align, false, 0, "")
			}
			doc.Ln(rowHeight)
		}
		if doc.GetY() > pageBreakY-30 {
			doc.AddPage()
		}
		summary(doc, tr, rep.Summary)
	}

	if doc.Err() {
		return nil, fmt.Errorf("build: %w", doc.Error())
	}
	return doc, nil
}

func (r *Renderer) header(doc *fpdf.Fpdf, tr func(string) string, rep *report.Report) {
	doc.SetFont(fontFamily, "B", 16)
	doc.CellFormat(0, 10, "BANCO - Reporte de Movimientos", "", 1, "C", false, 0, "")
	doc.Ln(2)

	doc.SetFont(fontFamily, "", 10)
	if rep.Kind == report.KindStatement {
		doc.CellFormat(0, 6, tr("Cliente: "+rep.ClientName), "", 1, "L", false, 0, "")
		doc.CellFormat(0, 6, "Periodo: "+rep.PeriodLabel(), "", 1, "L", false, 0, "")
	} else {
		doc.CellFormat(0, 6, "Fecha: "+rep.PeriodLabel(), "", 1, "L", false, 0, "")
	}
	generated := rep.GeneratedAt
	if generated.IsZero() {
		generated = r.now()
	}
	doc.CellFormat(0, 6, "Generado: "+generated.Format("02/01/2006 15:04:05"), "", 1, "L", false, 0, "")

	y := doc.GetY() + 2
	doc.Line(10, y, 200, y)
	doc.SetY(y + 4)
}

func tableHeader(doc *fpdf.Fpdf, tr func(string) string) {
	doc.SetFont(fontFamily, "B", 8)
	doc.SetFillColor(230, 230, 230)
	for i, col := range columns {
		doc.CellFormat(widths[i], rowHeight, tr(col), "1", 0, "C", true, 0, "")
	}
	doc.Ln(rowHeight)
}

func summary(doc *fpdf.Fpdf, tr func(string) string, s report.Summary) {
	doc.Ln(6)
	doc.SetFont(fontFamily, "B", 10)
	doc.CellFormat(0, 6, "RESUMEN:", "", 1, "L", false, 0, "")
	doc.SetFont(fontFamily, "", 10)
	lines := []string{
		fmt.Sprintf("Total de movimientos: %d", s.Total),
		fmt.Sprintf("Depósitos: %d (%s)", s.Deposits, money(s.DepositTotal)),
		fmt.Sprintf("Retiros: %d (%s)", s.Withdrawals, money(s.WithdrawalTotal)),
	}
	for _, l := range lines {
		doc.CellFormat(0, 6, tr(l), "", 1, "L", false, 0, "")
	}
}

func money(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-$" + d.Abs().StringFixed(2)
	}
	return "$" + d.StringFixed(2)
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}

var _ report.Renderer = (*Renderer)(nil)
