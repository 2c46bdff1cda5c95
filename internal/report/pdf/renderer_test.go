package pdf

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/dvloznov/bank-backoffice/internal/domain"
	"github.com/dvloznov/bank-backoffice/internal/report"
	"github.com/shopspring/decimal"
)

func sampleReport(n int) *report.Report {
	rows := make([]domain.ReportRow, 0, n)
	for i := 0; i < n; i++ {
		mov := decimal.NewFromInt(int64(100 + i))
		if i%2 == 1 {
			mov = mov.Neg()
		}
		rows = append(rows, domain.ReportRow{
			Fecha:           "15/03/2024",
			Cliente:         "Marianela Montalvo Pérez",
			NumeroCuenta:    fmt.Sprintf("%06d", 225487+i),
			Tipo:            "Corriente",
			SaldoInicial:    decimal.NewFromInt(1000),
			Estado:          true,
			Movimiento:      mov,
			SaldoDisponible: decimal.NewFromInt(1000).Add(mov),
		})
	}
	return &report.Report{
		Kind:        report.KindDaily,
		Status:      report.StatusSuccess,
		Date:        time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		Rows:        rows,
		Summary:     report.Summarize(rows),
		GeneratedAt: time.Date(2024, 3, 16, 9, 0, 0, 0, time.UTC),
	}
}

func TestRender_ProducesPDF(t *testing.T) {
	out, err := New().Render(sampleReport(3))
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !report.IsPDF(out) {
		t.Fatalf("output does not start with %%PDF: %q", out[:min(len(out), 16)])
	}
}

func TestRender_Paginates(t *testing.T) {
	tests := []struct {
		rows      int
		wantPages int
	}{
		{rows: 1, wantPages: 1},
		{rows: 20, wantPages: 1},
		{rows: 80, wantPages: 3},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d rows", tt.rows), func(t *testing.T) {
			doc, err := New().build(sampleReport(tt.rows))
			if err != nil {
				t.Fatalf("build failed: %v", err)
			}
			if got := doc.PageCount(); got != tt.wantPages {
				t.Errorf("pages = %d, want %d", got, tt.wantPages)
			}
		})
	}
}

func TestRender_UncompressedContent(t *testing.T) {
	r := &Renderer{compress: false, now: time.Now}
	rep := sampleReport(2)
	rep.Kind = report.KindStatement
	rep.ClientName = "Jose Lema"
	rep.StartDate = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	rep.EndDate = time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)

	out, err := r.Render(rep)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	for _, want := range []string{
		"BANCO - Reporte de Movimientos",
		"Cliente: Jose Lema",
		"Periodo: 01/03/2024 - 31/03/2024",
		"RESUMEN:",
		"Banking System - Confidencial",
		"Marianela Monta", // truncated to 15 characters
		"-$101.00",
		"de 1)",
	} {
		if !bytes.Contains(out, []byte(want)) {
			t.Errorf("expected PDF content to contain %q", want)
		}
	}
	if bytes.Contains(out, []byte("Marianela Montalvo")) {
		t.Error("client name should be truncated")
	}
}

func TestRender_EmptyReport(t *testing.T) {
	r := &Renderer{compress: false, now: time.Now}
	rep := sampleReport(0)
	rep.Status = report.StatusEmpty

	out, err := r.Render(rep)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !bytes.Contains(out, []byte("No se encontraron movimientos")) {
		t.Error("expected empty-report notice")
	}
}

func TestTruncateAndMoney(t *testing.T) {
	if got := truncate("Álvaro Núñez Cabeza de Vaca", 6); got != "Álvaro" {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("Jose", 15); got != "Jose" {
		t.Errorf("truncate = %q", got)
	}
	if got := money(decimal.RequireFromString("-575")); got != "-$575.00" {
		t.Errorf("money = %q", got)
	}
	if got := money(decimal.RequireFromString("1425.5")); got != "$1425.50" {
		t.Errorf("money = %q", got)
	}
}
