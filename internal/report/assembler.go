package report

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dvloznov/bank-backoffice/internal/domain"
	"github.com/dvloznov/bank-backoffice/internal/gateway"
	"github.com/dvloznov/bank-backoffice/internal/logger"
	"github.com/dvloznov/bank-backoffice/internal/usecase"
	"github.com/dvloznov/bank-backoffice/internal/validation"
	"github.com/google/uuid"
)

// Renderer turns an assembled report into PDF bytes.
type Renderer interface {
	Render(r *Report) ([]byte, error)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(r *Report) ([]byte, error)

func (f RendererFunc) Render(r *Report) ([]byte, error) { return f(r) }

// Assembler builds reports from the transaction service.
type Assembler struct {
	gw       gateway.TransactionGateway
	renderer Renderer
	now      func() time.Time
}

// NewAssembler creates an Assembler. renderer is used whenever the service
// does not provide a usable PDF.
func NewAssembler(gw gateway.TransactionGateway, renderer Renderer) *Assembler {
	return &Assembler{gw: gw, renderer: renderer, now: time.Now}
}

// ByDate builds the movements report for one day. date may be D/M/YYYY or
// YYYY-MM-DD; the service always receives DD/MM/YYYY.
func (a *Assembler) ByDate(ctx context.Context, date string) (*Report, error) {
	day, err := validation.ParseReportDate(date)
	if err != nil {
		return nil, err
	}

	r := a.newReport(KindDaily)
	r.Date = day

	rows, err := a.gw.GetReport(ctx, validation.FormatDisplay(day))
	if done, cerr := a.classify(ctx, r, "report", err, MsgEmpty); done {
		if cerr != nil {
			return nil, cerr
		}
		return r, nil
	}
	return a.finish(ctx, r, rows, "")
}

// ByClientAndRange builds a client statement between two dates, inclusive.
// The service receives ISO dates.
func (a *Assembler) ByClientAndRange(ctx context.Context, start, end, clientName string) (*Report, error) {
	var v validation.Violations
	from, to, err := validation.ValidateDateRange(start, end)
	var verr *validation.Error
	if errors.As(err, &verr) {
		v = append(v, verr.Violations...)
	}
	clientName = strings.TrimSpace(clientName)
	if utf8.RuneCountInString(clientName) < validation.MinNameLength {
		v.Add("clientName", validation.MsgClientName)
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	r := a.newReport(KindStatement)
	r.StartDate, r.EndDate, r.ClientName = from, to, clientName

	resp, err := a.gw.GetStatement(ctx, validation.FormatISO(from), validation.FormatISO(to), clientName)
	if done, cerr := a.classify(ctx, r, "statement", err, MsgEmptyRange); done {
		if cerr != nil {
			return nil, cerr
		}
		return r, nil
	}
	var rows []domain.ReportRow
	var payload string
	if resp != nil {
		rows, payload = resp.ReportData, resp.PDFBase64
	}
	return a.finish(ctx, r, rows, payload)
}

func (a *Assembler) newReport(kind Kind) *Report {
	return &Report{
		ID:          uuid.New().String(),
		Kind:        kind,
		GeneratedAt: a.now(),
		Rows:        []domain.ReportRow{},
	}
}

// classify settles gateway failures. It returns done=true when r is final,
// with a non-nil error only for failures that are neither "unreachable" nor
// "no movements".
func (a *Assembler) classify(ctx context.Context, r *Report, op string, err error, emptyMsg string) (bool, error) {
	if err == nil {
		return false, nil
	}
	log := logger.FromContext(ctx)

	switch {
	case gateway.IsTransport(err):
		log.Warn().Err(err).Str("report_id", r.ID).Msg("Transaction service unavailable")
		r.Status = StatusUnavailable
		r.Message = MsgUnavailable
		return true, nil
	case errors.Is(err, gateway.ErrNotFound):
		r.Status = StatusEmpty
		r.Message = emptyMsg
		return true, nil
	default:
		return true, usecase.Wrap(usecase.EntityTransaction, op, err)
	}
}

func (a *Assembler) finish(ctx context.Context, r *Report, rows []domain.ReportRow, payload string) (*Report, error) {
	log := logger.FromContext(ctx)

	if len(rows) == 0 {
		r.Status = StatusEmpty
		if r.Kind == KindStatement {
			r.Message = MsgEmptyRange
		} else {
			r.Message = MsgEmpty
		}
		return r, nil
	}

	r.Status = StatusSuccess
	r.Rows = rows
	r.Summary = Summarize(rows)

	if payload != "" {
		data, err := DecodePDF(payload)
		switch {
		case err != nil:
			log.Warn().Err(err).Str("report_id", r.ID).Msg("Service PDF payload undecodable, rendering locally")
			r.DecodeErr = err
		case IsPDF(data):
			r.PDF = data
			r.PDFSource = PDFSourceService
			return r, nil
		default:
			if utf8.Valid(data) {
				r.Preview = string(data)
			}
			log.Debug().Str("report_id", r.ID).Msg("Service payload is not a PDF, rendering locally")
		}
	}

	pdf, err := a.renderer.Render(r)
	if err != nil {
		if r.DecodeErr != nil {
			return nil, r.DecodeErr
		}
		return nil, fmt.Errorf("rendering report %s: %w", r.ID, err)
	}
	r.PDF = pdf
	r.PDFSource = PDFSourceLocal

	log.Info().
		Str("report_id", r.ID).
		Str("kind", string(r.Kind)).
		Int("rows", len(rows)).
		Str("pdf_source", string(r.PDFSource)).
		Msg("Report assembled")
	return r, nil
}
