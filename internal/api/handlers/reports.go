package handlers

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/dvloznov/bank-backoffice/internal/api/middleware"
	"github.com/dvloznov/bank-backoffice/internal/export"
	"github.com/dvloznov/bank-backoffice/internal/jobs"
	"github.com/dvloznov/bank-backoffice/internal/report"
	"github.com/dvloznov/bank-backoffice/internal/validation"
	"github.com/rs/zerolog"
)

// ReportsHandler serves movement reports and queues report exports.
type ReportsHandler struct {
	reports   export.ReportSource
	publisher jobs.Publisher
	sinks     *export.Registry
	log       zerolog.Logger
}

// NewReportsHandler creates a new reports handler. publisher and sinks may be
// nil, in which case exports are refused.
func NewReportsHandler(reports export.ReportSource, publisher jobs.Publisher, sinks *export.Registry, log zerolog.Logger) *ReportsHandler {
	return &ReportsHandler{reports: reports, publisher: publisher, sinks: sinks, log: log}
}

// Register mounts the report routes on mux.
func (h *ReportsHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/reports", h.Daily)
	mux.HandleFunc("GET /api/reports/pdf", h.DailyPDF)
	mux.HandleFunc("GET /api/reports/statement", h.Statement)
	mux.HandleFunc("GET /api/reports/statement/pdf", h.StatementPDF)
	mux.HandleFunc("GET /api/reports/statement/preview", h.StatementPreview)
	mux.HandleFunc("POST /api/reports/export", h.Export)
}

type reportResponse struct {
	*report.Report
	FileName  string `json:"fileName,omitempty"`
	PDFBase64 string `json:"pdfBase64,omitempty"`
}

// Daily handles GET /api/reports?date=
func (h *ReportsHandler) Daily(w http.ResponseWriter, r *http.Request) {
	rep, ok := h.daily(w, r)
	if ok {
		writeReport(w, rep)
	}
}

// DailyPDF handles GET /api/reports/pdf?date=
func (h *ReportsHandler) DailyPDF(w http.ResponseWriter, r *http.Request) {
	rep, ok := h.daily(w, r)
	if ok {
		writePDF(w, rep)
	}
}

// Statement handles GET /api/reports/statement?startDate&endDate&clientName
func (h *ReportsHandler) Statement(w http.ResponseWriter, r *http.Request) {
	rep, ok := h.statement(w, r)
	if ok {
		writeReport(w, rep)
	}
}

// StatementPDF handles GET /api/reports/statement/pdf
func (h *ReportsHandler) StatementPDF(w http.ResponseWriter, r *http.Request) {
	rep, ok := h.statement(w, r)
	if ok {
		writePDF(w, rep)
	}
}

// StatementPreview handles GET /api/reports/statement/preview. It returns the
// service's text rendering when one was sent, otherwise a plain-text table.
func (h *ReportsHandler) StatementPreview(w http.ResponseWriter, r *http.Request) {
	rep, ok := h.statement(w, r)
	if !ok {
		return
	}
	if rep.Status != report.StatusSuccess {
		writeReport(w, rep)
		return
	}
	text := rep.Preview
	if text == "" {
		text = rep.Text()
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, text)
}

func (h *ReportsHandler) daily(w http.ResponseWriter, r *http.Request) (*report.Report, bool) {
	rep, err := h.reports.ByDate(r.Context(), r.URL.Query().Get("date"))
	if err != nil {
		writeFailure(w, r, err)
		return nil, false
	}
	return rep, true
}

func (h *ReportsHandler) statement(w http.ResponseWriter, r *http.Request) (*report.Report, bool) {
	q := r.URL.Query()
	rep, err := h.reports.ByClientAndRange(r.Context(), q.Get("startDate"), q.Get("endDate"), q.Get("clientName"))
	if err != nil {
		writeFailure(w, r, err)
		return nil, false
	}
	return rep, true
}

func reportStatus(rep *report.Report) int {
	if rep.Status == report.StatusUnavailable {
		return http.StatusServiceUnavailable
	}
	return http.StatusOK
}

func writeReport(w http.ResponseWriter, rep *report.Report) {
	resp := reportResponse{Report: rep}
	if rep.Status == report.StatusSuccess {
		resp.FileName = rep.FileName()
		resp.PDFBase64 = base64.StdEncoding.EncodeToString(rep.PDF)
	}
	middleware.WriteJSON(w, reportStatus(rep), resp)
}

func writePDF(w http.ResponseWriter, rep *report.Report) {
	switch rep.Status {
	case report.StatusEmpty:
		middleware.WriteError(w, http.StatusNotFound, rep.Message)
		return
	case report.StatusUnavailable:
		middleware.WriteError(w, http.StatusServiceUnavailable, rep.Message)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", rep.FileName()))
	w.Header().Set("Content-Length", strconv.Itoa(len(rep.PDF)))
	w.Header().Set("X-PDF-Source", string(rep.PDFSource))
	w.WriteHeader(http.StatusOK)
	w.Write(rep.PDF)
}

type exportRequest struct {
	Date       string   `json:"date"`
	ClientName string   `json:"clientName"`
	StartDate  string   `json:"startDate"`
	EndDate    string   `json:"endDate"`
	Sinks      []string `json:"sinks"`
}

// validate checks the request shape so obviously bad jobs never reach the queue.
func (req exportRequest) validate() error {
	if strings.TrimSpace(req.Date) != "" {
		_, err := validation.ParseReportDate(req.Date)
		return err
	}
	var v validation.Violations
	if _, _, err := validation.ValidateDateRange(req.StartDate, req.EndDate); err != nil {
		var verr *validation.Error
		if !errors.As(err, &verr) {
			return err
		}
		v = append(v, verr.Violations...)
	}
	if utf8.RuneCountInString(strings.TrimSpace(req.ClientName)) < validation.MinNameLength {
		v.Add("clientName", validation.MsgClientName)
	}
	return v.Err()
}

// Export handles POST /api/reports/export
func (h *ReportsHandler) Export(w http.ResponseWriter, r *http.Request) {
	if h.publisher == nil || h.sinks == nil {
		middleware.WriteError(w, http.StatusServiceUnavailable, "Report export is not configured")
		return
	}

	var req exportRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.validate(); err != nil {
		writeFailure(w, r, err)
		return
	}
	if _, err := h.sinks.Select(req.Sinks); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	job := &jobs.ExportReportJob{
		Date:       strings.TrimSpace(req.Date),
		ClientName: strings.TrimSpace(req.ClientName),
		StartDate:  strings.TrimSpace(req.StartDate),
		EndDate:    strings.TrimSpace(req.EndDate),
		Sinks:      req.Sinks,
	}
	if job.Date != "" {
		job.ClientName, job.StartDate, job.EndDate = "", "", ""
	}

	if err := h.publisher.PublishExportReport(r.Context(), job); err != nil {
		h.log.Error().Err(err).Msg("Failed to enqueue export job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue export job")
		return
	}

	h.log.Info().Str("job_id", job.JobID).Strs("sinks", job.Sinks).Msg("Export job enqueued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id": job.JobID,
		"status": string(job.Status),
	})
}
