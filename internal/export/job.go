package export

import (
	"context"
	"errors"
	"fmt"

	"github.com/dvloznov/bank-backoffice/internal/jobs"
	"github.com/dvloznov/bank-backoffice/internal/logger"
	"github.com/dvloznov/bank-backoffice/internal/report"
	"github.com/dvloznov/bank-backoffice/internal/validation"
)

// ReportSource assembles reports; *report.Assembler satisfies it.
type ReportSource interface {
	ByDate(ctx context.Context, date string) (*report.Report, error)
	ByClientAndRange(ctx context.Context, start, end, clientName string) (*report.Report, error)
}

// Runner executes export jobs.
type Runner struct {
	reports ReportSource
	sinks   *Registry
}

func NewRunner(reports ReportSource, sinks *Registry) *Runner {
	return &Runner{reports: reports, sinks: sinks}
}

// Handle is a jobs.JobHandler. Invalid requests and unknown sinks fail the
// job permanently; an unreachable transaction service or a failing sink is
// retried. A report with no movements completes with a message and no exports.
func (x *Runner) Handle(ctx context.Context, job jobs.Job) error {
	j, ok := job.(*jobs.ExportReportJob)
	if !ok {
		return jobs.Permanent(fmt.Errorf("unexpected job type: %T", job))
	}
	log := logger.FromContext(ctx).With().Str("job_id", j.JobID).Logger()
	ctx = logger.WithContext(ctx, log)

	sinks, err := x.sinks.Select(j.Sinks)
	if err != nil {
		return jobs.Permanent(err)
	}

	r, err := x.assemble(ctx, j)
	if err != nil {
		var verr *validation.Error
		if errors.As(err, &verr) {
			return jobs.Permanent(err)
		}
		return err
	}
	j.ReportID = r.ID

	switch r.Status {
	case report.StatusUnavailable:
		return errors.New(r.Message)
	case report.StatusEmpty:
		j.Message = r.Message
		j.Results = nil
		log.Info().Str("report_id", r.ID).Msg("Report has no movements, nothing exported")
		return nil
	}

	j.Results = j.Results[:0]
	var failed []error
	for _, s := range sinks {
		res, err := s.Export(ctx, r)
		if err != nil {
			log.Warn().Err(err).Str("sink", s.Name()).Msg("Export sink failed")
			j.Results = append(j.Results, jobs.SinkResult{Sink: s.Name(), Error: err.Error()})
			failed = append(failed, err)
			continue
		}
		j.Results = append(j.Results, jobs.SinkResult{Sink: res.Sink, Location: res.Location, Items: res.Items})
	}
	if len(failed) > 0 {
		return fmt.Errorf("%d of %d sinks failed: %w", len(failed), len(sinks), errors.Join(failed...))
	}

	log.Info().Str("report_id", r.ID).Int("sinks", len(sinks)).Msg("Report exported")
	return nil
}

func (x *Runner) assemble(ctx context.Context, j *jobs.ExportReportJob) (*report.Report, error) {
	if j.IsStatement() {
		return x.reports.ByClientAndRange(ctx, j.StartDate, j.EndDate, j.ClientName)
	}
	return x.reports.ByDate(ctx, j.Date)
}
