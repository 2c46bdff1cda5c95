package export

import (
	"context"
	"time"

	"github.com/dvloznov/bank-backoffice/internal/jobs"
	"github.com/dvloznov/bank-backoffice/internal/logger"
	"github.com/dvloznov/bank-backoffice/internal/validation"
)

// DailyScheduler queues the export of the previous day's movements report,
// once per calendar day.
type DailyScheduler struct {
	publisher jobs.Publisher
	sinks     []string
	interval  time.Duration
	now       func() time.Time
	last      string
}

// NewDailyScheduler checks every interval whether yesterday's report still
// needs exporting to sinks (empty means all configured sinks).
func NewDailyScheduler(publisher jobs.Publisher, sinks []string, interval time.Duration) *DailyScheduler {
	return &DailyScheduler{publisher: publisher, sinks: sinks, interval: interval, now: time.Now}
}

// Tick publishes yesterday's export unless this scheduler already did. It
// returns the published job, or nil when there was nothing to do.
func (s *DailyScheduler) Tick(ctx context.Context) (*jobs.ExportReportJob, error) {
	day := validation.FormatDisplay(s.now().AddDate(0, 0, -1))
	if day == s.last {
		return nil, nil
	}

	job := &jobs.ExportReportJob{Date: day, Sinks: s.sinks}
	if err := s.publisher.PublishExportReport(ctx, job); err != nil {
		return nil, err
	}
	s.last = day

	log := logger.FromContext(ctx)
	log.Info().Str("job_id", job.JobID).Str("date", day).Msg("Daily export scheduled")
	return job, nil
}

// Run ticks immediately and then every interval until ctx is cancelled.
func (s *DailyScheduler) Run(ctx context.Context) error {
	log := logger.FromContext(ctx)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if _, err := s.Tick(ctx); err != nil {
			log.Error().Err(err).Msg("Failed to schedule daily export")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
