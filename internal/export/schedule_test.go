package export

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dvloznov/bank-backoffice/internal/jobs"
)

type mockPublisher struct {
	PublishFunc func(ctx context.Context, job *jobs.ExportReportJob) error
	published   []*jobs.ExportReportJob
}

func (m *mockPublisher) PublishExportReport(ctx context.Context, job *jobs.ExportReportJob) error {
	if m.PublishFunc != nil {
		if err := m.PublishFunc(ctx, job); err != nil {
			return err
		}
	}
	job.JobID = "job-" + job.Date
	m.published = append(m.published, job)
	return nil
}

func (m *mockPublisher) Close() error { return nil }

func TestDailyScheduler_OncePerDay(t *testing.T) {
	pub := &mockPublisher{}
	s := NewDailyScheduler(pub, []string{SinkBigQuery}, time.Hour)
	now := time.Date(2024, 3, 15, 1, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	ctx := context.Background()

	job, err := s.Tick(ctx)
	if err != nil || job == nil {
		t.Fatalf("first tick: job %v, err %v", job, err)
	}
	if job.Date != "14/03/2024" || len(job.Sinks) != 1 || job.Sinks[0] != SinkBigQuery {
		t.Errorf("job = %+v", job)
	}

	now = now.Add(6 * time.Hour)
	if job, _ := s.Tick(ctx); job != nil {
		t.Errorf("same day ticked twice: %+v", job)
	}

	now = now.Add(24 * time.Hour)
	if job, _ := s.Tick(ctx); job == nil || job.Date != "15/03/2024" {
		t.Errorf("next day: %+v", job)
	}
	if len(pub.published) != 2 {
		t.Errorf("published %d jobs, want 2", len(pub.published))
	}
}

func TestDailyScheduler_RetriesAfterPublishFailure(t *testing.T) {
	fail := true
	pub := &mockPublisher{PublishFunc: func(ctx context.Context, job *jobs.ExportReportJob) error {
		if fail {
			return errors.New("queue closed")
		}
		return nil
	}}
	s := NewDailyScheduler(pub, nil, time.Hour)
	s.now = func() time.Time { return time.Date(2024, 3, 15, 1, 0, 0, 0, time.UTC) }

	if _, err := s.Tick(context.Background()); err == nil {
		t.Fatal("expected publish error")
	}
	fail = false
	if job, err := s.Tick(context.Background()); err != nil || job == nil {
		t.Errorf("retry tick: job %v, err %v", job, err)
	}
}
