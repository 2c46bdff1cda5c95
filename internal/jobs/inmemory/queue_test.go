package inmemory

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dvloznov/bank-backoffice/internal/jobs"
)

func waitForStatus(t *testing.T, store *Store, jobID string, want jobs.JobStatus) *jobs.ExportReportJob {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		job, err := store.GetJob(context.Background(), jobID)
		if err == nil && job.Status == want {
			return job
		}
		time.Sleep(5 * time.Millisecond)
	}
	job, _ := store.GetJob(context.Background(), jobID)
	t.Fatalf("job %s did not reach %s (last: %+v)", jobID, want, job)
	return nil
}

func noBackoff(int) time.Duration { return 0 }

func TestQueue_ProcessesJob(t *testing.T) {
	store := NewStore()
	q := NewQueue(10, store, WithWorkers(1), WithBackoff(noBackoff))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	handler := func(ctx context.Context, job jobs.Job) error {
		j := job.(*jobs.ExportReportJob)
		j.ReportID = "rep-1"
		j.Results = []jobs.SinkResult{{Sink: "gcs", Items: 1}}
		return nil
	}
	if err := q.Start(ctx, handler); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer q.Close()

	job := &jobs.ExportReportJob{Date: "15/03/2024"}
	if err := q.PublishExportReport(ctx, job); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if job.JobID == "" || job.MaxRetries != defaultMaxRetries {
		t.Errorf("defaults not applied: %+v", job)
	}

	done := waitForStatus(t, store, job.JobID, jobs.JobStatusCompleted)
	if done.ReportID != "rep-1" || len(done.Results) != 1 || done.CompletedAt == nil {
		t.Errorf("completed job = %+v", done)
	}
}

func TestQueue_RetriesThenFails(t *testing.T) {
	store := NewStore()
	q := NewQueue(10, store, WithWorkers(2), WithMaxRetries(2), WithBackoff(noBackoff))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var attempts atomic.Int32
	handler := func(ctx context.Context, job jobs.Job) error {
		attempts.Add(1)
		return errors.New("transaction service down")
	}
	if err := q.Start(ctx, handler); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer q.Close()

	job := &jobs.ExportReportJob{Date: "15/03/2024"}
	if err := q.PublishExportReport(ctx, job); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	failed := waitForStatus(t, store, job.JobID, jobs.JobStatusFailed)
	if failed.RetryCount != 2 || attempts.Load() != 3 {
		t.Errorf("retries = %d, attempts = %d", failed.RetryCount, attempts.Load())
	}
	if failed.Error == "" {
		t.Error("expected error message on failed job")
	}
}

func TestQueue_PermanentErrorSkipsRetry(t *testing.T) {
	store := NewStore()
	q := NewQueue(10, store, WithWorkers(1), WithBackoff(noBackoff))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var attempts atomic.Int32
	handler := func(ctx context.Context, job jobs.Job) error {
		attempts.Add(1)
		return jobs.Permanent(errors.New("bad date"))
	}
	if err := q.Start(ctx, handler); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer q.Close()

	job := &jobs.ExportReportJob{Date: "x"}
	if err := q.PublishExportReport(ctx, job); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	failed := waitForStatus(t, store, job.JobID, jobs.JobStatusFailed)
	if failed.RetryCount != 0 || attempts.Load() != 1 {
		t.Errorf("retries = %d, attempts = %d", failed.RetryCount, attempts.Load())
	}
}

func TestQueue_ClosedRejectsPublish(t *testing.T) {
	q := NewQueue(1, NewStore())
	if err := q.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := q.PublishExportReport(context.Background(), &jobs.ExportReportJob{}); !errors.Is(err, ErrQueueClosed) {
		t.Errorf("expected ErrQueueClosed, got %v", err)
	}
	if err := q.Start(context.Background(), nil); !errors.Is(err, ErrQueueClosed) {
		t.Errorf("expected ErrQueueClosed from Start, got %v", err)
	}
	// Stop is idempotent.
	if err := q.Stop(context.Background()); err != nil {
		t.Errorf("second Stop: %v", err)
	}
}
