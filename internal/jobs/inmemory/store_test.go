package inmemory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dvloznov/bank-backoffice/internal/jobs"
)

func TestStore_SaveReturnsCopies(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	job := &jobs.ExportReportJob{JobID: "j1", Sinks: []string{"gcs"}, Status: jobs.JobStatusPending}
	if err := s.SaveJob(ctx, job); err != nil {
		t.Fatalf("SaveJob failed: %v", err)
	}
	job.Sinks[0] = "notion"

	got, err := s.GetJob(ctx, "j1")
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if got.Sinks[0] != "gcs" {
		t.Error("stored job shares memory with caller")
	}
	got.Status = jobs.JobStatusFailed
	again, _ := s.GetJob(ctx, "j1")
	if again.Status != jobs.JobStatusPending {
		t.Error("returned job shares memory with store")
	}

	if err := s.SaveJob(ctx, &jobs.ExportReportJob{}); err == nil {
		t.Error("expected error for missing ID")
	}
	if _, err := s.GetJob(ctx, "missing"); !errors.Is(err, jobs.ErrJobNotFound) {
		t.Errorf("expected ErrJobNotFound, got %v", err)
	}
}

func TestStore_ListJobs(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	for i, j := range []*jobs.ExportReportJob{
		{JobID: "a", ClientName: "Jose Lema", Status: jobs.JobStatusCompleted},
		{JobID: "b", ClientName: "Marianela Montalvo", Status: jobs.JobStatusFailed, Sinks: []string{"gcs"}},
		{JobID: "c", ClientName: "jose lema", Status: jobs.JobStatusPending},
		{JobID: "d", Date: "15/03/2024", Status: jobs.JobStatusCompleted},
	} {
		j.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		if err := s.SaveJob(ctx, j); err != nil {
			t.Fatalf("SaveJob failed: %v", err)
		}
	}

	tests := []struct {
		name   string
		filter jobs.JobFilter
		want   []string
	}{
		{name: "all newest first", filter: jobs.JobFilter{}, want: []string{"d", "c", "b", "a"}},
		{name: "by client", filter: jobs.JobFilter{ClientName: "JOSE LEMA"}, want: []string{"c", "a"}},
		{name: "by status", filter: jobs.JobFilter{Status: jobs.JobStatusCompleted}, want: []string{"d", "a"}},
		{name: "paged", filter: jobs.JobFilter{Offset: 1, Limit: 2}, want: []string{"c", "b"}},
		{name: "offset past end", filter: jobs.JobFilter{Offset: 10}, want: []string{}},
		{name: "by sink", filter: jobs.JobFilter{Sink: "notion"}, want: []string{"d", "c", "a"}},
		{name: "explicit sink", filter: jobs.JobFilter{Sink: "GCS"}, want: []string{"d", "c", "b", "a"}},
		{name: "created after", filter: jobs.JobFilter{CreatedAfter: base.Add(time.Hour)}, want: []string{"d", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ListJobs(ctx, tt.filter)
			if err != nil {
				t.Fatalf("ListJobs failed: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d jobs, want %d", len(got), len(tt.want))
			}
			for i, id := range tt.want {
				if got[i].JobID != id {
					t.Errorf("position %d = %s, want %s", i, got[i].JobID, id)
				}
			}
		})
	}
}

func TestStore_UpdateJobStatus(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	_ = s.SaveJob(ctx, &jobs.ExportReportJob{JobID: "j1", Status: jobs.JobStatusRunning})

	if err := s.UpdateJobStatus(ctx, "j1", jobs.JobStatusFailed, "boom"); err != nil {
		t.Fatalf("UpdateJobStatus failed: %v", err)
	}
	got, _ := s.GetJob(ctx, "j1")
	if got.Status != jobs.JobStatusFailed || got.Error != "boom" {
		t.Errorf("job = %+v", got)
	}
	if got.CompletedAt == nil {
		t.Error("failed job should have CompletedAt")
	}
	if err := s.UpdateJobStatus(ctx, "nope", jobs.JobStatusFailed, ""); !errors.Is(err, jobs.ErrJobNotFound) {
		t.Errorf("expected ErrJobNotFound, got %v", err)
	}
}

func TestStore_UpdateJobStatusStampsTimes(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	clock := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }
	_ = s.SaveJob(ctx, &jobs.ExportReportJob{JobID: "j1", Status: jobs.JobStatusPending})

	if err := s.UpdateJobStatus(ctx, "j1", jobs.JobStatusRunning, ""); err != nil {
		t.Fatal(err)
	}
	clock = clock.Add(time.Minute)
	if err := s.UpdateJobStatus(ctx, "j1", jobs.JobStatusRunning, ""); err != nil {
		t.Fatal(err)
	}
	got, _ := s.GetJob(ctx, "j1")
	if got.StartedAt == nil || !got.StartedAt.Equal(clock.Add(-time.Minute)) {
		t.Errorf("StartedAt = %v, want first transition time", got.StartedAt)
	}
	if got.CompletedAt != nil {
		t.Error("running job should not have CompletedAt")
	}

	_ = s.UpdateJobStatus(ctx, "j1", jobs.JobStatusCompleted, "")
	got, _ = s.GetJob(ctx, "j1")
	if got.CompletedAt == nil || !got.CompletedAt.Equal(clock) {
		t.Errorf("CompletedAt = %v, want %v", got.CompletedAt, clock)
	}
}

func TestStore_Prune(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	cutoff := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	old := cutoff.Add(-48 * time.Hour)
	recent := cutoff.Add(time.Hour)

	for _, j := range []*jobs.ExportReportJob{
		{JobID: "old-done", Status: jobs.JobStatusCompleted, CreatedAt: old, CompletedAt: &old},
		{JobID: "old-failed", Status: jobs.JobStatusFailed, CreatedAt: old},
		{JobID: "old-pending", Status: jobs.JobStatusPending, CreatedAt: old},
		{JobID: "old-retrying", Status: jobs.JobStatusRetrying, CreatedAt: old},
		{JobID: "new-done", Status: jobs.JobStatusCompleted, CreatedAt: old, CompletedAt: &recent},
	} {
		if err := s.SaveJob(ctx, j); err != nil {
			t.Fatal(err)
		}
	}

	if removed := s.Prune(ctx, cutoff); removed != 2 {
		t.Errorf("removed %d jobs, want 2", removed)
	}
	for _, id := range []string{"old-pending", "old-retrying", "new-done"} {
		if _, err := s.GetJob(ctx, id); err != nil {
			t.Errorf("%s should survive: %v", id, err)
		}
	}
	for _, id := range []string{"old-done", "old-failed"} {
		if _, err := s.GetJob(ctx, id); !errors.Is(err, jobs.ErrJobNotFound) {
			t.Errorf("%s should be pruned, got %v", id, err)
		}
	}
}
