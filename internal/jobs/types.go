package jobs

import (
	"context"
	"errors"
	"time"
)

// JobType represents the type of job to be executed.
type JobType string

const (
	// JobTypeExportReport assembles a report and ships it to export sinks.
	JobTypeExportReport JobType = "export_report"
)

// JobStatus represents the current status of a job.
type JobStatus string

const (
	// JobStatusPending indicates the job is waiting to be processed.
	JobStatusPending JobStatus = "pending"
	// JobStatusRunning indicates the job is currently being processed.
	JobStatusRunning JobStatus = "running"
	// JobStatusCompleted indicates the job completed successfully.
	JobStatusCompleted JobStatus = "completed"
	// JobStatusFailed indicates the job failed.
	JobStatusFailed JobStatus = "failed"
	// JobStatusRetrying indicates the job failed and is being retried.
	JobStatusRetrying JobStatus = "retrying"
)

// ErrJobNotFound is returned by a JobStore for unknown job IDs.
var ErrJobNotFound = errors.New("job not found")

// SinkResult records what one export sink did for a job.
type SinkResult struct {
	Sink     string `json:"sink"`
	Location string `json:"location,omitempty"`
	Items    int    `json:"items"`
	Error    string `json:"error,omitempty"`
}

// ExportReportJob asks for a report to be assembled and exported. Either Date
// (daily report) or ClientName with StartDate and EndDate (statement) is set.
type ExportReportJob struct {
	JobID string `json:"job_id"`

	Date       string `json:"date,omitempty"`
	ClientName string `json:"client_name,omitempty"`
	StartDate  string `json:"start_date,omitempty"`
	EndDate    string `json:"end_date,omitempty"`

	// Sinks names the export destinations; empty means all configured sinks.
	Sinks []string `json:"sinks,omitempty"`

	// ReportID is set once the report has been assembled.
	ReportID string `json:"report_id,omitempty"`

	// Message carries a non-error outcome, such as a report with no movements.
	Message string       `json:"message,omitempty"`
	Results []SinkResult `json:"results,omitempty"`

	Status      JobStatus  `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       string     `json:"error,omitempty"`
	RetryCount  int        `json:"retry_count"`
	MaxRetries  int        `json:"max_retries"`
}

// IsStatement reports whether the job targets a client statement rather than
// a daily report.
func (j *ExportReportJob) IsStatement() bool {
	return j.Date == "" && (j.ClientName != "" || j.StartDate != "" || j.EndDate != "")
}

// Clone returns a deep copy of j.
func (j *ExportReportJob) Clone() *ExportReportJob {
	c := *j
	c.Sinks = append([]string(nil), j.Sinks...)
	c.Results = append([]SinkResult(nil), j.Results...)
	if j.StartedAt != nil {
		t := *j.StartedAt
		c.StartedAt = &t
	}
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}

// Job is a generic interface for all job types.
type Job interface {
	GetID() string
	GetType() JobType
	GetStatus() JobStatus
}

func (j *ExportReportJob) GetID() string        { return j.JobID }
func (j *ExportReportJob) GetType() JobType     { return JobTypeExportReport }
func (j *ExportReportJob) GetStatus() JobStatus { return j.Status }

// Publisher defines the interface for publishing jobs to a queue.
type Publisher interface {
	// PublishExportReport enqueues a report export job.
	PublishExportReport(ctx context.Context, job *ExportReportJob) error

	// Close closes the publisher and releases resources.
	Close() error
}

// Consumer defines the interface for consuming jobs from a queue.
type Consumer interface {
	// Start begins consuming jobs from the queue.
	// The handler function is called for each job received.
	Start(ctx context.Context, handler JobHandler) error

	// Stop stops consuming jobs and waits for in-flight jobs to complete.
	Stop(ctx context.Context) error
}

// JobHandler is a function that processes a job.
// It should return an error if the job failed and should be retried.
type JobHandler func(ctx context.Context, job Job) error

// PermanentError marks a handler failure that retrying cannot fix.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent wraps err so the queue fails the job without retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// IsPermanent reports whether err was wrapped with Permanent.
func IsPermanent(err error) bool {
	var p *PermanentError
	return errors.As(err, &p)
}

// JobStore defines the interface for storing and retrieving job status.
type JobStore interface {
	// SaveJob saves or updates a job's state.
	SaveJob(ctx context.Context, job *ExportReportJob) error

	// GetJob retrieves a job by ID.
	GetJob(ctx context.Context, jobID string) (*ExportReportJob, error)

	// ListJobs retrieves jobs with optional filtering, newest first.
	ListJobs(ctx context.Context, filter JobFilter) ([]*ExportReportJob, error)

	// UpdateJobStatus updates the status of a job.
	UpdateJobStatus(ctx context.Context, jobID string, status JobStatus, errorMsg string) error
}

// JobFilter defines filtering criteria for listing jobs.
type JobFilter struct {
	// ClientName filters jobs by client, case-insensitively.
	ClientName string

	// Status filters jobs by status.
	Status JobStatus

	// Sink keeps jobs that export to the named sink.
	Sink string

	// CreatedAfter keeps jobs created strictly after this instant.
	CreatedAfter time.Time

	// Limit limits the number of results.
	Limit int

	// Offset for pagination.
	Offset int
}
