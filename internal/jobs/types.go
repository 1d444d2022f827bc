// Package jobs defines asynchronous insight generation jobs and the queue and
// store contracts that run them.
package jobs

import (
	"context"
	"errors"
	"time"
)

// JobType represents the type of job to be executed.
type JobType string

const (
	// JobTypeGenerateInsights runs insight generation for one user.
	JobTypeGenerateInsights JobType = "generate_insights"
)

// JobStatus represents the current status of a job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	// JobStatusRetrying means the last attempt failed and another is scheduled.
	JobStatusRetrying JobStatus = "retrying"
)

// Terminal reports whether no further attempts will run.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Trigger records what requested a job.
type Trigger string

const (
	TriggerAPI      Trigger = "api"
	TriggerSchedule Trigger = "schedule"
	TriggerCLI      Trigger = "cli"
)

// GenerateInsightsJob requests one insight generation run for a user.
type GenerateInsightsJob struct {
	JobID   string  `json:"jobId"`
	UserID  string  `json:"userId"`
	Trigger Trigger `json:"trigger,omitempty"`

	Status JobStatus `json:"status"`

	CreatedAt   time.Time  `json:"createdAt"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`

	// Error holds the last attempt's failure, cleared on success.
	Error string `json:"error,omitempty"`

	RetryCount int `json:"retryCount"`
	MaxRetries int `json:"maxRetries"`

	// InsightCount is the number of insights the successful run produced.
	InsightCount int `json:"insightCount"`
}

// Job is a generic interface for all job types.
type Job interface {
	GetID() string
	GetType() JobType
	GetStatus() JobStatus
}

func (j *GenerateInsightsJob) GetID() string { return j.JobID }

func (j *GenerateInsightsJob) GetType() JobType { return JobTypeGenerateInsights }

func (j *GenerateInsightsJob) GetStatus() JobStatus { return j.Status }

// Publisher enqueues jobs.
type Publisher interface {
	// PublishGenerateInsights fills in defaults, records the job and enqueues it.
	PublishGenerateInsights(ctx context.Context, job *GenerateInsightsJob) error

	Close() error
}

// Consumer runs queued jobs.
type Consumer interface {
	// Start launches workers that call handler for each job.
	Start(ctx context.Context, handler JobHandler) error

	// Stop stops the workers and waits for in-flight jobs to finish.
	Stop(ctx context.Context) error
}

// JobHandler processes one job. A returned error marks the attempt failed and
// schedules a retry while retries remain. Handlers may set job.InsightCount.
type JobHandler func(ctx context.Context, job *GenerateInsightsJob) error

// JobStore records job state. Implementations store and return copies.
type JobStore interface {
	SaveJob(ctx context.Context, job *GenerateInsightsJob) error

	// GetJob returns a domain.NotFoundError for unknown IDs.
	GetJob(ctx context.Context, jobID string) (*GenerateInsightsJob, error)

	// ListJobs returns matching jobs, newest first.
	ListJobs(ctx context.Context, filter JobFilter) ([]*GenerateInsightsJob, error)

	UpdateJobStatus(ctx context.Context, jobID string, status JobStatus, errorMsg string) error
}

// JobFilter defines filtering criteria for listing jobs.
type JobFilter struct {
	UserID string
	Status JobStatus

	Limit  int
	Offset int
}

// PermanentError marks a handler failure that retrying cannot fix.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }

func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent wraps err so the consumer fails the job without retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// IsPermanent reports whether err was wrapped with Permanent.
func IsPermanent(err error) bool {
	var perr *PermanentError
	return errors.As(err, &perr)
}
