// Package events publishes bot activity to a message broker so other systems
// can follow what the scheduler is doing. Publishing is strictly best-effort:
// a broker outage never affects scheduling.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tqcuong/triagebot/internal/jobs"
	"github.com/tqcuong/triagebot/shared/rabbitmq"
)

// Event kinds.
const (
	KindJobScheduled = "job.scheduled"
	KindJobCancelled = "job.cancelled"
	KindJobFired     = "job.fired"
)

const publishTimeout = 5 * time.Second

// Event is the JSON envelope published for every scheduler state change.
type Event struct {
	ID           string     `json:"id"`
	Kind         string     `json:"kind"`
	JobID        string     `json:"job_id"`
	RepoFullName string     `json:"repo_full_name,omitempty"`
	IssueNumber  int        `json:"issue_number,omitempty"`
	RunAt        *time.Time `json:"run_at,omitempty"`
	Error        string     `json:"error,omitempty"`
	At           time.Time  `json:"at"`
}

// Publisher emits scheduler activity events to RabbitMQ. It satisfies the
// scheduler's Notifier interface.
type Publisher struct {
	logger *slog.Logger
	client *rabbitmq.Client
}

// NewPublisher creates a new Publisher instance
func NewPublisher(logger *slog.Logger, client *rabbitmq.Client) *Publisher {
	return &Publisher{
		logger: logger,
		client: client,
	}
}

// JobScheduled reports that a job was scheduled or rescheduled.
func (p *Publisher) JobScheduled(job jobs.Job) {
	runAt := job.RunAt
	p.publish(Event{
		Kind:         KindJobScheduled,
		JobID:        job.ID,
		RepoFullName: job.RepoFullName,
		IssueNumber:  job.IssueNumber,
		RunAt:        &runAt,
	})
}

// JobCancelled reports that a job was cancelled.
func (p *Publisher) JobCancelled(id string) {
	p.publish(Event{
		Kind:  KindJobCancelled,
		JobID: id,
	})
}

// JobFired reports that a job's action was dispatched.
func (p *Publisher) JobFired(job jobs.Job, err error) {
	event := Event{
		Kind:         KindJobFired,
		JobID:        job.ID,
		RepoFullName: job.RepoFullName,
		IssueNumber:  job.IssueNumber,
	}
	if err != nil {
		event.Error = err.Error()
	}
	p.publish(event)
}

func (p *Publisher) publish(event Event) {
	event.ID = uuid.New().String()
	event.At = time.Now()

	body, err := json.Marshal(event)
	if err != nil {
		p.logger.Warn("Failed to marshal activity event",
			slog.String("kind", event.Kind),
			slog.Any("error", err),
		)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	if err := p.client.Publish(ctx, body, "application/json"); err != nil {
		p.logger.Warn("Failed to publish activity event",
			slog.String("kind", event.Kind),
			slog.String("job_id", event.JobID),
			slog.Any("error", err),
		)
	}
}
