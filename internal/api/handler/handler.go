package handler

import (
	"context"
	"log/slog"

	"github.com/tqcuong/triagebot/internal/jobs"
)

// EventHandler consumes decoded webhook events.
type EventHandler interface {
	HandleEvent(ctx context.Context, event any) error
}

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger        *slog.Logger
	Events        EventHandler
	Store         jobs.Store
	WebhookSecret string
}

// WebhookHandler handles GitHub webhook deliveries.
type WebhookHandler struct {
	logger *slog.Logger
	events EventHandler
	secret []byte
}

// NewWebhookHandler creates a new WebhookHandler instance
func NewWebhookHandler(deps *Dependencies) *WebhookHandler {
	return &WebhookHandler{
		logger: deps.Logger,
		events: deps.Events,
		secret: []byte(deps.WebhookSecret),
	}
}

// JobHandler handles job-related HTTP requests
type JobHandler struct {
	logger *slog.Logger
	store  jobs.Store
}

// NewJobHandler creates a new JobHandler instance
func NewJobHandler(deps *Dependencies) *JobHandler {
	return &JobHandler{
		logger: deps.Logger,
		store:  deps.Store,
	}
}
