// Package notify defines the interface for run completion notifications.
// This abstraction keeps the pipeline independent of a specific message
// transport (e.g., GCP Pub/Sub).
package notify

import (
	"context"
	"time"
)

// Message summarises a finished run for downstream consumers.
type Message struct {
	RunID       string    `json:"run_id"`
	Reason      string    `json:"reason"`
	EventsTotal int       `json:"events_total"`
	Committed   bool      `json:"committed"`
	CommitHash  string    `json:"commit_hash,omitempty"`
	FinishedAt  time.Time `json:"finished_at"`
}

// Provider publishes run completion messages.
type Provider interface {
	// Publish sends the message to the configured destination. It may be
	// a non-blocking, asynchronous operation.
	Publish(ctx context.Context, msg Message) error

	// Close cleans up any client connections and resources.
	Close() error
}

// NoOpProvider is a notify provider that performs no operations. It is
// the default when no transport is configured.
type NoOpProvider struct{}

// Publish for NoOpProvider does nothing and returns nil.
func (*NoOpProvider) Publish(context.Context, Message) error { return nil }

// Close for NoOpProvider does nothing and returns nil.
func (*NoOpProvider) Close() error { return nil }
