// Package runs persists the outcome of each pipeline run.
package runs

import (
	"context"
	"errors"
	"time"
)

// ErrNoRuns is returned by LatestRun before the first run completes.
var ErrNoRuns = errors.New("no runs recorded")

// Record is the durable summary of one pipeline run.
type Record struct {
	ID             string         `json:"id"`
	Reason         string         `json:"reason"`
	StartedAt      time.Time      `json:"started_at"`
	FinishedAt     time.Time      `json:"finished_at"`
	SourceCounts   map[string]int `json:"source_counts"`
	EventsTotal    int            `json:"events_total"`
	ArtifactDigest string         `json:"artifact_digest"`
	Committed      bool           `json:"committed"`
	CommitHash     string         `json:"commit_hash,omitempty"`
	ErrorText      string         `json:"error,omitempty"`
}

// Provider stores and retrieves run records.
type Provider interface {
	RecordRun(ctx context.Context, rec Record) error
	LatestRun(ctx context.Context) (Record, error)
	Close()
}

// NoOpProvider discards records. It is the default when no run store is
// configured.
type NoOpProvider struct{}

// NewNoOpProvider creates a NoOpProvider.
func NewNoOpProvider() *NoOpProvider {
	return &NoOpProvider{}
}

// RecordRun discards the record.
func (*NoOpProvider) RecordRun(context.Context, Record) error {
	return nil
}

// LatestRun always reports ErrNoRuns.
func (*NoOpProvider) LatestRun(context.Context) (Record, error) {
	return Record{}, ErrNoRuns
}

// Close is a no-op.
func (*NoOpProvider) Close() {}
