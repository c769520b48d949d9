// Package metrics registers the Prometheus instruments for the agenda pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RunsTotal counts pipeline runs by trigger reason.
	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agenda_runs_total",
		Help: "The total number of agenda runs started, labeled by trigger reason.",
	}, []string{"reason"})
	// RunFailures counts runs that ended in error.
	RunFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agenda_run_failures_total",
		Help: "The total number of agenda runs that failed.",
	})
	// EventsScraped counts events extracted per workshop source.
	EventsScraped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agenda_events_scraped_total",
		Help: "The total number of upcoming events extracted, labeled by source.",
	}, []string{"source"})
	// SourceFailures counts per-source scrape failures.
	SourceFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agenda_source_failures_total",
		Help: "The total number of scrape failures, labeled by source.",
	}, []string{"source"})
	// CommitsTotal counts commits created by the publisher.
	CommitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agenda_commits_total",
		Help: "The total number of commits pushed with updated artifacts.",
	})
	// PublishFailures counts commit or push errors.
	PublishFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agenda_publish_failures_total",
		Help: "The total number of failed commit/push attempts.",
	})
	// UpcomingEvents reports the size of the last rendered agenda.
	UpcomingEvents = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "agenda_upcoming_events",
		Help: "The number of upcoming events in the most recently rendered agenda.",
	})
)
