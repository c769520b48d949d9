// Package run orchestrates one end-to-end pipeline run: scrape every
// workshop source, render the artifacts, commit and push them when they
// changed, and record the outcome.
package run

import (
	"context"
	"fmt"
	"path"
	"time"

	"go.uber.org/zap"

	"github.com/hfujimori/agenda-sync/internal/agenda"
	"github.com/hfujimori/agenda-sync/internal/artifact"
	"github.com/hfujimori/agenda-sync/internal/clock/system"
	"github.com/hfujimori/agenda-sync/internal/gitpub"
	"github.com/hfujimori/agenda-sync/internal/hash/sha256"
	"github.com/hfujimori/agenda-sync/internal/metrics"
	"github.com/hfujimori/agenda-sync/internal/mirror"
	"github.com/hfujimori/agenda-sync/internal/notify"
	"github.com/hfujimori/agenda-sync/internal/runs"
	"github.com/hfujimori/agenda-sync/internal/schedule"
	"github.com/hfujimori/agenda-sync/internal/workshop"
)

// Publisher commits and pushes changed artifacts.
type Publisher interface {
	Publish(ctx context.Context, now time.Time) (gitpub.Result, error)
}

// Sink writes the rendered artifact pair.
type Sink interface {
	WriteAll(ctx context.Context, htmlData, jsonData []byte) error
}

// Clock supplies run timestamps and the upcoming-filter cutoff.
type Clock interface {
	Now() time.Time
	Today() time.Time
}

// Hasher digests the JSON artifact for the run record.
type Hasher interface {
	Hash(data []byte) (string, error)
}

// Config wires a Runner's collaborators. Fetcher, Sink and Publisher are
// required; everything else has a working default.
type Config struct {
	Fetcher   workshop.Fetcher
	Sources   []workshop.Source
	Sink      Sink
	Publisher Publisher
	Store     runs.Provider
	Notifier  notify.Provider
	Mirror    mirror.Provider
	Clock     Clock
	Hasher    Hasher
	Logger    *zap.Logger
}

// Runner implements schedule.Job for the agenda pipeline.
type Runner struct {
	cfg Config
}

// New validates the config and fills in defaults.
func New(cfg Config) (*Runner, error) {
	if cfg.Fetcher == nil {
		return nil, fmt.Errorf("fetcher is required")
	}
	if cfg.Sink == nil {
		return nil, fmt.Errorf("sink is required")
	}
	if cfg.Publisher == nil {
		return nil, fmt.Errorf("publisher is required")
	}
	if cfg.Sources == nil {
		cfg.Sources = workshop.Sources()
	}
	if cfg.Store == nil {
		cfg.Store = runs.NewNoOpProvider()
	}
	if cfg.Notifier == nil {
		cfg.Notifier = &notify.NoOpProvider{}
	}
	if cfg.Mirror == nil {
		cfg.Mirror = &mirror.NoOpProvider{}
	}
	if cfg.Clock == nil {
		cfg.Clock = system.New()
	}
	if cfg.Hasher == nil {
		cfg.Hasher = sha256.New()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Runner{cfg: cfg}, nil
}

// Name identifies the job in scheduler logs.
func (r *Runner) Name() string { return "agenda-sync" }

// Run executes one pipeline pass. The outcome is always recorded and
// announced, success or failure.
func (r *Runner) Run(ctx context.Context, ev schedule.TriggerEvent) error {
	metrics.RunsTotal.WithLabelValues(string(ev.Reason)).Inc()

	rec := runs.Record{
		ID:           ev.RunID,
		Reason:       string(ev.Reason),
		StartedAt:    r.cfg.Clock.Now(),
		SourceCounts: map[string]int{},
	}
	r.cfg.Logger.Info("run started",
		zap.String("run_id", ev.RunID),
		zap.String("reason", string(ev.Reason)))

	err := r.execute(ctx, &rec)
	rec.FinishedAt = r.cfg.Clock.Now()
	if err != nil {
		rec.ErrorText = err.Error()
		metrics.RunFailures.Inc()
		r.cfg.Logger.Error("run failed",
			zap.String("run_id", ev.RunID),
			zap.Error(err))
	} else {
		r.cfg.Logger.Info("run finished",
			zap.String("run_id", ev.RunID),
			zap.Int("events", rec.EventsTotal),
			zap.Bool("committed", rec.Committed),
			zap.Duration("took", rec.FinishedAt.Sub(rec.StartedAt)))
	}

	if recErr := r.cfg.Store.RecordRun(ctx, rec); recErr != nil {
		r.cfg.Logger.Error("failed to record run", zap.Error(recErr))
	}
	if pubErr := r.cfg.Notifier.Publish(ctx, notify.Message{
		RunID:       rec.ID,
		Reason:      rec.Reason,
		EventsTotal: rec.EventsTotal,
		Committed:   rec.Committed,
		CommitHash:  rec.CommitHash,
		FinishedAt:  rec.FinishedAt,
	}); pubErr != nil {
		r.cfg.Logger.Error("failed to publish run notification", zap.Error(pubErr))
	}
	return err
}

func (r *Runner) execute(ctx context.Context, rec *runs.Record) error {
	today := r.cfg.Clock.Today()
	baseYear := today.Year()

	var all []agenda.Event
	failed := 0
	for _, src := range r.cfg.Sources {
		events, err := src.Parse(ctx, r.cfg.Fetcher, src, baseYear, today)
		if err != nil {
			failed++
			metrics.SourceFailures.WithLabelValues(src.Key).Inc()
			r.cfg.Logger.Warn("source scrape failed",
				zap.String("source", src.Key),
				zap.Error(err))
			continue
		}
		rec.SourceCounts[src.Key] = len(events)
		metrics.EventsScraped.WithLabelValues(src.Key).Add(float64(len(events)))
		all = append(all, events...)
	}
	if len(r.cfg.Sources) > 0 && failed == len(r.cfg.Sources) {
		return fmt.Errorf("all %d sources failed", failed)
	}

	agenda.Sort(all)
	rec.EventsTotal = len(all)
	metrics.UpcomingEvents.Set(float64(len(all)))

	now := r.cfg.Clock.Now()
	htmlData, err := artifact.RenderHTML(all, now)
	if err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	jsonData, err := artifact.RenderJSON(all)
	if err != nil {
		return fmt.Errorf("render json: %w", err)
	}
	digest, err := r.cfg.Hasher.Hash(jsonData)
	if err != nil {
		return fmt.Errorf("digest artifacts: %w", err)
	}
	rec.ArtifactDigest = digest

	if err := r.cfg.Sink.WriteAll(ctx, htmlData, jsonData); err != nil {
		return fmt.Errorf("write artifacts: %w", err)
	}

	res, err := r.cfg.Publisher.Publish(ctx, now)
	if err != nil {
		metrics.PublishFailures.Inc()
		return fmt.Errorf("publish artifacts: %w", err)
	}
	if res.Committed {
		metrics.CommitsTotal.Inc()
		rec.Committed = true
		rec.CommitHash = res.CommitHash
	}

	// Mirror snapshots are best effort; a mirror outage never fails the run.
	prefix := now.UTC().Format("2006-01-02")
	for name, data := range map[string][]byte{
		path.Join(prefix, "events.json"): jsonData,
		path.Join(prefix, "index.html"):  htmlData,
	} {
		if err := r.cfg.Mirror.Save(ctx, name, data); err != nil {
			r.cfg.Logger.Warn("mirror snapshot failed",
				zap.String("object", name),
				zap.Error(err))
		}
	}
	return nil
}
