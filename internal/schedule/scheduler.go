// Package schedule runs the agenda pipeline on a cron cadence and accepts
// out-of-band manual triggers.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// ErrRunInFlight is returned when a trigger arrives while a run is still
// executing. Overlapping runs are rejected, never queued.
var ErrRunInFlight = errors.New("a run is already in flight")

// Reason records what fired a run.
type Reason string

const (
	ReasonSchedule Reason = "schedule"
	ReasonManual   Reason = "manual"
	ReasonAPI      Reason = "api"
)

// TriggerEvent carries the identity and timing of one firing.
type TriggerEvent struct {
	RunID       string
	Reason      Reason
	ScheduledAt time.Time
	FiredAt     time.Time
}

// Job is the unit of work the scheduler drives.
type Job interface {
	Name() string
	Run(ctx context.Context, ev TriggerEvent) error
}

// IDGenerator mints run identifiers.
type IDGenerator interface {
	NewID() (string, error)
}

// Scheduler owns the cron loop and the in-flight guard shared with
// manual triggers.
type Scheduler struct {
	cron   *cron.Cron
	job    Job
	ids    IDGenerator
	logger *zap.Logger

	running atomic.Bool
	wg      sync.WaitGroup

	mu      sync.Mutex
	baseCtx context.Context
	entry   cron.EntryID
}

// New builds a Scheduler for the given cron spec in the standard five
// field format, evaluated in UTC.
func New(spec string, job Job, ids IDGenerator, logger *zap.Logger) (*Scheduler, error) {
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("parse cron spec %q: %w", spec, err)
	}
	s := &Scheduler{
		cron:   cron.New(cron.WithLocation(time.UTC)),
		job:    job,
		ids:    ids,
		logger: logger,
	}
	id, err := s.cron.AddFunc(spec, s.fire)
	if err != nil {
		return nil, fmt.Errorf("register cron job: %w", err)
	}
	s.entry = id
	return s, nil
}

// Start begins the cron loop. ctx becomes the parent of every run.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.baseCtx = ctx
	s.mu.Unlock()
	s.cron.Start()
	s.logger.Info("scheduler started",
		zap.String("job", s.job.Name()),
		zap.Time("next", s.cron.Entry(s.entry).Next))
}

// Stop halts the cron loop and waits for an in-flight run to finish or
// ctx to expire, whichever comes first.
func (s *Scheduler) Stop(ctx context.Context) error {
	cronCtx := s.cron.Stop()
	select {
	case <-cronCtx.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Trigger fires the job immediately with the given reason. It returns
// ErrRunInFlight when a run is already executing.
func (s *Scheduler) Trigger(ctx context.Context, reason Reason) (string, error) {
	if !s.running.CompareAndSwap(false, true) {
		return "", ErrRunInFlight
	}
	defer s.running.Store(false)

	now := time.Now().UTC()
	ev, err := s.newEvent(reason, now, now)
	if err != nil {
		return "", err
	}
	return ev.RunID, s.job.Run(ctx, ev)
}

// Running reports whether a run is currently executing.
func (s *Scheduler) Running() bool {
	return s.running.Load()
}

// fire is the cron callback. A firing that overlaps a still-running job
// is dropped with a warning rather than queued behind it.
func (s *Scheduler) fire() {
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Warn("skipping scheduled run, previous run still in flight",
			zap.String("job", s.job.Name()))
		return
	}
	s.wg.Add(1)
	defer s.wg.Done()
	defer s.running.Store(false)

	s.mu.Lock()
	ctx := s.baseCtx
	s.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}

	scheduled := s.cron.Entry(s.entry).Prev
	now := time.Now().UTC()
	if scheduled.IsZero() {
		scheduled = now
	}
	ev, err := s.newEvent(ReasonSchedule, scheduled, now)
	if err != nil {
		s.logger.Error("could not build trigger event", zap.Error(err))
		return
	}
	if err := s.job.Run(ctx, ev); err != nil {
		s.logger.Error("scheduled run failed",
			zap.String("run_id", ev.RunID),
			zap.Error(err))
	}
}

func (s *Scheduler) newEvent(reason Reason, scheduledAt, firedAt time.Time) (TriggerEvent, error) {
	id, err := s.ids.NewID()
	if err != nil {
		return TriggerEvent{}, fmt.Errorf("mint run id: %w", err)
	}
	return TriggerEvent{
		RunID:       id,
		Reason:      reason,
		ScheduledAt: scheduledAt,
		FiredAt:     firedAt,
	}, nil
}
