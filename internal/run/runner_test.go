package run

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hfujimori/agenda-sync/internal/agenda"
	"github.com/hfujimori/agenda-sync/internal/gitpub"
	"github.com/hfujimori/agenda-sync/internal/notify"
	"github.com/hfujimori/agenda-sync/internal/runs"
	"github.com/hfujimori/agenda-sync/internal/schedule"
	"github.com/hfujimori/agenda-sync/internal/workshop"
)

type fakeFetcher struct{}

func (fakeFetcher) Fetch(context.Context, string) ([]byte, error) { return nil, nil }

type fakeSink struct {
	html []byte
	json []byte
	err  error
}

func (s *fakeSink) WriteAll(_ context.Context, htmlData, jsonData []byte) error {
	if s.err != nil {
		return s.err
	}
	s.html = htmlData
	s.json = jsonData
	return nil
}

type fakePublisher struct {
	res   gitpub.Result
	err   error
	calls int
}

func (p *fakePublisher) Publish(context.Context, time.Time) (gitpub.Result, error) {
	p.calls++
	return p.res, p.err
}

type fakeMirror struct {
	objects map[string][]byte
	err     error
}

func (m *fakeMirror) Save(_ context.Context, name string, data []byte) error {
	if m.err != nil {
		return m.err
	}
	if m.objects == nil {
		m.objects = map[string][]byte{}
	}
	m.objects[name] = data
	return nil
}

func (*fakeMirror) Close() error { return nil }

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }
func (c fixedClock) Today() time.Time {
	return time.Date(c.now.Year(), c.now.Month(), c.now.Day(), 0, 0, 0, 0, time.UTC)
}

func staticSource(key string, events []agenda.Event, err error) workshop.Source {
	return workshop.Source{
		Key:  key,
		Name: key,
		Parse: func(context.Context, workshop.Fetcher, workshop.Source, int, time.Time) ([]agenda.Event, error) {
			return events, err
		},
	}
}

func event(iso, ws, info string) agenda.Event {
	d, parseErr := time.Parse("2006-01-02", iso)
	if parseErr != nil {
		panic(parseErr)
	}
	return agenda.Event{Date: agenda.Date{Time: d.UTC()}, Workshop: ws, Info: info}
}

func trigger(id string) schedule.TriggerEvent {
	now := time.Date(2025, 10, 1, 21, 0, 0, 0, time.UTC)
	return schedule.TriggerEvent{RunID: id, Reason: schedule.ReasonSchedule, ScheduledAt: now, FiredAt: now}
}

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
	_, err = New(Config{Fetcher: fakeFetcher{}, Sink: &fakeSink{}})
	require.Error(t, err)
}

func TestRunHappyPath(t *testing.T) {
	sink := &fakeSink{}
	pub := &fakePublisher{res: gitpub.Result{Committed: true, CommitHash: "deadbeef"}}
	store := runs.NewMemoryProvider()
	notifier := notify.NewMemoryProvider()
	mir := &fakeMirror{}

	r, err := New(Config{
		Fetcher: fakeFetcher{},
		Sources: []workshop.Source{
			staticSource("macro", []agenda.Event{event("2025-11-07", "Macroeconomics WS", "Speaker A")}, nil),
			staticSource("urban", []agenda.Event{event("2025-10-10", "Urban Economics WS", "Speaker B")}, nil),
		},
		Sink:      sink,
		Publisher: pub,
		Store:     store,
		Notifier:  notifier,
		Mirror:    mir,
		Clock:     fixedClock{now: time.Date(2025, 10, 1, 21, 0, 0, 0, time.UTC)},
	})
	require.NoError(t, err)

	require.NoError(t, r.Run(context.Background(), trigger("run-1")))

	assert.Equal(t, 1, pub.calls)
	assert.Contains(t, string(sink.html), "Urban Economics WS")
	assert.Contains(t, string(sink.json), `"2025-10-10"`)

	rec, err := store.LatestRun(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "run-1", rec.ID)
	assert.Equal(t, 2, rec.EventsTotal)
	assert.Equal(t, map[string]int{"macro": 1, "urban": 1}, rec.SourceCounts)
	assert.True(t, rec.Committed)
	assert.Equal(t, "deadbeef", rec.CommitHash)
	assert.NotEmpty(t, rec.ArtifactDigest)
	assert.Empty(t, rec.ErrorText)

	msgs := notifier.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "run-1", msgs[0].RunID)
	assert.True(t, msgs[0].Committed)

	assert.Contains(t, mir.objects, "2025-10-01/events.json")
	assert.Contains(t, mir.objects, "2025-10-01/index.html")
}

func TestRunToleratesPartialSourceFailure(t *testing.T) {
	sink := &fakeSink{}
	pub := &fakePublisher{}
	store := runs.NewMemoryProvider()

	r, err := New(Config{
		Fetcher: fakeFetcher{},
		Sources: []workshop.Source{
			staticSource("macro", []agenda.Event{event("2025-11-07", "Macroeconomics WS", "Speaker A")}, nil),
			staticSource("urban", nil, errors.New("timeout")),
		},
		Sink:      sink,
		Publisher: pub,
		Store:     store,
	})
	require.NoError(t, err)

	require.NoError(t, r.Run(context.Background(), trigger("run-2")))

	rec, err := store.LatestRun(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, rec.EventsTotal)
	assert.Equal(t, map[string]int{"macro": 1}, rec.SourceCounts)
	_, hasUrban := rec.SourceCounts["urban"]
	assert.False(t, hasUrban)
}

func TestRunFailsWhenAllSourcesFail(t *testing.T) {
	sink := &fakeSink{}
	pub := &fakePublisher{}
	store := runs.NewMemoryProvider()
	notifier := notify.NewMemoryProvider()

	r, err := New(Config{
		Fetcher: fakeFetcher{},
		Sources: []workshop.Source{
			staticSource("macro", nil, errors.New("timeout")),
			staticSource("urban", nil, errors.New("500")),
		},
		Sink:      sink,
		Publisher: pub,
		Store:     store,
		Notifier:  notifier,
	})
	require.NoError(t, err)

	err = r.Run(context.Background(), trigger("run-3"))
	require.Error(t, err)
	assert.Zero(t, pub.calls)
	assert.Nil(t, sink.json)

	// The failure is still recorded and announced.
	rec, recErr := store.LatestRun(context.Background())
	require.NoError(t, recErr)
	assert.NotEmpty(t, rec.ErrorText)
	require.Len(t, notifier.Messages(), 1)
}

func TestRunFailsOnPublishError(t *testing.T) {
	sink := &fakeSink{}
	pub := &fakePublisher{err: errors.New("non-fast-forward")}
	store := runs.NewMemoryProvider()

	r, err := New(Config{
		Fetcher: fakeFetcher{},
		Sources: []workshop.Source{
			staticSource("macro", []agenda.Event{event("2025-11-07", "Macroeconomics WS", "Speaker A")}, nil),
		},
		Sink:      sink,
		Publisher: pub,
		Store:     store,
	})
	require.NoError(t, err)

	err = r.Run(context.Background(), trigger("run-4"))
	require.Error(t, err)

	rec, recErr := store.LatestRun(context.Background())
	require.NoError(t, recErr)
	assert.False(t, rec.Committed)
	assert.Contains(t, rec.ErrorText, "publish artifacts")
}

func TestRunMirrorFailureIsNonFatal(t *testing.T) {
	sink := &fakeSink{}
	pub := &fakePublisher{}
	r, err := New(Config{
		Fetcher: fakeFetcher{},
		Sources: []workshop.Source{
			staticSource("macro", []agenda.Event{event("2025-11-07", "Macroeconomics WS", "Speaker A")}, nil),
		},
		Sink:      sink,
		Publisher: pub,
		Mirror:    &fakeMirror{err: errors.New("bucket gone")},
	})
	require.NoError(t, err)

	require.NoError(t, r.Run(context.Background(), trigger("run-5")))
}

func TestRunNoChangesMeansNoCommit(t *testing.T) {
	sink := &fakeSink{}
	pub := &fakePublisher{res: gitpub.Result{Committed: false}}
	store := runs.NewMemoryProvider()

	r, err := New(Config{
		Fetcher: fakeFetcher{},
		Sources: []workshop.Source{
			staticSource("macro", []agenda.Event{event("2025-11-07", "Macroeconomics WS", "Speaker A")}, nil),
		},
		Sink:      sink,
		Publisher: pub,
		Store:     store,
	})
	require.NoError(t, err)

	require.NoError(t, r.Run(context.Background(), trigger("run-6")))

	rec, recErr := store.LatestRun(context.Background())
	require.NoError(t, recErr)
	assert.False(t, rec.Committed)
	assert.Empty(t, rec.CommitHash)
}
