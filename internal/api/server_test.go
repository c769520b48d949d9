package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hfujimori/agenda-sync/internal/runs"
	"github.com/hfujimori/agenda-sync/internal/schedule"
)

type stubTriggerer struct {
	runID   string
	err     error
	running bool
	reasons []schedule.Reason
}

func (s *stubTriggerer) Trigger(_ context.Context, reason schedule.Reason) (string, error) {
	s.reasons = append(s.reasons, reason)
	return s.runID, s.err
}

func (s *stubTriggerer) Running() bool { return s.running }

func newTestServer(t *testing.T, trigger Triggerer, store runs.Provider) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(NewServer(trigger, store, zap.NewNop()).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, &stubTriggerer{}, runs.NewMemoryProvider())

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	var body map[string]string
	decodeBody(t, resp, &body)
	assert.Equal(t, "ok", body["status"])
}

func TestReadyzReportsInFlightRun(t *testing.T) {
	srv := newTestServer(t, &stubTriggerer{running: true}, runs.NewMemoryProvider())

	resp, err := http.Get(srv.URL + "/readyz")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	decodeBody(t, resp, &body)
	assert.Equal(t, true, body["run_in_flight"])
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, &stubTriggerer{}, runs.NewMemoryProvider())

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLatestRunNotFound(t *testing.T) {
	srv := newTestServer(t, &stubTriggerer{}, runs.NewMemoryProvider())

	resp, err := http.Get(srv.URL + "/v1/runs/latest")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestLatestRunReturnsRecord(t *testing.T) {
	store := runs.NewMemoryProvider()
	require.NoError(t, store.RecordRun(context.Background(), runs.Record{
		ID:          "run-9",
		Reason:      "schedule",
		EventsTotal: 4,
		Committed:   true,
		FinishedAt:  time.Unix(1760000000, 0).UTC(),
	}))
	srv := newTestServer(t, &stubTriggerer{}, store)

	resp, err := http.Get(srv.URL + "/v1/runs/latest")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var rec runs.Record
	decodeBody(t, resp, &rec)
	assert.Equal(t, "run-9", rec.ID)
	assert.Equal(t, 4, rec.EventsTotal)
	assert.True(t, rec.Committed)
}

func TestTriggerRun(t *testing.T) {
	trigger := &stubTriggerer{runID: "run-10"}
	srv := newTestServer(t, trigger, runs.NewMemoryProvider())

	resp, err := http.Post(srv.URL+"/v1/trigger", "application/json", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	decodeBody(t, resp, &body)
	assert.Equal(t, "run-10", body["run_id"])
	require.Len(t, trigger.reasons, 1)
	assert.Equal(t, schedule.ReasonAPI, trigger.reasons[0])
}

func TestTriggerRunConflict(t *testing.T) {
	trigger := &stubTriggerer{err: schedule.ErrRunInFlight}
	srv := newTestServer(t, trigger, runs.NewMemoryProvider())

	resp, err := http.Post(srv.URL+"/v1/trigger", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestTriggerRunFailure(t *testing.T) {
	trigger := &stubTriggerer{runID: "run-11", err: errors.New("all sources failed")}
	srv := newTestServer(t, trigger, runs.NewMemoryProvider())

	resp, err := http.Post(srv.URL+"/v1/trigger", "application/json", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	var body map[string]string
	decodeBody(t, resp, &body)
	assert.Equal(t, "run-11", body["run_id"])
	assert.Contains(t, body["error"], "all sources failed")
}
