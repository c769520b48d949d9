package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubFetcher struct {
	page Page
	err  error
}

func (s *stubFetcher) Fetch(_ context.Context, _ string) (Page, error) {
	return s.page, s.err
}

type stubDetector struct{ needs bool }

func (s *stubDetector) NeedsJS(_ []byte) bool { return s.needs }

type stubRenderer struct {
	body   []byte
	err    error
	calls  int
	closed bool
}

func (s *stubRenderer) Render(_ context.Context, _ string) ([]byte, error) {
	s.calls++
	return s.body, s.err
}

func (s *stubRenderer) Close() { s.closed = true }

func TestClientFetchPlainPage(t *testing.T) {
	t.Parallel()

	fetcher := &stubFetcher{page: Page{StatusCode: http.StatusOK, Body: []byte("<html>static</html>")}}
	renderer := &stubRenderer{}
	c := NewClient(fetcher, &stubDetector{needs: false}, renderer, zap.NewNop())

	body, err := c.Fetch(context.Background(), "https://example.org/")
	require.NoError(t, err)
	assert.Equal(t, "<html>static</html>", string(body))
	assert.Zero(t, renderer.calls)
}

func TestClientFetchEscalatesToRenderer(t *testing.T) {
	t.Parallel()

	fetcher := &stubFetcher{page: Page{StatusCode: http.StatusOK, Body: []byte("<div id=app></div>")}}
	renderer := &stubRenderer{body: []byte("<html>rendered</html>")}
	c := NewClient(fetcher, &stubDetector{needs: true}, renderer, zap.NewNop())

	body, err := c.Fetch(context.Background(), "https://example.org/")
	require.NoError(t, err)
	assert.Equal(t, "<html>rendered</html>", string(body))
	assert.Equal(t, 1, renderer.calls)
}

func TestClientFetchRendererFailureFallsBack(t *testing.T) {
	t.Parallel()

	fetcher := &stubFetcher{page: Page{StatusCode: http.StatusOK, Body: []byte("<div id=app>plain</div>")}}
	renderer := &stubRenderer{err: errors.New("chrome went away")}
	c := NewClient(fetcher, &stubDetector{needs: true}, renderer, zap.NewNop())

	body, err := c.Fetch(context.Background(), "https://example.org/")
	require.NoError(t, err)
	assert.Contains(t, string(body), "plain")
}

func TestClientFetchNon200(t *testing.T) {
	t.Parallel()

	fetcher := &stubFetcher{page: Page{StatusCode: http.StatusNotFound}}
	c := NewClient(fetcher, &stubDetector{}, nil, zap.NewNop())

	_, err := c.Fetch(context.Background(), "https://example.org/missing")
	assert.Error(t, err)
}

func TestCollyFetcherAgainstTestServer(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html><body>seminar list</body></html>"))
	}))
	defer srv.Close()

	f, err := NewCollyFetcher(Config{
		UserAgent:          "agenda-sync-test/1.0",
		RequestTimeout:     5 * time.Second,
		RateLimitPerDomain: 10,
		Concurrency:        1,
	}, zap.NewNop())
	require.NoError(t, err)

	page, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, page.StatusCode)
	assert.Contains(t, string(page.Body), "seminar list")
}
