// Package fetch retrieves workshop pages, handling legacy encodings and
// escalating to a headless browser when the page is built by JavaScript.
package fetch

import (
	"context"
	"net/http"
	"time"
)

// Page is the raw result of fetching a single URL.
type Page struct {
	URL        string
	FinalURL   string
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// Config captures the knobs for the plain HTTP fetcher.
type Config struct {
	UserAgent          string
	RequestTimeout     time.Duration
	RateLimitPerDomain int
	Concurrency        int
}

// Fetcher fetches a URL and returns the raw page.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (Page, error)
}

// Renderer produces the DOM of a page after JavaScript execution.
type Renderer interface {
	Render(ctx context.Context, rawURL string) ([]byte, error)
	Close()
}

// Detector decides whether a fetched body warrants a headless render.
type Detector interface {
	NeedsJS(body []byte) bool
}
