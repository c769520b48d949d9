package fetch

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

// Client is the fetch pipeline used by the workshop parsers: plain fetch,
// charset normalization, and an optional headless escalation when the
// detector flags a JS-built page.
type Client struct {
	fetcher  Fetcher
	detector Detector
	renderer Renderer
	logger   *zap.Logger
}

// NewClient assembles a Client. renderer may be nil, in which case pages
// flagged by the detector are used as fetched.
func NewClient(fetcher Fetcher, detector Detector, renderer Renderer, logger *zap.Logger) *Client {
	return &Client{
		fetcher:  fetcher,
		detector: detector,
		renderer: renderer,
		logger:   logger,
	}
}

// Fetch returns the UTF-8 page body for the URL, or an error on transport
// failure or a non-200 status.
func (c *Client) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	page, err := c.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	if page.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", rawURL, page.StatusCode)
	}

	body := DecodeBody(page.Body)

	if c.renderer != nil && c.detector != nil && c.detector.NeedsJS(body) {
		rendered, rerr := c.renderer.Render(ctx, rawURL)
		if rerr != nil {
			// Keep the plain body; a degraded parse beats no parse.
			c.logger.Warn("headless render failed, using plain fetch",
				zap.String("url", rawURL), zap.Error(rerr))
			return body, nil
		}
		return rendered, nil
	}
	return body, nil
}

// Close releases the renderer, if any.
func (c *Client) Close() {
	if c.renderer != nil {
		c.renderer.Close()
	}
}
