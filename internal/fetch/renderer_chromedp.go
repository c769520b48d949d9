package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// RendererConfig controls the headless renderer.
type RendererConfig struct {
	UserAgent   string
	MaxParallel int
	NavTimeout  time.Duration
}

// ChromedpRenderer renders pages using headless Chrome via chromedp. Only
// the WordPress events calendar needs it; the static workshop pages never
// trip the detector.
type ChromedpRenderer struct {
	cfg         RendererConfig
	limiter     chan struct{}
	allocator   context.Context
	allocCancel context.CancelFunc
	logger      *zap.Logger
}

// NewChromedpRenderer creates a headless renderer backed by chromedp.
func NewChromedpRenderer(cfg RendererConfig, logger *zap.Logger) (*ChromedpRenderer, error) {
	if cfg.MaxParallel <= 0 {
		return nil, fmt.Errorf("max parallel must be > 0")
	}
	if cfg.NavTimeout <= 0 {
		cfg.NavTimeout = 25 * time.Second
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", "new"),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.UserAgent(cfg.UserAgent),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &ChromedpRenderer{
		cfg:         cfg,
		limiter:     make(chan struct{}, cfg.MaxParallel),
		allocator:   allocCtx,
		allocCancel: allocCancel,
		logger:      logger,
	}, nil
}

// Close cancels the allocator context.
func (r *ChromedpRenderer) Close() {
	r.allocCancel()
}

// Render navigates with a headless browser and returns the rendered DOM.
func (r *ChromedpRenderer) Render(ctx context.Context, rawURL string) ([]byte, error) {
	select {
	case r.limiter <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-r.limiter }()

	taskCtx, taskCancel := chromedp.NewContext(r.allocator)
	defer taskCancel()

	taskCtx, cancel := context.WithTimeout(taskCtx, r.cfg.NavTimeout)
	defer cancel()

	var html string
	err := chromedp.Run(taskCtx,
		emulation.SetDeviceMetricsOverride(1280, 1024, 1.0, false),
		chromedp.Navigate(rawURL),
		chromedp.WaitReady("body"),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", rawURL, err)
	}
	r.logger.Debug("rendered page", zap.String("url", rawURL), zap.Int("bytes", len(html)))
	return []byte(html), nil
}
