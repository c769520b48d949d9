package cmd

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hfujimori/agenda-sync/internal/app"
	"github.com/hfujimori/agenda-sync/internal/artifact"
	"github.com/hfujimori/agenda-sync/internal/config"
	"github.com/hfujimori/agenda-sync/internal/fetch"
	"github.com/hfujimori/agenda-sync/internal/gitpub"
	"github.com/hfujimori/agenda-sync/internal/logging"
	"github.com/hfujimori/agenda-sync/internal/run"
)

// services bundles everything a command needs to execute the pipeline.
type services struct {
	cfg       config.Config
	logger    *zap.Logger
	container *app.App
	client    *fetch.Client
	runner    *run.Runner
}

// buildServices loads configuration and assembles the full pipeline.
func buildServices(ctx context.Context) (*services, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	container, err := app.New(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	client, err := buildFetchClient(cfg, logger)
	if err != nil {
		container.Close()
		return nil, err
	}

	sink, err := artifact.NewSink(cfg.Artifacts.Dir, cfg.Artifacts.HTMLPath, cfg.Artifacts.JSONPath, logger)
	if err != nil {
		client.Close()
		container.Close()
		return nil, fmt.Errorf("init artifact sink: %w", err)
	}

	publisher, err := gitpub.New(gitpub.Config{
		Dir:         cfg.Artifacts.Dir,
		HTMLPath:    cfg.Artifacts.HTMLPath,
		JSONPath:    cfg.Artifacts.JSONPath,
		Remote:      cfg.Git.Remote,
		Branch:      cfg.Git.Branch,
		AuthorName:  cfg.Git.AuthorName,
		AuthorEmail: cfg.Git.AuthorEmail,
		Token:       cfg.Git.Token,
		Push:        cfg.Git.Push,
	}, logger)
	if err != nil {
		client.Close()
		container.Close()
		return nil, fmt.Errorf("init publisher: %w", err)
	}

	runner, err := run.New(run.Config{
		Fetcher:   client,
		Sink:      sink,
		Publisher: publisher,
		Store:     container.RunStore(),
		Notifier:  container.Notifier(),
		Mirror:    container.Mirror(),
		Logger:    logger,
	})
	if err != nil {
		client.Close()
		container.Close()
		return nil, fmt.Errorf("init runner: %w", err)
	}

	return &services{
		cfg:       cfg,
		logger:    logger,
		container: container,
		client:    client,
		runner:    runner,
	}, nil
}

func buildFetchClient(cfg config.Config, logger *zap.Logger) (*fetch.Client, error) {
	fetcher, err := fetch.NewCollyFetcher(fetch.Config{
		UserAgent:          cfg.Scrape.UserAgent,
		RequestTimeout:     cfg.Scrape.RequestTimeout,
		RateLimitPerDomain: cfg.Scrape.RateLimitPerDomain,
		Concurrency:        cfg.Scrape.Concurrency,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("init fetcher: %w", err)
	}

	var renderer fetch.Renderer
	if cfg.Headless.Enabled {
		renderer, err = fetch.NewChromedpRenderer(fetch.RendererConfig{
			UserAgent:   cfg.Scrape.UserAgent,
			MaxParallel: cfg.Headless.MaxParallel,
			NavTimeout:  cfg.Headless.NavTimeout,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("init renderer: %w", err)
		}
	}

	var selectors []string
	if cfg.Detector.SelectorMust != "" {
		selectors = []string{cfg.Detector.SelectorMust}
	}
	detector := fetch.NewHeuristicDetector(cfg.Detector.MinHTMLBytes, selectors, cfg.Detector.Keywords)

	return fetch.NewClient(fetcher, detector, renderer, logger), nil
}

func (s *services) close() {
	s.client.Close()
	s.container.Close()
}
