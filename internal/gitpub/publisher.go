// Package gitpub publishes the artifact set: it detects whether the two
// tracked files changed since the last commit, and if so commits and
// pushes exactly those paths.
package gitpub

import (
	"context"
	"fmt"
	"time"

	git "github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/object"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"go.uber.org/zap"
)

// Config controls the publisher.
type Config struct {
	Dir         string
	HTMLPath    string
	JSONPath    string
	Remote      string
	Branch      string
	AuthorName  string
	AuthorEmail string
	// Token authenticates HTTP pushes. Ignored for local/SSH remotes.
	Token string
	// Push false stops after the commit (useful for dry runs).
	Push bool
}

// Result reports what a publish attempt did.
type Result struct {
	Committed  bool
	CommitHash string
	Message    string
}

// Publisher implements the change detector & publisher step.
type Publisher struct {
	cfg    Config
	logger *zap.Logger
}

// New validates that dir is a git worktree and returns a Publisher.
func New(cfg Config, logger *zap.Logger) (*Publisher, error) {
	if cfg.HTMLPath == "" || cfg.JSONPath == "" {
		return nil, fmt.Errorf("artifact paths are required")
	}
	if _, err := git.PlainOpen(cfg.Dir); err != nil {
		return nil, fmt.Errorf("open git repository %s: %w", cfg.Dir, err)
	}
	return &Publisher{cfg: cfg, logger: logger}, nil
}

// Publish stages, commits and pushes the artifacts when they differ from
// the last commit. now determines both the commit timestamp and the UTC
// date embedded in the message. A clean worktree is a successful no-op.
func (p *Publisher) Publish(ctx context.Context, now time.Time) (Result, error) {
	repo, err := git.PlainOpen(p.cfg.Dir)
	if err != nil {
		return Result{}, fmt.Errorf("open git repository: %w", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return Result{}, fmt.Errorf("open worktree: %w", err)
	}
	status, err := wt.Status()
	if err != nil {
		return Result{}, fmt.Errorf("worktree status: %w", err)
	}

	// A clean file has no status entry at all; any entry on one of the
	// artifact paths means it changed (modified or still untracked).
	changed := false
	for _, path := range p.paths() {
		if _, dirty := status[path]; dirty {
			changed = true
		}
	}
	if !changed {
		p.logger.Info("No changes")
		return Result{Committed: false}, nil
	}

	for _, path := range p.paths() {
		if _, err := wt.Add(path); err != nil {
			return Result{}, fmt.Errorf("stage %s: %w", path, err)
		}
	}

	msg := fmt.Sprintf("auto: update schedule %s", now.UTC().Format("2006-01-02"))
	hash, err := wt.Commit(msg, &git.CommitOptions{
		Author: &object.Signature{
			Name:  p.cfg.AuthorName,
			Email: p.cfg.AuthorEmail,
			When:  now,
		},
	})
	if err != nil {
		return Result{}, fmt.Errorf("commit: %w", err)
	}
	p.logger.Info("committed artifacts",
		zap.String("hash", hash.String()),
		zap.String("message", msg))

	if p.cfg.Push {
		if err := p.push(ctx, repo); err != nil {
			// The commit stays in the local history; the next successful
			// push carries it along.
			return Result{}, err
		}
		p.logger.Info("pushed to remote",
			zap.String("remote", p.cfg.Remote),
			zap.String("branch", p.cfg.Branch))
	}

	return Result{Committed: true, CommitHash: hash.String(), Message: msg}, nil
}

func (p *Publisher) push(ctx context.Context, repo *git.Repository) error {
	refSpec := gitconfig.RefSpec(fmt.Sprintf("refs/heads/%s:refs/heads/%s", p.cfg.Branch, p.cfg.Branch))
	opts := &git.PushOptions{
		RemoteName: p.cfg.Remote,
		RefSpecs:   []gitconfig.RefSpec{refSpec},
	}
	if p.cfg.Token != "" {
		opts.Auth = &githttp.BasicAuth{
			// GitHub ignores the username when a token is supplied.
			Username: "x-access-token",
			Password: p.cfg.Token,
		}
	}
	if err := repo.PushContext(ctx, opts); err != nil && err != git.NoErrAlreadyUpToDate {
		return fmt.Errorf("push: %w", err)
	}
	return nil
}

func (p *Publisher) paths() []string {
	return []string{p.cfg.JSONPath, p.cfg.HTMLPath}
}
