package artifact

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Sink writes the two artifacts under the repository root. Writes go
// through a temp file and rename so a crash mid-write never leaves a
// half-written artifact in the worktree.
type Sink struct {
	root     string
	htmlPath string
	jsonPath string
	logger   *zap.Logger
}

// NewSink validates the root directory and returns a Sink. htmlPath and
// jsonPath are relative to root.
func NewSink(root, htmlPath, jsonPath string, logger *zap.Logger) (*Sink, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat artifact root %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("artifact root %s is not a directory", root)
	}
	return &Sink{
		root:     root,
		htmlPath: htmlPath,
		jsonPath: jsonPath,
		logger:   logger,
	}, nil
}

// HTMLPath returns the page path relative to the root.
func (s *Sink) HTMLPath() string { return s.htmlPath }

// JSONPath returns the data path relative to the root.
func (s *Sink) JSONPath() string { return s.jsonPath }

// Root returns the repository root the sink writes under.
func (s *Sink) Root() string { return s.root }

// WriteAll persists both artifacts. The JSON file lands first; if it
// fails, the HTML file is untouched as well.
func (s *Sink) WriteAll(ctx context.Context, htmlData, jsonData []byte) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context canceled: %w", err)
	}
	if err := s.writeFile(s.jsonPath, jsonData); err != nil {
		return err
	}
	if err := s.writeFile(s.htmlPath, htmlData); err != nil {
		return err
	}
	s.logger.Debug("artifacts written",
		zap.Int("html_bytes", len(htmlData)),
		zap.Int("json_bytes", len(jsonData)))
	return nil
}

func (s *Sink) writeFile(relPath string, data []byte) error {
	target := filepath.Join(s.root, relPath)
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return fmt.Errorf("creating dir for %s: %w", target, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(target), "."+filepath.Base(target)+".tmp-")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", target, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp for %s: %w", target, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp for %s: %w", target, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("chmod temp for %s: %w", target, err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", target, err)
	}
	return nil
}
