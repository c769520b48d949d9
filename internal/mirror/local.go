package mirror

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocalProvider mirrors snapshots into a directory on the local
// filesystem.
type LocalProvider struct {
	baseDir string
}

// NewLocalProvider creates the base directory if needed and verifies it
// is writable.
func NewLocalProvider(baseDir string) (*LocalProvider, error) {
	if strings.TrimSpace(baseDir) == "" {
		return nil, fmt.Errorf("base directory is required")
	}
	info, err := os.Stat(baseDir)
	switch {
	case os.IsNotExist(err):
		if mkErr := os.MkdirAll(baseDir, 0o750); mkErr != nil {
			return nil, fmt.Errorf("create base directory: %w", mkErr)
		}
	case err != nil:
		return nil, fmt.Errorf("stat base directory: %w", err)
	case !info.IsDir():
		return nil, fmt.Errorf("base directory path is not a directory")
	}

	testFile := filepath.Join(baseDir, ".writable_test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		return nil, fmt.Errorf("base directory is not writable: %w", err)
	}
	if err := os.Remove(testFile); err != nil {
		return nil, fmt.Errorf("clean up writability probe: %w", err)
	}

	return &LocalProvider{baseDir: baseDir}, nil
}

// Save writes data below the base directory, creating parent directories
// as needed. Object names that would escape the base directory are
// rejected.
func (l *LocalProvider) Save(_ context.Context, objectName string, data []byte) error {
	if strings.TrimSpace(objectName) == "" {
		return fmt.Errorf("object name is required")
	}
	fullPath := filepath.Join(l.baseDir, filepath.FromSlash(objectName))

	cleanBase := filepath.Clean(l.baseDir)
	cleanFull := filepath.Clean(fullPath)
	if !strings.HasPrefix(cleanFull, cleanBase+string(filepath.Separator)) {
		return fmt.Errorf("object name escapes base directory")
	}
	if err := os.MkdirAll(filepath.Dir(cleanFull), 0o750); err != nil {
		return fmt.Errorf("create parent directories: %w", err)
	}
	if err := os.WriteFile(cleanFull, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// Close is a no-op for the local provider.
func (*LocalProvider) Close() error { return nil }
