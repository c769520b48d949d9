package mirror_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hfujimori/agenda-sync/internal/mirror"
)

func TestNewLocalProvider(t *testing.T) {
	t.Run("ExistingDir", func(t *testing.T) {
		_, err := mirror.NewLocalProvider(t.TempDir())
		require.NoError(t, err)
	})
	t.Run("CreatesMissingDir", func(t *testing.T) {
		base := filepath.Join(t.TempDir(), "snapshots")
		_, err := mirror.NewLocalProvider(base)
		require.NoError(t, err)
		info, err := os.Stat(base)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})
	t.Run("EmptyBaseDir", func(t *testing.T) {
		_, err := mirror.NewLocalProvider("  ")
		require.Error(t, err)
	})
	t.Run("BaseDirIsFile", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "file")
		require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
		_, err := mirror.NewLocalProvider(file)
		require.Error(t, err)
	})
}

func TestLocalProviderSave(t *testing.T) {
	base := t.TempDir()
	p, err := mirror.NewLocalProvider(base)
	require.NoError(t, err)

	err = p.Save(context.Background(), "2025-10-01/events.json", []byte(`[]`))
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(base, "2025-10-01", "events.json"))
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(data))

	// Overwrite keeps the latest snapshot.
	require.NoError(t, p.Save(context.Background(), "2025-10-01/events.json", []byte(`[{}]`)))
	data, err = os.ReadFile(filepath.Join(base, "2025-10-01", "events.json"))
	require.NoError(t, err)
	assert.Equal(t, `[{}]`, string(data))
}

func TestLocalProviderRejectsTraversal(t *testing.T) {
	p, err := mirror.NewLocalProvider(t.TempDir())
	require.NoError(t, err)

	err = p.Save(context.Background(), "../outside.json", []byte(`{}`))
	require.Error(t, err)

	err = p.Save(context.Background(), " ", []byte(`{}`))
	require.Error(t, err)
}
