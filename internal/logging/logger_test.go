package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("Development", func(t *testing.T) {
		logger, err := New(true)
		require.NoError(t, err)
		assert.True(t, logger.Core().Enabled(-1), "dev logger should enable debug")
	})

	t.Run("Production", func(t *testing.T) {
		logger, err := New(false)
		require.NoError(t, err)
		assert.False(t, logger.Core().Enabled(-1), "prod logger should suppress debug")
	})
}

func TestInitLoggerReplacesGlobal(t *testing.T) {
	old := L
	t.Cleanup(func() { L = old })

	InitLogger(true)
	assert.NotSame(t, old, L)
}
