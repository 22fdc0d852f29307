package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitWritesToLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "newslens.log")
	Init(true, path)
	t.Cleanup(func() { _ = Close() })

	Debug("debug line", "k", "v")
	Info("info line")
	require.NoError(t, Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "debug line")
	assert.Contains(t, string(data), "k=v")
	assert.Contains(t, string(data), "info line")
}

func TestInitInfoLevelDropsDebug(t *testing.T) {
	path := filepath.Join(t.TempDir(), "info.log")
	Init(false, path)
	t.Cleanup(func() { _ = Close() })

	Debug("hidden")
	Warn("shown")
	require.NoError(t, Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, string(data), "shown")
}
