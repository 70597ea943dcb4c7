package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPruneLogFiles_KeepsNewest(t *testing.T) {
	dir := t.TempDir()
	names := []string{
		"roundreview-2024-01-01T00-00-00.log",
		"roundreview-2024-01-02T00-00-00.log",
		"roundreview-2024-01-03T00-00-00.log",
		"unrelated.log",
	}
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0644))
	}

	require.NoError(t, pruneLogFiles(dir, 2))

	remaining, err := filepath.Glob(filepath.Join(dir, "*.log"))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		filepath.Join(dir, "roundreview-2024-01-02T00-00-00.log"),
		filepath.Join(dir, "roundreview-2024-01-03T00-00-00.log"),
		filepath.Join(dir, "unrelated.log"),
	}, remaining)
}

func TestNewLogger_WritesFileWhenLogDirSet(t *testing.T) {
	dir := t.TempDir()
	logger, closeFn, err := NewLogger(&Config{Environment: "test", LogDir: dir, LogMaxFiles: 3})
	require.NoError(t, err)

	logger.Info("hello", "k", "v")
	require.NoError(t, closeFn())

	files, err := filepath.Glob(filepath.Join(dir, "roundreview-*.log"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
}

func TestConfig_UserAgent(t *testing.T) {
	cfg := &Config{ProductName: "RoundReview", Version: "v0.1.0"}
	assert.Equal(t, "RoundReview/v0.1.0", cfg.UserAgent())
}
