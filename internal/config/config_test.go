package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitchlab/pitchlab/internal/analyzer"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultUser, cfg.User)
	assert.Equal(t, DBPath(), cfg.DBPath)
	assert.Equal(t, analyzer.DefaultOptions(), cfg.AnalyzerOptions())
	assert.True(t, cfg.Output.Color)
	assert.Equal(t, 80, cfg.Output.Width)
	assert.Equal(t, 500*time.Millisecond, cfg.Watch.Debounce)
	assert.True(t, cfg.Watch.Notify)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
db_path: /tmp/pitch.db
user: alice
analytics:
  summary_window: 8
  frequent_error_percent: 50
output:
  color: false
watch:
  debounce: 2s
  notify: false
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/pitch.db", cfg.DBPath)
	assert.Equal(t, "alice", cfg.User)
	opts := cfg.AnalyzerOptions()
	assert.Equal(t, 8, opts.SummaryWindow)
	assert.Equal(t, 50.0, opts.FrequentErrorPercent)
	assert.Equal(t, 5, opts.TrendWindow)
	assert.False(t, cfg.Output.Color)
	assert.Equal(t, 2*time.Second, cfg.Watch.Debounce)
	assert.False(t, cfg.Watch.Notify)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PITCHLAB_USER", "bob")
	t.Setenv("PITCHLAB_ANALYTICS_TOP_ERRORS", "3")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "bob", cfg.User)
	assert.Equal(t, 3, cfg.Analytics.TopErrors)
}

func TestLoad_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("analytics: [unclosed"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "x.db"), expandPath("~/x.db"))
	assert.Equal(t, "/abs/x.db", expandPath("/abs/x.db"))
}
