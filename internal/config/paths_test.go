package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePaths(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	cfg := Default()
	cfg.Output.Dir = "out"
	cfg.Telemetry.MetricsFile = filepath.Join(dir, "metrics", "calcium.prom")

	paths, err := ResolvePaths(cfg)
	require.NoError(t, err)

	// macOS temp dirs resolve through /private
	wd, err := os.Getwd()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(wd, "out"), paths.OutputDir)
	assert.Equal(t, filepath.Join(wd, UploadsDir), paths.UploadsDir)
	assert.Equal(t, filepath.Join(wd, DefaultLogFile), paths.LogFile)
	assert.Equal(t, filepath.Join(dir, "metrics", "calcium.prom"), paths.MetricsFile)
	assert.Empty(t, paths.TraceFile)
}

func TestPaths_EnsureDirectories(t *testing.T) {
	dir := t.TempDir()
	paths := &Paths{
		OutputDir:   filepath.Join(dir, "out"),
		LogFile:     filepath.Join(dir, "logs", "calcium.log"),
		MetricsFile: filepath.Join(dir, "metrics", "calcium.prom"),
	}

	require.NoError(t, paths.EnsureDirectories())

	for _, d := range []string{"out", "logs", "metrics"} {
		info, err := os.Stat(filepath.Join(dir, d))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestPaths_RunDir(t *testing.T) {
	paths := &Paths{OutputDir: t.TempDir()}

	runDir, err := paths.RunDir("run-1")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(paths.OutputDir, "run-1"), runDir)
	assert.DirExists(t, runDir)

	assert.False(t, FileExists(runDir))
	file := filepath.Join(runDir, SummaryFile)
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))
	assert.True(t, FileExists(file))
}
