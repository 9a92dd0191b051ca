package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths contains the resolved file system locations of one invocation
type Paths struct {
	OutputDir   string
	UploadsDir  string
	LogFile     string
	TraceFile   string
	MetricsFile string
}

// ResolvePaths turns the configured locations into absolute paths
func ResolvePaths(cfg *Config) (*Paths, error) {
	outputDir, err := absPath(cfg.Output.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve output dir: %w", err)
	}

	paths := &Paths{OutputDir: outputDir}
	// uploads live beside the reports, never inside a run directory
	paths.UploadsDir = filepath.Join(filepath.Dir(outputDir), UploadsDir)
	if paths.LogFile, err = absPath(cfg.Logging.FilePath); err != nil {
		return nil, fmt.Errorf("failed to resolve log file: %w", err)
	}
	if paths.TraceFile, err = absPath(cfg.Telemetry.TraceFile); err != nil {
		return nil, fmt.Errorf("failed to resolve trace file: %w", err)
	}
	if paths.MetricsFile, err = absPath(cfg.Telemetry.MetricsFile); err != nil {
		return nil, fmt.Errorf("failed to resolve metrics file: %w", err)
	}
	return paths, nil
}

// absPath resolves p against the working directory, keeping empty paths empty
func absPath(p string) (string, error) {
	if p == "" {
		return "", nil
	}
	return filepath.Abs(p)
}

// EnsureDirectories creates the output directory and the parent directories
// of every configured file
func (p *Paths) EnsureDirectories() error {
	dirs := []string{p.OutputDir}
	for _, f := range []string{p.LogFile, p.TraceFile, p.MetricsFile} {
		if f != "" {
			dirs = append(dirs, filepath.Dir(f))
		}
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// RunDir creates and returns the report directory of one run
func (p *Paths) RunDir(runID string) (string, error) {
	dir := filepath.Join(p.OutputDir, runID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create run directory: %w", err)
	}
	return dir, nil
}

// FileExists reports whether a regular file exists at path
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
