package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "calciumcli/internal/errors"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "calcium.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// TestLoad tests the Load function with various scenarios
func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		file        string
		wantErr     bool
		validateCfg func(*testing.T, *Config)
	}{
		{
			name: "defaults with no file and no env vars",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, DefaultOutputDir, cfg.Output.Dir)
				assert.Equal(t, FormatCSV, cfg.Output.Format)
				assert.Equal(t, "info", cfg.Logging.Level)
				assert.Equal(t, "json", cfg.Logging.Format)
				assert.Equal(t, "console", cfg.Logging.Output)
				assert.Equal(t, AppName, cfg.Telemetry.ServiceName)
				assert.Zero(t, cfg.Analysis.StartFrameMC)
			},
		},
		{
			name: "file values override defaults",
			file: `
analysis:
  start_frame_mc: 15
  start_frame_cap: 12
  start_frame_kcl: 18
output:
  dir: out
  format: both
  chart: true
logging:
  level: debug
`,
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, AnalysisConfig{StartFrameMC: 15, StartFrameCap: 12, StartFrameKCl: 18}, cfg.Analysis)
				assert.Equal(t, "out", cfg.Output.Dir)
				assert.Equal(t, FormatBoth, cfg.Output.Format)
				assert.True(t, cfg.Output.Chart)
				assert.Equal(t, "debug", cfg.Logging.Level)
				// untouched sections keep defaults
				assert.Equal(t, "json", cfg.Logging.Format)
			},
		},
		{
			name: "env vars override file values",
			file: `
output:
  format: xlsx
analysis:
  start_frame_cap: 12
`,
			env: map[string]string{
				"CALCIUM_OUTPUT_FORMAT":           "csv",
				"CALCIUM_ANALYSIS_START_FRAME_MC": "20",
				"CALCIUM_TELEMETRY_METRICS_FILE":  "metrics/calcium.prom",
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, FormatCSV, cfg.Output.Format)
				assert.Equal(t, 20, cfg.Analysis.StartFrameMC)
				assert.Equal(t, 12, cfg.Analysis.StartFrameCap)
				assert.Equal(t, "metrics/calcium.prom", cfg.Telemetry.MetricsFile)
			},
		},
		{
			name: "server settings from file and env",
			file: `
server:
  addr: ":9090"
  read_timeout: 45s
`,
			env: map[string]string{
				"CALCIUM_SERVER_RATE_LIMIT_RPS":   "2.5",
				"CALCIUM_SERVER_SHUTDOWN_TIMEOUT": "5s",
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, ":9090", cfg.Server.Addr)
				assert.Equal(t, 45*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, 5*time.Second, cfg.Server.ShutdownTimeout)
				assert.Equal(t, 2.5, cfg.Server.RateLimit.RPS)
				assert.Equal(t, 10, cfg.Server.RateLimit.Burst)
			},
		},
		{
			name:    "invalid format",
			env:     map[string]string{"CALCIUM_OUTPUT_FORMAT": "pdf"},
			wantErr: true,
		},
		{
			name:    "invalid log level",
			file:    "logging:\n  level: verbose\n",
			wantErr: true,
		},
		{
			name:    "negative start frame",
			env:     map[string]string{"CALCIUM_ANALYSIS_START_FRAME_KCL": "-2"},
			wantErr: true,
		},
		{
			name:    "non-numeric env value",
			env:     map[string]string{"CALCIUM_ANALYSIS_START_FRAME_KCL": "late"},
			wantErr: true,
		},
		{
			name:    "malformed yaml",
			file:    "output: [unterminated",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := ""
			if tt.file != "" {
				path = writeConfigFile(t, tt.file)
			} else {
				// keep getConfigFilePath from finding a stray file
				t.Chdir(t.TempDir())
			}

			cfg, err := Load(path)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig), err.Error())
				return
			}
			require.NoError(t, err)
			tt.validateCfg(t, cfg)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.yaml")
	_, err := Load(path)
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrTypeConfig, appErr.Type)
	assert.Equal(t, path, appErr.Context["file"])
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestConfig_Validate(t *testing.T) {
	t.Run("default is valid", func(t *testing.T) {
		assert.NoError(t, Default().Validate())
	})

	t.Run("file logging requires a path", func(t *testing.T) {
		cfg := Default()
		cfg.Logging.Output = "both"
		cfg.Logging.FilePath = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("format enumeration", func(t *testing.T) {
		cfg := Default()
		cfg.Output.Format = "pdf"
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Format")

		var appErr *apperrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, apperrors.ErrTypeConfig, appErr.Type)
		assert.Equal(t, "Config.Output.Format", appErr.Context["field"])
	})

	t.Run("enabled rate limit needs a bucket", func(t *testing.T) {
		cfg := Default()
		cfg.Server.RateLimit.Burst = 0
		assert.Error(t, cfg.Validate())

		cfg.Server.RateLimit.Enabled = false
		assert.NoError(t, cfg.Validate())
	})

	t.Run("output dir required", func(t *testing.T) {
		cfg := Default()
		cfg.Output.Dir = ""
		assert.Error(t, cfg.Validate())
	})
}
