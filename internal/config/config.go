package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	apperrors "calciumcli/internal/errors"
)

// EnvPrefix namespaces every environment variable, e.g. CALCIUM_LOGGING_LEVEL
const EnvPrefix = "CALCIUM"

var validate = validator.New()

// Config represents the complete application configuration
type Config struct {
	Analysis  AnalysisConfig  `yaml:"analysis" envconfig:"ANALYSIS"`
	Input     InputConfig     `yaml:"input" envconfig:"INPUT"`
	Output    OutputConfig    `yaml:"output" envconfig:"OUTPUT"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
}

// AnalysisConfig holds the stimulus start frames. Zero means unset; the
// analysis waits until all three are positive.
type AnalysisConfig struct {
	StartFrameMC  int `yaml:"start_frame_mc" envconfig:"START_FRAME_MC" validate:"gte=0"`
	StartFrameCap int `yaml:"start_frame_cap" envconfig:"START_FRAME_CAP" validate:"gte=0"`
	StartFrameKCl int `yaml:"start_frame_kcl" envconfig:"START_FRAME_KCL" validate:"gte=0"`
}

// InputConfig controls how recordings are read
type InputConfig struct {
	Sheet       string `yaml:"sheet" envconfig:"SHEET"`
	MaxFileSize int64  `yaml:"max_file_size" envconfig:"MAX_FILE_SIZE" validate:"gt=0"`
}

// OutputConfig controls report generation
type OutputConfig struct {
	Dir    string `yaml:"dir" envconfig:"DIR" validate:"required"`
	Format string `yaml:"format" envconfig:"FORMAT" validate:"oneof=csv xlsx both none"`
	Chart  bool   `yaml:"chart" envconfig:"CHART"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Format   string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// TelemetryConfig controls tracing and metrics
type TelemetryConfig struct {
	ServiceName string `yaml:"service_name" envconfig:"SERVICE_NAME" validate:"required"`
	// Tracing exports spans with the stdout exporter when enabled
	Tracing   bool   `yaml:"tracing" envconfig:"TRACING"`
	TraceFile string `yaml:"trace_file" envconfig:"TRACE_FILE"`
	// MetricsFile receives a Prometheus text exposition after every run
	MetricsFile string `yaml:"metrics_file" envconfig:"METRICS_FILE"`
}

// ServerConfig contains HTTP server settings for serve mode
type ServerConfig struct {
	Addr            string        `yaml:"addr" envconfig:"ADDR" validate:"required"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" validate:"gt=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" validate:"gt=0"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" validate:"gt=0"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" validate:"gt=0"`

	// RequestTimeout bounds one analysis request including report export
	RequestTimeout time.Duration   `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT" validate:"gt=0"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig configures the token bucket in front of the API
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" validate:"gte=0"`
	Burst   int     `yaml:"burst" envconfig:"BURST" validate:"gte=0"`
}

// Load builds the configuration from defaults, an optional YAML file and
// environment variables, in increasing order of precedence. An empty
// filePath searches the usual locations.
func Load(filePath string) (*Config, error) {
	cfg := Default()

	if filePath == "" {
		filePath = getConfigFilePath()
	}
	if filePath != "" {
		if err := loadFromFile(filePath, cfg); err != nil {
			return nil, apperrors.NewConfigError("failed to load config from file", err).
				WithContext("file", filePath)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, apperrors.NewConfigError("failed to load config from env", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFromFile overlays the YAML file onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate checks field ranges and enumerations. Failures are config
// AppErrors.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return apperrors.NewConfigError(
				fmt.Sprintf("invalid %s: %v does not satisfy %s", fe.Namespace(), fe.Value(), fe.Tag()), nil).
				WithContext("field", fe.Namespace())
		}
		return apperrors.NewConfigError("config validation failed", err)
	}

	if c.Server.RateLimit.Enabled && (c.Server.RateLimit.RPS == 0 || c.Server.RateLimit.Burst == 0) {
		return apperrors.NewConfigError("rate limit requires positive rps and burst", nil)
	}
	if c.Logging.Output != "console" && c.Logging.FilePath == "" {
		return apperrors.NewConfigError(fmt.Sprintf("logging output %q requires a file path", c.Logging.Output), nil)
	}
	return nil
}

// getConfigFilePath returns the first config file found in the usual locations
func getConfigFilePath() string {
	locations := []string{
		"calcium.yaml",
		"configs/calcium.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Input: InputConfig{
			MaxFileSize: DefaultMaxFileSize,
		},
		Output: OutputConfig{
			Dir:    DefaultOutputDir,
			Format: FormatCSV,
		},
		Logging: LoggingConfig{
			Level:    DefaultLogLevel,
			Format:   DefaultLogFormat,
			Output:   "console",
			FilePath: DefaultLogFile,
		},
		Telemetry: TelemetryConfig{
			ServiceName: AppName,
		},
		Server: ServerConfig{
			Addr:            DefaultServerAddr,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    2 * time.Minute,
			IdleTimeout:     2 * time.Minute,
			ShutdownTimeout: 30 * time.Second,
			RequestTimeout:  time.Minute,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     5,
				Burst:   10,
			},
		},
	}
}
