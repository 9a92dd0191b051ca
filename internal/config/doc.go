// Package config provides configuration management for the calcium CLI.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//  1. Environment variables (highest priority)
//  2. YAML configuration file (calcium.yaml or configs/calcium.yaml)
//  3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern CALCIUM_<SECTION>_<FIELD>:
//
//	CALCIUM_ANALYSIS_START_FRAME_MC=15
//	CALCIUM_OUTPUT_DIR=reports
//	CALCIUM_OUTPUT_FORMAT=both
//	CALCIUM_LOGGING_LEVEL=debug
//	CALCIUM_TELEMETRY_METRICS_FILE=metrics/calcium.prom
//
// # Paths
//
// Paths resolves the output, log and metrics locations and creates the
// per-run report directory:
//
//	paths, err := config.ResolvePaths(cfg)
//	runDir, err := paths.RunDir(runID)
package config
