// Command calcium classifies calcium-imaging neurons as responders to
// capsaicin and m-CPBG and writes the analysis reports.
//
// Usage:
//
//	calcium -in recording.xlsx -mc 15 -cap 12 -kcl 18 [-out reports] [-format csv|xlsx|both|none] [-chart]
//	calcium serve [-addr 127.0.0.1:8080]
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"calciumcli/internal/app"
	"calciumcli/internal/config"
	apperrors "calciumcli/internal/errors"
	"calciumcli/internal/exporter"
	"calciumcli/internal/imaging"
	"calciumcli/internal/infrastructure"
	"calciumcli/internal/services"
	"calciumcli/pkg/contracts"
)

// Exit codes
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command line and returns the process exit code
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) > 0 && args[0] == "serve" {
		return runServe(ctx, args[1:], stderr)
	}
	return runAnalyze(ctx, args, stdout, stderr)
}

func runAnalyze(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("calcium", flag.ContinueOnError)
	fs.SetOutput(stderr)
	in := fs.String("in", "", "input recording (.xlsx or .csv, no header, size/intensity column pairs)")
	mc := fs.Int("mc", 0, "m-CPBG start frame (must be > 0)")
	capFrame := fs.Int("cap", 0, "capsaicin start frame (must be > 0)")
	kcl := fs.Int("kcl", 0, "KCl start frame (must be > 0)")
	sheet := fs.String("sheet", "", "worksheet to read (defaults to the first sheet)")
	out := fs.String("out", "", "output directory for reports")
	format := fs.String("format", "", "report format: csv, xlsx, both or none")
	chart := fs.Bool("chart", false, "render the responder overlap chart")
	configFile := fs.String("config", "", "YAML configuration file")
	version := fs.Bool("version", false, "print version information and exit")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	if *version {
		fmt.Fprintln(stdout, contracts.GetVersionInfo().String())
		return exitOK
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(stderr, "calcium: %v\n", err)
		return exitUsage
	}

	// explicit flags override file and environment
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "mc":
			cfg.Analysis.StartFrameMC = *mc
		case "cap":
			cfg.Analysis.StartFrameCap = *capFrame
		case "kcl":
			cfg.Analysis.StartFrameKCl = *kcl
		case "sheet":
			cfg.Input.Sheet = *sheet
		case "out":
			cfg.Output.Dir = *out
		case "format":
			cfg.Output.Format = strings.ToLower(*format)
		case "chart":
			cfg.Output.Chart = *chart
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "calcium: %v\n", err)
		return exitUsage
	}
	if *in == "" {
		fmt.Fprintln(stderr, "calcium: -in is required")
		fs.Usage()
		return exitUsage
	}

	env, err := bootstrap(cfg, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "calcium: %v\n", err)
		return exitError
	}
	defer env.close()

	svc := services.NewAnalysisService(cfg, env.paths, env.logger.Logger,
		services.WithTelemetry(env.providers))
	outcome, err := svc.Run(ctx, services.AnalysisRequest{
		InputPath: *in,
		Params:    services.ParamsFromConfig(cfg.Analysis),
	})
	if apperrors.IsNotReady(err) {
		fmt.Fprintln(stdout, "waiting for start frames")
		return exitOK
	}
	if err != nil {
		fmt.Fprintf(stderr, "calcium: %v\n", err)
		return exitError
	}

	printSummary(stdout, outcome)
	return exitOK
}

func runServe(ctx context.Context, args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("calcium serve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	addr := fs.String("addr", "", "listen address (host:port)")
	configFile := fs.String("config", "", "YAML configuration file")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(stderr, "calcium: %v\n", err)
		return exitUsage
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	env, err := bootstrap(cfg, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "calcium: %v\n", err)
		return exitError
	}
	defer env.close()

	application, err := app.NewApplication(cfg, env.paths, env.logger.Logger, env.providers)
	if err != nil {
		infrastructure.WithError(env.logger.Logger, err).Error("Failed to create application")
		return exitError
	}
	if err := application.Run(ctx); err != nil {
		infrastructure.WithError(env.logger.Logger, err).Error("Server failed")
		return exitError
	}
	return exitOK
}

// environment holds the process-wide logger, paths and telemetry
type environment struct {
	paths     *config.Paths
	logger    *infrastructure.Logger
	providers *infrastructure.OTelProviders
	traceFile *os.File
}

func bootstrap(cfg *config.Config, stderr io.Writer) (*environment, error) {
	paths, err := config.ResolvePaths(cfg)
	if err != nil {
		return nil, err
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, err
	}

	logger, err := infrastructure.NewLogger(cfg.Logging, stderr)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	env := &environment{paths: paths, logger: logger}

	otelCfg := infrastructure.OTelConfig{
		ServiceName:   cfg.Telemetry.ServiceName,
		EnableTracing: cfg.Telemetry.Tracing,
		TraceWriter:   stderr,
		MetricsFile:   paths.MetricsFile,
	}
	if cfg.Telemetry.Tracing && paths.TraceFile != "" {
		f, err := os.Create(paths.TraceFile)
		if err != nil {
			env.close()
			return nil, fmt.Errorf("failed to create trace file: %w", err)
		}
		env.traceFile = f
		otelCfg.TraceWriter = f
	}

	env.providers, err = infrastructure.InitializeOTel(otelCfg, logger.Logger)
	if err != nil {
		env.close()
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}
	return env, nil
}

func (e *environment) close() {
	if e.providers != nil {
		if err := e.providers.Shutdown(context.Background()); err != nil {
			infrastructure.WithError(e.logger.Logger, err).Warn("Failed to shut down telemetry")
		}
	}
	if e.traceFile != nil {
		e.traceFile.Close()
	}
	e.logger.Close()
}

// printSummary writes the human-readable run summary
func printSummary(w io.Writer, o *services.AnalysisOutcome) {
	s := o.Summary
	fmt.Fprintf(w, "Run %s: %s (%d frames, %d neurons)\n", s.RunID, s.Source, s.Frames, s.Neurons)
	fmt.Fprintf(w, "Start frames: m-CPBG %d, Cap %d, KCl %d\n",
		s.Params.StartFrameMC, s.Params.StartFrameCap, s.Params.StartFrameKCl)
	fmt.Fprintf(w, "Cap responders: %d %s\n", s.CapResponders, labelList(s.CapResponderLabels))
	fmt.Fprintf(w, "m-CPBG responders: %d %s\n", s.MCResponders, labelList(s.MCResponderLabels))
	fmt.Fprintf(w, "m-CPBG/KCl (Cap responders): %s%s\n",
		valueList(s.MCKClRatioCap), dropNote(s.RatioCounts, imaging.RatioMCKClCap))
	fmt.Fprintf(w, "m-CPBG/KCl (m-CPBG responders): %s%s\n",
		valueList(s.MCKClRatioMC), dropNote(s.RatioCounts, imaging.RatioMCKClMC))
	fmt.Fprintf(w, "Responder size: %s, non-responder size: %s, size/response r: %s\n",
		estimate(s.ResponderSize), estimate(s.NonResponderSize), estimate(s.SizeCorrelation))
	fmt.Fprintf(w, "Overlap: only Cap %d, both %d, only m-CPBG %d %s\n",
		s.OnlyCap, s.Both, s.OnlyMC, labelList(s.SharedLabels))
	if len(s.DegenerateLabels) > 0 {
		fmt.Fprintf(w, "Degenerate baselines: %s\n", labelList(s.DegenerateLabels))
	}
	if len(s.EmptyWindows) > 0 {
		fmt.Fprintf(w, "Empty windows: %s\n", strings.Join(s.EmptyWindows, ", "))
	}
	if o.ReportDir != "" {
		fmt.Fprintf(w, "Reports: %s (%d files)\n", o.ReportDir, len(o.Files))
	}
}

func labelList(labels []string) string {
	return "[" + strings.Join(labels, ", ") + "]"
}

func valueList(values exporter.LabeledValues) string {
	if len(values) == 0 {
		return "none"
	}
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprintf("%s=%g", v.Label, v.Value)
	}
	return strings.Join(parts, ", ")
}

// dropNote reports how many neurons of a ratio group were kept and why
// the others were dropped
func dropNote(counts []exporter.RatioCounts, name string) string {
	for _, rc := range counts {
		if rc.Name != name {
			continue
		}
		note := fmt.Sprintf(" (%d/%d retained; guard %d, negative %d", rc.Retained, rc.GroupSize,
			rc.GuardFailures, rc.NegativeDrops)
		if other := rc.Degenerate + rc.Undefined + rc.ZeroDenominators; other > 0 {
			note += fmt.Sprintf(", degenerate %d, undefined %d, zero denominator %d",
				rc.Degenerate, rc.Undefined, rc.ZeroDenominators)
		}
		return note + ")"
	}
	return ""
}

func estimate(e imaging.Estimate) string {
	if !e.Defined {
		return "n/a"
	}
	return fmt.Sprintf("%g", e.Value)
}
