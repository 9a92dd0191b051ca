package services

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"calciumcli/internal/config"
	"calciumcli/internal/dataprocessing"
	apperrors "calciumcli/internal/errors"
	"calciumcli/internal/exporter"
	"calciumcli/internal/imaging"
	"calciumcli/internal/infrastructure"
	"calciumcli/internal/validation"
	"calciumcli/pkg/contracts/domain"
)

// Run lifecycle events
const (
	EventRunStarted   = "analysis:started"
	EventRunWaiting   = "analysis:waiting"
	EventRunCompleted = "analysis:completed"
	EventRunFailed    = "analysis:failed"
)

// EventPublisher receives run lifecycle events
type EventPublisher interface {
	Publish(ctx context.Context, eventType, runID string, data any)
}

// AnalysisRequest describes one run
type AnalysisRequest struct {
	InputPath string
	// SourceName is reported instead of InputPath when set, e.g. the
	// original name of an uploaded file
	SourceName string
	Sheet      string
	Params     imaging.RunParameters
}

// AnalysisOutcome is the result of a completed run
type AnalysisOutcome struct {
	RunID     string
	Result    *imaging.Result
	Summary   exporter.Summary
	Preview   domain.Table
	ReportDir string
	Files     []string
	Duration  time.Duration
}

// AnalysisService runs the responder pipeline for one input file and
// writes its reports
type AnalysisService struct {
	cfg       *config.Config
	paths     *config.Paths
	validator *validation.FileValidator
	parser    *dataprocessing.Parser
	analyzer  *imaging.Analyzer
	exporter  *exporter.Exporter
	telemetry *infrastructure.OTelProviders
	events    EventPublisher
	tracer    trace.Tracer
	logger    *slog.Logger
}

// Option configures an AnalysisService
type Option func(*AnalysisService)

// WithTelemetry records run metrics on the given providers
func WithTelemetry(p *infrastructure.OTelProviders) Option {
	return func(s *AnalysisService) {
		s.telemetry = p
	}
}

// WithEvents publishes run lifecycle events
func WithEvents(p EventPublisher) Option {
	return func(s *AnalysisService) {
		s.events = p
	}
}

// NewAnalysisService creates a new analysis service
func NewAnalysisService(cfg *config.Config, paths *config.Paths, logger *slog.Logger, opts ...Option) *AnalysisService {
	if logger == nil {
		logger = slog.Default()
	}

	s := &AnalysisService{
		cfg:       cfg,
		paths:     paths,
		validator: validation.NewFileValidator(cfg.Input.MaxFileSize, logger),
		parser:    dataprocessing.NewParser(logger),
		analyzer:  imaging.NewAnalyzer(logger),
		exporter: exporter.New(logger, exporter.Options{
			Format: cfg.Output.Format,
			Chart:  cfg.Output.Chart,
		}),
		tracer: otel.Tracer("calciumcli.services"),
		logger: logger.With(slog.String("service", "analysis")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Validator returns the file validator used for inputs
func (s *AnalysisService) Validator() *validation.FileValidator {
	return s.validator
}

// ParamsFromConfig converts configured start frames into run parameters
func ParamsFromConfig(cfg config.AnalysisConfig) imaging.RunParameters {
	return imaging.RunParameters{
		StartFrameMC:  cfg.StartFrameMC,
		StartFrameCap: cfg.StartFrameCap,
		StartFrameKCl: cfg.StartFrameKCl,
	}
}

// Run executes one analysis. When the start frames are not all positive it
// returns an error wrapping apperrors.ErrNotReady before touching the
// input file.
func (s *AnalysisService) Run(ctx context.Context, req AnalysisRequest) (*AnalysisOutcome, error) {
	ctx, runID := infrastructure.EnsureRunID(ctx)
	start := time.Now()

	if err := req.Params.Validate(); err != nil {
		s.logger.InfoContext(ctx, "waiting for start frames",
			slog.Int("start_frame_mc", req.Params.StartFrameMC),
			slog.Int("start_frame_cap", req.Params.StartFrameCap),
			slog.Int("start_frame_kcl", req.Params.StartFrameKCl))
		s.record(ctx, infrastructure.RunObservation{Outcome: infrastructure.OutcomeNotReady})
		s.publish(ctx, EventRunWaiting, runID, map[string]any{"params": req.Params})
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "analysis.run", trace.WithAttributes(
		attribute.String("run.id", runID),
		attribute.String("input.path", req.InputPath)))
	defer span.End()

	s.publish(ctx, EventRunStarted, runID, map[string]any{
		"source": s.sourceName(req),
		"params": req.Params,
	})

	outcome, err := s.run(ctx, runID, req)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		infrastructure.WithError(s.logger, err).ErrorContext(ctx, "analysis failed",
			slog.String("input", req.InputPath))
		s.record(ctx, infrastructure.RunObservation{Outcome: infrastructure.OutcomeFailed})
		s.publish(ctx, EventRunFailed, runID, map[string]any{"error": err.Error()})
		return nil, err
	}

	outcome.Duration = time.Since(start)
	s.record(ctx, observe(outcome))
	s.publish(ctx, EventRunCompleted, runID, outcome.Summary)

	s.logger.InfoContext(ctx, "analysis completed",
		slog.String("report_dir", outcome.ReportDir),
		slog.Int("files", len(outcome.Files)),
		slog.Duration("duration", outcome.Duration))
	return outcome, nil
}

func (s *AnalysisService) run(ctx context.Context, runID string, req AnalysisRequest) (*AnalysisOutcome, error) {
	if err := s.validator.ValidateRecordingFile(req.InputPath); err != nil {
		return nil, err
	}

	sheet := req.Sheet
	if sheet == "" {
		sheet = s.cfg.Input.Sheet
	}
	dataset, err := s.parser.ParseFile(ctx, req.InputPath, dataprocessing.ParseOptions{Sheet: sheet})
	if err != nil {
		return nil, err
	}
	dataset.Source = s.sourceName(req)

	rec, err := dataprocessing.Demultiplex(dataset)
	if err != nil {
		return nil, err
	}
	infrastructure.AddSpanEvent(ctx, "recording.loaded", map[string]string{
		"source": rec.Source,
	})

	result, err := s.analyzer.Run(ctx, rec, req.Params)
	if err != nil {
		return nil, err
	}

	outcome := &AnalysisOutcome{
		RunID:   runID,
		Result:  result,
		Summary: exporter.BuildSummary(runID, result),
		Preview: dataprocessing.Preview(rec),
	}

	if !s.exportsReports() {
		return outcome, nil
	}
	dir, err := s.paths.RunDir(runID)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to create run directory", err).WithContext("run_id", runID)
	}
	outcome.ReportDir = dir
	outcome.Files, err = s.exporter.Export(ctx, dir, exporter.Report{
		RunID:       runID,
		Result:      result,
		Preview:     outcome.Preview,
		Sizes:       dataprocessing.SizeTable(rec),
		Intensities: dataprocessing.IntensityTable(rec),
	})
	if err != nil {
		return nil, err
	}
	return outcome, nil
}

func (s *AnalysisService) exportsReports() bool {
	return s.cfg.Output.Format != config.FormatNone || s.cfg.Output.Chart
}

func (s *AnalysisService) sourceName(req AnalysisRequest) string {
	if req.SourceName != "" {
		return req.SourceName
	}
	return req.InputPath
}

// record updates run metrics and rewrites the metrics textfile
func (s *AnalysisService) record(ctx context.Context, obs infrastructure.RunObservation) {
	if s.telemetry == nil || s.telemetry.Metrics == nil {
		return
	}
	s.telemetry.Metrics.RecordRun(ctx, obs)
	if err := s.telemetry.WriteMetrics(); err != nil {
		s.logger.WarnContext(ctx, "failed to write metrics",
			slog.String("error", err.Error()))
	}
}

func (s *AnalysisService) publish(ctx context.Context, eventType, runID string, data any) {
	if s.events == nil {
		return
	}
	s.events.Publish(ctx, eventType, runID, data)
}

// observe summarizes a completed run for metrics
func observe(o *AnalysisOutcome) infrastructure.RunObservation {
	r := o.Result
	obs := infrastructure.RunObservation{
		Outcome:  infrastructure.OutcomeOK,
		Duration: o.Duration,
		Neurons:  r.Neurons,
		Responders: map[string]int{
			string(imaging.ConditionCap): r.CapResponders.Len(),
			string(imaging.ConditionMC):  r.MCResponders.Len(),
		},
		RatioStatus: make(map[string]map[string]int),
		Degenerate:  len(r.DegenerateNeurons),
		Reports:     len(o.Files),
	}
	for _, rs := range []*imaging.RatioSet{r.MCCapRatio, r.MCKClRatioCap, r.MCKClRatioMC} {
		if rs == nil {
			continue
		}
		byStatus := make(map[string]int)
		for _, e := range rs.Entries {
			byStatus[string(e.Status)]++
		}
		obs.RatioStatus[rs.Name] = byStatus
	}
	return obs
}
