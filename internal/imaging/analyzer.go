package imaging

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "calciumcli/internal/errors"
	"calciumcli/internal/infrastructure"
	"calciumcli/pkg/contracts/domain"
)

// TracerName is the instrumentation scope of analysis spans
const TracerName = "calciumcli.imaging"

// WindowMeans holds the four window aggregates of one run
type WindowMeans struct {
	Baseline WindowMean `json:"baseline"`
	MC       WindowMean `json:"mc"`
	Cap      WindowMean `json:"cap"`
	KCl      WindowMean `json:"kcl"`
}

// WindowTables holds the per-window intensity tables for presentation
type WindowTables struct {
	Baseline      domain.Table `json:"baseline"`
	KCl           domain.Table `json:"kcl"`
	CapResponders domain.Table `json:"cap_responders"`
	MCResponders  domain.Table `json:"mc_responders"`
}

// Result is the complete output of one analysis run. Group-dependent
// fields are nil when the defining responder set is empty.
type Result struct {
	Params  RunParameters `json:"params"`
	Source  string        `json:"source"`
	Frames  int           `json:"frames"`
	Neurons int           `json:"neurons"`

	Windows WindowMeans  `json:"windows"`
	Tables  WindowTables `json:"tables"`

	CapResponders ResponderSet `json:"cap_responders"`
	MCResponders  ResponderSet `json:"mc_responders"`

	CapResponses *ResponseTable `json:"cap_responses,omitempty"`
	MCResponses  *ResponseTable `json:"mc_responses,omitempty"`

	// MCCapRatio is computed for Cap responders but not part of the
	// summary output
	MCCapRatio    *RatioSet `json:"mc_cap_ratio,omitempty"`
	MCKClRatioCap *RatioSet `json:"mc_kcl_ratio_cap,omitempty"`
	MCKClRatioMC  *RatioSet `json:"mc_kcl_ratio_mc,omitempty"`

	Sizes   SizeReport    `json:"sizes"`
	Overlap OverlapReport `json:"overlap"`

	// DegenerateNeurons have a zero baseline mean
	DegenerateNeurons []int `json:"degenerate_neurons"`
	// EmptyWindows lists stimulus windows that start past the last frame
	EmptyWindows []Condition `json:"empty_windows,omitempty"`

	Duration time.Duration `json:"duration"`
}

// Analyzer runs the responder analysis. It keeps no state between runs.
type Analyzer struct {
	logger *slog.Logger
	tracer trace.Tracer
}

// NewAnalyzer creates a new analyzer
func NewAnalyzer(logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{
		logger: infrastructure.WithComponent(logger, "analyzer"),
		tracer: otel.Tracer(TracerName),
	}
}

// Run executes the full pipeline on a recording. It returns an error
// wrapping apperrors.ErrNotReady, without computing anything, unless all
// start frames are positive.
func (a *Analyzer) Run(ctx context.Context, rec *domain.Recording, params RunParameters) (*Result, error) {
	if err := params.Validate(); err != nil {
		a.logger.DebugContext(ctx, "analysis not ready", slog.String("reason", err.Error()))
		return nil, err
	}
	if rec == nil || len(rec.Neurons) == 0 || rec.Frames == 0 {
		return nil, apperrors.NewMalformedInputError("recording has no neurons", nil)
	}

	start := time.Now()
	ctx, span := a.tracer.Start(ctx, "imaging.run",
		trace.WithAttributes(
			attribute.String("recording.source", rec.Source),
			attribute.Int("recording.frames", rec.Frames),
			attribute.Int("recording.neurons", len(rec.Neurons)),
			attribute.Int("params.start_frame_mc", params.StartFrameMC),
			attribute.Int("params.start_frame_cap", params.StartFrameCap),
			attribute.Int("params.start_frame_kcl", params.StartFrameKCl),
		))
	defer span.End()

	a.logger.InfoContext(ctx, "starting responder analysis",
		slog.String("source", rec.Source),
		slog.Int("frames", rec.Frames),
		slog.Int("neurons", len(rec.Neurons)),
		slog.Int("start_frame_mc", params.StartFrameMC),
		slog.Int("start_frame_cap", params.StartFrameCap),
		slog.Int("start_frame_kcl", params.StartFrameKCl))

	result := &Result{
		Params:  params,
		Source:  rec.Source,
		Frames:  rec.Frames,
		Neurons: len(rec.Neurons),
	}

	// 1. Window means, each computed exactly once
	result.Windows = a.aggregateWindows(ctx, rec, params)
	for _, wm := range []WindowMean{result.Windows.MC, result.Windows.Cap, result.Windows.KCl} {
		if !wm.Defined() {
			result.EmptyWindows = append(result.EmptyWindows, wm.Spec.Condition)
			a.logger.WarnContext(ctx, "stimulus window starts after the last frame",
				slog.String("condition", string(wm.Spec.Condition)),
				slog.Int("start", wm.Spec.Start),
				slog.Int("frames", rec.Frames))
		}
	}
	baseline := result.Windows.Baseline

	// 2. Responder groups
	_, classifySpan := a.tracer.Start(ctx, "imaging.classify")
	result.CapResponders = Classify(result.Windows.Cap, baseline)
	result.MCResponders = Classify(result.Windows.MC, baseline)
	classifySpan.SetAttributes(
		attribute.Int("responders.cap", result.CapResponders.Len()),
		attribute.Int("responders.mc", result.MCResponders.Len()))
	classifySpan.End()

	result.Tables = WindowTables{
		Baseline:      WindowTable(rec, baseline.Spec, nil),
		KCl:           WindowTable(rec, result.Windows.KCl.Spec, nil),
		CapResponders: WindowTable(rec, result.Windows.Cap.Spec, result.CapResponders.IDs),
		MCResponders:  WindowTable(rec, result.Windows.MC.Spec, result.MCResponders.IDs),
	}

	// 3. Normalization and ratios per responder group
	_, ratioSpan := a.tracer.Start(ctx, "imaging.normalize")
	if !result.CapResponders.Empty() {
		table := Normalize(result.CapResponders, baseline,
			result.Windows.MC, result.Windows.Cap, result.Windows.KCl)
		mcCap := MCCapRatio(table)
		mcKCl := MCKClRatioCap(table)
		result.CapResponses = &table
		result.MCCapRatio = &mcCap
		result.MCKClRatioCap = &mcKCl
		a.logRatios(ctx, mcKCl)
	} else {
		a.logger.InfoContext(ctx, "no Cap responders, skipping Cap group computations")
	}

	if !result.MCResponders.Empty() {
		table := Normalize(result.MCResponders, baseline, result.Windows.MC, result.Windows.KCl)
		mcKCl := MCKClRatioMC(table)
		result.MCResponses = &table
		result.MCKClRatioMC = &mcKCl
		a.logRatios(ctx, mcKCl)
	} else {
		a.logger.InfoContext(ctx, "no m-CPBG responders, skipping m-CPBG group computations")
	}
	ratioSpan.End()

	// 4. Sizes, correlation and overlap
	mcResponses := make(map[int]Normalized, len(baseline.IDs))
	for _, id := range baseline.IDs {
		mcResponses[id] = DeltaFOverF(result.Windows.MC.Value(id), baseline.Value(id))
		if baseline.Value(id) == 0 {
			result.DegenerateNeurons = append(result.DegenerateNeurons, id)
		}
	}
	for _, id := range result.DegenerateNeurons {
		a.logger.WarnContext(ctx, "degenerate baseline, neuron excluded from normalized outputs",
			slog.Int("neuron_id", id),
			slog.String("error", apperrors.NewDegenerateBaselineError(id).Error()))
	}

	result.Sizes = CorrelateSize(rec, result.MCResponders, mcResponses)
	result.Overlap = Overlap(result.CapResponders, result.MCResponders)

	result.Duration = time.Since(start)
	span.SetAttributes(
		attribute.Int("responders.cap", result.CapResponders.Len()),
		attribute.Int("responders.mc", result.MCResponders.Len()),
		attribute.Int("overlap.both", result.Overlap.Both),
		attribute.Int("neurons.degenerate", len(result.DegenerateNeurons)))
	span.SetStatus(codes.Ok, "analysis complete")

	a.logger.InfoContext(ctx, "responder analysis completed",
		slog.Int("cap_responders", result.CapResponders.Len()),
		slog.Int("mc_responders", result.MCResponders.Len()),
		slog.Int("shared_responders", result.Overlap.Both),
		slog.Int("degenerate_neurons", len(result.DegenerateNeurons)),
		slog.Duration("duration", result.Duration))

	return result, nil
}

func (a *Analyzer) aggregateWindows(ctx context.Context, rec *domain.Recording, params RunParameters) WindowMeans {
	_, span := a.tracer.Start(ctx, "imaging.aggregate")
	defer span.End()

	means := WindowMeans{
		Baseline: Aggregate(rec, BaselineWindow()),
		MC:       Aggregate(rec, params.Window(ConditionMC)),
		Cap:      Aggregate(rec, params.Window(ConditionCap)),
		KCl:      Aggregate(rec, params.Window(ConditionKCl)),
	}

	for _, wm := range []WindowMean{means.Baseline, means.MC, means.Cap, means.KCl} {
		a.logger.DebugContext(ctx, "window aggregated",
			slog.String("condition", string(wm.Spec.Condition)),
			slog.Int("start", wm.Spec.Start),
			slog.Int("length", wm.Spec.Length),
			slog.Int("frames_used", wm.Frames))
	}
	return means
}

func (a *Analyzer) logRatios(ctx context.Context, rs RatioSet) {
	a.logger.InfoContext(ctx, "ratios computed",
		slog.String("ratio", rs.Name),
		slog.Int("group_size", rs.GroupSize),
		slog.Int("retained", rs.RetainedCount),
		slog.Int("dropped", rs.Dropped()),
		slog.Int("guard_failures", rs.GuardFailures),
		slog.Int("negative_drops", rs.NegativeDrops),
		slog.Int("degenerate", rs.Degenerate),
		slog.Int("zero_denominators", rs.ZeroDenominators),
		slog.String("group", fmt.Sprintf("%s responders", rs.Group.DisplayName())))
}
