package infrastructure

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Run outcomes
const (
	OutcomeOK       = "ok"
	OutcomeNotReady = "not_ready"
	OutcomeFailed   = "failed"
)

// AnalysisMetrics holds the instruments recorded once per analysis run
type AnalysisMetrics struct {
	runsTotal    metric.Int64Counter
	runDuration  metric.Float64Histogram
	neuronsTotal metric.Int64Counter
	responders   metric.Int64Gauge
	ratioEntries metric.Int64Counter
	degenerate   metric.Int64Counter
	reportsTotal metric.Int64Counter
}

// RunObservation is what a finished run reports to metrics
type RunObservation struct {
	Outcome  string
	Duration time.Duration
	Neurons  int
	// Responders maps a condition to its responder count
	Responders map[string]int
	// RatioStatus maps a ratio name to per-status entry counts
	RatioStatus map[string]map[string]int
	Degenerate  int
	Reports     int
}

// NewAnalysisMetrics creates the analysis instruments on meter
func NewAnalysisMetrics(meter metric.Meter) (*AnalysisMetrics, error) {
	m := &AnalysisMetrics{}
	var err error

	if m.runsTotal, err = meter.Int64Counter("calcium_runs",
		metric.WithDescription("Analysis runs by outcome")); err != nil {
		return nil, err
	}
	if m.runDuration, err = meter.Float64Histogram("calcium_run_duration",
		metric.WithDescription("Analysis run duration"),
		metric.WithUnit("s")); err != nil {
		return nil, err
	}
	if m.neuronsTotal, err = meter.Int64Counter("calcium_neurons_analyzed",
		metric.WithDescription("Neurons processed across runs")); err != nil {
		return nil, err
	}
	if m.responders, err = meter.Int64Gauge("calcium_responders",
		metric.WithDescription("Responder count of the last run by condition")); err != nil {
		return nil, err
	}
	if m.ratioEntries, err = meter.Int64Counter("calcium_ratio_entries",
		metric.WithDescription("Ratio entries by ratio and status")); err != nil {
		return nil, err
	}
	if m.degenerate, err = meter.Int64Counter("calcium_degenerate_baselines",
		metric.WithDescription("Neurons excluded for a zero baseline mean")); err != nil {
		return nil, err
	}
	if m.reportsTotal, err = meter.Int64Counter("calcium_reports_written",
		metric.WithDescription("Report files written")); err != nil {
		return nil, err
	}

	return m, nil
}

// RecordRun records one finished run
func (m *AnalysisMetrics) RecordRun(ctx context.Context, obs RunObservation) {
	outcome := metric.WithAttributes(attribute.String("outcome", obs.Outcome))
	m.runsTotal.Add(ctx, 1, outcome)
	if obs.Outcome != OutcomeOK {
		return
	}

	m.runDuration.Record(ctx, obs.Duration.Seconds(), outcome)
	m.neuronsTotal.Add(ctx, int64(obs.Neurons))
	m.degenerate.Add(ctx, int64(obs.Degenerate))
	m.reportsTotal.Add(ctx, int64(obs.Reports))

	for condition, n := range obs.Responders {
		m.responders.Record(ctx, int64(n), metric.WithAttributes(attribute.String("condition", condition)))
	}
	for ratio, byStatus := range obs.RatioStatus {
		for status, n := range byStatus {
			m.ratioEntries.Add(ctx, int64(n), metric.WithAttributes(
				attribute.String("ratio", ratio),
				attribute.String("status", status)))
		}
	}
}
