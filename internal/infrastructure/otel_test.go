package infrastructure

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func metricFamilies(t *testing.T, p *OTelProviders) map[string]bool {
	t.Helper()
	families, err := p.Registry.Gather()
	require.NoError(t, err)
	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	return names
}

func TestInitializeOTel(t *testing.T) {
	var traces bytes.Buffer
	providers, err := InitializeOTel(OTelConfig{
		ServiceName:   "calcium-test",
		EnableTracing: true,
		TraceWriter:   &traces,
	}, nil)
	require.NoError(t, err)

	assert.NotNil(t, providers.TracerProvider)
	assert.NotNil(t, providers.MeterProvider)
	assert.NotNil(t, providers.Metrics)

	_, span := otel.Tracer("test").Start(context.Background(), "analysis-step")
	span.End()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, providers.Shutdown(ctx))
	assert.Contains(t, traces.String(), "analysis-step")
}

func TestInitializeOTel_TracingDisabled(t *testing.T) {
	providers, err := InitializeOTel(OTelConfig{}, nil)
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	assert.Nil(t, providers.TracerProvider)
	assert.NotNil(t, providers.Registry)
	// no metrics file configured
	assert.NoError(t, providers.WriteMetrics())
}

func TestAnalysisMetrics_RecordRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics", "calcium.prom")
	providers, err := InitializeOTel(OTelConfig{MetricsFile: path}, nil)
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	ctx := context.Background()
	providers.Metrics.RecordRun(ctx, RunObservation{Outcome: OutcomeNotReady})
	providers.Metrics.RecordRun(ctx, RunObservation{
		Outcome:    OutcomeOK,
		Duration:   250 * time.Millisecond,
		Neurons:    4,
		Responders: map[string]int{"cap": 1, "mc": 2},
		RatioStatus: map[string]map[string]int{
			"mc_kcl_ratio_mc": {"ok": 2},
		},
		Degenerate: 1,
		Reports:    7,
	})

	names := metricFamilies(t, providers)
	for _, want := range []string{
		"calcium_runs_total",
		"calcium_run_duration_seconds",
		"calcium_neurons_analyzed_total",
		"calcium_responders",
		"calcium_ratio_entries_total",
		"calcium_degenerate_baselines_total",
		"calcium_reports_written_total",
		"go_goroutines",
	} {
		assert.True(t, names[want], "missing metric family %s", want)
	}

	require.NoError(t, providers.WriteMetrics())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `outcome="not_ready"`)
	assert.Contains(t, string(data), `condition="cap"`)
	assert.Contains(t, string(data), `ratio="mc_kcl_ratio_mc"`)
}

func TestRecordError(t *testing.T) {
	// no active span: must not panic
	RecordError(context.Background(), errors.New("boom"))
	AddSpanEvent(context.Background(), "noop", map[string]string{"k": "v"})
	assert.Empty(t, TraceIDFromContext(context.Background()))
}
