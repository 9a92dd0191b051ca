package exporter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"calciumcli/internal/dataprocessing"
	"calciumcli/internal/imaging"
	"calciumcli/internal/shared/testutil"
	"calciumcli/pkg/contracts/domain"
)

func scenarioParams() imaging.RunParameters {
	return imaging.RunParameters{
		StartFrameMC:  testutil.ScenarioStartFrames[0],
		StartFrameCap: testutil.ScenarioStartFrames[1],
		StartFrameKCl: testutil.ScenarioStartFrames[2],
	}
}

// analyze runs the full pipeline over rows
func analyze(t *testing.T, rows [][]float64) Report {
	t.Helper()

	rec, err := dataprocessing.Demultiplex(&domain.RawDataset{Source: "scenario.xlsx", Rows: rows, Columns: len(rows[0])})
	require.NoError(t, err)

	result, err := imaging.NewAnalyzer(nil).Run(context.Background(), rec, scenarioParams())
	require.NoError(t, err)

	return Report{
		RunID:       "run-test",
		Result:      result,
		Preview:     dataprocessing.Preview(rec),
		Sizes:       dataprocessing.SizeTable(rec),
		Intensities: dataprocessing.IntensityTable(rec),
	}
}

// flatRows is a recording in which nobody responds
func flatRows() [][]float64 {
	rows := make([][]float64, testutil.ScenarioFrames)
	for i := range rows {
		rows[i] = []float64{10, 100, 12, 50}
	}
	return rows
}
