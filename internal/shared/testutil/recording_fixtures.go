package testutil

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// ScenarioFrames is the length of the scenario recording
const ScenarioFrames = 21

// ScenarioStartFrames are the stimulus start frames (m-CPBG, Cap, KCl)
// that the scenario recording is built around
var ScenarioStartFrames = [3]int{15, 12, 18}

// ScenarioRows returns a headerless 21x8 table of four neurons laid out as
// size_1, area_1, size_2, area_2, ... With the scenario start frames neuron
// 1 responds to Cap and m-CPBG, neuron 4 to m-CPBG only, and neurons 2 and
// 3 to neither.
func ScenarioRows() [][]float64 {
	sizes := []float64{12, 9, 15, 7}
	rows := make([][]float64, ScenarioFrames)
	for f := range rows {
		intensity := []float64{
			pick(f, 100, 12, 120, 18, 200),
			pick(f, 100, 12, 105, ScenarioFrames, 105),
			50,
			pick(f, 80, 15, 100, 18, 120),
		}
		row := make([]float64, 0, 2*len(sizes))
		for i := range sizes {
			row = append(row, sizes[i], intensity[i])
		}
		rows[f] = row
	}
	return rows
}

// pick returns a before frame at, b from at until bt, and c afterwards
func pick(frame int, a float64, at int, b float64, bt int, c float64) float64 {
	switch {
	case frame < at:
		return a
	case frame < bt:
		return b
	default:
		return c
	}
}

// WriteWorkbook saves rows into the first sheet of a new workbook under
// t.TempDir and returns its path
func WriteWorkbook(t *testing.T, rows [][]float64) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for r, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, r+1)
		require.NoError(t, err)
		values := make([]interface{}, len(row))
		for i, v := range row {
			values[i] = v
		}
		require.NoError(t, f.SetSheetRow(sheet, cell, &values))
	}

	path := filepath.Join(t.TempDir(), "recording.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

// WriteCSV saves rows as a headerless CSV file under t.TempDir and returns its path
func WriteCSV(t *testing.T, rows [][]float64) string {
	t.Helper()

	var b strings.Builder
	for _, row := range rows {
		for i, v := range row {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(strconv.FormatFloat(v, 'f', -1, 64))
		}
		b.WriteByte('\n')
	}

	path := filepath.Join(t.TempDir(), "recording.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0644))
	return path
}
