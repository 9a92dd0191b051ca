package dataprocessing

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	apperrors "calciumcli/internal/errors"
)

// writeWorkbook builds a headerless workbook from the given rows
func writeWorkbook(t *testing.T, rows [][]interface{}) string {
	t.Helper()

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for r, row := range rows {
		for c, val := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(sheet, cell, val))
		}
	}

	path := filepath.Join(t.TempDir(), "recording.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())
	return path
}

func TestParseFile_Workbook(t *testing.T) {
	path := writeWorkbook(t, [][]interface{}{
		{12.5, 100.0, 8.0, 210.25},
		{12.5, 101.5, 8.0, 209.0},
		{12.5, 99.75, 8.0, 215.5},
	})

	ds, err := NewParser(nil).ParseFile(context.Background(), path, ParseOptions{})
	require.NoError(t, err)

	assert.Equal(t, path, ds.Source)
	assert.Equal(t, 3, ds.Frames())
	assert.Equal(t, 4, ds.Columns)
	assert.Equal(t, []float64{12.5, 101.5, 8.0, 209.0}, ds.Rows[1])
}

func TestParseFile_NamedSheet(t *testing.T) {
	f := excelize.NewFile()
	_, err := f.NewSheet("traces")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("traces", "A1", &[]interface{}{1, 2}))
	path := filepath.Join(t.TempDir(), "named.xlsx")
	require.NoError(t, f.SaveAs(path))

	ds, err := NewParser(nil).ParseFile(context.Background(), path, ParseOptions{Sheet: "traces"})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1, 2}}, ds.Rows)

	_, err = NewParser(nil).ParseFile(context.Background(), path, ParseOptions{Sheet: "missing"})
	assert.True(t, apperrors.IsMalformedInput(err))
}

func TestParseFile_CSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recording.csv")
	require.NoError(t, os.WriteFile(path, []byte("10,1.5,20,2.5\n10,1.75,20,2000\n"), 0644))

	ds, err := NewParser(nil).ParseFile(context.Background(), path, ParseOptions{})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{10, 1.5, 20, 2.5}, {10, 1.75, 20, 2000}}, ds.Rows)
}

func TestParseFile_CSVNonFiniteCell(t *testing.T) {
	path := filepath.Join(t.TempDir(), "matlab.csv")
	require.NoError(t, os.WriteFile(path, []byte("10,1.5\n10,inf\n"), 0644))

	_, err := NewParser(nil).ParseFile(context.Background(), path, ParseOptions{})
	require.Error(t, err)
	assert.True(t, apperrors.IsMalformedInput(err))
	assert.Contains(t, err.Error(), "non-finite cell")
}

func TestParseFile_UnsupportedExtension(t *testing.T) {
	_, err := NewParser(nil).ParseFile(context.Background(), "traces.txt", ParseOptions{})
	require.Error(t, err)
	assert.True(t, apperrors.IsMalformedInput(err))
}

func TestParseRows(t *testing.T) {
	tests := []struct {
		name    string
		rows    [][]string
		want    [][]float64
		wantErr bool
	}{
		{
			name: "well formed",
			rows: [][]string{{"1", "2"}, {"3", " 4 "}},
			want: [][]float64{{1, 2}, {3, 4}},
		},
		{
			name: "trailing blank rows ignored",
			rows: [][]string{{"1", "2"}, {}, {"", " "}},
			want: [][]float64{{1, 2}},
		},
		{
			name:    "empty input",
			rows:    nil,
			wantErr: true,
		},
		{
			name:    "only blank rows",
			rows:    [][]string{{""}, {}},
			wantErr: true,
		},
		{
			name:    "non-numeric cell",
			rows:    [][]string{{"1", "abc"}},
			wantErr: true,
		},
		{
			name:    "NaN cell",
			rows:    [][]string{{"1", "NaN"}},
			wantErr: true,
		},
		{
			name:    "infinite cell",
			rows:    [][]string{{"inf", "2"}},
			wantErr: true,
		},
		{
			name:    "signed infinity",
			rows:    [][]string{{"1", "-Infinity"}},
			wantErr: true,
		},
		{
			name:    "decimal comma",
			rows:    [][]string{{"1,5", "2"}},
			wantErr: true,
		},
		{
			name: "exponent notation",
			rows: [][]string{{"1.5e2", "-0.25"}},
			want: [][]float64{{150, -0.25}},
		},
		{
			name:    "short row leaves blank cell",
			rows:    [][]string{{"1", "2"}, {"3"}},
			wantErr: true,
		},
		{
			name:    "blank row in the middle",
			rows:    [][]string{{"1", "2"}, {}, {"3", "4"}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds, err := ParseRows(tt.rows)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperrors.IsMalformedInput(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, ds.Rows)
		})
	}
}

func TestParseRows_ReportsCellPosition(t *testing.T) {
	_, err := ParseRows([][]string{{"1", "2"}, {"3", "x"}})
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 2, appErr.Context["row"])
	assert.Equal(t, 2, appErr.Context["column"])
	assert.Equal(t, "x", appErr.Context["value"])
}

func TestParseRows_RejectsNonFinite(t *testing.T) {
	_, err := ParseRows([][]string{{"1", "2"}, {"Inf", "4"}})
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrTypeMalformedInput, appErr.Type)
	assert.Equal(t, 2, appErr.Context["row"])
	assert.Equal(t, 1, appErr.Context["column"])
	assert.Equal(t, "Inf", appErr.Context["value"])
}
