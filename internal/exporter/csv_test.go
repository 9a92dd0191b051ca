package exporter

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "calciumcli/internal/errors"
)

func TestCSVWriter_WriteCSV(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	w := NewCSVWriter(dir, nil)

	path, err := w.WriteCSV(context.Background(), "table.csv", WriteOptions{
		Headers: []string{"label", "value"},
		Records: [][]string{{"area_1", "0.60"}, {"area, quoted", ""}},
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "table.csv"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "label,value\narea_1,0.60\n\"area, quoted\",\n", string(data))
}

func TestCSVWriter_BOM(t *testing.T) {
	w := NewCSVWriter(t.TempDir(), nil)

	path, err := w.WriteCSV(context.Background(), "bom.csv", WriteOptions{
		Headers:   []string{"metric"},
		BOMPrefix: true,
	})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xEF, 0xBB, 0xBF}, data[:3])
	assert.Equal(t, "metric\n", string(data[3:]))
}

func TestCSVWriter_StorageError(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))

	_, err := NewCSVWriter(blocker, nil).WriteCSV(context.Background(), "x.csv", WriteOptions{})
	require.Error(t, err)

	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeStorage))
}
