package exporter

import (
	"context"
	"encoding/csv"
	"log/slog"
	"os"
	"path/filepath"

	apperrors "calciumcli/internal/errors"
)

// CSVWriter writes CSV files into one directory
type CSVWriter struct {
	dir    string
	logger *slog.Logger
}

// NewCSVWriter creates a new CSV writer instance
func NewCSVWriter(dir string, logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{dir: dir, logger: logger}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// WriteCSV writes a CSV file named name and returns its full path
func (w *CSVWriter) WriteCSV(ctx context.Context, name string, options WriteOptions) (string, error) {
	fullPath := filepath.Join(w.dir, name)

	w.logger.DebugContext(ctx, "writing CSV file",
		slog.String("file_path", fullPath),
		slog.Int("record_count", len(options.Records)))

	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return "", apperrors.NewStorageError("failed to create report directory", err).
			WithContext("dir", w.dir)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return "", apperrors.NewStorageError("failed to create CSV file", err).
			WithContext("file", fullPath)
	}
	defer file.Close()

	if options.BOMPrefix {
		if _, err := file.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return "", apperrors.NewStorageError("failed to write BOM", err)
		}
	}

	writer := csv.NewWriter(file)

	if len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return "", apperrors.NewStorageError("failed to write CSV header row", err)
		}
	}
	for _, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return "", apperrors.NewStorageError("failed to write CSV data row", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", apperrors.NewStorageError("failed to flush CSV file", err)
	}
	if err := file.Close(); err != nil {
		return "", apperrors.NewStorageError("failed to close CSV file", err)
	}
	return fullPath, nil
}
