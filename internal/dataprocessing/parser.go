package dataprocessing

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "calciumcli/internal/errors"
	"calciumcli/internal/infrastructure"
	"calciumcli/pkg/contracts/domain"
)

// Supported input file extensions
const (
	ExtXLSX = ".xlsx"
	ExtCSV  = ".csv"
)

// ParseOptions controls how an input file is read
type ParseOptions struct {
	// Sheet selects the worksheet of an xlsx file; empty means the first sheet
	Sheet string
}

// Parser reads headerless size/intensity tables from xlsx or csv files
type Parser struct {
	logger *slog.Logger
}

// NewParser creates a new parser
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{
		logger: infrastructure.WithComponent(logger, "parser"),
	}
}

// ParseFile reads an imaging export and returns its unlabelled numeric rows.
// The file type is selected by extension.
func (p *Parser) ParseFile(ctx context.Context, filePath string, opts ParseOptions) (*domain.RawDataset, error) {
	ext := strings.ToLower(filepath.Ext(filePath))

	p.logger.InfoContext(ctx, "parsing input file",
		slog.String("file", filePath),
		slog.String("format", ext))

	var rows [][]string
	var err error

	switch ext {
	case ExtXLSX:
		rows, err = p.readWorkbook(ctx, filePath, opts.Sheet)
	case ExtCSV:
		rows, err = p.readCSVFile(filePath)
	default:
		return nil, apperrors.NewMalformedInputError(
			fmt.Sprintf("unsupported file type %q (expected .xlsx or .csv)", ext), nil).
			WithContext("file", filePath)
	}
	if err != nil {
		return nil, err
	}

	dataset, err := ParseRows(rows)
	if err != nil {
		return nil, err
	}
	dataset.Source = filePath

	p.logger.InfoContext(ctx, "input file parsed",
		slog.String("file", filePath),
		slog.Int("frames", dataset.Frames()),
		slog.Int("columns", dataset.Columns))

	return dataset, nil
}

// readWorkbook loads the raw cell values of one worksheet
func (p *Parser) readWorkbook(ctx context.Context, filePath, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, apperrors.NewMalformedInputError("failed to open workbook", err).
			WithContext("file", filePath)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, apperrors.NewMalformedInputError("workbook has no sheets", nil).
				WithContext("file", filePath)
		}
		sheet = sheets[0]
	}

	// Raw values keep full precision instead of the cell's display format
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, apperrors.NewMalformedInputError(fmt.Sprintf("failed to read sheet %q", sheet), err).
			WithContext("file", filePath)
	}

	p.logger.DebugContext(ctx, "worksheet loaded",
		slog.String("sheet", sheet),
		slog.Int("rows", len(rows)))

	return rows, nil
}

func (p *Parser) readCSVFile(filePath string) ([][]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, apperrors.NewMalformedInputError("failed to open CSV file", err).
			WithContext("file", filePath)
	}
	defer file.Close()

	return readCSV(file)
}

func readCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, apperrors.NewMalformedInputError("failed to read CSV records", err)
	}
	return records, nil
}

// ParseRows converts string cells into a RawDataset.
// Trailing blank rows are ignored; every other cell must be a finite number
// written with a decimal point, and every row must be as wide as the widest row.
func ParseRows(rows [][]string) (*domain.RawDataset, error) {
	rows = trimTrailingBlankRows(rows)
	if len(rows) == 0 {
		return nil, apperrors.NewMalformedInputError("input contains no data rows", nil)
	}

	columns := 0
	for _, row := range rows {
		if w := rowWidth(row); w > columns {
			columns = w
		}
	}
	if columns == 0 {
		return nil, apperrors.NewMalformedInputError("input contains no data columns", nil)
	}

	dataset := &domain.RawDataset{
		Rows:    make([][]float64, len(rows)),
		Columns: columns,
	}

	for i, row := range rows {
		values := make([]float64, columns)
		for j := 0; j < columns; j++ {
			var cell string
			if j < len(row) {
				cell = strings.TrimSpace(row[j])
			}
			if cell == "" {
				return nil, apperrors.NewMalformedInputError("blank cell", nil).
					WithContext("row", i+1).
					WithContext("column", j+1)
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, apperrors.NewMalformedInputError("non-numeric cell", err).
					WithContext("row", i+1).
					WithContext("column", j+1).
					WithContext("value", cell)
			}
			// ParseFloat accepts NaN and Inf spellings
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, apperrors.NewMalformedInputError("non-finite cell", nil).
					WithContext("row", i+1).
					WithContext("column", j+1).
					WithContext("value", cell)
			}
			values[j] = v
		}
		dataset.Rows[i] = values
	}

	return dataset, nil
}

// rowWidth is the index of the last non-blank cell plus one
func rowWidth(row []string) int {
	for j := len(row) - 1; j >= 0; j-- {
		if strings.TrimSpace(row[j]) != "" {
			return j + 1
		}
	}
	return 0
}

func trimTrailingBlankRows(rows [][]string) [][]string {
	end := len(rows)
	for end > 0 && rowWidth(rows[end-1]) == 0 {
		end--
	}
	return rows[:end]
}
