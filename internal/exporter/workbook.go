package exporter

import (
	"context"
	"log/slog"

	"github.com/xuri/excelize/v2"

	apperrors "calciumcli/internal/errors"
)

// writeWorkbook saves every sheet into one xlsx file, in order
func writeWorkbook(ctx context.Context, logger *slog.Logger, path string, sheets []sheet) error {
	f := excelize.NewFile()
	defer f.Close()

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return apperrors.NewStorageError("failed to create header style", err)
	}

	for i, sh := range sheets {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), sh.name); err != nil {
				return apperrors.NewStorageError("failed to rename sheet", err).WithContext("sheet", sh.name)
			}
		} else if _, err := f.NewSheet(sh.name); err != nil {
			return apperrors.NewStorageError("failed to add sheet", err).WithContext("sheet", sh.name)
		}

		if err := writeSheet(f, sh, header); err != nil {
			return apperrors.NewStorageError("failed to write sheet", err).WithContext("sheet", sh.name)
		}
	}
	f.SetActiveSheet(0)

	if err := f.SaveAs(path); err != nil {
		return apperrors.NewStorageError("failed to save workbook", err).WithContext("file", path)
	}

	logger.DebugContext(ctx, "workbook written",
		slog.String("file_path", path),
		slog.Int("sheets", len(sheets)))
	return nil
}

func writeSheet(f *excelize.File, sh sheet, headerStyle int) error {
	headers := make([]interface{}, len(sh.headers))
	for i, h := range sh.headers {
		headers[i] = h
	}
	if err := f.SetSheetRow(sh.name, "A1", &headers); err != nil {
		return err
	}
	if err := f.SetRowStyle(sh.name, 1, 1, headerStyle); err != nil {
		return err
	}

	for r, row := range sh.rows {
		cells := make([]interface{}, len(row))
		for i, cell := range row {
			cells[i] = workbookCell(cell)
		}
		axis, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sh.name, axis, &cells); err != nil {
			return err
		}
	}

	return f.SetPanes(sh.name, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

// workbookCell keeps numbers numeric; fixed values are rounded
func workbookCell(cell any) interface{} {
	switch v := cell.(type) {
	case fixed:
		return Round(v.value, v.decimals)
	default:
		return v
	}
}
