// Package dataprocessing loads calcium-imaging recordings and splits them
// into per-neuron series.
//
// # Input Layout
//
// A recording is a headerless table with one row per frame and 2N columns.
// Column 2k holds the size of neuron k+1 and column 2k+1 its intensity:
//
//	size_1, area_1, size_2, area_2, ...
//
// Workbooks (.xlsx) are read with excelize from the first sheet unless a
// sheet is named; .csv files are read with encoding/csv. Every cell must be
// a finite number with a decimal point. Blank, non-numeric, NaN or Inf
// cells, ragged rows and an odd column count are reported as malformed input.
//
// # Usage
//
//	parser := dataprocessing.NewParser(logger)
//	dataset, err := parser.ParseFile(ctx, "recording.xlsx", dataprocessing.ParseOptions{})
//	if err != nil {
//	    return err
//	}
//	rec, err := dataprocessing.Demultiplex(dataset)
//
// Preview returns the first PreviewRows frames of the recording in the
// original column order; SizeTable and IntensityTable return every frame.
package dataprocessing
