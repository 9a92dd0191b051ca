// Package exporter writes the report files of an analysis run.
//
// Report files are produced from an imaging.Result:
//
//   - CSV tables for the preview, the full size and intensity series, each
//     window, the ΔF/F₀ tables and all ratios
//   - an xlsx workbook holding the same tables on one sheet each
//   - a bar chart PNG of the Cap / m-CPBG responder overlap
//   - summary.csv and summary.json with the rounded headline numbers
//
// Files are independent and written concurrently once the result is complete.
//
// Example usage:
//
//	exp := exporter.New(logger, exporter.Options{Format: config.FormatBoth, Chart: true})
//	files, err := exp.Export(ctx, runDir, exporter.Report{RunID: runID, Result: result, Preview: preview})
package exporter
