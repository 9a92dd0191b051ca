package exporter

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"calciumcli/internal/config"
	apperrors "calciumcli/internal/errors"
	"calciumcli/internal/infrastructure"
	"calciumcli/internal/imaging"
	"calciumcli/pkg/contracts"
	"calciumcli/pkg/contracts/domain"
)

// Options controls which report files are produced
type Options struct {
	// Format is one of config.FormatCSV, FormatXLSX, FormatBoth or FormatNone
	Format string
	Chart  bool
	// Workers bounds concurrent file writes; zero means no limit
	Workers int
}

// Report is everything the exporter needs from one run
type Report struct {
	RunID   string
	Result  *imaging.Result
	Preview domain.Table
	// Sizes and Intensities are the full renamed size_<id> and area_<id> tables
	Sizes       domain.Table
	Intensities domain.Table
}

// Exporter writes the report files of a run
type Exporter struct {
	logger *slog.Logger
	opts   Options
}

// New creates a new exporter
func New(logger *slog.Logger, opts Options) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Format == "" {
		opts.Format = config.FormatCSV
	}
	return &Exporter{
		logger: infrastructure.WithComponent(logger, "exporter"),
		opts:   opts,
	}
}

// sheets returns the tables of a report in workbook order. Group tables
// are omitted when their responder group is empty.
func (e *Exporter) sheets(rep Report, summary Summary) []sheet {
	r := rep.Result
	sheets := []sheet{
		summarySheet("Summary", config.SummaryFile, summary),
		frameSheet("Preview", config.PreviewFile, rep.Preview),
	}
	if len(rep.Sizes.Columns) > 0 {
		sheets = append(sheets, frameSheet("Sizes", config.SizeTableFile, rep.Sizes))
	}
	if len(rep.Intensities.Columns) > 0 {
		sheets = append(sheets, frameSheet("Intensities", config.IntensityTableFile, rep.Intensities))
	}
	sheets = append(sheets,
		frameSheet("Baseline", config.BaselineTableFile, r.Tables.Baseline),
		frameSheet("KCl", config.KClTableFile, r.Tables.KCl),
		frameSheet("Cap responders", config.CapTableFile, r.Tables.CapResponders),
		frameSheet("m-CPBG responders", config.MCTableFile, r.Tables.MCResponders),
	)
	if r.CapResponses != nil {
		sheets = append(sheets, responseSheet("Cap dFF0", config.CapResponsesFile, r.CapResponses))
	}
	if r.MCResponses != nil {
		sheets = append(sheets, responseSheet("m-CPBG dFF0", config.MCResponsesFile, r.MCResponses))
	}
	sheets = append(sheets, ratioSheet("Ratios", config.RatiosFile,
		r.MCKClRatioCap, r.MCKClRatioMC, r.MCCapRatio))
	return sheets
}

// Export writes all configured report files into dir and returns their
// paths in sorted order
func (e *Exporter) Export(ctx context.Context, dir string, rep Report) ([]string, error) {
	if rep.Result == nil {
		return nil, apperrors.NewAppValidationError("nothing to export: result is nil")
	}
	if e.opts.Format == config.FormatNone && !e.opts.Chart {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, apperrors.NewStorageError("failed to create report directory", err).WithContext("dir", dir)
	}

	start := time.Now()
	summary := BuildSummary(rep.RunID, rep.Result)
	sheets := e.sheets(rep, summary)
	writer := NewCSVWriter(dir, e.logger)

	var (
		mu    sync.Mutex
		files []string
	)
	done := func(path string) {
		mu.Lock()
		files = append(files, path)
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	if e.opts.Workers > 0 {
		g.SetLimit(e.opts.Workers)
	}

	if e.wantCSV() {
		for _, sh := range sheets {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				path, err := writer.WriteCSV(gctx, sh.file, WriteOptions{
					Headers:   sh.headers,
					Records:   sh.csvRecords(),
					BOMPrefix: true,
				})
				if err != nil {
					return err
				}
				done(path)
				return nil
			})
		}
	}

	if e.opts.Format != config.FormatNone {
		g.Go(func() error {
			path := filepath.Join(dir, config.SummaryJSONFile)
			if err := writeSummaryJSON(path, summary); err != nil {
				return err
			}
			done(path)
			return nil
		})
	}

	if e.wantXLSX() {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			path := filepath.Join(dir, config.WorkbookFile)
			if err := writeWorkbook(gctx, e.logger, path, sheets); err != nil {
				return err
			}
			done(path)
			return nil
		})
	}

	if e.opts.Chart {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			path := filepath.Join(dir, config.OverlapChartFile)
			if err := writeOverlapChart(gctx, e.logger, path, rep.Result.Overlap); err != nil {
				return err
			}
			done(path)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		e.logger.ErrorContext(ctx, "report export failed",
			slog.String("dir", dir),
			slog.String("error", err.Error()))
		return nil, err
	}

	sort.Strings(files)
	e.logger.InfoContext(ctx, "reports written",
		slog.String("dir", dir),
		slog.Int("files", len(files)),
		slog.Duration("duration", time.Since(start)))

	return files, nil
}

func (e *Exporter) wantCSV() bool {
	return e.opts.Format == config.FormatCSV || e.opts.Format == config.FormatBoth
}

func (e *Exporter) wantXLSX() bool {
	return e.opts.Format == config.FormatXLSX || e.opts.Format == config.FormatBoth
}

// writeSummaryJSON writes the summary with format metadata
func writeSummaryJSON(path string, summary Summary) error {
	file, err := os.Create(path)
	if err != nil {
		return apperrors.NewStorageError("failed to create JSON summary", err).WithContext("file", path)
	}
	defer file.Close()

	payload := map[string]interface{}{
		"summary":      summary,
		"generated_at": time.Now().Format(time.RFC3339),
		"format":       "calcium_summary_" + contracts.ReportFormatVersion,
		"version":      contracts.Version,
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(payload); err != nil {
		return apperrors.NewStorageError("failed to encode summary to JSON", err)
	}
	return file.Close()
}
