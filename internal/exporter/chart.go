package exporter

import (
	"context"
	"log/slog"
	"os"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	apperrors "calciumcli/internal/errors"
	"calciumcli/internal/imaging"
)

var (
	capColor  = drawing.Color{R: 220, G: 80, B: 60, A: 255}
	bothColor = drawing.Color{R: 150, G: 90, B: 160, A: 255}
	mcColor   = drawing.Color{R: 70, G: 110, B: 200, A: 255}
)

// overlapChart builds a three-bar chart of Cap-only, shared and m-CPBG-only responders
func overlapChart(o imaging.OverlapReport) chart.BarChart {
	top := o.OnlyCap
	for _, n := range []int{o.Both, o.OnlyMC} {
		if n > top {
			top = n
		}
	}

	return chart.BarChart{
		Title:      "Responder overlap",
		TitleStyle: chart.Style{FontSize: 14},
		Background: chart.Style{Padding: chart.Box{Top: 50, Left: 20, Right: 20, Bottom: 20}},
		Width:      600,
		Height:     400,
		BarWidth:   90,
		// an explicit range keeps an all-zero chart renderable
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: float64(top + 1)},
			Style: chart.Style{FontSize: 10},
		},
		XAxis: chart.Style{FontSize: 10},
		Bars: []chart.Value{
			{Label: "Cap only", Value: float64(o.OnlyCap), Style: chart.Style{FillColor: capColor, StrokeColor: capColor}},
			{Label: "Both", Value: float64(o.Both), Style: chart.Style{FillColor: bothColor, StrokeColor: bothColor}},
			{Label: "m-CPBG only", Value: float64(o.OnlyMC), Style: chart.Style{FillColor: mcColor, StrokeColor: mcColor}},
		},
	}
}

// writeOverlapChart renders the overlap chart as PNG
func writeOverlapChart(ctx context.Context, logger *slog.Logger, path string, o imaging.OverlapReport) error {
	file, err := os.Create(path)
	if err != nil {
		return apperrors.NewStorageError("failed to create chart file", err).WithContext("file", path)
	}
	defer file.Close()

	graph := overlapChart(o)
	if err := graph.Render(chart.PNG, file); err != nil {
		return apperrors.NewStorageError("failed to render overlap chart", err)
	}
	if err := file.Close(); err != nil {
		return apperrors.NewStorageError("failed to close chart file", err)
	}

	logger.DebugContext(ctx, "overlap chart written",
		slog.String("file_path", path),
		slog.Int("only_cap", o.OnlyCap),
		slog.Int("both", o.Both),
		slog.Int("only_mc", o.OnlyMC))
	return nil
}
