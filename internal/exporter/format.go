package exporter

import (
	"math"
	"strconv"
)

// Display precisions
const (
	RatioDecimals       = 2
	ResponseDecimals    = 3
	SizeDecimals        = 2
	CorrelationDecimals = 3
)

// Round rounds v half away from zero to the given number of decimals
func Round(v float64, decimals int) float64 {
	p := math.Pow10(decimals)
	return math.Round(v*p) / p
}

// formatFloat formats a float64 with exactly the given number of decimals
func formatFloat(f float64, decimals int) string {
	return strconv.FormatFloat(f, 'f', decimals, 64)
}

// formatRaw formats a float64 with the fewest digits that round-trip
func formatRaw(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// formatInt formats an int for CSV output
func formatInt(i int) string {
	return strconv.Itoa(i)
}
