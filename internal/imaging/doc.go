// Package imaging implements the responder analysis for calcium-imaging recordings.
//
// A recording holds one intensity trace and one size trace per neuron. The
// analysis compares the mean intensity of three stimulus windows (m-CPBG,
// Capsaicin and KCl) against a fixed baseline window and derives responder
// groups, ΔF/F₀ responses and response ratios from those means.
//
// # Core Components
//
//   - window.go: window means over half-open frame ranges
//   - classify.go: responder classification against the baseline (> 115%)
//   - normalize.go: ΔF/F₀ per neuron and condition
//   - ratio.go: cross-condition ratios with validity guard and negative drops
//   - size.go: size statistics split by m-CPBG responder membership
//   - overlap.go: Cap / m-CPBG responder overlap
//   - analyzer.go: runs the whole pipeline once per parameter set
//
// # Baseline
//
// The baseline window is always frames [0, 11). Its means are computed once per
// run and the same WindowMean value is handed to every consumer.
//
// # Degenerate values
//
// Per-neuron failures never abort a run. A zero baseline, an empty window or a
// zero denominator is carried as a Status on the affected entry and counted in
// the owning RatioSet, so no Inf or NaN reaches retained values.
//
// # Usage Example
//
//	analyzer := imaging.NewAnalyzer(slog.Default())
//	result, err := analyzer.Run(ctx, recording, imaging.RunParameters{
//	    StartFrameMC:  15,
//	    StartFrameCap: 12,
//	    StartFrameKCl: 18,
//	})
//	if errors.Is(err, apperrors.ErrNotReady) {
//	    // wait for all three start frames
//	}
package imaging
