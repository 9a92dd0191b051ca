package exporter

import (
	"calciumcli/internal/imaging"
	"calciumcli/pkg/contracts/domain"
)

// LabeledValue is one rounded per-neuron value keyed by its area_<id> label
type LabeledValue struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// LabeledValues keeps column order; Map gives keyed access
type LabeledValues []LabeledValue

// Map returns the values keyed by label
func (lv LabeledValues) Map() map[string]float64 {
	m := make(map[string]float64, len(lv))
	for _, v := range lv {
		m[v.Label] = v.Value
	}
	return m
}

// RatioCounts reports how every neuron of a ratio's group was accounted for
type RatioCounts struct {
	Name             string `json:"name"`
	GroupSize        int    `json:"group_size"`
	Retained         int    `json:"retained"`
	Degenerate       int    `json:"degenerate_baseline"`
	Undefined        int    `json:"undefined_window"`
	GuardFailures    int    `json:"guard_failures"`
	ZeroDenominators int    `json:"zero_denominators"`
	NegativeDrops    int    `json:"negative_drops"`
}

// Summary is the presentation view of a run: counts, rounded ratio
// mappings, size averages and overlap
type Summary struct {
	RunID   string                `json:"run_id"`
	Source  string                `json:"source"`
	Params  imaging.RunParameters `json:"params"`
	Frames  int                   `json:"frames"`
	Neurons int                   `json:"neurons"`

	CapResponders      int      `json:"cap_responders"`
	MCResponders       int      `json:"mc_responders"`
	CapResponderLabels []string `json:"cap_responder_labels"`
	MCResponderLabels  []string `json:"mc_responder_labels"`

	// MCKClRatioCap is m-CPBG/KCl over Cap responders passing the KCl > Cap guard
	MCKClRatioCap LabeledValues `json:"mc_kcl_ratio_cap"`
	// MCKClRatioMC is m-CPBG/KCl over m-CPBG responders
	MCKClRatioMC LabeledValues `json:"mc_kcl_ratio_mc"`
	RatioCounts  []RatioCounts `json:"ratio_counts"`

	ResponderSize    imaging.Estimate `json:"responder_size"`
	NonResponderSize imaging.Estimate `json:"non_responder_size"`
	SizeCorrelation  imaging.Estimate `json:"size_response_correlation"`

	OnlyCap      int      `json:"only_cap"`
	OnlyMC       int      `json:"only_mc"`
	Both         int      `json:"both"`
	SharedLabels []string `json:"shared_labels"`

	DegenerateLabels []string `json:"degenerate_labels"`
	EmptyWindows     []string `json:"empty_windows"`
}

// BuildSummary rounds ratios to RatioDecimals and sizes to SizeDecimals
func BuildSummary(runID string, r *imaging.Result) Summary {
	s := Summary{
		RunID:   runID,
		Source:  r.Source,
		Params:  r.Params,
		Frames:  r.Frames,
		Neurons: r.Neurons,

		CapResponders:      r.CapResponders.Len(),
		MCResponders:       r.MCResponders.Len(),
		CapResponderLabels: r.CapResponders.Labels(),
		MCResponderLabels:  r.MCResponders.Labels(),

		MCKClRatioCap: roundedRatios(r.MCKClRatioCap),
		MCKClRatioMC:  roundedRatios(r.MCKClRatioMC),
		RatioCounts:   make([]RatioCounts, 0, 3),

		ResponderSize:    roundEstimate(r.Sizes.ResponderMean, SizeDecimals),
		NonResponderSize: roundEstimate(r.Sizes.NonResponderMean, SizeDecimals),
		SizeCorrelation:  roundEstimate(r.Sizes.Correlation, CorrelationDecimals),

		OnlyCap:      r.Overlap.OnlyCap,
		OnlyMC:       r.Overlap.OnlyMC,
		Both:         r.Overlap.Both,
		SharedLabels: domain.IntensityLabels(r.Overlap.Shared),

		DegenerateLabels: domain.IntensityLabels(r.DegenerateNeurons),
		EmptyWindows:     make([]string, 0, len(r.EmptyWindows)),
	}

	for _, rs := range []*imaging.RatioSet{r.MCCapRatio, r.MCKClRatioCap, r.MCKClRatioMC} {
		if rs == nil {
			continue
		}
		s.RatioCounts = append(s.RatioCounts, RatioCounts{
			Name:             rs.Name,
			GroupSize:        rs.GroupSize,
			Retained:         rs.RetainedCount,
			Degenerate:       rs.Degenerate,
			Undefined:        rs.Undefined,
			GuardFailures:    rs.GuardFailures,
			ZeroDenominators: rs.ZeroDenominators,
			NegativeDrops:    rs.NegativeDrops,
		})
	}
	for _, c := range r.EmptyWindows {
		s.EmptyWindows = append(s.EmptyWindows, c.DisplayName())
	}

	return s
}

func roundedRatios(rs *imaging.RatioSet) LabeledValues {
	out := make(LabeledValues, 0)
	if rs == nil {
		return out
	}
	retained := rs.Retained()
	for _, id := range rs.RetainedIDs() {
		out = append(out, LabeledValue{
			Label: domain.IntensityLabel(id),
			Value: Round(retained[id], RatioDecimals),
		})
	}
	return out
}

func roundEstimate(e imaging.Estimate, decimals int) imaging.Estimate {
	if !e.Defined {
		return e
	}
	return imaging.Estimate{Value: Round(e.Value, decimals), Defined: true}
}
