package imaging

import (
	"math"
)

// Normalized is one ΔF/F₀ value with its validity status
type Normalized struct {
	Value  float64 `json:"value"`
	Status Status  `json:"status"`
}

// OK reports whether the value is usable
func (n Normalized) OK() bool {
	return n.Status == StatusOK
}

// DeltaFOverF computes (mean - baseline) / baseline. A zero baseline is
// reported as StatusDegenerateBaseline and an undefined mean as
// StatusUndefinedWindow; the value is zero in both cases.
func DeltaFOverF(mean, baseline float64) Normalized {
	if math.IsNaN(mean) || math.IsNaN(baseline) {
		return Normalized{Status: StatusUndefinedWindow}
	}
	if baseline == 0 {
		return Normalized{Status: StatusDegenerateBaseline}
	}
	return Normalized{Value: (mean - baseline) / baseline, Status: StatusOK}
}

// ResponseRow holds the ΔF/F₀ values of one neuron
type ResponseRow struct {
	NeuronID int `json:"neuron_id"`
	// Baseline is the baseline mean the values were normalized against
	Baseline  float64                  `json:"baseline"`
	Responses map[Condition]Normalized `json:"responses"`
}

// Response returns the ΔF/F₀ of one condition
func (r ResponseRow) Response(c Condition) Normalized {
	n, ok := r.Responses[c]
	if !ok {
		return Normalized{Status: StatusUndefinedWindow}
	}
	return n
}

// ResponseTable is the ΔF/F₀ table of one responder group
type ResponseTable struct {
	Group      Condition     `json:"group"`
	Conditions []Condition   `json:"conditions"`
	Rows       []ResponseRow `json:"rows"`
}

// Normalize computes ΔF/F₀ for every neuron of a responder group and every
// given condition, all against the same baseline means.
func Normalize(group ResponderSet, baseline WindowMean, conditions ...WindowMean) ResponseTable {
	t := ResponseTable{
		Group:      group.Condition,
		Conditions: make([]Condition, len(conditions)),
		Rows:       make([]ResponseRow, 0, group.Len()),
	}
	for i, c := range conditions {
		t.Conditions[i] = c.Spec.Condition
	}

	for _, id := range group.IDs {
		base := baseline.Value(id)
		row := ResponseRow{
			NeuronID:  id,
			Baseline:  base,
			Responses: make(map[Condition]Normalized, len(conditions)),
		}
		for _, c := range conditions {
			row.Responses[c.Spec.Condition] = DeltaFOverF(c.Value(id), base)
		}
		t.Rows = append(t.Rows, row)
	}

	return t
}
