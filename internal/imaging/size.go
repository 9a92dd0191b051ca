package imaging

import (
	"gonum.org/v1/gonum/stat"

	"calciumcli/pkg/contracts/domain"
)

// SizeReport compares neuron sizes between m-CPBG responders and non-responders
type SizeReport struct {
	// NeuronMeans is the mean of each neuron's size trace
	NeuronMeans     map[int]float64 `json:"neuron_means"`
	ResponderIDs    []int           `json:"responder_ids"`
	NonResponderIDs []int           `json:"non_responder_ids"`

	ResponderMean    Estimate `json:"responder_mean"`
	NonResponderMean Estimate `json:"non_responder_mean"`

	// Correlation is Pearson's r between mean size and m-CPBG ΔF/F₀ over
	// every neuron with a defined response
	Correlation       Estimate `json:"correlation"`
	CorrelationPoints int      `json:"correlation_points"`
}

// CorrelateSize splits neurons by responder membership and averages the
// per-neuron mean sizes of each group. responses supplies the m-CPBG ΔF/F₀
// of all neurons for the size-vs-response correlation.
func CorrelateSize(rec *domain.Recording, responders ResponderSet, responses map[int]Normalized) SizeReport {
	report := SizeReport{
		NeuronMeans:     make(map[int]float64, len(rec.Neurons)),
		ResponderIDs:    make([]int, 0, responders.Len()),
		NonResponderIDs: make([]int, 0, len(rec.Neurons)),
	}

	var resp, nonResp []float64
	for _, n := range rec.Neurons {
		m := stat.Mean(n.Size, nil)
		report.NeuronMeans[n.ID] = m
		if responders.Contains(n.ID) {
			report.ResponderIDs = append(report.ResponderIDs, n.ID)
			resp = append(resp, m)
		} else {
			report.NonResponderIDs = append(report.NonResponderIDs, n.ID)
			nonResp = append(nonResp, m)
		}
	}

	report.ResponderMean = groupMean(resp)
	report.NonResponderMean = groupMean(nonResp)

	var sizes, values []float64
	for _, n := range rec.Neurons {
		r, ok := responses[n.ID]
		if !ok || !r.OK() {
			continue
		}
		sizes = append(sizes, report.NeuronMeans[n.ID])
		values = append(values, r.Value)
	}
	report.CorrelationPoints = len(sizes)
	if len(sizes) >= 2 {
		// NaN for zero variance, which defined() maps to undefined
		report.Correlation = defined(stat.Correlation(sizes, values, nil))
	}

	return report
}

func groupMean(values []float64) Estimate {
	if len(values) == 0 {
		return Estimate{}
	}
	return defined(stat.Mean(values, nil))
}
