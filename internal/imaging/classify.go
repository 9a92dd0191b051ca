package imaging

import (
	"calciumcli/pkg/contracts/domain"
)

// ResponderSet is the ordered set of neurons responding to one stimulus
type ResponderSet struct {
	Condition Condition `json:"condition"`
	IDs       []int     `json:"ids"`
	members   map[int]struct{}
}

func newResponderSet(c Condition, ids []int) ResponderSet {
	s := ResponderSet{
		Condition: c,
		IDs:       ids,
		members:   make(map[int]struct{}, len(ids)),
	}
	for _, id := range ids {
		s.members[id] = struct{}{}
	}
	return s
}

// Len returns the number of responders
func (s ResponderSet) Len() int {
	return len(s.IDs)
}

// Empty reports whether no neuron responded
func (s ResponderSet) Empty() bool {
	return len(s.IDs) == 0
}

// Contains reports whether the neuron is a responder
func (s ResponderSet) Contains(id int) bool {
	_, ok := s.members[id]
	return ok
}

// Labels returns the area_<id> labels of the responders in discovery order
func (s ResponderSet) Labels() []string {
	return domain.IntensityLabels(s.IDs)
}

// Classify returns the neurons whose stimulus mean exceeds the baseline
// mean by more than ResponderThreshold. Neurons with an undefined mean in
// either window never respond.
func Classify(stimulus, baseline WindowMean) ResponderSet {
	return classify(stimulus, baseline, ResponderThreshold)
}

func classify(stimulus, baseline WindowMean, multiplier float64) ResponderSet {
	ids := make([]int, 0)
	for _, id := range baseline.IDs {
		// NaN compares false, so undefined means drop out here
		if stimulus.Value(id) > multiplier*baseline.Value(id) {
			ids = append(ids, id)
		}
	}
	return newResponderSet(stimulus.Spec.Condition, ids)
}
