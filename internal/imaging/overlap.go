package imaging

// OverlapReport partitions the Cap and m-CPBG responders for a two-set
// overlap diagram
type OverlapReport struct {
	OnlyCap int `json:"only_cap"`
	OnlyMC  int `json:"only_mc"`
	Both    int `json:"both"`

	OnlyCapIDs []int `json:"only_cap_ids"`
	OnlyMCIDs  []int `json:"only_mc_ids"`
	// Shared lists neurons responding to both stimuli, in Cap order
	Shared []int `json:"shared"`
}

// Overlap computes cap \ mc, mc \ cap and cap ∩ mc
func Overlap(capSet, mcSet ResponderSet) OverlapReport {
	r := OverlapReport{
		OnlyCapIDs: make([]int, 0),
		OnlyMCIDs:  make([]int, 0),
		Shared:     make([]int, 0),
	}

	for _, id := range capSet.IDs {
		if mcSet.Contains(id) {
			r.Shared = append(r.Shared, id)
		} else {
			r.OnlyCapIDs = append(r.OnlyCapIDs, id)
		}
	}
	for _, id := range mcSet.IDs {
		if !capSet.Contains(id) {
			r.OnlyMCIDs = append(r.OnlyMCIDs, id)
		}
	}

	r.OnlyCap = len(r.OnlyCapIDs)
	r.OnlyMC = len(r.OnlyMCIDs)
	r.Both = len(r.Shared)
	return r
}
