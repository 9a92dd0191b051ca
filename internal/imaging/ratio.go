package imaging

// Ratio names
const (
	RatioMCCap    = "mc_cap_ratio"
	RatioMCKClCap = "mc_kcl_ratio_cap"
	RatioMCKClMC  = "mc_kcl_ratio_mc"
)

// RatioEntry is the ratio of two ΔF/F₀ values for one neuron
type RatioEntry struct {
	NeuronID int     `json:"neuron_id"`
	Value    float64 `json:"value"`
	Status   Status  `json:"status"`
}

// RatioSet holds one ratio for every neuron of a responder group.
// Entries whose status is not StatusOK are excluded from Retained.
type RatioSet struct {
	Name        string       `json:"name"`
	Group       Condition    `json:"group"`
	Numerator   Condition    `json:"numerator"`
	Denominator Condition    `json:"denominator"`
	Entries     []RatioEntry `json:"entries"`

	GroupSize        int `json:"group_size"`
	RetainedCount    int `json:"retained"`
	Degenerate       int `json:"degenerate_baseline"`
	Undefined        int `json:"undefined_window"`
	GuardFailures    int `json:"guard_failures"`
	ZeroDenominators int `json:"zero_denominators"`
	NegativeDrops    int `json:"negative_drops"`
}

// Retained returns the ratios that passed every check, keyed by neuron id
func (r RatioSet) Retained() map[int]float64 {
	out := make(map[int]float64, r.RetainedCount)
	for _, e := range r.Entries {
		if e.Status == StatusOK {
			out[e.NeuronID] = e.Value
		}
	}
	return out
}

// RetainedIDs returns the ids of retained ratios in group order
func (r RatioSet) RetainedIDs() []int {
	ids := make([]int, 0, r.RetainedCount)
	for _, e := range r.Entries {
		if e.Status == StatusOK {
			ids = append(ids, e.NeuronID)
		}
	}
	return ids
}

// Dropped returns the number of entries excluded for any reason
func (r RatioSet) Dropped() int {
	return r.GroupSize - r.RetainedCount
}

// ratioSpec configures one ratio computation
type ratioSpec struct {
	name         string
	numerator    Condition
	denominator  Condition
	guard        func(row ResponseRow) bool
	dropNegative bool
}

// MCKClRatioCap computes m-CPBG/KCl for Cap responders. Only neurons whose
// KCl response is strictly greater than their Cap response are considered;
// negative ratios are dropped.
func MCKClRatioCap(table ResponseTable) RatioSet {
	return computeRatios(table, ratioSpec{
		name:        RatioMCKClCap,
		numerator:   ConditionMC,
		denominator: ConditionKCl,
		guard: func(row ResponseRow) bool {
			capResp := row.Response(ConditionCap)
			return capResp.OK() && row.Response(ConditionKCl).Value > capResp.Value
		},
		dropNegative: true,
	})
}

// MCKClRatioMC computes m-CPBG/KCl for m-CPBG responders. There is no KCl
// guard on this path; negative ratios are dropped.
func MCKClRatioMC(table ResponseTable) RatioSet {
	return computeRatios(table, ratioSpec{
		name:         RatioMCKClMC,
		numerator:    ConditionMC,
		denominator:  ConditionKCl,
		dropNegative: true,
	})
}

// MCCapRatio computes m-CPBG/Cap for Cap responders. Negative values are kept.
func MCCapRatio(table ResponseTable) RatioSet {
	return computeRatios(table, ratioSpec{
		name:        RatioMCCap,
		numerator:   ConditionMC,
		denominator: ConditionCap,
	})
}

func computeRatios(table ResponseTable, spec ratioSpec) RatioSet {
	rs := RatioSet{
		Name:        spec.name,
		Group:       table.Group,
		Numerator:   spec.numerator,
		Denominator: spec.denominator,
		Entries:     make([]RatioEntry, 0, len(table.Rows)),
		GroupSize:   len(table.Rows),
	}

	for _, row := range table.Rows {
		entry := RatioEntry{NeuronID: row.NeuronID}
		num := row.Response(spec.numerator)
		den := row.Response(spec.denominator)

		switch {
		case num.Status == StatusDegenerateBaseline || den.Status == StatusDegenerateBaseline:
			entry.Status = StatusDegenerateBaseline
			rs.Degenerate++
		case !num.OK() || !den.OK():
			entry.Status = StatusUndefinedWindow
			rs.Undefined++
		case spec.guard != nil && !spec.guard(row):
			entry.Status = StatusGuardFailed
			rs.GuardFailures++
		case den.Value == 0:
			entry.Status = StatusZeroDenominator
			rs.ZeroDenominators++
		default:
			entry.Value = num.Value / den.Value
			entry.Status = StatusOK
			if spec.dropNegative && entry.Value < 0 {
				entry.Status = StatusNegative
				rs.NegativeDrops++
			} else {
				rs.RetainedCount++
			}
		}

		rs.Entries = append(rs.Entries, entry)
	}

	return rs
}
