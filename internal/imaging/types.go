package imaging

import (
	"math"
)

// Fixed analysis constants
const (
	// ResponderThreshold is the minimum stimulus/baseline mean ratio (exclusive)
	ResponderThreshold = 1.15

	BaselineStart   = 0
	BaselineLength  = 11
	MCWindowLength  = 15
	CapWindowLength = 5
	KClWindowLength = 5
)

// Condition names a frame window: the baseline or one of the three stimuli
type Condition string

const (
	ConditionBaseline Condition = "baseline"
	ConditionMC       Condition = "mc"
	ConditionCap      Condition = "cap"
	ConditionKCl      Condition = "kcl"
)

// DisplayName returns the label used in reports
func (c Condition) DisplayName() string {
	switch c {
	case ConditionBaseline:
		return "Baseline"
	case ConditionMC:
		return "m-CPBG"
	case ConditionCap:
		return "Cap"
	case ConditionKCl:
		return "KCl"
	default:
		return string(c)
	}
}

// WindowSpec is a half-open frame interval [Start, Start+Length)
type WindowSpec struct {
	Condition Condition `json:"condition"`
	Start     int       `json:"start"`
	Length    int       `json:"length"`
}

// End returns the first frame after the window
func (w WindowSpec) End() int {
	return w.Start + w.Length
}

// Clamp returns the frame range actually available in a recording of the given length
func (w WindowSpec) Clamp(frames int) (start, end int) {
	start, end = w.Start, w.End()
	if start < 0 {
		start = 0
	}
	if end > frames {
		end = frames
	}
	if start > end {
		start = end
	}
	return start, end
}

// BaselineWindow returns the fixed baseline window [0, 11)
func BaselineWindow() WindowSpec {
	return WindowSpec{Condition: ConditionBaseline, Start: BaselineStart, Length: BaselineLength}
}

// WindowMean maps neuron ids to the mean intensity over one window.
// A neuron's mean is NaN when the window holds no frames.
type WindowMean struct {
	Spec WindowSpec `json:"spec"`
	// Frames is the number of rows actually averaged
	Frames int             `json:"frames"`
	IDs    []int           `json:"ids"`
	Values map[int]float64 `json:"values"`
}

// Value returns the mean for a neuron, NaN when unknown or undefined
func (m WindowMean) Value(id int) float64 {
	v, ok := m.Values[id]
	if !ok {
		return math.NaN()
	}
	return v
}

// Defined reports whether the window covered at least one frame
func (m WindowMean) Defined() bool {
	return m.Frames > 0
}

// Status marks the outcome of a per-neuron computation
type Status string

const (
	StatusOK                 Status = "ok"
	StatusDegenerateBaseline Status = "degenerate_baseline"
	StatusUndefinedWindow    Status = "undefined_window"
	StatusGuardFailed        Status = "guard_failed"
	StatusZeroDenominator    Status = "zero_denominator"
	StatusNegative           Status = "negative"
)

// Estimate is a scalar that may be undefined, e.g. the mean of an empty group
type Estimate struct {
	Value   float64 `json:"value"`
	Defined bool    `json:"defined"`
}

func defined(v float64) Estimate {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Estimate{}
	}
	return Estimate{Value: v, Defined: true}
}
