package imaging

import (
	"calciumcli/pkg/contracts/domain"
)

// step sets the trace value from frame `from` until the next step
type step struct {
	from  int
	value float64
}

func stepTrace(frames int, steps ...step) []float64 {
	out := make([]float64, frames)
	for i, s := range steps {
		end := frames
		if i+1 < len(steps) {
			end = steps[i+1].from
		}
		for f := s.from; f < end && f < frames; f++ {
			out[f] = s.value
		}
	}
	return out
}

func constTrace(frames int, v float64) []float64 {
	return stepTrace(frames, step{0, v})
}

// newRecording builds a recording whose neuron i has intensity traces[i]
// and a constant size of sizes[i] (10*id when sizes is nil)
func newRecording(sizes []float64, traces ...[]float64) *domain.Recording {
	rec := &domain.Recording{Source: "test", Neurons: make([]domain.Neuron, len(traces))}
	for i, tr := range traces {
		rec.Frames = len(tr)
		size := float64(10 * (i + 1))
		if sizes != nil {
			size = sizes[i]
		}
		rec.Neurons[i] = domain.Neuron{
			ID:        i + 1,
			Size:      constTrace(len(tr), size),
			Intensity: tr,
		}
	}
	return rec
}

// windowMean builds a WindowMean directly from id -> value pairs
func windowMean(c Condition, values map[int]float64) WindowMean {
	wm := WindowMean{
		Spec:   WindowSpec{Condition: c, Length: 1},
		Frames: 1,
		Values: values,
	}
	for id := 1; id <= len(values); id++ {
		wm.IDs = append(wm.IDs, id)
	}
	return wm
}

// scenarioRecording is the 4-neuron, 21-frame dataset used across tests.
// With cap=12, mc=15, kcl=18 neuron 1 responds to Cap (mean 120 vs 100)
// and neuron 2 does not (105 vs 100).
func scenarioRecording() *domain.Recording {
	const frames = 21
	return newRecording(
		[]float64{12, 9, 15, 7},
		stepTrace(frames, step{0, 100}, step{12, 120}, step{18, 200}),
		stepTrace(frames, step{0, 100}, step{12, 105}),
		constTrace(frames, 50),
		stepTrace(frames, step{0, 80}, step{15, 100}, step{18, 120}),
	)
}

func scenarioParams() RunParameters {
	return RunParameters{StartFrameMC: 15, StartFrameCap: 12, StartFrameKCl: 18}
}
