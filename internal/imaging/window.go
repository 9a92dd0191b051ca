package imaging

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"calciumcli/pkg/contracts/domain"
)

// Aggregate computes the mean intensity of every neuron over the window.
// A window running past the last frame is averaged over the frames that
// exist; a window starting after the last frame yields NaN means.
func Aggregate(rec *domain.Recording, spec WindowSpec) WindowMean {
	start, end := spec.Clamp(rec.Frames)

	wm := WindowMean{
		Spec:   spec,
		Frames: end - start,
		IDs:    make([]int, 0, len(rec.Neurons)),
		Values: make(map[int]float64, len(rec.Neurons)),
	}

	for _, n := range rec.Neurons {
		wm.IDs = append(wm.IDs, n.ID)
		if wm.Frames == 0 {
			wm.Values[n.ID] = math.NaN()
			continue
		}
		wm.Values[n.ID] = stat.Mean(n.Intensity[start:end], nil)
	}

	return wm
}

// WindowTable returns the intensity rows of a window for the given neurons.
// A nil ids slice selects every neuron.
func WindowTable(rec *domain.Recording, spec WindowSpec, ids []int) domain.Table {
	start, end := spec.Clamp(rec.Frames)

	if ids == nil {
		ids = rec.NeuronIDs()
	}
	found := make([]int, 0, len(ids))
	series := make([][]float64, 0, len(ids))
	for _, id := range ids {
		if n, ok := rec.Neuron(id); ok {
			found = append(found, id)
			series = append(series, n.Intensity)
		}
	}

	t := domain.Table{
		Title:      spec.Condition.DisplayName(),
		Columns:    domain.IntensityLabels(found),
		FirstFrame: start,
		Rows:       make([][]float64, 0, end-start),
	}
	for f := start; f < end; f++ {
		row := make([]float64, len(series))
		for i, s := range series {
			row[i] = s[f]
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}
