package domain

import (
	"fmt"
)

// Column label prefixes used when a recording is shown as a table
const (
	SizeLabelPrefix      = "size_"
	IntensityLabelPrefix = "area_"
)

// RawDataset is the unlabelled frame-by-column table read from an input file.
// Every row is one frame; columns alternate size, intensity per neuron.
type RawDataset struct {
	Source  string      `json:"source"`
	Rows    [][]float64 `json:"rows"`
	Columns int         `json:"columns"`
}

// Frames returns the number of rows in the dataset
func (d *RawDataset) Frames() int {
	return len(d.Rows)
}

// Neuron holds the per-frame size and intensity series of one imaged cell.
// Neuron ids start at 1 and follow the column pair order of the input.
type Neuron struct {
	ID        int       `json:"id" validate:"required,min=1"`
	Size      []float64 `json:"size"`
	Intensity []float64 `json:"intensity"`
}

// SizeLabel returns the display label of the neuron's size column
func (n Neuron) SizeLabel() string {
	return SizeLabel(n.ID)
}

// IntensityLabel returns the display label of the neuron's intensity column
func (n Neuron) IntensityLabel() string {
	return IntensityLabel(n.ID)
}

// Recording is the demultiplexed dataset: one Neuron per column pair.
type Recording struct {
	Source  string   `json:"source"`
	Frames  int      `json:"frames"`
	Neurons []Neuron `json:"neurons"`
}

// NeuronIDs returns all neuron ids in column order
func (r *Recording) NeuronIDs() []int {
	ids := make([]int, len(r.Neurons))
	for i, n := range r.Neurons {
		ids[i] = n.ID
	}
	return ids
}

// Neuron looks up a neuron by id
func (r *Recording) Neuron(id int) (Neuron, bool) {
	// Fast path: ids are normally dense and ordered
	if idx := id - 1; idx >= 0 && idx < len(r.Neurons) && r.Neurons[idx].ID == id {
		return r.Neurons[idx], true
	}
	for _, n := range r.Neurons {
		if n.ID == id {
			return n, true
		}
	}
	return Neuron{}, false
}

// SizeLabel formats the size column label for a neuron id
func SizeLabel(id int) string {
	return fmt.Sprintf("%s%d", SizeLabelPrefix, id)
}

// IntensityLabel formats the intensity column label for a neuron id
func IntensityLabel(id int) string {
	return fmt.Sprintf("%s%d", IntensityLabelPrefix, id)
}

// IntensityLabels maps ids to their intensity labels, preserving order
func IntensityLabels(ids []int) []string {
	labels := make([]string, len(ids))
	for i, id := range ids {
		labels[i] = IntensityLabel(id)
	}
	return labels
}
