package dataprocessing

import (
	apperrors "calciumcli/internal/errors"
	"calciumcli/pkg/contracts/domain"
)

// PreviewRows is the number of frames shown in the data preview
const PreviewRows = 10

// Demultiplex splits the alternating size/intensity columns of a dataset
// into one Neuron per column pair. Column i belongs to neuron i/2+1; even
// columns are sizes and odd columns are intensities.
func Demultiplex(dataset *domain.RawDataset) (*domain.Recording, error) {
	if dataset == nil || dataset.Frames() == 0 || dataset.Columns == 0 {
		return nil, apperrors.NewMalformedInputError("dataset is empty", nil)
	}
	if dataset.Columns%2 != 0 {
		return nil, apperrors.NewMalformedInputError("column count must be even (size, intensity pairs)", nil).
			WithContext("columns", dataset.Columns)
	}

	frames := dataset.Frames()
	neurons := make([]domain.Neuron, dataset.Columns/2)
	for k := range neurons {
		neurons[k] = domain.Neuron{
			ID:        k + 1,
			Size:      make([]float64, frames),
			Intensity: make([]float64, frames),
		}
	}

	for f, row := range dataset.Rows {
		if len(row) != dataset.Columns {
			return nil, apperrors.NewMalformedInputError("ragged row", nil).
				WithContext("row", f+1).
				WithContext("width", len(row)).
				WithContext("columns", dataset.Columns)
		}
		for i, v := range row {
			n := &neurons[i/2]
			if i%2 == 0 {
				n.Size[f] = v
			} else {
				n.Intensity[f] = v
			}
		}
	}

	return &domain.Recording{
		Source:  dataset.Source,
		Frames:  frames,
		Neurons: neurons,
	}, nil
}

// SizeTable returns the size_<id> view of the recording
func SizeTable(rec *domain.Recording) domain.Table {
	return columnTable(rec, domain.SizeLabel, func(n domain.Neuron) []float64 { return n.Size })
}

// IntensityTable returns the area_<id> view of the recording
func IntensityTable(rec *domain.Recording) domain.Table {
	return columnTable(rec, domain.IntensityLabel, func(n domain.Neuron) []float64 { return n.Intensity })
}

// Preview returns the first PreviewRows frames of the renamed data, with
// columns in their original size_1, area_1, size_2, ... order.
func Preview(rec *domain.Recording) domain.Table {
	frames := rec.Frames
	if frames > PreviewRows {
		frames = PreviewRows
	}

	t := domain.Table{
		Columns: make([]string, 0, 2*len(rec.Neurons)),
		Rows:    make([][]float64, frames),
	}
	for _, n := range rec.Neurons {
		t.Columns = append(t.Columns, n.SizeLabel(), n.IntensityLabel())
	}
	for f := 0; f < frames; f++ {
		row := make([]float64, 0, len(t.Columns))
		for _, n := range rec.Neurons {
			row = append(row, n.Size[f], n.Intensity[f])
		}
		t.Rows[f] = row
	}
	return t
}

func columnTable(rec *domain.Recording, label func(int) string, series func(domain.Neuron) []float64) domain.Table {
	t := domain.Table{
		Columns: make([]string, len(rec.Neurons)),
		Rows:    make([][]float64, rec.Frames),
	}
	for i, n := range rec.Neurons {
		t.Columns[i] = label(n.ID)
	}
	for f := 0; f < rec.Frames; f++ {
		row := make([]float64, len(rec.Neurons))
		for i, n := range rec.Neurons {
			row[i] = series(n)[f]
		}
		t.Rows[f] = row
	}
	return t
}
