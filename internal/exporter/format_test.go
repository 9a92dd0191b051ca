package exporter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRound(t *testing.T) {
	tests := []struct {
		value    float64
		decimals int
		want     float64
	}{
		{0.6, 2, 0.6},
		{0.7551, 2, 0.76},
		{-1.005, 1, -1.0},
		{2.0 / 3.0, 3, 0.667},
		{12.5, 0, 13},
		{-12.5, 0, -13},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.want, Round(tt.value, tt.decimals), 1e-12, "Round(%v, %d)", tt.value, tt.decimals)
	}
}

func TestCellString(t *testing.T) {
	assert.Equal(t, "", cellString(nil))
	assert.Equal(t, "42", cellString(42))
	assert.Equal(t, "0.1", cellString(0.1))
	assert.Equal(t, "0.600", cellString(fixed{0.6, 3}))
	assert.Equal(t, "area_1", cellString("area_1"))
}
