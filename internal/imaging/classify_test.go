package imaging

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	baseline := windowMean(ConditionBaseline, map[int]float64{1: 100, 2: 100, 3: 40, 4: 0, 5: 100})
	stimulus := windowMean(ConditionCap, map[int]float64{
		1: 120,                            // 1.20x
		2: 105,                            // 1.05x
		3: ResponderThreshold * 40,        // exactly at threshold
		4: 3,                              // any positive value beats a zero baseline
		5: math.NaN(),                     // undefined window
	})

	got := Classify(stimulus, baseline)

	assert.Equal(t, ConditionCap, got.Condition)
	assert.Equal(t, []int{1, 4}, got.IDs)
	assert.Equal(t, []string{"area_1", "area_4"}, got.Labels())
	assert.True(t, got.Contains(1))
	assert.False(t, got.Contains(3))
	assert.Equal(t, 2, got.Len())
}

func TestClassify_EmptySet(t *testing.T) {
	baseline := windowMean(ConditionBaseline, map[int]float64{1: 100, 2: 50})
	stimulus := windowMean(ConditionMC, map[int]float64{1: 90, 2: 50})

	got := Classify(stimulus, baseline)

	assert.True(t, got.Empty())
	assert.NotNil(t, got.IDs)
	assert.Empty(t, got.Labels())
}

func TestClassify_PreservesColumnOrder(t *testing.T) {
	baseline := windowMean(ConditionBaseline, map[int]float64{1: 1, 2: 1, 3: 1, 4: 1})
	stimulus := windowMean(ConditionMC, map[int]float64{1: 5, 2: 1, 3: 9, 4: 2})

	assert.Equal(t, []int{1, 3, 4}, Classify(stimulus, baseline).IDs)
}

func TestClassify_MonotonicInThreshold(t *testing.T) {
	rec := scenarioRecording()
	baseline := Aggregate(rec, BaselineWindow())
	stimuli := []WindowMean{
		Aggregate(rec, scenarioParams().Window(ConditionCap)),
		Aggregate(rec, scenarioParams().Window(ConditionMC)),
		Aggregate(rec, scenarioParams().Window(ConditionKCl)),
	}

	for _, stim := range stimuli {
		prev := classify(stim, baseline, ResponderThreshold)
		for m := ResponderThreshold + 0.05; m <= 3; m += 0.05 {
			next := classify(stim, baseline, m)
			assert.LessOrEqual(t, next.Len(), prev.Len(), "multiplier %.2f", m)
			for _, id := range next.IDs {
				assert.True(t, prev.Contains(id), "neuron %d appeared at multiplier %.2f", id, m)
			}
			prev = next
		}
	}
}

func TestClassify_ScenarioCapResponders(t *testing.T) {
	rec := scenarioRecording()
	baseline := Aggregate(rec, BaselineWindow())
	capMean := Aggregate(rec, scenarioParams().Window(ConditionCap))

	got := Classify(capMean, baseline)

	assert.Equal(t, []string{"area_1"}, got.Labels())
}
