package exporter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"calciumcli/internal/imaging"
	"calciumcli/internal/shared/testutil"
)

func TestBuildSummary_Scenario(t *testing.T) {
	rep := analyze(t, testutil.ScenarioRows())

	s := BuildSummary(rep.RunID, rep.Result)

	assert.Equal(t, "run-test", s.RunID)
	assert.Equal(t, 4, s.Neurons)
	assert.Equal(t, 1, s.CapResponders)
	assert.Equal(t, 2, s.MCResponders)
	assert.Equal(t, []string{"area_1"}, s.CapResponderLabels)
	assert.Equal(t, []string{"area_1", "area_4"}, s.MCResponderLabels)

	assert.Equal(t, LabeledValues{{Label: "area_1", Value: 0.6}}, s.MCKClRatioCap)
	assert.Equal(t, map[string]float64{"area_1": 0.6, "area_4": 0.75}, s.MCKClRatioMC.Map())

	require.Len(t, s.RatioCounts, 3)
	assert.Equal(t, imaging.RatioMCCap, s.RatioCounts[0].Name)
	for _, rc := range s.RatioCounts {
		assert.Equal(t, rc.GroupSize,
			rc.Retained+rc.Degenerate+rc.Undefined+rc.GuardFailures+rc.ZeroDenominators+rc.NegativeDrops)
	}

	assert.Equal(t, imaging.Estimate{Value: 9.5, Defined: true}, s.ResponderSize)
	assert.Equal(t, imaging.Estimate{Value: 12, Defined: true}, s.NonResponderSize)
	assert.Equal(t, 0, s.OnlyCap)
	assert.Equal(t, 1, s.OnlyMC)
	assert.Equal(t, 1, s.Both)
	assert.Equal(t, []string{"area_1"}, s.SharedLabels)
	assert.Empty(t, s.DegenerateLabels)
	assert.Empty(t, s.EmptyWindows)
}

func TestBuildSummary_EmptyGroups(t *testing.T) {
	rep := analyze(t, flatRows())

	s := BuildSummary(rep.RunID, rep.Result)

	assert.Equal(t, 0, s.CapResponders)
	assert.NotNil(t, s.MCKClRatioCap)
	assert.Empty(t, s.MCKClRatioCap)
	assert.Empty(t, s.MCKClRatioMC.Map())
	assert.Empty(t, s.RatioCounts)
	assert.False(t, s.ResponderSize.Defined)
	assert.True(t, s.NonResponderSize.Defined)
	assert.InDelta(t, 11.0, s.NonResponderSize.Value, 1e-12)
}

func TestBuildSummary_RatiosRoundedToTwoDecimals(t *testing.T) {
	rep := analyze(t, testutil.ScenarioRows())
	rs := rep.Result.MCKClRatioMC
	for i := range rs.Entries {
		if rs.Entries[i].NeuronID == 4 {
			rs.Entries[i].Value = 0.74567
		}
	}

	assert.Equal(t, 0.75, BuildSummary("", rep.Result).MCKClRatioMC.Map()["area_4"])
}

func TestBuildSummary_SkipsDroppedRatios(t *testing.T) {
	rep := analyze(t, testutil.ScenarioRows())
	rs := rep.Result.MCKClRatioMC
	for i := range rs.Entries {
		if rs.Entries[i].NeuronID == 4 {
			rs.Entries[i].Status = imaging.StatusNegative
		}
	}
	rs.RetainedCount--
	rs.NegativeDrops++

	s := BuildSummary("", rep.Result)
	assert.Equal(t, LabeledValues{{Label: "area_1", Value: 0.6}}, s.MCKClRatioMC)
}
