package serialize_test

import (
	"testing"

	"github.com/pinsolve/pinsolve/csp"
	"github.com/pinsolve/pinsolve/mcu"
	"github.com/pinsolve/pinsolve/serialize"
	"github.com/pinsolve/pinsolve/solver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pin(name string) *mcu.Pin { return &mcu.Pin{Name: name} }

func sampleSolution() solver.Solution {
	return solver.Solution{
		Combo: csp.Combination{"CMD": "U"},
		Assignments: []solver.Assignment{
			{Port: "CMD", Config: "U", Channel: "TX", Pin: pin("PA9"), Signal: mcu.Signal{Raw: "USART1_TX", Instance: "USART1"}},
			{Port: "CMD", Config: "U", Channel: "RX", Pin: pin("PA10"), Signal: mcu.Signal{Raw: "USART1_RX", Instance: "USART1"}},
		},
		Pinned:        []csp.PinnedAssignment{{Pin: "PA4", Signal: "DAC1_OUT1"}},
		Cost:          12,
		CostBreakdown: map[string]float64{"pin_count": 2, "port_spread": 1},
	}
}

func TestMarshalSolutionBuildsFlatDedupedAssignments(t *testing.T) {
	doc := serialize.MarshalSolution(sampleSolution(), "STM32F411")
	require.Len(t, doc.Assignments, 3)
	assert.Equal(t, "STM32F411", doc.MCU)
	assert.Equal(t, 12.0, doc.TotalCost)
	assert.Equal(t, []string{"USART1"}, doc.PortPeripherals["CMD"])

	var sawPinned bool
	for _, a := range doc.Assignments {
		if a.Port == serialize.PinnedTag {
			sawPinned = true
			assert.Equal(t, "PA4", a.Pin)
			assert.Equal(t, "DAC1_OUT1", a.Signal)
		}
	}
	assert.True(t, sawPinned)
}

func TestRoundTripIsByteEqual(t *testing.T) {
	doc := serialize.MarshalSolution(sampleSolution(), "STM32F411")
	b1, err := doc.Marshal()
	require.NoError(t, err)

	doc2, err := serialize.Unmarshal(b1)
	require.NoError(t, err)
	b2, err := doc2.Marshal()
	require.NoError(t, err)

	assert.Equal(t, b1, b2)
}

func TestReconstructGroupsByPortConfigAndInjectsPinned(t *testing.T) {
	doc := &serialize.Document{
		Assignments: []serialize.AssignmentRecord{
			{Port: "CMD", Channel: "TX", Pin: "PA9", Signal: "USART1_TX", Config: "U"},
			{Port: "CMD", Channel: "RX", Pin: "PA10", Signal: "USART1_RX", Config: "U"},
			{Port: "CMD", Channel: "TX", Pin: "PA2", Signal: "USART2_TX", Config: "V"},
			{Port: "CMD", Channel: "RX", Pin: "PA3", Signal: "USART2_RX", Config: "V"},
			{Port: serialize.PinnedTag, Channel: serialize.PinnedTag, Pin: "PA4", Signal: "DAC1_OUT1", Config: serialize.PinnedTag},
		},
	}

	combos := serialize.Reconstruct(doc)
	require.Len(t, combos, 2)
	for _, c := range combos {
		assert.Len(t, c.Assignments, 2)
		require.Len(t, c.Pinned, 1)
		assert.Equal(t, "PA4", c.Pinned[0].Pin)
		assert.Equal(t, c.Combo["CMD"], c.Assignments[0].Config)
	}
}

func TestReconstructEmptyPortsYieldsOneCombinationWithOnlyPinned(t *testing.T) {
	doc := &serialize.Document{
		Assignments: []serialize.AssignmentRecord{
			{Port: serialize.PinnedTag, Channel: serialize.PinnedTag, Pin: "PA4", Signal: "DAC1_OUT1", Config: serialize.PinnedTag},
		},
	}
	combos := serialize.Reconstruct(doc)
	require.Len(t, combos, 1)
	assert.Empty(t, combos[0].Assignments)
	assert.Len(t, combos[0].Pinned, 1)
}

func TestReconstructNoAssignmentsYieldsOneEmptyCombination(t *testing.T) {
	combos := serialize.Reconstruct(&serialize.Document{})
	require.Len(t, combos, 1)
	assert.Empty(t, combos[0].Assignments)
	assert.Empty(t, combos[0].Pinned)
}
