package cost_test

import (
	"testing"

	"github.com/pinsolve/pinsolve/cost"
	"github.com/pinsolve/pinsolve/csp"
	"github.com/pinsolve/pinsolve/mcu"
	"github.com/pinsolve/pinsolve/solver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func costMcu() *mcu.Mcu {
	return mcu.New("STM32-test", "LQFP64", []mcu.RawPin{
		{Name: "PA9", Position: "1", Kind: mcu.KindIO, RawSignals: []string{"USART1_TX"}},
		{Name: "PA10", Position: "2", Kind: mcu.KindIO, RawSignals: []string{"USART1_RX"}},
		{Name: "PB3", Position: "10", Kind: mcu.KindIO, RawSignals: []string{"SPI1_SCK"}},
		{Name: "PC13", Position: "20", Kind: mcu.KindIO, RawSignals: []string{"GPIO_OUT"}},
	})
}

func pin(t *testing.T, m *mcu.Mcu, name string) *mcu.Pin {
	t.Helper()
	p, ok := m.PinByName(name)
	require.True(t, ok)
	return p
}

func signal(t *testing.T, p *mcu.Pin, raw string) mcu.Signal {
	t.Helper()
	for _, s := range p.Signals {
		if s.Raw == raw {
			return s
		}
	}
	t.Fatalf("signal %s not found on pin %s", raw, p.Name)
	return mcu.Signal{}
}

func TestPinCountCountsDistinctPinsAcrossAssignmentsAndPinned(t *testing.T) {
	m := costMcu()
	pa9 := pin(t, m, "PA9")
	pa10 := pin(t, m, "PA10")
	sol := &solver.Solution{
		Assignments: []solver.Assignment{
			{Port: "uart", Channel: "tx", Pin: pa9, Signal: signal(t, pa9, "USART1_TX")},
			{Port: "uart", Channel: "rx", Pin: pa10, Signal: signal(t, pa10, "USART1_RX")},
		},
		Pinned: []csp.PinnedAssignment{
			{Pin: "PB3", Signal: "SPI1_SCK"},
		},
	}
	reg := cost.Registry()
	assert.Equal(t, 3.0, reg[cost.PinCount](sol, m))
}

func TestPortSpreadCountsDistinctGPIOLetters(t *testing.T) {
	m := costMcu()
	pa9 := pin(t, m, "PA9")
	pb3 := pin(t, m, "PB3")
	sol := &solver.Solution{
		Assignments: []solver.Assignment{
			{Port: "p", Channel: "a", Pin: pa9, Signal: signal(t, pa9, "USART1_TX")},
			{Port: "p", Channel: "b", Pin: pb3, Signal: signal(t, pb3, "SPI1_SCK")},
		},
	}
	reg := cost.Registry()
	assert.Equal(t, 2.0, reg[cost.PortSpread](sol, m))
}

func TestPeripheralCountCountsDistinctInstances(t *testing.T) {
	m := costMcu()
	pa9 := pin(t, m, "PA9")
	pa10 := pin(t, m, "PA10")
	sol := &solver.Solution{
		Assignments: []solver.Assignment{
			{Port: "uart", Channel: "tx", Pin: pa9, Signal: signal(t, pa9, "USART1_TX")},
			{Port: "uart", Channel: "rx", Pin: pa10, Signal: signal(t, pa10, "USART1_RX")},
		},
	}
	reg := cost.Registry()
	assert.Equal(t, 1.0, reg[cost.PeripheralCount](sol, m))
}

func TestDebugPinPenaltyPenalizesKnownDebugPins(t *testing.T) {
	m := costMcu()
	pb3 := pin(t, m, "PB3")
	sol := &solver.Solution{
		Assignments: []solver.Assignment{
			{Port: "p", Channel: "sck", Pin: pb3, Signal: signal(t, pb3, "SPI1_SCK")},
		},
	}
	reg := cost.Registry()
	assert.Equal(t, 10.0, reg[cost.DebugPinPenalty](sol, m))
}

func TestDebugPinPenaltyZeroForNonDebugPins(t *testing.T) {
	m := costMcu()
	pa9 := pin(t, m, "PA9")
	sol := &solver.Solution{
		Assignments: []solver.Assignment{
			{Port: "p", Channel: "tx", Pin: pa9, Signal: signal(t, pa9, "USART1_TX")},
		},
	}
	reg := cost.Registry()
	assert.Equal(t, 0.0, reg[cost.DebugPinPenalty](sol, m))
}

func TestPinClusteringClampsAtZeroForSinglePort(t *testing.T) {
	m := costMcu()
	pa9 := pin(t, m, "PA9")
	pa10 := pin(t, m, "PA10")
	sol := &solver.Solution{
		Assignments: []solver.Assignment{
			{Port: "uart", Channel: "tx", Pin: pa9, Signal: signal(t, pa9, "USART1_TX")},
			{Port: "uart", Channel: "rx", Pin: pa10, Signal: signal(t, pa10, "USART1_RX")},
		},
	}
	reg := cost.Registry()
	assert.Equal(t, 0.0, reg[cost.PinClustering](sol, m))
}

func TestPinClusteringCountsExtraLettersBeyondFirst(t *testing.T) {
	m := costMcu()
	pa9 := pin(t, m, "PA9")
	pb3 := pin(t, m, "PB3")
	sol := &solver.Solution{
		Assignments: []solver.Assignment{
			{Port: "mixed", Channel: "a", Pin: pa9, Signal: signal(t, pa9, "USART1_TX")},
			{Port: "mixed", Channel: "b", Pin: pb3, Signal: signal(t, pb3, "SPI1_SCK")},
		},
	}
	reg := cost.Registry()
	assert.Equal(t, 1.0, reg[cost.PinClustering](sol, m))
}

func TestPinProximityIsZeroForSinglePinPort(t *testing.T) {
	m := costMcu()
	pa9 := pin(t, m, "PA9")
	sol := &solver.Solution{
		Assignments: []solver.Assignment{
			{Port: "p", Channel: "a", Pin: pa9, Signal: signal(t, pa9, "USART1_TX")},
		},
	}
	reg := cost.Registry()
	assert.Equal(t, 0.0, reg[cost.PinProximity](sol, m))
}

func TestPinProximitySumsCircularLQFPDistance(t *testing.T) {
	m := costMcu()
	pa9 := pin(t, m, "PA9")   // position "1"
	pc13 := pin(t, m, "PC13") // position "20"
	sol := &solver.Solution{
		Assignments: []solver.Assignment{
			{Port: "p", Channel: "a", Pin: pa9, Signal: signal(t, pa9, "USART1_TX")},
			{Port: "p", Channel: "b", Pin: pc13, Signal: signal(t, pc13, "GPIO_OUT")},
		},
	}
	reg := cost.Registry()
	// |1-20|=19, wraparound 64-19=45, min is 19.
	assert.Equal(t, 19.0, reg[cost.PinProximity](sol, m))
}

func TestRegistryExposesAllSixFunctions(t *testing.T) {
	reg := cost.Registry()
	assert.Len(t, reg, 6)
	for _, id := range []string{
		cost.PinCount, cost.PortSpread, cost.PeripheralCount,
		cost.DebugPinPenalty, cost.PinClustering, cost.PinProximity,
	} {
		assert.Contains(t, reg, id)
	}
}
