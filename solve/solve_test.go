package solve_test

import (
	"testing"
	"time"

	"github.com/pinsolve/pinsolve/cost"
	"github.com/pinsolve/pinsolve/diag"
	"github.com/pinsolve/pinsolve/mcu"
	"github.com/pinsolve/pinsolve/parser"
	"github.com/pinsolve/pinsolve/solve"
	"github.com/pinsolve/pinsolve/solver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullDuplexMcu() *mcu.Mcu {
	return mcu.New("STM32F411", "LQFP64", []mcu.RawPin{
		{Name: "PA9", Kind: mcu.KindIO, RawSignals: []string{"USART1_TX"}},
		{Name: "PA10", Kind: mcu.KindIO, RawSignals: []string{"USART1_RX"}},
		{Name: "PA2", Kind: mcu.KindIO, RawSignals: []string{"USART2_TX"}},
		{Name: "PA3", Kind: mcu.KindIO, RawSignals: []string{"USART2_RX"}},
	})
}

const fullDuplexSrc = `port CMD:
	channel TX
	channel RX
	config "U":
		TX = USART*_TX
		RX = USART*_RX
		require same_instance(TX, RX)
`

func TestRunSolvesFullDuplexUart(t *testing.T) {
	var perrs diag.List
	prog := parser.Parse([]byte(fullDuplexSrc), &perrs)
	require.NoError(t, perrs.Err())

	res := solve.Run(prog, fullDuplexMcu(), solve.Config{MaxSolutions: 10, Timeout: time.Second}, solver.S1Backtracking)
	assert.Equal(t, "STM32F411", res.MCURef)
	require.GreaterOrEqual(t, len(res.Solutions), 2)
	for _, sol := range res.Solutions {
		var instances []string
		for _, a := range sol.Assignments {
			instances = append(instances, a.Signal.Instance)
		}
		assert.Len(t, distinct(instances), 1)
	}
}

func TestRunManyMergesAcrossStrategies(t *testing.T) {
	var perrs diag.List
	prog := parser.Parse([]byte(fullDuplexSrc), &perrs)
	require.NoError(t, perrs.Err())

	strategies := []solver.Strategy{solver.S1Backtracking, solver.S2ForwardChecking}
	merged := solve.RunMany(prog, fullDuplexMcu(), solve.Config{MaxSolutions: 10, Timeout: time.Second}, strategies, 0)
	require.NotEmpty(t, merged.Solutions)
	assert.Len(t, merged.Stats.PerSolver, 2)
}

func TestRunZeroDeadlineYieldsTimeoutWarning(t *testing.T) {
	var perrs diag.List
	prog := parser.Parse([]byte(fullDuplexSrc), &perrs)
	require.NoError(t, perrs.Err())

	res := solve.Run(prog, fullDuplexMcu(), solve.Config{MaxSolutions: 10, Timeout: -1}, solver.S1Backtracking)
	assert.Empty(t, res.Solutions)

	var sawTimeout bool
	for _, d := range res.Errors {
		if d.Severity == diag.Warning {
			sawTimeout = true
		}
	}
	assert.True(t, sawTimeout)
}

// E2: reserving a pin must remove the whole peripheral instance it belongs
// to from every solution, not just that one pin (spec.md §8 E2), confirmed
// at full-solve level rather than only at the domain-filtering level.
const reservedSrc = `reserve: PA9

port CMD:
	channel TX
	channel RX
	config "U":
		TX = USART*_TX
		RX = USART*_RX
		require same_instance(TX, RX)
`

func TestRunReservedPinRemovesWholeInstanceFromEverySolution(t *testing.T) {
	var perrs diag.List
	prog := parser.Parse([]byte(reservedSrc), &perrs)
	require.NoError(t, perrs.Err())

	res := solve.Run(prog, fullDuplexMcu(), solve.Config{MaxSolutions: 10, Timeout: time.Second}, solver.S1Backtracking)
	require.NotEmpty(t, res.Solutions)
	for _, sol := range res.Solutions {
		for _, a := range sol.Assignments {
			assert.NotEqual(t, "PA9", a.Pin.Name)
			assert.Equal(t, "USART2", a.Signal.Instance)
		}
	}
}

// E3: a pinned signal must appear in every combination of every solution
// as the <pinned> entry, never touched by ordinary variables (spec.md §8
// E3).
const pinnedSrc = `pin PA4 = DAC1_OUT1

port CMD:
	channel TX
	channel RX
	config "U":
		TX = USART*_TX
		RX = USART*_RX
		require same_instance(TX, RX)
`

func pinnedDacMcu() *mcu.Mcu {
	return mcu.New("STM32F411", "LQFP64", []mcu.RawPin{
		{Name: "PA9", Kind: mcu.KindIO, RawSignals: []string{"USART1_TX"}},
		{Name: "PA10", Kind: mcu.KindIO, RawSignals: []string{"USART1_RX"}},
		{Name: "PA2", Kind: mcu.KindIO, RawSignals: []string{"USART2_TX"}},
		{Name: "PA3", Kind: mcu.KindIO, RawSignals: []string{"USART2_RX"}},
		{Name: "PA4", Kind: mcu.KindIO, RawSignals: []string{"DAC1_OUT1"}},
	})
}

func TestRunPinnedDacAppearsInEverySolution(t *testing.T) {
	var perrs diag.List
	prog := parser.Parse([]byte(pinnedSrc), &perrs)
	require.NoError(t, perrs.Err())

	res := solve.Run(prog, pinnedDacMcu(), solve.Config{MaxSolutions: 10, Timeout: time.Second}, solver.S1Backtracking)
	require.NotEmpty(t, res.Solutions)
	for _, sol := range res.Solutions {
		require.Len(t, sol.Pinned, 1)
		assert.Equal(t, "PA4", sol.Pinned[0].Pin)
		assert.Equal(t, "DAC1_OUT1", sol.Pinned[0].Signal)
		for _, a := range sol.Assignments {
			assert.NotEqual(t, "PA4", a.Pin.Name)
		}
	}
}

// E4: a `shared:` pattern lets more than one port bind the same peripheral
// instance in the same solution, which an ordinary (non-shared) instance
// could never do (spec.md §8 E4).
const sharedAdcSrc = `shared: ADC*

port SENSOR_A:
	channel A
	config "U":
		A = ADC*_IN[0-3]

port SENSOR_B:
	channel A
	config "U":
		A = ADC*_IN[0-3]
`

func sharedAdcMcu() *mcu.Mcu {
	return mcu.New("STM32F411", "LQFP64", []mcu.RawPin{
		{Name: "PB0", Kind: mcu.KindIO, RawSignals: []string{"ADC1_IN0"}},
		{Name: "PC0", Kind: mcu.KindIO, RawSignals: []string{"ADC1_IN1"}},
		{Name: "PC1", Kind: mcu.KindIO, RawSignals: []string{"ADC1_IN2"}},
		{Name: "PC2", Kind: mcu.KindIO, RawSignals: []string{"ADC1_IN3"}},
	})
}

func TestRunSharedAdcAllowsBothPortsToUseSameInstance(t *testing.T) {
	var perrs diag.List
	prog := parser.Parse([]byte(sharedAdcSrc), &perrs)
	require.NoError(t, perrs.Err())

	res := solve.Run(prog, sharedAdcMcu(), solve.Config{MaxSolutions: 10, Timeout: time.Second}, solver.S1Backtracking)
	require.NotEmpty(t, res.Solutions)

	var sawShared bool
	for _, sol := range res.Solutions {
		byPort := map[string]string{}
		for _, a := range sol.Assignments {
			byPort[a.Port] = a.Signal.Instance
		}
		if byPort["SENSOR_A"] == "ADC1" && byPort["SENSOR_B"] == "ADC1" {
			sawShared = true
		}
	}
	assert.True(t, sawShared, "expected at least one solution where both ports share ADC1")
}

// E5: a `&`-joined multi-pin channel must bind two distinct pins, one per
// signal expression (spec.md §8 E5).
const multiPinSrc = `port STORAGE:
	channel MOSI
	config "U":
		MOSI = SPI1_MOSI & GPIO[1-2]_*
`

func multiPinMcu() *mcu.Mcu {
	return mcu.New("STM32F411", "LQFP64", []mcu.RawPin{
		{Name: "PA6", Kind: mcu.KindIO, RawSignals: []string{"SPI1_MOSI"}},
		{Name: "PA5", Kind: mcu.KindIO, RawSignals: []string{}},
		{Name: "PB5", Kind: mcu.KindIO, RawSignals: []string{}},
	})
}

func TestRunMultiPinChannelAssignsTwoDistinctPins(t *testing.T) {
	var perrs diag.List
	prog := parser.Parse([]byte(multiPinSrc), &perrs)
	require.NoError(t, perrs.Err())

	res := solve.Run(prog, multiPinMcu(), solve.Config{MaxSolutions: 10, Timeout: time.Second}, solver.S1Backtracking)
	require.NotEmpty(t, res.Solutions)
	for _, sol := range res.Solutions {
		var mosi []string
		for _, a := range sol.Assignments {
			if a.Channel == "MOSI" {
				mosi = append(mosi, a.Pin.Name)
			}
		}
		require.Len(t, mosi, 2)
		assert.NotEqual(t, mosi[0], mosi[1])
		assert.Contains(t, mosi, "PA6")
	}
}

// E6: with a non-zero debug_pin_penalty weight, a solution using a debug
// pin must sort strictly after an otherwise-equivalent solution that does
// not (spec.md §8 E6).
const debugPenaltySrc = `port DBG:
	channel SIG
	config "U":
		SIG = GPIO1_*
`

func debugPenaltyMcu() *mcu.Mcu {
	return mcu.New("STM32F411", "LQFP64", []mcu.RawPin{
		{Name: "PA13", Kind: mcu.KindIO, RawSignals: []string{}},
		{Name: "PA1", Kind: mcu.KindIO, RawSignals: []string{}},
	})
}

func TestRunDebugPinPenaltyOrdersNonDebugSolutionFirst(t *testing.T) {
	var perrs diag.List
	prog := parser.Parse([]byte(debugPenaltySrc), &perrs)
	require.NoError(t, perrs.Err())

	res := solve.Run(prog, debugPenaltyMcu(), solve.Config{
		MaxSolutions: 10,
		Timeout:      time.Second,
		CostWeights:  map[string]float64{cost.DebugPinPenalty: 1},
	}, solver.S1Backtracking)
	require.Len(t, res.Solutions, 2)
	for _, sol := range res.Solutions {
		require.Len(t, sol.Assignments, 1)
	}

	nonDebug, debug := res.Solutions[0], res.Solutions[1]
	assert.Equal(t, "PA1", nonDebug.Assignments[0].Pin.Name, "the non-debug solution must sort first")
	assert.Equal(t, "PA13", debug.Assignments[0].Pin.Name, "the debug-pin solution must sort second")
	assert.Less(t, nonDebug.Cost, debug.Cost)
}

func distinct(ss []string) map[string]bool {
	out := make(map[string]bool, len(ss))
	for _, s := range ss {
		out[s] = true
	}
	return out
}
