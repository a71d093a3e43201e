package solver_test

import (
	"testing"
	"time"

	"github.com/pinsolve/pinsolve/csp"
	"github.com/pinsolve/pinsolve/diag"
	"github.com/pinsolve/pinsolve/mcu"
	"github.com/pinsolve/pinsolve/parser"
	"github.com/pinsolve/pinsolve/solver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoLinkedPortsMcu() *mcu.Mcu {
	return mcu.New("STM32F411", "LQFP64", []mcu.RawPin{
		{Name: "PA9", Kind: mcu.KindIO, RawSignals: []string{"USART1_TX"}},
		{Name: "PA10", Kind: mcu.KindIO, RawSignals: []string{"USART1_RX"}},
		{Name: "PA2", Kind: mcu.KindIO, RawSignals: []string{"USART2_TX"}},
		{Name: "PA3", Kind: mcu.KindIO, RawSignals: []string{"USART2_RX"}},
	})
}

// Two ports, each requiring same_instance across its own TX/RX channels,
// sharing the same two-instance candidate pool: with only USART1 and
// USART2 available, satisfying both ports simultaneously forces exactly
// one to take each instance. Forward checking must narrow each port's
// unassigned channel as the other port commits, without ever discarding
// the combination that a full (unpropagated) search confirms solvable
// (spec.md §9 Open Question 3).
const twoLinkedPortsSrc = `port FIRST:
	channel TX
	channel RX
	config "u":
		TX = USART*_TX
		RX = USART*_RX
		require same_instance(TX, RX)

port SECOND:
	channel TX
	channel RX
	config "u":
		TX = USART*_TX
		RX = USART*_RX
		require same_instance(TX, RX)
`

func runStrategy(t *testing.T, strategy solver.Strategy) solver.Result {
	t.Helper()
	var perrs diag.List
	prog := parser.Parse([]byte(twoLinkedPortsSrc), &perrs)
	require.NoError(t, perrs.Err())

	var errs diag.List
	ctx := csp.PrepareContext(prog, twoLinkedPortsMcu(), &errs)
	require.False(t, errs.HasErrors())

	return solver.Run(ctx, strategy, solver.Config{MaxSolutions: 100, Deadline: 5 * time.Second}, &errs)
}

// TestForwardCheckingPropagationDoesNotDiscardLinkedPortSolution is the
// regression spec.md §9 Open Question 3 mandates: a case where cross-port
// propagation interacts with require constraints on two ports at once.
// Both S2 (static order) and S3 (dynamic MRV) must find exactly the two
// solutions (FIRST=USART1/SECOND=USART2, and the reverse) that S1's
// unpropagated backtracking confirms exist, and every solution from every
// strategy must bind all four variables — never fewer, which is exactly
// what an unsound port-wipeout check would silently produce.
func TestForwardCheckingPropagationDoesNotDiscardLinkedPortSolution(t *testing.T) {
	baseline := runStrategy(t, solver.S1Backtracking)
	require.Len(t, baseline.Solutions, 2)

	baseFingerprints := map[string]bool{}
	for _, sol := range baseline.Solutions {
		baseFingerprints[solver.Fingerprint(sol)] = true
	}

	for _, strategy := range []solver.Strategy{solver.S2ForwardChecking, solver.S3DynamicMRV} {
		res := runStrategy(t, strategy)
		require.Lenf(t, res.Solutions, 2, "strategy %s", strategy)
		for _, sol := range res.Solutions {
			assert.Lenf(t, sol.Assignments, 4, "strategy %s: every channel of both ports must be bound", strategy)
			assert.Containsf(t, baseFingerprints, solver.Fingerprint(sol), "strategy %s produced a solution S1 does not confirm", strategy)
		}
	}
}

// TestDynamicMRVNeverReportsIncompleteSolution builds a port whose single
// channel's domain only empties out after another port's assignment
// propagates (same MCU/program as above): this directly guards the S3
// bug where chooseNext treated "an unassigned variable with an emptied
// domain remains" the same as "nothing left to assign", letting search()
// record a solution with an unbound channel instead of failing that
// branch (spec.md §8 invariants 1 and 4).
func TestDynamicMRVNeverReportsIncompleteSolution(t *testing.T) {
	res := runStrategy(t, solver.S3DynamicMRV)
	for _, sol := range res.Solutions {
		assert.Len(t, sol.Assignments, 4)
	}
}
