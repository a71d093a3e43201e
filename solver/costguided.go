package solver

import (
	"time"

	"github.com/pinsolve/pinsolve/csp"
	"github.com/pinsolve/pinsolve/mcu"
)

// debugPins is the hard-coded debug pin set of spec.md §4.8 S5 / §4.9
// debug_pin_penalty.
var debugPins = map[string]bool{
	"PA13": true,
	"PA14": true,
	"PA15": true,
	"PB3":  true,
	"PB4":  true,
}

// costGuidedOrder builds the orderFunc of spec.md §4.8 S5: before a
// variable's domain is iterated, its candidates are sorted ascending by an
// incremental cost estimate for the partial assignment so far — weighted
// port spread (a new GPIO letter touched by this port), debug pin penalty,
// and average proximity to pins already assigned in the same port. A zero
// weight switches a component off entirely.
func costGuidedOrder(m *mcu.Mcu, cfg Config) orderFunc {
	wSpread := cfg.CostWeights["port_spread"]
	wDebug := cfg.CostWeights["debug_pin_penalty"]
	wProximity := cfg.CostWeights["pin_proximity"]

	return func(v *csp.Variable, assigned []Assignment) []int {
		var portLetters map[string]bool
		var portPins []*mcu.Pin
		if wSpread != 0 || wProximity != 0 {
			portLetters = make(map[string]bool)
			for _, a := range assigned {
				if a.Port != v.Port {
					continue
				}
				if letter, ok := mcu.GPIOPortLetter(a.Pin.Name); ok {
					portLetters[letter] = true
				}
				portPins = append(portPins, a.Pin)
			}
		}

		estimate := func(ci int) float64 {
			pin := v.Candidates[ci].Pin
			var cost float64
			if wSpread != 0 {
				if letter, ok := mcu.GPIOPortLetter(pin.Name); ok && !portLetters[letter] {
					cost += wSpread
				}
			}
			if wDebug != 0 && debugPins[pin.Name] {
				cost += wDebug * 10
			}
			if wProximity != 0 && len(portPins) > 0 {
				var sum float64
				for _, other := range portPins {
					sum += m.PinDistance(pin, other)
				}
				cost += wProximity * (sum / float64(len(portPins)))
			}
			return cost
		}

		order := make([]int, len(v.Domain))
		copy(order, v.Domain)
		insertionSortByEstimate(order, estimate)
		return order
	}
}

// insertionSortByEstimate sorts small candidate lists ascending by a
// per-call cost estimate; insertion sort keeps ties in their original
// (MRV-stable) order, which plain domain sizes already are.
func insertionSortByEstimate(order []int, estimate func(int) float64) {
	for i := 1; i < len(order); i++ {
		key := order[i]
		keyCost := estimate(key)
		j := i - 1
		for j >= 0 && estimate(order[j]) > keyCost {
			order[j+1] = order[j]
			j--
		}
		order[j+1] = key
	}
}

// runCostGuided implements S5 by reusing S1's engine with a cost-ordered
// candidate selector (spec.md §4.8 S5).
func runCostGuided(ctx *csp.Context, cfg Config, deadline time.Time) Result {
	order := costGuidedOrder(ctx.Mcu, cfg)
	return runBacktrackingOver(ctx, ctx.Variables, ctx.Combinations, cfg, deadline, order)
}
