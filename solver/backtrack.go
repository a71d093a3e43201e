package solver

import (
	"time"

	"github.com/pinsolve/pinsolve/csp"
)

// orderFunc overrides a variable's candidate iteration order; it returns
// indices into v.Candidates. nil means "use v.Domain as built by context
// preparation".
type orderFunc func(v *csp.Variable, assigned []Assignment) []int

// runBacktracking implements S1: chronological backtracking in MRV order,
// one combination at a time (spec.md §4.8 S1). order overrides per-variable
// candidate ordering (used by S5's cost-guided sort and S4's shuffle). It
// runs over every combination ctx.PrepareContext enumerated.
func runBacktracking(ctx *csp.Context, cfg Config, deadline time.Time, order orderFunc) Result {
	return runBacktrackingOver(ctx, ctx.Variables, ctx.Combinations, cfg, deadline, order)
}

// runBacktrackingOver is the engine shared by S1, S4 and S5: it runs one
// chronological backtracking search per combination in combos, stopping
// early once cfg.MaxSolutions total solutions have been produced or the
// deadline passes. source is the (possibly per-restart reordered) variable
// list to draw each combination's active variables from.
func runBacktrackingOver(ctx *csp.Context, source []*csp.Variable, combos []csp.Combination, cfg Config, deadline time.Time, order orderFunc) Result {
	var solutions []Solution
	var deepest []Assignment
	recordDeepest := func(a []Assignment) {
		if len(a) > len(deepest) {
			deepest = cloneAssignments(a)
		}
	}
	stats := csp.Stats{ConfigCombinations: len(ctx.Combinations)}

	for _, combo := range combos {
		stats.TotalCombinations++
		if time.Now().After(deadline) {
			break
		}
		vars := activeVariables(source, combo)
		last := lastIndexOfConfig(vars)
		tracker := ctx.NewTracker()
		assigned := make([]Assignment, 0, len(vars))
		evaluated := false

		var search func(idx int) bool
		search = func(idx int) bool {
			if time.Now().After(deadline) {
				return true
			}
			if idx == len(vars) {
				if !evaluated {
					stats.EvaluatedCombinations++
					evaluated = true
				}
				sol := Solution{Combo: cloneCombo(combo), Assignments: cloneAssignments(assigned), Pinned: ctx.Pinned}
				solutions = append(solutions, sol)
				stats.ValidSolutions++
				return len(solutions) >= cfg.MaxSolutions
			}

			v := vars[idx]
			candidateOrder := v.Domain
			if order != nil {
				candidateOrder = order(v, assigned)
			}
			for _, ci := range candidateOrder {
				if time.Now().After(deadline) {
					return true
				}
				c := v.Candidates[ci]
				instance := c.Signal.Instance
				if !tracker.CanAssign(c.Pin.Name, v.Port, v.Config, v.Channel, instance) {
					continue
				}
				tracker.Assign(c.Pin.Name, v.Port, v.Config, v.Channel, instance)
				assigned = append(assigned, Assignment{Port: v.Port, Config: v.Config, Channel: v.Channel, Pin: c.Pin, Signal: c.Signal})

				ok := true
				if li, has := last[csp.ConfigKey{Port: v.Port, Config: v.Config}]; has && li == idx {
					ok = evalRequires(ctx, v.Port, v.Config, assigned)
				}
				var stop bool
				if ok {
					stop = search(idx + 1)
				}

				assigned = assigned[:len(assigned)-1]
				tracker.Unassign(c.Pin.Name, v.Port, v.Config, v.Channel, instance)
				if stop {
					return true
				}
			}
			recordDeepest(assigned)
			return false
		}

		search(0)
		if len(solutions) >= cfg.MaxSolutions {
			break
		}
	}

	res := Result{Solutions: solutions, Stats: stats, Deepest: deepest}
	res.Stats.TotalCombinations = len(ctx.Combinations)
	return res
}
