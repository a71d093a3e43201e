package solver

import (
	"time"

	"github.com/pinsolve/pinsolve/csp"
)

// removedEntry records one candidate index removed from one variable's
// local domain during propagation, so undo can restore it exactly on
// backtrack (spec.md §9: "forward-checking's removed-list is a sequence of
// (var_index, candidate_index)").
type removedEntry struct {
	varIdx, candIdx int
}

// runForwardChecking implements both S2 (static MRV order, propagation,
// port-wipeout detection) and S3 (dynamic MRV: the next variable is chosen
// as the unassigned variable with the smallest non-empty domain; once only
// empty-domain unassigned variables remain, one of them is chosen and the
// branch fails) — spec.md §4.8 S2/S3.
//
// Unlike runBacktracking's static "last index of config" check (valid only
// because S1 assigns in a fixed order), S3's variable order is chosen at
// each step, so eager config-boundary evaluation here is driven by a
// per-config remaining-unassigned counter instead of an index comparison.
func runForwardChecking(ctx *csp.Context, cfg Config, deadline time.Time, dynamicMRV bool) Result {
	var solutions []Solution
	var deepest []Assignment
	stats := csp.Stats{ConfigCombinations: len(ctx.Combinations)}

	for _, combo := range ctx.Combinations {
		stats.TotalCombinations++
		if time.Now().After(deadline) {
			break
		}
		vars := activeVariables(ctx.Variables, combo)
		tracker := ctx.NewTracker()
		assigned := make([]Assignment, 0, len(vars))
		assignedMark := make([]bool, len(vars))
		evaluated := false

		domains := make([][]int, len(vars))
		for i, v := range vars {
			d := make([]int, len(v.Domain))
			copy(d, v.Domain)
			domains[i] = d
		}

		remaining := make(map[csp.ConfigKey]int, len(vars))
		for _, v := range vars {
			remaining[csp.ConfigKey{Port: v.Port, Config: v.Config}]++
		}

		propagate := func(fromIdx int, pin, instance string, shared bool) []removedEntry {
			var removed []removedEntry
			fromPort := vars[fromIdx].Port
			for vi, v := range vars {
				if assignedMark[vi] || v.Port == fromPort {
					continue
				}
				dom := domains[vi]
				kept := dom[:0:0]
				for _, ci := range dom {
					cand := v.Candidates[ci]
					if cand.Pin.Name == pin || (!shared && instance != "" && cand.Signal.Instance == instance) {
						removed = append(removed, removedEntry{vi, ci})
						continue
					}
					kept = append(kept, ci)
				}
				domains[vi] = kept
			}
			return removed
		}
		undo := func(removed []removedEntry) {
			for _, r := range removed {
				domains[r.varIdx] = append(domains[r.varIdx], r.candIdx)
			}
		}
		portDead := func(port string) bool {
			for vi, v := range vars {
				if v.Port == port && !assignedMark[vi] && len(domains[vi]) == 0 {
					return true
				}
			}
			return false
		}
		// chooseNext must distinguish "every variable assigned" (returns -1,
		// search() records a solution) from "an unassigned variable remains
		// but its domain was emptied by propagation" (must fail this branch,
		// never be silently skipped — spec.md §8 invariants 1/4). In dynamic
		// mode it therefore falls back to an empty-domain unassigned
		// variable when no non-empty one exists, instead of treating that
		// case the same as "nothing left to assign": the returned variable's
		// candidate loop is empty, so search() naturally reports failure for
		// this branch rather than completing it.
		chooseNext := func() int {
			if !dynamicMRV {
				for vi := range vars {
					if !assignedMark[vi] {
						return vi
					}
				}
				return -1
			}
			best := -1
			anyUnassigned := -1
			for vi := range vars {
				if assignedMark[vi] {
					continue
				}
				if anyUnassigned == -1 {
					anyUnassigned = vi
				}
				if len(domains[vi]) == 0 {
					continue
				}
				if best == -1 || len(domains[vi]) < len(domains[best]) {
					best = vi
				}
			}
			if best != -1 {
				return best
			}
			return anyUnassigned
		}

		var search func() bool
		search = func() bool {
			if time.Now().After(deadline) {
				return true
			}
			idx := chooseNext()
			if idx == -1 {
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
			key := csp.ConfigKey{Port: v.Port, Config: v.Config}
			for _, ci := range append([]int(nil), domains[idx]...) {
				if time.Now().After(deadline) {
					return true
				}
				c := v.Candidates[ci]
				instance := c.Signal.Instance
				if !tracker.CanAssign(c.Pin.Name, v.Port, v.Config, v.Channel, instance) {
					continue
				}
				shared := instance != "" && ctx.IsShared(instance)
				tracker.Assign(c.Pin.Name, v.Port, v.Config, v.Channel, instance)
				assigned = append(assigned, Assignment{Port: v.Port, Config: v.Config, Channel: v.Channel, Pin: c.Pin, Signal: c.Signal})
				assignedMark[idx] = true
				remaining[key]--
				removed := propagate(idx, c.Pin.Name, instance, shared)

				dead := portDead(v.Port)
				ok := true
				if !dead && remaining[key] == 0 {
					ok = evalRequires(ctx, v.Port, v.Config, assigned)
				}

				var stop bool
				if !dead && ok {
					stop = search()
				}

				undo(removed)
				remaining[key]++
				assignedMark[idx] = false
				assigned = assigned[:len(assigned)-1]
				tracker.Unassign(c.Pin.Name, v.Port, v.Config, v.Channel, instance)
				if stop {
					return true
				}
			}
			if len(assigned) > len(deepest) {
				deepest = cloneAssignments(assigned)
			}
			return false
		}

		search()
		if len(solutions) >= cfg.MaxSolutions {
			break
		}
	}

	res := Result{Solutions: solutions, Stats: stats, Deepest: deepest}
	res.Stats.TotalCombinations = len(ctx.Combinations)
	return res
}
