// Package merge implements the result merger of spec.md §4.10: combining
// one or more solver.Result values (one per strategy run, normally by
// separate concurrent workers per spec.md §5) into a single ranked,
// deduplicated, capped result.
package merge

import (
	"sort"

	"github.com/pinsolve/pinsolve/csp"
	"github.com/pinsolve/pinsolve/diag"
	"github.com/pinsolve/pinsolve/solver"
)

// Input is one labelled solver run: a strategy id, its Result, the
// diagnostics it produced, and how long it took (spec.md §6.2's
// solve_time_ms, taken per-worker and merged as a max since workers run
// concurrently, per §5).
type Input struct {
	SolverID    string
	Result      solver.Result
	Errors      []diag.Diagnostic
	SolveTimeMS float64
}

// Stats is the merged statistics block of spec.md §6.2/§4.10: summed
// total/evaluated/valid counters, the max of solve time and config
// combinations across inputs (the same search space explored by every
// strategy, and wall time bounded by the slowest concurrent worker), plus
// a per-solver breakdown.
type Stats struct {
	csp.Stats
	SolveTimeMS float64
	PerSolver   map[string]csp.Stats
}

// Result is the merger's output.
type Result struct {
	Solutions []solver.Solution
	Errors    []diag.Diagnostic
	Stats     Stats
}

// Merge combines inputs into one Result. cap <= 0 means unbounded.
//
// For a single input, each solution is tagged with its solver id and
// returned as-is (still capped and deduplicated, since a lone strategy can
// still produce near-duplicate solutions across combinations). For
// several, solutions are tagged, concatenated, ascending-sorted by cost,
// deduplicated by canonical assignment fingerprint (first copy wins),
// trimmed to cap, and renumbered (spec.md §4.10).
func Merge(inputs []Input, cap int) Result {
	var all []solver.Solution
	var errs []diag.Diagnostic
	agg := csp.Stats{}
	perSolver := make(map[string]csp.Stats, len(inputs))
	var maxTime float64
	var maxConfigCombos int

	for _, in := range inputs {
		for _, s := range in.Result.Solutions {
			s.SolverID = in.SolverID
			all = append(all, s)
		}
		errs = append(errs, in.Errors...)

		agg.TotalCombinations += in.Result.Stats.TotalCombinations
		agg.EvaluatedCombinations += in.Result.Stats.EvaluatedCombinations
		agg.ValidSolutions += in.Result.Stats.ValidSolutions
		if in.Result.Stats.ConfigCombinations > maxConfigCombos {
			maxConfigCombos = in.Result.Stats.ConfigCombinations
		}
		if in.SolveTimeMS > maxTime {
			maxTime = in.SolveTimeMS
		}
		perSolver[in.SolverID] = in.Result.Stats
	}
	agg.ConfigCombinations = maxConfigCombos

	sort.SliceStable(all, func(i, j int) bool { return all[i].Cost < all[j].Cost })

	seen := make(map[string]bool, len(all))
	deduped := all[:0]
	for _, s := range all {
		fp := solver.Fingerprint(s)
		if seen[fp] {
			continue
		}
		seen[fp] = true
		deduped = append(deduped, s)
	}
	all = deduped

	if cap > 0 && len(all) > cap {
		all = all[:cap]
	}
	for i := range all {
		all[i].ID = i
	}

	return Result{
		Solutions: all,
		Errors:    dedupErrors(errs),
		Stats:     Stats{Stats: agg, SolveTimeMS: maxTime, PerSolver: perSolver},
	}
}

// dedupErrors keeps the first occurrence of each unique error message
// (spec.md §4.10: "merge errors by unique message").
func dedupErrors(in []diag.Diagnostic) []diag.Diagnostic {
	seen := make(map[string]bool, len(in))
	out := make([]diag.Diagnostic, 0, len(in))
	for _, d := range in {
		if seen[d.Message] {
			continue
		}
		seen[d.Message] = true
		out = append(out, d)
	}
	return out
}
