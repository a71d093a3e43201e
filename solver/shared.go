package solver

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pinsolve/pinsolve/csp"
	"github.com/pinsolve/pinsolve/mcu"
	"github.com/pinsolve/pinsolve/pattern"
)

// activeVariables returns the subset of source whose (port,config) pair is
// selected by combo, preserving source's relative order. Ports absent from
// combo (no config at all) never contributed variables in the first place
// (csp.PrepareContext only builds variables per declared config), so they
// need no special case here. source is normally ctx.Variables, but S4 passes
// a per-restart reordered copy.
func activeVariables(source []*csp.Variable, combo csp.Combination) []*csp.Variable {
	var out []*csp.Variable
	for _, v := range source {
		if combo[v.Port] == v.Config {
			out = append(out, v)
		}
	}
	return out
}

// lastIndexOfConfig computes, for one combination's active-variable slice
// (already in MRV order), the local index of the last variable belonging to
// each (port,config) — the eager evaluation point of spec.md §4.5 step 8.
// It is recomputed per combination because ctx.LastVarOfConfig indexes the
// full, cross-combination variable list, not this filtered subset.
func lastIndexOfConfig(vars []*csp.Variable) map[csp.ConfigKey]int {
	last := make(map[csp.ConfigKey]int, len(vars))
	for i, v := range vars {
		last[csp.ConfigKey{Port: v.Port, Config: v.Config}] = i
	}
	return last
}

// bindingsOf adapts a flat, in-progress assignment list to the csp.Bindings
// shape the require evaluator expects.
func bindingsOf(assigned []Assignment) csp.Bindings {
	return func(port, channel string) []pattern.Candidate {
		var out []pattern.Candidate
		for _, a := range assigned {
			if a.Port == port && a.Channel == channel {
				out = append(out, pattern.Candidate{Pin: a.Pin, Signal: a.Signal})
			}
		}
		return out
	}
}

// evalRequires runs every require statement of one (port,config) against
// the current assignment list (spec.md §4.7 eager mode).
func evalRequires(ctx *csp.Context, port, config string, assigned []Assignment) bool {
	reqs := ctx.ConfigRequires[csp.ConfigKey{Port: port, Config: config}]
	if len(reqs) == 0 {
		return true
	}
	b := bindingsOf(assigned)
	for _, r := range reqs {
		if !csp.Eval(r.Expr, port, b).Truth() {
			return false
		}
	}
	return true
}

func cloneCombo(c csp.Combination) csp.Combination {
	out := make(csp.Combination, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

func cloneAssignments(a []Assignment) []Assignment {
	out := make([]Assignment, len(a))
	copy(out, a)
	return out
}

// Fingerprint is the canonical dedup key of spec.md §4.8/§4.10: all
// non-pinned assignments of a solution, sorted, concatenated. Exported so
// package merge can dedup across several strategies' solutions with the
// exact same key a single strategy's own post-pass uses.
func Fingerprint(sol Solution) string { return fingerprint(sol) }

// fingerprint is the canonical dedup key of spec.md §4.8: all
// non-pinned assignments of a solution, sorted, concatenated.
func fingerprint(sol Solution) string {
	parts := make([]string, len(sol.Assignments))
	for i, a := range sol.Assignments {
		parts[i] = fmt.Sprintf("%s.%s=%s/%s@%s", a.Port, a.Channel, a.Pin.Name, a.Signal.Raw, sol.Combo[a.Port])
	}
	sort.Strings(parts)
	return strings.Join(parts, "|")
}

// applyPostPass computes costs, sorts ascending, dedups by fingerprint and
// renumbers ids — the tail shared by every strategy (spec.md §4.8 last
// paragraph).
func applyPostPass(res *Result, m *mcu.Mcu, cfg Config) {
	for i := range res.Solutions {
		computeCost(&res.Solutions[i], m, cfg)
	}

	sort.SliceStable(res.Solutions, func(i, j int) bool {
		return res.Solutions[i].Cost < res.Solutions[j].Cost
	})

	seen := make(map[string]bool, len(res.Solutions))
	deduped := res.Solutions[:0]
	for _, sol := range res.Solutions {
		fp := fingerprint(sol)
		if seen[fp] {
			continue
		}
		seen[fp] = true
		deduped = append(deduped, sol)
	}
	res.Solutions = deduped

	for i := range res.Solutions {
		res.Solutions[i].ID = i
	}
}

// computeCost sums weight(id) * compute(solution, mcu) over every
// caller-enabled (non-zero-weight) cost function (spec.md §4.9).
func computeCost(sol *Solution, m *mcu.Mcu, cfg Config) {
	if len(cfg.CostFuncs) == 0 {
		return
	}
	sol.CostBreakdown = make(map[string]float64, len(cfg.CostFuncs))
	var total float64
	for id, fn := range cfg.CostFuncs {
		w := cfg.CostWeights[id]
		if w == 0 {
			continue
		}
		v := fn(sol, m)
		sol.CostBreakdown[id] = v
		total += w * v
	}
	sol.Cost = total
}
