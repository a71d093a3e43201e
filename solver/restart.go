package solver

import (
	"math"
	"time"

	"github.com/pinsolve/pinsolve/csp"
)

// shuffledVariables copies ctx.Variables and, within each run of equal
// InitialDomainSize, shuffles the tie order using rng — "re-sorts by MRV
// size, shuffled order breaks ties" (spec.md §4.8 S4).
func shuffledVariables(ctx *csp.Context, rng *mulberry32) []*csp.Variable {
	out := make([]*csp.Variable, len(ctx.Variables))
	copy(out, ctx.Variables)

	i := 0
	for i < len(out) {
		j := i + 1
		for j < len(out) && out[j].InitialDomainSize() == out[i].InitialDomainSize() {
			j++
		}
		if j-i > 1 {
			idx := make([]int, j-i)
			for k := range idx {
				idx[k] = k
			}
			fisherYates(idx, rng)
			group := make([]*csp.Variable, j-i)
			for k, ci := range idx {
				group[k] = out[i+ci]
			}
			copy(out[i:j], group)
		}
		i = j
	}
	return out
}

// runRandomizedRestarts implements S4: S1, run R times, each restart with
// its own Mulberry32-seeded domain shuffle and a share of max_solutions
// (spec.md §4.8 S4).
func runRandomizedRestarts(ctx *csp.Context, cfg Config, deadline time.Time) Result {
	r := cfg.NumRestarts
	if r <= 0 {
		r = 1
	}
	maxSolutions := cfg.MaxSolutions
	perRestart := int(math.Ceil(float64(maxSolutions) / float64(r)))

	var all []Solution
	var deepest []Assignment
	stats := csp.Stats{ConfigCombinations: len(ctx.Combinations)}

	for restart := 0; restart < r; restart++ {
		if time.Now().After(deadline) {
			break
		}
		rng := newMulberry32(uint32(restart*12345 + 67890))
		reordered := shuffledVariables(ctx, rng)

		domainOrder := make(map[*csp.Variable][]int, len(reordered))
		for _, v := range reordered {
			d := make([]int, len(v.Domain))
			copy(d, v.Domain)
			fisherYates(d, rng)
			domainOrder[v] = d
		}
		order := func(v *csp.Variable, assigned []Assignment) []int { return domainOrder[v] }

		sub := runBacktrackingOver(ctx, reordered, ctx.Combinations, Config{MaxSolutions: perRestart}, deadline, order)
		all = append(all, sub.Solutions...)
		stats.TotalCombinations += sub.Stats.TotalCombinations
		stats.EvaluatedCombinations += sub.Stats.EvaluatedCombinations
		stats.ValidSolutions += sub.Stats.ValidSolutions
		if len(sub.Deepest) > len(deepest) {
			deepest = sub.Deepest
		}
		if len(all) >= maxSolutions {
			break
		}
	}

	return Result{Solutions: all, Stats: stats, Deepest: deepest}
}
