package solver

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/pinsolve/pinsolve/csp"
	"github.com/pinsolve/pinsolve/mcu"
	"github.com/pinsolve/pinsolve/pattern"
)

// instanceTracker is tracker.go's instance-exclusivity bookkeeping, reduced
// to the instance dimension only: phase 1 of S6/S7 never touches a real
// pin, so csp.Tracker's pin-ownership checks would be meaningless (and, for
// the placeholder pin every synthetic assignment would share, actively
// wrong). Assign/Unassign are paired exactly like csp.Tracker's.
type instanceTracker struct {
	isShared func(string) bool
	owner    map[string]string
	refcount map[string]int
}

func newInstanceTracker(isShared func(string) bool) *instanceTracker {
	return &instanceTracker{isShared: isShared, owner: map[string]string{}, refcount: map[string]int{}}
}

func (t *instanceTracker) canAssign(port, instance string) bool {
	if instance == "" {
		return true
	}
	if owner, ok := t.owner[instance]; ok && owner != port && !t.isShared(instance) {
		return false
	}
	return true
}

func (t *instanceTracker) assign(port, instance string) {
	if instance == "" {
		return
	}
	t.owner[instance] = port
	key := port + "\x00" + instance
	t.refcount[key]++
}

func (t *instanceTracker) unassign(port, instance string) {
	if instance == "" {
		return
	}
	key := port + "\x00" + instance
	t.refcount[key]--
	if t.refcount[key] <= 0 {
		delete(t.refcount, key)
		if t.owner[instance] == port {
			delete(t.owner, instance)
		}
	}
}

// variableInstances returns the distinct peripheral instances v's
// candidates cover, in first-occurrence order (spec.md §4.8 S6 Phase 1:
// "each variable is reduced to the set of peripheral instances its
// candidates cover").
func variableInstances(v *csp.Variable) []string {
	var out []string
	seen := map[string]bool{}
	for _, c := range v.Candidates {
		if !seen[c.Signal.Instance] {
			seen[c.Signal.Instance] = true
			out = append(out, c.Signal.Instance)
		}
	}
	return out
}

// syntheticCandidate builds the instance-only Candidate phase 1's require
// evaluation binds a channel to: a placeholder, unnamed pin (so gpio_pin /
// gpio_port resolve to "" rather than a real pin that hasn't been chosen
// yet) carrying the representative type of the chosen instance.
func syntheticCandidate(v *csp.Variable, instance string) pattern.Candidate {
	sig := mcu.Signal{Instance: instance}
	for _, c := range v.Candidates {
		if c.Signal.Instance == instance {
			sig.Type = c.Signal.Type
			break
		}
	}
	return pattern.Candidate{Pin: &mcu.Pin{}, Signal: sig}
}

// restrictToInstance builds the phase-2 variable that replays v's channel
// restricted to the candidates matching the instance phase 1 committed to
// (spec.md §4.8 S6 Phase 2: "rebuild the full variable list restricted to
// candidates whose instance matches the group").
func restrictToInstance(v *csp.Variable, instance string) *csp.Variable {
	var kept []pattern.Candidate
	for _, c := range v.Candidates {
		if c.Signal.Instance == instance {
			kept = append(kept, c)
		}
	}
	return &csp.Variable{
		Port:        v.Port,
		Config:      v.Config,
		Channel:     v.Channel,
		ExprIndex:   v.ExprIndex,
		Candidates:  kept,
		Domain:      domainIndices(len(kept)),
		PatternText: v.PatternText,
	}
}

func domainIndices(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

// group is one Phase-1-committed instance assignment for one combination:
// vars and insts are parallel, aligned slices.
type group struct {
	combo csp.Combination
	vars  []*csp.Variable
	insts []string
}

// groupFingerprint is spec.md §4.8 S6's dedup key: sorted `key=instance`
// pairs joined by `|`. key identifies the variable (port, channel,
// expr_index), since two variables of the same port can commit to
// different instances independently.
func groupFingerprint(vars []*csp.Variable, insts []string) string {
	parts := make([]string, len(vars))
	for i, v := range vars {
		parts[i] = fmt.Sprintf("%s.%s.%d=%s", v.Port, v.Channel, v.ExprIndex, insts[i])
	}
	sort.Strings(parts)
	return strings.Join(parts, "|")
}

// phase1Bindings exposes the first upto instance-only bindings of Phase 1 to
// the require evaluator as csp.Bindings (each Pin is the syntheticCandidate
// placeholder, never a real one).
func phase1Bindings(vars []*csp.Variable, insts []string, upto int) csp.Bindings {
	return func(port, channel string) []pattern.Candidate {
		var out []pattern.Candidate
		for i := 0; i < upto; i++ {
			if vars[i].Port == port && vars[i].Channel == channel {
				out = append(out, syntheticCandidate(vars[i], insts[i]))
			}
		}
		return out
	}
}

func evalRequiresPhase1(ctx *csp.Context, port, config string, vars []*csp.Variable, insts []string, upto int) bool {
	reqs := ctx.ConfigRequires[csp.ConfigKey{Port: port, Config: config}]
	if len(reqs) == 0 {
		return true
	}
	b := phase1Bindings(vars, insts, upto)
	for _, r := range reqs {
		if !csp.Eval(r.Expr, port, b).Truth() {
			return false
		}
	}
	return true
}

// runTwoPhase implements S6 (rounds == 1) and S7 (rounds == 10) of spec.md
// §4.8: Phase 1 backtracks over peripheral instances per combination,
// collecting distinct instance groups up to cfg.MaxGroups (capped per
// combination at ceil(max_groups / |combos|)); Phase 2 reruns S1 per group
// with candidates restricted to that group's committed instances.
func runTwoPhase(ctx *csp.Context, cfg Config, deadline time.Time, rounds int) Result {
	maxGroups := cfg.MaxGroups
	if maxGroups <= 0 {
		maxGroups = 1 << 20
	}
	perGroupLimit := cfg.MaxSolutionsPerGroup
	if perGroupLimit <= 0 {
		perGroupLimit = cfg.MaxSolutions
	}

	combos := ctx.Combinations
	perCombo := 1
	if len(combos) > 0 {
		perCombo = int(math.Ceil(float64(maxGroups) / float64(len(combos))))
	}

	seenFP := map[string]bool{}
	var groups []group

	stats := csp.Stats{ConfigCombinations: len(combos)}

phase1:
	for comboIndex, combo := range combos {
		stats.TotalCombinations++
		if len(groups) >= maxGroups {
			break
		}
		vars := activeVariables(ctx.Variables, combo)
		last := lastIndexOfConfig(vars)
		comboGroupCount := 0

		for round := 0; round < rounds; round++ {
			if time.Now().After(deadline) || len(groups) >= maxGroups {
				break phase1
			}
			if comboGroupCount >= perCombo {
				break
			}

			choices := make([][]string, len(vars))
			for i, v := range vars {
				insts := variableInstances(v)
				if round > 0 && len(insts) > 1 {
					rng := newMulberry32(uint32(round*54321 + comboIndex*11))
					idx := make([]int, len(insts))
					for k := range idx {
						idx[k] = k
					}
					fisherYates(idx, rng)
					shuffled := make([]string, len(insts))
					for k, ci := range idx {
						shuffled[k] = insts[ci]
					}
					insts = shuffled
				}
				choices[i] = insts
			}

			itrack := newInstanceTracker(ctx.IsShared)
			assignedInst := make([]string, len(vars))

			var search func(idx int) bool
			search = func(idx int) bool {
				if time.Now().After(deadline) {
					return true
				}
				if idx == len(vars) {
					fp := groupFingerprint(vars, assignedInst)
					if !seenFP[fp] {
						seenFP[fp] = true
						groups = append(groups, group{
							combo: cloneCombo(combo),
							vars:  vars,
							insts: append([]string(nil), assignedInst...),
						})
						comboGroupCount++
					}
					return comboGroupCount >= perCombo || len(groups) >= maxGroups
				}

				v := vars[idx]
				key := csp.ConfigKey{Port: v.Port, Config: v.Config}
				for _, inst := range choices[idx] {
					if time.Now().After(deadline) {
						return true
					}
					if !itrack.canAssign(v.Port, inst) {
						continue
					}
					itrack.assign(v.Port, inst)
					assignedInst[idx] = inst

					ok := true
					if li, has := last[key]; has && li == idx {
						ok = evalRequiresPhase1(ctx, v.Port, v.Config, vars, assignedInst, idx+1)
					}
					var stop bool
					if ok {
						stop = search(idx + 1)
					}

					itrack.unassign(v.Port, inst)
					if stop {
						return true
					}
				}
				return false
			}
			search(0)
		}
	}

	var solutions []Solution
	var deepest []Assignment
	for _, g := range groups {
		if time.Now().After(deadline) {
			break
		}
		restricted := make([]*csp.Variable, len(g.vars))
		for i, v := range g.vars {
			restricted[i] = restrictToInstance(v, g.insts[i])
		}
		sub := runBacktrackingOver(ctx, restricted, []csp.Combination{g.combo}, Config{MaxSolutions: perGroupLimit}, deadline, nil)
		solutions = append(solutions, sub.Solutions...)
		stats.EvaluatedCombinations += sub.Stats.EvaluatedCombinations
		stats.ValidSolutions += sub.Stats.ValidSolutions
		if len(sub.Deepest) > len(deepest) {
			deepest = sub.Deepest
		}
		if len(solutions) >= cfg.MaxSolutions {
			break
		}
	}

	return Result{Solutions: solutions, Stats: stats, Deepest: deepest}
}
