// Package solve implements the synchronous solver entry point of spec.md
// §6.2/§9: "Expose a synchronous solve(ast, mcu, config, strategy) -> result
// and let the host schedule parallel runs on threads/processes, combining
// them with the merger." This is the one function a worker-orchestration
// host (out of scope per spec.md §1) is expected to call once per strategy,
// from its own goroutine/process, never reaching into another worker's
// state.
package solve

import (
	"time"

	"github.com/pinsolve/pinsolve/ast"
	"github.com/pinsolve/pinsolve/cost"
	"github.com/pinsolve/pinsolve/csp"
	"github.com/pinsolve/pinsolve/diag"
	"github.com/pinsolve/pinsolve/mcu"
	"github.com/pinsolve/pinsolve/merge"
	"github.com/pinsolve/pinsolve/solver"
)

// Config is the solver invocation contract of spec.md §6.2: the
// strategy-agnostic knobs (max_solutions, timeout_ms, cost_weights) plus
// the strategy-specific extras for S4 (num_restarts) and S6/S7
// (max_groups, max_solutions_per_group).
type Config struct {
	MaxSolutions int
	Timeout      time.Duration
	CostWeights  map[string]float64

	NumRestarts          int
	MaxGroups            int
	MaxSolutionsPerGroup int
}

func (c Config) toSolverConfig() solver.Config {
	return solver.Config{
		MaxSolutions:         c.MaxSolutions,
		Deadline:             c.Timeout,
		CostWeights:          c.CostWeights,
		CostFuncs:            cost.Registry(),
		NumRestarts:          c.NumRestarts,
		MaxGroups:            c.MaxGroups,
		MaxSolutionsPerGroup: c.MaxSolutionsPerGroup,
	}
}

// Statistics is spec.md §6.2's output statistics block.
type Statistics struct {
	TotalCombinations     int
	EvaluatedCombinations int
	ValidSolutions        int
	SolveTimeMS           float64
	ConfigCombinations    int
}

// Result is spec.md §6.2's solver invocation output:
// {mcu_ref, solutions, errors, statistics}.
type Result struct {
	MCURef     string
	Solutions  []solver.Solution
	Errors     []diag.Diagnostic
	Statistics Statistics
}

// Run is the synchronous solve(ast, mcu, config, strategy) -> result entry
// point. It is the only function package csp/solver/cost need a caller to
// invoke: PrepareContext, strategy dispatch and cost computation all
// happen inside, against a Context that is never mutated once built, so a
// host may call Run concurrently from several goroutines against the same
// *ast.Program and *mcu.Mcu (spec.md §5 cross-solve parallelism) as long as
// each call gets its own *diag.List.
func Run(prog *ast.Program, m *mcu.Mcu, cfg Config, strategy solver.Strategy) Result {
	errs := &diag.List{}
	start := time.Now()

	ctx := csp.PrepareContext(prog, m, errs)
	if errs.HasErrors() {
		// spec.md §7: "semantic errors of kind error suppress solving
		// (empty result with diagnostics)" — macro/require/empty-domain
		// errors from PrepareContext must never reach the search.
		return Result{
			MCURef: m.Name,
			Errors: errs.Items(),
			Statistics: Statistics{
				SolveTimeMS: float64(time.Since(start).Microseconds()) / 1000,
			},
		}
	}
	res := solver.Run(ctx, strategy, cfg.toSolverConfig(), errs)

	elapsed := time.Since(start)
	return Result{
		MCURef:    m.Name,
		Solutions: res.Solutions,
		Errors:    errs.Items(),
		Statistics: Statistics{
			TotalCombinations:     res.Stats.TotalCombinations,
			EvaluatedCombinations: res.Stats.EvaluatedCombinations,
			ValidSolutions:        res.Stats.ValidSolutions,
			SolveTimeMS:           float64(elapsed.Microseconds()) / 1000,
			ConfigCombinations:    res.Stats.ConfigCombinations,
		},
	}
}

// RunMany dispatches one Run per requested strategy concurrently (spec.md
// §5: "the host may run multiple strategies on the same inputs concurrently
// in separate workers") and combines them with package merge (spec.md
// §4.10). Each goroutine below is the "worker" spec.md §5 describes: it
// only reads prog/m/cfg and owns its own *diag.List and Context, so no
// worker reaches outside its own goroutine's state.
func RunMany(prog *ast.Program, m *mcu.Mcu, cfg Config, strategies []solver.Strategy, cap int) merge.Result {
	type outcome struct {
		id       string
		result   Result
		solveRes solver.Result
	}

	outcomes := make([]outcome, len(strategies))
	done := make(chan int, len(strategies))
	for i, strat := range strategies {
		go func(i int, strat solver.Strategy) {
			errs := &diag.List{}
			start := time.Now()
			ctx := csp.PrepareContext(prog, m, errs)
			var sres solver.Result
			if !errs.HasErrors() {
				sres = solver.Run(ctx, strat, cfg.toSolverConfig(), errs)
			}
			elapsed := time.Since(start)
			outcomes[i] = outcome{
				id: strat.String(),
				result: Result{
					MCURef: m.Name,
					Errors: errs.Items(),
					Statistics: Statistics{
						SolveTimeMS: float64(elapsed.Microseconds()) / 1000,
					},
				},
				solveRes: sres,
			}
			done <- i
		}(i, strat)
	}
	for range strategies {
		<-done
	}

	inputs := make([]merge.Input, len(outcomes))
	for i, o := range outcomes {
		inputs[i] = merge.Input{
			SolverID:    o.id,
			Result:      o.solveRes,
			Errors:      o.result.Errors,
			SolveTimeMS: o.result.Statistics.SolveTimeMS,
		}
	}
	return merge.Merge(inputs, cap)
}
