// Package solver implements the seven search strategies of spec.md §4.8,
// all operating over the shared *csp.Context built by csp.PrepareContext.
// Each strategy is single-threaded and cooperative: the only suspension
// points are wall-clock deadline checks at the top of every recursive call
// and at every candidate iteration (spec.md §5), grounded on nenuphar's own
// recursive-descent style of bounded, panic-free recursion rather than any
// goroutine/channel scheduling.
package solver

import (
	"strings"
	"time"

	"github.com/pinsolve/pinsolve/csp"
	"github.com/pinsolve/pinsolve/diag"
	"github.com/pinsolve/pinsolve/mcu"
	"github.com/pinsolve/pinsolve/token"
)

// noPos is used for diagnostics that name no specific source location
// (timeouts, max-solutions, "no solution found").
var noPos token.Position

// Strategy is a tagged enum of the seven search strategies (spec.md §9:
// "realize registry-based plugin tables as explicit tagged enums with a
// compile-time list plus a small dispatch table").
type Strategy int8

const (
	S1Backtracking Strategy = iota
	S2ForwardChecking
	S3DynamicMRV
	S4RandomizedRestarts
	S5CostGuided
	S6TwoPhase
	S7DiverseInstances
)

func (s Strategy) String() string {
	switch s {
	case S1Backtracking:
		return "S1-backtracking"
	case S2ForwardChecking:
		return "S2-forward-checking"
	case S3DynamicMRV:
		return "S3-dynamic-mrv"
	case S4RandomizedRestarts:
		return "S4-randomized-restarts"
	case S5CostGuided:
		return "S5-cost-guided"
	case S6TwoPhase:
		return "S6-two-phase"
	case S7DiverseInstances:
		return "S7-diverse-instances"
	default:
		return "unknown"
	}
}

// AllStrategies lists every strategy in S1..S7 order, for a CLI's
// `-all-strategies` flag (spec.md §5 cross-solve parallelism).
var AllStrategies = []Strategy{
	S1Backtracking, S2ForwardChecking, S3DynamicMRV, S4RandomizedRestarts,
	S5CostGuided, S6TwoPhase, S7DiverseInstances,
}

// ParseStrategy maps a short id (s1..s7, case-insensitive) to a Strategy,
// for command-line/config parsing. The dispatch table mirrors String's.
func ParseStrategy(s string) (Strategy, bool) {
	switch strings.ToLower(s) {
	case "s1":
		return S1Backtracking, true
	case "s2":
		return S2ForwardChecking, true
	case "s3":
		return S3DynamicMRV, true
	case "s4":
		return S4RandomizedRestarts, true
	case "s5":
		return S5CostGuided, true
	case "s6":
		return S6TwoPhase, true
	case "s7":
		return S7DiverseInstances, true
	default:
		return 0, false
	}
}

// Assignment is one bound (port, channel) -> (pin, signal) pair, flat and
// config-tagged, the unit spec.md §6.3 serializes.
type Assignment struct {
	Port    string
	Config  string
	Channel string
	Pin     *mcu.Pin
	Signal  mcu.Signal
}

// Solution is one full variable assignment for one joint config
// combination: every port-with-configs selects exactly one config (Combo),
// and Assignments binds every variable that combination activates.
type Solution struct {
	ID            int
	Combo         csp.Combination
	Assignments   []Assignment
	Pinned        []csp.PinnedAssignment
	Cost          float64
	CostBreakdown map[string]float64

	// SolverID tags which strategy produced this solution; set by package
	// merge when combining more than one strategy's results (spec.md
	// §4.10). Empty for a single-strategy result that was never merged.
	SolverID string
}

// CostFunc computes one named component of a solution's cost (wired by
// package cost; solver only needs the function shape to stay decoupled from
// the cost registry).
type CostFunc func(sol *Solution, m *mcu.Mcu) float64

// Config is the per-solve tuning knobs of spec.md §6.2.
type Config struct {
	MaxSolutions int
	// Deadline is the wall-clock search budget. Zero means "unset, use the
	// 5s default" (spec.md §4.8's "5s default wall-clock budget"); a
	// negative value is the spec.md §8 boundary case ("deadline set to 0")
	// forced to an immediately-expired deadline, since Go's zero value
	// cannot otherwise distinguish "not configured" from "configured to
	// zero".
	Deadline time.Duration

	CostWeights map[string]float64
	CostFuncs   map[string]CostFunc

	// S4
	NumRestarts int
	// S6/S7
	MaxGroups            int
	MaxSolutionsPerGroup int
}

func (c Config) deadlineOr(def time.Duration) time.Duration {
	if c.Deadline == 0 {
		return def
	}
	return c.Deadline
}

// Result is one strategy's solve output (spec.md §6.2).
type Result struct {
	Solutions []Solution
	Stats     csp.Stats

	// Deepest is the deepest partial assignment reached across every
	// explored combination, for "no solution found" post-mortems (spec.md
	// §7 Search).
	Deepest []Assignment
}

// Run dispatches to the chosen strategy and then applies the shared
// post-pass: cost computation, ascending sort, id renumbering, and dedup by
// fingerprint (spec.md §4.8 last paragraph).
func Run(ctx *csp.Context, strategy Strategy, cfg Config, errs *diag.List) Result {
	if cfg.MaxSolutions <= 0 {
		cfg.MaxSolutions = 1 << 30
	}
	deadline := time.Now().Add(cfg.deadlineOr(5 * time.Second))
	if cfg.Deadline < 0 {
		deadline = time.Now()
	}

	var res Result
	switch strategy {
	case S2ForwardChecking:
		res = runForwardChecking(ctx, cfg, deadline, false)
	case S3DynamicMRV:
		res = runForwardChecking(ctx, cfg, deadline, true)
	case S4RandomizedRestarts:
		res = runRandomizedRestarts(ctx, cfg, deadline)
	case S5CostGuided:
		res = runCostGuided(ctx, cfg, deadline)
	case S6TwoPhase:
		res = runTwoPhase(ctx, cfg, deadline, 1)
	case S7DiverseInstances:
		res = runTwoPhase(ctx, cfg, deadline, 10)
	default:
		res = runBacktracking(ctx, cfg, deadline, nil)
	}

	if time.Now().After(deadline) {
		errs.Warn(noPos, "solve timed out before exhausting the search space")
	}
	if len(res.Solutions) >= cfg.MaxSolutions {
		errs.Warn(noPos, "max_solutions reached; search stopped early")
	}
	if len(res.Solutions) == 0 && len(ctx.Variables) > 0 {
		errs.Append(diag.Diagnostic{
			Severity:        diag.Warning,
			Pos:             noPos,
			Message:         "no solution found",
			Source:          "solver",
			PartialSolution: res.Deepest,
		})
	}
	if len(ctx.Variables) == 0 && len(ctx.Ports) == 0 {
		errs.Warn(noPos, "no variables")
	}

	applyPostPass(&res, ctx.Mcu, cfg)
	return res
}
