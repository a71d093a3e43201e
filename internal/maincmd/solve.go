package maincmd

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mna/mainer"
	"github.com/pinsolve/pinsolve/diag"
	"github.com/pinsolve/pinsolve/parser"
	"github.com/pinsolve/pinsolve/serialize"
	"github.com/pinsolve/pinsolve/solve"
	"github.com/pinsolve/pinsolve/solver"
)

// Solve implements the `solve` subcommand: parse a constraint program,
// solve it against an MCU fixture with one or every strategy (SPEC_FULL.md
// §4's `-strategy`/`-all-strategies` flag, exercising package merge end to
// end), and print the ranked solutions as canonical YAML documents (§6.3).
//
// Subcommand-specific flags are parsed with a private flag.FlagSet rather
// than mainer's struct-tag flags, since mainer.Parser's `flag:"..."` tags
// are only ever exercised with bool fields in this codebase (Help/
// Version/WithComments) and solve needs string/int/float knobs.
func (c *Cmd) Solve(_ context.Context, stdio mainer.Stdio, args []string) error {
	logger := slog.New(slog.NewTextHandler(stdio.Stderr, nil))

	defaults, err := loadEnvDefaults()
	if err != nil {
		return printError(stdio, fmt.Errorf("solve: loading defaults: %w", err))
	}

	fs := flag.NewFlagSet("solve", flag.ContinueOnError)
	fs.SetOutput(stdio.Stderr)
	mcuPath := fs.String("mcu", "", "path to an MCU fixture (YAML)")
	strategyFlag := fs.String("strategy", defaults.Strategy, "search strategy (s1..s7)")
	allStrategies := fs.Bool("all-strategies", false, "run every strategy and merge the results")
	maxSolutions := fs.Int("max-solutions", defaults.MaxSolutions, "maximum number of solutions to return")
	timeoutMS := fs.Int("timeout-ms", defaults.TimeoutMS, "search wall-clock budget in milliseconds")
	numRestarts := fs.Int("num-restarts", defaults.NumRestarts, "S4 randomized-restart count")
	maxGroups := fs.Int("max-groups", defaults.MaxGroups, "S6/S7 instance-group cap")
	maxSolutionsPerGroup := fs.Int("max-solutions-per-group", defaults.MaxSolutionsPerGroup, "S6/S7 per-group solution cap")
	costWeights := fs.String("cost-weights", "", "comma-separated id=weight pairs, e.g. debug_pin_penalty=1,pin_count=2")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *mcuPath == "" {
		return printError(stdio, fmt.Errorf("solve: -mcu is required"))
	}

	rest := fs.Args()
	if len(rest) != 1 {
		return printError(stdio, fmt.Errorf("solve: exactly one constraint-program file is required"))
	}

	weights, err := parseCostWeights(*costWeights, defaults.DebugPinWeight)
	if err != nil {
		return printError(stdio, fmt.Errorf("solve: %w", err))
	}

	src, err := os.ReadFile(rest[0])
	if err != nil {
		return printError(stdio, fmt.Errorf("solve: %w", err))
	}
	m, err := LoadMcu(*mcuPath)
	if err != nil {
		return printError(stdio, fmt.Errorf("solve: %w", err))
	}

	var perrs diag.List
	prog := parser.Parse(src, &perrs)
	if perrs.HasErrors() {
		for _, d := range perrs.Items() {
			logger.Error(d.Message, "pos", d.Pos.String())
		}
		return printError(stdio, perrs.Err())
	}

	cfg := solve.Config{
		MaxSolutions:         *maxSolutions,
		Timeout:              defaults.timeout(),
		CostWeights:          weights,
		NumRestarts:          *numRestarts,
		MaxGroups:            *maxGroups,
		MaxSolutionsPerGroup: *maxSolutionsPerGroup,
	}
	if *timeoutMS != defaults.TimeoutMS {
		cfg.Timeout = time.Duration(*timeoutMS) * time.Millisecond
	}

	var (
		solutions []solver.Solution
		errs      []diag.Diagnostic
	)
	if *allStrategies {
		merged := solve.RunMany(prog, m, cfg, solver.AllStrategies, *maxSolutions)
		solutions, errs = merged.Solutions, merged.Errors
		logger.Info("merged strategies", "count", len(solver.AllStrategies), "solutions", len(solutions))
	} else {
		strat, ok := solver.ParseStrategy(*strategyFlag)
		if !ok {
			return printError(stdio, fmt.Errorf("solve: unknown strategy %q", *strategyFlag))
		}
		res := solve.Run(prog, m, cfg, strat)
		solutions, errs = res.Solutions, res.Errors
		logger.Info("solved", "strategy", strat.String(), "solutions", len(solutions))
	}

	for _, d := range errs {
		logger.Warn(d.Message, "severity", d.Severity.String())
	}

	for i, sol := range solutions {
		doc := serialize.MarshalSolution(sol, m.Name)
		out, err := doc.Marshal()
		if err != nil {
			return printError(stdio, fmt.Errorf("solve: marshal solution %d: %w", i, err))
		}
		if i > 0 {
			fmt.Fprintln(stdio.Stdout, "---")
		}
		if _, err := stdio.Stdout.Write(out); err != nil {
			return printError(stdio, fmt.Errorf("solve: write solution %d: %w", i, err))
		}
	}
	return nil
}

// parseCostWeights parses "id=weight,id=weight" pairs, seeding
// debug_pin_penalty from the environment default when not named explicitly
// so `-all-strategies` runs without an explicit flag still get E6's
// debug-pin cost ordering.
func parseCostWeights(s string, debugPinDefault float64) (map[string]float64, error) {
	weights := make(map[string]float64)
	if debugPinDefault != 0 {
		weights["debug_pin_penalty"] = debugPinDefault
	}
	if s == "" {
		return weights, nil
	}
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid cost weight %q, expected id=weight", pair)
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid cost weight %q: %w", pair, err)
		}
		weights[strings.TrimSpace(k)] = f
	}
	return weights, nil
}
