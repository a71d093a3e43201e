package maincmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/mna/mainer"
	"github.com/pinsolve/pinsolve/ast"
	"github.com/pinsolve/pinsolve/diag"
	"github.com/pinsolve/pinsolve/macro"
	"github.com/pinsolve/pinsolve/parser"
)

// Parse implements the `parse` subcommand (SPEC_FULL.md §4: "a parse-only
// CLI subcommand that prints the macro-expanded AST"), mirroring nenuphar's
// own `parse` subcommand but over the constraint language instead of the
// scripting language.
func (c *Cmd) Parse(_ context.Context, stdio mainer.Stdio, args []string) error {
	logger := slog.New(slog.NewTextHandler(stdio.Stderr, nil))
	if len(args) != 1 {
		return printError(stdio, fmt.Errorf("parse: exactly one constraint-program file is required"))
	}

	src, err := os.ReadFile(args[0])
	if err != nil {
		return printError(stdio, fmt.Errorf("parse: %w", err))
	}

	var errs diag.List
	prog := parser.Parse(src, &errs)
	if !errs.HasErrors() {
		prog = macro.Expand(prog, &errs)
	}

	for _, d := range errs.Items() {
		logger.Warn(d.Message, "severity", d.Severity.String(), "pos", d.Pos.String())
	}
	if errs.HasErrors() {
		return printError(stdio, errs.Err())
	}
	return ast.Fprint(stdio.Stdout, prog)
}
