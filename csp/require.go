package csp

import (
	"fmt"

	"github.com/pinsolve/pinsolve/ast"
	"github.com/pinsolve/pinsolve/mcu"
	"github.com/pinsolve/pinsolve/pattern"
	"github.com/pinsolve/pinsolve/token"
)

// Value is the require-expression evaluator's tagged variant: a boolean or
// a string handle (spec.md §9: "model as a small tagged variant Bool(b) |
// Str(s)").
type Value struct {
	isStr bool
	b     bool
	s     string
}

func BoolValue(b bool) Value  { return Value{b: b} }
func StrValue(s string) Value { return Value{isStr: true, s: s} }

// Truth coerces the value for `& | ^ !` (spec.md §4.7: "the other
// operators coerce to truth"). A non-empty string is true.
func (v Value) Truth() bool {
	if v.isStr {
		return v.s != ""
	}
	return v.b
}

func valuesEqual(a, b Value) bool {
	if a.isStr && b.isStr {
		return a.s == b.s
	}
	return a.Truth() == b.Truth()
}

// Bindings resolves the list of currently-bound (pin, signal) assignments
// for one channel of one port in the active combination. The require
// evaluator never mutates or stores these; it only reads them.
type Bindings func(port, channel string) []pattern.Candidate

// FunctionNames is the fixed set of recognized require-function names
// (spec.md §4.5 step 3).
var FunctionNames = map[string]bool{
	"same_instance": true,
	"diff_instance": true,
	"instance":      true,
	"type":          true,
	"gpio_pin":      true,
	"gpio_port":     true,
}

// Eval evaluates a require constraint_expr in the context of currentPort
// (the port a bare identifier's channel resolves against) and bindings
// (how to fetch a channel's current assignments).
func Eval(expr ast.Expr, currentPort string, bindings Bindings) Value {
	switch e := expr.(type) {
	case *ast.StringLit:
		return StrValue(e.Value)
	case *ast.IdentExpr:
		// Identifiers yield their own name as a string handle (spec.md §4.7).
		return StrValue(e.Name)
	case *ast.SelectorExpr:
		return StrValue(e.Port + "." + e.Channel)
	case *ast.UnaryExpr:
		return BoolValue(!Eval(e.X, currentPort, bindings).Truth())
	case *ast.BinaryExpr:
		return evalBinary(e, currentPort, bindings)
	case *ast.CallExpr:
		return evalCall(e, currentPort, bindings)
	default:
		return BoolValue(false)
	}
}

func evalBinary(e *ast.BinaryExpr, currentPort string, bindings Bindings) Value {
	switch e.Op {
	case token.PIPE:
		return BoolValue(Eval(e.X, currentPort, bindings).Truth() || Eval(e.Y, currentPort, bindings).Truth())
	case token.CIRCUMFLEX:
		return BoolValue(Eval(e.X, currentPort, bindings).Truth() != Eval(e.Y, currentPort, bindings).Truth())
	case token.AMP:
		return BoolValue(Eval(e.X, currentPort, bindings).Truth() && Eval(e.Y, currentPort, bindings).Truth())
	case token.EQEQ:
		return BoolValue(valuesEqual(Eval(e.X, currentPort, bindings), Eval(e.Y, currentPort, bindings)))
	case token.BANGEQ:
		return BoolValue(!valuesEqual(Eval(e.X, currentPort, bindings), Eval(e.Y, currentPort, bindings)))
	default:
		return BoolValue(false)
	}
}

type chanRef struct{ port, channel string }

// evalCall dispatches one of the six recognized require functions (spec.md
// §4.7). A trailing string-literal argument is a type filter; the
// remaining arguments must each name a channel (bare identifier,
// resolving against currentPort, or a `port.channel` selector).
func evalCall(call *ast.CallExpr, currentPort string, bindings Bindings) Value {
	args := call.Args
	typeFilter := ""
	if n := len(args); n > 0 {
		if lit, ok := args[n-1].(*ast.StringLit); ok {
			typeFilter = lit.Value
			args = args[:n-1]
		}
	}

	var refs []chanRef
	for _, a := range args {
		switch e := a.(type) {
		case *ast.IdentExpr:
			refs = append(refs, chanRef{port: currentPort, channel: e.Name})
		case *ast.SelectorExpr:
			refs = append(refs, chanRef{port: e.Port, channel: e.Channel})
		}
	}

	filtered := make([][]pattern.Candidate, len(refs))
	for i, ref := range refs {
		for _, c := range bindings(ref.port, ref.channel) {
			if typeFilter == "" || c.Signal.Type == typeFilter {
				filtered[i] = append(filtered[i], c)
			}
		}
	}

	switch call.Name {
	case "same_instance":
		// Vacuously true when no assignment survives filtering (spec.md §9
		// Open Question: preserves the source's behavior).
		return BoolValue(len(distinctInstances(filtered)) <= 1)
	case "diff_instance":
		return BoolValue(!hasDuplicateInstance(filtered))
	case "instance":
		if c, ok := firstCandidate(filtered); ok {
			return StrValue(c.Signal.Instance)
		}
		return StrValue("")
	case "type":
		if c, ok := firstCandidate(filtered); ok {
			return StrValue(c.Signal.Type)
		}
		return StrValue("")
	case "gpio_pin":
		if c, ok := firstCandidate(filtered); ok {
			return StrValue(c.Pin.Name)
		}
		return StrValue("")
	case "gpio_port":
		if c, ok := firstCandidate(filtered); ok {
			if letter, ok := mcu.GPIOPortLetter(c.Pin.Name); ok {
				n, ok := mcu.GPIOPortNumbering[letter]
				if ok {
					return StrValue(fmt.Sprintf("GPIO%d", n))
				}
			}
		}
		return StrValue("")
	default:
		return BoolValue(false)
	}
}

func firstCandidate(filtered [][]pattern.Candidate) (pattern.Candidate, bool) {
	if len(filtered) > 0 && len(filtered[0]) > 0 {
		return filtered[0][0], true
	}
	return pattern.Candidate{}, false
}

func distinctInstances(filtered [][]pattern.Candidate) map[string]bool {
	set := make(map[string]bool)
	for _, chanAssigns := range filtered {
		for _, c := range chanAssigns {
			set[c.Signal.Instance] = true
		}
	}
	return set
}

func hasDuplicateInstance(filtered [][]pattern.Candidate) bool {
	seen := make(map[string]bool)
	for _, chanAssigns := range filtered {
		for _, c := range chanAssigns {
			if seen[c.Signal.Instance] {
				return true
			}
			seen[c.Signal.Instance] = true
		}
	}
	return false
}
