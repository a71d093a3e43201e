package csp

import "github.com/pinsolve/pinsolve/pattern"

// Variable is one solver variable: a (port, config, channel, expr_index)
// quadruple, where expr_index distinguishes the `&`-joined parts of a
// multi-pin channel mapping (spec.md §3).
type Variable struct {
	Port      string
	Config    string
	Channel   string
	ExprIndex int

	// Candidates is the immutable list of (pin, signal) pairs this
	// variable may be bound to, built once during context preparation.
	Candidates []pattern.Candidate

	// Domain holds the indices into Candidates still available. It is set
	// to [0, len(Candidates)) during context preparation and not mutated
	// afterwards; forward checking propagates over its own per-search copy.
	Domain []int

	// PatternText is the original signal-expression text, kept only for
	// diagnostics (empty-domain errors, spec.md §4.5 step 6).
	PatternText string
}

// InitialDomainSize is the variable's domain size at context-preparation
// time, used for the MRV static sort (spec.md §4.5 step 7).
func (v *Variable) InitialDomainSize() int { return len(v.Candidates) }

// ConfigKey identifies the (port, config) a variable belongs to.
type ConfigKey struct {
	Port, Config string
}
