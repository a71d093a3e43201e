package ast

import "github.com/pinsolve/pinsolve/token"

// PatternSideKind discriminates the four shapes a pattern side (instance or
// function) can take (spec.md §3, §4.4).
type PatternSideKind int

const (
	// SideLiteral matches only the exact value.
	SideLiteral PatternSideKind = iota
	// SideAny matches any value unconditionally (bare `*`).
	SideAny
	// SideWildcard matches any value with the given prefix, plus aliasing.
	SideWildcard
	// SideRange matches prefix+N for N in Values (no trailing characters).
	SideRange
)

// RangeValue is one element of a range pattern: a single number, or an
// inclusive lo-hi span (`[1-3,8]` yields {1,3} and {8,8}).
type RangeValue struct {
	Lo, Hi int
}

// PatternSide is one half (instance or function) of a SignalPattern.
type PatternSide struct {
	Kind   PatternSideKind
	Prefix string       // literal value, or wildcard/range prefix
	Values []RangeValue // only set when Kind == SideRange
}

// Literal reports whether side can only ever match a single concrete value,
// and returns it.
func (s PatternSide) Literal() (string, bool) {
	if s.Kind == SideLiteral {
		return s.Prefix, true
	}
	return "", false
}

// SignalPattern is a two-part pattern (instance side, function side) such as
// `USART*_TX` or `TIM[1-3]_CH[1,2]` (spec.md §3). IN/OUT shorthand is
// expanded to (GPIO*, *) by the parser before this node is constructed.
type SignalPattern struct {
	Instance PatternSide
	Function PatternSide
	At       token.Position
}

func (n *SignalPattern) Pos() token.Position { return n.At }
