// Package pattern implements the signal-pattern matcher (spec.md §4.4): it
// resolves an ast.SignalPattern against a mcu.Mcu into the concrete
// (pin, signal) pairs the pattern denotes, applying literal/any/wildcard/
// range matching independently on the instance and function sides, with
// alias expansion for wildcard and range prefixes.
package pattern

import (
	"strconv"
	"strings"

	"github.com/pinsolve/pinsolve/ast"
	"github.com/pinsolve/pinsolve/mcu"
)

// Candidate is one (pin, signal) pair a pattern resolved to.
type Candidate struct {
	Pin    *mcu.Pin
	Signal mcu.Signal
}

// Matcher resolves signal patterns against one Mcu. It owns the reverse
// alias table, built once (spec.md §4.4: "built once at startup").
type Matcher struct {
	m       *mcu.Mcu
	aliases map[string][]string // normalized type -> original raw prefixes
}

// New builds a Matcher for m, with the reverse alias table from
// mcu.Aliases().
func New(m *mcu.Mcu) *Matcher {
	return &Matcher{m: m, aliases: mcu.Aliases()}
}

// Match enumerates every (pin, signal) pair satisfying pat, restricted to
// allowedPins when non-empty (the `channel @ pin, pin, ...` restriction).
// allowedPins may name either the raw pin or its canonical GPIO signal
// name (spec.md §4.4).
func (mt *Matcher) Match(pat *ast.SignalPattern, allowedPins map[string]bool) []Candidate {
	var out []Candidate
	for i := range mt.m.Pins {
		p := &mt.m.Pins[i]
		if !p.IsAssignable() {
			continue
		}
		if len(allowedPins) > 0 && !pinAllowed(p, allowedPins) {
			continue
		}
		for _, sig := range p.Signals {
			if mt.matchSide(pat.Instance, sig.Instance, sig.Type) && mt.matchSide(pat.Function, sig.Function, "") {
				out = append(out, Candidate{Pin: p, Signal: sig})
			}
		}
	}
	return out
}

func pinAllowed(p *mcu.Pin, allowed map[string]bool) bool {
	if allowed[p.Name] {
		return true
	}
	for _, sig := range p.Signals {
		if sig.Type == "GPIO" && allowed[sig.Raw] {
			return true
		}
	}
	return false
}

// MatchSide exposes matchSide for callers outside this package that need to
// test a single pattern side against a raw value without a full Mcu scan
// (csp.Context.IsShared, matching an instance name against a `shared:`
// pattern).
func (mt *Matcher) MatchSide(side ast.PatternSide, value, typ string) bool {
	return mt.matchSide(side, value, typ)
}

// matchSide applies one side's match rule against a signal's full value
// (value) and, for the instance side, its normalized type (typ); typ is
// empty when matching the function side, which carries no type.
func (mt *Matcher) matchSide(side ast.PatternSide, value, typ string) bool {
	switch side.Kind {
	case ast.SideAny:
		return true
	case ast.SideLiteral:
		return value == side.Prefix
	case ast.SideWildcard:
		return mt.matchWildcard(side.Prefix, value, typ)
	case ast.SideRange:
		return mt.matchRange(side.Prefix, side.Values, value, typ)
	default:
		return false
	}
}

// matchWildcard implements spec.md §4.4's three-way OR: the full value
// starts with prefix, or the normalized type starts with prefix, or an
// alias of the type starts with prefix.
func (mt *Matcher) matchWildcard(prefix, value, typ string) bool {
	if strings.HasPrefix(value, prefix) {
		return true
	}
	if typ != "" && strings.HasPrefix(typ, prefix) {
		return true
	}
	for _, orig := range mt.aliases[typ] {
		if strings.HasPrefix(orig, prefix) {
			return true
		}
	}
	return false
}

// matchRange implements spec.md §4.4's exactness rule: value must equal
// prefix+N for some N in values, with no trailing characters, checked
// against the value itself, the normalized type, and its aliases.
func (mt *Matcher) matchRange(prefix string, values []ast.RangeValue, value, typ string) bool {
	if rangeExact(prefix, values, value) {
		return true
	}
	if typ != "" && rangeExact(prefix, values, typ) {
		return true
	}
	for _, orig := range mt.aliases[typ] {
		if rangeExact(prefix, values, orig) {
			return true
		}
	}
	return false
}

func rangeExact(prefix string, values []ast.RangeValue, value string) bool {
	if !strings.HasPrefix(value, prefix) {
		return false
	}
	rest := value[len(prefix):]
	n, err := strconv.Atoi(rest)
	if err != nil {
		return false
	}
	for _, v := range values {
		if n >= v.Lo && n <= v.Hi {
			return true
		}
	}
	return false
}
