// Package csp implements the shared CSP context preparation, the pin/
// instance tracker, the require-expression evaluator and the Cartesian
// combination enumerator (spec.md §4.5-§4.7) that every solver strategy
// in package solver builds on.
package csp

import (
	"fmt"
	"sort"

	"github.com/pinsolve/pinsolve/ast"
	"github.com/pinsolve/pinsolve/diag"
	"github.com/pinsolve/pinsolve/macro"
	"github.com/pinsolve/pinsolve/mcu"
	"github.com/pinsolve/pinsolve/pattern"
)

// PinnedAssignment is a hard `pin PinName = raw_signal_name` declaration:
// it is never touched by the search and appears in every combination.
type PinnedAssignment struct {
	Pin    string
	Signal string
}

// ChannelInfo is one declared channel of a port, with its optional
// `@ pin, pin, ...` restriction.
type ChannelInfo struct {
	Name        string
	AllowedPins map[string]bool
}

// PortInfo is the port-level metadata extracted from the AST, independent
// of any one configuration.
type PortInfo struct {
	Name        string
	Color       string
	Channels    []ChannelInfo
	ConfigNames []string
}

// Combination is one selection of exactly one configuration per port that
// has at least one configuration (spec.md GLOSSARY).
type Combination map[string]string

// Stats carries the per-solve counters spec.md §4.5 step 10 and §6.2
// require.
type Stats struct {
	TotalCombinations     int
	EvaluatedCombinations int
	ValidSolutions        int
	ConfigCombinations    int
}

// Context is the immutable bundle built once per solve by PrepareContext
// (spec.md §9: "build once as an immutable bundle"). Every solver
// strategy borrows it; none may mutate it.
type Context struct {
	Mcu     *mcu.Mcu
	Matcher *pattern.Matcher

	Ports          []PortInfo
	Reserved       map[string]bool
	Pinned         []PinnedAssignment
	SharedPatterns []*ast.SignalPattern

	Variables       []*Variable
	LastVarOfConfig map[ConfigKey]int
	ConfigRequires  map[ConfigKey][]*ast.RequireStmt

	Combinations []Combination
	Stats        Stats
}

// IsShared reports whether instance matches one of the context's
// `shared:` patterns.
func (c *Context) IsShared(instance string) bool {
	typ := c.instanceType(instance)
	for _, pat := range c.SharedPatterns {
		if c.Matcher.MatchSide(pat.Instance, instance, typ) {
			return true
		}
	}
	return false
}

func (c *Context) instanceType(instance string) string {
	for i := range c.Mcu.Pins {
		for _, sig := range c.Mcu.Pins[i].Signals {
			if sig.Instance == instance {
				return sig.Type
			}
		}
	}
	return ""
}

// NewTracker builds a Tracker seeded from this context's reserved pins and
// shared-pattern predicate.
func (c *Context) NewTracker() *Tracker {
	reserved := make([]string, 0, len(c.Reserved))
	for pin := range c.Reserved {
		reserved = append(reserved, pin)
	}
	return NewTracker(reserved, c.IsShared)
}

// PrepareContext executes spec.md §4.5's ten steps once per solve.
// Diagnostics (macro, semantic and resolution errors) are appended to
// errs; PrepareContext always returns a usable Context.
func PrepareContext(prog *ast.Program, m *mcu.Mcu, errs *diag.List) *Context {
	expanded := macro.Expand(prog, errs)
	matcher := pattern.New(m)

	c := &Context{
		Mcu:             m,
		Matcher:         matcher,
		Reserved:        make(map[string]bool),
		LastVarOfConfig: make(map[ConfigKey]int),
		ConfigRequires:  make(map[ConfigKey][]*ast.RequireStmt),
	}

	var portDecls []*ast.PortDecl
	for _, s := range expanded.Stmts {
		switch s := s.(type) {
		case *ast.ReserveDecl:
			for _, pin := range s.Pins {
				c.Reserved[pin] = true
			}
		case *ast.PinDecl:
			c.Reserved[s.Pin] = true
			c.Pinned = append(c.Pinned, PinnedAssignment{Pin: s.Pin, Signal: s.Signal})
		case *ast.SharedDecl:
			c.SharedPatterns = append(c.SharedPatterns, s.Patterns...)
		case *ast.PortDecl:
			portDecls = append(portDecls, s)
		}
	}

	for _, pd := range portDecls {
		c.Ports = append(c.Ports, buildPortInfo(pd))
	}

	c.validateRequires(portDecls, errs)
	c.Combinations = generateCombinations(c.Ports)
	c.Stats.ConfigCombinations = len(c.Combinations)
	c.Stats.TotalCombinations = len(c.Combinations)

	c.buildVariables(portDecls, errs)
	sort.SliceStable(c.Variables, func(i, j int) bool {
		return c.Variables[i].InitialDomainSize() < c.Variables[j].InitialDomainSize()
	})
	for idx, v := range c.Variables {
		c.LastVarOfConfig[ConfigKey{Port: v.Port, Config: v.Config}] = idx
	}

	return c
}

func buildPortInfo(pd *ast.PortDecl) PortInfo {
	info := PortInfo{Name: pd.Name, Color: pd.Color}
	for _, ch := range pd.Channel {
		ci := ChannelInfo{Name: ch.Name}
		if len(ch.AllowedPins) > 0 {
			ci.AllowedPins = make(map[string]bool, len(ch.AllowedPins))
			for _, p := range ch.AllowedPins {
				ci.AllowedPins[p] = true
			}
		}
		info.Channels = append(info.Channels, ci)
	}
	for _, cfg := range pd.Config {
		info.ConfigNames = append(info.ConfigNames, cfg.Name)
	}
	return info
}

// generateCombinations is the Cartesian product over ports with at least
// one configuration; ports with none simply do not contribute a
// dimension, so zero such ports yields one empty combination (spec.md
// §4.5 step 4).
func generateCombinations(ports []PortInfo) []Combination {
	combos := []Combination{{}}
	for _, p := range ports {
		if len(p.ConfigNames) == 0 {
			continue
		}
		var next []Combination
		for _, c := range combos {
			for _, cfg := range p.ConfigNames {
				nc := make(Combination, len(c)+1)
				for k, v := range c {
					nc[k] = v
				}
				nc[p.Name] = cfg
				next = append(next, nc)
			}
		}
		combos = next
	}
	return combos
}

func (c *Context) validateRequires(portDecls []*ast.PortDecl, errs *diag.List) {
	ports := make(map[string]bool, len(portDecls))
	for _, pd := range portDecls {
		ports[pd.Name] = true
	}
	for _, pd := range portDecls {
		mapped := make(map[string]bool)
		for _, cfg := range pd.Config {
			for _, item := range cfg.Items {
				if m, ok := item.(*ast.Mapping); ok {
					mapped[m.Channel] = true
				}
			}
		}
		for _, cfg := range pd.Config {
			key := ConfigKey{Port: pd.Name, Config: cfg.Name}
			for _, item := range cfg.Items {
				req, ok := item.(*ast.RequireStmt)
				if !ok {
					continue
				}
				c.ConfigRequires[key] = append(c.ConfigRequires[key], req)
				validateRequireExpr(req.Expr, pd.Name, mapped, ports, errs)
			}
		}
	}
}

// validateRequireExpr recognizes require-function names, warns about
// identifiers that reference no mapped channel in the same port, and
// reports a `port.channel` cross-port reference whose port was never
// declared (spec.md §4.5 step 3, §7's "unknown port").
func validateRequireExpr(expr ast.Expr, port string, mapped map[string]bool, ports map[string]bool, errs *diag.List) {
	switch e := expr.(type) {
	case *ast.IdentExpr:
		if !mapped[e.Name] {
			errs.Warn(e.At, fmt.Sprintf("identifier %q does not name a mapped channel in port %q", e.Name, port))
		}
	case *ast.SelectorExpr:
		if !ports[e.Port] {
			errs.Addf(e.At, "unknown port %q", e.Port)
		}
	case *ast.UnaryExpr:
		validateRequireExpr(e.X, port, mapped, ports, errs)
	case *ast.BinaryExpr:
		validateRequireExpr(e.X, port, mapped, ports, errs)
		validateRequireExpr(e.Y, port, mapped, ports, errs)
	case *ast.CallExpr:
		if !FunctionNames[e.Name] {
			errs.Addf(e.At, "unknown require function %q", e.Name)
			return
		}
		args := e.Args
		if n := len(args); n > 0 {
			if _, ok := args[n-1].(*ast.StringLit); ok {
				args = args[:n-1]
			}
		}
		for _, a := range args {
			switch arg := a.(type) {
			case *ast.IdentExpr:
				if !mapped[arg.Name] {
					errs.Warn(arg.At, fmt.Sprintf("identifier %q does not name a mapped channel in port %q", arg.Name, port))
				}
			case *ast.SelectorExpr:
				if !ports[arg.Port] {
					errs.Addf(arg.At, "unknown port %q", arg.Port)
				}
			}
		}
	}
}

func (c *Context) buildVariables(portDecls []*ast.PortDecl, errs *diag.List) {
	for _, pd := range portDecls {
		var allowedByChannel map[string]map[string]bool
		for _, ch := range pd.Channel {
			if len(ch.AllowedPins) == 0 {
				continue
			}
			if allowedByChannel == nil {
				allowedByChannel = make(map[string]map[string]bool)
			}
			set := make(map[string]bool, len(ch.AllowedPins))
			for _, p := range ch.AllowedPins {
				set[p] = true
			}
			allowedByChannel[ch.Name] = set
		}

		for _, cfg := range pd.Config {
			for _, item := range cfg.Items {
				m, ok := item.(*ast.Mapping)
				if !ok {
					continue
				}
				allowed := allowedByChannel[m.Channel]
				for i, part := range m.Parts {
					v := c.buildVariable(pd.Name, cfg.Name, m.Channel, i, part, allowed)
					if len(v.Candidates) == 0 {
						errs.Addf(m.At, "empty domain for (%s.%s in config %q): %s",
							pd.Name, m.Channel, cfg.Name, v.PatternText)
					}
					c.Variables = append(c.Variables, v)
				}
			}
		}
	}
}

func (c *Context) buildVariable(port, config, channel string, exprIdx int, part ast.SignalExpr, allowed map[string]bool) *Variable {
	type key struct {
		pin, sig string
	}
	seen := make(map[key]bool)
	var cands []pattern.Candidate
	for _, pat := range part {
		for _, cand := range c.Matcher.Match(pat, allowed) {
			if c.Reserved[cand.Pin.Name] {
				continue
			}
			k := key{cand.Pin.Name, cand.Signal.Raw}
			if seen[k] {
				continue
			}
			seen[k] = true
			cands = append(cands, cand)
		}
	}
	return &Variable{
		Port:        port,
		Config:      config,
		Channel:     channel,
		ExprIndex:   exprIdx,
		Candidates:  cands,
		Domain:      domainIndices(len(cands)),
		PatternText: formatSignalExpr(part),
	}
}

func domainIndices(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}

func formatSignalExpr(expr ast.SignalExpr) string {
	s := ""
	for i, pat := range expr {
		if i > 0 {
			s += " | "
		}
		s += formatSide(pat.Instance) + "_" + formatSide(pat.Function)
	}
	return s
}

func formatSide(side ast.PatternSide) string {
	switch side.Kind {
	case ast.SideAny:
		return "*"
	case ast.SideWildcard:
		return side.Prefix + "*"
	case ast.SideRange:
		s := side.Prefix + "["
		for i, v := range side.Values {
			if i > 0 {
				s += ","
			}
			if v.Lo == v.Hi {
				s += fmt.Sprintf("%d", v.Lo)
			} else {
				s += fmt.Sprintf("%d-%d", v.Lo, v.Hi)
			}
		}
		return s + "]"
	default:
		return side.Prefix
	}
}
