// Package macro implements the constraint-language macro expander
// (spec.md §4.3): it rewrites every macro_call inside a port's
// configuration bodies into the called macro's body, substituting
// parameters, and turns arity mismatches, unknown names, self-reference
// cycles and runaway recursion into diagnostics rather than panics.
//
// The tree-walking shape (a switch over ast node kinds, diagnostics
// accumulated by reference) follows nenuphar's lang/resolver.
package macro

import (
	"github.com/pinsolve/pinsolve/ast"
	"github.com/pinsolve/pinsolve/diag"
)

// maxDepth caps macro expansion nesting (spec.md §4.3).
const maxDepth = 10

// Expand returns a new Program with every macro_decl stripped and every
// macro_call replaced by its expanded body. Local macro declarations win
// over the standard-library macros of the same name. Diagnostics are
// appended to errs; Expand always returns a usable (if partial) Program.
func Expand(prog *ast.Program, errs *diag.List) *ast.Program {
	macros := stdlibMacros()
	for _, s := range prog.Stmts {
		if m, ok := s.(*ast.MacroDecl); ok {
			macros[m.Name] = m
		}
	}

	e := &expander{macros: macros, errs: errs}
	out := &ast.Program{}
	for _, s := range prog.Stmts {
		switch s := s.(type) {
		case *ast.MacroDecl:
			// macro_decl statements do not survive expansion.
		case *ast.PortDecl:
			out.Stmts = append(out.Stmts, e.expandPort(s))
		default:
			out.Stmts = append(out.Stmts, s)
		}
	}
	return out
}

type expander struct {
	macros map[string]*ast.MacroDecl
	errs   *diag.List
}

func (e *expander) expandPort(p *ast.PortDecl) *ast.PortDecl {
	out := &ast.PortDecl{Name: p.Name, Color: p.Color, Channel: p.Channel, At: p.At}
	for _, cfg := range p.Config {
		out.Config = append(out.Config, &ast.ConfigDecl{
			Name:  cfg.Name,
			At:    cfg.At,
			Items: e.expandBody(cfg.Items, nil, nil),
		})
	}
	return out
}

// expandBody expands every macro_call among items. subst substitutes the
// enclosing macro's parameters (nil at the top level, where there is no
// enclosing macro). stack holds the names of macros currently being
// expanded, innermost last, for cycle detection.
func (e *expander) expandBody(items []ast.ConfigItem, subst map[string]ast.Expr, stack []string) []ast.ConfigItem {
	var out []ast.ConfigItem
	for _, it := range items {
		switch it := it.(type) {
		case *ast.Mapping:
			out = append(out, e.substMapping(it, subst))
		case *ast.RequireStmt:
			out = append(out, &ast.RequireStmt{Expr: substExpr(it.Expr, subst), At: it.At})
		case *ast.MacroCall:
			out = append(out, e.expandCall(it, subst, stack)...)
		}
	}
	return out
}

// substMapping rewrites a mapping's channel name when it names an
// enclosing macro's parameter; the substitute argument must itself be an
// identifier, since a channel name is a bare name, not an expression.
func (e *expander) substMapping(m *ast.Mapping, subst map[string]ast.Expr) *ast.Mapping {
	channel := m.Channel
	if arg, ok := subst[m.Channel]; ok {
		ident, ok := arg.(*ast.IdentExpr)
		if !ok {
			e.errs.Addf(m.At, "macro parameter %q is used as a channel name and needs an identifier argument", m.Channel)
			return &ast.Mapping{Channel: channel, Parts: m.Parts, At: m.At}
		}
		channel = ident.Name
	}
	return &ast.Mapping{Channel: channel, Parts: m.Parts, At: m.At}
}

// expandCall resolves one macro_call: validates arity and name, checks for
// self-reference and depth, substitutes the call's (already-substituted)
// arguments for the macro's parameters, and recursively expands the
// macro's body.
func (e *expander) expandCall(call *ast.MacroCall, subst map[string]ast.Expr, stack []string) []ast.ConfigItem {
	args := make([]ast.Expr, len(call.Args))
	for i, a := range call.Args {
		args[i] = substExpr(a, subst)
	}

	decl, ok := e.macros[call.Name]
	if !ok {
		e.errs.Addf(call.At, "unknown macro %q", call.Name)
		return nil
	}
	if len(args) != len(decl.Params) {
		e.errs.Addf(call.At, "macro %q expects %d argument(s), got %d", call.Name, len(decl.Params), len(args))
		return nil
	}
	for _, name := range stack {
		if name == call.Name {
			e.errs.Addf(call.At, "recursive macro expansion: %q calls itself", call.Name)
			return nil
		}
	}
	if len(stack) >= maxDepth {
		e.errs.Addf(call.At, "macro expansion depth exceeded %d while expanding %q", maxDepth, call.Name)
		return nil
	}

	inner := make(map[string]ast.Expr, len(decl.Params))
	for i, p := range decl.Params {
		inner[p] = args[i]
	}
	nextStack := make([]string, len(stack)+1)
	copy(nextStack, stack)
	nextStack[len(stack)] = call.Name

	return e.expandBody(decl.Body, inner, nextStack)
}

// substExpr replaces every identifier in expr that names a macro
// parameter with its substituted argument expression. Dot-access
// (SelectorExpr) and string literals are left untouched (spec.md §4.3).
func substExpr(expr ast.Expr, subst map[string]ast.Expr) ast.Expr {
	if expr == nil || subst == nil {
		return expr
	}
	switch e := expr.(type) {
	case *ast.IdentExpr:
		if r, ok := subst[e.Name]; ok {
			return r
		}
		return e
	case *ast.UnaryExpr:
		return &ast.UnaryExpr{Op: e.Op, X: substExpr(e.X, subst), At: e.At}
	case *ast.BinaryExpr:
		return &ast.BinaryExpr{Op: e.Op, X: substExpr(e.X, subst), Y: substExpr(e.Y, subst), At: e.At}
	case *ast.CallExpr:
		args := make([]ast.Expr, len(e.Args))
		for i, a := range e.Args {
			args[i] = substExpr(a, subst)
		}
		return &ast.CallExpr{Name: e.Name, Args: args, At: e.At}
	default:
		return expr
	}
}
