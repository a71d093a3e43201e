package ast

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Fprint writes a deterministic, source-like rendering of prog to w, the
// same role nenuphar's lang/ast.Printer plays for its own AST: a debugging
// and `parse` command-line aid, not a round-trippable serialization format
// (serialize.Document is the one spec.md defines for that).
func Fprint(w io.Writer, prog *Program) error {
	b := &indentWriter{w: w}
	for _, stmt := range prog.Stmts {
		if err := fprintStmt(b, stmt); err != nil {
			return err
		}
	}
	return b.err
}

type indentWriter struct {
	w     io.Writer
	err   error
	depth int
}

func (b *indentWriter) line(format string, args ...any) {
	if b.err != nil {
		return
	}
	_, b.err = fmt.Fprintf(b.w, "%s%s\n", strings.Repeat("  ", b.depth), fmt.Sprintf(format, args...))
}

func fprintStmt(b *indentWriter, stmt Stmt) error {
	switch s := stmt.(type) {
	case *McuDecl:
		b.line("mcu: %s", strings.Join(s.Patterns, " | "))
	case *ReserveDecl:
		b.line("reserve: %s", strings.Join(s.Pins, ", "))
	case *PinDecl:
		b.line("pin %s = %s", s.Pin, s.Signal)
	case *SharedDecl:
		pats := make([]string, len(s.Patterns))
		for i, p := range s.Patterns {
			pats[i] = SideString(p.Instance)
		}
		b.line("shared: %s", strings.Join(pats, ", "))
	case *PortDecl:
		fprintPortDecl(b, s)
	case *MacroDecl:
		fprintMacroDecl(b, s)
	default:
		b.line("<unknown stmt %T>", s)
	}
	return b.err
}

func fprintPortDecl(b *indentWriter, p *PortDecl) {
	if p.Color != "" {
		b.line("port %s color %s:", p.Name, p.Color)
	} else {
		b.line("port %s:", p.Name)
	}
	b.depth++
	for _, ch := range p.Channel {
		if len(ch.AllowedPins) > 0 {
			b.line("channel %s @ %s", ch.Name, strings.Join(ch.AllowedPins, ", "))
		} else {
			b.line("channel %s", ch.Name)
		}
	}
	for _, cfg := range p.Config {
		b.line("config %q:", cfg.Name)
		b.depth++
		for _, item := range cfg.Items {
			fprintConfigItem(b, item)
		}
		b.depth--
	}
	b.depth--
}

func fprintMacroDecl(b *indentWriter, m *MacroDecl) {
	b.line("macro %s(%s):", m.Name, strings.Join(m.Params, ", "))
	b.depth++
	for _, item := range m.Body {
		fprintConfigItem(b, item)
	}
	b.depth--
}

func fprintConfigItem(b *indentWriter, item ConfigItem) {
	switch it := item.(type) {
	case *Mapping:
		parts := make([]string, len(it.Parts))
		for i, part := range it.Parts {
			parts[i] = SignalExprString(part)
		}
		b.line("%s = %s", it.Channel, strings.Join(parts, " & "))
	case *RequireStmt:
		b.line("require %s", ExprString(it.Expr))
	case *MacroCall:
		args := make([]string, len(it.Args))
		for i, a := range it.Args {
			args[i] = ExprString(a)
		}
		b.line("%s(%s)", it.Name, strings.Join(args, ", "))
	default:
		b.line("<unknown item %T>", it)
	}
}

// SignalExprString renders a SignalExpr the way it was written in source,
// `pattern | pattern | ...`.
func SignalExprString(se SignalExpr) string {
	alts := make([]string, len(se))
	for i, p := range se {
		alts[i] = PatternString(p)
	}
	return strings.Join(alts, " | ")
}

// PatternString renders a SignalPattern the way it was written in source,
// `instance_function`.
func PatternString(p *SignalPattern) string {
	return SideString(p.Instance) + "_" + SideString(p.Function)
}

// SideString renders one PatternSide the way it was written in source.
func SideString(s PatternSide) string {
	switch s.Kind {
	case SideAny:
		return "*"
	case SideLiteral:
		return s.Prefix
	case SideWildcard:
		return s.Prefix + "*"
	case SideRange:
		vals := make([]string, len(s.Values))
		for i, v := range s.Values {
			if v.Lo == v.Hi {
				vals[i] = strconv.Itoa(v.Lo)
			} else {
				vals[i] = fmt.Sprintf("%d-%d", v.Lo, v.Hi)
			}
		}
		return fmt.Sprintf("%s[%s]", s.Prefix, strings.Join(vals, ","))
	default:
		return "<?>"
	}
}

// ExprString renders a require expression the way it was written in source.
func ExprString(e Expr) string {
	switch x := e.(type) {
	case *IdentExpr:
		return x.Name
	case *StringLit:
		return strconv.Quote(x.Value)
	case *SelectorExpr:
		return x.Port + "." + x.Channel
	case *CallExpr:
		args := make([]string, len(x.Args))
		for i, a := range x.Args {
			args[i] = ExprString(a)
		}
		return fmt.Sprintf("%s(%s)", x.Name, strings.Join(args, ", "))
	case *UnaryExpr:
		return x.Op.String() + ExprString(x.X)
	case *BinaryExpr:
		return fmt.Sprintf("(%s %s %s)", ExprString(x.X), x.Op, ExprString(x.Y))
	default:
		return fmt.Sprintf("<?%T>", x)
	}
}
