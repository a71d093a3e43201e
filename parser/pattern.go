package parser

import (
	"github.com/pinsolve/pinsolve/ast"
	"github.com/pinsolve/pinsolve/token"
)

// parsePatternPrefix concatenates a run of IDENT/NUMBER/DASH tokens into a
// pattern-side prefix, stopping at the UNDERSCORE separator, a STAR, or a
// range bracket (spec.md §4.2: "Leading IDENT may be followed by a NUMBER
// that is folded into the prefix").
func (p *parser) parsePatternPrefix() (string, token.Position) {
	start := p.cur().Pos
	var lit string
	for {
		switch p.curTok() {
		case token.IDENT, token.NUMBER, token.DASH:
			lit += p.cur().Lit
			p.advance()
		default:
			return lit, start
		}
	}
}

func (p *parser) parsePatternSide() ast.PatternSide {
	if p.curTok() == token.STAR {
		p.advance()
		return ast.PatternSide{Kind: ast.SideAny}
	}
	prefix, _ := p.parsePatternPrefix()
	switch p.curTok() {
	case token.LBRACK:
		return ast.PatternSide{Kind: ast.SideRange, Prefix: prefix, Values: p.parseRangeValues()}
	case token.STAR:
		p.advance()
		return ast.PatternSide{Kind: ast.SideWildcard, Prefix: prefix}
	default:
		return ast.PatternSide{Kind: ast.SideLiteral, Prefix: prefix}
	}
}

// parseRangeValues parses `[1,3-5,8]`: a comma-separated list of either a
// single number or an inclusive lo-hi span.
func (p *parser) parseRangeValues() []ast.RangeValue {
	p.expect(token.LBRACK)
	var values []ast.RangeValue
	for {
		lo := p.expect(token.NUMBER)
		hi := lo.Num
		if p.curTok() == token.DASH {
			p.advance()
			hiTok := p.expect(token.NUMBER)
			hi = hiTok.Num
		}
		values = append(values, ast.RangeValue{Lo: lo.Num, Hi: hi})
		if p.curTok() != token.COMMA {
			break
		}
		p.advance()
	}
	p.expect(token.RBRACK)
	return values
}

// parseSignalPattern parses `instance_side _ function_side`, with the
// `IN`/`OUT` shorthand for "any assignable GPIO" expanding to (GPIO*, *)
// (spec.md §3).
func (p *parser) parseSignalPattern() *ast.SignalPattern {
	at := p.cur().Pos
	if p.curTok() == token.IDENT && (p.cur().Lit == "IN" || p.cur().Lit == "OUT") {
		if p.pos+1 >= len(p.toks) || p.toks[p.pos+1].Token != token.UNDERSCORE {
			p.advance()
			return &ast.SignalPattern{
				Instance: ast.PatternSide{Kind: ast.SideWildcard, Prefix: "GPIO"},
				Function: ast.PatternSide{Kind: ast.SideAny},
				At:       at,
			}
		}
	}
	instance := p.parsePatternSide()
	p.expect(token.UNDERSCORE)
	function := p.parsePatternSide()
	return &ast.SignalPattern{Instance: instance, Function: function, At: at}
}

// parseInstancePattern parses a bare instance-side pattern, used by `shared:`
// declarations which match only against peripheral_instance.
func (p *parser) parseInstancePattern() *ast.SignalPattern {
	at := p.cur().Pos
	side := p.parsePatternSide()
	return &ast.SignalPattern{Instance: side, Function: ast.PatternSide{Kind: ast.SideAny}, At: at}
}

func (p *parser) parseSignalExpr() ast.SignalExpr {
	var list ast.SignalExpr
	list = append(list, p.parseSignalPattern())
	for p.curTok() == token.PIPE {
		p.advance()
		list = append(list, p.parseSignalPattern())
	}
	return list
}
