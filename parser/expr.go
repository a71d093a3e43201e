package parser

import (
	"github.com/pinsolve/pinsolve/ast"
	"github.com/pinsolve/pinsolve/token"
)

// parseConstraintExpr parses a `require` expression by precedence climbing,
// level by level, low to high: `|` < `^` < `&` < `{==,!=}` < unary `!`
// (spec.md §4.2).
func (p *parser) parseConstraintExpr() ast.Expr { return p.parseOrLevel() }

func (p *parser) parseOrLevel() ast.Expr {
	left := p.parseXorLevel()
	for p.curTok() == token.PIPE {
		op := p.advance()
		right := p.parseXorLevel()
		left = &ast.BinaryExpr{Op: token.PIPE, X: left, Y: right, At: op.Pos}
	}
	return left
}

func (p *parser) parseXorLevel() ast.Expr {
	left := p.parseAndLevel()
	for p.curTok() == token.CIRCUMFLEX {
		op := p.advance()
		right := p.parseAndLevel()
		left = &ast.BinaryExpr{Op: token.CIRCUMFLEX, X: left, Y: right, At: op.Pos}
	}
	return left
}

func (p *parser) parseAndLevel() ast.Expr {
	left := p.parseEqLevel()
	for p.curTok() == token.AMP {
		op := p.advance()
		right := p.parseEqLevel()
		left = &ast.BinaryExpr{Op: token.AMP, X: left, Y: right, At: op.Pos}
	}
	return left
}

func (p *parser) parseEqLevel() ast.Expr {
	left := p.parseUnary()
	for p.curTok() == token.EQEQ || p.curTok() == token.BANGEQ {
		op := p.advance()
		right := p.parseUnary()
		left = &ast.BinaryExpr{Op: op.Token, X: left, Y: right, At: op.Pos}
	}
	return left
}

func (p *parser) parseUnary() ast.Expr {
	if p.curTok() == token.BANG {
		op := p.advance()
		x := p.parseUnary()
		return &ast.UnaryExpr{Op: token.BANG, X: x, At: op.Pos}
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() ast.Expr {
	switch p.curTok() {
	case token.LPAREN:
		p.advance()
		x := p.parseConstraintExpr()
		p.expect(token.RPAREN)
		return x

	case token.STRING:
		v := p.advance()
		return &ast.StringLit{Value: v.Lit, At: v.Pos}

	case token.IDENT:
		name, at := p.parsePinName()
		switch p.curTok() {
		case token.DOT:
			p.advance()
			channel, _ := p.parsePinName()
			return &ast.SelectorExpr{Port: name, Channel: channel, At: at}
		case token.LPAREN:
			p.advance()
			var args []ast.Expr
			if p.curTok() != token.RPAREN {
				args = append(args, p.parseCallArg())
				for p.curTok() == token.COMMA {
					p.advance()
					args = append(args, p.parseCallArg())
				}
			}
			p.expect(token.RPAREN)
			return &ast.CallExpr{Name: name, Args: args, At: at}
		default:
			return &ast.IdentExpr{Name: name, At: at}
		}

	default:
		p.errorf(p.cur().Pos, "expected an expression, found %s", describe(p.cur()))
		panic(errParse{})
	}
}

// parseCallArg parses one argument of a function or macro call: an
// identifier, a dot-access, a string literal, a nested call, or a
// parenthesized expression — an unparenthesized boolean expression is not
// accepted as a call argument.
func (p *parser) parseCallArg() ast.Expr { return p.parsePrimary() }
