package parser

import (
	"github.com/pinsolve/pinsolve/ast"
	"github.com/pinsolve/pinsolve/token"
)

func (p *parser) parseMcuDecl() ast.Stmt {
	at := p.cur().Pos
	p.expect(token.MCU)
	p.expect(token.COLON)

	var patterns []string
	pat, _ := p.concatTokens(true)
	patterns = append(patterns, pat)
	for p.curTok() == token.PIPE {
		p.advance()
		pat, _ := p.concatTokens(true)
		patterns = append(patterns, pat)
	}
	return &ast.McuDecl{Patterns: patterns, At: at}
}

func (p *parser) parseReserveDecl() ast.Stmt {
	at := p.cur().Pos
	p.expect(token.RESERVE)
	p.expect(token.COLON)
	return &ast.ReserveDecl{Pins: p.parseNameList(), At: at}
}

func (p *parser) parseSharedDecl() ast.Stmt {
	at := p.cur().Pos
	p.expect(token.SHARED)
	p.expect(token.COLON)

	var pats []*ast.SignalPattern
	pats = append(pats, p.parseInstancePattern())
	for p.curTok() == token.COMMA {
		p.advance()
		pats = append(pats, p.parseInstancePattern())
	}
	return &ast.SharedDecl{Patterns: pats, At: at}
}

func (p *parser) parsePinDecl() ast.Stmt {
	at := p.cur().Pos
	p.expect(token.PIN)
	pin, _ := p.parsePinName()
	p.expect(token.EQ)
	sig, _ := p.concatTokens(false)
	return &ast.PinDecl{Pin: pin, Signal: sig, At: at}
}

func (p *parser) parsePortDecl() ast.Stmt {
	at := p.cur().Pos
	p.expect(token.PORT)
	name, _ := p.parsePinName()
	p.expect(token.COLON)
	p.expect(token.NEWLINE)
	p.expect(token.INDENT)

	decl := &ast.PortDecl{Name: name, At: at}
	for p.curTok() != token.DEDENT && p.curTok() != token.EOF {
		switch p.curTok() {
		case token.CHANNEL:
			decl.Channel = append(decl.Channel, p.parseChannelDecl())
		case token.CONFIG:
			decl.Config = append(decl.Config, p.parseConfigDecl())
		case token.COLOR:
			p.advance()
			str := p.expect(token.STRING)
			decl.Color = str.Lit
			p.expect(token.NEWLINE)
		case token.NEWLINE:
			p.advance()
		default:
			p.errorf(p.cur().Pos, "expected channel, config or color, found %s", describe(p.cur()))
			panic(errParse{})
		}
	}
	p.expect(token.DEDENT)
	return decl
}

func (p *parser) parseChannelDecl() *ast.ChannelDecl {
	at := p.cur().Pos
	p.expect(token.CHANNEL)
	name, _ := p.parsePinName()
	decl := &ast.ChannelDecl{Name: name, At: at}
	if p.curTok() == token.AT {
		p.advance()
		decl.AllowedPins = p.parseNameList()
	}
	p.expect(token.NEWLINE)
	return decl
}

func (p *parser) parseConfigDecl() *ast.ConfigDecl {
	at := p.cur().Pos
	p.expect(token.CONFIG)
	str := p.expect(token.STRING)
	p.expect(token.COLON)
	p.expect(token.NEWLINE)
	p.expect(token.INDENT)
	decl := &ast.ConfigDecl{Name: str.Lit, At: at}
	decl.Items = p.parseConfigBody()
	p.expect(token.DEDENT)
	return decl
}

func (p *parser) parseMacroDecl() ast.Stmt {
	at := p.cur().Pos
	p.expect(token.MACRO)
	name, _ := p.parsePinName()
	p.expect(token.LPAREN)
	var params []string
	if p.curTok() != token.RPAREN {
		pname, _ := p.parsePinName()
		params = append(params, pname)
		for p.curTok() == token.COMMA {
			p.advance()
			pname, _ := p.parsePinName()
			params = append(params, pname)
		}
	}
	p.expect(token.RPAREN)
	p.expect(token.COLON)
	p.expect(token.NEWLINE)
	p.expect(token.INDENT)
	decl := &ast.MacroDecl{Name: name, Params: params, At: at}
	decl.Body = p.parseConfigBody()
	p.expect(token.DEDENT)
	return decl
}

// parseConfigBody parses the shared body shape of a config or macro:
// mappings, requires, and macro calls, recovering at the NEWLINE boundary on
// error (spec.md §4.2, §4.3).
func (p *parser) parseConfigBody() []ast.ConfigItem {
	var items []ast.ConfigItem
	for p.curTok() != token.DEDENT && p.curTok() != token.EOF {
		if p.curTok() == token.NEWLINE {
			p.advance()
			continue
		}
		item := p.parseConfigItem()
		if item != nil {
			items = append(items, item)
		}
	}
	return items
}

func (p *parser) parseConfigItem() (item ast.ConfigItem) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(errParse); !ok {
				panic(r)
			}
			p.consumeLine()
			item = nil
		}
	}()

	if p.curTok() == token.REQUIRE {
		return p.parseRequireStmt()
	}
	if p.curTok() == token.IDENT {
		// Either `channel = signal_expr...` or `macro_name(args...)`.
		name, at := p.parsePinName()
		if p.curTok() == token.LPAREN {
			return p.parseMacroCallRest(name, at)
		}
		p.expect(token.EQ)
		m := &ast.Mapping{Channel: name, At: at}
		m.Parts = append(m.Parts, p.parseSignalExpr())
		for p.curTok() == token.AMP {
			p.advance()
			m.Parts = append(m.Parts, p.parseSignalExpr())
		}
		p.expect(token.NEWLINE)
		return m
	}

	p.errorf(p.cur().Pos, "expected a mapping, require or macro call, found %s", describe(p.cur()))
	panic(errParse{})
}

func (p *parser) parseRequireStmt() ast.ConfigItem {
	at := p.cur().Pos
	p.expect(token.REQUIRE)
	expr := p.parseConstraintExpr()
	p.expect(token.NEWLINE)
	return &ast.RequireStmt{Expr: expr, At: at}
}

func (p *parser) parseMacroCallRest(name string, at token.Position) ast.ConfigItem {
	p.expect(token.LPAREN)
	var args []ast.Expr
	if p.curTok() != token.RPAREN {
		args = append(args, p.parseCallArg())
		for p.curTok() == token.COMMA {
			p.advance()
			args = append(args, p.parseCallArg())
		}
	}
	p.expect(token.RPAREN)
	p.expect(token.NEWLINE)
	return &ast.MacroCall{Name: name, Args: args, At: at}
}
