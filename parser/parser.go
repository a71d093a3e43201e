// Package parser implements the hand-written recursive-descent parser for
// the constraint language (spec.md §4.2), adapted from nenuphar's
// lang/parser: a token cursor, panic/recover error recovery at the
// statement level, and a diagnostics sink passed by reference rather than
// threaded through return values.
package parser

import (
	"github.com/pinsolve/pinsolve/ast"
	"github.com/pinsolve/pinsolve/diag"
	"github.com/pinsolve/pinsolve/lexer"
	"github.com/pinsolve/pinsolve/token"
)

// Parse lexes and parses src into a Program. Diagnostics (lexical and
// syntactic) are appended to errs; Parse never returns a nil Program, even
// when errs ends up non-empty, so that the caller can still run whatever
// independent passes make sense (spec.md §7 propagation policy).
func Parse(src []byte, errs *diag.List) *ast.Program {
	toks := lexer.Scan(src, errs)
	p := &parser{toks: toks, errs: errs}
	return p.parseProgram()
}

type parser struct {
	toks []token.Value
	pos  int
	errs *diag.List
}

func (p *parser) cur() token.Value  { return p.toks[p.pos] }
func (p *parser) curTok() token.Token { return p.toks[p.pos].Token }
func (p *parser) advance() token.Value {
	v := p.toks[p.pos]
	if v.Token != token.EOF {
		p.pos++
	}
	return v
}

// errParse is the sentinel panicked with to unwind to the nearest recovery
// point (mirrors nenuphar's errPanicMode).
type errParse struct{}

func (p *parser) error(pos token.Position, msg string) {
	p.errs.Add(pos, msg)
}

func (p *parser) errorf(pos token.Position, format string, args ...any) {
	p.errs.Addf(pos, format, args...)
}

// expect consumes the current token if it matches tok, otherwise records a
// diagnostic and unwinds the current statement via panic(errParse{}).
func (p *parser) expect(tok token.Token) token.Value {
	if p.curTok() != tok {
		p.errorf(p.cur().Pos, "expected %s, found %s", tok.GoString(), describe(p.cur()))
		panic(errParse{})
	}
	return p.advance()
}

func describe(v token.Value) string {
	if v.Lit != "" {
		return v.Lit
	}
	return v.Token.GoString()
}

// consumeLine skips tokens until (and including) the next NEWLINE, or until
// EOF, without crossing into an INDENT/DEDENT boundary it didn't open
// itself — used to resync after a statement-level parse error (spec.md §7).
func (p *parser) consumeLine() {
	for p.curTok() != token.NEWLINE && p.curTok() != token.EOF {
		p.advance()
	}
	if p.curTok() == token.NEWLINE {
		p.advance()
	}
}

// skipNewlines consumes any run of blank NEWLINE tokens (the lexer never
// emits two in a row today, but this keeps the parser robust to future
// lexer changes that might, e.g. around macro-expanded bodies).
func (p *parser) skipNewlines() {
	for p.curTok() == token.NEWLINE {
		p.advance()
	}
}

func (p *parser) parseProgram() *ast.Program {
	prog := &ast.Program{}
	p.skipNewlines()
	for p.curTok() != token.EOF {
		stmt := p.parseTopLevelStmt()
		if stmt != nil {
			prog.Stmts = append(prog.Stmts, stmt)
		}
		p.skipNewlines()
	}
	return prog
}

func (p *parser) parseTopLevelStmt() (stmt ast.Stmt) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(errParse); !ok {
				panic(r)
			}
			p.resyncTopLevel()
			stmt = nil
		}
	}()

	switch p.curTok() {
	case token.MCU:
		return p.parseMcuDecl()
	case token.RESERVE:
		return p.parseReserveDecl()
	case token.SHARED:
		return p.parseSharedDecl()
	case token.PIN:
		return p.parsePinDecl()
	case token.PORT:
		return p.parsePortDecl()
	case token.MACRO:
		return p.parseMacroDecl()
	default:
		p.errorf(p.cur().Pos, "expected a top-level statement, found %s", describe(p.cur()))
		panic(errParse{})
	}
}

// resyncTopLevel skips tokens until the next token that could start a
// top-level statement, or EOF (spec.md §7: "skip to ... the next top-level
// keyword").
func (p *parser) resyncTopLevel() {
	for {
		switch p.curTok() {
		case token.MCU, token.RESERVE, token.SHARED, token.PIN, token.PORT, token.MACRO, token.EOF:
			return
		case token.NEWLINE:
			p.advance()
		default:
			p.advance()
		}
	}
}
