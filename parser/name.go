package parser

import "github.com/pinsolve/pinsolve/token"

// concatTokens greedily concatenates a run of adjacent IDENT/NUMBER/
// UNDERSCORE/DASH (and, if allowStar, STAR) tokens into a single raw name,
// the way the spec requires for pin names (`PA`+`0` -> `PA0`), raw signal
// names (which may be hyphenated, e.g. `SYS_JTCK-SWCLK`), reserve pin lists
// and mcu glob patterns (spec.md §4.2).
func (p *parser) concatTokens(allowStar bool) (string, token.Position) {
	start := p.cur().Pos
	var lit string
	for {
		switch p.curTok() {
		case token.IDENT, token.NUMBER, token.UNDERSCORE, token.DASH:
			lit += p.cur().Lit
			p.advance()
		case token.STAR:
			if !allowStar {
				return lit, start
			}
			lit += "*"
			p.advance()
		default:
			return lit, start
		}
	}
}

// parsePinName parses a pin name or any other dash/underscore-joined
// identifier: a leading letter identifier optionally folded together with a
// following number (`PA`+`0` -> `PA0`, `PA`+`13` -> `PA13`) and further
// underscore/dash-joined segments (`DAC`+`_`+`OUT` -> `DAC_OUT`). The same
// assembly rule covers pin names, channel names, macro/require identifiers
// and raw signal names (spec.md §4.2, §6.1).
func (p *parser) parsePinName() (string, token.Position) {
	if p.curTok() != token.IDENT {
		p.errorf(p.cur().Pos, "expected a pin name, found %s", describe(p.cur()))
		panic(errParse{})
	}
	return p.concatTokens(false)
}

// parseNameList parses a comma-separated list of raw names (used for
// `reserve:` and `channel @ ...` pin lists).
func (p *parser) parseNameList() []string {
	var names []string
	name, _ := p.parsePinName()
	names = append(names, name)
	for p.curTok() == token.COMMA {
		p.advance()
		name, _ := p.parsePinName()
		names = append(names, name)
	}
	return names
}
