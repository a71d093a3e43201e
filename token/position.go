package token

import "fmt"

// Position is a 1-based line/column location in a constraint program's
// source text.
type Position struct {
	Line, Column int
}

// IsValid reports whether p names an actual location.
func (p Position) IsValid() bool { return p.Line > 0 }

func (p Position) String() string {
	if !p.IsValid() {
		return "-"
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Value pairs a scanned token with its literal text and source position.
type Value struct {
	Token Token
	Lit   string // literal text, e.g. "USART", "1", the unquoted string body
	Pos   Position

	// Num is populated when Token is NUMBER.
	Num int
}
