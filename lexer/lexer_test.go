package lexer_test

import (
	"testing"

	"github.com/pinsolve/pinsolve/diag"
	"github.com/pinsolve/pinsolve/lexer"
	"github.com/pinsolve/pinsolve/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func toks(vals []token.Value) []token.Token {
	out := make([]token.Token, len(vals))
	for i, v := range vals {
		out[i] = v.Token
	}
	return out
}

func lits(vals []token.Value) []string {
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = v.Lit
	}
	return out
}

func TestScanSplitsIdentifierDigitUnderscoreRuns(t *testing.T) {
	var errs diag.List
	vals := lexer.Scan([]byte("USART1_TX"), &errs)
	require.False(t, errs.HasErrors())
	assert.Equal(t,
		[]token.Token{token.IDENT, token.NUMBER, token.UNDERSCORE, token.IDENT, token.NEWLINE, token.EOF},
		toks(vals))
	assert.Equal(t, []string{"USART", "1", "_", "TX", "", ""}, lits(vals))
}

func TestScanIndentDedent(t *testing.T) {
	src := "port CMD:\n\tchannel TX\n\tchannel RX\nport OTHER:\n\tchannel A\n"
	var errs diag.List
	vals := lexer.Scan([]byte(src), &errs)
	require.False(t, errs.HasErrors())

	got := toks(vals)
	want := []token.Token{
		token.PORT, token.IDENT, token.COLON, token.NEWLINE,
		token.INDENT,
		token.CHANNEL, token.IDENT, token.NEWLINE,
		token.CHANNEL, token.IDENT, token.NEWLINE,
		token.DEDENT,
		token.PORT, token.IDENT, token.COLON, token.NEWLINE,
		token.INDENT,
		token.CHANNEL, token.IDENT, token.NEWLINE,
		token.DEDENT,
		token.EOF,
	}
	assert.Equal(t, want, got)
}

func TestScanStringLiteral(t *testing.T) {
	var errs diag.List
	vals := lexer.Scan([]byte(`config "U1":` + "\n"), &errs)
	require.False(t, errs.HasErrors())
	assert.Equal(t, []token.Token{token.CONFIG, token.STRING, token.COLON, token.NEWLINE, token.EOF}, toks(vals))
	assert.Equal(t, "U1", vals[1].Lit)
}

func TestScanUnterminatedStringReportsErrorAndContinues(t *testing.T) {
	var errs diag.List
	vals := lexer.Scan([]byte(`config "U1`+"\n"), &errs)
	assert.True(t, errs.HasErrors())
	// scan still produces a usable (if imperfect) stream past the error.
	assert.Equal(t, []token.Token{token.CONFIG, token.STRING, token.NEWLINE, token.EOF}, toks(vals))
}

func TestScanCommentsAreIgnored(t *testing.T) {
	var errs diag.List
	vals := lexer.Scan([]byte("channel TX # the transmit wire\n"), &errs)
	require.False(t, errs.HasErrors())
	assert.Equal(t, []token.Token{token.CHANNEL, token.IDENT, token.NEWLINE, token.EOF}, toks(vals))
}

func TestScanBlankAndCommentOnlyLinesDoNotAffectIndentation(t *testing.T) {
	src := "port CMD:\n\tchannel TX\n\n\t# a comment\n\tchannel RX\n"
	var errs diag.List
	vals := lexer.Scan([]byte(src), &errs)
	require.False(t, errs.HasErrors())
	got := toks(vals)
	want := []token.Token{
		token.PORT, token.IDENT, token.COLON, token.NEWLINE,
		token.INDENT,
		token.CHANNEL, token.IDENT, token.NEWLINE,
		token.CHANNEL, token.IDENT, token.NEWLINE,
		token.DEDENT,
		token.EOF,
	}
	assert.Equal(t, want, got)
}

func TestScanInconsistentDedentReportsError(t *testing.T) {
	// Four spaces closes the eight-space block but matches no enclosing
	// level (only column 0 remains on the stack).
	src := "port CMD:\n        channel TX\n    channel RX\n"
	var errs diag.List
	lexer.Scan([]byte(src), &errs)
	assert.True(t, errs.HasErrors())
}

func TestScanEqualityOperators(t *testing.T) {
	var errs diag.List
	vals := lexer.Scan([]byte("require A == B != C\n"), &errs)
	require.False(t, errs.HasErrors())
	got := toks(vals)
	want := []token.Token{
		token.REQUIRE, token.IDENT, token.EQEQ, token.IDENT, token.BANGEQ, token.IDENT, token.NEWLINE, token.EOF,
	}
	assert.Equal(t, want, got)
}

func TestScanUnexpectedCharacterReportsError(t *testing.T) {
	var errs diag.List
	lexer.Scan([]byte("channel TX ~\n"), &errs)
	assert.True(t, errs.HasErrors())
}
