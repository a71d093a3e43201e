package macro

import (
	"github.com/pinsolve/pinsolve/ast"
	"github.com/pinsolve/pinsolve/diag"
	"github.com/pinsolve/pinsolve/parser"
)

// stdlibSource defines the built-in macro library for common peripheral
// wiring idioms. It is written in the constraint language itself, so it is
// parsed and expanded exactly like user-authored macros (spec.md §4.3: "a
// pre-parsed standard-library map").
const stdlibSource = `
macro usart_basic(tx, rx):
	tx = USART*_TX
	rx = USART*_RX

macro usart_flow(tx, rx, rts, cts):
	tx = USART*_TX
	rx = USART*_RX
	rts = USART*_RTS
	cts = USART*_CTS
	require same_instance(tx, rts)
	require same_instance(tx, cts)

macro i2c_basic(scl, sda):
	scl = I2C*_SCL
	sda = I2C*_SDA
	require same_instance(scl, sda)

macro spi_basic(sck, miso, mosi):
	sck = SPI*_SCK
	miso = SPI*_MISO
	mosi = SPI*_MOSI
	require same_instance(sck, miso)
	require same_instance(sck, mosi)

macro debug_swd(swdio, swclk):
	swdio = SYS_JTMS-SWDIO | SYS_SWDIO
	swclk = SYS_JTCK-SWCLK | SYS_SWCLK
`

// stdlib holds the parsed standard-library macros, keyed by name. It is
// parsed once at package init and copied (shallow) into a fresh map for
// every Expand call, so local macro overrides never leak across solves.
var stdlib = mustParseStdlib()

func mustParseStdlib() map[string]*ast.MacroDecl {
	var errs diag.List
	prog := parser.Parse([]byte(stdlibSource), &errs)
	if err := errs.Err(); err != nil {
		panic("macro: invalid stdlib source: " + err.Error())
	}

	m := make(map[string]*ast.MacroDecl, 8)
	for _, s := range prog.Stmts {
		if d, ok := s.(*ast.MacroDecl); ok {
			m[d.Name] = d
		}
	}
	return m
}

func stdlibMacros() map[string]*ast.MacroDecl {
	out := make(map[string]*ast.MacroDecl, len(stdlib))
	for name, decl := range stdlib {
		out[name] = decl
	}
	return out
}
