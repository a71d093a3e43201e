package csp_test

import (
	"testing"

	"github.com/pinsolve/pinsolve/csp"
	"github.com/pinsolve/pinsolve/diag"
	"github.com/pinsolve/pinsolve/mcu"
	"github.com/pinsolve/pinsolve/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contextMcu() *mcu.Mcu {
	return mcu.New("STM32F411", "LQFP64", []mcu.RawPin{
		{Name: "PA9", Kind: mcu.KindIO, RawSignals: []string{"USART1_TX"}},
		{Name: "PA10", Kind: mcu.KindIO, RawSignals: []string{"USART1_RX"}},
		{Name: "PA2", Kind: mcu.KindIO, RawSignals: []string{"USART2_TX"}},
		{Name: "PA3", Kind: mcu.KindIO, RawSignals: []string{"USART2_RX"}},
		{Name: "PB3", Kind: mcu.KindIO, RawSignals: []string{"SPI1_SCK"}},
	})
}

func TestPrepareContextBuildsVariablesAndCombinations(t *testing.T) {
	src := `port MAIN:
	channel tx
	channel rx
	config "uart1":
		tx = USART1_TX
		rx = USART1_RX
	config "uart2":
		tx = USART2_TX
		rx = USART2_RX

port AUX:
	channel clk
	config "only":
		clk = SPI1_SCK
`
	var perrs diag.List
	prog := parser.Parse([]byte(src), &perrs)
	require.NoError(t, perrs.Err())

	var errs diag.List
	ctx := csp.PrepareContext(prog, contextMcu(), &errs)
	require.False(t, errs.HasErrors())

	assert.Len(t, ctx.Variables, 5) // tx,rx x 2 configs + clk x 1 config
	assert.Len(t, ctx.Combinations, 2)

	for _, combo := range ctx.Combinations {
		assert.Equal(t, "only", combo["AUX"])
		assert.Contains(t, []string{"uart1", "uart2"}, combo["MAIN"])
	}
}

func TestPrepareContextEmptyDomainDiagnostic(t *testing.T) {
	src := `port MAIN:
	channel tx
	config "c":
		tx = SPI3_MOSI
`
	var perrs diag.List
	prog := parser.Parse([]byte(src), &perrs)
	require.NoError(t, perrs.Err())

	var errs diag.List
	ctx := csp.PrepareContext(prog, contextMcu(), &errs)
	require.True(t, errs.HasErrors())
	assert.Contains(t, errs.Items()[0].Message, "empty domain")
	require.Len(t, ctx.Variables, 1)
	assert.Empty(t, ctx.Variables[0].Candidates)
}

func TestPrepareContextReservedPinsExcludedFromDomain(t *testing.T) {
	src := `reserve: PA9

port MAIN:
	channel tx
	config "c":
		tx = USART1*_*
`
	var perrs diag.List
	prog := parser.Parse([]byte(src), &perrs)
	require.NoError(t, perrs.Err())

	var errs diag.List
	ctx := csp.PrepareContext(prog, contextMcu(), &errs)
	require.False(t, errs.HasErrors())
	require.Len(t, ctx.Variables, 1)
	for _, c := range ctx.Variables[0].Candidates {
		assert.NotEqual(t, "PA9", c.Pin.Name)
	}
}

func TestPrepareContextMRVSortsSmallestDomainFirst(t *testing.T) {
	src := `port MAIN:
	channel tx
	channel rx
	config "c":
		tx = USART1_TX
		rx = USART*_RX
`
	var perrs diag.List
	prog := parser.Parse([]byte(src), &perrs)
	require.NoError(t, perrs.Err())

	var errs diag.List
	ctx := csp.PrepareContext(prog, contextMcu(), &errs)
	require.False(t, errs.HasErrors())
	require.Len(t, ctx.Variables, 2)
	for i := 1; i < len(ctx.Variables); i++ {
		assert.LessOrEqual(t, ctx.Variables[i-1].InitialDomainSize(), ctx.Variables[i].InitialDomainSize())
	}
}

func TestPrepareContextIsSharedMatchesSharedDecl(t *testing.T) {
	src := `shared: USART1

port MAIN:
	channel tx
	config "c":
		tx = USART1_TX
`
	var perrs diag.List
	prog := parser.Parse([]byte(src), &perrs)
	require.NoError(t, perrs.Err())

	var errs diag.List
	ctx := csp.PrepareContext(prog, contextMcu(), &errs)
	require.False(t, errs.HasErrors())
	assert.True(t, ctx.IsShared("USART1"))
	assert.False(t, ctx.IsShared("USART2"))
}
