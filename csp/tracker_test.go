package csp_test

import (
	"testing"

	"github.com/pinsolve/pinsolve/csp"
	"github.com/stretchr/testify/assert"
)

func notShared(string) bool { return false }

func TestTrackerReservedPinBlocksAssignment(t *testing.T) {
	tr := csp.NewTracker([]string{"PA0"}, notShared)
	assert.False(t, tr.CanAssign("PA0", "MAIN", "uart", "tx", "USART1"))
}

func TestTrackerSamePortReassignIsFine(t *testing.T) {
	tr := csp.NewTracker(nil, notShared)
	require2 := tr.CanAssign("PA9", "MAIN", "uart", "tx", "USART1")
	assert.True(t, require2)
	tr.Assign("PA9", "MAIN", "uart", "tx", "USART1")
	// Another config of the same port may reuse the pin on the same channel.
	assert.True(t, tr.CanAssign("PA9", "MAIN", "spi", "tx", "USART1"))
}

func TestTrackerCrossPortPinExclusivity(t *testing.T) {
	tr := csp.NewTracker(nil, notShared)
	tr.Assign("PA9", "MAIN", "uart", "tx", "USART1")
	assert.False(t, tr.CanAssign("PA9", "AUX", "uart", "rx", "USART1"))
}

func TestTrackerConfigLevelDedup(t *testing.T) {
	tr := csp.NewTracker(nil, notShared)
	tr.Assign("PA9", "MAIN", "uart", "tx", "USART1")
	// Same config, different channel, same pin: rejected.
	assert.False(t, tr.CanAssign("PA9", "MAIN", "uart", "rx", "USART1"))
}

func TestTrackerChannelBindingStability(t *testing.T) {
	tr := csp.NewTracker(nil, notShared)
	tr.Assign("PA9", "MAIN", "uart", "tx", "USART1")
	tr.Assign("PA9", "MAIN", "spi", "tx", "USART1")
	// Same (port,pin) bound to channel "tx" in two configs is fine; a
	// different channel for the same (port,pin), even in a third config, is
	// not.
	assert.False(t, tr.CanAssign("PA9", "MAIN", "i2c", "mosi", "USART1"))
}

func TestTrackerInstanceExclusivityAcrossPorts(t *testing.T) {
	tr := csp.NewTracker(nil, notShared)
	tr.Assign("PA9", "MAIN", "uart", "tx", "USART1")
	assert.False(t, tr.CanAssign("PB6", "AUX", "uart", "tx", "USART1"))
}

func TestTrackerSharedInstanceEscapesExclusivity(t *testing.T) {
	isShared := func(instance string) bool { return instance == "USART1" }
	tr := csp.NewTracker(nil, isShared)
	tr.Assign("PA9", "MAIN", "uart", "tx", "USART1")
	assert.True(t, tr.CanAssign("PB6", "AUX", "uart", "tx", "USART1"))
}

func TestTrackerUnassignRestoresAvailability(t *testing.T) {
	tr := csp.NewTracker(nil, notShared)
	tr.Assign("PA9", "MAIN", "uart", "tx", "USART1")
	tr.Unassign("PA9", "MAIN", "uart", "tx", "USART1")
	assert.True(t, tr.CanAssign("PA9", "AUX", "uart", "rx", "USART1"))
}

func TestTrackerRefcountedChannelSharesAcrossMultiPinChannel(t *testing.T) {
	tr := csp.NewTracker(nil, notShared)
	// A multi-pin channel binds two pins to the same channel of the same
	// port; unassigning one must not drop the channel binding for the other.
	tr.Assign("PA9", "MAIN", "uart", "data", "USART1")
	tr.Assign("PA10", "MAIN", "uart", "data", "USART1")
	tr.Unassign("PA9", "MAIN", "uart", "data", "USART1")
	// PA10 stays bound to "data": another config of the port may reuse it on
	// that channel but not on a different one.
	assert.True(t, tr.CanAssign("PA10", "MAIN", "spi", "data", "USART1"))
	assert.False(t, tr.CanAssign("PA10", "MAIN", "spi", "clk", "USART1"))
}
