package csp

import "github.com/dolthub/swiss"

// reservedOwner is the sentinel port name that owns reserved pins in the
// tracker, so reserved pins are never available to any real port without
// a special case at every call site (spec.md §4.5 step 9).
const reservedOwner = "\x00reserved"

type pinChannelKey struct{ port, pin string }
type instanceKey struct{ port, instance string }

// Tracker maintains the pin/instance exclusivity invariants across an
// in-progress search (spec.md §4.6). It is owned by the search stack and
// mutated only through paired assign/unassign calls so that refcounts
// guarantee perfect restoration on backtrack.
type Tracker struct {
	isShared func(instance string) bool

	pinOwner         *swiss.Map[string, string]        // pin -> owning port
	portPinChannel   *swiss.Map[pinChannelKey, string] // (port,pin) -> channel
	portPinRefcount  *swiss.Map[pinChannelKey, int]
	configPins       *swiss.Map[ConfigKey, map[string]bool]
	instanceOwner    *swiss.Map[string, string] // instance -> owning port
	instanceRefcount *swiss.Map[instanceKey, int]
}

// NewTracker builds a Tracker seeded with reserved pins owned by the
// sentinel reserved port. isShared reports whether a peripheral instance
// matches a `shared:` pattern and therefore bypasses instance exclusivity.
func NewTracker(reserved []string, isShared func(instance string) bool) *Tracker {
	t := &Tracker{
		isShared:         isShared,
		pinOwner:         swiss.NewMap[string, string](16),
		portPinChannel:   swiss.NewMap[pinChannelKey, string](16),
		portPinRefcount:  swiss.NewMap[pinChannelKey, int](16),
		configPins:       swiss.NewMap[ConfigKey, map[string]bool](16),
		instanceOwner:    swiss.NewMap[string, string](16),
		instanceRefcount: swiss.NewMap[instanceKey, int](16),
	}
	for _, pin := range reserved {
		t.pinOwner.Put(pin, reservedOwner)
	}
	return t
}

// CanAssign reports whether pin may be bound to channel of (port, config)
// with the given peripheral instance (spec.md §4.6).
func (t *Tracker) CanAssign(pin, port, config, channel, instance string) bool {
	if owner, ok := t.pinOwner.Get(pin); ok && owner != port {
		return false
	}
	key := ConfigKey{Port: port, Config: config}
	if pins, ok := t.configPins.Get(key); ok && pins[pin] {
		return false
	}
	if ch, ok := t.portPinChannel.Get(pinChannelKey{port, pin}); ok && ch != channel {
		return false
	}
	if instance != "" {
		if owner, ok := t.instanceOwner.Get(instance); ok && owner != port && !t.isShared(instance) {
			return false
		}
	}
	return true
}

// Assign records pin as used by (port, config, channel) with the given
// instance, bumping refcounts. The caller must have already confirmed
// CanAssign.
func (t *Tracker) Assign(pin, port, config, channel, instance string) {
	t.pinOwner.Put(pin, port)

	pcKey := pinChannelKey{port, pin}
	t.portPinChannel.Put(pcKey, channel)
	rc, _ := t.portPinRefcount.Get(pcKey)
	t.portPinRefcount.Put(pcKey, rc+1)

	cKey := ConfigKey{Port: port, Config: config}
	pins, ok := t.configPins.Get(cKey)
	if !ok {
		pins = make(map[string]bool, 4)
	}
	pins[pin] = true
	t.configPins.Put(cKey, pins)

	if instance != "" {
		t.instanceOwner.Put(instance, port)
		iKey := instanceKey{port, instance}
		irc, _ := t.instanceRefcount.Get(iKey)
		t.instanceRefcount.Put(iKey, irc+1)
	}
}

// Unassign undoes exactly one Assign call for the same arguments,
// dropping the entry and channel binding once the refcount reaches zero.
func (t *Tracker) Unassign(pin, port, config, channel, instance string) {
	pcKey := pinChannelKey{port, pin}
	rc, _ := t.portPinRefcount.Get(pcKey)
	rc--
	if rc <= 0 {
		t.portPinRefcount.Delete(pcKey)
		t.portPinChannel.Delete(pcKey)
		if owner, ok := t.pinOwner.Get(pin); ok && owner == port {
			t.pinOwner.Delete(pin)
		}
	} else {
		t.portPinRefcount.Put(pcKey, rc)
	}

	cKey := ConfigKey{Port: port, Config: config}
	if pins, ok := t.configPins.Get(cKey); ok {
		delete(pins, pin)
		if len(pins) == 0 {
			t.configPins.Delete(cKey)
		} else {
			t.configPins.Put(cKey, pins)
		}
	}

	if instance != "" {
		iKey := instanceKey{port, instance}
		irc, _ := t.instanceRefcount.Get(iKey)
		irc--
		if irc <= 0 {
			t.instanceRefcount.Delete(iKey)
			if owner, ok := t.instanceOwner.Get(instance); ok && owner == port {
				t.instanceOwner.Delete(instance)
			}
		} else {
			t.instanceRefcount.Put(iKey, irc)
		}
	}
}
