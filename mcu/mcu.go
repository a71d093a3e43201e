// Package mcu implements the microcontroller data model (spec.md §3): an
// opaque, externally-ingested `Mcu` record is normalized once — signal
// decomposition, peripheral type aliasing, synthetic GPIO signals,
// hyphenated-signal splitting — and indexed into a handful of derived
// lookup tables the pattern matcher and CSP engine query by name.
//
// Dense lookup tables are backed by github.com/dolthub/swiss, the same
// hash-map choice nenuphar's lang/machine package makes for its own
// value maps.
package mcu

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dolthub/swiss"
)

// PinKind classifies what a pin may be used for.
type PinKind int8

const (
	KindIO PinKind = iota
	KindPower
	KindReset
	KindBoot
	KindMonoIO
)

func (k PinKind) String() string {
	switch k {
	case KindIO:
		return "I/O"
	case KindPower:
		return "Power"
	case KindReset:
		return "Reset"
	case KindBoot:
		return "Boot"
	case KindMonoIO:
		return "MonoIO"
	default:
		return "Unknown"
	}
}

// IsAssignable reports whether a pin of this kind may be bound to a
// signal by the solver (spec.md §4.4).
func (k PinKind) IsAssignable() bool { return k == KindIO || k == KindMonoIO }

// Signal is a peripheral signal decomposed from its raw name, e.g.
// "USART1_TX" -> {Raw: "USART1_TX", Instance: "USART1", Type: "USART",
// Number: 1, Function: "TX"}.
type Signal struct {
	Raw      string
	Instance string
	Type     string
	Number   int
	Function string
}

// Pin is one physical (or ball-grid) pin of the package.
type Pin struct {
	Name     string
	Position string
	Kind     PinKind
	Signals  []Signal
}

// IsAssignable reports whether the solver may bind this pin to a signal.
func (p *Pin) IsAssignable() bool { return p.Kind.IsAssignable() }

// RawPin is the input shape an external MCU-XML ingester hands to New:
// spec.md §1 treats XML ingestion as an out-of-scope collaborator, so this
// package only ever consumes the already-parsed, typed record.
type RawPin struct {
	Name       string
	Position   string
	Kind       PinKind
	RawSignals []string
}

// Mcu is the normalized, immutable microcontroller record the rest of the
// pipeline operates on (spec.md §3).
type Mcu struct {
	Name    string
	Package string
	Pins    []Pin

	byName          *swiss.Map[string, *Pin]
	byPosition      *swiss.Map[string, *Pin]
	byGPIOName      *swiss.Map[string, *Pin]
	instanceByName  *swiss.Map[string, []*Pin]
	signalToPins    *swiss.Map[string, []*Pin]
	typeToInstances *swiss.Map[string, []string]
}

// typeAliases normalizes a raw peripheral-type prefix to its canonical
// form (spec.md §3).
var typeAliases = map[string]string{
	"UART":   "USART",
	"LPUART": "USART",
}

// normalizeType applies the static alias table plus the TIM*G4 -> TIM
// rule (any G4-suffixed timer variant collapses to the plain TIM type).
func normalizeType(raw string) string {
	if alias, ok := typeAliases[raw]; ok {
		return alias
	}
	if strings.HasPrefix(raw, "TIM") && strings.HasSuffix(raw, "G4") {
		return "TIM"
	}
	return raw
}

// Aliases returns the static normalized->originals table backing
// normalizeType, reversed so the pattern matcher's wildcard rule (spec.md
// §4.4: "OR any alias mapping to prefix") can enumerate originals for a
// normalized prefix without re-deriving the table.
func Aliases() map[string][]string {
	rev := make(map[string][]string, len(typeAliases))
	for raw, norm := range typeAliases {
		rev[norm] = append(rev[norm], raw)
	}
	return rev
}

// splitTrailingNumber splits a letter-then-digits identifier like "USART1"
// into its prefix ("USART") and numeric suffix (1). hasNum is false when s
// carries no trailing digits (e.g. "SYS").
func splitTrailingNumber(s string) (prefix string, num int, hasNum bool) {
	i := len(s)
	for i > 0 && s[i-1] >= '0' && s[i-1] <= '9' {
		i--
	}
	if i == len(s) {
		return s, 0, false
	}
	n := 0
	for _, c := range s[i:] {
		n = n*10 + int(c-'0')
	}
	return s[:i], n, true
}

// decomposeSignal splits one raw signal name into one or more Signal
// values: hyphenated function parts (spec.md §3: "SYS_JTCK-SWCLK") split
// into parallel signals sharing the instance prefix.
func decomposeSignal(raw string) []Signal {
	us := strings.IndexByte(raw, '_')
	if us < 0 {
		prefix, num, _ := splitTrailingNumber(raw)
		return []Signal{{Raw: raw, Instance: raw, Type: normalizeType(prefix), Number: num}}
	}

	instance := raw[:us]
	function := raw[us+1:]
	prefix, num, _ := splitTrailingNumber(instance)
	typ := normalizeType(prefix)

	if !strings.Contains(function, "-") {
		return []Signal{{Raw: raw, Instance: instance, Type: typ, Number: num, Function: function}}
	}

	parts := strings.Split(function, "-")
	out := make([]Signal, len(parts))
	for i, fn := range parts {
		out[i] = Signal{Raw: instance + "_" + fn, Instance: instance, Type: typ, Number: num, Function: fn}
	}
	return out
}

// GPIOPortNumbering maps a GPIO port letter to its numeric index, default
// A=1, B=2, ... consistent with STM32 XML (spec.md §9 Open Question:
// gpio_port letter->number mapping). It is a package var, not a constant,
// so a host that ingests a non-STM32 MCU family can override it before
// calling New.
var GPIOPortNumbering = defaultGPIOPortNumbering()

func defaultGPIOPortNumbering() map[string]int {
	m := make(map[string]int, 26)
	for i := 0; i < 26; i++ {
		m[string(rune('A'+i))] = i + 1
	}
	return m
}

// GPIOPortLetter parses a pin name of the form "P<letter><digits>" (e.g.
// "PA0", "PC13") and returns its port letter, for callers (the `gpio_port`
// require function) that need the letter without the full synthetic
// signal machinery.
func GPIOPortLetter(name string) (string, bool) {
	letter, _, ok := gpioPortAndNumber(name)
	return letter, ok
}

// gpioPortAndNumber parses a pin name of the form "P<letter><digits>"
// (e.g. "PA0", "PC13") into its port letter and pin number.
func gpioPortAndNumber(name string) (letter string, num int, ok bool) {
	if len(name) < 3 || name[0] != 'P' {
		return "", 0, false
	}
	i := 1
	for i < len(name) && name[i] >= 'A' && name[i] <= 'Z' {
		i++
	}
	if i == 1 || i >= len(name) {
		return "", 0, false
	}
	n := 0
	for _, c := range name[i:] {
		if c < '0' || c > '9' {
			return "", 0, false
		}
		n = n*10 + int(c-'0')
	}
	return name[1:i], n, true
}

// New builds a normalized Mcu from raw pins: every raw signal is
// decomposed, a synthetic GPIO{n}_{k} signal is attached to every
// GPIO-named assignable pin, and the derived lookup tables are built.
func New(name, pkg string, rawPins []RawPin) *Mcu {
	m := &Mcu{Name: name, Package: pkg, Pins: make([]Pin, len(rawPins))}
	for i, rp := range rawPins {
		pin := Pin{Name: rp.Name, Position: rp.Position, Kind: rp.Kind}
		for _, raw := range rp.RawSignals {
			pin.Signals = append(pin.Signals, decomposeSignal(raw)...)
		}
		m.Pins[i] = pin
	}
	m.addSyntheticGPIOSignals()
	m.buildIndexes()
	return m
}

func (m *Mcu) addSyntheticGPIOSignals() {
	for i := range m.Pins {
		p := &m.Pins[i]
		if !p.Kind.IsAssignable() {
			continue
		}
		letter, num, ok := gpioPortAndNumber(p.Name)
		if !ok {
			continue
		}
		portNum, ok := GPIOPortNumbering[letter]
		if !ok {
			continue
		}
		p.Signals = append(p.Signals, Signal{
			Raw:      fmt.Sprintf("GPIO%d_%d", portNum, num),
			Instance: fmt.Sprintf("GPIO%d", portNum),
			Type:     "GPIO",
			Number:   portNum,
			Function: strconv.Itoa(num),
		})
	}
}

func (m *Mcu) buildIndexes() {
	n := uint32(len(m.Pins))
	if n == 0 {
		n = 1
	}
	m.byName = swiss.NewMap[string, *Pin](n)
	m.byPosition = swiss.NewMap[string, *Pin](n)
	m.byGPIOName = swiss.NewMap[string, *Pin](n)
	m.instanceByName = swiss.NewMap[string, []*Pin](n)
	m.signalToPins = swiss.NewMap[string, []*Pin](n * 2)
	m.typeToInstances = swiss.NewMap[string, []string](8)
	seen := swiss.NewMap[string, bool](8)

	for i := range m.Pins {
		p := &m.Pins[i]
		m.byName.Put(p.Name, p)
		if p.Position != "" {
			m.byPosition.Put(p.Position, p)
		}
		for _, sig := range p.Signals {
			if sig.Type == "GPIO" {
				m.byGPIOName.Put(sig.Raw, p)
			}

			pins, _ := m.signalToPins.Get(sig.Raw)
			m.signalToPins.Put(sig.Raw, append(pins, p))

			instPins, _ := m.instanceByName.Get(sig.Instance)
			if !containsPin(instPins, p) {
				m.instanceByName.Put(sig.Instance, append(instPins, p))
			}

			dedupeKey := sig.Type + "|" + sig.Instance
			if !seen.Has(dedupeKey) {
				seen.Put(dedupeKey, true)
				insts, _ := m.typeToInstances.Get(sig.Type)
				m.typeToInstances.Put(sig.Type, append(insts, sig.Instance))
			}
		}
	}
}

func containsPin(pins []*Pin, p *Pin) bool {
	for _, other := range pins {
		if other == p {
			return true
		}
	}
	return false
}

// PinByName looks up a pin by its raw package name (e.g. "PA0").
func (m *Mcu) PinByName(name string) (*Pin, bool) { return m.byName.Get(name) }

// PinByPosition looks up a pin by its package position string.
func (m *Mcu) PinByPosition(pos string) (*Pin, bool) { return m.byPosition.Get(pos) }

// PinByGPIOName looks up a pin by its synthetic GPIO signal name (e.g.
// "GPIO1_0").
func (m *Mcu) PinByGPIOName(name string) (*Pin, bool) { return m.byGPIOName.Get(name) }

// PinsByInstance returns every pin that carries a signal belonging to the
// given peripheral instance (e.g. "USART1").
func (m *Mcu) PinsByInstance(instance string) []*Pin {
	pins, _ := m.instanceByName.Get(instance)
	return pins
}

// PinsBySignal returns every pin that carries the exact raw signal name.
func (m *Mcu) PinsBySignal(raw string) []*Pin {
	pins, _ := m.signalToPins.Get(raw)
	return pins
}

// InstancesByType returns every peripheral instance name of the given
// normalized type (e.g. "USART" -> ["USART1", "USART2", ...]).
func (m *Mcu) InstancesByType(typ string) []string {
	insts, _ := m.typeToInstances.Get(typ)
	return insts
}
