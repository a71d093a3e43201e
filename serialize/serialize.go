// Package serialize implements the canonical on-disk solution form of
// spec.md §6.3: a flat, deduplicated list of (port, channel, pin, signal,
// configuration) assignments, a port->peripheral-instances map, and the
// per-cost-function scalars plus total cost, encoded as YAML the same way
// nenuphar's own tooling favors human-readable structured text over a
// binary or gob format.
package serialize

import (
	"fmt"
	"sort"

	"github.com/pinsolve/pinsolve/solver"
	"gopkg.in/yaml.v3"
)

// PinnedTag is the reserved sentinel spec.md §6.3 assigns to pinned-signal
// entries, which have no port, channel or configuration of their own.
const PinnedTag = "<pinned>"

// AssignmentRecord is one row of the flat assignment list.
type AssignmentRecord struct {
	Port    string `yaml:"port"`
	Channel string `yaml:"channel"`
	Pin     string `yaml:"pin"`
	Signal  string `yaml:"signal"`
	Config  string `yaml:"config"`
}

// Document is the canonical on-disk form of one solver.Solution (spec.md
// §6.3). A Document always represents the architecture's per-combination
// Solution (DESIGN.md: "A Solution is one combination's assignment, not a
// bundle of several"), so Reconstruct's grouping/Cartesian-product step
// degenerates to exactly one combination per port when a Document was
// produced by MarshalSolution — but Reconstruct itself is written against
// the general flat-list shape spec.md describes, so it also recovers the
// full per-combination structure from a Document built by hand out of
// several solutions' assignments (e.g. a whole search's worth of rows
// dumped for a UI table).
type Document struct {
	MCU             string              `yaml:"mcu,omitempty"`
	Assignments     []AssignmentRecord  `yaml:"assignments"`
	PortPeripherals map[string][]string `yaml:"port_peripherals,omitempty"`
	Costs           map[string]float64  `yaml:"costs,omitempty"`
	TotalCost       float64             `yaml:"total_cost"`
}

// MarshalSolution builds the canonical Document for one solver.Solution
// against the named mcu reference.
func MarshalSolution(sol solver.Solution, mcuRef string) *Document {
	doc := &Document{MCU: mcuRef, TotalCost: sol.Cost}

	seen := make(map[AssignmentRecord]bool, len(sol.Assignments)+len(sol.Pinned))
	for _, a := range sol.Assignments {
		rec := AssignmentRecord{
			Port: a.Port, Channel: a.Channel,
			Pin: a.Pin.Name, Signal: a.Signal.Raw, Config: a.Config,
		}
		if !seen[rec] {
			seen[rec] = true
			doc.Assignments = append(doc.Assignments, rec)
		}
	}
	for _, p := range sol.Pinned {
		rec := AssignmentRecord{Port: PinnedTag, Channel: PinnedTag, Pin: p.Pin, Signal: p.Signal, Config: PinnedTag}
		if !seen[rec] {
			seen[rec] = true
			doc.Assignments = append(doc.Assignments, rec)
		}
	}
	sort.Slice(doc.Assignments, func(i, j int) bool { return lessRecord(doc.Assignments[i], doc.Assignments[j]) })

	instances := make(map[string]map[string]bool)
	for _, a := range sol.Assignments {
		if instances[a.Port] == nil {
			instances[a.Port] = make(map[string]bool)
		}
		instances[a.Port][a.Signal.Instance] = true
	}
	if len(instances) > 0 {
		doc.PortPeripherals = make(map[string][]string, len(instances))
		for port, set := range instances {
			names := make([]string, 0, len(set))
			for n := range set {
				names = append(names, n)
			}
			sort.Strings(names)
			doc.PortPeripherals[port] = names
		}
	}

	if len(sol.CostBreakdown) > 0 {
		doc.Costs = make(map[string]float64, len(sol.CostBreakdown))
		for k, v := range sol.CostBreakdown {
			doc.Costs[k] = v
		}
	}
	return doc
}

func lessRecord(a, b AssignmentRecord) bool {
	if a.Port != b.Port {
		return a.Port < b.Port
	}
	if a.Channel != b.Channel {
		return a.Channel < b.Channel
	}
	if a.Config != b.Config {
		return a.Config < b.Config
	}
	return a.Pin < b.Pin
}

// Marshal encodes the document in its canonical YAML form. Two documents
// with the same field values marshal to byte-equal output (spec.md §8
// round-trip law), since assignment records are kept sorted and yaml.v3
// marshals map keys in sorted order.
func (d *Document) Marshal() ([]byte, error) {
	return yaml.Marshal(d)
}

// Unmarshal decodes a Document from its canonical YAML form.
func Unmarshal(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("serialize: unmarshal: %w", err)
	}
	return &doc, nil
}

// Combination is one reconstructed per-combination assignment set: one
// config choice per port, its non-pinned assignments, and the pinned
// entries injected into every combination (spec.md §6.3).
type Combination struct {
	Combo       map[string]string
	Assignments []AssignmentRecord
	Pinned      []AssignmentRecord
}

// Reconstruct rebuilds the per-combination structure spec.md §6.3
// describes: group non-pinned assignments by (port, config), take the
// Cartesian product of configurations over ports, and inject the pinned
// rows into every resulting combination. An empty-ports document produces
// one combination holding only the pinned rows.
func Reconstruct(doc *Document) []Combination {
	var pinned []AssignmentRecord
	byPortConfig := make(map[string]map[string][]AssignmentRecord)
	var ports []string
	for _, rec := range doc.Assignments {
		if rec.Port == PinnedTag {
			pinned = append(pinned, rec)
			continue
		}
		if byPortConfig[rec.Port] == nil {
			byPortConfig[rec.Port] = make(map[string][]AssignmentRecord)
			ports = append(ports, rec.Port)
		}
		byPortConfig[rec.Port][rec.Config] = append(byPortConfig[rec.Port][rec.Config], rec)
	}
	sort.Strings(ports)

	combos := []Combination{{Combo: map[string]string{}}}
	for _, port := range ports {
		configsByName := byPortConfig[port]
		configs := make([]string, 0, len(configsByName))
		for c := range configsByName {
			configs = append(configs, c)
		}
		sort.Strings(configs)

		var next []Combination
		for _, c := range combos {
			for _, cfg := range configs {
				combo := make(map[string]string, len(c.Combo)+1)
				for k, v := range c.Combo {
					combo[k] = v
				}
				combo[port] = cfg
				assignments := append(append([]AssignmentRecord{}, c.Assignments...), configsByName[cfg]...)
				next = append(next, Combination{Combo: combo, Assignments: assignments})
			}
		}
		combos = next
	}

	for i := range combos {
		combos[i].Pinned = pinned
	}
	return combos
}
