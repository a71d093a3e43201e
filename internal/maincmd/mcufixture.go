package maincmd

import (
	"fmt"
	"os"

	"github.com/pinsolve/pinsolve/mcu"
	"gopkg.in/yaml.v3"
)

// mcuFile is the on-disk YAML shape the CLI host reads to produce the typed
// *mcu.Mcu record spec.md §1 treats as an opaque, externally-ingested input
// ("microcontroller XML ingestion... consumed as a typed Mcu record"): the
// solver core never parses a vendor pinout format itself, and this is the
// minimal stand-in a command-line host needs to hand it one.
type mcuFile struct {
	Name    string       `yaml:"name"`
	Package string       `yaml:"package"`
	Pins    []mcuPinFile `yaml:"pins"`
}

type mcuPinFile struct {
	Name     string   `yaml:"name"`
	Position string   `yaml:"position"`
	Kind     string   `yaml:"kind"`
	Signals  []string `yaml:"signals"`
}

var pinKindByName = map[string]mcu.PinKind{
	"io":      mcu.KindIO,
	"power":   mcu.KindPower,
	"reset":   mcu.KindReset,
	"boot":    mcu.KindBoot,
	"monoio":  mcu.KindMonoIO,
	"mono_io": mcu.KindMonoIO,
}

// LoadMcu reads an MCU fixture from path and normalizes it through
// mcu.New.
func LoadMcu(path string) (*mcu.Mcu, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mcu file: %w", err)
	}

	var mf mcuFile
	if err := yaml.Unmarshal(data, &mf); err != nil {
		return nil, fmt.Errorf("parse mcu file %s: %w", path, err)
	}

	rawPins := make([]mcu.RawPin, len(mf.Pins))
	for i, p := range mf.Pins {
		kind, ok := pinKindByName[p.Kind]
		if !ok {
			return nil, fmt.Errorf("mcu file %s: pin %s: unknown kind %q", path, p.Name, p.Kind)
		}
		rawPins[i] = mcu.RawPin{
			Name:       p.Name,
			Position:   p.Position,
			Kind:       kind,
			RawSignals: p.Signals,
		}
	}
	return mcu.New(mf.Name, mf.Package, rawPins), nil
}
