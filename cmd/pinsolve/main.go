// Command pinsolve is the command-line host for the pin-assignment
// constraint solver: it parses constraint programs, loads MCU fixtures,
// drives the solver core, and prints ranked solutions as YAML. Adapted
// from nenuphar's own cmd/nenuphar entry point.
package main

import (
	"os"

	"github.com/mna/mainer"
	"github.com/pinsolve/pinsolve/internal/maincmd"
)

var (
	// placeholder values, replaced on build
	version   = "{v}" // must be N.N[.N]
	buildDate = "{d}" // must be YYYY-mm-DD
)

func main() {
	c := maincmd.Cmd{BuildVersion: version, BuildDate: buildDate}
	os.Exit(int(c.Main(os.Args, mainer.CurrentStdio())))
}
