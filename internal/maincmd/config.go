package maincmd

import (
	"time"

	"github.com/caarlos0/env/v6"
)

// envDefaults holds the solver limits the `solve` subcommand falls back to
// when a flag is not given, sourced from the environment the same way the
// rest of the retrieved pack's CLI tools default runtime knobs before
// parsing explicit arguments (spec.md's ambient-stack expansion, §1).
type envDefaults struct {
	Strategy             string  `env:"PINSOLVE_STRATEGY" envDefault:"s1"`
	MaxSolutions         int     `env:"PINSOLVE_MAX_SOLUTIONS" envDefault:"10"`
	TimeoutMS            int     `env:"PINSOLVE_TIMEOUT_MS" envDefault:"5000"`
	NumRestarts          int     `env:"PINSOLVE_NUM_RESTARTS" envDefault:"5"`
	MaxGroups            int     `env:"PINSOLVE_MAX_GROUPS" envDefault:"20"`
	MaxSolutionsPerGroup int     `env:"PINSOLVE_MAX_SOLUTIONS_PER_GROUP" envDefault:"5"`
	DebugPinWeight       float64 `env:"PINSOLVE_COST_DEBUG_PIN_WEIGHT" envDefault:"0"`
}

func (d envDefaults) timeout() time.Duration {
	return time.Duration(d.TimeoutMS) * time.Millisecond
}

// loadEnvDefaults reads envDefaults from the process environment, applying
// its envDefault tags when a variable is unset.
func loadEnvDefaults() (envDefaults, error) {
	var d envDefaults
	if err := env.Parse(&d); err != nil {
		return envDefaults{}, err
	}
	return d, nil
}
