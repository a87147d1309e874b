package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/optistoch/sddp/pkg/core"
)

// Simulation controls the Monte-Carlo statistical bound.
type Simulation struct {
	// Frequency runs a simulation round every Frequency completed
	// iterations. 0 disables simulation entirely.
	Frequency int `yaml:"frequency" mapstructure:"frequency"`

	// Min, Step and Max schedule the per-round sample counts: the round
	// starts at Min simulations and grows by Step while the deterministic
	// bound stays inside the confidence interval, up to Max.
	Min  int `yaml:"min" mapstructure:"min"`
	Step int `yaml:"step" mapstructure:"step"`
	Max  int `yaml:"max" mapstructure:"max"`

	// Confidence is the confidence level of the interval, e.g. 0.95.
	Confidence float64 `yaml:"confidence" mapstructure:"confidence"`

	// Terminate stops the solve with StatusConverged when the deterministic
	// bound is still inside the interval after Max simulations.
	Terminate bool `yaml:"terminate" mapstructure:"terminate"`
}

// Stalling controls the bound-stalling stopping rule: over the most recent
// Iterations log entries, stop when the maximum absolute deviation of the
// deterministic bound from its window mean is within Atol or Rtol*|mean|.
type Stalling struct {
	// Iterations is the window length. 0 disables the rule.
	Iterations int `yaml:"iterations" mapstructure:"iterations"`

	Atol float64 `yaml:"atol" mapstructure:"atol"`
	Rtol float64 `yaml:"rtol" mapstructure:"rtol"`
}

// Settings is the immutable configuration snapshot for one solve call.
type Settings struct {
	// MaxIterations is a hard cap checked every iteration. 0 means no cap.
	MaxIterations int `yaml:"maxIterations" mapstructure:"maxIterations"`

	// TimeLimit is a hard wall-clock cap checked every iteration. 0 means no
	// cap.
	TimeLimit time.Duration `yaml:"timeLimit" mapstructure:"timeLimit"`

	Simulation Simulation `yaml:"simulation" mapstructure:"simulation"`
	Stalling   Stalling   `yaml:"stalling" mapstructure:"stalling"`

	// CutSelectionFrequency runs level-one cut selection every N iterations.
	// 0 keeps every cut active.
	CutSelectionFrequency int `yaml:"cutSelectionFrequency" mapstructure:"cutSelectionFrequency"`

	// Async distributes iterations across Workers parallel workers. The
	// iteration count and exact cut sets are then non-deterministic; only
	// the convergence guarantee is preserved.
	Async   bool `yaml:"async" mapstructure:"async"`
	Workers int  `yaml:"workers" mapstructure:"workers"`

	// Seed fixes the sampling RNG. 0 seeds from the clock.
	Seed int64 `yaml:"seed" mapstructure:"seed"`
}

// Default returns the settings used when a field is not configured.
func Default() Settings {
	return Settings{
		MaxIterations: 100,
		Simulation: Simulation{
			Frequency:  0,
			Min:        20,
			Step:       20,
			Max:        100,
			Confidence: 0.95,
		},
		Stalling: Stalling{
			Iterations: 5,
			Rtol:       1e-4,
		},
		Workers: 4,
	}
}

// Validate checks the settings before any solving begins.
func (s *Settings) Validate() error {
	if s.MaxIterations < 0 {
		return core.Validationf("maxIterations is %d, want >= 0", s.MaxIterations)
	}
	if s.TimeLimit < 0 {
		return core.Validationf("timeLimit is %v, want >= 0", s.TimeLimit)
	}
	if s.MaxIterations == 0 && s.TimeLimit == 0 && s.Stalling.Iterations == 0 && !s.Simulation.Terminate {
		return core.Validationf("no stopping rule configured: set maxIterations, timeLimit, stalling or simulation.terminate")
	}
	if s.Simulation.Frequency < 0 {
		return core.Validationf("simulation.frequency is %d, want >= 0", s.Simulation.Frequency)
	}
	if s.Simulation.Frequency > 0 {
		if s.Simulation.Min <= 0 || s.Simulation.Max < s.Simulation.Min {
			return core.Validationf("simulation schedule min=%d max=%d, want 0 < min <= max", s.Simulation.Min, s.Simulation.Max)
		}
		if s.Simulation.Step <= 0 {
			return core.Validationf("simulation.step is %d, want > 0", s.Simulation.Step)
		}
		if s.Simulation.Confidence <= 0 || s.Simulation.Confidence >= 1 {
			return core.Validationf("simulation.confidence is %v, want (0, 1)", s.Simulation.Confidence)
		}
	}
	if s.Simulation.Terminate && s.Simulation.Frequency == 0 {
		return core.Validationf("simulation.terminate requires simulation.frequency > 0")
	}
	if s.Stalling.Iterations < 0 {
		return core.Validationf("stalling.iterations is %d, want >= 0", s.Stalling.Iterations)
	}
	if s.Stalling.Atol < 0 || s.Stalling.Rtol < 0 {
		return core.Validationf("stalling tolerances atol=%v rtol=%v, want >= 0", s.Stalling.Atol, s.Stalling.Rtol)
	}
	if s.CutSelectionFrequency < 0 {
		return core.Validationf("cutSelectionFrequency is %d, want >= 0", s.CutSelectionFrequency)
	}
	if s.Async && s.Workers <= 0 {
		return core.Validationf("async mode needs workers > 0, got %d", s.Workers)
	}
	return nil
}

// Dump renders the settings as YAML, for logging the effective
// configuration of a run.
func (s Settings) Dump() (string, error) {
	out, err := yaml.Marshal(s)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Load reads settings from a YAML file, layered over Default and overridden
// by SDDP_* environment variables.
func Load(path string) (Settings, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("SDDP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	s := Default()
	if err := v.ReadInConfig(); err != nil {
		return Settings{}, err
	}
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, err
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}
