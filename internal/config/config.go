// Package config loads Rhythm's environment-derived configuration,
// layered underneath explicit CLI flags (a flag always wins over the
// environment default it overrides).
package config

import (
	"github.com/caarlos0/env/v6"
)

// Config holds every environment-tunable knob the interpreter reads at
// startup.
type Config struct {
	// Trace enables VM opcode tracing via rtlog when set.
	Trace bool `env:"RHYTHM_TRACE" envDefault:"false"`

	// MaxConstants bounds a single chunk's constant pool (the compiler's
	// "too many constants" error). Lowering it lets tests exercise that
	// error without constructing tens of thousands of literals.
	MaxConstants int `env:"RHYTHM_MAX_CONSTANTS" envDefault:"65535"`

	// StackSize is the VM's preallocated operand stack capacity. The
	// stack may grow past it; open upvalues refer to slots by index.
	StackSize int `env:"RHYTHM_STACK_SIZE" envDefault:"4096"`

	// HistoryFile is where the REPL persists readline history.
	HistoryFile string `env:"RHYTHM_HISTORY_FILE" envDefault:"~/.rhythm_history"`
}

// Load reads Config from the environment, applying the defaults above
// for anything unset.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
