// Package vmconfig holds the process-wide tunables that shape a vm.VM
// without changing language semantics: GC stress-testing, a runaway-script
// step budget, and the debug-trace log level (spec.md §6, SPEC_FULL.md §6).
//
// It is grounded on the teacher's env-var plumbing
// (github.com/caarlos0/env/v6, already an indirect dependency of
// cmd/nenuphar's mainer.Parser) rather than on additional CLI flags, since
// these are meant to be set once per process (CI, a fuzzer, a benchmark
// harness) rather than typed at the REPL every run.
package vmconfig

import "github.com/caarlos0/env/v6"

// Config is parsed once at process start from LOXVM_-prefixed environment
// variables.
type Config struct {
	// StressGC forces a collection on every heap allocation, the Go
	// rendering of clox's DEBUG_STRESS_GC build flag.
	StressGC bool `env:"LOXVM_STRESS_GC" envDefault:"false"`

	// MaxSteps bounds the number of bytecode instructions a single
	// Interpret call may execute before aborting with a runtime error. Zero
	// means unlimited.
	MaxSteps int64 `env:"LOXVM_MAX_STEPS" envDefault:"0"`

	// LogLevel selects the xlog handler's minimum level: "debug", "info",
	// "warn", or "error". Anything else is treated as "warn".
	LogLevel string `env:"LOXVM_LOG_LEVEL" envDefault:"warn"`
}

// Load parses Config from the environment, using each field's envDefault
// value for any variable that isn't set.
func Load() (Config, error) {
	var c Config
	if err := env.Parse(&c); err != nil {
		return Config{}, err
	}
	return c, nil
}
