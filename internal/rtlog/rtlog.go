// Package rtlog wraps a configured logrus.Logger for developer-facing
// diagnostics: VM opcode tracing, REPL startup, subcommand wiring. It
// never carries the language's own print/printf output, which always
// goes directly to stdout (spec.md's own output channel).
package rtlog

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Log is the package-level logger every subcommand and the VM's trace
// mode write through.
var Log = logrus.New()

func init() {
	Log.SetOutput(os.Stderr)
	Log.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
	})
	Log.SetLevel(logrus.InfoLevel)
}

// EnableTrace raises the logger to Debug level, used by RHYTHM_TRACE=1
// and the `-d/--disasm` CLI flag to turn on per-opcode VM tracing.
func EnableTrace() {
	Log.SetLevel(logrus.DebugLevel)
}
