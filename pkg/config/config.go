// Package config resolves termwm's small set of startup settings: which
// shell to spawn inside each window, and the compositor's redraw
// cadence. Grounded on original_source/src/main.rs's inline shell
// resolution (the original has no separate config module; this package
// exists so cmd/termwm can wire it through spf13/cobra flags instead of
// raw env.args_os()).
package config

import (
	"os"
	"time"

	"github.com/jD91mZM2/termwm/pkg/applog"
)

// DefaultShell is used when neither a CLI argument nor $SHELL is set.
const DefaultShell = "bash"

// RedrawInterval is the compositor's redraw cadence (spec.md's
// REDRAW_TIMER). It is deliberately tiny: the loop redraws as fast as
// the poll can return, not on a human-perceptible tick.
const RedrawInterval = time.Microsecond

// Config holds termwm's resolved startup settings.
type Config struct {
	Shell     string
	Debug     bool
	DebugAddr string
}

// Resolve builds a Config from cobra's parsed flags: shellArg is the
// optional positional shell override, debugAddr the --debug-addr flag.
func Resolve(shellArg, debugAddr string) Config {
	return Config{
		Shell:     ResolveShell(shellArg),
		Debug:     applog.DebugEnabled(),
		DebugAddr: debugAddr,
	}
}

// ResolveShell returns flagValue if set, else $SHELL, else DefaultShell
// — the same fallback chain as the original's
// `args.skip(1).next().or_else(|| env::var_os("SHELL"))...unwrap_or("bash")`.
func ResolveShell(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if shell := os.Getenv("SHELL"); shell != "" {
		return shell
	}
	return DefaultShell
}
