// Command termwm is a terminal multiplexer rendered inside a host
// terminal: it composites windowed pseudoterminal sessions onto one
// physical TTY. Grounded on original_source/src/main.rs's startup and
// shutdown sequence, wired through spf13/cobra (a teacher dependency
// the teacher repo itself never exercised — it ships no cmd/ entrypoint
// at all).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jD91mZM2/termwm/pkg/applog"
	"github.com/jD91mZM2/termwm/pkg/config"
	"github.com/jD91mZM2/termwm/pkg/debugserver"
	"github.com/jD91mZM2/termwm/pkg/eventloop"
	"github.com/jD91mZM2/termwm/pkg/ptyproc"
	"github.com/jD91mZM2/termwm/pkg/termmode"
	"github.com/jD91mZM2/termwm/pkg/workspace"
)

func main() {
	var debugAddr string

	root := &cobra.Command{
		Use:   "termwm [shell]",
		Short: "A terminal multiplexer rendered inside your terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			shellFlag := ""
			if len(args) == 1 {
				shellFlag = args[0]
			}
			return run(config.Resolve(shellFlag, debugAddr))
		},
	}
	root.Flags().StringVar(&debugAddr, "debug-addr", "", "loopback address to serve read-only window diagnostics on (e.g. 127.0.0.1:7777); disabled if empty")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cfg config.Config) (err error) {
	log, err := applog.New(cfg.Debug)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer log.Sync()

	size, err := ptyproc.HostSize(os.Stdout)
	if err != nil {
		return fmt.Errorf("query host terminal size: %w", err)
	}

	ws := workspace.New(cfg.Shell, int(size.Cols), int(size.Rows), log)

	loop, err := eventloop.New(ws, os.Stdout, log)
	if err != nil {
		return fmt.Errorf("build event loop: %w", err)
	}
	defer loop.Close()

	if cfg.DebugAddr != "" {
		srv := debugserver.New(ws, log)
		go func() {
			if err := srv.ListenAndServe(cfg.DebugAddr); err != nil {
				log.Warn("debug server stopped", zap.Error(err))
			}
		}()
	}

	session, err := termmode.Enter(int(os.Stdin.Fd()), os.Stdout)
	if err != nil {
		return fmt.Errorf("enter raw mode: %w", err)
	}
	defer func() {
		if r := recover(); r != nil {
			session.Exit()
			panic(r)
		}
		session.Exit()
	}()

	log.Info("termwm starting", zap.String("shell", cfg.Shell))

	return loop.Run()
}
