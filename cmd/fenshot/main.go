package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	appcfg "github.com/park285/fenshot/internal/config"
	"github.com/park285/fenshot/internal/obslog"
	"go.uber.org/zap"
)

const usage = `fenshot renders chess positions (FEN) to PNG, JPEG or SVG.

Usage:
  fenshot render   [flags] FEN      export one board
  fenshot batch    [flags] FILE     export every FEN in a CSV file (first column)
  fenshot serve    [flags]          run the HTTP API
  fenshot status   [flags] [ID]     show batch progress (all ids when ID is omitted)
  fenshot validate FEN...           check FEN records
  fenshot random                    print a random valid position

Run "fenshot <command> -h" for command flags. Defaults come from FENSHOT_CONFIG,
the environment and a .env file in the working directory.
`

func main() {
	_ = godotenv.Load()
	if err := obslog.InitFromEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "logger init: %v\n", err)
	}
	defer func() { _ = obslog.L().Sync() }()

	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		fmt.Fprint(stderr, usage)
		if len(args) == 0 {
			return 2
		}
		return 0
	}
	cfg, err := appcfg.Load()
	if err != nil {
		fmt.Fprintf(stderr, "config error: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &app{cfg: cfg, stdout: stdout, stderr: stderr, logger: obslog.L()}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "render":
		err = app.render(ctx, rest)
	case "batch":
		// batch handles its own signals so the in-flight job can finish.
		stop()
		err = app.batch(context.Background(), rest)
	case "serve":
		err = app.serve(ctx, rest)
	case "status":
		err = app.status(ctx, rest)
	case "validate":
		err = app.validate(rest)
	case "random":
		err = app.random()
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", cmd, usage)
		return 2
	}
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		var ee exitError
		if errors.As(err, &ee) {
			return int(ee)
		}
		app.logger.Error("command_failed", zap.String("command", cmd), zap.Error(err))
		fmt.Fprintf(stderr, "fenshot %s: %v\n", cmd, err)
		return 1
	}
	return 0
}

// exitError carries an exit status for failures already reported to the user.
type exitError int

func (e exitError) Error() string { return fmt.Sprintf("exit status %d", int(e)) }
