// Command pdfgen renders HTML, Markdown and templates to PDF through the
// Doppio rendering service.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], DefaultEnv())
	stop()
	os.Exit(code)
}

// run dispatches to a subcommand and returns the process exit code.
func run(ctx context.Context, args []string, env *Environment) int {
	if len(args) == 0 {
		printUsage(env.Stderr)
		return ExitUsage
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "render":
		return runRenderCmd(ctx, rest, env)
	case "batch":
		return runBatchCmd(ctx, rest, env)
	case "doctor":
		return runDoctorCmd(rest, env)
	case "set-key":
		return runSetKeyCmd(rest, env)
	case "version", "--version":
		fmt.Fprintf(env.Stdout, "pdfgen %s\n", Version)
		return ExitSuccess
	case "help", "-h", "--help":
		return runHelp(rest, env)
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", cmd)
		printUsage(env.Stderr)
		return ExitUsage
	}
}
