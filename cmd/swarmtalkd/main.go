// Package main implements the swarmtalkd CLI: run the gossip node, manage
// its long-term identity, and print build information.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "run":
		if err := runCommand(os.Args[2:]); err != nil {
			exitFor(err)
		}
	case "identity":
		if err := identityCommand(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "version", "--version", "-v":
		printVersion()
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printVersion() {
	fmt.Printf("swarmtalkd %s (built %s)\n", version, buildTime)
}

func printUsage() {
	fmt.Print(`swarmtalkd - peer-to-peer gossip chat node

Usage:
  swarmtalkd run [-config path] [-identity path] [-listen addr] [-seed addr ...]
  swarmtalkd identity generate [-out path]
  swarmtalkd identity show [-path path]
  swarmtalkd version

`)
}

// exitFor maps a StartupError to the non-zero exit code reserved for
// startup failure (spec.md §6); graceful shutdown (nil or a signal-driven
// context cancellation) exits 0.
func exitFor(err error) {
	var startup *StartupError
	if asStartupError(err, &startup) {
		slog.Error("startup failed", "phase", startup.Phase, "error", startup.Err)
		os.Exit(1)
	}
	slog.Error("run failed", "error", err)
	os.Exit(1)
}

func asStartupError(err error, target **StartupError) bool {
	se, ok := err.(*StartupError)
	if ok {
		*target = se
	}
	return ok
}

// signalContext returns a context cancelled on SIGINT/SIGTERM, mirroring
// the graceful-shutdown trigger in spec.md §4.6.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
