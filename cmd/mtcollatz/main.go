// Package main implements the mtcollatz command.
//
// mtcollatz computes the histogram of Collatz stopping times for every
// integer in [2, max] using a fixed pool of worker goroutines that share one
// cursor. With --nolock the cursor and histogram are updated without
// synchronization, which demonstrates lost updates and double processing.
//
// Usage:
//
//	mtcollatz run 1000000 8             # histogram on stdout, timing on stderr
//	mtcollatz run 1000000 8 --nolock    # same, without the cursor mutex
//	mtcollatz bench 1000000 --threads 1,2,4,8 --trials 5
//	mtcollatz version --require v0.4.0
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
)

func main() {
	os.Exit(dispatch(os.Args[1:], os.Stdout, os.Stderr))
}

// dispatch runs the subcommand named by args[0] and returns the exit code.
func dispatch(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		printUsage(stderr)
		return 1
	}

	var err error

	switch args[0] {
	case "run":
		err = runCommand(args[1:], stdout, stderr)
	case "bench":
		err = benchCommand(args[1:], stdout, stderr)
	case "version", "--version", "-v":
		err = versionCommand(args[1:], stdout)
	case "help", "--help", "-h":
		printUsage(stdout)
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n\n", args[0])
		printUsage(stderr)

		return 1
	}

	if errors.Is(err, pflag.ErrHelp) {
		return 0
	}

	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	return 0
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `mtcollatz - multi-threaded Collatz stopping-time histogram

USAGE:
    mtcollatz <command> [arguments]

COMMANDS:
    run        Compute the histogram of [2, max] with a worker pool
    bench      Time repeated runs over several thread counts
    version    Show version information
    help       Show this help message

RUN:
    mtcollatz run <max> <threads> [--nolock] [--bound B] [--audit] [--ledger] [--metrics]

    Prints "<k = i>, <count>" for i in 1..B on stdout and
    "<max> <threads>, <seconds>" on stderr.

BENCH:
    mtcollatz bench <max> [--threads 1,2,4,8] [--trials 5] [--nolock]

CONFIGURATION:
    Every flag can also be set with an MTCOLLATZ_ environment variable
    (MTCOLLATZ_NOLOCK=true, MTCOLLATZ_LOG_LEVEL=debug, MTCOLLATZ_MAX_VALUE=1000)
    or in a file given with --config.

`)
}
