// gopipe - Go PiPe
//
// Weaves short Go fragments into a per-record text-processing program and
// prints, saves or runs it against standard input.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"slices"

	"github.com/kolkov/gopipe"
)

// version is set at build time via -ldflags.
// For development builds, it falls back to the library version.
var version = gopipe.Version

// firstArgs are the arguments that may start a command line without the
// implied "line" command.
var firstArgs = []string{
	"line", "l", "rec", "r", "record", "csv", "text", "t", "file", "f", "custom", "c",
	"help", "completion", "-h", "--help", "-V", "--version",
}

// normalizeArgs inserts the default "line" command when the first argument
// is not a command, help or version flag.
func normalizeArgs(args []string) []string {
	if len(args) > 0 && slices.Contains(firstArgs, args[0]) {
		return args
	}
	return append([]string{"line"}, args...)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root := newRootCmd()
	root.SetArgs(normalizeArgs(os.Args[1:]))

	err := root.ExecuteContext(ctx)
	if err == nil {
		return
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		// Interrupted by the user: not an error.
		os.Exit(0)
	}
	if code, ok := gopipe.IsExitError(err); ok {
		os.Exit(code)
	}
	errorExit(err)
}

// errorExitf prints formatted error message and exits with code 1
func errorExitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "gopipe: "+format+"\n", args...)
	os.Exit(1)
}

// errorExit prints error and exits with code 1
func errorExit(err error) {
	errorExitf("%v", err)
}
