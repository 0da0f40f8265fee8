// Package logging builds the logr loggers used by the driver and CLI.
package logging

import (
	"fmt"
	"io"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
)

// New returns a logger writing one line per entry to w. Entries with a
// V level above verbosity are dropped.
func New(w io.Writer, verbosity int) logr.Logger {
	return funcr.New(func(prefix, args string) {
		if prefix != "" {
			fmt.Fprintf(w, "%s %s: %s\n", time.Now().Format("15:04:05.000"), prefix, args)
			return
		}
		fmt.Fprintf(w, "%s %s\n", time.Now().Format("15:04:05.000"), args)
	}, funcr.Options{
		Verbosity: verbosity,
		LogCaller: funcr.None,
	})
}

// Verbosity maps the --verbose and --debug flags to a V level.
func Verbosity(verbose bool, debug bool) int {
	switch {
	case debug:
		return 2
	case verbose:
		return 1
	default:
		return 0
	}
}
