// Package diag provides the verbose/quiet progress-printing helpers
// used throughout the pipeline, so the verbose guard is not repeated at
// every call site.
package diag

import (
	"fmt"
	"io"
	"os"
)

// Logger gates progress output on a verbose flag. The zero value writes
// to os.Stderr and is silent until Verbose is set.
type Logger struct {
	Verbose bool
	Out     io.Writer
}

// New returns a Logger writing to os.Stderr.
func New(verbose bool) *Logger {
	return &Logger{Verbose: verbose, Out: os.Stderr}
}

func (l *Logger) out() io.Writer {
	if l.Out != nil {
		return l.Out
	}
	return os.Stderr
}

// Verbosef prints a progress line only when Verbose is set.
func (l *Logger) Verbosef(format string, args ...any) {
	if l == nil || !l.Verbose {
		return
	}
	fmt.Fprintf(l.out(), format+"\n", args...)
}

// Errorf always prints, regardless of Verbose - fatal conditions and
// captured tool stderr are never suppressed.
func (l *Logger) Errorf(format string, args ...any) {
	fmt.Fprintf(l.out(), format+"\n", args...)
}
