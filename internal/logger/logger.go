package logger

import (
	"io"
	"log"
	"os"
)

// Log flags
const (
	LstdFlags     = log.LstdFlags
	Lmicroseconds = log.Lmicroseconds
)

// Logger wraps the standard log.Logger with a verbose switch.
// Match output never goes through the logger; it only carries
// informational and progress lines.
type Logger struct {
	*log.Logger
	verbose bool
}

// New creates a new logger writing to stderr, keeping stdout free for
// match records.
func New() *Logger {
	return &Logger{
		Logger: log.New(os.Stderr, "", log.LstdFlags),
	}
}

// NewWriter creates a new logger that writes to the provided writer
func NewWriter(w io.Writer) *Logger {
	return &Logger{
		Logger: log.New(w, "", log.LstdFlags),
	}
}

// Discard returns a logger that drops everything. Used by tests.
func Discard() *Logger {
	return NewWriter(io.Discard)
}

// SetOutput sets the output destination for the logger
func (l *Logger) SetOutput(w io.Writer) {
	l.Logger.SetOutput(w)
}

// SetFlags sets the output flags for the logger
func (l *Logger) SetFlags(flag int) {
	l.Logger.SetFlags(flag)
}

// SetVerbose enables Verbosef output.
func (l *Logger) SetVerbose(v bool) {
	l.verbose = v
}

// Verbose reports whether verbose output is enabled.
func (l *Logger) Verbose() bool {
	return l.verbose
}

// Verbosef logs only when verbose output is enabled.
func (l *Logger) Verbosef(format string, args ...any) {
	if l.verbose {
		l.Printf(format, args...)
	}
}
