package logger

import (
	"io"
	"log"
	"os"

	"github.com/ttacon/chalk"
)

// Logger is an alias used by services and the simulation core for dependency injection.
type Logger = log.Logger

const flags = log.LstdFlags | log.Lmicroseconds | log.LUTC

// New returns a standard logger with a colored, consistent service prefix.
func New(service string) *Logger {
	return log.New(os.Stdout, chalk.Cyan.Color("["+service+"]")+" ", flags)
}

// NewTo writes to w with a plain prefix; used where output is captured.
func NewTo(w io.Writer, service string) *Logger {
	return log.New(w, "["+service+"] ", flags)
}

// Discard drops everything; the default when no logger is injected.
func Discard() *Logger {
	return log.New(io.Discard, "", 0)
}
