package utils

import (
	"fmt"
	"log"
	"os"
	"time"
)

// Logger writes leveled, timestamped lines. Debug output stays silent
// unless the DEBUG environment variable is set, so batch runs aren't
// drowned in per-URL extraction detail.
type Logger struct {
	out     *log.Logger
	errOut  *log.Logger
	debugOn bool
}

// NewLogger creates a Logger writing to stdout, with errors on stderr.
func NewLogger() *Logger {
	return &Logger{
		out:     log.New(os.Stdout, "", 0),
		errOut:  log.New(os.Stderr, "", 0),
		debugOn: os.Getenv("DEBUG") != "",
	}
}

func (l *Logger) line(dst *log.Logger, level, format string, args ...any) {
	stamp := time.Now().Format("2006-01-02 15:04:05")
	dst.Printf(fmt.Sprintf("[%s] %s %s\n", stamp, level, format), args...)
}

func (l *Logger) Info(format string, args ...any) {
	l.line(l.out, "\033[32mINFO\033[0m ", format, args...)
}

func (l *Logger) Warn(format string, args ...any) {
	l.line(l.out, "\033[33mWARN\033[0m ", format, args...)
}

func (l *Logger) Error(format string, args ...any) {
	l.line(l.errOut, "\033[31mERROR\033[0m", format, args...)
}

func (l *Logger) Debug(format string, args ...any) {
	if !l.debugOn {
		return
	}
	l.line(l.out, "\033[36mDEBUG\033[0m", format, args...)
}
