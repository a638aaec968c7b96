// Package logging provides the leveled filter on top of the standard
// library's log package that spec.md §6.2 asks for ("a standard
// log-filter variable (e.g. RUST_LOG or equivalent) MAY be honored;
// default filter level is INFO"). No example repo in this lineage
// exercises a structured logging library directly from its own code —
// every occurrence is a transitive pull-in from unrelated tooling — so
// plain stdlib log, leveled by hand, matches the corpus's actual
// practice as well as the teacher's.
package logging

import (
	"log"
	"os"
	"strings"
)

// Level is a log severity, ordered low to high.
type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
)

func (l Level) String() string {
	switch l {
	case Debug:
		return "DEBUG"
	case Info:
		return "INFO"
	case Warn:
		return "WARN"
	default:
		return "ERROR"
	}
}

// EnvVar is the environment variable honored for the filter level.
const EnvVar = "TAILSRV_LOG"

var minLevel = levelFromEnv()

func levelFromEnv() Level {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(EnvVar))) {
	case "debug":
		return Debug
	case "warn", "warning":
		return Warn
	case "error":
		return Error
	default:
		return Info
	}
}

// Debugf logs at DEBUG, filtered by TAILSRV_LOG.
func Debugf(format string, args ...any) { logAt(Debug, format, args...) }

// Infof logs at INFO, filtered by TAILSRV_LOG.
func Infof(format string, args ...any) { logAt(Info, format, args...) }

// Warnf logs at WARN, filtered by TAILSRV_LOG.
func Warnf(format string, args ...any) { logAt(Warn, format, args...) }

// Errorf logs at ERROR; never filtered.
func Errorf(format string, args ...any) { logAt(Error, format, args...) }

func logAt(level Level, format string, args ...any) {
	if level < minLevel {
		return
	}
	log.Printf("["+level.String()+"] "+format, args...)
}
