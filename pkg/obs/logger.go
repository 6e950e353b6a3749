// Package obs provides the pipeline's logging helper, built directly on
// the stdlib log package (log.Printf, log.Fatalf) rather than a
// structured-logging library. It gives every stage a tagged prefix so a
// run's log lines can be told apart, the way a worker pool embeds a
// worker ID in each log line.
package obs

import (
	"fmt"
	"log"
)

// Logger prefixes every line with a stage tag and, if set, a run ID.
type Logger struct {
	stage string
	runID string
}

// New returns a Logger for the given pipeline stage name.
func New(stage string) *Logger {
	return &Logger{stage: stage}
}

// WithRun returns a copy of the logger tagged with a run ID, so every line
// an invocation produces can be correlated across stages.
func (l *Logger) WithRun(runID string) *Logger {
	return &Logger{stage: l.stage, runID: runID}
}

func (l *Logger) prefix() string {
	if l.runID == "" {
		return fmt.Sprintf("[%s] ", l.stage)
	}
	return fmt.Sprintf("[%s run=%s] ", l.stage, l.runID)
}

// Printf logs an informational line.
func (l *Logger) Printf(format string, args ...any) {
	log.Printf(l.prefix()+format, args...)
}

// Warnf logs a recoverable-condition line.
func (l *Logger) Warnf(format string, args ...any) {
	log.Printf(l.prefix()+"WARN: "+format, args...)
}

// Errorf logs a non-fatal error line.
func (l *Logger) Errorf(format string, args ...any) {
	log.Printf(l.prefix()+"ERROR: "+format, args...)
}
