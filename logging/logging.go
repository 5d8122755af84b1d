// Package logging provides leveled, component-scoped console logging for the
// recents packages. Lines are written in a traditional format:
//
//	LEVEL TIMESTAMP [component] message key=value ...
package logging

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// Level represents log severity.
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// Logger writes structured log lines to an io.Writer.
type Logger struct {
	mu        *sync.Mutex
	output    io.Writer
	minLevel  Level
	component string
}

var levelPriority = map[Level]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
}

// ParseLevel maps a level name (case-insensitive) to a Level.
// Unknown names map to LevelInfo.
func ParseLevel(name string) Level {
	lvl := Level(strings.ToUpper(strings.TrimSpace(name)))
	if _, ok := levelPriority[lvl]; ok {
		return lvl
	}
	return LevelInfo
}

// New creates a new Logger writing to stdout at INFO.
func New() *Logger {
	return &Logger{
		mu:       &sync.Mutex{},
		output:   os.Stdout,
		minLevel: LevelInfo,
	}
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	l := New()
	l.output = io.Discard
	l.minLevel = LevelError
	return l
}

// WithComponent returns a new logger with the given component name.
// The derived logger shares the parent's writer and lock.
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		mu:        l.mu,
		output:    l.output,
		minLevel:  l.minLevel,
		component: component,
	}
}

// SetLevel sets the minimum log level.
func (l *Logger) SetLevel(level Level) {
	l.minLevel = level
}

// SetOutput sets the output writer.
func (l *Logger) SetOutput(w io.Writer) {
	l.output = w
}

// Enabled reports whether messages at level would be written.
func (l *Logger) Enabled(level Level) bool {
	return levelPriority[level] >= levelPriority[l.minLevel]
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, fields ...map[string]interface{}) {
	l.log(LevelDebug, msg, fields...)
}

// Info logs an info message.
func (l *Logger) Info(msg string, fields ...map[string]interface{}) {
	l.log(LevelInfo, msg, fields...)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, fields ...map[string]interface{}) {
	l.log(LevelWarn, msg, fields...)
}

// Error logs an error message.
func (l *Logger) Error(msg string, fields ...map[string]interface{}) {
	l.log(LevelError, msg, fields...)
}

// formatFields renders fields as key=value pairs in key order.
func formatFields(fields map[string]interface{}) string {
	if len(fields) == 0 {
		return ""
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, fields[k]))
	}
	return " " + strings.Join(parts, " ")
}

func (l *Logger) log(level Level, msg string, fields ...map[string]interface{}) {
	if l == nil || !l.Enabled(level) {
		return
	}

	timestamp := time.Now().UTC().Format("2006-01-02T15:04:05.000Z")

	var fieldStr string
	if len(fields) > 0 && fields[0] != nil {
		fieldStr = formatFields(fields[0])
	}

	var line string
	if l.component != "" {
		line = fmt.Sprintf("%-5s %s [%s] %s%s\n", level, timestamp, l.component, msg, fieldStr)
	} else {
		line = fmt.Sprintf("%-5s %s %s%s\n", level, timestamp, msg, fieldStr)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.output.Write([]byte(line))
}

// --- Model event helpers ---

// StackReconciled logs the outcome of a task list reconciliation.
func (l *Logger) StackReconciled(added, removed, active, historical int) {
	l.Debug("stack_reconciled", map[string]interface{}{
		"added":      added,
		"removed":    removed,
		"active":     active,
		"historical": historical,
	})
}

// TaskRemoved logs an explicit task removal from one of the projections.
func (l *Logger) TaskRemoved(taskID int, view string, wasFrontMost bool) {
	l.Debug("task_removed", map[string]interface{}{
		"task":       taskID,
		"view":       view,
		"front_most": wasFrontMost,
	})
}

// GroupsBuilt logs the result of an affiliation grouping pass.
func (l *Logger) GroupsBuilt(groups, tasks int, simulated bool) {
	l.Debug("groups_built", map[string]interface{}{
		"groups":    groups,
		"tasks":     tasks,
		"simulated": simulated,
	})
}

// CallbackFailed logs a relay callback that returned an error.
func (l *Logger) CallbackFailed(callback, op string, err error, pruned bool) {
	l.Warn("callback_failed", map[string]interface{}{
		"callback": callback,
		"op":       op,
		"error":    err,
		"pruned":   pruned,
	})
}

// DispatchComplete logs the result of a relay fan-out.
func (l *Logger) DispatchComplete(event string, delivered, failed int, duration time.Duration) {
	l.Debug("dispatch_complete", map[string]interface{}{
		"event":     event,
		"delivered": delivered,
		"failed":    failed,
		"duration":  duration.String(),
	})
}

// ServiceDied logs the terminal service-died broadcast.
func (l *Logger) ServiceDied(callbacks int) {
	l.Info("service_died", map[string]interface{}{
		"callbacks": callbacks,
	})
}
