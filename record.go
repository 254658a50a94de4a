// FILE: lixenwraith/crashlog/record.go
package crashlog

import (
	"fmt"

	"github.com/lixenwraith/crashlog/formatter"
)

// logArgs handles the variadic entry points. depth counts the frames between
// logArgs and the user call site.
func (l *Logger) logArgs(level int64, depth int, args []any) {
	if level < LevelFatal && level < l.getConfig().Level {
		return
	}
	var loc *Location
	if l.getConfig().ShowLocation {
		loc = location(depth + 1)
	}
	l.output(level, formatter.Args(args...), loc, depth+1)
}

// logFormat handles the printf-style entry points
func (l *Logger) logFormat(level int64, depth int, format string, args []any) {
	if level < LevelFatal && level < l.getConfig().Level {
		return
	}
	var loc *Location
	if l.getConfig().ShowLocation {
		loc = location(depth + 1)
	}
	l.output(level, fmt.Sprintf(format, args...), loc, depth+1)
}

// Debug logs a message at debug level
func (l *Logger) Debug(args ...any) {
	l.logArgs(LevelDebug, 1, args)
}

// Info logs a message at info level
func (l *Logger) Info(args ...any) {
	l.logArgs(LevelInfo, 1, args)
}

// Warn logs a message at warning level
func (l *Logger) Warn(args ...any) {
	l.logArgs(LevelWarn, 1, args)
}

// Crit logs a message at critical level
func (l *Logger) Crit(args ...any) {
	l.logArgs(LevelCrit, 1, args)
}

// Fatal logs a message at fatal level, then dumps the caller's stack, marks
// the fatal flag and runs wrapup before returning
func (l *Logger) Fatal(args ...any) {
	l.logArgs(LevelFatal, 1, args)
}

// Debugf logs a formatted message at debug level
func (l *Logger) Debugf(format string, args ...any) {
	l.logFormat(LevelDebug, 1, format, args)
}

// Infof logs a formatted message at info level
func (l *Logger) Infof(format string, args ...any) {
	l.logFormat(LevelInfo, 1, format, args)
}

// Warnf logs a formatted message at warning level
func (l *Logger) Warnf(format string, args ...any) {
	l.logFormat(LevelWarn, 1, format, args)
}

// Critf logs a formatted message at critical level
func (l *Logger) Critf(format string, args ...any) {
	l.logFormat(LevelCrit, 1, format, args)
}

// Fatalf logs a formatted message at fatal level, see Fatal
func (l *Logger) Fatalf(format string, args ...any) {
	l.logFormat(LevelFatal, 1, format, args)
}
