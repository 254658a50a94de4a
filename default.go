// --- File: default.go ---
package crashlog

import (
	"sync/atomic"
	"time"
)

// active is the single live instance, set by CreateInstance and cleared by Destruct
var active atomic.Pointer[Logger]

// Instance returns the live logger, nil before CreateInstance or after Destruct
func Instance() *Logger {
	return active.Load()
}

// Package-level functions delegate to the live instance and drop the record when there is none

// Debug logs a message at debug level
func Debug(args ...any) {
	if l := active.Load(); l != nil {
		l.logArgs(LevelDebug, 1, args)
	}
}

// Info logs a message at info level
func Info(args ...any) {
	if l := active.Load(); l != nil {
		l.logArgs(LevelInfo, 1, args)
	}
}

// Warn logs a message at warning level
func Warn(args ...any) {
	if l := active.Load(); l != nil {
		l.logArgs(LevelWarn, 1, args)
	}
}

// Crit logs a message at critical level
func Crit(args ...any) {
	if l := active.Load(); l != nil {
		l.logArgs(LevelCrit, 1, args)
	}
}

// Fatal logs a message at fatal level and runs the fatal path
func Fatal(args ...any) {
	if l := active.Load(); l != nil {
		l.logArgs(LevelFatal, 1, args)
	}
}

// Debugf logs a formatted message at debug level
func Debugf(format string, args ...any) {
	if l := active.Load(); l != nil {
		l.logFormat(LevelDebug, 1, format, args)
	}
}

// Infof logs a formatted message at info level
func Infof(format string, args ...any) {
	if l := active.Load(); l != nil {
		l.logFormat(LevelInfo, 1, format, args)
	}
}

// Warnf logs a formatted message at warning level
func Warnf(format string, args ...any) {
	if l := active.Load(); l != nil {
		l.logFormat(LevelWarn, 1, format, args)
	}
}

// Critf logs a formatted message at critical level
func Critf(format string, args ...any) {
	if l := active.Load(); l != nil {
		l.logFormat(LevelCrit, 1, format, args)
	}
}

// Fatalf logs a formatted message at fatal level and runs the fatal path
func Fatalf(format string, args ...any) {
	if l := active.Load(); l != nil {
		l.logFormat(LevelFatal, 1, format, args)
	}
}

// Elapsed returns the live instance's elapsed time, zero without one
func Elapsed() time.Duration {
	if l := active.Load(); l != nil {
		return l.Elapsed()
	}
	return 0
}

// Guard recovers a panic on the calling goroutine and sends it through the
// live instance's trap. Without an instance the panic continues.
//
//	defer crashlog.Guard()
func Guard() {
	r := recover()
	if r == nil {
		return
	}
	l := active.Load()
	if l == nil {
		panic(r)
	}
	l.trap.panicked(r, l.router.worker(l.registry, currentGoroutineID()))
}
