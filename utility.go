// FILE: lixenwraith/crashlog/utility.go
package crashlog

import (
	"bytes"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"strings"
)

var (
	ErrAlreadyCreated   = errors.New("instance already created")
	ErrPhase            = errors.New("bootstrap already finished")
	ErrNotOwner         = errors.New("operation restricted to the goroutine that created the instance")
	ErrWorkerRunning    = errors.New("worker is still running")
	ErrWorkersRemaining = errors.New("registered workers remain")
	ErrDestroyed        = errors.New("instance destroyed")
	ErrForeignWorker    = errors.New("worker belongs to another instance")
	ErrWorkerCleaned    = errors.New("worker already cleaned up")
)

// fmtErrorf wrapper
func fmtErrorf(format string, args ...any) error {
	if !strings.HasPrefix(format, "crashlog: ") {
		format = "crashlog: " + format
	}
	return fmt.Errorf(format, args...)
}

// combineErrors helper
func combineErrors(err1, err2 error) error {
	if err1 == nil {
		return err2
	}
	if err2 == nil {
		return err1
	}
	return fmt.Errorf("%v; %w", err1, err2)
}

// parseKeyValue splits a "key=value" string.
func parseKeyValue(arg string) (string, string, error) {
	parts := strings.SplitN(strings.TrimSpace(arg), "=", 2)
	if len(parts) != 2 {
		return "", "", fmtErrorf("invalid format in override string '%s', expected key=value", arg)
	}
	key := strings.TrimSpace(parts[0])
	value := strings.TrimSpace(parts[1])
	if key == "" {
		return "", "", fmtErrorf("key cannot be empty in override string '%s'", arg)
	}
	return key, value, nil
}

// Level converts level string to numeric constant.
func Level(levelStr string) (int64, error) {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn":
		return LevelWarn, nil
	case "crit":
		return LevelCrit, nil
	case "fatal":
		return LevelFatal, nil
	default:
		return 0, fmtErrorf("invalid level string: '%s' (use debug, info, warn, crit, fatal)", levelStr)
	}
}

// levelTag maps a level to its fixed-width record tag
func levelTag(level int64) string {
	switch {
	case level >= LevelFatal:
		return tagFatal
	case level >= LevelCrit:
		return tagCrit
	case level >= LevelWarn:
		return tagWarn
	case level >= LevelInfo:
		return tagInfo
	default:
		return tagDebug
	}
}

// currentGoroutineID parses the id out of the "goroutine N [" stack header.
// Ids are never reused by the runtime, so they are safe cache keys.
func currentGoroutineID() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	b := bytes.TrimPrefix(buf[:n], []byte("goroutine "))
	if i := bytes.IndexByte(b, ' '); i > 0 {
		b = b[:i]
	}
	id, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return -1
	}
	return id
}
