// FILE: lixenwraith/crashlog/logger.go
package crashlog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/crashlog/formatter"
	"github.com/lixenwraith/crashlog/sanitizer"
)

// Location is the source position appended to a record
type Location = formatter.Location

// Logger is the process-wide diagnostic logger. It buffers records in memory
// until BootstrapFinished opens the main log, gives each registered worker its
// own log file, and turns faults into stack dumps in the right file.
type Logger struct {
	currentConfig atomic.Value // stores *Config
	state         State
	initMu        sync.Mutex // Serializes main log creation and teardown

	owner     int64     // Goroutine that created the logger
	startTime time.Time // Monotonic reference for record headers
	formatter *formatter.Formatter
	bootstrap *bootstrapBuffer
	registry  *registry
	router    router
	trap      *trap
	notifier  atomic.Value // stores notifierHolder
}

// immutableKeys cannot change after creation, files and handlers depend on them
var immutableKeys = map[string]bool{
	"name":                true,
	"directory":           true,
	"extension":           true,
	"bootstrap_buffer_kb": true,
	"sanitize":            true,
	"max_frames":          true,
	"trap_signals":        true,
	"crash_output":        true,
}

// CreateInstance creates the logger and arms the fault trap. A nil cfg uses
// DefaultConfig. Only one logger may exist until it is destructed. The calling
// goroutine becomes the owner: only it may finish bootstrap, manage workers
// and destruct.
func CreateInstance(cfg *Config) (*Logger, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	} else {
		cfg = cfg.Clone()
	}
	if err := cfg.validate(); err != nil {
		return nil, fmtErrorf("invalid configuration: %w", err)
	}

	l := &Logger{
		owner:     currentGoroutineID(),
		startTime: time.Now(),
		bootstrap: newBootstrapBuffer(int(cfg.BootstrapBufferKB * sizeMultiplier)),
		registry:  newRegistry(),
	}
	if !active.CompareAndSwap(nil, l) {
		return nil, fmtErrorf("create rejected: %w", ErrAlreadyCreated)
	}

	l.currentConfig.Store(cfg)
	l.state.Phase.Store(phaseBootstrap)
	l.state.RetainedPath.Store("")

	policy := sanitizer.PolicyRaw
	if cfg.Sanitize {
		policy = sanitizer.PolicyLine
	}
	l.formatter = formatter.New(sanitizer.New().Policy(policy))
	l.setStdoutWriter(cfg)
	l.SetNotifier(nil)

	l.trap = newTrap(l, int(cfg.MaxFrames))
	l.trap.install(cfg)
	return l, nil
}

// MustCreateInstance is CreateInstance that ends the process on failure
func MustCreateInstance(cfg *Config) *Logger {
	l, err := CreateInstance(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(exitCodeFault)
	}
	return l
}

// BootstrapFinished opens the main log, moves the buffered records into it
// verbatim and switches to normal routing. handle anchors the fatal notice.
// Owner goroutine only, exactly once. A returned error means no durable log
// exists and the caller should not continue.
func (l *Logger) BootstrapFinished(handle WindowHandle) error {
	if err := l.checkOwner(); err != nil {
		return err
	}

	l.initMu.Lock()
	defer l.initMu.Unlock()

	if l.state.Destroyed.Load() {
		return fmtErrorf("bootstrap finish rejected: %w", ErrDestroyed)
	}
	if l.state.Phase.Load() != phaseBootstrap {
		return fmtErrorf("bootstrap finish rejected: %w", ErrPhase)
	}

	mf, err := l.openMainLog()
	if err != nil {
		return err
	}
	if err := l.bootstrap.drainTo(mf); err != nil {
		l.state.DroppedRecords.Add(1)
		l.internalLog("failed to flush bootstrap records to '%s': %v\n", mf.path, err)
	}

	l.state.WindowHandle.Store(uintptr(handle))
	l.state.Phase.Store(phaseNormal)

	if l.getConfig().CrashOutput {
		if err := debug.SetCrashOutput(mf.file, debug.CrashOptions{}); err != nil {
			l.internalLog("failed to redirect crash output: %v\n", err)
		}
	}
	return nil
}

// openMainLog returns the main log, creating it on first use. Caller holds initMu.
func (l *Logger) openMainLog() (*logFile, error) {
	if mf := l.state.MainLog.Load(); mf != nil {
		return mf, nil
	}
	mf, err := createLogFile(l.getConfig(), "")
	if err != nil {
		return nil, fmtErrorf("failed to open main log: %w", err)
	}
	l.state.MainLog.Store(mf)
	return mf, nil
}

// spillBootstrap gives a fault during bootstrap a durable destination: the
// buffer is drained into a freshly opened main log, or to stderr if that fails.
// The phase does not change, BootstrapFinished later adopts the file.
func (l *Logger) spillBootstrap() error {
	l.initMu.Lock()
	defer l.initMu.Unlock()

	if l.state.Phase.Load() != phaseBootstrap {
		return nil
	}
	mf, err := l.openMainLog()
	if err != nil {
		return combineErrors(err, l.bootstrap.drainTo(os.Stderr))
	}
	return l.bootstrap.drainTo(mf)
}

// Destruct closes the logger. Every worker must have been cleaned up first.
// The main log is deleted unless a fatal event was recorded or keep_logs is
// set, in which case RetainedLog reports its path. Owner goroutine only.
func (l *Logger) Destruct() error {
	if err := l.checkOwner(); err != nil {
		return err
	}

	l.initMu.Lock()
	defer l.initMu.Unlock()

	if l.state.Destroyed.Load() {
		return fmtErrorf("destruct rejected: %w", ErrDestroyed)
	}
	if n := l.registry.len(); n > 0 {
		return fmtErrorf("destruct rejected with %d worker(s) registered: %w", n, ErrWorkersRemaining)
	}

	l.trap.uninstall()

	c := l.getConfig()
	var finalErr error
	if mf := l.state.MainLog.Load(); mf != nil {
		if c.CrashOutput {
			if err := debug.SetCrashOutput(nil, debug.CrashOptions{}); err != nil {
				finalErr = combineErrors(finalErr, fmtErrorf("failed to reset crash output: %w", err))
			}
		}
		if err := mf.Sync(); err != nil {
			finalErr = combineErrors(finalErr, fmtErrorf("failed to sync main log '%s': %w", mf.path, err))
		}

		fatal := l.state.FatalFlag.Load()
		if fatal || c.KeepLogs {
			if err := mf.Close(); err != nil {
				finalErr = combineErrors(finalErr, fmtErrorf("failed to close main log '%s': %w", mf.path, err))
			}
			l.state.RetainedPath.Store(mf.path)
			if fatal && c.LastLogPointer {
				finalErr = combineErrors(finalErr, writePointerFile(c, mf.path))
			}
		} else if err := removeLogFile(mf); err != nil {
			finalErr = combineErrors(finalErr, err)
		}
	}

	l.state.Destroyed.Store(true)
	active.CompareAndSwap(l, nil)
	return finalErr
}

// GetConfig returns a copy of current configuration
func (l *Logger) GetConfig() *Config {
	return l.getConfig().Clone()
}

// ApplyConfigString applies "key=value" overrides at runtime. Keys that
// shape files or handlers (name, directory, extension, bootstrap_buffer_kb,
// sanitize, max_frames, trap_signals, crash_output) are rejected.
func (l *Logger) ApplyConfigString(overrides ...string) error {
	for _, override := range overrides {
		key, _, err := parseKeyValue(override)
		if err != nil {
			return err
		}
		if immutableKeys[strings.ToLower(key)] {
			return fmtErrorf("configuration key '%s' cannot change after creation", key)
		}
	}

	next := l.getConfig().Clone()
	if err := next.ApplyOverride(overrides...); err != nil {
		return err
	}

	l.currentConfig.Store(next)
	debug.SetTraceback(next.Traceback)
	l.setStdoutWriter(next)
	return nil
}

// Log writes text at level with an optional source location. Fatal level is
// never filtered and runs the dump and wrapup before returning.
func (l *Logger) Log(level int64, text string, loc *Location) {
	l.output(level, text, loc, 1)
}

// Output writes text at level; calldepth 1 attributes the location to the
// caller of Output. For wrappers that forward to the logger.
func (l *Logger) Output(calldepth int, level int64, text string) {
	var loc *Location
	if l.getConfig().ShowLocation {
		loc = location(calldepth)
	}
	l.output(level, text, loc, calldepth)
}

// output routes one record. depth counts the frames between output and the
// user call site.
func (l *Logger) output(level int64, text string, loc *Location, depth int) {
	if l.state.Destroyed.Load() {
		l.state.DroppedRecords.Add(1)
		return
	}
	if level < LevelFatal && level < l.getConfig().Level {
		return
	}

	w, dst := l.resolve()
	l.writeRecord(dst, level, text, loc)

	if level >= LevelFatal {
		l.trap.fatalMessage(text, w, depth)
	}
}

// writeRecord formats and writes one record in a single write. Failures are counted, never returned.
func (l *Logger) writeRecord(dst io.Writer, level int64, text string, loc *Location) {
	rec := l.formatter.Record(l.Elapsed(), levelTag(level), text, loc)
	if _, err := dst.Write(rec); err != nil {
		l.state.DroppedRecords.Add(1)
		l.internalLog("failed to write record: %v\n", err)
		return
	}
	l.state.RecordsWritten.Add(1)
	l.mirror(rec)
}

// location returns the source position skip frames above the caller of location
func location(skip int) *Location {
	_, file, line, ok := runtime.Caller(skip + 1)
	if !ok {
		return nil
	}
	return &Location{File: filepath.Base(file), Line: line}
}

// mirror copies a record to the console when enabled
func (l *Logger) mirror(rec []byte) {
	if !l.getConfig().EnableStdout {
		return
	}
	if s, ok := l.state.StdoutWriter.Load().(*sink); ok && s.w != nil {
		_, _ = s.w.Write(rec)
	}
}

func (l *Logger) setStdoutWriter(c *Config) {
	var w io.Writer = io.Discard
	if c.EnableStdout {
		if c.StdoutTarget == "stdout" {
			w = os.Stdout
		} else {
			w = os.Stderr
		}
	}
	l.state.StdoutWriter.Store(&sink{w: w})
}

// Elapsed returns the time since the logger was created, as used in record headers
func (l *Logger) Elapsed() time.Duration {
	return time.Since(l.startTime)
}

// MainLogPath returns the main log path, empty before the main log exists
func (l *Logger) MainLogPath() string {
	if mf := l.state.MainLog.Load(); mf != nil {
		return mf.path
	}
	return ""
}

// RetainedLog returns the path of the main log kept by Destruct, empty otherwise
func (l *Logger) RetainedLog() string {
	path, _ := l.state.RetainedPath.Load().(string)
	return path
}

// WindowHandle returns the handle given to BootstrapFinished
func (l *Logger) WindowHandle() WindowHandle {
	return WindowHandle(l.state.WindowHandle.Load())
}

// IsFatal reports whether a process-wide fatal event was recorded
func (l *Logger) IsFatal() bool {
	return l.state.FatalFlag.Load()
}

// checkOwner rejects calls from goroutines other than the creator
func (l *Logger) checkOwner() error {
	if currentGoroutineID() != l.owner {
		return fmtErrorf("call rejected: %w", ErrNotOwner)
	}
	return nil
}

// getConfig returns the current configuration
func (l *Logger) getConfig() *Config {
	return l.currentConfig.Load().(*Config)
}

// internalLog handles writing internal logger diagnostics to stderr, if enabled.
func (l *Logger) internalLog(format string, args ...any) {
	// Check if internal error reporting is enabled
	cfg := l.getConfig()
	if !cfg.InternalErrorsToStderr {
		return
	}

	// Ensure consistent "crashlog: " prefix
	if !strings.HasPrefix(format, "crashlog: ") {
		format = "crashlog: " + format
	}

	// Write to stderr
	fmt.Fprintf(os.Stderr, format, args...)
}
