// FILE: lixenwraith/crashlog/logger_test.go
package crashlog

import (
	"bytes"
	"os"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordPattern matches one formatted record line
var recordPattern = regexp.MustCompile(`^\[(\d{3,})\.(\d{3})\] (Debug:|Info: |Warn: |Crit: |Fatal:|EXCEPTION:) `)

// exitRecorder captures process termination requested by the trap
type exitRecorder struct {
	mu       sync.Mutex
	codes    []int
	signals  []os.Signal
	notified atomic.Int32
	faults   []*Fault
}

func (r *exitRecorder) exit(code int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codes = append(r.codes, code)
}

func (r *exitRecorder) raise(sig os.Signal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.signals = append(r.signals, sig)
}

func (r *exitRecorder) notify(_ WindowHandle, f *Fault, _ string) {
	r.mu.Lock()
	r.faults = append(r.faults, f)
	r.mu.Unlock()
	r.notified.Add(1)
}

func (r *exitRecorder) exitCodes() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.codes...)
}

func (r *exitRecorder) raised() []os.Signal {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]os.Signal(nil), r.signals...)
}

// createTestLogger creates a logger in a temp directory with signal handling
// off and process termination captured
func createTestLogger(t testing.TB, overrides ...string) (*Logger, string, *exitRecorder) {
	t.Helper()
	tmpDir := t.TempDir()

	cfg := DefaultConfig()
	cfg.Directory = tmpDir
	cfg.TrapSignals = false
	cfg.CrashOutput = false
	cfg.ProcessSnapshot = false
	require.NoError(t, cfg.ApplyOverride(overrides...))

	logger, err := CreateInstance(cfg)
	require.NoError(t, err)

	rec := &exitRecorder{}
	logger.trap.exit = rec.exit
	logger.trap.raise = rec.raise
	logger.SetNotifier(NotifierFunc(rec.notify))

	t.Cleanup(func() { forceDestroy(logger) })
	return logger, tmpDir, rec
}

// createNormalLogger is createTestLogger past BootstrapFinished
func createNormalLogger(t testing.TB, overrides ...string) (*Logger, string, *exitRecorder) {
	t.Helper()
	logger, tmpDir, rec := createTestLogger(t, overrides...)
	require.NoError(t, logger.BootstrapFinished(0))
	return logger, tmpDir, rec
}

// forceDestroy releases everything a failed test may have left behind
func forceDestroy(l *Logger) {
	for _, w := range l.registry.load() {
		_ = w.log.Close()
		l.registry.remove(w)
	}
	if !l.state.Destroyed.Load() {
		l.trap.uninstall()
		if mf := l.state.MainLog.Load(); mf != nil {
			_ = mf.Close()
		}
		l.state.Destroyed.Store(true)
	}
	active.CompareAndSwap(l, nil)
}

func readFile(t testing.TB, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func lines(content string) []string {
	content = strings.TrimSuffix(content, "\n")
	if content == "" {
		return nil
	}
	return strings.Split(content, "\n")
}

func TestCreateInstance(t *testing.T) {
	logger, _, _ := createTestLogger(t)

	assert.Same(t, logger, Instance())
	assert.True(t, logger.Stats().Bootstrap)
	assert.Empty(t, logger.MainLogPath())
	assert.Equal(t, TrapArmed, logger.Stats().TrapState)

	t.Run("second instance rejected", func(t *testing.T) {
		_, err := CreateInstance(DefaultConfig())
		assert.ErrorIs(t, err, ErrAlreadyCreated)
	})
}

func TestCreateInstanceInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxFrames = 0

	logger, err := CreateInstance(cfg)
	assert.Error(t, err)
	assert.Nil(t, logger)
	assert.Nil(t, Instance())
}

func TestBootstrapFinished(t *testing.T) {
	logger, _, _ := createTestLogger(t)

	logger.Debug("init ok")
	require.NoError(t, logger.BootstrapFinished(WindowHandle(0x1234)))

	content := readFile(t, logger.MainLogPath())
	ls := lines(content)
	require.Len(t, ls, 1)
	assert.True(t, strings.HasSuffix(ls[0], "Debug: init ok"), "got %q", ls[0])
	assert.Regexp(t, recordPattern, ls[0])

	assert.Equal(t, WindowHandle(0x1234), logger.WindowHandle())
	assert.False(t, logger.Stats().Bootstrap)
	assert.Zero(t, logger.bootstrap.Len())

	assert.ErrorIs(t, logger.BootstrapFinished(0), ErrPhase, "second call rejected")
}

func TestBootstrapRecordsArePrefix(t *testing.T) {
	logger, _, _ := createTestLogger(t)

	for i := 0; i < 5; i++ {
		logger.Info("early", i)
	}
	buffered := logger.bootstrap.buf.String()
	require.NoError(t, logger.BootstrapFinished(0))
	logger.Info("late")

	content := readFile(t, logger.MainLogPath())
	assert.True(t, strings.HasPrefix(content, buffered))
	assert.True(t, strings.HasSuffix(content, "Info:  late\n"))
	assert.Len(t, lines(content), 6)
}

func TestBootstrapBufferForwardsAfterDrain(t *testing.T) {
	logger, _, _ := createNormalLogger(t)

	// A writer that resolved the buffer just before the switch still lands in the main log
	_, err := logger.bootstrap.Write([]byte("straggler\n"))
	require.NoError(t, err)

	assert.Contains(t, readFile(t, logger.MainLogPath()), "straggler\n")
}

func TestLevelFiltering(t *testing.T) {
	logger, _, rec := createNormalLogger(t, "level=crit")

	logger.Debug("hidden debug")
	logger.Info("hidden info")
	logger.Warn("hidden warn")
	logger.Crit("shown crit")
	logger.Fatal("shown fatal")

	content := readFile(t, logger.MainLogPath())
	assert.NotContains(t, content, "hidden")
	assert.Contains(t, content, "Crit:  shown crit")
	assert.Contains(t, content, "Fatal: shown fatal")
	assert.Equal(t, int32(1), rec.notified.Load())
}

func TestLevelTags(t *testing.T) {
	logger, _, _ := createNormalLogger(t)

	logger.Debugf("d%d", 1)
	logger.Infof("i%d", 2)
	logger.Warnf("w%d", 3)
	logger.Critf("c%d", 4)

	ls := lines(readFile(t, logger.MainLogPath()))
	require.Len(t, ls, 4)
	assert.True(t, strings.HasSuffix(ls[0], "] Debug: d1"))
	assert.True(t, strings.HasSuffix(ls[1], "] Info:  i2"))
	assert.True(t, strings.HasSuffix(ls[2], "] Warn:  w3"))
	assert.True(t, strings.HasSuffix(ls[3], "] Crit:  c4"))
}

func TestShowLocation(t *testing.T) {
	logger, _, _ := createNormalLogger(t, "show_location=true")

	logger.Info("located")
	logger.Log(LevelWarn, "explicit", &Location{File: "other.go", Line: 7})
	logger.Output(1, LevelInfo, "via output")

	content := readFile(t, logger.MainLogPath())
	assert.Regexp(t, `Info:  located \(logger_test\.go:\d+\)`, content)
	assert.Contains(t, content, "Warn:  explicit (other.go:7)")
	assert.Regexp(t, `Info:  via output \(logger_test\.go:\d+\)`, content)
}

func TestSanitizedRecordsStayOnOneLine(t *testing.T) {
	logger, _, _ := createNormalLogger(t)

	logger.Info("first\nsecond")

	ls := lines(readFile(t, logger.MainLogPath()))
	require.Len(t, ls, 1)
	assert.True(t, strings.HasSuffix(ls[0], `first\nsecond`))
}

func TestElapsedMonotonic(t *testing.T) {
	logger, _, _ := createNormalLogger(t)

	for i := 0; i < 200; i++ {
		logger.Info("tick", i)
	}

	var last int64 = -1
	for _, line := range lines(readFile(t, logger.MainLogPath())) {
		m := recordPattern.FindStringSubmatch(line)
		require.NotNil(t, m, "malformed record %q", line)
		secs, _ := strconv.ParseInt(m[1], 10, 64)
		millis, _ := strconv.ParseInt(m[2], 10, 64)
		stamp := secs*1000 + millis
		assert.GreaterOrEqual(t, stamp, last)
		last = stamp
	}
	first := logger.Elapsed()
	assert.GreaterOrEqual(t, Elapsed(), first)
}

func TestOwnerOnlyOperations(t *testing.T) {
	logger, _, _ := createTestLogger(t)

	var (
		finishErr, registerErr, destructErr error
		wg                                  sync.WaitGroup
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		finishErr = logger.BootstrapFinished(0)
		_, registerErr = logger.RegisterWorker("intruder", nil)
		destructErr = logger.Destruct()
	}()
	wg.Wait()

	assert.ErrorIs(t, finishErr, ErrNotOwner)
	assert.ErrorIs(t, registerErr, ErrNotOwner)
	assert.ErrorIs(t, destructErr, ErrNotOwner)
}

func TestApplyConfigString(t *testing.T) {
	logger, _, _ := createNormalLogger(t)

	require.NoError(t, logger.ApplyConfigString("level=warn", "show_location=true"))
	cfg := logger.GetConfig()
	assert.Equal(t, LevelWarn, cfg.Level)
	assert.True(t, cfg.ShowLocation)

	err := logger.ApplyConfigString("name=other")
	assert.Error(t, err)
	assert.Equal(t, "crashlog", logger.GetConfig().Name)

	assert.Error(t, logger.ApplyConfigString("level=loud"))
	assert.Equal(t, LevelWarn, logger.GetConfig().Level)
}

func TestStdoutMirror(t *testing.T) {
	logger, _, _ := createNormalLogger(t, "enable_stdout=true")

	var buf bytes.Buffer
	logger.state.StdoutWriter.Store(&sink{w: &buf})
	logger.Info("mirrored")

	assert.Contains(t, buf.String(), "Info:  mirrored\n")
	assert.Contains(t, readFile(t, logger.MainLogPath()), "Info:  mirrored\n")
}

func TestPackageLevelFunctions(t *testing.T) {
	t.Run("no instance drops silently", func(t *testing.T) {
		require.Nil(t, Instance())
		assert.NotPanics(t, func() {
			Info("nobody listens")
			Warnf("%s", "nobody")
		})
		assert.Zero(t, Elapsed())
	})

	t.Run("delegates to instance", func(t *testing.T) {
		logger, _, _ := createNormalLogger(t)

		Debug("pkg debug")
		Info("pkg info")
		Warn("pkg warn")
		Crit("pkg crit")
		Infof("pkg %s", "infof")

		content := readFile(t, logger.MainLogPath())
		for _, want := range []string{"Debug: pkg debug", "Info:  pkg info", "Warn:  pkg warn", "Crit:  pkg crit", "Info:  pkg infof"} {
			assert.Contains(t, content, want)
		}
	})
}
