// FILE: lixenwraith/crashlog/integration_test.go
package crashlog

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// TestFullLifecycle walks a whole session: bootstrap records, normal logging,
// one clean and one faulted worker, merge, retention and the pointer file
func TestFullLifecycle(t *testing.T) {
	tmpDir := t.TempDir()

	logger, err := NewBuilder().
		Directory(tmpDir).
		Name("app").
		LevelString("debug").
		TrapSignals(false).
		ShowLocation(true).
		Override("crash_output=false", "process_snapshot=true").
		Build()
	require.NoError(t, err, "Logger creation with builder should succeed")
	t.Cleanup(func() { forceDestroy(logger) })

	rec := &exitRecorder{}
	logger.trap.exit = rec.exit
	logger.trap.raise = rec.raise
	logger.SetNotifier(NotifierFunc(rec.notify))

	logger.Info("starting up")
	logger.Debugf("config loaded from %s", "defaults")
	require.NoError(t, logger.BootstrapFinished(0))
	logger.Warn("storage ready")

	clean, err := logger.RegisterWorker("worker-A", nil)
	require.NoError(t, err)
	faulty, err := logger.RegisterWorker("worker-B", func(*Worker, *Fault) {})
	require.NoError(t, err)

	var g errgroup.Group
	g.Go(func() error {
		return clean.Run(func() {
			for i := 0; i < 10; i++ {
				logger.Info("A step", i)
			}
		})
	})
	g.Go(func() error {
		return faulty.Run(func() {
			logger.Info("B starting")
			dereference(nil)
		})
	})
	require.NoError(t, g.Wait())

	faultyContent := readFile(t, faulty.LogPath())
	require.NoError(t, logger.CleanupWorker(clean))
	require.NoError(t, logger.CleanupWorker(faulty))

	logger.Info("shutting down")
	mainPath := logger.MainLogPath()
	require.NoError(t, logger.Destruct())

	// Only the retained main log and its pointer survive
	entries, err := os.ReadDir(tmpDir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{strings.TrimPrefix(mainPath, tmpDir+string(os.PathSeparator)), "app.last"}, names)

	content := readFile(t, mainPath)
	got := lines(content)
	require.GreaterOrEqual(t, len(got), 4)
	assert.Contains(t, got[0], "Info:  starting up (integration_test.go:")
	assert.Contains(t, got[1], "Debug: config loaded from defaults")
	assert.Contains(t, got[2], "Warn:  storage ready")
	assert.NotContains(t, content, "A step", "clean worker output is discarded")
	assert.Contains(t, content, faultyContent)
	assert.Contains(t, faultyContent, "  process: pid=")
	assert.Contains(t, got[len(got)-1], "Info:  shutting down (integration_test.go:")

	last, err := LastRetainedLog(logger.GetConfig())
	require.NoError(t, err)
	assert.Equal(t, mainPath, last)
	assert.Equal(t, mainPath, logger.RetainedLog())
	assert.Empty(t, rec.exitCodes())
}

func TestConcurrentLoggingMainLog(t *testing.T) {
	logger, _, _ := createNormalLogger(t)

	const goroutines = 10
	const perGoroutine = 100

	var g errgroup.Group
	for i := 0; i < goroutines; i++ {
		g.Go(func() error {
			for j := 0; j < perGoroutine; j++ {
				logger.Infof("goroutine %d message %d %s", i, j, strings.Repeat("x", 200))
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	got := lines(readFile(t, logger.MainLogPath()))
	assert.Len(t, got, goroutines*perGoroutine)
	for _, line := range got {
		require.Regexp(t, recordPattern, line)
		require.True(t, strings.HasSuffix(line, strings.Repeat("x", 200)), "record torn: %q", line)
	}
	assert.Equal(t, uint64(goroutines*perGoroutine), logger.Stats().RecordsWritten)
}
