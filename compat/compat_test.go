package compat

import (
	"os"
	"strings"
	"testing"

	"github.com/lixenwraith/crashlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createTestCompatBuilder creates a standard setup for compatibility adapter tests
func createTestCompatBuilder(t *testing.T) (*Builder, *crashlog.Logger) {
	t.Helper()
	appLogger, err := crashlog.NewBuilder().
		Directory(t.TempDir()).
		LevelString("debug").
		TrapSignals(false).
		ShowLocation(true).
		Override("crash_output=false", "process_snapshot=false").
		Build()
	require.NoError(t, err)
	t.Cleanup(func() { _ = appLogger.Destruct() })

	// Keep fatal notices off the test output
	appLogger.SetNotifier(crashlog.NotifierFunc(func(crashlog.WindowHandle, *crashlog.Fault, string) {}))
	require.NoError(t, appLogger.BootstrapFinished(0))

	builder := NewBuilder().WithLogger(appLogger)
	return builder, appLogger
}

// recordLines returns the main log lines, dump frame lines excluded
func recordLines(t *testing.T, logger *crashlog.Logger) []string {
	t.Helper()
	data, err := os.ReadFile(logger.MainLogPath())
	require.NoError(t, err)

	var out []string
	for _, line := range strings.Split(strings.TrimSuffix(string(data), "\n"), "\n") {
		if line == "" || strings.HasPrefix(line, "frame ") {
			continue
		}
		out = append(out, line)
	}
	return out
}

// TestCompatBuilder verifies the compatibility builder can be initialized correctly
func TestCompatBuilder(t *testing.T) {
	t.Run("with existing logger", func(t *testing.T) {
		builder, logger := createTestCompatBuilder(t)

		gnetAdapter, err := builder.BuildGnet()
		require.NoError(t, err)
		assert.NotNil(t, gnetAdapter)
		assert.Same(t, logger, gnetAdapter.logger)
	})

	t.Run("uses live instance", func(t *testing.T) {
		_, logger := createTestCompatBuilder(t)

		adapter, err := NewBuilder().BuildFastHTTP()
		require.NoError(t, err)
		assert.Same(t, logger, adapter.logger)
	})

	t.Run("with config", func(t *testing.T) {
		require.Nil(t, crashlog.Instance())
		logCfg := crashlog.DefaultConfig()
		logCfg.Directory = t.TempDir()
		logCfg.TrapSignals = false
		logCfg.CrashOutput = false

		builder := NewBuilder().WithConfig(logCfg)
		fasthttpAdapter, err := builder.BuildFastHTTP()
		require.NoError(t, err)
		assert.NotNil(t, fasthttpAdapter)

		logger1, err := builder.GetLogger()
		require.NoError(t, err)
		assert.Same(t, logger1, crashlog.Instance())
		assert.NoError(t, logger1.Destruct())
	})

	t.Run("nil logger", func(t *testing.T) {
		_, err := NewBuilder().WithLogger(nil).BuildGnet()
		assert.Error(t, err)
	})
}

// TestGnetAdapter tests the gnet adapter's levels and fatal handling
func TestGnetAdapter(t *testing.T) {
	builder, logger := createTestCompatBuilder(t)

	var fatalMsg string
	adapter, err := builder.BuildGnet(WithFatalHandler(func(msg string) {
		fatalMsg = msg
	}))
	require.NoError(t, err)

	adapter.Debugf("gnet debug id=%d", 1)
	adapter.Infof("gnet info id=%d", 2)
	adapter.Warnf("gnet warn id=%d", 3)
	adapter.Errorf("gnet error id=%d", 4)
	adapter.Fatalf("gnet fatal id=%d", 5)

	lines := recordLines(t, logger)
	expected := []string{
		"Debug: gnet: gnet debug id=1 (compat_test.go:",
		"Info:  gnet: gnet info id=2 (compat_test.go:",
		"Warn:  gnet: gnet warn id=3 (compat_test.go:",
		"Crit:  gnet: gnet error id=4 (compat_test.go:",
		"Fatal: gnet: gnet fatal id=5 (compat_test.go:",
		"EXCEPTION: fatal message in main goroutine: gnet: gnet fatal id=5",
	}
	require.Len(t, lines, len(expected))
	for i, want := range expected {
		assert.Contains(t, lines[i], want)
	}

	assert.Equal(t, "gnet fatal id=5", fatalMsg, "Custom fatal handler should have been called")
	assert.True(t, logger.IsFatal())
}

func TestGnetAdapterSource(t *testing.T) {
	builder, logger := createTestCompatBuilder(t)

	adapter, err := builder.BuildGnet(WithGnetSource(""))
	require.NoError(t, err)
	adapter.Infof("bare")

	lines := recordLines(t, logger)
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "Info:  bare (compat_test.go:")
}

// TestFastHTTPAdapter tests the fasthttp adapter's logging output and level detection
func TestFastHTTPAdapter(t *testing.T) {
	builder, logger := createTestCompatBuilder(t)

	adapter, err := builder.BuildFastHTTP()
	require.NoError(t, err)

	testMessages := []string{
		"this is some informational message",
		"a debug message for the developers",
		"warning: something might be wrong",
		"an error occurred while processing",
		"fatal: connection reset",
	}
	for _, msg := range testMessages {
		adapter.Printf("%s", msg)
	}

	lines := recordLines(t, logger)
	expectedTags := []string{"Info: ", "Debug:", "Warn: ", "Crit: ", "Crit: "}
	require.Len(t, lines, len(testMessages), "Should have one line per message and no dump")

	for i, line := range lines {
		assert.Contains(t, line, expectedTags[i]+" fasthttp: "+testMessages[i]+" (compat_test.go:")
	}
	assert.False(t, logger.IsFatal(), "fasthttp messages never reach fatal level")
}

func TestFastHTTPAdapterOptions(t *testing.T) {
	builder, logger := createTestCompatBuilder(t)

	adapter, err := builder.BuildFastHTTP(
		WithDefaultLevel(crashlog.LevelWarn),
		WithLevelDetector(func(string) int64 { return 0 }),
		WithFastHTTPSource("http"),
	)
	require.NoError(t, err)
	adapter.Printf("served %d", 200)

	lines := recordLines(t, logger)
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "Warn:  http: served 200")
}

func TestDetectLogLevel(t *testing.T) {
	tests := []struct {
		msg  string
		want int64
	}{
		{"error when serving connection", crashlog.LevelCrit},
		{"request FAILED", crashlog.LevelCrit},
		{"Deprecated header", crashlog.LevelWarn},
		{"trace id 42", crashlog.LevelDebug},
		{"hello", crashlog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DetectLogLevel(tt.msg), tt.msg)
	}
}
