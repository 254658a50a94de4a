//go:build unix

// FILE: lixenwraith/crashlog/worker_unix_test.go
package crashlog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanupKeepsWorkerLogWhenMergeFails(t *testing.T) {
	logger, dir, rec := createNormalLogger(t)

	w, err := logger.RegisterWorker("unmergeable", func(*Worker, *Fault) {})
	require.NoError(t, err)
	require.NoError(t, w.Go(func() { dereference(nil) }))
	w.Wait()
	require.True(t, w.Fatal())

	// Swap the dedicated log for a directory so it cannot be mapped
	path := w.LogPath()
	require.NoError(t, os.Remove(path))
	require.NoError(t, os.Mkdir(path, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(path, "entry"), []byte("x"), 0644))

	err = logger.CleanupWorker(w)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to map log file")

	assert.True(t, logger.IsFatal(), "a failed merge still retains the main log")
	assert.DirExists(t, path, "dedicated log is left in place")
	assert.Equal(t, uint64(0), logger.Stats().WorkersMerged)
	assert.Equal(t, 0, logger.Stats().Workers)

	mainContent := readFile(t, logger.MainLogPath())
	assert.Contains(t, mainContent, "worker 'unmergeable' faulted, merged log follows")
	assert.Contains(t, mainContent, "merge of worker 'unmergeable' failed")
	assert.Contains(t, mainContent, "dedicated log kept at "+path)

	pointer, err := os.ReadFile(filepath.Join(dir, "crashlog.last"))
	require.NoError(t, err)
	assert.Equal(t, path+"\n", string(pointer))

	require.NoError(t, logger.CleanupWorker(w), "second cleanup is a no-op")

	require.NoError(t, logger.Destruct())
	assert.FileExists(t, logger.MainLogPath())
	assert.Equal(t, logger.MainLogPath(), logger.RetainedLog())
	assert.DirExists(t, path)
	assert.Empty(t, rec.exitCodes())
}
