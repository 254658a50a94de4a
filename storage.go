// FILE: storage.go
package crashlog

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/mmap"
)

// maxMergeChunk bounds the copy buffer of a merge, logs up to this size are appended in one write
const maxMergeChunk = 1 << 20

// logFile is an append-only durable log. Each Write is a single write call on
// the descriptor, so records from concurrent writers never interleave.
type logFile struct {
	path   string
	file   *os.File
	closed atomic.Bool
}

func (f *logFile) Write(p []byte) (int, error) {
	if f.closed.Load() {
		return 0, os.ErrClosed
	}
	return f.file.Write(p)
}

// Sync flushes the file to stable storage
func (f *logFile) Sync() error {
	if f.closed.Load() {
		return nil
	}
	return f.file.Sync()
}

// Close closes the file once
func (f *logFile) Close() error {
	if !f.closed.CompareAndSwap(false, true) {
		return nil
	}
	return f.file.Close()
}

// Path returns the file location
func (f *logFile) Path() string {
	return f.path
}

// logDirectory returns the configured directory, the OS temp directory when empty
func logDirectory(c *Config) string {
	if c.Directory != "" {
		return c.Directory
	}
	return os.TempDir()
}

// generateLogFileName creates a unique timestamped name: <name>[_<slug>]_<ts>_<uuid8>[.<ext>]
func generateLogFileName(c *Config, slug string, timestamp time.Time) string {
	var sb strings.Builder
	sb.WriteString(c.Name)
	if slug != "" {
		sb.WriteByte('_')
		sb.WriteString(slug)
	}
	sb.WriteByte('_')
	sb.WriteString(timestamp.Format(fileTimestampLayout))
	sb.WriteByte('_')
	sb.WriteString(uuid.NewString()[:8])
	if c.Extension != "" {
		sb.WriteByte('.')
		sb.WriteString(c.Extension)
	}
	return sb.String()
}

// slugify reduces a worker description to a file name fragment
func slugify(description string) string {
	var sb strings.Builder
	lastDash := false
	for _, r := range strings.ToLower(description) {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			sb.WriteRune(r)
			lastDash = false
		case !lastDash && sb.Len() > 0:
			sb.WriteByte('-')
			lastDash = true
		}
		if sb.Len() >= 32 {
			break
		}
	}
	slug := strings.TrimSuffix(sb.String(), "-")
	if slug == "" {
		return "worker"
	}
	return slug
}

// createLogFile opens a new uniquely named log file
func createLogFile(c *Config, slug string) (*logFile, error) {
	dir := logDirectory(c)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmtErrorf("failed to create log directory '%s': %w", dir, err)
	}

	// A name collision is practically impossible, retry once anyway
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		fullPath := filepath.Join(dir, generateLogFileName(c, slug, time.Now()))
		file, err := os.OpenFile(fullPath, os.O_APPEND|os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
		if err == nil {
			return &logFile{path: fullPath, file: file}, nil
		}
		lastErr = err
		if !errors.Is(err, os.ErrExist) {
			break
		}
	}
	return nil, fmtErrorf("failed to create log file in '%s': %w", dir, lastErr)
}

// removeLogFile closes and deletes a log file
func removeLogFile(f *logFile) error {
	var err error
	if cerr := f.Close(); cerr != nil {
		err = fmtErrorf("failed to close log file '%s': %w", f.path, cerr)
	}
	if rerr := os.Remove(f.path); rerr != nil && !errors.Is(rerr, os.ErrNotExist) {
		err = combineErrors(err, fmtErrorf("failed to remove log file '%s': %w", f.path, rerr))
	}
	return err
}

// mergeLogFile appends the full content of the file at path to dst through a
// read-only memory mapping. Returns the number of bytes appended.
func mergeLogFile(dst io.Writer, path string) (int64, error) {
	r, err := mmap.Open(path)
	if err != nil {
		return 0, fmtErrorf("failed to map log file '%s': %w", path, err)
	}
	defer r.Close()

	size := r.Len()
	if size == 0 {
		return 0, nil
	}

	chunk := size
	if chunk > maxMergeChunk {
		chunk = maxMergeChunk
	}
	n, err := io.CopyBuffer(dst, io.NewSectionReader(r, 0, int64(size)), make([]byte, chunk))
	if err != nil {
		return n, fmtErrorf("failed to merge log file '%s': %w", path, err)
	}
	return n, nil
}

// pointerFilePath returns <dir>/<name>.last
func pointerFilePath(c *Config) string {
	return filepath.Join(logDirectory(c), c.Name+pointerSuffix)
}

// writePointerFile records path as the last retained log
func writePointerFile(c *Config, path string) error {
	if err := atomicWriteFile(pointerFilePath(c), []byte(path+"\n"), 0644); err != nil {
		return fmtErrorf("failed to write log pointer file: %w", err)
	}
	return nil
}

// LastRetainedLog returns the path of the log retained by a previous session,
// read from the pointer file for cfg. Returns os.ErrNotExist if none survives.
func LastRetainedLog(cfg *Config) (string, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	data, err := os.ReadFile(pointerFilePath(cfg))
	if err != nil {
		return "", err
	}
	path := strings.TrimSpace(string(data))
	if path == "" {
		return "", os.ErrNotExist
	}
	if _, err := os.Stat(path); err != nil {
		return "", err
	}
	return path, nil
}
