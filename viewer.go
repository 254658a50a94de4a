// FILE: viewer.go
package crashlog

import (
	"os/exec"
	"runtime"
)

// OpenLogFile opens path with the platform's default viewer without waiting for it
func OpenLogFile(path string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", path)
	case "linux", "freebsd", "openbsd", "netbsd":
		cmd = exec.Command("xdg-open", path)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", "", path)
	default:
		return fmtErrorf("unsupported platform: %s", runtime.GOOS)
	}

	if err := cmd.Start(); err != nil {
		return fmtErrorf("failed to open log file '%s': %w", path, err)
	}
	// Reap the launcher in the background
	go func() { _ = cmd.Wait() }()
	return nil
}

// OpenLog opens the retained log, or the current main log while running
func (l *Logger) OpenLog() error {
	path := l.RetainedLog()
	if path == "" {
		path = l.MainLogPath()
	}
	if path == "" {
		return fmtErrorf("no log file to open")
	}
	return OpenLogFile(path)
}
