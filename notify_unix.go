//go:build !windows

// FILE: notify_unix.go
package crashlog

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// consoleNotifier prints the fatal notice to a console stream
type consoleNotifier struct {
	out   io.Writer
	color bool
}

func defaultNotifier() Notifier {
	return &consoleNotifier{
		out:   os.Stderr,
		color: term.IsTerminal(int(os.Stderr.Fd())),
	}
}

func (n *consoleNotifier) NotifyFatal(_ WindowHandle, f *Fault, logPath string) {
	text := fatalNoticeText(f, logPath)
	if n.color {
		fmt.Fprintf(n.out, "\x1b[1;31m%s\x1b[0m\n", text)
		return
	}
	fmt.Fprintln(n.out, text)
}
