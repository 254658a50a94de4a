//go:build windows

// FILE: notify_windows.go
package crashlog

import (
	"golang.org/x/sys/windows"
)

// MessageBox style flags
const (
	mbOK            = 0x00000000
	mbIconError     = 0x00000010
	mbSetForeground = 0x00010000
	mbTopmost       = 0x00040000
)

// messageBoxNotifier shows a modal error box owned by the application window
type messageBoxNotifier struct{}

func defaultNotifier() Notifier {
	return messageBoxNotifier{}
}

func (messageBoxNotifier) NotifyFatal(handle WindowHandle, f *Fault, logPath string) {
	text, err := windows.UTF16PtrFromString(fatalNoticeText(f, logPath))
	if err != nil {
		return
	}
	caption, _ := windows.UTF16PtrFromString("Fatal error")
	_, _ = windows.MessageBox(windows.HWND(handle), text, caption, mbOK|mbIconError|mbSetForeground|mbTopmost)
}
