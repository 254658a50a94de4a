// FILE: notify.go
package crashlog

// WindowHandle is an opaque UI window reference, e.g. an HWND, used to anchor
// the fatal notice. Zero means no window.
type WindowHandle uintptr

// Notifier presents a fatal event to the user. It runs on the faulting
// goroutine after the dump is durable; logPath names the retained log and is
// empty when the dump could not reach a file.
type Notifier interface {
	NotifyFatal(handle WindowHandle, f *Fault, logPath string)
}

// NotifierFunc adapts a function to the Notifier interface
type NotifierFunc func(handle WindowHandle, f *Fault, logPath string)

// NotifyFatal calls fn
func (fn NotifierFunc) NotifyFatal(handle WindowHandle, f *Fault, logPath string) {
	fn(handle, f, logPath)
}

type notifierHolder struct {
	n Notifier
}

// SetNotifier replaces the fatal notice presenter, nil restores the platform default
func (l *Logger) SetNotifier(n Notifier) {
	if n == nil {
		n = defaultNotifier()
	}
	l.notifier.Store(notifierHolder{n: n})
}

// notify runs the current notifier, a failing notifier must not stop termination
func (l *Logger) notify(f *Fault) {
	holder, _ := l.notifier.Load().(notifierHolder)
	if holder.n == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			l.internalLog("fatal notifier panicked: %v\n", r)
		}
	}()
	holder.n.NotifyFatal(WindowHandle(l.state.WindowHandle.Load()), f, f.LogPath)
}

// fatalNoticeText is the body shared by the platform notifiers
func fatalNoticeText(f *Fault, logPath string) string {
	msg := "A fatal error occurred: " + f.Condition.String() + "."
	if logPath != "" {
		msg += "\nThe diagnostic log was kept at:\n" + logPath
	}
	return msg
}
