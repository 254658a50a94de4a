// FILE: lixenwraith/crashlog/compat/gnet.go
package compat

import (
	"fmt"
	"os"

	"github.com/lixenwraith/crashlog"
	"github.com/panjf2000/gnet/v2/pkg/logging"
)

var _ logging.Logger = (*GnetAdapter)(nil)

// GnetAdapter wraps crashlog.Logger to implement the gnet logging.Logger interface.
// Records are attributed to the gnet call site and routed like any other
// record, so an event loop bound to a worker logs into the worker's file.
type GnetAdapter struct {
	logger       *crashlog.Logger
	source       string
	fatalHandler func(msg string) // Customizable fatal behavior
}

// NewGnetAdapter creates a new gnet-compatible logger adapter
func NewGnetAdapter(logger *crashlog.Logger, opts ...GnetOption) *GnetAdapter {
	adapter := &GnetAdapter{
		logger: logger,
		source: "gnet",
		fatalHandler: func(msg string) {
			os.Exit(1) // Default behavior matches gnet expectations
		},
	}

	for _, opt := range opts {
		opt(adapter)
	}

	return adapter
}

// GnetOption allows customizing adapter behavior
type GnetOption func(*GnetAdapter)

// WithFatalHandler sets a custom fatal handler
func WithFatalHandler(handler func(string)) GnetOption {
	return func(a *GnetAdapter) {
		a.fatalHandler = handler
	}
}

// WithGnetSource sets the prefix written before every gnet message
func WithGnetSource(source string) GnetOption {
	return func(a *GnetAdapter) {
		a.source = source
	}
}

// Debugf logs at debug level with printf-style formatting
func (a *GnetAdapter) Debugf(format string, args ...any) {
	a.output(crashlog.LevelDebug, format, args)
}

// Infof logs at info level with printf-style formatting
func (a *GnetAdapter) Infof(format string, args ...any) {
	a.output(crashlog.LevelInfo, format, args)
}

// Warnf logs at warn level with printf-style formatting
func (a *GnetAdapter) Warnf(format string, args ...any) {
	a.output(crashlog.LevelWarn, format, args)
}

// Errorf logs at critical level with printf-style formatting
func (a *GnetAdapter) Errorf(format string, args ...any) {
	a.output(crashlog.LevelCrit, format, args)
}

// Fatalf logs at fatal level, which dumps the caller's stack and runs
// wrapup, then triggers the fatal handler
func (a *GnetAdapter) Fatalf(format string, args ...any) {
	msg := a.output(crashlog.LevelFatal, format, args)
	if a.fatalHandler != nil {
		a.fatalHandler(msg)
	}
}

// output formats and writes one record, attributed to the caller of the adapter method
func (a *GnetAdapter) output(level int64, format string, args []any) string {
	msg := fmt.Sprintf(format, args...)
	a.logger.Output(3, level, prefixSource(a.source, msg))
	return msg
}

func prefixSource(source, msg string) string {
	if source == "" {
		return msg
	}
	return source + ": " + msg
}
