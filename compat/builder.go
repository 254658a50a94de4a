// FILE: lixenwraith/crashlog/compat/builder.go
package compat

import (
	"fmt"

	"github.com/lixenwraith/crashlog"
)

// Builder provides a flexible way to create configured logger adapters for gnet and fasthttp.
// It can use an existing *crashlog.Logger, the live instance, or create one from a *crashlog.Config.
type Builder struct {
	logger *crashlog.Logger
	logCfg *crashlog.Config
	err    error
}

// NewBuilder creates a new adapter builder
func NewBuilder() *Builder {
	return &Builder{}
}

// WithLogger specifies an existing logger to use for the adapters.
// If this is set WithConfig is ignored.
func (b *Builder) WithLogger(l *crashlog.Logger) *Builder {
	if l == nil {
		b.err = fmt.Errorf("crashlog/compat: provided logger cannot be nil")
		return b
	}
	b.logger = l
	return b
}

// WithConfig provides a configuration for a new logger instance.
// It is used only when neither WithLogger nor a live instance provides one.
func (b *Builder) WithConfig(cfg *crashlog.Config) *Builder {
	b.logCfg = cfg
	return b
}

// getLogger resolves the logger to be used, creating one if necessary. A
// created logger is owned by the calling goroutine and still in bootstrap.
func (b *Builder) getLogger() (*crashlog.Logger, error) {
	if b.err != nil {
		return nil, b.err
	}

	// An existing logger was provided, so we use it
	if b.logger != nil {
		return b.logger, nil
	}

	// The process-wide instance
	if l := crashlog.Instance(); l != nil {
		b.logger = l
		return l, nil
	}

	l, err := crashlog.CreateInstance(b.logCfg)
	if err != nil {
		return nil, err
	}

	// Cache the newly created logger for subsequent builds with this builder
	b.logger = l
	return l, nil
}

// BuildGnet creates a gnet adapter
func (b *Builder) BuildGnet(opts ...GnetOption) (*GnetAdapter, error) {
	l, err := b.getLogger()
	if err != nil {
		return nil, err
	}
	return NewGnetAdapter(l, opts...), nil
}

// BuildFastHTTP creates a fasthttp adapter
func (b *Builder) BuildFastHTTP(opts ...FastHTTPOption) (*FastHTTPAdapter, error) {
	l, err := b.getLogger()
	if err != nil {
		return nil, err
	}
	return NewFastHTTPAdapter(l, opts...), nil
}

// GetLogger returns the underlying *crashlog.Logger instance.
// If a logger has not been provided or created yet, it will be initialized.
func (b *Builder) GetLogger() (*crashlog.Logger, error) {
	return b.getLogger()
}

// --- Example Usage ---
//
//	// 1. Create the process logger on the main goroutine
//	appLogger, err := crashlog.NewBuilder().LevelString("info").Build()
//	if err != nil { /* handle error */ }
//	defer appLogger.Destruct()
//	if err := appLogger.BootstrapFinished(0); err != nil { /* handle error */ }
//
//	// 2. Create a builder and provide the existing logger
//	builder := compat.NewBuilder().WithLogger(appLogger)
//
//	// 3. Build the required adapters
//	gnetLogger, err := builder.BuildGnet()
//	fasthttpLogger, err := builder.BuildFastHTTP()
//
//	// 4. Configure your servers with the adapters
//	go gnet.Run(events, "tcp://:9000", gnet.WithLogger(gnetLogger))
//
//	server := &fasthttp.Server{Handler: handler, Logger: fasthttpLogger}
//	go server.ListenAndServe(":8080")
