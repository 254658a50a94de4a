// FILE: lixenwraith/crashlog/builder.go
package crashlog

// Builder provides a fluent API for building logger configurations.
// It wraps a Config instance and provides chainable methods for setting values.
type Builder struct {
	cfg *Config
	err error // Accumulate errors for deferred handling
}

// NewBuilder creates a new configuration builder with default values.
func NewBuilder() *Builder {
	return &Builder{
		cfg: DefaultConfig(),
	}
}

// Config returns the validated configuration without creating a logger.
func (b *Builder) Config() (*Config, error) {
	if b.err != nil {
		return nil, b.err
	}
	if err := b.cfg.validate(); err != nil {
		return nil, err
	}
	return b.cfg.Clone(), nil
}

// Build creates the logger instance with the specified configuration.
// The calling goroutine becomes the owner.
func (b *Builder) Build() (*Logger, error) {
	cfg, err := b.Config()
	if err != nil {
		return nil, err
	}
	return CreateInstance(cfg)
}

// Level sets the log level.
func (b *Builder) Level(level int64) *Builder {
	b.cfg.Level = level
	return b
}

// LevelString sets the log level from a string.
func (b *Builder) LevelString(level string) *Builder {
	if b.err != nil {
		return b
	}
	levelVal, err := Level(level)
	if err != nil {
		b.err = err
		return b
	}
	b.cfg.Level = levelVal
	return b
}

// Name sets the base name of log files.
func (b *Builder) Name(name string) *Builder {
	b.cfg.Name = name
	return b
}

// Directory sets the log directory.
func (b *Builder) Directory(dir string) *Builder {
	b.cfg.Directory = dir
	return b
}

// Extension sets the log file extension.
func (b *Builder) Extension(ext string) *Builder {
	b.cfg.Extension = ext
	return b
}

// BootstrapBufferKB sets the capacity reserved for bootstrap records.
func (b *Builder) BootstrapBufferKB(size int64) *Builder {
	b.cfg.BootstrapBufferKB = size
	return b
}

// ShowLocation appends the caller's file:line to records.
func (b *Builder) ShowLocation(show bool) *Builder {
	b.cfg.ShowLocation = show
	return b
}

// MaxFrames sets the frame limit of stack dumps.
func (b *Builder) MaxFrames(n int64) *Builder {
	b.cfg.MaxFrames = n
	return b
}

// TrapSignals enables OS signal handling.
func (b *Builder) TrapSignals(enable bool) *Builder {
	b.cfg.TrapSignals = enable
	return b
}

// Traceback sets the runtime traceback level.
func (b *Builder) Traceback(level string) *Builder {
	b.cfg.Traceback = level
	return b
}

// AbortOnWorkerFault ends the process after any worker fault.
func (b *Builder) AbortOnWorkerFault(abort bool) *Builder {
	b.cfg.AbortOnWorkerFault = abort
	return b
}

// KeepLogs keeps logs on clean shutdown.
func (b *Builder) KeepLogs(keep bool) *Builder {
	b.cfg.KeepLogs = keep
	return b
}

// EnableStdout enables mirroring logs to stdout/stderr.
func (b *Builder) EnableStdout(enable bool) *Builder {
	b.cfg.EnableStdout = enable
	return b
}

// Override applies "key=value" overrides.
func (b *Builder) Override(overrides ...string) *Builder {
	if b.err != nil {
		return b
	}
	if err := b.cfg.ApplyOverride(overrides...); err != nil {
		b.err = err
	}
	return b
}

// Example usage:
// logger, err := crashlog.NewBuilder().
//
//	Directory("/var/tmp/app").
//	LevelString("info").
//	KeepLogs(true).
//	Build()
//
// if err == nil {
//
//	 defer logger.Destruct()
//	 logger.Info("Logger initialized successfully")
//
// }
