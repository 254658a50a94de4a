// FILE: config.go
package crashlog

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/lixenwraith/config"
)

// Config holds all logger configuration values
type Config struct {
	// Basic settings
	Level     int64  `toml:"level"`
	Name      string `toml:"name"`      // Base name for log files
	Directory string `toml:"directory"` // Empty means the OS temp directory
	Extension string `toml:"extension"`

	// Bootstrap phase
	BootstrapBufferKB int64 `toml:"bootstrap_buffer_kb"` // Capacity reserved for pre-storage messages

	// Formatting
	ShowLocation bool `toml:"show_location"` // Append (file:line) of the caller
	Sanitize     bool `toml:"sanitize"`      // Escape control characters so records stay single-line

	// Fault capture
	MaxFrames          int64  `toml:"max_frames"`            // Frames written per stack dump (1-256)
	TrapSignals        bool   `toml:"trap_signals"`          // Install OS signal handlers
	PanicOnFault       bool   `toml:"panic_on_fault"`        // Turn memory faults into recoverable panics
	CrashOutput        bool   `toml:"crash_output"`          // Route runtime fatal errors into the main log
	Traceback          string `toml:"traceback"`             // Runtime traceback level for unrecoverable errors
	AbortOnWorkerFault bool   `toml:"abort_on_worker_fault"` // Exit the process after a worker wrapup
	ProcessSnapshot    bool   `toml:"process_snapshot"`      // Add a process stats line under fault headers

	// Retention
	KeepLogs       bool `toml:"keep_logs"`        // Keep logs on clean shutdown
	LastLogPointer bool `toml:"last_log_pointer"` // Record the retained log path in <name>.last

	// Stdout/console output settings
	EnableStdout bool   `toml:"enable_stdout"` // Mirror records to stdout/stderr
	StdoutTarget string `toml:"stdout_target"` // "stdout" or "stderr"

	// Internal error handling
	InternalErrorsToStderr bool `toml:"internal_errors_to_stderr"` // Write internal errors to stderr
}

// defaultConfig is the single source for all configurable default values
var defaultConfig = Config{
	// Basic settings
	Level:     LevelDebug,
	Name:      "crashlog",
	Directory: "",
	Extension: "log",

	// Bootstrap phase
	BootstrapBufferKB: 64,

	// Formatting
	ShowLocation: false,
	Sanitize:     true,

	// Fault capture
	MaxFrames:          64,
	TrapSignals:        true,
	PanicOnFault:       true,
	CrashOutput:        true,
	Traceback:          "all",
	AbortOnWorkerFault: false,
	ProcessSnapshot:    true,

	// Retention
	KeepLogs:       false,
	LastLogPointer: true,

	// Stdout settings
	EnableStdout: false,
	StdoutTarget: "stderr",

	// Internal error handling
	InternalErrorsToStderr: false,
}

// DefaultConfig returns a copy of the default configuration
func DefaultConfig() *Config {
	// Create a copy to prevent modifications to the original
	copiedConfig := defaultConfig
	return &copiedConfig
}

// NewConfigFromFile loads configuration from a TOML file and returns a validated Config
func NewConfigFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	// Use lixenwraith/config as a loader
	loader := config.New()

	// Register the struct to enable proper unmarshaling
	if err := loader.RegisterStruct("crashlog.", *cfg); err != nil {
		return nil, fmt.Errorf("failed to register config struct: %w", err)
	}

	// Load from file (handles file not found gracefully)
	if err := loader.Load(path, nil); err != nil && !errors.Is(err, config.ErrConfigNotFound) {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}

	if err := extractConfig(loader, "crashlog.", cfg); err != nil {
		return nil, fmt.Errorf("failed to extract config values: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// NewConfigFromDefaults creates a Config with default values and applies overrides
func NewConfigFromDefaults(overrides map[string]any) (*Config, error) {
	cfg := DefaultConfig()

	if err := applyOverrides(cfg, overrides); err != nil {
		return nil, fmt.Errorf("failed to apply overrides: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// extractConfig extracts values from lixenwraith/config into our Config struct
func extractConfig(loader *config.Config, prefix string, cfg *Config) error {
	v := reflect.ValueOf(cfg).Elem()
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldValue := v.Field(i)

		tomlTag := field.Tag.Get("toml")
		if tomlTag == "" {
			continue
		}

		val, found := loader.Get(prefix + tomlTag)
		if !found {
			continue // Use default value
		}

		if err := setFieldValue(fieldValue, val); err != nil {
			return fmt.Errorf("failed to set field %s: %w", field.Name, err)
		}
	}

	return nil
}

// applyOverrides applies a map of overrides to the Config struct
func applyOverrides(cfg *Config, overrides map[string]any) error {
	v := reflect.ValueOf(cfg).Elem()
	t := v.Type()

	fieldMap := make(map[string]reflect.Value)
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tomlTag := field.Tag.Get("toml")
		if tomlTag != "" {
			fieldMap[tomlTag] = v.Field(i)
		}
	}

	for key, value := range overrides {
		fieldValue, exists := fieldMap[key]
		if !exists {
			return fmt.Errorf("unknown config key: %s", key)
		}

		if err := setFieldValue(fieldValue, value); err != nil {
			return fmt.Errorf("failed to set %s: %w", key, err)
		}
	}

	return nil
}

// setFieldValue sets a reflect.Value with proper type conversion
func setFieldValue(field reflect.Value, value any) error {
	switch field.Kind() {
	case reflect.String:
		strVal, ok := value.(string)
		if !ok {
			return fmt.Errorf("expected string, got %T", value)
		}
		field.SetString(strVal)

	case reflect.Int64:
		switch v := value.(type) {
		case int64:
			field.SetInt(v)
		case int:
			field.SetInt(int64(v))
		default:
			return fmt.Errorf("expected int64, got %T", value)
		}

	case reflect.Bool:
		boolVal, ok := value.(bool)
		if !ok {
			return fmt.Errorf("expected bool, got %T", value)
		}
		field.SetBool(boolVal)

	default:
		return fmt.Errorf("unsupported field type: %v", field.Kind())
	}

	return nil
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmtErrorf("log name cannot be empty")
	}

	if strings.ContainsAny(c.Name, `/\`) {
		return fmtErrorf("log name cannot contain path separators: %s", c.Name)
	}

	if strings.HasPrefix(c.Extension, ".") {
		return fmtErrorf("extension should not start with dot: %s", c.Extension)
	}

	if c.StdoutTarget != "stdout" && c.StdoutTarget != "stderr" {
		return fmtErrorf("invalid stdout_target: '%s' (use stdout or stderr)", c.StdoutTarget)
	}

	switch c.Traceback {
	case "none", "single", "all", "system", "crash":
	default:
		return fmtErrorf("invalid traceback: '%s' (use none, single, all, system, or crash)", c.Traceback)
	}

	if c.BootstrapBufferKB < 0 {
		return fmtErrorf("bootstrap_buffer_kb cannot be negative: %d", c.BootstrapBufferKB)
	}

	if c.MaxFrames < 1 || c.MaxFrames > 256 {
		return fmtErrorf("max_frames must be between 1 and 256: %d", c.MaxFrames)
	}

	if c.Level > LevelFatal {
		return fmtErrorf("level cannot exceed fatal: %d", c.Level)
	}

	return nil
}

// Validate exposes configuration validation to callers building Config by hand
func (c *Config) Validate() error {
	return c.validate()
}

// Clone creates a deep copy of the configuration
func (c *Config) Clone() *Config {
	copiedConfig := *c
	return &copiedConfig
}
