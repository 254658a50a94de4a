// FILE: override.go
package crashlog

import (
	"fmt"
	"strconv"
	"strings"
)

// ApplyOverride applies string key-value overrides to the configuration.
// Each override should be in the format "key=value". All overrides are
// attempted and the errors are reported together; the configuration is
// left untouched when any override fails.
//
// Example:
//
//	cfg := crashlog.DefaultConfig()
//	err := cfg.ApplyOverride(
//	    "directory=/var/tmp/app",
//	    "level=info",
//	    "keep_logs=true",
//	)
func (c *Config) ApplyOverride(overrides ...string) error {
	next := c.Clone()

	var errors []error

	for _, override := range overrides {
		key, value, err := parseKeyValue(override)
		if err != nil {
			errors = append(errors, err)
			continue
		}

		if err := applyConfigField(next, key, value); err != nil {
			errors = append(errors, err)
		}
	}

	if len(errors) > 0 {
		return combineConfigErrors(errors)
	}

	if err := next.validate(); err != nil {
		return err
	}

	*c = *next
	return nil
}

// combineConfigErrors combines multiple configuration errors into a single error.
func combineConfigErrors(errors []error) error {
	if len(errors) == 0 {
		return nil
	}
	if len(errors) == 1 {
		return errors[0]
	}

	var sb strings.Builder
	sb.WriteString("crashlog: multiple configuration errors:")
	for i, err := range errors {
		errMsg := strings.TrimPrefix(err.Error(), "crashlog: ")
		sb.WriteString(fmt.Sprintf("\n  %d. %s", i+1, errMsg))
	}
	return fmt.Errorf("%s", sb.String())
}

// applyConfigField applies a single key-value override to a Config.
func applyConfigField(cfg *Config, key, value string) error {
	switch key {
	// Basic settings
	case "level":
		// Accept both numeric and named values
		if numVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			cfg.Level = numVal
		} else {
			levelVal, err := Level(value)
			if err != nil {
				return fmtErrorf("invalid level value '%s': %w", value, err)
			}
			cfg.Level = levelVal
		}
	case "name":
		cfg.Name = value
	case "directory":
		cfg.Directory = value
	case "extension":
		cfg.Extension = value
	case "stdout_target":
		cfg.StdoutTarget = value
	case "traceback":
		cfg.Traceback = value

	// Sizes
	case "bootstrap_buffer_kb":
		return parseIntField(key, value, &cfg.BootstrapBufferKB)
	case "max_frames":
		return parseIntField(key, value, &cfg.MaxFrames)

	// Switches
	case "show_location":
		return parseBoolField(key, value, &cfg.ShowLocation)
	case "sanitize":
		return parseBoolField(key, value, &cfg.Sanitize)
	case "trap_signals":
		return parseBoolField(key, value, &cfg.TrapSignals)
	case "panic_on_fault":
		return parseBoolField(key, value, &cfg.PanicOnFault)
	case "crash_output":
		return parseBoolField(key, value, &cfg.CrashOutput)
	case "abort_on_worker_fault":
		return parseBoolField(key, value, &cfg.AbortOnWorkerFault)
	case "process_snapshot":
		return parseBoolField(key, value, &cfg.ProcessSnapshot)
	case "keep_logs":
		return parseBoolField(key, value, &cfg.KeepLogs)
	case "last_log_pointer":
		return parseBoolField(key, value, &cfg.LastLogPointer)
	case "enable_stdout":
		return parseBoolField(key, value, &cfg.EnableStdout)
	case "internal_errors_to_stderr":
		return parseBoolField(key, value, &cfg.InternalErrorsToStderr)

	default:
		return fmtErrorf("unknown configuration key '%s'", key)
	}

	return nil
}

func parseIntField(key, value string, dst *int64) error {
	intVal, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fmtErrorf("invalid integer value for %s '%s': %w", key, value, err)
	}
	*dst = intVal
	return nil
}

func parseBoolField(key, value string, dst *bool) error {
	boolVal, err := strconv.ParseBool(value)
	if err != nil {
		return fmtErrorf("invalid boolean value for %s '%s': %w", key, value, err)
	}
	*dst = boolVal
	return nil
}
