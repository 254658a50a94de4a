// FILE: lixenwraith/crashlog/constant.go
package crashlog

import (
	"time"
)

// Log level constants
const (
	LevelDebug int64 = -4
	LevelInfo  int64 = 0
	LevelWarn  int64 = 4
	LevelCrit  int64 = 8
	LevelFatal int64 = 12
)

// Fixed-width level tags written after the elapsed-time header
const (
	tagDebug     = "Debug:"
	tagInfo      = "Info: "
	tagWarn      = "Warn: "
	tagCrit      = "Crit: "
	tagFatal     = "Fatal:"
	tagException = "EXCEPTION:"
)

// Lifecycle phases, monotonic Bootstrap -> Normal
const (
	phaseBootstrap int32 = iota
	phaseNormal
)

// Exit codes used when a trap terminates the process
const (
	exitCodeFault = 2
)

// Storage
const (
	// Size multiplier for KB
	sizeMultiplier = 1024
	// Timestamp layout used in log file names
	fileTimestampLayout = "060102_150405"
	// Suffix of the pointer file naming the last retained log
	pointerSuffix = ".last"
)

// Timers
const (
	// Grace period for a re-raised signal to take the process down
	raiseGracePeriod = time.Second
)
