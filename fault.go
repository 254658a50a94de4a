// FILE: fault.go
package crashlog

import (
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/lixenwraith/crashlog/unwind"
)

// Condition names the kind of fault that was trapped
type Condition int

const (
	ConditionUnrecognized Condition = iota
	ConditionAccessViolation
	ConditionBusError
	ConditionIllegalInstruction
	ConditionFloatingPoint
	ConditionStackOverflow
	ConditionIntegerOverflow
	ConditionIntegerDivideByZero
	ConditionArrayBoundsExceeded
	ConditionInterrupt
	ConditionTerminate
	ConditionPanic
	ConditionFatalMessage
)

var conditionNames = [...]string{
	ConditionUnrecognized:        "unrecognized exception",
	ConditionAccessViolation:     "access violation",
	ConditionBusError:            "bus error",
	ConditionIllegalInstruction:  "illegal instruction",
	ConditionFloatingPoint:       "floating-point exception",
	ConditionStackOverflow:       "stack overflow",
	ConditionIntegerOverflow:     "integer overflow",
	ConditionIntegerDivideByZero: "integer divide by zero",
	ConditionArrayBoundsExceeded: "array bounds exceeded",
	ConditionInterrupt:           "interrupt",
	ConditionTerminate:           "terminate request",
	ConditionPanic:               "unhandled panic",
	ConditionFatalMessage:        "fatal message",
}

func (c Condition) String() string {
	if c < 0 || int(c) >= len(conditionNames) {
		return conditionNames[ConditionUnrecognized]
	}
	return conditionNames[c]
}

// graceful reports conditions that end with default OS termination
func (c Condition) graceful() bool {
	return c == ConditionInterrupt || c == ConditionTerminate
}

// TrapState is the progress of a fault through the trap
type TrapState int32

const (
	TrapArmed TrapState = iota
	TrapTrapped
	TrapDumping
	TrapWrappingUp
	TrapTerminated
)

func (s TrapState) String() string {
	switch s {
	case TrapArmed:
		return "armed"
	case TrapTrapped:
		return "trapped"
	case TrapDumping:
		return "dumping"
	case TrapWrappingUp:
		return "wrapping up"
	case TrapTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Fault describes one trapped fatal event
type Fault struct {
	Condition Condition
	Detail    string        // Rendered panic value, signal name or fatal message text
	Value     any           // Recovered panic value, nil for signals
	Signal    os.Signal     // Set for signal faults
	Goroutine int64         // Goroutine that took the fault
	Elapsed   time.Duration // Time since logger creation
	LogPath   string        // Log file holding the dump, empty if it went to the bootstrap buffer or stderr

	worker *Worker
	ctx    *unwind.Context
}

// Worker returns the faulting worker, nil for the main and unregistered goroutines
func (f *Fault) Worker() *Worker {
	return f.worker
}

// Where describes the faulting execution context for headers and notices
func (f *Fault) Where(owner int64) string {
	switch {
	case f.worker != nil:
		return "worker '" + f.worker.description + "'"
	case f.Goroutine == owner:
		return "main goroutine"
	case f.Signal != nil:
		return "signal handler"
	default:
		return "goroutine " + strconv.FormatInt(f.Goroutine, 10)
	}
}

// classifyPanic maps a recovered panic value to a condition. Runtime errors
// carry their kind only in the message text.
func classifyPanic(v any) Condition {
	re, ok := v.(runtime.Error)
	if !ok {
		return ConditionPanic
	}
	msg := re.Error()
	switch {
	case strings.Contains(msg, "invalid memory address"),
		strings.Contains(msg, "nil pointer dereference"),
		strings.Contains(msg, "nil map"):
		return ConditionAccessViolation
	case strings.Contains(msg, "unexpected fault address"):
		return ConditionBusError
	case strings.Contains(msg, "integer divide by zero"):
		return ConditionIntegerDivideByZero
	case strings.Contains(msg, "integer overflow"):
		return ConditionIntegerOverflow
	case strings.Contains(msg, "floating point"):
		return ConditionFloatingPoint
	case strings.Contains(msg, "index out of range"),
		strings.Contains(msg, "slice bounds out of range"):
		return ConditionArrayBoundsExceeded
	case strings.Contains(msg, "stack overflow"),
		strings.Contains(msg, "stack exceeds"):
		return ConditionStackOverflow
	case strings.Contains(msg, "illegal instruction"):
		return ConditionIllegalInstruction
	default:
		return ConditionUnrecognized
	}
}
