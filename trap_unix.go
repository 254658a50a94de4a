//go:build unix

// FILE: trap_unix.go
package crashlog

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// trappedSignals are delivered to the trap goroutine. Synchronous faults raised
// by Go code itself arrive as runtime panics instead.
var trappedSignals = []os.Signal{
	unix.SIGINT,
	unix.SIGTERM,
	unix.SIGHUP,
	unix.SIGSEGV,
	unix.SIGBUS,
	unix.SIGILL,
	unix.SIGFPE,
}

// classifySignal maps a signal to a condition, informational signals skip the dump
func classifySignal(sig os.Signal) (cond Condition, informational bool) {
	switch sig {
	case unix.SIGHUP:
		return ConditionUnrecognized, true
	case unix.SIGINT:
		return ConditionInterrupt, false
	case unix.SIGTERM:
		return ConditionTerminate, false
	case unix.SIGSEGV:
		return ConditionAccessViolation, false
	case unix.SIGBUS:
		return ConditionBusError, false
	case unix.SIGILL:
		return ConditionIllegalInstruction, false
	case unix.SIGFPE:
		return ConditionFloatingPoint, false
	default:
		return ConditionUnrecognized, false
	}
}

// reraise restores the default disposition and delivers sig again so the
// process ends the way the sender expects
func reraise(sig os.Signal) {
	signal.Reset(sig)
	if s, ok := sig.(syscall.Signal); ok {
		if err := unix.Kill(os.Getpid(), s); err == nil {
			time.Sleep(raiseGracePeriod)
		}
	}
	os.Exit(exitCodeFault)
}
