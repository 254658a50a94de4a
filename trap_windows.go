//go:build windows

// FILE: trap_windows.go
package crashlog

import (
	"os"
	"syscall"
)

// statusControlCExit is the exit status of a console process ended by Ctrl+C
var statusControlCExit uint32 = 0xC000013A

// trappedSignals are the console control events Go maps to signals
var trappedSignals = []os.Signal{
	os.Interrupt,
	syscall.SIGTERM,
}

// classifySignal maps a signal to a condition
func classifySignal(sig os.Signal) (cond Condition, informational bool) {
	switch sig {
	case os.Interrupt:
		return ConditionInterrupt, false
	case syscall.SIGTERM:
		return ConditionTerminate, false
	default:
		return ConditionUnrecognized, false
	}
}

// reraise ends the process with the status the console host reports for Ctrl+C
func reraise(os.Signal) {
	os.Exit(int(statusControlCExit))
}
