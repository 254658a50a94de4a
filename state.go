// FILE: state.go
package crashlog

import (
	"bytes"
	"io"
	"sync"
	"sync/atomic"
)

// State encapsulates the runtime state of the logger
type State struct {
	Phase        atomic.Int32   // phaseBootstrap or phaseNormal, monotonic
	Destroyed    atomic.Bool    // Destruct completed
	FatalFlag    atomic.Bool    // Process-wide fatal event recorded, main log is retained
	WindowHandle atomic.Uintptr // Anchor for the fatal notice, set by BootstrapFinished
	TrapState    atomic.Int32   // Progress of the most recent fault

	MainLog      atomic.Pointer[logFile] // nil until BootstrapFinished or a bootstrap spill
	RetainedPath atomic.Value            // stores string, set when a log survives Destruct
	StdoutWriter atomic.Value            // stores *sink (os.Stdout, os.Stderr, or io.Discard)

	// Counters
	RecordsWritten atomic.Uint64 // Records that reached their destination
	DroppedRecords atomic.Uint64 // Records lost to write failures
	FaultsTrapped  atomic.Uint64 // Faults that went through the dump path
	WorkersMerged  atomic.Uint64 // Fatal worker logs merged into the main log
}

// Stats is a point-in-time copy of the logger counters
type Stats struct {
	RecordsWritten uint64
	DroppedRecords uint64
	FaultsTrapped  uint64
	WorkersMerged  uint64
	Workers        int
	Fatal          bool
	Bootstrap      bool
	TrapState      TrapState
}

// sink is a wrapper around an io.Writer, atomic value type change workaround
type sink struct {
	w io.Writer
}

// bootstrapBuffer holds records until the main log exists. Once drained it
// forwards late writes, so a record racing the phase switch is never lost.
type bootstrapBuffer struct {
	mu      sync.Mutex
	buf     bytes.Buffer
	forward io.Writer
}

func newBootstrapBuffer(capacity int) *bootstrapBuffer {
	b := &bootstrapBuffer{}
	if capacity > 0 {
		b.buf.Grow(capacity)
	}
	return b
}

func (b *bootstrapBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.forward != nil {
		return b.forward.Write(p)
	}
	return b.buf.Write(p)
}

// drainTo writes the buffered bytes verbatim to w, clears the buffer and
// forwards every later write to w. Only the first call drains.
func (b *bootstrapBuffer) drainTo(w io.Writer) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.forward != nil {
		return nil
	}
	_, err := b.buf.WriteTo(w)
	b.buf = bytes.Buffer{}
	b.forward = w
	return err
}

// Len reports the number of buffered bytes
func (b *bootstrapBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Len()
}

// Stats returns the current counters
func (l *Logger) Stats() Stats {
	return Stats{
		RecordsWritten: l.state.RecordsWritten.Load(),
		DroppedRecords: l.state.DroppedRecords.Load(),
		FaultsTrapped:  l.state.FaultsTrapped.Load(),
		WorkersMerged:  l.state.WorkersMerged.Load(),
		Workers:        l.registry.len(),
		Fatal:          l.state.FatalFlag.Load(),
		Bootstrap:      l.state.Phase.Load() == phaseBootstrap,
		TrapState:      TrapState(l.state.TrapState.Load()),
	}
}
