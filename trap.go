// FILE: trap.go
package crashlog

import (
	"bytes"
	"os"
	"os/signal"
	"runtime/debug"
	"sync"

	"github.com/lixenwraith/crashlog/formatter"
	"github.com/lixenwraith/crashlog/unwind"
)

// trap turns panics, fatal messages and OS signals into dumps. Every fault
// walks Trapped -> Dumping -> WrappingUp -> Terminated; fatal messages and
// faults of workers with a wrapup callback stop before Terminated.
type trap struct {
	logger *Logger
	tracer unwind.Tracer

	// Process termination, replaceable in tests
	exit  func(code int)
	raise func(sig os.Signal)

	signals  chan os.Signal
	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func newTrap(l *Logger, maxFrames int) *trap {
	return &trap{
		logger: l,
		tracer: unwind.New(unwind.WithMaxFrames(maxFrames)),
		exit:   os.Exit,
		raise:  reraise,
		stop:   make(chan struct{}),
	}
}

// install arms the trap for the calling goroutine and the process
func (t *trap) install(c *Config) {
	debug.SetTraceback(c.Traceback)
	if c.PanicOnFault {
		debug.SetPanicOnFault(true)
	}
	if c.TrapSignals {
		t.signals = make(chan os.Signal, 4)
		signal.Notify(t.signals, trappedSignals...)
		t.wg.Add(1)
		go t.signalLoop()
	}
	t.setState(TrapArmed)
}

// uninstall stops signal delivery, safe to call more than once
func (t *trap) uninstall() {
	t.stopOnce.Do(func() {
		if t.signals != nil {
			signal.Stop(t.signals)
		}
		close(t.stop)
		t.wg.Wait()
	})
}

func (t *trap) signalLoop() {
	defer t.wg.Done()
	for {
		select {
		case <-t.stop:
			return
		case sig := <-t.signals:
			t.signaled(sig)
		}
	}
}

func (t *trap) setState(s TrapState) {
	t.logger.state.TrapState.Store(int32(s))
}

func (t *trap) maxFrames() int {
	return int(t.logger.getConfig().MaxFrames)
}

// signaled handles one delivered OS signal on the signal goroutine
func (t *trap) signaled(sig os.Signal) {
	cond, informational := classifySignal(sig)
	if informational {
		t.logger.Info("signal received, continuing:", sig.String())
		return
	}

	t.handle(&Fault{
		Condition: cond,
		Detail:    "signal " + sig.String(),
		Signal:    sig,
		Goroutine: currentGoroutineID(),
		ctx:       unwind.Capture(1, t.maxFrames()),
	})
}

// panicked handles a panic recovered on the faulting goroutine. Must be
// called from the deferred function that recovered.
func (t *trap) panicked(v any, w *Worker) {
	t.handle(&Fault{
		Condition: classifyPanic(v),
		Detail:    formatter.Dump(v),
		Value:     v,
		Goroutine: currentGoroutineID(),
		worker:    w,
		ctx:       unwind.CapturePanic(t.maxFrames()),
	})
}

// fatalMessage dumps the stack of the user call site and runs wrapup, then
// returns. depth counts the frames between Logger.output and that call site.
func (t *trap) fatalMessage(text string, w *Worker, depth int) {
	f := &Fault{
		Condition: ConditionFatalMessage,
		Detail:    text,
		Goroutine: currentGoroutineID(),
		worker:    w,
		ctx:       unwind.Capture(depth+2, t.maxFrames()),
	}
	t.setState(TrapTrapped)
	t.dump(f)
	t.wrapup(f)
	t.setState(TrapArmed)
}

func (t *trap) handle(f *Fault) {
	t.setState(TrapTrapped)
	t.dump(f)
	t.wrapup(f)
	t.terminate(f)
}

// dump writes the header, optional snapshot and frames as one block
func (t *trap) dump(f *Fault) {
	l := t.logger
	t.setState(TrapDumping)
	l.state.FaultsTrapped.Add(1)
	f.Elapsed = l.Elapsed()

	// Make a bootstrap-phase dump durable
	if l.state.Phase.Load() == phaseBootstrap {
		if err := l.spillBootstrap(); err != nil {
			l.internalLog("failed to spill bootstrap buffer for fault dump: %v\n", err)
		}
	}

	text := f.Condition.String() + " in " + f.Where(l.owner) + ": " + f.Detail
	buf := l.formatter.AppendRecord(make([]byte, 0, 4096), f.Elapsed, tagException, text, nil)
	if l.getConfig().ProcessSnapshot {
		buf = append(buf, "  "...)
		buf = append(buf, processSnapshot()...)
		buf = append(buf, '\n')
	}

	var frames bytes.Buffer
	if err := t.tracer.Trace(&frames, f.ctx); err != nil {
		l.internalLog("failed to unwind stack: %v\n", err)
	}
	buf = append(buf, frames.Bytes()...)

	dst := l.destination(f.worker)
	if _, err := dst.Write(buf); err != nil {
		l.state.DroppedRecords.Add(1)
		l.internalLog("failed to write fault dump, falling back to stderr: %v\n", err)
		_, _ = os.Stderr.Write(buf)
		return
	}
	l.state.RecordsWritten.Add(1)
	l.mirror(buf)
	f.LogPath = l.destinationPath(f.worker)
}

// wrapup marks the fatal flag, flushes and notifies
func (t *trap) wrapup(f *Fault) {
	l := t.logger
	t.setState(TrapWrappingUp)

	if f.worker != nil {
		f.worker.fatal.Store(true)
		if err := f.worker.log.Sync(); err != nil {
			l.internalLog("failed to sync worker log '%s': %v\n", f.worker.log.path, err)
		}
	} else {
		l.state.FatalFlag.Store(true)
	}
	if mf := l.state.MainLog.Load(); mf != nil {
		if err := mf.Sync(); err != nil {
			l.internalLog("failed to sync main log: %v\n", err)
		}
	}

	c := l.getConfig()
	if c.LastLogPointer && f.LogPath != "" {
		if err := writePointerFile(c, f.LogPath); err != nil {
			l.internalLog("%v\n", err)
		}
	}

	if f.worker != nil && f.worker.wrapup != nil {
		t.runWorkerWrapup(f)
		return
	}
	l.notify(f)
}

func (t *trap) runWorkerWrapup(f *Fault) {
	defer func() {
		if r := recover(); r != nil {
			t.logger.internalLog("wrapup of worker '%s' panicked: %v\n", f.worker.description, r)
		}
	}()
	f.worker.wrapup(f.worker, f)
}

// terminate ends the process, except for a worker whose callback handled the fault
func (t *trap) terminate(f *Fault) {
	c := t.logger.getConfig()
	if f.worker != nil && f.worker.wrapup != nil && !c.AbortOnWorkerFault && f.Signal == nil {
		t.setState(TrapArmed)
		return
	}

	t.setState(TrapTerminated)
	if f.Condition.graceful() && f.Signal != nil {
		t.raise(f.Signal)
		return
	}
	t.exit(exitCodeFault)
}

// Guard recovers a panic on the calling goroutine and sends it through the
// trap. Defer it at the top of the main goroutine and of any goroutine not
// started by a Worker:
//
//	defer logger.Guard()
func (l *Logger) Guard() {
	if r := recover(); r != nil {
		l.trap.panicked(r, l.router.worker(l.registry, currentGoroutineID()))
	}
}
