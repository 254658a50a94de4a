// FILE: worker.go
package crashlog

import (
	"runtime/debug"
	"sync/atomic"
)

// WrapupFunc runs on a worker's own goroutine after the worker faulted and
// its dump reached the dedicated log. The goroutine ends when it returns.
type WrapupFunc func(w *Worker, f *Fault)

// Worker is a registered goroutine with its own log file
type Worker struct {
	logger      *Logger
	description string
	log         *logFile
	wrapup      WrapupFunc

	gid     atomic.Int64 // Bound goroutine id, 0 until started
	fatal   atomic.Bool  // Worker-local fatal flag, never reset
	started atomic.Bool
	stopped atomic.Bool
	cleaned atomic.Bool // Cleanup ran, guards the merge
	done    chan struct{}
}

// RegisterWorker creates a worker and opens its dedicated log. Only the
// goroutine that created the logger may register, and it must do so before
// the worker starts.
func (l *Logger) RegisterWorker(description string, wrapup WrapupFunc) (*Worker, error) {
	if err := l.checkOwner(); err != nil {
		return nil, err
	}

	lf, err := createLogFile(l.getConfig(), slugify(description))
	if err != nil {
		return nil, fmtErrorf("failed to open log for worker '%s': %w", description, err)
	}

	w := &Worker{
		logger:      l,
		description: description,
		log:         lf,
		wrapup:      wrapup,
		done:        make(chan struct{}),
	}
	l.registry.add(w)
	l.internalLog("registered worker '%s' with log '%s'\n", description, lf.path)
	return w, nil
}

// Go starts fn on a new goroutine bound to the worker
func (w *Worker) Go(fn func()) error {
	if !w.started.CompareAndSwap(false, true) {
		return fmtErrorf("worker '%s' already started", w.description)
	}
	if w.cleaned.Load() {
		w.finish()
		return fmtErrorf("worker '%s' start rejected: %w", w.description, ErrWorkerCleaned)
	}
	go w.run(fn)
	return nil
}

// Run binds the calling goroutine to the worker and runs fn on it. The
// goroutine stays bound after Run returns, so it should end soon after.
func (w *Worker) Run(fn func()) error {
	if currentGoroutineID() == w.logger.owner {
		return fmtErrorf("worker '%s' cannot run on the owner goroutine: %w", w.description, ErrNotOwner)
	}
	if !w.started.CompareAndSwap(false, true) {
		return fmtErrorf("worker '%s' already started", w.description)
	}
	if w.cleaned.Load() {
		w.finish()
		return fmtErrorf("worker '%s' start rejected: %w", w.description, ErrWorkerCleaned)
	}
	w.run(fn)
	return nil
}

func (w *Worker) run(fn func()) {
	w.gid.Store(currentGoroutineID())
	defer w.finish()
	defer func() {
		if r := recover(); r != nil {
			w.logger.trap.panicked(r, w)
		}
	}()

	if w.logger.getConfig().PanicOnFault {
		debug.SetPanicOnFault(true)
	}
	fn()
}

// finish marks the worker stopped. Called once, by whoever won the start.
func (w *Worker) finish() {
	w.stopped.Store(true)
	close(w.done)
}

// Done is closed once the worker goroutine stopped
func (w *Worker) Done() <-chan struct{} {
	return w.done
}

// Wait blocks until the worker goroutine stopped
func (w *Worker) Wait() {
	<-w.done
}

// Description returns the label given at registration
func (w *Worker) Description() string {
	return w.description
}

// LogPath returns the path of the dedicated log
func (w *Worker) LogPath() string {
	return w.log.path
}

// Fatal reports whether the worker recorded a fatal event
func (w *Worker) Fatal() bool {
	return w.fatal.Load()
}

// CleanupWorker removes a stopped worker. A fatal worker's dedicated log is
// appended to the main log first. The dedicated log is deleted unless that
// merge failed, in which case it stays on disk and the main log names it.
// Owner goroutine only; calling it again for the same worker is a no-op.
func (l *Logger) CleanupWorker(w *Worker) error {
	if err := l.checkOwner(); err != nil {
		return err
	}
	if w == nil || w.logger != l {
		return fmtErrorf("cleanup rejected: %w", ErrForeignWorker)
	}
	if !w.cleaned.CompareAndSwap(false, true) {
		return nil
	}
	// cleaned is set before started is read, Go and Run do the reverse
	if w.started.Load() && !w.stopped.Load() {
		w.cleaned.Store(false)
		return fmtErrorf("cleanup of '%s' rejected: %w", w.description, ErrWorkerRunning)
	}

	var finalErr error
	keep := false
	if w.fatal.Load() {
		if err := l.mergeWorkerLog(w); err != nil {
			finalErr = combineErrors(finalErr, err)
			finalErr = combineErrors(finalErr, l.keepWorkerLog(w, err))
			keep = true
		}
	}

	if !keep {
		if err := removeLogFile(w.log); err != nil {
			finalErr = combineErrors(finalErr, err)
		}
	}

	l.router.forget(w)
	l.registry.remove(w)
	return finalErr
}

// mergeWorkerLog appends the dedicated log to the main destination and retains the main log
func (l *Logger) mergeWorkerLog(w *Worker) error {
	if err := w.log.Sync(); err != nil {
		l.internalLog("failed to sync worker log '%s' before merge: %v\n", w.log.path, err)
	}
	if err := w.log.Close(); err != nil {
		l.internalLog("failed to close worker log '%s' before merge: %v\n", w.log.path, err)
	}

	// Retained from here on, whether or not the copy succeeds
	l.state.FatalFlag.Store(true)

	dst := l.destination(nil)
	l.writeRecord(dst, LevelCrit, "worker '"+w.description+"' faulted, merged log follows ("+w.log.path+")", nil)
	if _, err := mergeLogFile(dst, w.log.path); err != nil {
		l.state.DroppedRecords.Add(1)
		return err
	}

	l.state.WorkersMerged.Add(1)
	l.syncMainLog()
	return nil
}

// keepWorkerLog records where a dedicated log that could not be merged stays
func (l *Logger) keepWorkerLog(w *Worker, mergeErr error) error {
	if err := w.log.Close(); err != nil {
		l.internalLog("failed to close worker log '%s': %v\n", w.log.path, err)
	}

	l.writeRecord(l.destination(nil), LevelCrit,
		"merge of worker '"+w.description+"' failed ("+mergeErr.Error()+"), dedicated log kept at "+w.log.path, nil)
	l.syncMainLog()

	if c := l.getConfig(); c.LastLogPointer {
		return writePointerFile(c, w.log.path)
	}
	return nil
}

func (l *Logger) syncMainLog() {
	if mf := l.state.MainLog.Load(); mf != nil {
		if err := mf.Sync(); err != nil {
			l.internalLog("failed to sync main log '%s': %v\n", mf.path, err)
		}
	}
}
