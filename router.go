// FILE: router.go
package crashlog

import (
	"io"
	"os"
	"sync"
)

// router resolves the destination of the calling goroutine. Registered
// workers are cached by goroutine id after their first lookup; a worker's
// destination never changes while it runs.
type router struct {
	cache sync.Map // int64 goroutine id -> *Worker
}

// worker returns the worker bound to gid, or nil for the main and unregistered goroutines
func (r *router) worker(reg *registry, gid int64) *Worker {
	if v, ok := r.cache.Load(gid); ok {
		return v.(*Worker)
	}
	// Misses are not cached, Run may bind this goroutine later
	w := reg.find(gid)
	if w != nil {
		r.cache.Store(gid, w)
	}
	return w
}

// forget drops the cache cell of a cleaned up worker
func (r *router) forget(w *Worker) {
	if gid := w.gid.Load(); gid > 0 {
		r.cache.Delete(gid)
	}
}

// destination picks bootstrap buffer, dedicated log, or main log, in that order
func (l *Logger) destination(w *Worker) io.Writer {
	if l.state.Phase.Load() == phaseBootstrap {
		return l.bootstrap
	}
	if w != nil && !w.log.closed.Load() {
		return w.log
	}
	if mf := l.state.MainLog.Load(); mf != nil {
		return mf
	}
	return os.Stderr
}

// resolve returns the calling goroutine's worker (nil if none) and destination
func (l *Logger) resolve() (*Worker, io.Writer) {
	w := l.router.worker(l.registry, currentGoroutineID())
	return w, l.destination(w)
}

// destinationPath names the file that destination(w) ends up in, empty for
// the bootstrap buffer without a spill and for stderr
func (l *Logger) destinationPath(w *Worker) string {
	if l.state.Phase.Load() != phaseBootstrap && w != nil && !w.log.closed.Load() {
		return w.log.path
	}
	return l.MainLogPath()
}
