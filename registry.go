// FILE: registry.go
package crashlog

import (
	"sync/atomic"
)

// registry tracks live workers. Mutations come only from the owner goroutine
// and publish a fresh slice, lookups from any goroutine never lock.
type registry struct {
	entries atomic.Pointer[[]*Worker]
}

func newRegistry() *registry {
	r := &registry{}
	empty := make([]*Worker, 0)
	r.entries.Store(&empty)
	return r
}

func (r *registry) load() []*Worker {
	return *r.entries.Load()
}

// add appends w, owner goroutine only
func (r *registry) add(w *Worker) {
	cur := r.load()
	next := make([]*Worker, len(cur), len(cur)+1)
	copy(next, cur)
	next = append(next, w)
	r.entries.Store(&next)
}

// remove drops w, owner goroutine only. Reports whether w was present.
func (r *registry) remove(w *Worker) bool {
	cur := r.load()
	next := make([]*Worker, 0, len(cur))
	found := false
	for _, e := range cur {
		if e == w {
			found = true
			continue
		}
		next = append(next, e)
	}
	if found {
		r.entries.Store(&next)
	}
	return found
}

// find returns the worker bound to goroutine gid, or nil
func (r *registry) find(gid int64) *Worker {
	if gid <= 0 {
		return nil
	}
	for _, w := range r.load() {
		if w.gid.Load() == gid {
			return w
		}
	}
	return nil
}

func (r *registry) len() int {
	return len(r.load())
}
