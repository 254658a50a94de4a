// FILE: lixenwraith/crashlog/unwind/unwind.go
// Package unwind turns a captured execution context into a readable list of
// call frames, one line per frame:
//
//	frame <i>: <symbol-or-0xaddr>[ + 0x<off>][ (<file>:<line> | Error <code>)]
//
// Resolution is best effort. A frame that cannot be resolved is still emitted
// with its raw address and an error marker, and unwinding continues.
package unwind

import (
	"errors"
	"io"
	"runtime"
	"strconv"
	"syscall"
)

const (
	// DefaultMaxFrames bounds a trace when no limit is configured
	DefaultMaxFrames = 64
	// MaxFramesLimit is the largest accepted frame limit
	MaxFramesLimit = 256
)

// Context is a captured execution context: the return program counters of a stack
type Context struct {
	pcs []uintptr
}

// Capture records the calling goroutine's stack. skip 0 starts at the caller of Capture.
func Capture(skip, maxFrames int) *Context {
	return capture(skip+1, maxFrames)
}

// CapturePanic records the stack of a panicking goroutine from inside a deferred
// recover, dropping the recovery frames so the trace starts at the faulting code.
func CapturePanic(maxFrames int) *Context {
	// Over-capture, the recovery frames are trimmed below
	ctx := capture(1, clampFrames(maxFrames)+32)
	for i, pc := range ctx.pcs {
		fn := runtime.FuncForPC(pc - 1)
		if fn != nil && fn.Name() == "runtime.gopanic" {
			ctx.pcs = ctx.pcs[i+1:]
			break
		}
	}
	if len(ctx.pcs) > clampFrames(maxFrames) {
		ctx.pcs = ctx.pcs[:clampFrames(maxFrames)]
	}
	return ctx
}

// FromPCs wraps program counters obtained elsewhere, e.g. from runtime.Callers
func FromPCs(pcs []uintptr) *Context {
	cp := make([]uintptr, len(pcs))
	copy(cp, pcs)
	return &Context{pcs: cp}
}

// PCs returns the captured program counters
func (c *Context) PCs() []uintptr {
	return c.pcs
}

// Len returns the number of captured program counters
func (c *Context) Len() int {
	return len(c.pcs)
}

// capture: skip 0 is the caller of capture
func capture(skip, maxFrames int) *Context {
	pcs := make([]uintptr, clampFrames(maxFrames))
	n := runtime.Callers(skip+2, pcs)
	return &Context{pcs: pcs[:n]}
}

func clampFrames(n int) int {
	switch {
	case n <= 0:
		return DefaultMaxFrames
	case n > MaxFramesLimit:
		return MaxFramesLimit
	default:
		return n
	}
}

// Symbol is one resolved logical frame. A program counter inside inlined code
// resolves to several symbols, innermost first.
type Symbol struct {
	Function string
	Offset   uintptr
	File     string
	Line     int
}

// Resolver maps a program counter to symbols
type Resolver interface {
	Resolve(pc uintptr) ([]Symbol, error)
}

// ResolverFunc adapts a function to the Resolver interface
type ResolverFunc func(pc uintptr) ([]Symbol, error)

// Resolve calls f(pc)
func (f ResolverFunc) Resolve(pc uintptr) ([]Symbol, error) {
	return f(pc)
}

// ResolveError reports a frame whose symbol could not be resolved
type ResolveError struct {
	Code syscall.Errno
}

func (e *ResolveError) Error() string {
	return "unwind: symbol not resolved: " + e.Code.Error()
}

// Tracer writes a captured context as frame lines
type Tracer interface {
	// Trace writes the frames of ctx to w. A nil ctx traces the caller.
	// Only a write failure is returned, resolution failures degrade per frame.
	Trace(w io.Writer, ctx *Context) error
}

// tracer resolves through the runtime symbol table, which the binary carries
// on every platform; only the unresolved error code differs per platform.
type tracer struct {
	opts options
}

// New returns a Tracer
func New(opts ...Option) Tracer {
	return &tracer{opts: buildOptions(opts)}
}

func (t *tracer) Trace(w io.Writer, ctx *Context) error {
	if ctx == nil {
		ctx = capture(1, t.opts.maxFrames)
	}
	return writeTrace(w, ctx, t.opts)
}

// Option configures a Tracer
type Option func(*options)

type options struct {
	resolver  Resolver
	maxFrames int
}

// WithResolver replaces the platform symbol resolver
func WithResolver(r Resolver) Option {
	return func(o *options) {
		if r != nil {
			o.resolver = r
		}
	}
}

// WithMaxFrames limits the number of frame lines written
func WithMaxFrames(n int) Option {
	return func(o *options) {
		o.maxFrames = clampFrames(n)
	}
}

func buildOptions(opts []Option) options {
	o := options{
		resolver:  runtimeResolver{},
		maxFrames: DefaultMaxFrames,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// runtimeResolver resolves against the binary's own symbol table
type runtimeResolver struct{}

func (runtimeResolver) Resolve(pc uintptr) ([]Symbol, error) {
	frames := runtime.CallersFrames([]uintptr{pc})
	var syms []Symbol
	for {
		frame, more := frames.Next()
		if frame.Function != "" {
			sym := Symbol{
				Function: frame.Function,
				File:     frame.File,
				Line:     frame.Line,
			}
			if frame.Entry != 0 && frame.PC >= frame.Entry {
				sym.Offset = frame.PC - frame.Entry
			}
			syms = append(syms, sym)
		}
		if !more {
			break
		}
	}
	if len(syms) == 0 {
		return nil, &ResolveError{Code: unresolvedCode}
	}
	return syms, nil
}

// writeTrace emits every frame of ctx to w in a single write
func writeTrace(w io.Writer, ctx *Context, o options) error {
	buf := make([]byte, 0, 128*len(ctx.pcs))
	index := 0

	for _, pc := range ctx.pcs {
		if index >= o.maxFrames {
			break
		}

		syms, err := o.resolver.Resolve(pc)
		if err != nil || len(syms) == 0 {
			buf = appendUnresolved(buf, index, pc, err)
			index++
			continue
		}

		for _, sym := range syms {
			if index >= o.maxFrames {
				break
			}
			buf = appendSymbol(buf, index, pc, sym)
			index++
		}
	}

	if len(buf) == 0 {
		return nil
	}
	_, err := w.Write(buf)
	return err
}

func appendFramePrefix(buf []byte, index int) []byte {
	buf = append(buf, "frame "...)
	buf = strconv.AppendInt(buf, int64(index), 10)
	return append(buf, ':', ' ')
}

func appendAddress(buf []byte, pc uintptr) []byte {
	buf = append(buf, "0x"...)
	return strconv.AppendUint(buf, uint64(pc), 16)
}

func appendSymbol(buf []byte, index int, pc uintptr, sym Symbol) []byte {
	buf = appendFramePrefix(buf, index)
	if sym.Function == "" {
		buf = appendAddress(buf, pc)
	} else {
		buf = append(buf, sym.Function...)
		if sym.Offset != 0 {
			buf = append(buf, " + 0x"...)
			buf = strconv.AppendUint(buf, uint64(sym.Offset), 16)
		}
	}
	if sym.File != "" {
		buf = append(buf, " ("...)
		buf = append(buf, sym.File...)
		buf = append(buf, ':')
		buf = strconv.AppendInt(buf, int64(sym.Line), 10)
		buf = append(buf, ')')
	}
	return append(buf, '\n')
}

func appendUnresolved(buf []byte, index int, pc uintptr, err error) []byte {
	code := unresolvedCode
	var re *ResolveError
	if errors.As(err, &re) {
		code = re.Code
	}

	buf = appendFramePrefix(buf, index)
	buf = appendAddress(buf, pc)
	buf = append(buf, " (Error "...)
	buf = strconv.AppendUint(buf, uint64(code), 10)
	return append(buf, ')', '\n')
}
