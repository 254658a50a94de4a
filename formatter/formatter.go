// FILE: lixenwraith/crashlog/formatter/formatter.go
// Package formatter renders diagnostic records in the fixed text layout
//
//	[sss.mmm] <Tag> <text> (<file>:<line>)
//
// The same routine serves the bootstrap buffer and every log file.
package formatter

import (
	"fmt"
	"strconv"
	"time"

	"github.com/davecgh/go-spew/spew"

	"github.com/lixenwraith/crashlog/sanitizer"
)

// Location identifies the source position a record was emitted from
type Location struct {
	File string
	Line int
}

// dumper renders values that have no scalar representation
var dumper = &spew.ConfigState{
	Indent:                  " ",
	MaxDepth:                10,
	DisablePointerAddresses: true, // Cleaner for logs
	DisableCapacities:       true, // Less noise
	SortKeys:                true, // Consistent map output
}

// Formatter renders records. It holds no per-call state and is safe for concurrent use.
type Formatter struct {
	sanitizer *sanitizer.Sanitizer
}

// New creates a formatter with the provided sanitizer
func New(s ...*sanitizer.Sanitizer) *Formatter {
	var san *sanitizer.Sanitizer
	if len(s) > 0 && s[0] != nil {
		san = s[0]
	} else {
		san = sanitizer.New() // Default passthrough sanitizer
	}
	return &Formatter{sanitizer: san}
}

// AppendHeader writes the "[sss.mmm] " elapsed-time header
func AppendHeader(buf []byte, elapsed time.Duration) []byte {
	if elapsed < 0 {
		elapsed = 0
	}
	secs := int64(elapsed / time.Second)
	millis := int64(elapsed%time.Second) / int64(time.Millisecond)

	buf = append(buf, '[')
	buf = appendPadded(buf, secs, 3)
	buf = append(buf, '.')
	buf = appendPadded(buf, millis, 3)
	buf = append(buf, ']', ' ')
	return buf
}

// AppendRecord writes one complete record, newline terminated
func (f *Formatter) AppendRecord(buf []byte, elapsed time.Duration, tag, text string, loc *Location) []byte {
	buf = AppendHeader(buf, elapsed)
	buf = append(buf, tag...)
	buf = append(buf, ' ')
	buf = f.sanitizer.Append(buf, text)
	if loc != nil && loc.File != "" {
		buf = append(buf, " ("...)
		buf = append(buf, loc.File...)
		buf = append(buf, ':')
		buf = strconv.AppendInt(buf, int64(loc.Line), 10)
		buf = append(buf, ')')
	}
	buf = append(buf, '\n')
	return buf
}

// Record is AppendRecord into a fresh buffer
func (f *Formatter) Record(elapsed time.Duration, tag, text string, loc *Location) []byte {
	return f.AppendRecord(make([]byte, 0, 32+len(tag)+len(text)), elapsed, tag, text, loc)
}

// AppendArgs formats args as space-separated values
func AppendArgs(buf []byte, args []any) []byte {
	for i, arg := range args {
		if i > 0 {
			buf = append(buf, ' ')
		}
		buf = appendValue(buf, arg)
	}
	return buf
}

// Args formats args as a space-separated string
func Args(args ...any) string {
	return string(AppendArgs(make([]byte, 0, 64), args))
}

// Dump renders any value on a single logical line, spew is used for composite types
func Dump(v any) string {
	return string(appendValue(nil, v))
}

// appendValue provides unified type conversion
func appendValue(buf []byte, v any) []byte {
	switch val := v.(type) {
	case string:
		return append(buf, val...)
	case []byte:
		return append(buf, val...)
	case int:
		return strconv.AppendInt(buf, int64(val), 10)
	case int32:
		return strconv.AppendInt(buf, int64(val), 10)
	case int64:
		return strconv.AppendInt(buf, val, 10)
	case uint:
		return strconv.AppendUint(buf, uint64(val), 10)
	case uint32:
		return strconv.AppendUint(buf, uint64(val), 10)
	case uint64:
		return strconv.AppendUint(buf, val, 10)
	case uintptr:
		buf = append(buf, "0x"...)
		return strconv.AppendUint(buf, uint64(val), 16)
	case float32:
		return strconv.AppendFloat(buf, float64(val), 'f', -1, 32)
	case float64:
		return strconv.AppendFloat(buf, val, 'f', -1, 64)
	case bool:
		return strconv.AppendBool(buf, val)
	case nil:
		return append(buf, "nil"...)
	case time.Time:
		return val.AppendFormat(buf, time.RFC3339Nano)
	case time.Duration:
		return append(buf, val.String()...)
	case error:
		return append(buf, val.Error()...)
	case fmt.Stringer:
		return append(buf, val.String()...)
	default:
		// Structs, maps, slices, pointers
		return append(buf, dumper.Sprintf("%+v", val)...)
	}
}

// appendPadded writes n in decimal, left-padded with zeros to width
func appendPadded(buf []byte, n int64, width int) []byte {
	var tmp [20]byte
	digits := strconv.AppendInt(tmp[:0], n, 10)
	for i := len(digits); i < width; i++ {
		buf = append(buf, '0')
	}
	return append(buf, digits...)
}
