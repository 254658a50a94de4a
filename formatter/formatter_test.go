// FILE: lixenwraith/crashlog/formatter/formatter_test.go
package formatter

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"

	"github.com/lixenwraith/crashlog/sanitizer"
)

func TestAppendHeader(t *testing.T) {
	tests := []struct {
		name    string
		elapsed time.Duration
		want    string
	}{
		{"zero", 0, "[000.000] "},
		{"millis", 7 * time.Millisecond, "[000.007] "},
		{"truncates sub-millisecond", 1500 * time.Microsecond, "[000.001] "},
		{"seconds", 12*time.Second + 345*time.Millisecond, "[012.345] "},
		{"wide seconds", 1234*time.Second + 5*time.Millisecond, "[1234.005] "},
		{"negative clamps", -time.Second, "[000.000] "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, string(AppendHeader(nil, tt.elapsed)))
		})
	}
}

func TestRecord(t *testing.T) {
	f := New()

	t.Run("without location", func(t *testing.T) {
		got := string(f.Record(2*time.Second, "Info: ", "hello", nil))
		assert.Equal(t, "[002.000] Info:  hello\n", got)
	})

	t.Run("with location", func(t *testing.T) {
		got := string(f.Record(0, "Warn: ", "disk low", &Location{File: "main.go", Line: 42}))
		assert.Equal(t, "[000.000] Warn:  disk low (main.go:42)\n", got)
	})

	t.Run("empty location file is ignored", func(t *testing.T) {
		got := string(f.Record(0, "Crit: ", "x", &Location{Line: 9}))
		assert.Equal(t, "[000.000] Crit:  x\n", got)
	})

	t.Run("single newline terminator", func(t *testing.T) {
		got := string(f.Record(0, "Debug:", "a", nil))
		assert.True(t, strings.HasSuffix(got, "\n"))
		assert.Equal(t, 1, strings.Count(got, "\n"))
	})

	t.Run("sanitizer applies to text only", func(t *testing.T) {
		sf := New(sanitizer.New().Policy(sanitizer.PolicyLine))
		got := string(sf.Record(0, "Info: ", "two\nlines", nil))
		assert.Equal(t, "[000.000] Info:  two\\nlines\n", got)
	})
}

type point struct {
	X, Y int
}

type named string

func (n named) String() string { return "named:" + string(n) }

func TestArgs(t *testing.T) {
	tests := []struct {
		name string
		args []any
		want string
	}{
		{"strings", []any{"a", "b"}, "a b"},
		{"numbers", []any{1, int64(-2), uint(3), 1.5}, "1 -2 3 1.5"},
		{"bool and nil", []any{true, nil}, "true nil"},
		{"error", []any{errors.New("boom")}, "boom"},
		{"stringer", []any{named("x")}, "named:x"},
		{"bytes", []any{[]byte("raw")}, "raw"},
		{"address", []any{uintptr(0xbeef)}, "0xbeef"},
		{"duration", []any{1500 * time.Millisecond}, "1.5s"},
		{"empty", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Args(tt.args...))
		})
	}

	t.Run("composite values use dumper", func(t *testing.T) {
		got := Dump(point{X: 1, Y: 2})
		assert.Contains(t, got, "X:1")
		assert.Contains(t, got, "Y:2")
	})
}

func TestRecordGolden(t *testing.T) {
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)

	f := New()
	var buf []byte
	buf = f.AppendRecord(buf, 0, "Debug:", "init ok", nil)
	buf = f.AppendRecord(buf, 5*time.Millisecond, "Info: ", "worker started", &Location{File: "worker.go", Line: 17})
	buf = f.AppendRecord(buf, 1250*time.Millisecond, "Warn: ", "retrying", nil)
	buf = f.AppendRecord(buf, 61*time.Second, "Crit: ", "queue stalled", nil)
	buf = f.AppendRecord(buf, 61*time.Second+999*time.Millisecond, "Fatal:", "giving up", nil)

	g.Assert(t, "records", buf)
}

func BenchmarkAppendRecord(b *testing.B) {
	f := New()
	buf := make([]byte, 0, 128)
	loc := &Location{File: "bench.go", Line: 1}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		buf = f.AppendRecord(buf[:0], time.Duration(i)*time.Millisecond, "Info: ", "benchmark message", loc)
	}
}
