// FILE: lixenwraith/crashlog/sanitizer/sanitizer_test.go
package sanitizer

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizer(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		policy   PolicyPreset
		expected string
	}{
		// Raw policy
		{
			name:     "raw policy passes through",
			input:    "hello\x00world\n",
			policy:   PolicyRaw,
			expected: "hello\x00world\n",
		},

		// Txt policy
		{
			name:     "hex encode null byte",
			input:    "test\x00data",
			policy:   PolicyTxt,
			expected: "test<00>data",
		},
		{
			name:     "hex encode control chars",
			input:    "bell\x07tab\x09form\x0c",
			policy:   PolicyTxt,
			expected: "bell<07>tab<09>form<0c>",
		},
		{
			name:     "hex encode multi-byte control",
			input:    "line1\u0085line2",
			policy:   PolicyTxt,
			expected: "line1<c285>line2",
		},
		{
			name:     "hex encode preserves UTF-8",
			input:    "Hello 世界 ✓",
			policy:   PolicyTxt,
			expected: "Hello 世界 ✓",
		},

		// Line policy
		{
			name:     "line escapes common control chars",
			input:    "line1\nline2\ttab\rreturn",
			policy:   PolicyLine,
			expected: `line1\nline2\ttab\rreturn`,
		},
		{
			name:     "line escapes other control chars",
			input:    "text\x01\x1f",
			policy:   PolicyLine,
			expected: `text\u0001\u001f`,
		},
		{
			name:     "line escapes unicode separators",
			input:    "a\u2028b\u2029c",
			policy:   PolicyLine,
			expected: `a\u2028b\u2029c`,
		},
		{
			name:     "line preserves spaces and quotes",
			input:    `say "hi" there`,
			policy:   PolicyLine,
			expected: `say "hi" there`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := New().Policy(tc.policy)
			assert.Equal(t, tc.expected, s.Sanitize(tc.input))
		})
	}
}

func TestCustomRules(t *testing.T) {
	t.Run("strip whitespace", func(t *testing.T) {
		s := New().Rule(FilterWhitespace, TransformStrip)
		assert.Equal(t, "abc", s.Sanitize("a b\tc"))
	})

	t.Run("line breaks to spaces", func(t *testing.T) {
		s := New().Rule(FilterLineBreak, TransformSpace)
		assert.Equal(t, "one two three", s.Sanitize("one\ntwo\rthree"))
	})

	t.Run("first matching rule wins", func(t *testing.T) {
		s := New().
			Rule(FilterLineBreak, TransformSpace).
			Rule(FilterControl, TransformStrip)
		assert.Equal(t, "a b", s.Sanitize("a\n\x00b"))
	})
}

func TestAppend(t *testing.T) {
	s := New().Policy(PolicyLine)
	buf := []byte("prefix ")
	buf = s.Append(buf, "x\ny")
	assert.Equal(t, `prefix x\ny`, string(buf))
}

func TestConcurrentUse(t *testing.T) {
	s := New().Policy(PolicyLine)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				assert.Equal(t, `a\nb`, s.Sanitize("a\nb"))
			}
		}()
	}
	wg.Wait()
}

func BenchmarkSanitizer(b *testing.B) {
	input := strings.Repeat("normal text\x00\n\t", 100)

	benchmarks := []struct {
		name   string
		policy PolicyPreset
	}{
		{"Raw", PolicyRaw},
		{"Txt", PolicyTxt},
		{"Line", PolicyLine},
	}

	for _, bm := range benchmarks {
		b.Run(bm.name, func(b *testing.B) {
			s := New().Policy(bm.policy)
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_ = s.Sanitize(input)
			}
		})
	}
}
