package agent

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTailBuffer(t *testing.T) {
	tests := []struct {
		name   string
		size   int
		writes []string
		want   string
	}{
		{"empty", 8, nil, ""},
		{"under capacity", 8, []string{"abc", "de"}, "abcde"},
		{"exactly full", 4, []string{"ab", "cd"}, "abcd"},
		{"wraps", 4, []string{"abc", "def"}, "cdef"},
		{"wraps twice", 3, []string{"ab", "cd", "ef", "g"}, "efg"},
		{"single oversized write", 4, []string{"0123456789"}, "6789"},
		{"oversized after wrap", 4, []string{"abcde", "0123456789"}, "6789"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := newTailBuffer(tt.size)
			for _, w := range tt.writes {
				n, err := buf.Write([]byte(w))
				assert.NoError(t, err)
				assert.Equal(t, len(w), n)
			}
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestTailBuffer_KeepsLastLines(t *testing.T) {
	buf := newTailBuffer(64)
	for i := 0; i < 100; i++ {
		fmt.Fprintf(buf, "line %03d\n", i)
	}
	out := buf.String()
	assert.Len(t, out, 64)
	assert.True(t, strings.HasSuffix(out, "line 099\n"))
}
