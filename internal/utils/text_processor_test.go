package utils

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestTruncate(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	tests := []struct {
		name    string
		text    string
		maxSize int
		want    string
	}{
		{
			name:    "under limit",
			text:    "short",
			maxSize: 10,
			want:    "short",
		},
		{
			name:    "exactly at limit",
			text:    "12345",
			maxSize: 5,
			want:    "12345",
		},
		{
			name:    "over limit",
			text:    "1234567890",
			maxSize: 5,
			want:    "12345",
		},
		{
			name:    "zero disables limit",
			text:    "anything",
			maxSize: 0,
			want:    "anything",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tp.Truncate(tt.text, tt.maxSize))
		})
	}
}

func TestTruncateBacksOffToRuneBoundary(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	// Cutting "héllo" at 2 bytes would split the two-byte é.
	got := tp.Truncate("héllo", 2)
	assert.Equal(t, "h", got)
	assert.True(t, utf8.ValidString(got))
}

func TestSanitizeUTF8(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	assert.Equal(t, "clean", tp.SanitizeUTF8("clean"))

	dirty := "bad\xffbyte"
	got := tp.SanitizeUTF8(dirty)
	assert.True(t, utf8.ValidString(got))
	assert.Contains(t, got, "bad")
	assert.Contains(t, got, "byte")
}

func TestProcess(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	got := tp.Process(strings.Repeat("a", 100), 10)
	assert.Equal(t, strings.Repeat("a", 10), got)
	assert.True(t, utf8.ValidString(got))
}
