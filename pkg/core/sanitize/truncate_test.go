package sanitize

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTruncateText(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		maxLen int
		want   string
	}{
		{"fits", "hello", 10, "hello"},
		{"exact", "hello", 5, "hello"},
		{"cut with marker", "hello world", 8, "hello..."},
		{"too short for marker", "hello", 3, "hel"},
		{"one over marker", "hello", 4, "h..."},
		{"zero", "hello", 0, ""},
		{"negative", "hello", -5, ""},
		{"empty input", "", 3, ""},
		{"multibyte", "こんにちは世界", 6, "こんに..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TruncateText(tt.in, tt.maxLen))
		})
	}
}

func TestTruncateTextBounds(t *testing.T) {
	inputs := []string{"", "a", "short", strings.Repeat("x", 1200), "絵文字🙂🙂🙂🙂 mixed text", "line\nbreaks\tand tabs"}
	for _, s := range inputs {
		for maxLen := 0; maxLen <= 30; maxLen++ {
			got := TruncateText(s, maxLen)
			assert.LessOrEqual(t, utf8.RuneCountInString(got), maxLen)
			assert.True(t, utf8.ValidString(got))
			if utf8.RuneCountInString(s) <= maxLen {
				assert.Equal(t, s, got)
			}
			assert.Equal(t, got, TruncateText(got, maxLen), "truncation must be idempotent")
		}
	}
}

func TestCategoryLimits(t *testing.T) {
	long := strings.Repeat("z", 5000)

	assert.Equal(t, 1000, InputTextMaxLength)
	assert.Equal(t, 500, CopyTextMaxLength)

	assert.Equal(t, AITextMaxLength, utf8.RuneCountInString(TruncateAIText(long)))
	assert.Equal(t, InputTextMaxLength, utf8.RuneCountInString(TruncateInputText(long)))
	assert.Equal(t, CopyTextMaxLength, utf8.RuneCountInString(TruncateCopyText(long)))
	assert.True(t, strings.HasSuffix(TruncateCopyText(long), TruncationMarker))
	assert.Equal(t, "short", TruncateCopyText("short"))
}
