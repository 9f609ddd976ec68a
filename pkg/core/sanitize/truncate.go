// Package sanitize enforces what visitor-supplied text may reach the activity log.
package sanitize

import "unicode/utf8"

// Per-category limits, in characters.
const (
	AITextMaxLength    = 2000
	InputTextMaxLength = 1000
	CopyTextMaxLength  = 500
)

// TruncationMarker is appended to text that was cut.
const TruncationMarker = "..."

var markerLen = utf8.RuneCountInString(TruncationMarker)

// TruncateText cuts s to at most maxLen characters. Text that fits is returned unchanged;
// otherwise the result is exactly maxLen characters and ends with TruncationMarker when the
// limit leaves room for at least one character of content.
func TruncateText(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	if maxLen <= markerLen {
		return firstRunes(s, maxLen)
	}
	return firstRunes(s, maxLen-markerLen) + TruncationMarker
}

// TruncateAIText applies AITextMaxLength.
func TruncateAIText(s string) string { return TruncateText(s, AITextMaxLength) }

// TruncateInputText applies InputTextMaxLength.
func TruncateInputText(s string) string { return TruncateText(s, InputTextMaxLength) }

// TruncateCopyText applies CopyTextMaxLength.
func TruncateCopyText(s string) string { return TruncateText(s, CopyTextMaxLength) }

func firstRunes(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
