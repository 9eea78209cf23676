package tts

import "strings"

// unitBuffer accumulates streamed text and emits speakable units as they
// complete. A unit ends on '.', '?', '!' or a newline, retaining punctuation.
type unitBuffer struct {
	b strings.Builder
}

// Write appends one fragment and returns the units it completed, trimmed, in
// order. Text after the last boundary stays buffered.
func (u *unitBuffer) Write(fragment string) []string {
	var units []string
	for _, r := range fragment {
		switch r {
		case '.', '!', '?':
			u.b.WriteRune(r)
			if unit := strings.TrimSpace(u.b.String()); unit != "" {
				units = append(units, unit)
			}
			u.b.Reset()
		case '\n', '\r':
			if unit := strings.TrimSpace(u.b.String()); unit != "" {
				units = append(units, unit)
			}
			u.b.Reset()
		default:
			u.b.WriteRune(r)
		}
	}
	return units
}

// Drain returns the trailing partial unit, if any, and resets the buffer.
func (u *unitBuffer) Drain() string {
	tail := strings.TrimSpace(u.b.String())
	u.b.Reset()
	return tail
}
