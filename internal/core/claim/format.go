package claim

import (
	"fmt"
	"time"
)

// FormatCooldown renders d as m:ss, rounding partial seconds up.
func FormatCooldown(d time.Duration) string {
	secs := CeilSeconds(d)
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

// FormatPause renders d as "Xh Ym Zs", truncating partial seconds.
func FormatPause(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	return fmt.Sprintf("%dh %dm %ds", total/3600, (total%3600)/60, total%60)
}

// ToMillis converts an optional deadline to epoch milliseconds.
func ToMillis(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	ms := t.UnixMilli()
	return &ms
}

// FromMillis converts optional epoch milliseconds to a UTC deadline.
// Zero and negative values mean "unset".
func FromMillis(ms *int64) *time.Time {
	if ms == nil || *ms <= 0 {
		return nil
	}
	t := time.UnixMilli(*ms).UTC()
	return &t
}

// CeilSeconds rounds d up to whole seconds. Negative durations yield 0.
func CeilSeconds(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	secs := int64(d / time.Second)
	if d%time.Second != 0 {
		secs++
	}
	return secs
}
