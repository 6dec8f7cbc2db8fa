package athan

import (
	"fmt"
	"time"

	"github.com/hilaltech/miqat/internal/model"
)

// BuildSchedule assembles the six-entry schedule in fixed display order and
// marks the first entry whose time is strictly after now. If every entry is
// already past, none is marked.
func BuildSchedule(timings Timings, now time.Time) model.Schedule {
	ordered := timings.InOrder()
	entries := make([]model.PrayerEntry, len(model.PrayerOrder))
	for i, name := range model.PrayerOrder {
		entries[i] = model.PrayerEntry{
			Name:    name,
			Time:    ordered[i],
			IconRef: IconRef(name),
		}
	}
	if next := NextIndex(entries, now); next >= 0 {
		entries[next].IsNext = true
	}
	return model.Schedule{
		Entries:     entries,
		ComputedAt:  now,
		ComputedFor: time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()),
	}
}

// NextIndex scans entries in display order and returns the index of the
// first one strictly after now, or -1 when all have passed.
func NextIndex(entries []model.PrayerEntry, now time.Time) int {
	for i, e := range entries {
		if e.Time.After(now) {
			return i
		}
	}
	return -1
}

// Remark clears any existing next flag and re-marks against now.
// Used by sessions running recompute-on-tick semantics.
func Remark(entries []model.PrayerEntry, now time.Time) {
	for i := range entries {
		entries[i].IsNext = false
	}
	if next := NextIndex(entries, now); next >= 0 {
		entries[next].IsNext = true
	}
}

// Countdown renders the time remaining until t as display text:
// "in 2h 30m" with at least an hour left, "in 45m" under an hour,
// and the empty string once t is no longer in the future.
func Countdown(t, now time.Time) string {
	d := t.Sub(now)
	if d <= 0 {
		return ""
	}
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	if hours > 0 {
		return fmt.Sprintf("in %dh %dm", hours, minutes)
	}
	return fmt.Sprintf("in %dm", minutes)
}
