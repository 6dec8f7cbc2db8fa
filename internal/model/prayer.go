package model

import "time"

// PrayerName identifies one of the six daily observances shown on a screen.
type PrayerName string

const (
	Fajr    PrayerName = "Fajr"
	Sunrise PrayerName = "Sunrise"
	Dhuhr   PrayerName = "Dhuhr"
	Asr     PrayerName = "Asr"
	Maghrib PrayerName = "Maghrib"
	Isha    PrayerName = "Isha"
)

// PrayerOrder is the fixed display order. Schedules always carry all six
// entries in this order.
var PrayerOrder = [6]PrayerName{Fajr, Sunrise, Dhuhr, Asr, Maghrib, Isha}

// PrayerEntry is one row on the display: a named observance, its computed
// clock time, the glyph the client should render, and whether it is the
// highlighted "next" entry.
type PrayerEntry struct {
	Name    PrayerName `json:"name"`
	Time    time.Time  `json:"time"`
	IconRef string     `json:"icon"`
	IsNext  bool       `json:"is_next"`
}

// Schedule is a full day of prayer entries for one location.
type Schedule struct {
	Entries     []PrayerEntry `json:"entries"`
	ComputedAt  time.Time     `json:"computed_at"`
	ComputedFor time.Time     `json:"computed_for"` // the calendar day
}

// NextEntry returns the marked entry, or nil when every entry for the day
// has already passed.
func (s Schedule) NextEntry() *PrayerEntry {
	for i := range s.Entries {
		if s.Entries[i].IsNext {
			return &s.Entries[i]
		}
	}
	return nil
}
