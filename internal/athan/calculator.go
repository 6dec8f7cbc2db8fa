package athan

import (
	"context"
	"time"

	"github.com/hilaltech/miqat/internal/model"
)

// Timings holds the six clock times for one calendar day, already resolved
// into the location's timezone.
type Timings struct {
	Fajr    time.Time
	Sunrise time.Time
	Dhuhr   time.Time
	Asr     time.Time
	Maghrib time.Time
	Isha    time.Time
}

// InOrder returns the timings in display order (Fajr..Isha).
func (t Timings) InOrder() [6]time.Time {
	return [6]time.Time{t.Fajr, t.Sunrise, t.Dhuhr, t.Asr, t.Maghrib, t.Isha}
}

// Calculator is the external astronomical computation this service consumes.
// Implementations return the six timings for the given calendar day at the
// given coordinates.
type Calculator interface {
	DailyTimings(ctx context.Context, coords model.Coordinates, date time.Time) (Timings, error)
}

// icon glyph names served to clients, keyed by observance.
var iconRefs = map[model.PrayerName]string{
	model.Fajr:    "cloudy-night-outline",
	model.Sunrise: "partly-sunny-outline",
	model.Dhuhr:   "sunny",
	model.Asr:     "sunny-outline",
	model.Maghrib: "moon-outline",
	model.Isha:    "moon",
}

// IconRef maps an observance to its display glyph.
func IconRef(name model.PrayerName) string {
	return iconRefs[name]
}
