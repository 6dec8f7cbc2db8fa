package packets

// RESPONSES FOR /api/tv

type PrayerEntryResponse struct {
	Name   string `json:"name"`
	Time   string `json:"time"` // RFC3339
	Icon   string `json:"icon"`
	IsNext bool   `json:"is_next"`
}

type SessionResponse struct {
	ScreenID  int                   `json:"screen_id"`
	Location  string                `json:"location"`
	Latitude  *float64              `json:"latitude"`
	Longitude *float64              `json:"longitude"`
	Loading   bool                  `json:"loading"`
	Now       string                `json:"now"` // RFC3339
	Countdown string                `json:"countdown"`
	Prayers   []PrayerEntryResponse `json:"prayers"`
}

// DisplayPrayer is one row of the rendered athan page, in 12-hour clock.
type DisplayPrayer struct {
	Name      string
	Time      string
	Period    string // "AM" or "PM"
	Icon      string
	IsNext    bool
	Countdown string
}

type DisplayPageData struct {
	City    string
	Date    string // e.g. "AUGUST 26, 2026"
	Prayers []DisplayPrayer
}
