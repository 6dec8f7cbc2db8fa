package model

import "time"

// Screen represents a registered prayer-times display device.
// Latitude/Longitude hold the last saved location so a freshly mounted
// session can show timings before the device reports a position.
type Screen struct {
	ID        int       `db:"id"         json:"id"`
	DeviceID  *string   `db:"device_id"  json:"device_id"`
	Name      string    `db:"name"       json:"name"`
	Location  *string   `db:"location"   json:"location"`
	Latitude  *float64  `db:"latitude"   json:"latitude"`
	Longitude *float64  `db:"longitude"  json:"longitude"`
	Paired    bool      `db:"paired"     json:"paired"`
	CreatedBy int       `db:"created_by" json:"created_by"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// SavedCoordinates returns the stored location when both components exist.
func (s Screen) SavedCoordinates() (Coordinates, bool) {
	if s.Latitude == nil || s.Longitude == nil {
		return Coordinates{}, false
	}
	return Coordinates{Latitude: *s.Latitude, Longitude: *s.Longitude}, true
}
