package model

// Coordinates is an immutable latitude/longitude pair. A session replaces
// its coordinates wholesale on each location resolution, never mutates them.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}
