package packets

// REQUESTS FOR /api/tv

type RegisterPairingCodeRequest struct {
	PairingCode string `json:"code" binding:"required"`
	DeviceID    string `json:"device_id" binding:"required"`
}

// DeviceLocationRequest is the device's report of its own position fix.
// PermissionDenied means the user refused the foreground location prompt;
// the coordinates are absent in that case.
type DeviceLocationRequest struct {
	Latitude         *float64 `json:"latitude"`
	Longitude        *float64 `json:"longitude"`
	PermissionDenied bool     `json:"permission_denied"`
}

// ManualLocationRequest carries free-text the user typed. Emptiness is
// validated downstream so the client gets the validation alert, not a
// binding error.
type ManualLocationRequest struct {
	Query string `json:"query"`
}
