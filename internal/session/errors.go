package session

import "fmt"

// FailureKind classifies the user-facing alerts a display session can raise.
type FailureKind string

const (
	PermissionDenied     FailureKind = "permission_denied"
	LocationFetchFailure FailureKind = "location_fetch_failure"
	GeocodeFailure       FailureKind = "geocode_failure"
	CalculationFailure   FailureKind = "calculation_failure"
	ValidationFailure    FailureKind = "validation_failure"
)

// Alert is a blocking, user-facing failure. It is handled where it occurs
// (one alert message, no retries) and never propagates past the endpoint
// that triggered the operation.
type Alert struct {
	Kind    FailureKind
	Message string
	Err     error
}

func (a *Alert) Error() string {
	if a.Err != nil {
		return fmt.Sprintf("%s: %s: %v", a.Kind, a.Message, a.Err)
	}
	return fmt.Sprintf("%s: %s", a.Kind, a.Message)
}

func (a *Alert) Unwrap() error { return a.Err }

func newAlert(kind FailureKind, message string, err error) *Alert {
	return &Alert{Kind: kind, Message: message, Err: err}
}
