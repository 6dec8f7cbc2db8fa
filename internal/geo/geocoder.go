package geo

import (
	"context"
	"errors"

	"github.com/hilaltech/miqat/internal/model"
)

// ErrNoResults is returned by Forward when the provider answers successfully
// but matches nothing. Callers treat this separately from provider failures.
var ErrNoResults = errors.New("geo: no results for query")

// Place is one forward-geocoding candidate.
type Place struct {
	Coordinates model.Coordinates
	DisplayName string
}

// Geocoder resolves free-text queries to coordinate candidates and
// coordinates to a human-readable "city, country" label.
type Geocoder interface {
	Forward(ctx context.Context, query string) ([]Place, error)
	Reverse(ctx context.Context, coords model.Coordinates) (string, error)
}
