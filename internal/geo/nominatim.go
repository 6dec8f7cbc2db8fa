package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hilaltech/miqat/internal/model"
)

// DefaultNominatimURL is the public OpenStreetMap Nominatim host.
const DefaultNominatimURL = "https://nominatim.openstreetmap.org"

// userAgent identifies this service to Nominatim, which rejects anonymous
// clients.
const userAgent = "miqat-screens/1.0"

// NominatimClient is the HTTP Geocoder backed by Nominatim's
// /search and /reverse endpoints.
type NominatimClient struct {
	baseURL string
	limit   int
	session *http.Client
}

func NewNominatimClient(baseURL string) *NominatimClient {
	if baseURL == "" {
		baseURL = DefaultNominatimURL
	}
	return &NominatimClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		limit:   5,
		session: &http.Client{Timeout: 10 * time.Second},
	}
}

type searchResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

type reverseResult struct {
	Address struct {
		City    string `json:"city"`
		Town    string `json:"town"`
		Village string `json:"village"`
		County  string `json:"county"`
		Country string `json:"country"`
	} `json:"address"`
}

// Forward resolves a free-text query to coordinate candidates.
// A successful provider response with no matches returns ErrNoResults.
func (n *NominatimClient) Forward(ctx context.Context, query string) ([]Place, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("format", "json")
	q.Set("limit", strconv.Itoa(n.limit))

	resp, err := n.get(ctx, "/search", q)
	if err != nil {
		return nil, fmt.Errorf("geo: forward geocode: %w", err)
	}
	defer resp.Body.Close()

	var decoded []searchResult
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("geo: decode search response: %w", err)
	}
	if len(decoded) == 0 {
		return nil, ErrNoResults
	}

	out := make([]Place, 0, len(decoded))
	for _, r := range decoded {
		lat, err := strconv.ParseFloat(r.Lat, 64)
		if err != nil {
			return nil, fmt.Errorf("geo: invalid latitude %q: %w", r.Lat, err)
		}
		lon, err := strconv.ParseFloat(r.Lon, 64)
		if err != nil {
			return nil, fmt.Errorf("geo: invalid longitude %q: %w", r.Lon, err)
		}
		out = append(out, Place{
			Coordinates: model.Coordinates{Latitude: lat, Longitude: lon},
			DisplayName: r.DisplayName,
		})
	}
	return out, nil
}

// Reverse resolves coordinates to "city, country" text. Falls back through
// town/village/county when the locality has no city field.
func (n *NominatimClient) Reverse(ctx context.Context, coords model.Coordinates) (string, error) {
	q := url.Values{}
	q.Set("lat", fmt.Sprintf("%f", coords.Latitude))
	q.Set("lon", fmt.Sprintf("%f", coords.Longitude))
	q.Set("format", "json")

	resp, err := n.get(ctx, "/reverse", q)
	if err != nil {
		return "", fmt.Errorf("geo: reverse geocode: %w", err)
	}
	defer resp.Body.Close()

	var decoded reverseResult
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("geo: decode reverse response: %w", err)
	}

	locality := decoded.Address.City
	for _, alt := range []string{decoded.Address.Town, decoded.Address.Village, decoded.Address.County} {
		if locality != "" {
			break
		}
		locality = alt
	}
	switch {
	case locality != "" && decoded.Address.Country != "":
		return locality + ", " + decoded.Address.Country, nil
	case decoded.Address.Country != "":
		return decoded.Address.Country, nil
	case locality != "":
		return locality, nil
	}
	return "", errors.New("geo: reverse geocode returned no address")
}

func (n *NominatimClient) get(ctx context.Context, path string, q url.Values) (*http.Response, error) {
	endpoint := n.baseURL + path + "?" + q.Encode()

	const maxAttempts = 3
	backoff := 250 * time.Millisecond

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", userAgent)
		req.Header.Set("Accept", "application/json")

		resp, err := n.session.Do(req)
		if err == nil && resp.StatusCode == http.StatusOK {
			return resp, nil
		}

		retryable := false
		if err != nil {
			lastErr = err
			var netErr net.Error
			retryable = errors.As(err, &netErr)
		} else {
			lastErr = fmt.Errorf("unexpected status %d", resp.StatusCode)
			retryable = resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
			resp.Body.Close()
		}

		if !retryable || attempt == maxAttempts {
			return nil, lastErr
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		backoff *= 2
	}
	return nil, lastErr
}
