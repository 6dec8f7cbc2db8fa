package athan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hilaltech/miqat/internal/model"
)

// DefaultBaseURL is the public AlAdhan API host.
const DefaultBaseURL = "https://api.aladhan.com"

// MethodMWL is the Muslim World League calculation convention, the fixed
// convention this service computes with unless overridden by configuration.
const MethodMWL = 3

// ErrNoTimings is returned when the provider response omits one of the six
// required observances.
var ErrNoTimings = errors.New("athan: provider returned incomplete timings")

// AladhanClient computes daily timings through the AlAdhan HTTP API.
type AladhanClient struct {
	baseURL string
	method  int
	session *http.Client
}

func NewAladhanClient(baseURL string, method int) *AladhanClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if method == 0 {
		method = MethodMWL
	}
	return &AladhanClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		method:  method,
		session: &http.Client{Timeout: 15 * time.Second},
	}
}

type aladhanResponse struct {
	Data struct {
		Timings map[string]string `json:"timings"`
		Meta    struct {
			Timezone string `json:"timezone"`
		} `json:"meta"`
	} `json:"data"`
}

// DailyTimings fetches the six observance times for date at coords.
// Times come back in the location's own timezone as reported by the provider.
func (a *AladhanClient) DailyTimings(ctx context.Context, coords model.Coordinates, date time.Time) (Timings, error) {
	endpoint := fmt.Sprintf("%s/v1/timings/%s", a.baseURL, date.Format("02-01-2006"))

	q := url.Values{}
	q.Set("latitude", fmt.Sprintf("%f", coords.Latitude))
	q.Set("longitude", fmt.Sprintf("%f", coords.Longitude))
	q.Set("method", fmt.Sprintf("%d", a.method))

	resp, err := doWithRetry(ctx, a.session, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+q.Encode(), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		return req, nil
	})
	if err != nil {
		return Timings{}, fmt.Errorf("athan: fetch timings: %w", err)
	}
	defer resp.Body.Close()

	var decoded aladhanResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return Timings{}, fmt.Errorf("athan: decode timings: %w", err)
	}

	loc, err := time.LoadLocation(decoded.Data.Meta.Timezone)
	if err != nil {
		log.Warn().Str("timezone", decoded.Data.Meta.Timezone).
			Msg("unknown provider timezone, falling back to UTC")
		loc = time.UTC
	}

	var out Timings
	for name, dst := range map[string]*time.Time{
		"Fajr":    &out.Fajr,
		"Sunrise": &out.Sunrise,
		"Dhuhr":   &out.Dhuhr,
		"Asr":     &out.Asr,
		"Maghrib": &out.Maghrib,
		"Isha":    &out.Isha,
	} {
		raw, ok := decoded.Data.Timings[name]
		if !ok {
			return Timings{}, ErrNoTimings
		}
		t, err := parseClock(raw, date, loc)
		if err != nil {
			return Timings{}, fmt.Errorf("athan: parse %s %q: %w", name, raw, err)
		}
		*dst = t
	}
	return out, nil
}

// parseClock combines a provider "HH:MM" clock string (optionally suffixed
// with a zone abbreviation) with the requested date.
func parseClock(raw string, date time.Time, loc *time.Location) (time.Time, error) {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return time.Time{}, errors.New("empty clock value")
	}
	parsed, err := time.Parse("15:04", fields[0])
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(date.Year(), date.Month(), date.Day(),
		parsed.Hour(), parsed.Minute(), 0, 0, loc), nil
}

type httpStatusError struct {
	Code int
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Code)
}

// doWithRetry retries transient failures (network errors, 429 and 5xx
// responses) with exponential backoff while respecting context cancellation.
func doWithRetry(ctx context.Context, session *http.Client, makeReq func() (*http.Request, error)) (*http.Response, error) {
	const maxAttempts = 4
	backoff := 200 * time.Millisecond

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req, err := makeReq()
		if err != nil {
			return nil, err
		}

		resp, err := session.Do(req)
		if err == nil && resp.StatusCode == http.StatusOK {
			return resp, nil
		}
		if err == nil {
			resp.Body.Close()
			lastErr = &httpStatusError{Code: resp.StatusCode}
		} else {
			lastErr = err
		}

		retry := false
		var he *httpStatusError
		if errors.As(lastErr, &he) {
			switch he.Code {
			case http.StatusTooManyRequests, 500, 502, 503, 504:
				retry = true
			}
		}
		var netErr net.Error
		if !retry && errors.As(lastErr, &netErr) {
			retry = true
		}

		if !retry || attempt == maxAttempts {
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
