package endpoints

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hilaltech/miqat/internal/athan"
	"github.com/hilaltech/miqat/internal/db"
	"github.com/hilaltech/miqat/internal/geo"
	"github.com/hilaltech/miqat/internal/http/api"
	"github.com/hilaltech/miqat/internal/http/api/tv/packets"
	"github.com/hilaltech/miqat/internal/model"
	"github.com/hilaltech/miqat/internal/session"
)

// stubStore overrides only what the display endpoints touch.
type stubStore struct {
	db.Store
	screen         model.Screen
	savedLocations []string
}

func (s *stubStore) GetScreenByID(id int) (model.Screen, error) {
	screen := s.screen
	screen.ID = id
	return screen, nil
}

func (s *stubStore) UpdateScreenLocation(id int, location string, lat, lon float64) error {
	s.savedLocations = append(s.savedLocations, location)
	return nil
}

type stubGeocoder struct {
	places      []geo.Place
	forwardErr  error
	reverseText string
}

func (g *stubGeocoder) Forward(context.Context, string) ([]geo.Place, error) {
	if g.forwardErr != nil {
		return nil, g.forwardErr
	}
	if len(g.places) == 0 {
		return nil, geo.ErrNoResults
	}
	return g.places, nil
}

func (g *stubGeocoder) Reverse(context.Context, model.Coordinates) (string, error) {
	return g.reverseText, nil
}

type stubCalc struct{}

func (stubCalc) DailyTimings(_ context.Context, _ model.Coordinates, date time.Time) (athan.Timings, error) {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	return athan.Timings{
		Fajr:    day.Add(4 * time.Hour),
		Sunrise: day.Add(6 * time.Hour),
		Dhuhr:   day.Add(13 * time.Hour),
		Asr:     day.Add(17 * time.Hour),
		Maghrib: day.Add(20 * time.Hour),
		Isha:    day.Add(22 * time.Hour),
	}, nil
}

func setupDisplayRouter(t *testing.T, store db.Store, g geo.Geocoder) (*gin.Engine, *session.Manager) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	sessions := session.NewManager(g, stubCalc{}, nil, session.Options{
		TickInterval: time.Hour, // ticks are irrelevant to these tests
		Now: func() time.Time {
			return time.Date(2026, 8, 26, 10, 0, 0, 0, time.UTC)
		},
	})
	t.Cleanup(sessions.StopAll)

	r := gin.New()
	api.MountGroup(r, api.GroupConfig{Prefix: "/api/tv"}, DisplayModule(store, sessions))
	return r, sessions
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestMountThenManualLocation(t *testing.T) {
	store := &stubStore{screen: model.Screen{Name: "Lobby"}}
	g := &stubGeocoder{
		places: []geo.Place{{
			Coordinates: model.Coordinates{Latitude: 41.0, Longitude: 29.0},
			DisplayName: "Istanbul, Turkey",
		}},
		reverseText: "Istanbul, Turkey",
	}
	r, _ := setupDisplayRouter(t, store, g)

	w := doJSON(t, r, http.MethodPost, "/api/tv/screens/1/session", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("mount failed: %d %s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodPost, "/api/tv/screens/1/session/location/manual",
		map[string]string{"query": "Istanbul"})
	if w.Code != http.StatusOK {
		t.Fatalf("manual location failed: %d %s", w.Code, w.Body.String())
	}

	var resp packets.SessionResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response: %v", err)
	}
	if len(resp.Prayers) != 6 {
		t.Fatalf("got %d prayers, want 6", len(resp.Prayers))
	}
	if resp.Location != "Istanbul, Turkey" {
		t.Fatalf("location = %q", resp.Location)
	}
	// 10:00 → Dhuhr at 13:00
	if resp.Countdown != "in 3h 0m" {
		t.Fatalf("countdown = %q", resp.Countdown)
	}
	if len(store.savedLocations) != 1 {
		t.Fatalf("resolved location not persisted")
	}
}

func TestManualLocationValidationAndNotFound(t *testing.T) {
	store := &stubStore{screen: model.Screen{Name: "Lobby"}}
	r, _ := setupDisplayRouter(t, store, &stubGeocoder{})

	doJSON(t, r, http.MethodPost, "/api/tv/screens/1/session", nil)

	w := doJSON(t, r, http.MethodPost, "/api/tv/screens/1/session/location/manual",
		map[string]string{"query": "   "})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("empty query: code = %d, want 400", w.Code)
	}

	w = doJSON(t, r, http.MethodPost, "/api/tv/screens/1/session/location/manual",
		map[string]string{"query": "nowhere"})
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown place: code = %d, want 404", w.Code)
	}
	var body map[string]string
	json.Unmarshal(w.Body.Bytes(), &body)
	if body["error"] != "location not found" {
		t.Fatalf("alert = %q", body["error"])
	}
}

func TestGeocoderOutageIsNotANotFound(t *testing.T) {
	store := &stubStore{screen: model.Screen{Name: "Lobby"}}
	g := &stubGeocoder{forwardErr: errors.New("connection refused")}
	r, _ := setupDisplayRouter(t, store, g)

	doJSON(t, r, http.MethodPost, "/api/tv/screens/1/session", nil)

	w := doJSON(t, r, http.MethodPost, "/api/tv/screens/1/session/location/manual",
		map[string]string{"query": "Istanbul"})
	if w.Code != http.StatusBadGateway {
		t.Fatalf("provider outage: code = %d, want 502", w.Code)
	}
}

func TestDeviceLocationPermissionDenied(t *testing.T) {
	store := &stubStore{screen: model.Screen{Name: "Lobby"}}
	g := &stubGeocoder{reverseText: "Istanbul, Turkey"}
	r, sessions := setupDisplayRouter(t, store, g)

	doJSON(t, r, http.MethodPost, "/api/tv/screens/1/session", nil)

	w := doJSON(t, r, http.MethodPost, "/api/tv/screens/1/session/location/device",
		map[string]any{"permission_denied": true})
	if w.Code != http.StatusForbidden {
		t.Fatalf("code = %d, want 403", w.Code)
	}

	sess, _ := sessions.Get(1)
	snap := sess.Snapshot()
	if snap.Coordinates != nil || len(snap.Entries) != 0 || snap.LocationText != "" {
		t.Fatalf("denial report changed session state: %+v", snap)
	}
}

func TestDeviceLocationComputesSchedule(t *testing.T) {
	store := &stubStore{screen: model.Screen{Name: "Lobby"}}
	g := &stubGeocoder{reverseText: "Chicago, United States"}
	r, _ := setupDisplayRouter(t, store, g)

	doJSON(t, r, http.MethodPost, "/api/tv/screens/1/session", nil)

	w := doJSON(t, r, http.MethodPost, "/api/tv/screens/1/session/location/device",
		map[string]float64{"latitude": 41.8781, "longitude": -87.6298})
	if w.Code != http.StatusOK {
		t.Fatalf("device location failed: %d %s", w.Code, w.Body.String())
	}

	var resp packets.SessionResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Location != "Chicago, United States" {
		t.Fatalf("location = %q", resp.Location)
	}
	marked := 0
	for _, p := range resp.Prayers {
		if p.IsNext {
			marked++
		}
	}
	if marked != 1 {
		t.Fatalf("marked %d prayers, want 1", marked)
	}
}

func TestOperationsRequireMountedSession(t *testing.T) {
	store := &stubStore{screen: model.Screen{Name: "Lobby"}}
	r, _ := setupDisplayRouter(t, store, &stubGeocoder{})

	w := doJSON(t, r, http.MethodGet, "/api/tv/screens/1/session", nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("get without mount: code = %d, want 409", w.Code)
	}
}

func TestUnmountTearsDownSession(t *testing.T) {
	store := &stubStore{screen: model.Screen{Name: "Lobby"}}
	r, sessions := setupDisplayRouter(t, store, &stubGeocoder{})

	doJSON(t, r, http.MethodPost, "/api/tv/screens/1/session", nil)
	sess, ok := sessions.Get(1)
	if !ok {
		t.Fatalf("session not mounted")
	}

	w := doJSON(t, r, http.MethodDelete, "/api/tv/screens/1/session", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("unmount failed: %d", w.Code)
	}

	select {
	case <-sess.Done():
	case <-time.After(time.Second):
		t.Fatalf("session ticker not stopped by unmount")
	}
	if w := doJSON(t, r, http.MethodGet, "/api/tv/screens/1/session", nil); w.Code != http.StatusConflict {
		t.Fatalf("session still reachable after unmount: %d", w.Code)
	}
}

func TestMountUsesSavedLocation(t *testing.T) {
	lat, lon := 41.0, 29.0
	store := &stubStore{screen: model.Screen{Name: "Lobby", Latitude: &lat, Longitude: &lon}}
	g := &stubGeocoder{reverseText: "Istanbul, Turkey"}
	r, _ := setupDisplayRouter(t, store, g)

	w := doJSON(t, r, http.MethodPost, "/api/tv/screens/1/session", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("mount failed: %d", w.Code)
	}

	var resp packets.SessionResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Prayers) != 6 {
		t.Fatalf("boot computation did not run: %d prayers", len(resp.Prayers))
	}
}
