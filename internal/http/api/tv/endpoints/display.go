package endpoints

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/hilaltech/miqat/internal/db"
	"github.com/hilaltech/miqat/internal/geo"
	"github.com/hilaltech/miqat/internal/http/api"
	"github.com/hilaltech/miqat/internal/http/api/tv/packets"
	"github.com/hilaltech/miqat/internal/model"
	"github.com/hilaltech/miqat/internal/session"
)

// DisplayModule mounts the display-session endpoints: mount/unmount,
// the two location-resolution operations, the JSON snapshot, and the
// server-rendered athan page for dumb TV devices.
func DisplayModule(store db.Store, sessions *session.Manager) api.Module {
	ctl := &displayController{store: store, sessions: sessions}
	return api.ModuleFunc(func(c *api.Controller) {
		c.PUBLIC_POST("/screens/:id/session", ctl.mountSession)
		c.PUBLIC_DELETE("/screens/:id/session", ctl.unmountSession)
		c.PUBLIC_POST("/screens/:id/session/location/device", ctl.useDeviceLocation)
		c.PUBLIC_POST("/screens/:id/session/location/manual", ctl.useManualLocation)
		c.PUBLIC_GET("/screens/:id/session", ctl.getSession)
		c.RAW_GET("/screens/:id/session/page", ctl.displayPage)
	})
}

type displayController struct {
	store    db.Store
	sessions *session.Manager
}

// POST /api/tv/screens/:id/session
// Mounts the display session. When the screen has a saved location the first
// computation runs immediately so the page is never blank on boot.
func (t *displayController) mountSession(ctx *gin.Context) (any, *api.APIError) {
	screen, apiErr := t.screenFromPath(ctx)
	if apiErr != nil {
		return nil, apiErr
	}

	deviceID := ""
	if screen.DeviceID != nil {
		deviceID = *screen.DeviceID
	}
	sess := t.sessions.Mount(screen.ID, deviceID)

	if coords, ok := screen.SavedCoordinates(); ok {
		if err := sess.UseDeviceLocation(ctx, coords); err != nil {
			// boot computation is best effort; the device can retry
			log.Warn().Err(err).Int("screen_id", screen.ID).
				Msg("initial computation from saved location failed")
		}
	}

	return sessionResponse(screen.ID, sess.Snapshot()), nil
}

// DELETE /api/tv/screens/:id/session
func (t *displayController) unmountSession(ctx *gin.Context) (any, *api.APIError) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid id"}
	}
	t.sessions.Unmount(id)
	return gin.H{"unmounted": id}, nil
}

// POST /api/tv/screens/:id/session/location/device
func (t *displayController) useDeviceLocation(ctx *gin.Context) (any, *api.APIError) {
	screen, sess, apiErr := t.mountedSession(ctx)
	if apiErr != nil {
		return nil, apiErr
	}

	var request packets.DeviceLocationRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	if request.PermissionDenied {
		// the prompt lives on the device; session state is untouched
		return nil, alertError(&session.Alert{
			Kind:    session.PermissionDenied,
			Message: "location permission is required to detect your position",
		})
	}
	if request.Latitude == nil || request.Longitude == nil {
		return nil, alertError(&session.Alert{
			Kind:    session.LocationFetchFailure,
			Message: "couldn't read your position",
		})
	}

	coords := model.Coordinates{Latitude: *request.Latitude, Longitude: *request.Longitude}
	if err := sess.UseDeviceLocation(ctx, coords); err != nil {
		return nil, sessionError(err)
	}

	t.saveLocation(screen.ID, sess)
	return sessionResponse(screen.ID, sess.Snapshot()), nil
}

// POST /api/tv/screens/:id/session/location/manual
func (t *displayController) useManualLocation(ctx *gin.Context) (any, *api.APIError) {
	screen, sess, apiErr := t.mountedSession(ctx)
	if apiErr != nil {
		return nil, apiErr
	}

	var request packets.ManualLocationRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	if err := sess.UseManualLocation(ctx, request.Query); err != nil {
		return nil, sessionError(err)
	}

	t.saveLocation(screen.ID, sess)
	return sessionResponse(screen.ID, sess.Snapshot()), nil
}

// GET /api/tv/screens/:id/session
func (t *displayController) getSession(ctx *gin.Context) (any, *api.APIError) {
	_, sess, apiErr := t.mountedSession(ctx)
	if apiErr != nil {
		return nil, apiErr
	}
	id, _ := strconv.Atoi(ctx.Param("id"))
	return sessionResponse(id, sess.Snapshot()), nil
}

// GET /api/tv/screens/:id/session/page
func (t *displayController) displayPage(ctx *gin.Context) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		ctx.String(http.StatusBadRequest, "invalid id")
		return
	}
	sess, ok := t.sessions.Get(id)
	if !ok {
		ctx.String(http.StatusNotFound, "no display session for screen")
		return
	}

	snap := sess.Snapshot()
	data := packets.DisplayPageData{
		City:    strings.ToUpper(snap.LocationText),
		Date:    strings.ToUpper(snap.Now.Format("January 2, 2006")),
		Prayers: make([]packets.DisplayPrayer, 0, len(snap.Entries)),
	}
	for _, e := range snap.Entries {
		h := e.Time.Hour()
		period := "AM"
		if h >= 12 {
			period = "PM"
			if h > 12 {
				h -= 12
			}
		}
		if h == 0 {
			h = 12
		}
		row := packets.DisplayPrayer{
			Name:   strings.ToUpper(string(e.Name)),
			Time:   fmt.Sprintf("%02d:%02d", h, e.Time.Minute()),
			Period: period,
			Icon:   e.IconRef,
			IsNext: e.IsNext,
		}
		if e.IsNext {
			row.Countdown = snap.Countdown
		}
		data.Prayers = append(data.Prayers, row)
	}

	ctx.HTML(http.StatusOK, "athan.html", data)
}

// saveLocation persists a successfully resolved location so the screen boots
// with timings next time.
func (t *displayController) saveLocation(screenID int, sess *session.Session) {
	snap := sess.Snapshot()
	if snap.Coordinates == nil {
		return
	}
	if err := t.store.UpdateScreenLocation(screenID, snap.LocationText,
		snap.Coordinates.Latitude, snap.Coordinates.Longitude); err != nil {
		log.Warn().Err(err).Int("screen_id", screenID).Msg("could not persist screen location")
	}
}

func (t *displayController) screenFromPath(ctx *gin.Context) (*model.Screen, *api.APIError) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid id"}
	}
	screen, err := t.store.GetScreenByID(id)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusNotFound, Message: "screen not found"}
	}
	return &screen, nil
}

func (t *displayController) mountedSession(ctx *gin.Context) (*model.Screen, *session.Session, *api.APIError) {
	screen, apiErr := t.screenFromPath(ctx)
	if apiErr != nil {
		return nil, nil, apiErr
	}
	sess, ok := t.sessions.Get(screen.ID)
	if !ok {
		return nil, nil, &api.APIError{Code: http.StatusConflict, Message: "screen has no display session"}
	}
	return screen, sess, nil
}

func sessionResponse(screenID int, snap session.Snapshot) packets.SessionResponse {
	resp := packets.SessionResponse{
		ScreenID:  screenID,
		Location:  snap.LocationText,
		Loading:   snap.Loading,
		Now:       snap.Now.Format(time.RFC3339),
		Countdown: snap.Countdown,
		Prayers:   make([]packets.PrayerEntryResponse, 0, len(snap.Entries)),
	}
	if snap.Coordinates != nil {
		resp.Latitude = &snap.Coordinates.Latitude
		resp.Longitude = &snap.Coordinates.Longitude
	}
	for _, e := range snap.Entries {
		resp.Prayers = append(resp.Prayers, packets.PrayerEntryResponse{
			Name:   string(e.Name),
			Time:   e.Time.Format(time.RFC3339),
			Icon:   e.IconRef,
			IsNext: e.IsNext,
		})
	}
	return resp
}

// sessionError maps the session's alert taxonomy onto HTTP statuses. Every
// alert renders as the same blocking {"error": message} shape clients show
// verbatim.
func sessionError(err error) *api.APIError {
	if alert, ok := err.(*session.Alert); ok {
		return alertError(alert)
	}
	return &api.APIError{Code: http.StatusInternalServerError, Message: err.Error()}
}

func alertError(alert *session.Alert) *api.APIError {
	code := http.StatusBadGateway
	switch alert.Kind {
	case session.ValidationFailure:
		code = http.StatusBadRequest
	case session.PermissionDenied:
		code = http.StatusForbidden
	case session.GeocodeFailure:
		// no match for the query vs provider failure
		if errors.Is(alert.Err, geo.ErrNoResults) {
			code = http.StatusNotFound
		}
	}
	return &api.APIError{Code: code, Message: alert.Message}
}
