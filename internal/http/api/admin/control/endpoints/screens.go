package endpoints

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/hilaltech/miqat/internal/db"
	"github.com/hilaltech/miqat/internal/http/api"
	"github.com/hilaltech/miqat/internal/http/api/admin/control/packets"
	"github.com/hilaltech/miqat/internal/model"
	"github.com/hilaltech/miqat/internal/redis"
)

type ScreenController struct {
	store db.Store
}

func newScreenController(store db.Store) *ScreenController {
	return &ScreenController{store: store}
}

// ScreenModule mounts all authenticated /screens endpoints.
func ScreenModule(store db.Store) api.Module {
	ctl := newScreenController(store)
	return api.ModuleFunc(func(c *api.Controller) {
		// CRUD
		c.GET("/screens", ctl.listScreens)
		c.POST("/screens", ctl.createScreen)
		c.GET("/screens/:id", ctl.getScreen)
		c.PUT("/screens/:id", ctl.updateScreen)
		c.DELETE("/screens/:id", ctl.deleteScreen)

		// pairing
		c.POST("/screens/pair", ctl.pairScreen)
	})
}

func screenResponse(s model.Screen) packets.ScreenResponse {
	return packets.ScreenResponse{
		ID:        s.ID,
		DeviceID:  s.DeviceID,
		Name:      s.Name,
		Location:  s.Location,
		Latitude:  s.Latitude,
		Longitude: s.Longitude,
		Paired:    s.Paired,
		CreatedAt: s.CreatedAt.Format(time.RFC3339),
		UpdatedAt: s.UpdatedAt.Format(time.RFC3339),
	}
}

// GET /api/admin/screens
func (t *ScreenController) listScreens(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	all, err := t.store.ListScreens()
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: err.Error()}
	}

	out := make([]packets.ScreenResponse, 0, len(all))
	for _, s := range all {
		if s.CreatedBy != user.ID {
			continue
		}
		out = append(out, screenResponse(s))
	}
	return out, nil
}

// POST /api/admin/screens
func (t *ScreenController) createScreen(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	var request packets.CreateScreenRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	screen, err := t.store.CreateScreen(request.Name, request.Location, user.ID)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not create screen"}
	}
	return screenResponse(screen), nil
}

// GET /api/admin/screens/:id
func (t *ScreenController) getScreen(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	screen, apiErr := t.ownedScreen(ctx, user)
	if apiErr != nil {
		return nil, apiErr
	}
	return screenResponse(*screen), nil
}

// PUT /api/admin/screens/:id
func (t *ScreenController) updateScreen(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	screen, apiErr := t.ownedScreen(ctx, user)
	if apiErr != nil {
		return nil, apiErr
	}

	var request packets.UpdateScreenRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		log.Error().Err(err).Msg("invalid JSON in update screen request")
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	if err := t.store.UpdateScreen(screen.ID, request.Name, request.Location); err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not update screen"}
	}

	updated, err := t.store.GetScreenByID(screen.ID)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not fetch updated screen"}
	}
	return screenResponse(updated), nil
}

// DELETE /api/admin/screens/:id
func (t *ScreenController) deleteScreen(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	screen, apiErr := t.ownedScreen(ctx, user)
	if apiErr != nil {
		return nil, apiErr
	}
	if err := t.store.DeleteScreen(screen.ID); err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not delete screen"}
	}
	return gin.H{"deleted": screen.ID}, nil
}

// POST /api/admin/screens/pair
// Exchanges the pairing code the device registered for its device ID and
// binds that device to the screen.
func (t *ScreenController) pairScreen(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	var request packets.PairScreenRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	screen, err := t.store.GetScreenByID(request.ScreenID)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusNotFound, Message: "screen not found"}
	}
	if screen.CreatedBy != user.ID {
		return nil, &api.APIError{Code: http.StatusForbidden, Message: "forbidden"}
	}

	deviceID, err := redis.Get(ctx, request.PairingCode)
	if err != nil || deviceID == "" {
		return nil, &api.APIError{Code: http.StatusNotFound, Message: "unknown pairing code"}
	}

	if err := t.store.AssignDeviceIDToScreen(screen.ID, &deviceID); err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not assign device"}
	}
	if err := t.store.PairScreen(screen.ID); err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not pair screen"}
	}

	log.Info().Int("screen_id", screen.ID).Str("device_id", deviceID).Msg("screen paired")
	return gin.H{"paired": true, "device_id": deviceID}, nil
}

func (t *ScreenController) ownedScreen(ctx *gin.Context, user *model.User) (*model.Screen, *api.APIError) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		log.Error().Err(err).Str("id_raw", ctx.Param("id")).Msg("invalid id in request")
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid id"}
	}

	screen, err := t.store.GetScreenByID(id)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusNotFound, Message: "screen not found"}
	}
	if screen.CreatedBy != user.ID {
		log.Error().
			Int("user_id", user.ID).
			Int("screen_owner", screen.CreatedBy).
			Msg("forbidden access to screen")
		return nil, &api.APIError{Code: http.StatusForbidden, Message: "forbidden"}
	}
	return &screen, nil
}
