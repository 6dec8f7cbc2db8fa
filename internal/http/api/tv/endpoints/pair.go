package endpoints

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/hilaltech/miqat/internal/db"
	"github.com/hilaltech/miqat/internal/http/api"
	"github.com/hilaltech/miqat/internal/http/api/tv/packets"
	"github.com/hilaltech/miqat/internal/redis"
)

// PairingModule mounts the device-side pairing endpoint.
func PairingModule(store db.Store) api.Module {
	ctl := &pairingController{store: store}
	return api.ModuleFunc(func(c *api.Controller) {
		c.PUBLIC_POST("/register", ctl.registerPairingCode)
	})
}

type pairingController struct {
	store db.Store
}

// registerPairingCode checks that the device isn't already paired and stores
// the code-to-device mapping in redis until an admin claims it.
func (t *pairingController) registerPairingCode(ctx *gin.Context) (any, *api.APIError) {
	var request packets.RegisterPairingCodeRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	isPaired, err := t.store.IsScreenPairedByDeviceID(&request.DeviceID)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}
	if isPaired {
		log.Warn().Str("device_id", request.DeviceID).Msg("screen is already paired")
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "screen is already paired"}
	}

	redis.Set(ctx, request.PairingCode, request.DeviceID, 0)

	return gin.H{"device_id": request.DeviceID}, nil
}
