package handlers

import (
	"errors"
	"net/http"

	"sensornode/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	statusOK       = "ok"
	statusHeld     = "held"
	statusReleased = "released"

	errGetState     = "failed to load state"
	errWindowClosed = "startup window is closed"
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      Device state
// @Description  Live device state, current indicator pattern and startup window status.
// @Tags         device
// @Produce      json
// @Success      200  {object}  service.DeviceStatus
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/device/state [get]
// @Security     BearerAuth
func (h *Handler) getState(c *gin.Context) {
	st, err := h.services.Monitoring.GetState(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errGetState, "get_state_failed", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// @Summary      Hold startup
// @Description  Keep the node in its startup window until released. Only valid while the window is open.
// @Tags         device
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /api/v1/device/hold [post]
// @Security     BearerAuth
func (h *Handler) holdStartup(c *gin.Context) {
	if err := h.services.Console.Hold(); err != nil {
		if errors.Is(err, service.ErrWindowClosed) {
			c.JSON(http.StatusConflict, gin.H{"error": errWindowClosed})
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to hold startup", "hold_failed", err)
		return
	}
	if h.log != nil {
		h.log.Infow("startup_held", "operator", c.GetString(operatorCtxKey))
	}
	c.JSON(http.StatusOK, gin.H{"status": statusHeld})
}

// @Summary      Release startup
// @Tags         device
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/device/release [post]
// @Security     BearerAuth
func (h *Handler) releaseStartup(c *gin.Context) {
	h.services.Console.Release()
	if h.log != nil {
		h.log.Infow("startup_released", "operator", c.GetString(operatorCtxKey))
	}
	c.JSON(http.StatusOK, gin.H{"status": statusReleased})
}
