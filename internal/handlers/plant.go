package handlers

import (
	"errors"
	"net/http"

	"tank_supervisor/internal/service"

	"github.com/gin-gonic/gin"
)

// Common response/status constants to avoid magic strings and typos.
const (
	statusOK       = "ok"
	statusStarted  = "started"
	statusStopped  = "stopped"
	statusPumpSet  = "pump_set"
	statusValveSet = "valve_set"

	errGetState        = "failed to load state"
	errActuate         = "failed to apply actuation"
	errInvalidBodyPref = "invalid body: "
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// Respond with a status and include current state if available (best-effort).
func (h *Handler) respondWithStatusAndState(c *gin.Context, status string, extra gin.H) {
	ctx := c.Request.Context()
	resp := gin.H{"status": status}
	for k, v := range extra {
		resp[k] = v
	}
	st, err := h.services.Monitoring.GetState(ctx)
	if err == nil {
		resp["state"] = st
	}
	c.JSON(http.StatusOK, resp)
}

// PumpRequest sets the pump input.
type PumpRequest struct {
	// Pump input, 0..65535
	Value *uint16 `json:"value" binding:"required" example:"12000"`
}

// ValveRequest opens or closes one valve.
type ValveRequest struct {
	// Valve number, 1 or 2
	Valve int `json:"valve" binding:"required,oneof=1 2" example:"1"`
	// Desired position
	Open *bool `json:"open" binding:"required" example:"true"`
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

// @Summary      Get plant state
// @Description  Live sensors while the tanks are on, the last stored snapshot otherwise
// @Tags         plant
// @Produce      json
// @Success      200  {object}  models.PlantSnapshot
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/plant/state [get]
// @Security     BearerAuth
func (h *Handler) getState(c *gin.Context) {
	ctx := c.Request.Context()
	st, err := h.services.Monitoring.GetState(ctx)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errGetState, "plant_get_state_failed", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// @Summary      Set pump input
// @Tags         plant
// @Accept       json
// @Produce      json
// @Param        body  body      PumpRequest  true  "Pump payload"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/plant/pump [post]
// @Security     BearerAuth
func (h *Handler) setPump(c *gin.Context) {
	var req PumpRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}
	err := h.services.Control.SetPumpInput(c.Request.Context(), actor(c), *req.Value)
	if h.actuationFailed(c, err, "value", *req.Value) {
		return
	}
	h.respondWithStatusAndState(c, statusPumpSet, gin.H{"value": *req.Value})
}

// @Summary      Open or close a valve
// @Tags         plant
// @Accept       json
// @Produce      json
// @Param        body  body      ValveRequest  true  "Valve payload"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/plant/valve [post]
// @Security     BearerAuth
func (h *Handler) setValve(c *gin.Context) {
	var req ValveRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}
	err := h.services.Control.SetValve(c.Request.Context(), actor(c), req.Valve, *req.Open)
	if h.actuationFailed(c, err, "valve", req.Valve, "open", *req.Open) {
		return
	}
	h.respondWithStatusAndState(c, statusValveSet, gin.H{"valve": req.Valve, "open": *req.Open})
}

// actuationFailed writes the error response for a failed actuation and
// reports whether it did.
func (h *Handler) actuationFailed(c *gin.Context, err error, kv ...interface{}) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, service.ErrTanksOff):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		h.logAndJSONError(c, http.StatusInternalServerError, errActuate, "plant_actuation_failed", err,
			append([]interface{}{"login", actor(c)}, kv...)...)
	}
	return true
}
