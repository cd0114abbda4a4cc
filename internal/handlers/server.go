package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	errStartServer = "failed to start session server"
	errStopServer  = "failed to stop session server"
)

// @Summary      Session server status
// @Tags         server
// @Produce      json
// @Success      200  {object}  map[string]bool  "running"
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/server/status [get]
// @Security     BearerAuth
func (h *Handler) serverStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"running": h.services.Sessions.Running()})
}

// @Summary      Start session server
// @Description  Listens for operator clients and powers the tanks on. No-op when running.
// @Tags         server
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "status, state"
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/server/start [post]
// @Security     BearerAuth
func (h *Handler) startServer(c *gin.Context) {
	if err := h.services.Sessions.Start(c.Request.Context()); err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errStartServer, "server_start_failed", err, "login", actor(c))
		return
	}
	if h.log != nil {
		h.log.Infow("server_start_requested", "login", actor(c))
	}
	h.respondWithStatusAndState(c, statusStarted, gin.H{})
}

// @Summary      Stop session server
// @Description  Ends every session and powers the tanks off
// @Tags         server
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/server/stop [post]
// @Security     BearerAuth
func (h *Handler) stopServer(c *gin.Context) {
	if err := h.services.Sessions.Stop(c.Request.Context()); err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errStopServer, "server_stop_failed", err, "login", actor(c))
		return
	}
	if h.log != nil {
		h.log.Infow("server_stop_requested", "login", actor(c))
	}
	h.respondWithStatusAndState(c, statusStopped, gin.H{})
}
