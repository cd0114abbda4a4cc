package handlers

import (
	"errors"
	"net/http"

	"tank_supervisor/internal/service"

	"github.com/gin-gonic/gin"
)

// AddUserRequest registers a new login.
type AddUserRequest struct {
	// 6..12 characters
	Login string `json:"login" binding:"required" example:"viewer01"`
	// 6..12 characters
	Password string `json:"password" binding:"required" example:"secret12"`
	IsAdmin  bool   `json:"is_admin" example:"false"`
}

// @Summary      List users
// @Tags         users
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "count, users"
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/users [get]
// @Security     BearerAuth
func (h *Handler) listUsers(c *gin.Context) {
	users := h.services.ListUsers()
	c.JSON(http.StatusOK, gin.H{
		"count": len(users),
		"users": users,
	})
}

// @Summary      Add user
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      AddUserRequest  true  "User payload"
// @Success      201   {object}  map[string]string
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/users [post]
// @Security     BearerAuth
func (h *Handler) addUser(c *gin.Context) {
	var req AddUserRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}

	err := h.services.AddUser(req.Login, req.Password, req.IsAdmin)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrInvalidUser):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case errors.Is(err, service.ErrUserExists):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	default:
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to add user", "user_add_failed", err, "login", req.Login)
		return
	}

	if h.log != nil {
		h.log.Infow("user_added", "login", req.Login, "admin", req.IsAdmin, "by", actor(c))
	}
	c.JSON(http.StatusCreated, gin.H{"login": req.Login})
}

// @Summary      Remove user
// @Description  Deletes the login and ends its session, if any
// @Tags         users
// @Produce      json
// @Param        login  path      string  true  "Login"
// @Success      200    {object}  map[string]string
// @Failure      401    {object}  map[string]string
// @Failure      404    {object}  map[string]string
// @Failure      500    {object}  map[string]string
// @Router       /api/v1/users/{login} [delete]
// @Security     BearerAuth
func (h *Handler) removeUser(c *gin.Context) {
	login := c.Param("login")

	err := h.services.RemoveUser(login)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	default:
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to remove user", "user_remove_failed", err, "login", login)
		return
	}

	if h.log != nil {
		h.log.Infow("user_removed", "login", login, "by", actor(c))
	}
	c.JSON(http.StatusOK, gin.H{"removed": login})
}
