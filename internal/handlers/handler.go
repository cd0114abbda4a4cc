package handlers

import (
	"tank_supervisor/internal/logger"
	"tank_supervisor/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger) *Handler {
	return &Handler{services: services, log: log}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", h.health)

	h.registerAuthRoutes(router)
	h.registerAPIRoutes(router)

	// Live plant stream, same port
	router.GET("/ws", h.wsConnect)

	return router
}

func (h *Handler) registerAuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/sign-in", h.signIn)
	}
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1", h.adminMiddleware)
	{
		h.registerUserRoutes(api)
		h.registerPlantRoutes(api)
		h.registerServerRoutes(api)
		h.registerLogRoutes(api)
	}
}

func (h *Handler) registerUserRoutes(api *gin.RouterGroup) {
	users := api.Group("/users")
	{
		users.GET("", h.listUsers)
		// Body example: {"login":"viewer01","password":"secret12","is_admin":false}
		users.POST("", h.addUser)
		users.DELETE("/:login", h.removeUser)
	}
}

func (h *Handler) registerPlantRoutes(api *gin.RouterGroup) {
	plant := api.Group("/plant")
	{
		plant.GET("/state", h.getState)
		// Body example: {"value":12000}
		plant.POST("/pump", h.setPump)
		// Body example: {"valve":1,"open":true}
		plant.POST("/valve", h.setValve)
	}
}

func (h *Handler) registerServerRoutes(api *gin.RouterGroup) {
	srv := api.Group("/server")
	{
		srv.GET("/status", h.serverStatus)
		srv.POST("/start", h.startServer)
		srv.POST("/stop", h.stopServer)
	}
}

func (h *Handler) registerLogRoutes(api *gin.RouterGroup) {
	logs := api.Group("/logs")
	{
		logs.GET("/", h.getLogs)
	}
}
