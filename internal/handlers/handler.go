package handlers

import (
	"aquadash/internal/logger"
	"aquadash/internal/service"
	"aquadash/internal/web"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires the HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
	proxy    *ProxyForwarder
}

// NewHandler constructs a new HTTP handler with dependencies.
// proxy may be nil when no upstream URL is configured; the route then
// answers 500 with an explanatory body.
func NewHandler(services *service.Service, proxy *ProxyForwarder, log *logger.Logger) *Handler {
	return &Handler{services: services, log: log, proxy: proxy}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Health endpoint
	router.GET("/health", h.health)

	// Auth endpoints
	router.POST("/api/login", h.login)

	// Raw forwarder kept for clients speaking the upstream action protocol directly
	router.Any("/api/proxy", h.proxyForward)

	// Versioned API endpoints
	h.registerAPIRoutes(router)

	// Snapshot stream (HTTP upgrade) — same port
	router.GET("/ws", h.wsConnect)

	// Embedded UI
	web.Register(router)

	return router
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		// Reads are open; the settings UI renders them read-only when logged out.
		api.GET("/realtime", h.getRealtime)
		api.GET("/history", h.getHistory)
		api.GET("/history/export", h.exportHistory)
		api.GET("/readings", h.getReadings)
		api.GET("/settings/ranges", h.getRanges)
		api.GET("/settings/rules", h.getRules)
		api.GET("/settings/calibrations", h.getCalibrations)

		// Writes require a token issued by /api/login.
		protected := api.Group("", h.authMiddleware)
		{
			protected.POST("/relay/:relay/toggle", h.toggleRelay)
			protected.POST("/timers", h.setTimer)
			protected.PUT("/settings/ranges", h.saveRanges)
			protected.PUT("/settings/rules", h.saveRules)
			protected.PUT("/settings/calibrations", h.saveCalibrations)
			protected.POST("/users", h.signUp)
		}
	}
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(200, gin.H{"status": "ok"})
}
