package api

import "github.com/gin-gonic/gin"

// NewRouter returns an engine with recovery, request logging and the API
// routes installed.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(h.logger()))
	RegisterRoutes(r, h)
	return r
}

func RegisterRoutes(r *gin.Engine, h *Handler) {
	api := r.Group("/api")
	{
		api.GET("/health", health)
		api.POST("/grid", h.gridHandler)
		api.POST("/grid/png", h.gridPNGHandler)
	}
}
