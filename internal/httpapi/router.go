// Package httpapi exposes the exercise service over HTTP with gin.
package httpapi

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// RouterConfig holds the router's dependencies.
type RouterConfig struct {
	Logger          *slog.Logger
	TemplateHandler *TemplateHandler
}

// NewRouter builds the gin engine.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(cfg.Logger))

	router.GET("/healthcheck", HealthCheck)

	api := router.Group("/api")
	{
		api.GET("/templates", cfg.TemplateHandler.ListTemplates)
		api.GET("/templates/:id", cfg.TemplateHandler.GetTemplate)
		api.POST("/templates/:id/generate", cfg.TemplateHandler.Generate)
		api.POST("/templates/:id/regenerate", cfg.TemplateHandler.Regenerate)
		api.GET("/lessons/:id/templates", cfg.TemplateHandler.LessonTemplates)
	}

	return router
}

// requestLogger logs one line per request at Debug.
func requestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
