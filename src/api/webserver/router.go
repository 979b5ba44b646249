package webserver

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/stake-plus/vidcheck/src/api/config"
	"github.com/stake-plus/vidcheck/src/extractor"
	"github.com/stake-plus/vidcheck/src/verifier"
)

func attachRoutes(r *gin.Engine, cfg config.Config, coord *extractor.Coordinator, engine *verifier.Engine, db *gorm.DB) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID", "Retry-After"},
		AllowCredentials: true,
	}))

	h := NewHandlers(cfg, coord, engine, db)

	r.GET("/healthz", h.Health)

	v1 := r.Group("/v1")
	// Deployments without a JWT secret run the API open; everything behind
	// one requires a bearer token.
	if cfg.JWTSecret != "" {
		v1.Use(JWTMiddleware([]byte(cfg.JWTSecret)))
	}
	{
		v1.GET("/transcript/:id", h.Transcript)
		v1.POST("/verify", h.Verify)
		v1.POST("/factcheck/:id", h.FactCheck)
		v1.DELETE("/cache/:id", h.InvalidateVideo)
		v1.DELETE("/cache", h.InvalidateAll)
		v1.GET("/stats", h.Stats)
	}
}
