package webserver

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/stake-plus/vidcheck/src/api/config"
	"github.com/stake-plus/vidcheck/src/extractor"
	"github.com/stake-plus/vidcheck/src/verifier"
)

func New(cfg config.Config, coord *extractor.Coordinator, engine *verifier.Engine, db *gorm.DB) *gin.Engine {
	g := gin.New()
	g.Use(gin.Logger(), gin.Recovery(), RequestID())
	attachRoutes(g, cfg, coord, engine, db)
	return g
}
