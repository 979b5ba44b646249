package webserver

import (
	"log"
	"net/http"
	"regexp"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/stake-plus/vidcheck/src/api/config"
	"github.com/stake-plus/vidcheck/src/data"
	"github.com/stake-plus/vidcheck/src/extractor"
	"github.com/stake-plus/vidcheck/src/verifier"
)

var videoIDRe = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

type Handlers struct {
	cfg    config.Config
	coord  *extractor.Coordinator
	engine *verifier.Engine
	db     *gorm.DB
}

func NewHandlers(cfg config.Config, coord *extractor.Coordinator, engine *verifier.Engine, db *gorm.DB) Handlers {
	return Handlers{cfg: cfg, coord: coord, engine: engine, db: db}
}

func (h Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h Handlers) Transcript(c *gin.Context) {
	videoID := c.Param("id")
	if !videoIDRe.MatchString(videoID) {
		c.JSON(http.StatusBadRequest, gin.H{"err": "invalid video id"})
		return
	}

	opts := extractor.Options{ForceRefresh: c.Query("forceRefresh") == "true"}
	transcript, err := h.coord.Extract(c.Request.Context(), videoID, opts)
	if err != nil {
		writeExtractError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"videoId":    videoID,
		"transcript": transcript,
		"length":     len(transcript),
	})
}

type verifyRequest struct {
	Transcript          string `json:"transcript" binding:"required"`
	ForceRefresh        bool   `json:"forceRefresh"`
	Language            string `json:"language"`
	StrictMode          *bool  `json:"strictMode"`
	UsePremiumModel     *bool  `json:"usePremiumModel"`
	UseGroundingSearch  *bool  `json:"useGroundingSearch"`
	ConfidenceThreshold *int   `json:"confidenceThreshold"`
}

// applyOverrides merges per-request knobs onto the configured defaults.
// Omitted fields keep the server configuration.
func (req verifyRequest) applyOverrides(settings verifier.Settings) verifier.Settings {
	if req.Language != "" {
		settings.Language = req.Language
	}
	if req.StrictMode != nil {
		settings.StrictMode = *req.StrictMode
	}
	if req.UsePremiumModel != nil {
		settings.UsePremiumModel = *req.UsePremiumModel
	}
	if req.UseGroundingSearch != nil {
		settings.UseGroundingSearch = *req.UseGroundingSearch
	}
	if req.ConfidenceThreshold != nil {
		settings.ConfidenceThreshold = *req.ConfidenceThreshold
	}
	return settings
}

func (h Handlers) Verify(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	settings := req.applyOverrides(h.cfg.VerifierSettings())
	result, err := h.engine.Verify(c.Request.Context(), req.Transcript, settings, verifier.Options{ForceRefresh: req.ForceRefresh})
	if err != nil {
		writeVerifyError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// FactCheck is the composed pipeline: extract the transcript for a video,
// then verify it in one call.
func (h Handlers) FactCheck(c *gin.Context) {
	videoID := c.Param("id")
	if !videoIDRe.MatchString(videoID) {
		c.JSON(http.StatusBadRequest, gin.H{"err": "invalid video id"})
		return
	}
	force := c.Query("forceRefresh") == "true"

	transcript, err := h.coord.Extract(c.Request.Context(), videoID, extractor.Options{ForceRefresh: force})
	if err != nil {
		writeExtractError(c, err)
		return
	}

	result, err := h.engine.Verify(c.Request.Context(), transcript, h.cfg.VerifierSettings(), verifier.Options{ForceRefresh: force})
	if err != nil {
		writeVerifyError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"videoId":          videoID,
		"transcriptLength": len(transcript),
		"verification":     result,
	})
}

func (h Handlers) InvalidateVideo(c *gin.Context) {
	videoID := c.Param("id")
	if !videoIDRe.MatchString(videoID) {
		c.JSON(http.StatusBadRequest, gin.H{"err": "invalid video id"})
		return
	}
	h.coord.Invalidate(videoID)
	log.Printf("api: transcript cache invalidated for %s", videoID)
	c.JSON(http.StatusOK, gin.H{"invalidated": videoID})
}

func (h Handlers) InvalidateAll(c *gin.Context) {
	h.coord.InvalidateAll()
	h.engine.InvalidateAll(c.Request.Context())
	log.Printf("api: all caches cleared")
	c.JSON(http.StatusOK, gin.H{"invalidated": "all"})
}

func (h Handlers) Stats(c *gin.Context) {
	stat := data.GetStats(h.db)
	c.JSON(http.StatusOK, gin.H{
		"videosProcessed": stat.VideosProcessed,
		"claimsFound":     stat.ClaimsFound,
		"claimsAccurate":  stat.ClaimsAccurate,
		"updatedAt":       stat.UpdatedAt,
	})
}

func writeVerifyError(c *gin.Context, err error) {
	status, body := verifyErrorStatus(err)
	if rl, ok := body["retryAfterSecs"]; ok {
		c.Header("Retry-After", strconv.Itoa(rl.(int)))
	}
	c.JSON(status, body)
}

func writeExtractError(c *gin.Context, err error) {
	status, body := extractErrorStatus(err)
	c.JSON(status, body)
}
