// Package api exposes the availability engine over HTTP.
package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/Freeeeeet/artist_scheduler/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Pinger is a dependency checked by /readyz.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler serves the HTTP API on top of the services.
type Handler struct {
	svc    *service.Services
	checks map[string]Pinger
	logger *zap.Logger
}

// NewHandler creates the handler. checks are probed by /readyz.
func NewHandler(svc *service.Services, checks map[string]Pinger, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, checks: checks, logger: logger}
}

// Router builds the gin engine with every route registered.
func (h *Handler) Router() *gin.Engine {
	registerValidators()

	r := gin.New()
	r.Use(gin.Recovery(), withRequestID(), accessLog(h.logger))

	r.GET("/healthz", h.health)
	r.GET("/readyz", h.ready)

	v1 := r.Group("/api/v1")
	v1.POST("/artists", h.createArtist)

	artist := v1.Group("/artists/:artistId", h.artistID)
	artist.GET("", h.getArtist)

	availability := artist.Group("/availability")
	availability.POST("/check", h.checkAvailability)
	availability.POST("/reserve", h.reserveSlot)
	availability.POST("/release", h.releaseSlot)
	availability.GET("/alternatives", h.findAlternatives)
	availability.GET("/calendar", h.monthlyCalendar)
	availability.POST("", h.createSlot)
	availability.PATCH("/status", h.bulkUpdateStatus)
	availability.DELETE("/:availabilityId", h.deleteSlot)

	templates := artist.Group("/templates")
	templates.POST("", h.createTemplate)
	templates.GET("", h.listTemplates)
	templates.DELETE("/:templateId", h.deleteTemplate)
	templates.POST("/:templateId/apply", h.applyTemplate)

	blackouts := artist.Group("/blackouts")
	blackouts.POST("", h.createBlackout)
	blackouts.GET("", h.listBlackouts)
	blackouts.DELETE("/:blackoutId", h.deleteBlackout)

	patterns := artist.Group("/patterns")
	patterns.POST("", h.createPatterns)
	patterns.GET("", h.listPatterns)
	patterns.PATCH("/:patternId/active", h.setPatternActive)
	patterns.DELETE("/:patternId", h.deletePattern)

	return r
}

const artistIDKey = "artist_id"

// artistID validates the path parameter once for the whole group.
func (h *Handler) artistID(c *gin.Context) {
	id, ok := pathID(c, "artistId")
	if !ok {
		return
	}
	c.Set(artistIDKey, id)
	c.Next()
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		invalidField(c, name, "must be a positive integer")
		return 0, false
	}
	return id, true
}

func currentArtist(c *gin.Context) int64 {
	return c.GetInt64(artistIDKey)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	report := make(map[string]string, len(h.checks))
	for name, p := range h.checks {
		if err := p.Ping(ctx); err != nil {
			h.logger.Warn("Readiness check failed", zap.String("dependency", name), zap.Error(err))
			report[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		report[name] = "ok"
	}
	c.JSON(status, gin.H{"checks": report})
}
