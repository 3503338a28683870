package api

import (
	"net/http"
	"time"

	"github.com/Freeeeeet/artist_scheduler/internal/model"
	"github.com/Freeeeeet/artist_scheduler/internal/service"
	"github.com/gin-gonic/gin"
)

func (h *Handler) createPatterns(c *gin.Context) {
	var req createPatternRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	start, ok := parseClock(c, "start_time", req.StartTime)
	if !ok {
		return
	}
	end, ok := parseClock(c, "end_time", req.EndTime)
	if !ok {
		return
	}
	from, ok := parseDate(c, "valid_from", req.ValidFrom)
	if !ok {
		return
	}
	var until *time.Time
	if req.ValidUntil != nil {
		d, ok := parseDate(c, "valid_until", *req.ValidUntil)
		if !ok {
			return
		}
		until = &d
	}

	patterns, err := h.svc.Patterns.CreatePatterns(c.Request.Context(), service.CreatePatternRequest{
		ArtistID:        currentArtist(c),
		Frequency:       model.Frequency(req.Frequency),
		DaysOfWeek:      req.DaysOfWeek,
		DayOfMonth:      req.DayOfMonth,
		WeekOfMonth:     req.WeekOfMonth,
		CustomOffsets:   req.CustomOffsets,
		StartTime:       start,
		EndTime:         end,
		TimeZone:        req.TimeZone,
		PriceMultiplier: req.PriceMultiplier,
		MinimumHours:    req.MinimumHours,
		ValidFrom:       from,
		ValidUntil:      until,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"patterns": toPatterns(patterns)})
}

func (h *Handler) listPatterns(c *gin.Context) {
	list, err := h.svc.Patterns.ListPatterns(c.Request.Context(), currentArtist(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"patterns": toPatterns(list)})
}

func (h *Handler) setPatternActive(c *gin.Context) {
	id, ok := pathID(c, "patternId")
	if !ok {
		return
	}
	var req patternActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	p, err := h.svc.Patterns.SetPatternActive(c.Request.Context(), currentArtist(c), id, *req.Active)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toPattern(p))
}

// deletePattern answers 409 with the dependent availability ids while
// persisted rows still reference the pattern.
func (h *Handler) deletePattern(c *gin.Context) {
	id, ok := pathID(c, "patternId")
	if !ok {
		return
	}
	if err := h.svc.Patterns.DeletePattern(c.Request.Context(), currentArtist(c), id); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
