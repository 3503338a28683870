package api

import (
	"net/http"
	"time"

	"github.com/Freeeeeet/artist_scheduler/internal/model"
	"github.com/Freeeeeet/artist_scheduler/internal/service"
	"github.com/gin-gonic/gin"
)

func (h *Handler) createTemplate(c *gin.Context) {
	var req createTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	tmpl, err := h.svc.Templates.CreateTemplate(c.Request.Context(), &model.TimeSlotTemplate{
		ArtistID:              currentArtist(c),
		Name:                  req.Name,
		DurationMinutes:       req.DurationMinutes,
		BufferBeforeMinutes:   req.BufferBeforeMinutes,
		BufferAfterMinutes:    req.BufferAfterMinutes,
		PriceMultiplier:       req.PriceMultiplier,
		MinAdvanceNoticeHours: req.MinAdvanceNoticeHours,
		IsDefault:             req.IsDefault,
		IsActive:              true,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, tmpl)
}

func (h *Handler) listTemplates(c *gin.Context) {
	list, err := h.svc.Templates.ListTemplates(c.Request.Context(), currentArtist(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	if list == nil {
		list = []*model.TimeSlotTemplate{}
	}
	c.JSON(http.StatusOK, gin.H{"templates": list})
}

func (h *Handler) deleteTemplate(c *gin.Context) {
	id, ok := pathID(c, "templateId")
	if !ok {
		return
	}
	if err := h.svc.Templates.DeleteTemplate(c.Request.Context(), currentArtist(c), id); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// applyTemplate answers 200 with per-date outcomes even on partial failure.
func (h *Handler) applyTemplate(c *gin.Context) {
	id, ok := pathID(c, "templateId")
	if !ok {
		return
	}
	var req applyTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	start, ok := parseClock(c, "start_time", req.StartTime)
	if !ok {
		return
	}
	dates := make([]time.Time, 0, len(req.Dates))
	for _, raw := range req.Dates {
		d, ok := parseDate(c, "dates", raw)
		if !ok {
			return
		}
		dates = append(dates, d)
	}

	res, err := h.svc.Templates.ApplyTemplate(c.Request.Context(), service.ApplyTemplateRequest{
		ArtistID:          currentArtist(c),
		TemplateID:        id,
		Dates:             dates,
		StartTime:         start,
		OverwriteExisting: req.OverwriteExisting,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toDateBatch(res))
}
