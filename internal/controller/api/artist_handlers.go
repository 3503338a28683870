package api

import (
	"net/http"

	"github.com/Freeeeeet/artist_scheduler/internal/model"
	"github.com/gin-gonic/gin"
)

func (h *Handler) createArtist(c *gin.Context) {
	var req createArtistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	artist, err := h.svc.Artists.CreateArtist(c.Request.Context(), &model.Artist{
		Name:                   req.Name,
		HourlyRate:             req.HourlyRate,
		MinimumHours:           req.MinimumHours,
		WeekendMultiplier:      req.WeekendMultiplier,
		HolidayMultiplier:      req.HolidayMultiplier,
		MinAdvanceBookingHours: req.MinAdvanceBookingHours,
		MaxAdvanceBookingDays:  req.MaxAdvanceBookingDays,
		TelegramChatID:         req.TelegramChatID,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, artist)
}

func (h *Handler) getArtist(c *gin.Context) {
	artist, err := h.svc.Artists.GetArtist(c.Request.Context(), currentArtist(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, artist)
}
