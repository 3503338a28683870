package api

import (
	"net/http"

	"github.com/Freeeeeet/artist_scheduler/internal/model"
	"github.com/Freeeeeet/artist_scheduler/internal/service"
	"github.com/gin-gonic/gin"
)

func (h *Handler) createBlackout(c *gin.Context) {
	var req createBlackoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	start, ok := parseDate(c, "start_date", req.StartDate)
	if !ok {
		return
	}
	end, ok := parseDate(c, "end_date", req.EndDate)
	if !ok {
		return
	}

	res, err := h.svc.Blackouts.CreateBlackout(c.Request.Context(), service.CreateBlackoutRequest{
		ArtistID:   currentArtist(c),
		StartDate:  start,
		EndDate:    end,
		Title:      req.Title,
		Type:       model.BlackoutType(req.Type),
		Recurrence: model.BlackoutRecurrence(req.Recurrence),
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"blackout":      toBlackout(res.Blackout),
		"flipped_slots": res.FlippedSlots,
	})
}

func (h *Handler) listBlackouts(c *gin.Context) {
	list, err := h.svc.Blackouts.ListBlackouts(c.Request.Context(), currentArtist(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	out := make([]blackoutResponse, 0, len(list))
	for _, b := range list {
		out = append(out, toBlackout(b))
	}
	c.JSON(http.StatusOK, gin.H{"blackouts": out})
}

func (h *Handler) deleteBlackout(c *gin.Context) {
	id, ok := pathID(c, "blackoutId")
	if !ok {
		return
	}
	if err := h.svc.Blackouts.DeleteBlackout(c.Request.Context(), currentArtist(c), id); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
