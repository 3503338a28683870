package api

import (
	"net/http"
	"time"

	"github.com/Freeeeeet/artist_scheduler/internal/interval"
	"github.com/Freeeeeet/artist_scheduler/internal/model"
	"github.com/Freeeeeet/artist_scheduler/internal/service"
	"github.com/gin-gonic/gin"
)

// Binding has already checked the formats; a parse failure here still
// reports the field.
func parseDate(c *gin.Context, field, raw string) (time.Time, bool) {
	d, err := interval.ParseDate(raw)
	if err != nil {
		invalidField(c, field, "must be a date as YYYY-MM-DD")
		return time.Time{}, false
	}
	return d, true
}

func parseClock(c *gin.Context, field, raw string) (interval.Clock, bool) {
	clock, err := interval.ParseClock(raw)
	if err != nil {
		invalidField(c, field, "must be a time of day as HH:MM")
		return 0, false
	}
	return clock, true
}

func (r checkRequest) toService(c *gin.Context) (service.CheckRequest, bool) {
	date, ok := parseDate(c, "date", r.Date)
	if !ok {
		return service.CheckRequest{}, false
	}
	start, ok := parseClock(c, "start_time", r.StartTime)
	if !ok {
		return service.CheckRequest{}, false
	}
	return service.CheckRequest{
		ArtistID:             currentArtist(c),
		Date:                 date,
		StartTime:            start,
		DurationMinutes:      r.DurationMinutes,
		IncludeAlternatives:  r.IncludeAlternatives,
		AlternativeRangeDays: r.AlternativeRangeDays,
	}, true
}

// checkAvailability answers 200 for every outcome; conflicts are results.
func (h *Handler) checkAvailability(c *gin.Context) {
	var req checkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	check, ok := req.toService(c)
	if !ok {
		return
	}

	res, err := h.svc.Availability.CheckAvailability(c.Request.Context(), check)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toCheck(res))
}

// reserveSlot answers 201 when the slot was claimed and 409 with the check
// result otherwise.
func (h *Handler) reserveSlot(c *gin.Context) {
	var req reserveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	check, ok := req.checkRequest.toService(c)
	if !ok {
		return
	}

	res, err := h.svc.Availability.ReserveSlot(c.Request.Context(), service.ReserveRequest{
		CheckRequest: check,
		BookingID:    req.BookingID,
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	status := http.StatusCreated
	if !res.Available() {
		status = http.StatusConflict
	}
	c.JSON(status, toCheck(res))
}

func (h *Handler) releaseSlot(c *gin.Context) {
	var req releaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	released, err := h.svc.Availability.ReleaseSlot(c.Request.Context(), currentArtist(c), req.BookingID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"released": released})
}

func (h *Handler) findAlternatives(c *gin.Context) {
	var q alternativesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.badRequest(c, err)
		return
	}
	date, ok := parseDate(c, "date", q.Date)
	if !ok {
		return
	}
	start, ok := parseClock(c, "start_time", q.StartTime)
	if !ok {
		return
	}

	alts, err := h.svc.Availability.FindAlternatives(c.Request.Context(), currentArtist(c), date, start, q.DurationMinutes, q.RangeDays)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"alternatives": toAlternatives(alts)})
}

func (h *Handler) monthlyCalendar(c *gin.Context) {
	var q calendarQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.badRequest(c, err)
		return
	}

	slots, err := h.svc.Availability.MonthlyCalendar(c.Request.Context(), currentArtist(c), q.Year, time.Month(q.Month))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"year":  q.Year,
		"month": q.Month,
		"slots": toSlots(slots),
	})
}

func (h *Handler) createSlot(c *gin.Context) {
	var req createSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	date, ok := parseDate(c, "date", req.Date)
	if !ok {
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

	slot, err := h.svc.Availability.CreateSlot(c.Request.Context(), service.CreateSlotRequest{
		ArtistID:            currentArtist(c),
		Date:                date,
		StartTime:           start,
		EndTime:             end,
		Status:              model.AvailabilityStatus(req.Status),
		PriceMultiplier:     req.PriceMultiplier,
		MinimumHours:        req.MinimumHours,
		BufferBeforeMinutes: req.BufferBeforeMinutes,
		BufferAfterMinutes:  req.BufferAfterMinutes,
		Notes:               req.Notes,
		Requirements:        req.Requirements,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, toSlot(slot))
}

// bulkUpdateStatus answers 200 even when some ids failed.
func (h *Handler) bulkUpdateStatus(c *gin.Context) {
	var req bulkStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	res, err := h.svc.Availability.BulkUpdateStatus(c.Request.Context(), currentArtist(c), req.IDs, model.AvailabilityStatus(req.Status))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) deleteSlot(c *gin.Context) {
	id, ok := pathID(c, "availabilityId")
	if !ok {
		return
	}
	if err := h.svc.Availability.DeleteSlot(c.Request.Context(), currentArtist(c), id); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
