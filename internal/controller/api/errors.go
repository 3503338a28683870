package api

import (
	"errors"
	"net/http"

	"github.com/Freeeeeet/artist_scheduler/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`

	DependentAvailabilityIDs         []int64           `json:"dependent_availability_ids,omitempty"`
	RejectedBecauseConfirmedBookings []bookingResponse `json:"rejected_because_confirmed_bookings,omitempty"`
}

func (h *Handler) badRequest(c *gin.Context, err error) {
	if fields, ok := bindingFields(err); ok {
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: "validation failed", Fields: fields})
		return
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: "malformed request: " + err.Error()})
}

func invalidField(c *gin.Context, field, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{
		Error:  "validation failed",
		Fields: map[string]string{field: msg},
	})
}

// fail maps service errors onto HTTP statuses. Anything unclassified is
// logged and hidden behind a 500.
func (h *Handler) fail(c *gin.Context, err error) {
	var (
		verr  *service.ValidationError
		state *service.StateViolationError
	)
	switch {
	case errors.As(err, &verr):
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: "validation failed", Fields: verr.FieldErrors})
	case errors.Is(err, service.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.As(err, &state):
		resp := errorResponse{
			Error:                    state.Reason,
			DependentAvailabilityIDs: state.AvailabilityIDs,
		}
		if len(state.Bookings) > 0 {
			resp.RejectedBecauseConfirmedBookings = toBookings(state.Bookings)
		}
		c.AbortWithStatusJSON(http.StatusConflict, resp)
	case errors.Is(err, service.ErrAlreadyExists):
		c.AbortWithStatusJSON(http.StatusConflict, errorResponse{Error: err.Error()})
	default:
		h.logger.Error("Request failed",
			zap.String("request_id", requestID(c)),
			zap.String("route", c.FullPath()),
			zap.Error(err))
		c.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}
