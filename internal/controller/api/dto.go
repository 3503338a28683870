package api

import (
	"time"

	"github.com/Freeeeeet/artist_scheduler/internal/interval"
	"github.com/Freeeeeet/artist_scheduler/internal/model"
	"github.com/Freeeeeet/artist_scheduler/internal/pricing"
	"github.com/Freeeeeet/artist_scheduler/internal/service"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Requests. Dates are YYYY-MM-DD and times of day HH:MM.

type createArtistRequest struct {
	Name                   string          `json:"name" binding:"required,max=200"`
	HourlyRate             decimal.Decimal `json:"hourly_rate"`
	MinimumHours           decimal.Decimal `json:"minimum_hours"`
	WeekendMultiplier      decimal.Decimal `json:"weekend_multiplier"`
	HolidayMultiplier      decimal.Decimal `json:"holiday_multiplier"`
	MinAdvanceBookingHours int             `json:"min_advance_booking_hours" binding:"min=0"`
	MaxAdvanceBookingDays  int             `json:"max_advance_booking_days" binding:"min=0"`
	TelegramChatID         *int64          `json:"telegram_chat_id"`
}

type checkRequest struct {
	Date                 string `json:"date" binding:"required,datetime=2006-01-02"`
	StartTime            string `json:"start_time" binding:"required,clock"`
	DurationMinutes      int    `json:"duration_minutes" binding:"required,min=1,max=1440"`
	IncludeAlternatives  bool   `json:"include_alternatives"`
	AlternativeRangeDays int    `json:"alternative_range_days" binding:"min=0,max=30"`
}

type reserveRequest struct {
	checkRequest
	BookingID int64 `json:"booking_id" binding:"required,gt=0"`
}

type releaseRequest struct {
	BookingID int64 `json:"booking_id" binding:"required,gt=0"`
}

type alternativesQuery struct {
	Date            string `form:"date" binding:"required,datetime=2006-01-02"`
	StartTime       string `form:"start_time" binding:"required,clock"`
	DurationMinutes int    `form:"duration_minutes" binding:"required,min=1,max=1440"`
	RangeDays       int    `form:"range_days" binding:"min=0,max=30"`
}

type calendarQuery struct {
	Year  int `form:"year" binding:"required,min=1970,max=9999"`
	Month int `form:"month" binding:"required,min=1,max=12"`
}

type createSlotRequest struct {
	Date                string              `json:"date" binding:"required,datetime=2006-01-02"`
	StartTime           string              `json:"start_time" binding:"required,clock"`
	EndTime             string              `json:"end_time" binding:"required,clock"`
	Status              string              `json:"status" binding:"omitempty,oneof=AVAILABLE UNAVAILABLE"`
	PriceMultiplier     decimal.Decimal     `json:"price_multiplier"`
	MinimumHours        decimal.NullDecimal `json:"minimum_hours"`
	BufferBeforeMinutes int                 `json:"buffer_before_minutes" binding:"min=0"`
	BufferAfterMinutes  int                 `json:"buffer_after_minutes" binding:"min=0"`
	Notes               string              `json:"notes" binding:"max=2000"`
	Requirements        string              `json:"requirements" binding:"max=2000"`
}

type bulkStatusRequest struct {
	IDs    []int64 `json:"ids" binding:"required,min=1,max=500,dive,gt=0"`
	Status string  `json:"status" binding:"required,oneof=AVAILABLE UNAVAILABLE"`
}

type createTemplateRequest struct {
	Name                  string          `json:"name" binding:"required,max=100"`
	DurationMinutes       int             `json:"duration_minutes" binding:"required,min=1,max=1440"`
	BufferBeforeMinutes   int             `json:"buffer_before_minutes" binding:"min=0"`
	BufferAfterMinutes    int             `json:"buffer_after_minutes" binding:"min=0"`
	PriceMultiplier       decimal.Decimal `json:"price_multiplier"`
	MinAdvanceNoticeHours int             `json:"min_advance_notice_hours" binding:"min=0"`
	IsDefault             bool            `json:"is_default"`
}

type applyTemplateRequest struct {
	Dates             []string `json:"dates" binding:"required,min=1,max=366,dive,datetime=2006-01-02"`
	StartTime         string   `json:"start_time" binding:"required,clock"`
	OverwriteExisting bool     `json:"overwrite_existing"`
}

type createBlackoutRequest struct {
	StartDate  string `json:"start_date" binding:"required,datetime=2006-01-02"`
	EndDate    string `json:"end_date" binding:"required,datetime=2006-01-02"`
	Title      string `json:"title" binding:"required,max=200"`
	Type       string `json:"type" binding:"omitempty,oneof=PERSONAL HOLIDAY MAINTENANCE OTHER"`
	Recurrence string `json:"recurrence" binding:"omitempty,oneof=YEARLY"`
}

type createPatternRequest struct {
	Frequency       string              `json:"frequency" binding:"required,oneof=DAILY WEEKLY MONTHLY CUSTOM"`
	DaysOfWeek      []int               `json:"days_of_week" binding:"omitempty,max=7,dive,min=0,max=6"`
	DayOfMonth      *int                `json:"day_of_month" binding:"omitempty,min=1,max=31"`
	WeekOfMonth     *int                `json:"week_of_month"`
	CustomOffsets   []int               `json:"custom_offsets" binding:"omitempty,dive,min=0"`
	StartTime       string              `json:"start_time" binding:"required,clock"`
	EndTime         string              `json:"end_time" binding:"required,clock"`
	TimeZone        string              `json:"time_zone"`
	PriceMultiplier decimal.Decimal     `json:"price_multiplier"`
	MinimumHours    decimal.NullDecimal `json:"minimum_hours"`
	ValidFrom       string              `json:"valid_from" binding:"required,datetime=2006-01-02"`
	ValidUntil      *string             `json:"valid_until" binding:"omitempty,datetime=2006-01-02"`
}

type patternActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// Responses.

type slotResponse struct {
	ID                  *int64              `json:"id"`
	Date                string              `json:"date"`
	StartTime           string              `json:"start_time"`
	EndTime             string              `json:"end_time"`
	Status              string              `json:"status"`
	IsBooked            bool                `json:"is_booked"`
	BookingID           *int64              `json:"booking_id,omitempty"`
	PriceMultiplier     decimal.Decimal     `json:"price_multiplier"`
	MinimumHours        decimal.NullDecimal `json:"minimum_hours"`
	BufferBeforeMinutes int                 `json:"buffer_before_minutes"`
	BufferAfterMinutes  int                 `json:"buffer_after_minutes"`
	Notes               string              `json:"notes,omitempty"`
	Requirements        string              `json:"requirements,omitempty"`
	PatternID           *int64              `json:"pattern_id,omitempty"`
	TemplateID          *int64              `json:"template_id,omitempty"`
	BatchID             *uuid.UUID          `json:"batch_id,omitempty"`
}

// toSlot renders a row. Pattern occurrences that were never persisted have
// a null id.
func toSlot(a *model.Availability) *slotResponse {
	if a == nil {
		return nil
	}
	resp := &slotResponse{
		Date:                a.Date.Format(interval.DateLayout),
		StartTime:           a.StartTime.Format(interval.ClockLayout),
		EndTime:             a.EndTime.Format(interval.ClockLayout),
		Status:              string(a.Status),
		IsBooked:            a.IsBooked,
		BookingID:           a.BookingID,
		PriceMultiplier:     a.PriceMultiplier,
		MinimumHours:        a.MinimumHours,
		BufferBeforeMinutes: a.BufferBeforeMinutes,
		BufferAfterMinutes:  a.BufferAfterMinutes,
		Notes:               a.Notes,
		Requirements:        a.Requirements,
		PatternID:           a.PatternID,
		TemplateID:          a.TemplateID,
		BatchID:             a.BatchID,
	}
	if a.ID != 0 {
		id := a.ID
		resp.ID = &id
	}
	return resp
}

func toSlots(list []*model.Availability) []*slotResponse {
	out := make([]*slotResponse, 0, len(list))
	for _, a := range list {
		out = append(out, toSlot(a))
	}
	return out
}

type windowResponse struct {
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

func toWindow(iv interval.Interval) windowResponse {
	return windowResponse{
		Date:      iv.Start.Format(interval.DateLayout),
		StartTime: iv.Start.Format(interval.ClockLayout),
		EndTime:   iv.End.Format(interval.ClockLayout),
	}
}

type bookingResponse struct {
	ID        int64  `json:"id"`
	EventDate string `json:"event_date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Status    string `json:"status"`
}

func toBookings(list []*model.Booking) []bookingResponse {
	out := make([]bookingResponse, 0, len(list))
	for _, b := range list {
		out = append(out, bookingResponse{
			ID:        b.ID,
			EventDate: b.EventDate.Format(interval.DateLayout),
			StartTime: b.StartTime.Format(time.DateTime),
			EndTime:   b.EndTime.Format(time.DateTime),
			Status:    string(b.Status),
		})
	}
	return out
}

type alternativeResponse struct {
	windowResponse
	SlotID        *int64        `json:"slot_id"`
	DayDifference int           `json:"day_difference"`
	Reason        string        `json:"reason"`
	Quote         pricing.Quote `json:"quote"`
}

func toAlternatives(list []service.Alternative) []alternativeResponse {
	out := make([]alternativeResponse, 0, len(list))
	for _, alt := range list {
		resp := alternativeResponse{
			windowResponse: toWindow(alt.Interval),
			DayDifference:  alt.DayDifference,
			Reason:         string(alt.Reason),
			Quote:          alt.Quote,
		}
		if alt.Slot != nil && alt.Slot.ID != 0 {
			id := alt.Slot.ID
			resp.SlotID = &id
		}
		out = append(out, resp)
	}
	return out
}

type checkResponse struct {
	Available           bool                  `json:"available"`
	Outcome             string                `json:"outcome"`
	Message             string                `json:"message,omitempty"`
	Requested           windowResponse        `json:"requested"`
	Slot                *slotResponse         `json:"slot,omitempty"`
	Quote               *pricing.Quote        `json:"quote,omitempty"`
	Blackout            *blackoutResponse     `json:"blackout,omitempty"`
	ConflictingBookings []bookingResponse     `json:"conflicting_bookings,omitempty"`
	Alternatives        []alternativeResponse `json:"alternatives,omitempty"`
}

func toCheck(res *service.CheckResult) checkResponse {
	resp := checkResponse{
		Available: res.Available(),
		Outcome:   string(res.Outcome),
		Message:   res.Message,
		Requested: toWindow(res.Requested),
		Slot:      toSlot(res.Slot),
		Quote:     res.Quote,
	}
	if res.Blackout != nil {
		b := toBlackout(res.Blackout)
		resp.Blackout = &b
	}
	if len(res.ConflictingBookings) > 0 {
		resp.ConflictingBookings = toBookings(res.ConflictingBookings)
	}
	if len(res.Alternatives) > 0 {
		resp.Alternatives = toAlternatives(res.Alternatives)
	}
	return resp
}

type blackoutResponse struct {
	ID         int64  `json:"id"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
	Title      string `json:"title"`
	Type       string `json:"type"`
	Recurrence string `json:"recurrence,omitempty"`
}

func toBlackout(b *model.BlackoutDate) blackoutResponse {
	return blackoutResponse{
		ID:         b.ID,
		StartDate:  b.StartDate.Format(interval.DateLayout),
		EndDate:    b.EndDate.Format(interval.DateLayout),
		Title:      b.Title,
		Type:       string(b.Type),
		Recurrence: string(b.Recurrence),
	}
}

type patternResponse struct {
	ID              int64               `json:"id"`
	GroupID         uuid.UUID           `json:"group_id"`
	Frequency       string              `json:"frequency"`
	DayOfWeek       *int                `json:"day_of_week,omitempty"`
	DayOfMonth      *int                `json:"day_of_month,omitempty"`
	WeekOfMonth     *int                `json:"week_of_month,omitempty"`
	CustomOffsets   []int               `json:"custom_offsets,omitempty"`
	StartTime       string              `json:"start_time"`
	EndTime         string              `json:"end_time"`
	TimeZone        string              `json:"time_zone"`
	PriceMultiplier decimal.Decimal     `json:"price_multiplier"`
	MinimumHours    decimal.NullDecimal `json:"minimum_hours"`
	ValidFrom       string              `json:"valid_from"`
	ValidUntil      *string             `json:"valid_until"`
	IsActive        bool                `json:"is_active"`
}

func toPattern(p *model.RecurringPattern) patternResponse {
	resp := patternResponse{
		ID:              p.ID,
		GroupID:         p.GroupID,
		Frequency:       string(p.Frequency),
		DayOfWeek:       p.DayOfWeek,
		DayOfMonth:      p.DayOfMonth,
		WeekOfMonth:     p.WeekOfMonth,
		CustomOffsets:   p.CustomOffsets,
		StartTime:       p.StartTime.String(),
		EndTime:         p.EndTime.String(),
		TimeZone:        p.TimeZone,
		PriceMultiplier: p.PriceMultiplier,
		MinimumHours:    p.MinimumHours,
		ValidFrom:       p.ValidFrom.Format(interval.DateLayout),
		IsActive:        p.IsActive,
	}
	if p.ValidUntil != nil {
		until := p.ValidUntil.Format(interval.DateLayout)
		resp.ValidUntil = &until
	}
	return resp
}

func toPatterns(list []*model.RecurringPattern) []patternResponse {
	out := make([]patternResponse, 0, len(list))
	for _, p := range list {
		out = append(out, toPattern(p))
	}
	return out
}

type dateFailure struct {
	Date  string `json:"date"`
	Code  string `json:"code"`
	Error string `json:"error"`
}

type dateBatchResponse struct {
	Processed []string      `json:"processed"`
	Failed    []dateFailure `json:"failed"`
}

func toDateBatch(b *service.DateBatch) dateBatchResponse {
	resp := dateBatchResponse{
		Processed: make([]string, 0, len(b.Processed)),
		Failed:    make([]dateFailure, 0, len(b.Failed)),
	}
	for _, d := range b.Processed {
		resp.Processed = append(resp.Processed, d.Format(interval.DateLayout))
	}
	for _, f := range b.Failed {
		resp.Failed = append(resp.Failed, dateFailure{
			Date:  f.Item.Format(interval.DateLayout),
			Code:  string(f.Code),
			Error: f.Error,
		})
	}
	return resp
}
