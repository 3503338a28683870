package model

import (
	"time"

	"github.com/Freeeeeet/artist_scheduler/internal/interval"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AvailabilityStatus is the artist-set state of a slot.
type AvailabilityStatus string

const (
	AvailabilityStatusAvailable   AvailabilityStatus = "AVAILABLE"
	AvailabilityStatusUnavailable AvailabilityStatus = "UNAVAILABLE"
)

// Availability is one explicit bookable or blocked window of an artist.
type Availability struct {
	ID                  int64               `json:"id"`
	ArtistID            int64               `json:"artist_id"`
	Date                time.Time           `json:"date"` // midnight of StartTime
	StartTime           time.Time           `json:"start_time"`
	EndTime             time.Time           `json:"end_time"`
	Status              AvailabilityStatus  `json:"status"`
	IsBooked            bool                `json:"is_booked"`
	BookingID           *int64              `json:"booking_id"`
	PriceMultiplier     decimal.Decimal     `json:"price_multiplier"`
	MinimumHours        decimal.NullDecimal `json:"minimum_hours"` // overrides the artist floor when set
	BufferBeforeMinutes int                 `json:"buffer_before_minutes"`
	BufferAfterMinutes  int                 `json:"buffer_after_minutes"`
	Notes               string              `json:"notes"`
	Requirements        string              `json:"requirements"`

	// Origin of the row, nil when created directly by the artist
	PatternID  *int64     `json:"pattern_id"`
	TemplateID *int64     `json:"template_id"`
	BatchID    *uuid.UUID `json:"batch_id"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Interval returns the slot span.
func (a *Availability) Interval() interval.Interval {
	return interval.Interval{Start: a.StartTime, End: a.EndTime}
}

// IsBookable reports whether the slot can still be claimed.
func (a *Availability) IsBookable() bool {
	return a.Status == AvailabilityStatusAvailable && !a.IsBooked
}
