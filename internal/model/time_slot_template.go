package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TimeSlotTemplate is a reusable slot shape applied to many dates at once.
type TimeSlotTemplate struct {
	ID                    int64           `json:"id"`
	ArtistID              int64           `json:"artist_id"`
	Name                  string          `json:"name"`
	DurationMinutes       int             `json:"duration_minutes"`
	BufferBeforeMinutes   int             `json:"buffer_before_minutes"`
	BufferAfterMinutes    int             `json:"buffer_after_minutes"`
	PriceMultiplier       decimal.Decimal `json:"price_multiplier"`
	MinAdvanceNoticeHours int             `json:"min_advance_notice_hours"`
	IsDefault             bool            `json:"is_default"` // at most one per artist
	IsActive              bool            `json:"is_active"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
}
