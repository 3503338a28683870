package model

import "time"

// BlackoutType classifies a blackout.
type BlackoutType string

const (
	BlackoutTypePersonal    BlackoutType = "PERSONAL"
	BlackoutTypeHoliday     BlackoutType = "HOLIDAY"
	BlackoutTypeMaintenance BlackoutType = "MAINTENANCE"
	BlackoutTypeOther       BlackoutType = "OTHER"
)

// BlackoutRecurrence is empty for a one-off range or YEARLY.
type BlackoutRecurrence string

const (
	BlackoutRecurrenceNone   BlackoutRecurrence = ""
	BlackoutRecurrenceYearly BlackoutRecurrence = "YEARLY"
)

// BlackoutDate is an unavailable date range that overrides every other source.
type BlackoutDate struct {
	ID         int64              `json:"id"`
	ArtistID   int64              `json:"artist_id"`
	StartDate  time.Time          `json:"start_date"`
	EndDate    time.Time          `json:"end_date"` // inclusive
	Title      string             `json:"title"`
	Type       BlackoutType       `json:"type"`
	Recurrence BlackoutRecurrence `json:"recurrence"`
	CreatedAt  time.Time          `json:"created_at"`
}

// Valid blackout types
func (t BlackoutType) Valid() bool {
	switch t {
	case BlackoutTypePersonal, BlackoutTypeHoliday, BlackoutTypeMaintenance, BlackoutTypeOther:
		return true
	}
	return false
}
