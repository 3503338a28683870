package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Artist is the pricing and booking-window profile of a service provider.
// The engine reads it; it is owned by the profile subsystem.
type Artist struct {
	ID                     int64           `json:"id"`
	Name                   string          `json:"name"`
	HourlyRate             decimal.Decimal `json:"hourly_rate"`
	MinimumHours           decimal.Decimal `json:"minimum_hours"`
	WeekendMultiplier      decimal.Decimal `json:"weekend_multiplier"`
	HolidayMultiplier      decimal.Decimal `json:"holiday_multiplier"`
	MinAdvanceBookingHours int             `json:"min_advance_booking_hours"`
	MaxAdvanceBookingDays  int             `json:"max_advance_booking_days"`
	TelegramChatID         *int64          `json:"telegram_chat_id"` // nil - artist gets no direct messages
	CreatedAt              time.Time       `json:"created_at"`
}
