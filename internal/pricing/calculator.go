// Package pricing computes the price of a candidate slot.
package pricing

import (
	"time"

	"github.com/Freeeeeet/artist_scheduler/internal/interval"
	"github.com/shopspring/decimal"
)

var minutesPerHour = decimal.NewFromInt(60)

// Input carries everything the price of one slot depends on.
type Input struct {
	HourlyRate        decimal.Decimal
	DurationMinutes   int
	MinimumHours      decimal.Decimal
	SlotMultiplier    decimal.Decimal // zero value means 1
	WeekendMultiplier decimal.Decimal // zero value means 1
	HolidayMultiplier decimal.Decimal // zero value means 1
	Date              time.Time
}

// Quote is the price breakdown of one slot.
type Quote struct {
	EffectiveHours decimal.Decimal `json:"effective_hours"`
	BasePrice      decimal.Decimal `json:"base_price"`
	Multiplier     decimal.Decimal `json:"multiplier"`
	FinalPrice     decimal.Decimal `json:"final_price"`
	IsWeekend      bool            `json:"is_weekend"`
	IsHoliday      bool            `json:"is_holiday"`
}

// Calculator prices slots. Multipliers compose multiplicatively.
type Calculator struct {
	holidays HolidayCalendar
}

// NewCalculator creates a calculator. A nil calendar means no holidays.
func NewCalculator(holidays HolidayCalendar) *Calculator {
	if holidays == nil {
		holidays = NoHolidays{}
	}
	return &Calculator{holidays: holidays}
}

// Quote prices one request.
func (c *Calculator) Quote(in Input) Quote {
	hours := decimal.NewFromInt(int64(in.DurationMinutes)).Div(minutesPerHour)
	effective := decimal.Max(hours, in.MinimumHours)
	base := in.HourlyRate.Mul(effective)

	q := Quote{
		EffectiveHours: effective,
		BasePrice:      base,
		IsWeekend:      interval.IsWeekend(in.Date),
		IsHoliday:      c.holidays.IsHoliday(in.Date),
	}

	multiplier := orOne(in.SlotMultiplier)
	if q.IsWeekend {
		multiplier = multiplier.Mul(orOne(in.WeekendMultiplier))
	}
	if q.IsHoliday {
		multiplier = multiplier.Mul(orOne(in.HolidayMultiplier))
	}
	q.Multiplier = multiplier
	q.FinalPrice = base.Mul(multiplier)
	return q
}

func orOne(d decimal.Decimal) decimal.Decimal {
	if d.IsZero() {
		return decimal.NewFromInt(1)
	}
	return d
}
