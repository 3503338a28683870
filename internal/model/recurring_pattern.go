package model

import (
	"fmt"
	"time"

	"github.com/Freeeeeet/artist_scheduler/internal/interval"
	"github.com/Freeeeeet/artist_scheduler/internal/recurrence"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Frequency selects the recurrence rule variant.
type Frequency string

const (
	FrequencyDaily   Frequency = "DAILY"
	FrequencyWeekly  Frequency = "WEEKLY"
	FrequencyMonthly Frequency = "MONTHLY"
	FrequencyCustom  Frequency = "CUSTOM"
)

// RecurringPattern generates availability occurrences without per-date storage.
type RecurringPattern struct {
	ID              int64               `json:"id"`
	GroupID         uuid.UUID           `json:"group_id"` // patterns created together share it
	ArtistID        int64               `json:"artist_id"`
	Frequency       Frequency           `json:"frequency"`
	DayOfWeek       *int                `json:"day_of_week"`    // 0 = Sunday, 6 = Saturday
	DayOfMonth      *int                `json:"day_of_month"`   // 1-31
	WeekOfMonth     *int                `json:"week_of_month"`  // 1-5 or -1 for last, paired with DayOfWeek
	CustomOffsets   []int               `json:"custom_offsets"` // days after ValidFrom
	StartTime       interval.Clock      `json:"start_time"`
	EndTime         interval.Clock      `json:"end_time"`
	TimeZone        string              `json:"time_zone"`
	PriceMultiplier decimal.Decimal     `json:"price_multiplier"`
	MinimumHours    decimal.NullDecimal `json:"minimum_hours"`
	ValidFrom       time.Time           `json:"valid_from"`
	ValidUntil      *time.Time          `json:"valid_until"`
	IsActive        bool                `json:"is_active"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// Rule converts the stored columns into the expander's tagged rule.
func (p *RecurringPattern) Rule() (recurrence.Rule, error) {
	switch p.Frequency {
	case FrequencyDaily:
		return recurrence.Daily{}, nil
	case FrequencyWeekly:
		if p.DayOfWeek == nil {
			return nil, fmt.Errorf("%w: weekly pattern requires day of week", recurrence.ErrInvalidRule)
		}
		return recurrence.Weekly{DayOfWeek: time.Weekday(*p.DayOfWeek)}, nil
	case FrequencyMonthly:
		if p.WeekOfMonth != nil {
			if p.DayOfWeek == nil {
				return nil, fmt.Errorf("%w: week of month requires day of week", recurrence.ErrInvalidRule)
			}
			return recurrence.MonthlyNth{WeekOfMonth: *p.WeekOfMonth, DayOfWeek: time.Weekday(*p.DayOfWeek)}, nil
		}
		if p.DayOfMonth == nil {
			return nil, fmt.Errorf("%w: monthly pattern requires day of month", recurrence.ErrInvalidRule)
		}
		return recurrence.Monthly{DayOfMonth: *p.DayOfMonth}, nil
	case FrequencyCustom:
		return recurrence.Offsets{Days: p.CustomOffsets}, nil
	default:
		return nil, fmt.Errorf("%w: unknown frequency %q", recurrence.ErrInvalidRule, p.Frequency)
	}
}

// Spec returns the expander input for the pattern.
func (p *RecurringPattern) Spec() (recurrence.Pattern, error) {
	rule, err := p.Rule()
	if err != nil {
		return recurrence.Pattern{}, err
	}
	spec := recurrence.Pattern{
		Rule:       rule,
		Start:      p.StartTime,
		End:        p.EndTime,
		ValidFrom:  p.ValidFrom,
		ValidUntil: p.ValidUntil,
	}
	if err := spec.Validate(); err != nil {
		return recurrence.Pattern{}, err
	}
	return spec, nil
}
