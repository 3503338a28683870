package pricing

import (
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/artist_scheduler/internal/interval"
)

// HolidayCalendar answers whether a date is a public holiday.
type HolidayCalendar interface {
	IsHoliday(date time.Time) bool
}

// NoHolidays is the calendar used when none is configured.
type NoHolidays struct{}

// IsHoliday reports whether date is listed.
func (NoHolidays) IsHoliday(time.Time) bool { return false }

// StaticHolidays is a fixed set of holiday dates.
type StaticHolidays map[time.Time]struct{}

// ParseHolidays reads a comma separated list of YYYY-MM-DD dates.
func ParseHolidays(list string) (StaticHolidays, error) {
	set := make(StaticHolidays)
	for _, raw := range strings.Split(list, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		d, err := interval.ParseDate(raw)
		if err != nil {
			return nil, fmt.Errorf("parse holiday: %w", err)
		}
		set[d] = struct{}{}
	}
	return set, nil
}

// IsHoliday reports whether date is listed.
func (s StaticHolidays) IsHoliday(date time.Time) bool {
	_, ok := s[interval.Day(date)]
	return ok
}
