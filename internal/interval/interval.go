// Package interval models half-open [start, end) wall-clock ranges.
//
// All values are local wall-clock times for a single fixed locale. They are
// carried in time.Time with the UTC location so that arithmetic never crosses
// a DST boundary and values round-trip through "timestamp without time zone"
// columns unchanged.
package interval

import (
	"errors"
	"fmt"
	"time"
)

const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"

	minutesPerDay = 24 * 60
)

var (
	// ErrInvalidInterval is returned for zero or negative spans.
	ErrInvalidInterval = errors.New("interval: end must be after start")
	// ErrInvalidClock is returned for malformed HH:MM values.
	ErrInvalidClock = errors.New("interval: invalid time of day")
	// ErrInvalidDate is returned for malformed YYYY-MM-DD values.
	ErrInvalidDate = errors.New("interval: invalid date")
)

// Interval is a half-open [Start, End) range.
type Interval struct {
	Start time.Time
	End   time.Time
}

// New validates that end is strictly after start.
func New(start, end time.Time) (Interval, error) {
	if !end.After(start) {
		return Interval{}, fmt.Errorf("%w: %s - %s", ErrInvalidInterval,
			start.Format(time.DateTime), end.Format(time.DateTime))
	}
	return Interval{Start: start, End: end}, nil
}

// OnDate builds the interval starting at clock on date and lasting durationMinutes.
func OnDate(date time.Time, start Clock, durationMinutes int) (Interval, error) {
	if durationMinutes <= 0 {
		return Interval{}, fmt.Errorf("%w: duration %d minutes", ErrInvalidInterval, durationMinutes)
	}
	from := start.On(date)
	return New(from, from.Add(time.Duration(durationMinutes)*time.Minute))
}

// Overlaps reports whether the two ranges share any instant.
func (i Interval) Overlaps(other Interval) bool {
	return i.Start.Before(other.End) && other.Start.Before(i.End)
}

// Contains reports whether other lies entirely within i.
func (i Interval) Contains(other Interval) bool {
	return !other.Start.Before(i.Start) && !other.End.After(i.End)
}

// DurationMinutes returns the length in whole minutes.
func (i Interval) DurationMinutes() int {
	return int(i.End.Sub(i.Start) / time.Minute)
}

// Date returns the calendar date the interval starts on.
func (i Interval) Date() time.Time {
	return Day(i.Start)
}

func (i Interval) String() string {
	return fmt.Sprintf("%s %s-%s", i.Start.Format(DateLayout), i.Start.Format(ClockLayout), i.End.Format(ClockLayout))
}

// Clock is a time of day expressed in minutes after midnight.
type Clock int

// ParseClock parses "HH:MM".
func ParseClock(s string) (Clock, error) {
	t, err := time.Parse(ClockLayout, s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	return Clock(t.Hour()*60 + t.Minute()), nil
}

// NewClock builds a clock from hour and minute.
func NewClock(hour, minute int) (Clock, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("%w: %02d:%02d", ErrInvalidClock, hour, minute)
	}
	return Clock(hour*60 + minute), nil
}

// ClockOf extracts the time of day of t.
func ClockOf(t time.Time) Clock {
	return Clock(t.Hour()*60 + t.Minute())
}

// Hour returns the hour part.
func (c Clock) Hour() int { return int(c) / 60 }

// Minute returns the minute part.
func (c Clock) Minute() int { return int(c) % 60 }

// Valid reports whether c is within one day.
func (c Clock) Valid() bool {
	return c >= 0 && c < minutesPerDay
}

// On places the clock on the given date.
func (c Clock) On(date time.Time) time.Time {
	return Day(date).Add(time.Duration(c) * time.Minute)
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

// ParseDate parses "YYYY-MM-DD" into a midnight-normalized date.
func ParseDate(s string) (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return d, nil
}

// Day truncates t to midnight of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// WallClock re-labels an instant as a wall-clock value in loc.
func WallClock(t time.Time, loc *time.Location) time.Time {
	if loc != nil {
		t = t.In(loc)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// DaysBetween returns the signed number of calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(Day(b).Sub(Day(a)).Hours() / 24)
}

// IsWeekend reports whether date is a Saturday or Sunday.
func IsWeekend(date time.Time) bool {
	wd := date.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
