// Package recurrence expands recurring availability rules into concrete
// date-stamped occurrences.
package recurrence

import (
	"errors"
	"fmt"
	"iter"
	"slices"
	"time"

	"github.com/Freeeeeet/artist_scheduler/internal/interval"
)

var (
	// ErrInvalidRule indicates the rule variant carries out-of-range values.
	ErrInvalidRule = errors.New("recurrence: invalid rule")
	// ErrInvalidWindow indicates the pattern's own validity window is inverted.
	ErrInvalidWindow = errors.New("recurrence: valid until must be after valid from")
)

// Rule is one of Daily, Weekly, Monthly, MonthlyNth or Offsets.
type Rule interface {
	isRule()
}

// Daily matches every day.
type Daily struct{}

// Weekly matches one weekday.
type Weekly struct {
	DayOfWeek time.Weekday
}

// Monthly matches a day of the month. Months without that day are skipped.
type Monthly struct {
	DayOfMonth int
}

// MonthlyNth matches the n-th weekday of the month; WeekOfMonth -1 is the last one.
type MonthlyNth struct {
	WeekOfMonth int
	DayOfWeek   time.Weekday
}

// Offsets matches explicit day offsets counted from the pattern's ValidFrom.
type Offsets struct {
	Days []int
}

func (Daily) isRule()      {}
func (Weekly) isRule()     {}
func (Monthly) isRule()    {}
func (MonthlyNth) isRule() {}
func (Offsets) isRule()    {}

// Pattern is the expander input: a rule, a time of day and a validity window.
type Pattern struct {
	Rule       Rule
	Start      interval.Clock
	End        interval.Clock
	ValidFrom  time.Time
	ValidUntil *time.Time // nil - open ended
}

// Occurrence is one concrete generated window.
type Occurrence struct {
	Date     time.Time
	Interval interval.Interval
}

// Validate checks the rule variant, the time of day and the validity window.
func (p Pattern) Validate() error {
	if !p.Start.Valid() || !p.End.Valid() {
		return fmt.Errorf("%w: time of day out of range", ErrInvalidRule)
	}
	if p.End <= p.Start {
		return fmt.Errorf("%w: end time %s must be after start time %s", interval.ErrInvalidInterval, p.End, p.Start)
	}
	if p.ValidFrom.IsZero() {
		return fmt.Errorf("%w: valid from is required", ErrInvalidRule)
	}
	if p.ValidUntil != nil && !interval.Day(*p.ValidUntil).After(interval.Day(p.ValidFrom)) {
		return ErrInvalidWindow
	}

	switch r := p.Rule.(type) {
	case Daily:
		return nil
	case Weekly:
		return validWeekday(r.DayOfWeek)
	case Monthly:
		if r.DayOfMonth < 1 || r.DayOfMonth > 31 {
			return fmt.Errorf("%w: day of month %d", ErrInvalidRule, r.DayOfMonth)
		}
		return nil
	case MonthlyNth:
		if r.WeekOfMonth != -1 && (r.WeekOfMonth < 1 || r.WeekOfMonth > 5) {
			return fmt.Errorf("%w: week of month %d", ErrInvalidRule, r.WeekOfMonth)
		}
		return validWeekday(r.DayOfWeek)
	case Offsets:
		if len(r.Days) == 0 {
			return fmt.Errorf("%w: custom rule needs at least one offset", ErrInvalidRule)
		}
		for _, d := range r.Days {
			if d < 0 {
				return fmt.Errorf("%w: negative offset %d", ErrInvalidRule, d)
			}
		}
		return nil
	case nil:
		return fmt.Errorf("%w: missing rule", ErrInvalidRule)
	default:
		return fmt.Errorf("%w: unsupported rule %T", ErrInvalidRule, r)
	}
}

func validWeekday(d time.Weekday) error {
	if d < time.Sunday || d > time.Saturday {
		return fmt.Errorf("%w: day of week %d", ErrInvalidRule, d)
	}
	return nil
}

// Expand returns the occurrences of p between rangeStart and rangeEnd
// (inclusive calendar dates), clipped to the pattern's validity window.
// The sequence is a pure function of its inputs and can be ranged over again.
func Expand(p Pattern, rangeStart, rangeEnd time.Time) (iter.Seq[Occurrence], error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	lower := interval.Day(rangeStart)
	if from := interval.Day(p.ValidFrom); from.After(lower) {
		lower = from
	}
	upper := interval.Day(rangeEnd)
	if p.ValidUntil != nil {
		if until := interval.Day(*p.ValidUntil); until.Before(upper) {
			upper = until
		}
	}

	var dates iter.Seq[time.Time] = func(yield func(time.Time) bool) {}
	if !lower.After(upper) {
		dates = matchingDates(p, lower, upper)
	}

	duration := int(p.End - p.Start)
	return func(yield func(Occurrence) bool) {
		for date := range dates {
			iv, err := interval.OnDate(date, p.Start, duration)
			if err != nil {
				// unreachable after Validate
				return
			}
			if !yield(Occurrence{Date: date, Interval: iv}) {
				return
			}
		}
	}, nil
}

// Collect expands p into a slice.
func Collect(p Pattern, rangeStart, rangeEnd time.Time) ([]Occurrence, error) {
	seq, err := Expand(p, rangeStart, rangeEnd)
	if err != nil {
		return nil, err
	}
	return slices.Collect(seq), nil
}

func matchingDates(p Pattern, lower, upper time.Time) iter.Seq[time.Time] {
	switch r := p.Rule.(type) {
	case Daily:
		return step(lower, upper, 1)
	case Weekly:
		shift := (int(r.DayOfWeek) - int(lower.Weekday()) + 7) % 7
		return step(lower.AddDate(0, 0, shift), upper, 7)
	case Monthly:
		return monthly(lower, upper, func(year int, month time.Month) (time.Time, bool) {
			if r.DayOfMonth > daysIn(year, month) {
				return time.Time{}, false
			}
			return time.Date(year, month, r.DayOfMonth, 0, 0, 0, 0, time.UTC), true
		})
	case MonthlyNth:
		return monthly(lower, upper, func(year int, month time.Month) (time.Time, bool) {
			return nthWeekday(year, month, r.WeekOfMonth, r.DayOfWeek)
		})
	case Offsets:
		return offsets(interval.Day(p.ValidFrom), r.Days, lower, upper)
	default:
		return func(yield func(time.Time) bool) {}
	}
}

func step(from, upper time.Time, days int) iter.Seq[time.Time] {
	return func(yield func(time.Time) bool) {
		for d := from; !d.After(upper); d = d.AddDate(0, 0, days) {
			if !yield(d) {
				return
			}
		}
	}
}

func monthly(lower, upper time.Time, resolve func(int, time.Month) (time.Time, bool)) iter.Seq[time.Time] {
	return func(yield func(time.Time) bool) {
		cursor := time.Date(lower.Year(), lower.Month(), 1, 0, 0, 0, 0, time.UTC)
		for !cursor.After(upper) {
			date, ok := resolve(cursor.Year(), cursor.Month())
			if ok && !date.Before(lower) && !date.After(upper) {
				if !yield(date) {
					return
				}
			}
			cursor = cursor.AddDate(0, 1, 0)
		}
	}
}

func offsets(origin time.Time, days []int, lower, upper time.Time) iter.Seq[time.Time] {
	sorted := slices.Clone(days)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)
	return func(yield func(time.Time) bool) {
		for _, off := range sorted {
			date := origin.AddDate(0, 0, off)
			if date.Before(lower) {
				continue
			}
			if date.After(upper) {
				return
			}
			if !yield(date) {
				return
			}
		}
	}
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func nthWeekday(year int, month time.Month, n int, wd time.Weekday) (time.Time, bool) {
	if n == -1 {
		last := time.Date(year, month, daysIn(year, month), 0, 0, 0, 0, time.UTC)
		back := (int(last.Weekday()) - int(wd) + 7) % 7
		return last.AddDate(0, 0, -back), true
	}
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	shift := (int(wd) - int(first.Weekday()) + 7) % 7
	date := first.AddDate(0, 0, shift+(n-1)*7)
	if date.Month() != month {
		return time.Time{}, false
	}
	return date, true
}
