// Package blackout decides whether candidate windows fall into an artist's
// blackout ranges.
package blackout

import (
	"time"

	"github.com/Freeeeeet/artist_scheduler/internal/interval"
	"github.com/Freeeeeet/artist_scheduler/internal/model"
)

// Covers reports whether the blackout includes the calendar date.
func Covers(b *model.BlackoutDate, date time.Time) bool {
	day := interval.Day(date)
	start, end := interval.Day(b.StartDate), interval.Day(b.EndDate)
	if b.Recurrence != model.BlackoutRecurrenceYearly {
		return !day.Before(start) && !day.After(end)
	}

	span := interval.DaysBetween(start, end)
	// the range may wrap over new year, so check the occurrence starting last year too
	for _, year := range []int{day.Year(), day.Year() - 1} {
		s := time.Date(year, start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
		e := s.AddDate(0, 0, span)
		if !day.Before(s) && !day.After(e) {
			return true
		}
	}
	return false
}

// Filter answers blackout questions for one artist's blackout set.
type Filter struct {
	blackouts []*model.BlackoutDate
}

// NewFilter wraps the artist's blackouts.
func NewFilter(blackouts []*model.BlackoutDate) *Filter {
	return &Filter{blackouts: blackouts}
}

// Match returns the first blackout covering date.
func (f *Filter) Match(date time.Time) (*model.BlackoutDate, bool) {
	for _, b := range f.blackouts {
		if Covers(b, date) {
			return b, true
		}
	}
	return nil, false
}

// Blocks reports whether any calendar date touched by iv is blacked out.
func (f *Filter) Blocks(iv interval.Interval) (*model.BlackoutDate, bool) {
	last := interval.Day(iv.End.Add(-time.Nanosecond))
	for d := iv.Date(); !d.After(last); d = d.AddDate(0, 0, 1) {
		if b, ok := f.Match(d); ok {
			return b, true
		}
	}
	return nil, false
}

// Exclude drops bookable slots that fall into a blackout. Rows already
// marked unavailable are kept so callers still see why a date is closed.
func (f *Filter) Exclude(slots []*model.Availability) []*model.Availability {
	if len(f.blackouts) == 0 {
		return slots
	}
	kept := slots[:0:0]
	for _, s := range slots {
		if s.Status == model.AvailabilityStatusAvailable {
			if _, blocked := f.Blocks(s.Interval()); blocked {
				continue
			}
		}
		kept = append(kept, s)
	}
	return kept
}

// Empty reports whether the artist has no blackouts at all.
func (f *Filter) Empty() bool {
	return len(f.blackouts) == 0
}

// Mark returns slots with every blacked-out bookable entry replaced by an
// unavailable copy annotated with the blackout title. Inputs are not mutated.
func (f *Filter) Mark(slots []*model.Availability) []*model.Availability {
	out := make([]*model.Availability, 0, len(slots))
	for _, s := range slots {
		if s.Status == model.AvailabilityStatusAvailable && !s.IsBooked {
			if b, blocked := f.Blocks(s.Interval()); blocked {
				marked := *s
				marked.Status = model.AvailabilityStatusUnavailable
				marked.Notes = Note(b)
				s = &marked
			}
		}
		out = append(out, s)
	}
	return out
}

// Note is the annotation written onto slots closed by b.
func Note(b *model.BlackoutDate) string {
	return "Blackout: " + b.Title
}
