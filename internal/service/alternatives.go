package service

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/Freeeeeet/artist_scheduler/internal/interval"
	"github.com/Freeeeeet/artist_scheduler/internal/model"
	"github.com/Freeeeeet/artist_scheduler/internal/pricing"
)

// AlternativeReason tags how far an alternative is from the request.
type AlternativeReason string

const (
	ReasonSameDay   AlternativeReason = "SAME_DAY_ALTERNATIVE"
	ReasonAdjacent  AlternativeReason = "ADJACENT_DAY"
	ReasonOtherTime AlternativeReason = "ALTERNATIVE_TIME"
)

const (
	defaultAlternativeRange = 7
	maxAlternativeRange     = 30
	maxAlternatives         = 10
)

// Alternative is a bookable window of the requested duration near the
// requested date.
type Alternative struct {
	Interval      interval.Interval
	Slot          *model.Availability
	DayDifference int
	Reason        AlternativeReason
	Quote         pricing.Quote
}

func reasonFor(dayDifference int) AlternativeReason {
	switch {
	case dayDifference == 0:
		return ReasonSameDay
	case dayDifference >= -1 && dayDifference <= 1:
		return ReasonAdjacent
	default:
		return ReasonOtherTime
	}
}

func clampRange(days int) int {
	switch {
	case days <= 0:
		return defaultAlternativeRange
	case days > maxAlternativeRange:
		return maxAlternativeRange
	default:
		return days
	}
}

// FindAlternatives searches radiusDays either side of the requested date.
// It only reads state.
func (s *AvailabilityService) FindAlternatives(ctx context.Context, artistID int64, date time.Time, start interval.Clock, durationMinutes, radiusDays int) ([]Alternative, error) {
	requested, err := interval.OnDate(date, start, durationMinutes)
	if err != nil {
		return nil, invalid("duration_minutes", err.Error())
	}
	artist, err := s.artist(ctx, artistID)
	if err != nil {
		return nil, err
	}
	return s.findAlternatives(ctx, artist, requested, radiusDays)
}

func (e *engine) findAlternatives(ctx context.Context, artist *model.Artist, requested interval.Interval, radiusDays int) ([]Alternative, error) {
	radius := clampRange(radiusDays)
	day := requested.Date()
	from, to := day.AddDate(0, 0, -radius), day.AddDate(0, 0, radius)
	duration := requested.DurationMinutes()

	slots, err := e.materialize(ctx, artist.ID, from, to)
	if err != nil {
		return nil, err
	}
	filter, err := e.blackouts(ctx, artist.ID)
	if err != nil {
		return nil, err
	}
	slots = filter.Exclude(slots)

	bookings, err := e.Stores.Bookings.ListOverlapping(ctx, artist.ID, from, to.AddDate(0, 0, 2), model.HardConflictStatuses)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}

	now := e.Now()
	earliest := now.Add(hours(artist.MinAdvanceBookingHours))
	var latest time.Time
	if artist.MaxAdvanceBookingDays > 0 {
		latest = interval.Day(now).AddDate(0, 0, artist.MaxAdvanceBookingDays)
	}

	var alts []Alternative
	for _, slot := range slots {
		if !slot.IsBookable() || slot.Interval().DurationMinutes() < duration {
			continue
		}
		iv, ok := fit(slot.Interval(), duration, bookings)
		if !ok || iv.Start.Before(earliest) {
			continue
		}
		if !latest.IsZero() && iv.Date().After(latest) {
			continue
		}
		if _, blocked := filter.Blocks(iv); blocked {
			continue
		}

		diff := interval.DaysBetween(day, iv.Start)
		alts = append(alts, Alternative{
			Interval:      iv,
			Slot:          slot,
			DayDifference: diff,
			Reason:        reasonFor(diff),
			Quote:         e.quote(artist, slot, duration, iv.Date()),
		})
	}

	slices.SortStableFunc(alts, func(a, b Alternative) int {
		return cmp.Or(
			cmp.Compare(abs(a.DayDifference), abs(b.DayDifference)),
			cmp.Compare(interval.ClockOf(a.Interval.Start), interval.ClockOf(b.Interval.Start)),
			a.Interval.Start.Compare(b.Interval.Start),
		)
	})
	if len(alts) > maxAlternatives {
		alts = alts[:maxAlternatives]
	}
	return alts, nil
}

// fit places durationMinutes at the earliest point of slot that clears every
// booking.
func fit(slot interval.Interval, durationMinutes int, bookings []*model.Booking) (interval.Interval, bool) {
	length := time.Duration(durationMinutes) * time.Minute
	candidate := interval.Interval{Start: slot.Start, End: slot.Start.Add(length)}
	for moved := true; moved; {
		moved = false
		for _, b := range bookings {
			if b.Interval().Overlaps(candidate) {
				candidate = interval.Interval{Start: b.EndTime, End: b.EndTime.Add(length)}
				moved = true
			}
		}
		if candidate.End.After(slot.End) {
			return interval.Interval{}, false
		}
	}
	return candidate, true
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
