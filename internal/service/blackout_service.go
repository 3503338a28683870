package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/Freeeeeet/artist_scheduler/internal/blackout"
	"github.com/Freeeeeet/artist_scheduler/internal/events"
	"github.com/Freeeeeet/artist_scheduler/internal/interval"
	"github.com/Freeeeeet/artist_scheduler/internal/model"
	"github.com/Freeeeeet/artist_scheduler/internal/notify"
	"go.uber.org/zap"
)

var blockingStatuses = []model.BookingStatus{model.BookingStatusConfirmed, model.BookingStatusPaid}

// openEnd bounds the booking scan of a yearly blackout, which never expires.
var openEnd = time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC)

// BlackoutService manages blackout ranges.
type BlackoutService struct {
	*engine
}

// CreateBlackoutRequest describes a new blackout.
type CreateBlackoutRequest struct {
	ArtistID   int64
	StartDate  time.Time
	EndDate    time.Time
	Title      string
	Type       model.BlackoutType
	Recurrence model.BlackoutRecurrence
}

// BlackoutResult reports the stored blackout and how many rows it flipped.
type BlackoutResult struct {
	Blackout     *model.BlackoutDate
	FlippedSlots int64
}

// CreateBlackout stores the range and flips overlapping unbooked rows to
// UNAVAILABLE. A range over a confirmed or paid booking is rejected with
// those bookings listed; for a yearly range every later year counts.
func (s *BlackoutService) CreateBlackout(ctx context.Context, req CreateBlackoutRequest) (*BlackoutResult, error) {
	req.Title = strings.TrimSpace(req.Title)
	if req.Type == "" {
		req.Type = model.BlackoutTypeOther
	}

	var verr ValidationError
	if req.StartDate.IsZero() {
		verr.Add("start_date", "is required")
	}
	if req.EndDate.IsZero() {
		verr.Add("end_date", "is required")
	}
	start, end := interval.Day(req.StartDate), interval.Day(req.EndDate)
	if end.Before(start) {
		verr.Add("end_date", "must not be before start_date")
	}
	if req.Title == "" {
		verr.Add("title", "is required")
	}
	if !req.Type.Valid() {
		verr.Add("type", "must be PERSONAL, HOLIDAY, MAINTENANCE or OTHER")
	}
	if req.Recurrence != model.BlackoutRecurrenceNone && req.Recurrence != model.BlackoutRecurrenceYearly {
		verr.Add("recurrence", "must be empty or YEARLY")
	}
	if req.Recurrence == model.BlackoutRecurrenceYearly && interval.DaysBetween(start, end) >= 365 {
		verr.Add("end_date", "a yearly blackout must be shorter than a year")
	}
	if err := verr.Err(); err != nil {
		return nil, err
	}

	artist, err := s.artist(ctx, req.ArtistID)
	if err != nil {
		return nil, err
	}

	b := &model.BlackoutDate{
		ArtistID:   req.ArtistID,
		StartDate:  start,
		EndDate:    end,
		Title:      req.Title,
		Type:       req.Type,
		Recurrence: req.Recurrence,
	}

	var flipped int64
	err = s.withArtistLock(ctx, req.ArtistID, func() error {
		conflicts, err := s.coveredBookings(ctx, b)
		if err != nil {
			return err
		}
		if len(conflicts) > 0 {
			return &StateViolationError{
				Reason:   "blackout overlaps confirmed bookings",
				Bookings: conflicts,
			}
		}

		flipped, err = s.Stores.Blackouts.Create(ctx, b, blackout.Note(b))
		if err != nil {
			return fmt.Errorf("create blackout: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Info("Blackout created",
		zap.Int64("artist_id", req.ArtistID),
		zap.Int64("blackout_id", b.ID),
		zap.String("title", b.Title),
		zap.Int64("flipped_slots", flipped))

	s.publish(ctx, events.TypeBlackoutCreated, req.ArtistID, map[string]any{
		"blackout_id":   b.ID,
		"start_date":    b.StartDate.Format(interval.DateLayout),
		"end_date":      b.EndDate.Format(interval.DateLayout),
		"title":         b.Title,
		"flipped_slots": flipped,
	})
	s.notifyArtist(ctx, artist, notify.BlackoutMessage(b.Title, b.StartDate, b.EndDate, flipped))

	return &BlackoutResult{Blackout: b, FlippedSlots: flipped}, nil
}

// coveredBookings returns the confirmed or paid bookings touching a date
// that b would black out.
func (s *BlackoutService) coveredBookings(ctx context.Context, b *model.BlackoutDate) ([]*model.Booking, error) {
	to := b.EndDate.AddDate(0, 0, 1)
	if b.Recurrence == model.BlackoutRecurrenceYearly {
		to = openEnd
	}
	bookings, err := s.Stores.Bookings.ListOverlapping(ctx, b.ArtistID, b.StartDate, to, blockingStatuses)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}

	filter := blackout.NewFilter([]*model.BlackoutDate{b})
	return slices.DeleteFunc(bookings, func(bk *model.Booking) bool {
		_, blocked := filter.Blocks(bk.Interval())
		return !blocked
	}), nil
}

// ListBlackouts returns every blackout of the artist.
func (s *BlackoutService) ListBlackouts(ctx context.Context, artistID int64) ([]*model.BlackoutDate, error) {
	if _, err := s.artist(ctx, artistID); err != nil {
		return nil, err
	}
	return s.Stores.Blackouts.GetByArtistID(ctx, artistID)
}

// DeleteBlackout removes the range. Rows it flipped stay UNAVAILABLE until
// the artist reopens them.
func (s *BlackoutService) DeleteBlackout(ctx context.Context, artistID, id int64) error {
	b, err := s.Stores.Blackouts.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get blackout: %w", err)
	}
	if b == nil || b.ArtistID != artistID {
		return notFound("blackout", id)
	}
	if err := s.Stores.Blackouts.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete blackout: %w", err)
	}
	s.Logger.Info("Blackout deleted",
		zap.Int64("artist_id", artistID),
		zap.Int64("blackout_id", id))
	return nil
}
