package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/Freeeeeet/artist_scheduler/internal/blackout"
	"github.com/Freeeeeet/artist_scheduler/internal/events"
	"github.com/Freeeeeet/artist_scheduler/internal/interval"
	"github.com/Freeeeeet/artist_scheduler/internal/model"
	"github.com/Freeeeeet/artist_scheduler/internal/notify"
	"github.com/Freeeeeet/artist_scheduler/internal/pricing"
	"github.com/Freeeeeet/artist_scheduler/internal/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Outcome is the terminal state of one availability check.
type Outcome string

const (
	OutcomeAvailable       Outcome = "AVAILABLE"
	OutcomeTooSoon         Outcome = "TOO_SOON"
	OutcomeTooFar          Outcome = "TOO_FAR"
	OutcomeNoAvailability  Outcome = "NO_AVAILABILITY"
	OutcomeBookingConflict Outcome = "BOOKING_CONFLICT"
	OutcomeBlackout        Outcome = "BLACKOUT"
)

const maxDurationMinutes = 24 * 60

// CheckRequest is a candidate booking window.
type CheckRequest struct {
	ArtistID             int64
	Date                 time.Time
	StartTime            interval.Clock
	DurationMinutes      int
	IncludeAlternatives  bool
	AlternativeRangeDays int
}

func (r CheckRequest) validate(verr *ValidationError) {
	if r.ArtistID <= 0 {
		verr.Add("artist_id", "must be positive")
	}
	if r.Date.IsZero() {
		verr.Add("date", "is required")
	}
	if !r.StartTime.Valid() {
		verr.Add("start_time", "must be between 00:00 and 23:59")
	}
	if r.DurationMinutes <= 0 || r.DurationMinutes > maxDurationMinutes {
		verr.Add("duration_minutes", fmt.Sprintf("must be between 1 and %d", maxDurationMinutes))
	}
	if r.AlternativeRangeDays < 0 || r.AlternativeRangeDays > maxAlternativeRange {
		verr.Add("alternative_range_days", fmt.Sprintf("must be between 0 and %d", maxAlternativeRange))
	}
}

// CheckResult is a first-class answer, not an error: every Outcome other
// than OutcomeAvailable carries a Message and may carry alternatives.
type CheckResult struct {
	Outcome   Outcome
	Message   string
	Requested interval.Interval

	// Set when available.
	Slot  *model.Availability
	Quote *pricing.Quote

	Blackout            *model.BlackoutDate
	ConflictingBookings []*model.Booking
	Alternatives        []Alternative
}

// Available reports whether the outcome is AVAILABLE.
func (r *CheckResult) Available() bool {
	return r.Outcome == OutcomeAvailable
}

func (r *CheckResult) reject(outcome Outcome, msg string) *CheckResult {
	r.Outcome = outcome
	r.Message = msg
	r.Slot = nil
	r.Quote = nil
	return r
}

// AvailabilityService checks, reserves and edits availability.
type AvailabilityService struct {
	*engine
}

// CheckAvailability runs the conflict checks in order and stops at the
// first failing one.
func (s *AvailabilityService) CheckAvailability(ctx context.Context, req CheckRequest) (*CheckResult, error) {
	var verr ValidationError
	req.validate(&verr)
	if err := verr.Err(); err != nil {
		return nil, err
	}

	artist, err := s.artist(ctx, req.ArtistID)
	if err != nil {
		return nil, err
	}

	res, err := s.evaluate(ctx, artist, req)
	if err != nil {
		return nil, err
	}
	if err := s.attachAlternatives(ctx, artist, req, res); err != nil {
		return nil, err
	}

	s.Logger.Debug("Availability checked",
		zap.Int64("artist_id", artist.ID),
		zap.Stringer("requested", res.Requested),
		zap.String("outcome", string(res.Outcome)),
		zap.Int("alternatives", len(res.Alternatives)))

	return res, nil
}

func (s *AvailabilityService) attachAlternatives(ctx context.Context, artist *model.Artist, req CheckRequest, res *CheckResult) error {
	if res.Available() || !req.IncludeAlternatives {
		return nil
	}
	alts, err := s.findAlternatives(ctx, artist, res.Requested, req.AlternativeRangeDays)
	if err != nil {
		return fmt.Errorf("find alternatives: %w", err)
	}
	res.Alternatives = alts
	return nil
}

func (s *AvailabilityService) evaluate(ctx context.Context, artist *model.Artist, req CheckRequest) (*CheckResult, error) {
	requested, err := interval.OnDate(req.Date, req.StartTime, req.DurationMinutes)
	if err != nil {
		return nil, invalid("duration_minutes", err.Error())
	}
	res := &CheckResult{Requested: requested}
	now := s.Now()

	if earliest := now.Add(hours(artist.MinAdvanceBookingHours)); requested.Start.Before(earliest) {
		return res.reject(OutcomeTooSoon,
			fmt.Sprintf("bookings require at least %d hours notice", artist.MinAdvanceBookingHours)), nil
	}
	if artist.MaxAdvanceBookingDays > 0 {
		if latest := interval.Day(now).AddDate(0, 0, artist.MaxAdvanceBookingDays); requested.Date().After(latest) {
			return res.reject(OutcomeTooFar,
				fmt.Sprintf("bookings open at most %d days ahead", artist.MaxAdvanceBookingDays)), nil
		}
	}

	filter, err := s.blackouts(ctx, artist.ID)
	if err != nil {
		return nil, err
	}

	// the previous day is loaded for slots running past midnight
	slots, err := s.materialize(ctx, artist.ID, requested.Date().AddDate(0, 0, -1), requested.Date())
	if err != nil {
		return nil, err
	}
	idx := slices.IndexFunc(slots, func(slot *model.Availability) bool {
		return slot.IsBookable() && slot.Interval().Contains(requested)
	})
	if idx < 0 {
		// a blackout flips rows to UNAVAILABLE, so report it rather than a bare miss
		if b, blocked := filter.Blocks(requested); blocked {
			return blackedOut(res, b), nil
		}
		if slices.ContainsFunc(slots, func(slot *model.Availability) bool {
			return slot.IsBooked && slot.Interval().Overlaps(requested)
		}) {
			return res.reject(OutcomeBookingConflict, "the requested time is already booked"), nil
		}
		return res.reject(OutcomeNoAvailability, "no available slot covers the requested time"), nil
	}
	slot := slots[idx]

	bookings, err := s.Stores.Bookings.ListOverlapping(ctx, artist.ID, requested.Start, requested.End, model.HardConflictStatuses)
	if err != nil {
		return nil, fmt.Errorf("list conflicting bookings: %w", err)
	}
	bookings = slices.DeleteFunc(bookings, func(b *model.Booking) bool {
		return !b.Interval().Overlaps(requested)
	})
	if len(bookings) > 0 {
		res.ConflictingBookings = bookings
		return res.reject(OutcomeBookingConflict, "the requested time overlaps a confirmed booking"), nil
	}

	if b, blocked := filter.Blocks(requested); blocked {
		return blackedOut(res, b), nil
	}

	q := s.quote(artist, slot, req.DurationMinutes, requested.Date())
	res.Outcome = OutcomeAvailable
	res.Slot = slot
	res.Quote = &q
	return res, nil
}

func blackedOut(res *CheckResult, b *model.BlackoutDate) *CheckResult {
	res.Blackout = b
	return res.reject(OutcomeBlackout, blackout.Note(b))
}

// ReserveRequest claims the checked window for a booking.
type ReserveRequest struct {
	CheckRequest
	BookingID int64
}

// ReserveSlot re-runs the check under the artist lock and claims the matched
// slot for the booking. A pattern occurrence is persisted on the way. Losing
// a race to another claim yields OutcomeBookingConflict.
func (s *AvailabilityService) ReserveSlot(ctx context.Context, req ReserveRequest) (*CheckResult, error) {
	var verr ValidationError
	req.validate(&verr)
	if req.BookingID <= 0 {
		verr.Add("booking_id", "must be positive")
	}
	if err := verr.Err(); err != nil {
		return nil, err
	}

	artist, err := s.artist(ctx, req.ArtistID)
	if err != nil {
		return nil, err
	}

	var res *CheckResult
	err = s.withArtistLock(ctx, artist.ID, func() error {
		res, err = s.evaluate(ctx, artist, req.CheckRequest)
		if err != nil || !res.Available() {
			return err
		}
		claimed, err := s.claim(ctx, res.Slot, req.BookingID)
		if errors.Is(err, repository.ErrAlreadyBooked) || errors.Is(err, repository.ErrDuplicate) {
			res.reject(OutcomeBookingConflict, "the slot was claimed by another booking")
			return nil
		}
		if err != nil {
			return err
		}
		res.Slot = claimed
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !res.Available() {
		if err := s.attachAlternatives(ctx, artist, req.CheckRequest, res); err != nil {
			return nil, err
		}
		return res, nil
	}

	s.Logger.Info("Slot reserved",
		zap.Int64("artist_id", artist.ID),
		zap.Int64("availability_id", res.Slot.ID),
		zap.Int64("booking_id", req.BookingID),
		zap.Stringer("requested", res.Requested))

	s.publish(ctx, events.TypeSlotReserved, artist.ID, map[string]any{
		"availability_id": res.Slot.ID,
		"booking_id":      req.BookingID,
		"start_time":      res.Requested.Start,
		"end_time":        res.Requested.End,
		"final_price":     res.Quote.FinalPrice,
	})
	s.notifyArtist(ctx, artist, notify.SlotReservedMessage(req.BookingID, res.Requested.Start, res.Requested.End, res.Quote.FinalPrice))

	return res, nil
}

func (s *AvailabilityService) claim(ctx context.Context, slot *model.Availability, bookingID int64) (*model.Availability, error) {
	claimed := *slot
	claimed.IsBooked = true
	claimed.BookingID = &bookingID

	if slot.ID == 0 {
		if err := s.Stores.Availability.Create(ctx, &claimed); err != nil {
			return nil, fmt.Errorf("persist occurrence: %w", err)
		}
		return &claimed, nil
	}
	if err := s.Stores.Availability.Book(ctx, slot.ID, bookingID); err != nil {
		return nil, err
	}
	return &claimed, nil
}

// ReleaseSlot frees the rows claimed by a booking, e.g. after cancellation.
func (s *AvailabilityService) ReleaseSlot(ctx context.Context, artistID, bookingID int64) (int64, error) {
	if bookingID <= 0 {
		return 0, invalid("booking_id", "must be positive")
	}
	artist, err := s.artist(ctx, artistID)
	if err != nil {
		return 0, err
	}

	var released int64
	err = s.withArtistLock(ctx, artistID, func() error {
		released, err = s.Stores.Availability.ReleaseByBooking(ctx, artistID, bookingID)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("release slot: %w", err)
	}
	if released == 0 {
		return 0, notFound("booking", bookingID)
	}

	s.Logger.Info("Slot released",
		zap.Int64("artist_id", artistID),
		zap.Int64("booking_id", bookingID),
		zap.Int64("rows", released))

	s.publish(ctx, events.TypeSlotReleased, artistID, map[string]any{"booking_id": bookingID})
	s.notifyArtist(ctx, artist, notify.SlotReleasedMessage(bookingID))
	return released, nil
}

// CreateSlotRequest describes one explicit slot.
type CreateSlotRequest struct {
	ArtistID            int64
	Date                time.Time
	StartTime           interval.Clock
	EndTime             interval.Clock
	Status              model.AvailabilityStatus
	PriceMultiplier     decimal.Decimal
	MinimumHours        decimal.NullDecimal
	BufferBeforeMinutes int
	BufferAfterMinutes  int
	Notes               string
	Requirements        string
}

// CreateSlot stores one explicit window. The end time must be later on the
// same date.
func (s *AvailabilityService) CreateSlot(ctx context.Context, req CreateSlotRequest) (*model.Availability, error) {
	if req.Status == "" {
		req.Status = model.AvailabilityStatusAvailable
	}
	if req.PriceMultiplier.IsZero() {
		req.PriceMultiplier = decimal.NewFromInt(1)
	}

	var verr ValidationError
	if req.Date.IsZero() {
		verr.Add("date", "is required")
	}
	if !req.StartTime.Valid() || !req.EndTime.Valid() {
		verr.Add("start_time", "must be between 00:00 and 23:59")
	} else if req.EndTime <= req.StartTime {
		verr.Add("end_time", "must be after start_time")
	}
	if req.Status != model.AvailabilityStatusAvailable && req.Status != model.AvailabilityStatusUnavailable {
		verr.Add("status", "must be AVAILABLE or UNAVAILABLE")
	}
	if req.PriceMultiplier.IsNegative() {
		verr.Add("price_multiplier", "must be positive")
	}
	if req.MinimumHours.Valid && req.MinimumHours.Decimal.IsNegative() {
		verr.Add("minimum_hours", "must not be negative")
	}
	if req.BufferBeforeMinutes < 0 || req.BufferAfterMinutes < 0 {
		verr.Add("buffer_minutes", "must not be negative")
	}
	if err := verr.Err(); err != nil {
		return nil, err
	}

	if _, err := s.artist(ctx, req.ArtistID); err != nil {
		return nil, err
	}

	date := interval.Day(req.Date)
	slot := &model.Availability{
		ArtistID:            req.ArtistID,
		Date:                date,
		StartTime:           req.StartTime.On(date),
		EndTime:             req.EndTime.On(date),
		Status:              req.Status,
		PriceMultiplier:     req.PriceMultiplier,
		MinimumHours:        req.MinimumHours,
		BufferBeforeMinutes: req.BufferBeforeMinutes,
		BufferAfterMinutes:  req.BufferAfterMinutes,
		Notes:               req.Notes,
		Requirements:        req.Requirements,
	}

	err := s.withArtistLock(ctx, req.ArtistID, func() error {
		return s.Stores.Availability.Create(ctx, slot)
	})
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, fmt.Errorf("availability at %s: %w", slot.StartTime.Format(time.DateTime), ErrAlreadyExists)
	}
	if err != nil {
		return nil, fmt.Errorf("create availability: %w", err)
	}

	s.Logger.Info("Availability created",
		zap.Int64("artist_id", req.ArtistID),
		zap.Int64("availability_id", slot.ID),
		zap.Stringer("interval", slot.Interval()))

	return slot, nil
}

// BulkUpdateStatus sets status on each row independently. Booked rows
// cannot be made UNAVAILABLE.
func (s *AvailabilityService) BulkUpdateStatus(ctx context.Context, artistID int64, ids []int64, status model.AvailabilityStatus) (*BatchResult[int64], error) {
	if status != model.AvailabilityStatusAvailable && status != model.AvailabilityStatusUnavailable {
		return nil, invalid("status", "must be AVAILABLE or UNAVAILABLE")
	}
	if len(ids) == 0 {
		return nil, invalid("ids", "must not be empty")
	}
	if _, err := s.artist(ctx, artistID); err != nil {
		return nil, err
	}

	result := &BatchResult[int64]{}
	err := s.withArtistLock(ctx, artistID, func() error {
		for _, id := range slices.Compact(slices.Sorted(slices.Values(ids))) {
			slot, err := s.Stores.Availability.GetByID(ctx, id)
			switch {
			case err != nil:
				result.fail(id, FailureInternal, err)
				continue
			case slot == nil || slot.ArtistID != artistID:
				result.fail(id, FailureNotFound, notFound("availability", id))
				continue
			case slot.IsBooked && status == model.AvailabilityStatusUnavailable:
				result.fail(id, FailureBooked, fmt.Errorf("availability %d is booked", id))
				continue
			}

			if err := s.Stores.Availability.UpdateStatus(ctx, id, status); err != nil {
				result.fail(id, FailureInternal, err)
				continue
			}
			result.ok(id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Info("Availability status updated",
		zap.Int64("artist_id", artistID),
		zap.String("status", string(status)),
		zap.Int("processed", len(result.Processed)),
		zap.Int("failed", len(result.Failed)))

	return result, nil
}

// DeleteSlot removes an explicit row that no booking references.
func (s *AvailabilityService) DeleteSlot(ctx context.Context, artistID, id int64) error {
	return s.withArtistLock(ctx, artistID, func() error {
		slot, err := s.Stores.Availability.GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("get availability: %w", err)
		}
		if slot == nil || slot.ArtistID != artistID {
			return notFound("availability", id)
		}
		if slot.IsBooked {
			return &StateViolationError{
				Reason:          fmt.Sprintf("availability %d is booked", id),
				AvailabilityIDs: []int64{id},
			}
		}
		if err := s.Stores.Availability.Delete(ctx, id); err != nil {
			return fmt.Errorf("delete availability: %w", err)
		}

		s.Logger.Info("Availability deleted",
			zap.Int64("artist_id", artistID),
			zap.Int64("availability_id", id))
		return nil
	})
}

// MonthlyCalendar returns the artist's materialized month. Slots inside a
// blackout are returned as UNAVAILABLE with the blackout noted.
func (s *AvailabilityService) MonthlyCalendar(ctx context.Context, artistID int64, year int, month time.Month) ([]*model.Availability, error) {
	if month < time.January || month > time.December {
		return nil, invalid("month", "must be between 1 and 12")
	}
	if year < 1970 || year > 9999 {
		return nil, invalid("year", "out of range")
	}
	if _, err := s.artist(ctx, artistID); err != nil {
		return nil, err
	}

	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, -1)

	slots, err := s.materialize(ctx, artistID, from, to)
	if err != nil {
		return nil, err
	}
	filter, err := s.blackouts(ctx, artistID)
	if err != nil {
		return nil, err
	}
	return filter.Mark(slots), nil
}
