package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/Freeeeeet/artist_scheduler/internal/interval"
	"github.com/Freeeeeet/artist_scheduler/internal/model"
	"github.com/Freeeeeet/artist_scheduler/internal/recurrence"
	"github.com/Freeeeeet/artist_scheduler/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PatternService manages recurring patterns and their materialization.
type PatternService struct {
	*engine
}

// CreatePatternRequest describes a rule and its validity window.
type CreatePatternRequest struct {
	ArtistID  int64
	Frequency model.Frequency
	// DaysOfWeek yields one weekly pattern per day, sharing a group id.
	DaysOfWeek      []int
	DayOfMonth      *int
	WeekOfMonth     *int
	CustomOffsets   []int
	StartTime       interval.Clock
	EndTime         interval.Clock
	TimeZone        string
	PriceMultiplier decimal.Decimal
	MinimumHours    decimal.NullDecimal
	ValidFrom       time.Time
	ValidUntil      *time.Time
}

// CreatePatterns validates and stores the rule. The returned patterns share
// one group id.
func (s *PatternService) CreatePatterns(ctx context.Context, req CreatePatternRequest) ([]*model.RecurringPattern, error) {
	if req.PriceMultiplier.IsZero() {
		req.PriceMultiplier = decimal.NewFromInt(1)
	}
	if req.PriceMultiplier.IsNegative() {
		return nil, invalid("price_multiplier", "must be positive")
	}
	if req.MinimumHours.Valid && req.MinimumHours.Decimal.IsNegative() {
		return nil, invalid("minimum_hours", "must not be negative")
	}

	days := []*int{nil}
	if req.Frequency == model.FrequencyWeekly || (req.Frequency == model.FrequencyMonthly && req.WeekOfMonth != nil) {
		if len(req.DaysOfWeek) == 0 {
			return nil, invalid("days_of_week", "is required for this frequency")
		}
		days = days[:0]
		for _, d := range slices.Compact(slices.Sorted(slices.Values(req.DaysOfWeek))) {
			days = append(days, &d)
		}
		if req.Frequency == model.FrequencyMonthly && len(days) > 1 {
			return nil, invalid("days_of_week", "monthly patterns take a single day of week")
		}
	}

	validFrom := interval.Day(req.ValidFrom)
	var validUntil *time.Time
	if req.ValidUntil != nil {
		until := interval.Day(*req.ValidUntil)
		validUntil = &until
	}

	groupID := uuid.New()
	patterns := make([]*model.RecurringPattern, 0, len(days))
	for _, day := range days {
		p := &model.RecurringPattern{
			GroupID:         groupID,
			ArtistID:        req.ArtistID,
			Frequency:       req.Frequency,
			DayOfWeek:       day,
			DayOfMonth:      req.DayOfMonth,
			WeekOfMonth:     req.WeekOfMonth,
			CustomOffsets:   req.CustomOffsets,
			StartTime:       req.StartTime,
			EndTime:         req.EndTime,
			TimeZone:        req.TimeZone,
			PriceMultiplier: req.PriceMultiplier,
			MinimumHours:    req.MinimumHours,
			ValidFrom:       validFrom,
			ValidUntil:      validUntil,
			IsActive:        true,
		}
		if _, err := p.Spec(); err != nil {
			return nil, patternError(err)
		}
		patterns = append(patterns, p)
	}

	if _, err := s.artist(ctx, req.ArtistID); err != nil {
		return nil, err
	}
	if err := s.Stores.Patterns.CreateGroup(ctx, patterns); err != nil {
		return nil, fmt.Errorf("create recurring patterns: %w", err)
	}

	s.Logger.Info("Recurring pattern group created",
		zap.String("group_id", groupID.String()),
		zap.Int64("artist_id", req.ArtistID),
		zap.String("frequency", string(req.Frequency)),
		zap.Int("patterns", len(patterns)))

	return patterns, nil
}

func patternError(err error) error {
	switch {
	case errors.Is(err, interval.ErrInvalidInterval):
		return invalid("end_time", "must be after start_time")
	case errors.Is(err, recurrence.ErrInvalidWindow):
		return invalid("valid_until", "must be after valid_from")
	default:
		return invalid("rule", err.Error())
	}
}

// ListPatterns returns every pattern of the artist.
func (s *PatternService) ListPatterns(ctx context.Context, artistID int64) ([]*model.RecurringPattern, error) {
	if _, err := s.artist(ctx, artistID); err != nil {
		return nil, err
	}
	return s.Stores.Patterns.GetByArtistID(ctx, artistID)
}

func (s *PatternService) pattern(ctx context.Context, artistID, id int64) (*model.RecurringPattern, error) {
	p, err := s.Stores.Patterns.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get recurring pattern: %w", err)
	}
	if p == nil || p.ArtistID != artistID {
		return nil, notFound("recurring pattern", id)
	}
	return p, nil
}

// SetPatternActive pauses or resumes expansion. Pausing also drops the
// pattern's unbooked materialized rows so none of its occurrences stay
// bookable; booked rows are kept.
func (s *PatternService) SetPatternActive(ctx context.Context, artistID, id int64, active bool) (*model.RecurringPattern, error) {
	p, err := s.pattern(ctx, artistID, id)
	if err != nil {
		return nil, err
	}

	var pruned int64
	err = s.withArtistLock(ctx, artistID, func() error {
		pruned, err = s.Stores.Patterns.SetActive(ctx, id, active)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("set recurring pattern active: %w", err)
	}
	p.IsActive = active

	s.Logger.Info("Recurring pattern toggled",
		zap.Int64("artist_id", artistID),
		zap.Int64("pattern_id", id),
		zap.Bool("active", active),
		zap.Int64("pruned_slots", pruned))
	return p, nil
}

// DeletePattern refuses while booked rows still reference the pattern.
// Unbooked materialized rows are removed with it.
func (s *PatternService) DeletePattern(ctx context.Context, artistID, id int64) error {
	if _, err := s.pattern(ctx, artistID, id); err != nil {
		return err
	}
	return s.withArtistLock(ctx, artistID, func() error {
		ids, err := s.Stores.Availability.ListBookedIDsByPattern(ctx, id)
		if err != nil {
			return fmt.Errorf("list dependent availability: %w", err)
		}
		if len(ids) > 0 {
			return &StateViolationError{
				Reason:          fmt.Sprintf("recurring pattern %d has booked availability", id),
				AvailabilityIDs: ids,
			}
		}
		pruned, err := s.Stores.Patterns.Delete(ctx, id)
		if err != nil {
			return fmt.Errorf("delete recurring pattern: %w", err)
		}
		s.Logger.Info("Recurring pattern deleted",
			zap.Int64("artist_id", artistID),
			zap.Int64("pattern_id", id),
			zap.Int64("pruned_slots", pruned))
		return nil
	})
}

// MaterializeAll persists occurrences of every active pattern for the next
// weeksAhead weeks. Starts already taken and blacked-out dates are skipped.
// Returns the number of rows created.
func (s *PatternService) MaterializeAll(ctx context.Context, weeksAhead int) (int, error) {
	patterns, err := s.Stores.Patterns.GetAllActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("get all active recurring patterns: %w", err)
	}

	total := 0
	for _, p := range patterns {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		count, err := s.materializePattern(ctx, p, weeksAhead)
		if err != nil {
			s.Logger.Error("Failed to materialize recurring pattern",
				zap.Error(err),
				zap.Int64("pattern_id", p.ID))
			continue
		}
		total += count
	}

	s.Logger.Info("Materialized recurring patterns",
		zap.Int("total_patterns", len(patterns)),
		zap.Int("total_slots_created", total))

	return total, nil
}

func (s *PatternService) materializePattern(ctx context.Context, p *model.RecurringPattern, weeksAhead int) (int, error) {
	spec, err := p.Spec()
	if err != nil {
		return 0, err
	}
	now := s.Now()
	today := interval.Day(now)
	seq, err := recurrence.Expand(spec, today, today.AddDate(0, 0, weeksAhead*7))
	if err != nil {
		return 0, err
	}
	filter, err := s.blackouts(ctx, p.ArtistID)
	if err != nil {
		return 0, err
	}

	count := 0
	err = s.withArtistLock(ctx, p.ArtistID, func() error {
		// the pattern may have been paused or deleted since the active list was read
		current, err := s.Stores.Patterns.GetByID(ctx, p.ID)
		if err != nil {
			return fmt.Errorf("get recurring pattern: %w", err)
		}
		if current == nil || !current.IsActive {
			return nil
		}

		for occ := range seq {
			if occ.Interval.Start.Before(now) {
				continue
			}
			if _, blocked := filter.Blocks(occ.Interval); blocked {
				continue
			}
			existing, err := s.Stores.Availability.GetByStart(ctx, p.ArtistID, occ.Interval.Start)
			if err != nil {
				return fmt.Errorf("get availability: %w", err)
			}
			if existing != nil {
				continue
			}

			err = s.Stores.Availability.Create(ctx, fromOccurrence(p.ArtistID, p, occ))
			if errors.Is(err, repository.ErrDuplicate) {
				continue
			}
			if err != nil {
				return fmt.Errorf("create availability: %w", err)
			}
			count++
		}
		return nil
	})
	return count, err
}
