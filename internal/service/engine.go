package service

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/Freeeeeet/artist_scheduler/internal/blackout"
	"github.com/Freeeeeet/artist_scheduler/internal/events"
	"github.com/Freeeeeet/artist_scheduler/internal/interval"
	"github.com/Freeeeeet/artist_scheduler/internal/lock"
	"github.com/Freeeeeet/artist_scheduler/internal/model"
	"github.com/Freeeeeet/artist_scheduler/internal/notify"
	"github.com/Freeeeeet/artist_scheduler/internal/pricing"
	"github.com/Freeeeeet/artist_scheduler/internal/recurrence"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Dependencies are shared by every service built from one New call.
// Nil collaborators fall back to in-process defaults.
type Dependencies struct {
	Stores    Stores
	Pricing   *pricing.Calculator
	Locker    lock.Locker
	Publisher events.Publisher
	Notifier  notify.Notifier
	// Now returns the current local wall-clock time.
	Now    func() time.Time
	Logger *zap.Logger
}

func (d Dependencies) withDefaults() Dependencies {
	if d.Pricing == nil {
		d.Pricing = pricing.NewCalculator(nil)
	}
	if d.Locker == nil {
		d.Locker = lock.NewKeyedMutex()
	}
	if d.Publisher == nil {
		d.Publisher = events.Noop{}
	}
	if d.Notifier == nil {
		d.Notifier = notify.Noop{}
	}
	if d.Now == nil {
		d.Now = func() time.Time { return interval.WallClock(time.Now(), time.Local) }
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	return d
}

// Services bundles the engine's entry points.
type Services struct {
	Artists      *ArtistService
	Availability *AvailabilityService
	Templates    *TemplateService
	Blackouts    *BlackoutService
	Patterns     *PatternService
}

// New builds the services over shared dependencies.
func New(deps Dependencies) *Services {
	e := &engine{Dependencies: deps.withDefaults()}
	return &Services{
		Artists:      &ArtistService{engine: e},
		Availability: &AvailabilityService{engine: e},
		Templates:    &TemplateService{engine: e},
		Blackouts:    &BlackoutService{engine: e},
		Patterns:     &PatternService{engine: e},
	}
}

// engine carries the helpers the services share.
type engine struct {
	Dependencies
}

func (e *engine) artist(ctx context.Context, id int64) (*model.Artist, error) {
	artist, err := e.Stores.Artists.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get artist: %w", err)
	}
	if artist == nil {
		return nil, notFound("artist", id)
	}
	return artist, nil
}

// withArtistLock serializes mutations of one artist's availability.
func (e *engine) withArtistLock(ctx context.Context, artistID int64, fn func() error) error {
	unlock, err := e.Locker.Lock(ctx, lock.ArtistKey(artistID))
	if err != nil {
		return fmt.Errorf("acquire artist lock: %w", err)
	}
	defer unlock()
	return fn()
}

func (e *engine) blackouts(ctx context.Context, artistID int64) (*blackout.Filter, error) {
	list, err := e.Stores.Blackouts.GetByArtistID(ctx, artistID)
	if err != nil {
		return nil, fmt.Errorf("get blackouts: %w", err)
	}
	return blackout.NewFilter(list), nil
}

// materialize returns the artist's availability dated within [from, to]:
// persisted rows merged with occurrences of active patterns. A persisted row
// wins over an occurrence with the same start, and explicit UNAVAILABLE rows
// suppress occurrences they overlap. Occurrences carry ID 0.
func (e *engine) materialize(ctx context.Context, artistID int64, from, to time.Time) ([]*model.Availability, error) {
	from, to = interval.Day(from), interval.Day(to)

	rows, err := e.Stores.Availability.GetByArtistRange(ctx, artistID, from, to)
	if err != nil {
		return nil, fmt.Errorf("get availability: %w", err)
	}
	patterns, err := e.Stores.Patterns.GetActiveByArtistID(ctx, artistID)
	if err != nil {
		return nil, fmt.Errorf("get recurring patterns: %w", err)
	}

	taken := make(map[int64]struct{}, len(rows))
	var blocked []interval.Interval
	for _, row := range rows {
		taken[row.StartTime.Unix()] = struct{}{}
		if row.Status == model.AvailabilityStatusUnavailable {
			blocked = append(blocked, row.Interval())
		}
	}

	slots := rows
	for _, p := range patterns {
		spec, err := p.Spec()
		if err != nil {
			e.Logger.Warn("Skipping invalid recurring pattern",
				zap.Int64("pattern_id", p.ID),
				zap.Error(err))
			continue
		}
		seq, err := recurrence.Expand(spec, from, to)
		if err != nil {
			return nil, fmt.Errorf("expand pattern %d: %w", p.ID, err)
		}
		for occ := range seq {
			key := occ.Interval.Start.Unix()
			if _, ok := taken[key]; ok {
				continue
			}
			if slices.ContainsFunc(blocked, occ.Interval.Overlaps) {
				continue
			}
			taken[key] = struct{}{}
			slots = append(slots, fromOccurrence(artistID, p, occ))
		}
	}

	slices.SortStableFunc(slots, func(a, b *model.Availability) int {
		return a.StartTime.Compare(b.StartTime)
	})
	return slots, nil
}

func fromOccurrence(artistID int64, p *model.RecurringPattern, occ recurrence.Occurrence) *model.Availability {
	patternID := p.ID
	return &model.Availability{
		ArtistID:        artistID,
		Date:            occ.Date,
		StartTime:       occ.Interval.Start,
		EndTime:         occ.Interval.End,
		Status:          model.AvailabilityStatusAvailable,
		PriceMultiplier: p.PriceMultiplier,
		MinimumHours:    p.MinimumHours,
		PatternID:       &patternID,
	}
}

// quote prices durationMinutes inside slot. The slot's minimum-hours
// override replaces the artist floor.
func (e *engine) quote(artist *model.Artist, slot *model.Availability, durationMinutes int, date time.Time) pricing.Quote {
	minimum := artist.MinimumHours
	multiplier := decimal.Zero
	if slot != nil {
		if slot.MinimumHours.Valid {
			minimum = slot.MinimumHours.Decimal
		}
		multiplier = slot.PriceMultiplier
	}
	return e.Pricing.Quote(pricing.Input{
		HourlyRate:        artist.HourlyRate,
		DurationMinutes:   durationMinutes,
		MinimumHours:      minimum,
		SlotMultiplier:    multiplier,
		WeekendMultiplier: artist.WeekendMultiplier,
		HolidayMultiplier: artist.HolidayMultiplier,
		Date:              date,
	})
}

// publish never fails the caller; delivery problems are logged.
func (e *engine) publish(ctx context.Context, eventType string, artistID int64, payload any) {
	ev := events.Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		ArtistID:   artistID,
		OccurredAt: e.Now(),
		Payload:    payload,
	}
	if err := e.Publisher.Publish(ctx, ev); err != nil {
		e.Logger.Warn("Failed to publish event",
			zap.String("event_type", eventType),
			zap.Int64("artist_id", artistID),
			zap.Error(err))
	}
}

func (e *engine) notifyArtist(ctx context.Context, artist *model.Artist, text string) {
	if artist == nil || artist.TelegramChatID == nil {
		return
	}
	if err := e.Notifier.Notify(ctx, *artist.TelegramChatID, text); err != nil {
		e.Logger.Warn("Failed to notify artist",
			zap.Int64("artist_id", artist.ID),
			zap.Error(err))
	}
}

func hours(n int) time.Duration {
	return time.Duration(n) * time.Hour
}
