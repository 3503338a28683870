package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Freeeeeet/artist_scheduler/internal/model"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ArtistService manages artist profiles.
type ArtistService struct {
	*engine
}

// CreateArtist registers a pricing and booking-window profile.
func (s *ArtistService) CreateArtist(ctx context.Context, artist *model.Artist) (*model.Artist, error) {
	artist.Name = strings.TrimSpace(artist.Name)

	var verr ValidationError
	if artist.Name == "" {
		verr.Add("name", "is required")
	}
	if !artist.HourlyRate.IsPositive() {
		verr.Add("hourly_rate", "must be positive")
	}
	if artist.MinimumHours.IsNegative() {
		verr.Add("minimum_hours", "must not be negative")
	}
	for field, m := range map[string]*decimal.Decimal{
		"weekend_multiplier": &artist.WeekendMultiplier,
		"holiday_multiplier": &artist.HolidayMultiplier,
	} {
		if m.IsZero() {
			*m = decimal.NewFromInt(1)
		}
		if m.IsNegative() {
			verr.Add(field, "must be positive")
		}
	}
	if artist.MinAdvanceBookingHours < 0 {
		verr.Add("min_advance_booking_hours", "must not be negative")
	}
	if artist.MaxAdvanceBookingDays < 0 {
		verr.Add("max_advance_booking_days", "must not be negative")
	}
	if err := verr.Err(); err != nil {
		return nil, err
	}

	if err := s.Stores.Artists.Create(ctx, artist); err != nil {
		return nil, fmt.Errorf("create artist: %w", err)
	}

	s.Logger.Info("Artist created",
		zap.Int64("artist_id", artist.ID),
		zap.String("name", artist.Name))

	return artist, nil
}

// GetArtist returns the profile or ErrNotFound.
func (s *ArtistService) GetArtist(ctx context.Context, id int64) (*model.Artist, error) {
	return s.artist(ctx, id)
}
