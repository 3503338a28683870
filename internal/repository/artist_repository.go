package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/artist_scheduler/internal/model"
	"github.com/Freeeeeet/artist_scheduler/internal/repository/base"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ArtistRepository reads and seeds artist profiles.
type ArtistRepository struct {
	*base.Repository
}

// NewArtistRepository creates the repository.
func NewArtistRepository(pool *pgxpool.Pool) *ArtistRepository {
	return &ArtistRepository{Repository: base.NewRepository(pool)}
}

// Create inserts a new artist profile.
func (r *ArtistRepository) Create(ctx context.Context, artist *model.Artist) error {
	query := `
		INSERT INTO artists (name, hourly_rate, minimum_hours, weekend_multiplier, holiday_multiplier,
		                     min_advance_booking_hours, max_advance_booking_days, telegram_chat_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`

	err := r.QueryRow(
		ctx, query,
		artist.Name,
		artist.HourlyRate,
		artist.MinimumHours,
		artist.WeekendMultiplier,
		artist.HolidayMultiplier,
		artist.MinAdvanceBookingHours,
		artist.MaxAdvanceBookingDays,
		artist.TelegramChatID,
	).Scan(&artist.ID, &artist.CreatedAt)

	if err != nil {
		return fmt.Errorf("create artist: %w", err)
	}

	return nil
}

// GetByID returns nil, nil when the artist does not exist.
func (r *ArtistRepository) GetByID(ctx context.Context, id int64) (*model.Artist, error) {
	query := `
		SELECT id, name, hourly_rate, minimum_hours, weekend_multiplier, holiday_multiplier,
		       min_advance_booking_hours, max_advance_booking_days, telegram_chat_id, created_at
		FROM artists
		WHERE id = $1
	`

	var artist model.Artist
	err := r.QueryRow(ctx, query, id).Scan(
		&artist.ID,
		&artist.Name,
		&artist.HourlyRate,
		&artist.MinimumHours,
		&artist.WeekendMultiplier,
		&artist.HolidayMultiplier,
		&artist.MinAdvanceBookingHours,
		&artist.MaxAdvanceBookingDays,
		&artist.TelegramChatID,
		&artist.CreatedAt,
	)

	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get artist by id: %w", err)
	}

	return &artist, nil
}
