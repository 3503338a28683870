package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/artist_scheduler/internal/model"
	"github.com/Freeeeeet/artist_scheduler/internal/repository/base"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const availabilityColumns = `
	id, artist_id, date, start_time, end_time, status, is_booked, booking_id,
	price_multiplier, minimum_hours, buffer_before_minutes, buffer_after_minutes,
	notes, requirements, pattern_id, template_id, batch_id, created_at, updated_at`

// AvailabilityRepository stores availability rows.
type AvailabilityRepository struct {
	*base.Repository
}

// NewAvailabilityRepository creates the repository.
func NewAvailabilityRepository(pool *pgxpool.Pool) *AvailabilityRepository {
	return &AvailabilityRepository{Repository: base.NewRepository(pool)}
}

func scanAvailability(row pgx.Row) (*model.Availability, error) {
	var a model.Availability
	err := row.Scan(
		&a.ID,
		&a.ArtistID,
		&a.Date,
		&a.StartTime,
		&a.EndTime,
		&a.Status,
		&a.IsBooked,
		&a.BookingID,
		&a.PriceMultiplier,
		&a.MinimumHours,
		&a.BufferBeforeMinutes,
		&a.BufferAfterMinutes,
		&a.Notes,
		&a.Requirements,
		&a.PatternID,
		&a.TemplateID,
		&a.BatchID,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func collectAvailability(rows pgx.Rows) ([]*model.Availability, error) {
	defer rows.Close()

	var out []*model.Availability
	for rows.Next() {
		a, err := scanAvailability(rows)
		if err != nil {
			return nil, fmt.Errorf("scan availability: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Create inserts a row. A second row for the same artist and start time
// fails with ErrDuplicate.
func (r *AvailabilityRepository) Create(ctx context.Context, a *model.Availability) error {
	query := `
		INSERT INTO availability (artist_id, date, start_time, end_time, status, is_booked, booking_id,
		                          price_multiplier, minimum_hours, buffer_before_minutes, buffer_after_minutes,
		                          notes, requirements, pattern_id, template_id, batch_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id, created_at, updated_at
	`

	err := r.QueryRow(
		ctx, query,
		a.ArtistID,
		a.Date,
		a.StartTime,
		a.EndTime,
		a.Status,
		a.IsBooked,
		a.BookingID,
		a.PriceMultiplier,
		a.MinimumHours,
		a.BufferBeforeMinutes,
		a.BufferAfterMinutes,
		a.Notes,
		a.Requirements,
		a.PatternID,
		a.TemplateID,
		a.BatchID,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)

	if err != nil {
		if base.IsUniqueViolation(err) {
			return fmt.Errorf("create availability at %s: %w", a.StartTime.Format(time.DateTime), ErrDuplicate)
		}
		return fmt.Errorf("create availability: %w", err)
	}

	return nil
}

// GetByID returns the row or nil.
func (r *AvailabilityRepository) GetByID(ctx context.Context, id int64) (*model.Availability, error) {
	query := `SELECT ` + availabilityColumns + ` FROM availability WHERE id = $1`

	a, err := scanAvailability(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get availability by id: %w", err)
	}
	return a, nil
}

// GetByStart finds the artist's row starting exactly at start.
func (r *AvailabilityRepository) GetByStart(ctx context.Context, artistID int64, start time.Time) (*model.Availability, error) {
	query := `SELECT ` + availabilityColumns + ` FROM availability WHERE artist_id = $1 AND start_time = $2`

	a, err := scanAvailability(r.QueryRow(ctx, query, artistID, start))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get availability by start: %w", err)
	}
	return a, nil
}

// GetByArtistRange returns rows whose date lies in [from, to], ordered by start time.
func (r *AvailabilityRepository) GetByArtistRange(ctx context.Context, artistID int64, from, to time.Time) ([]*model.Availability, error) {
	query := `
		SELECT ` + availabilityColumns + `
		FROM availability
		WHERE artist_id = $1
		  AND date >= $2
		  AND date <= $3
		ORDER BY start_time
	`

	rows, err := r.Query(ctx, query, artistID, from, to)
	if err != nil {
		return nil, fmt.Errorf("get availability by range: %w", err)
	}

	slots, err := collectAvailability(rows)
	if err != nil {
		return nil, fmt.Errorf("get availability by range: %w", err)
	}
	return slots, nil
}

// Update rewrites the shape of an unbooked row. Booked rows are left
// untouched and reported as ErrAlreadyBooked.
func (r *AvailabilityRepository) Update(ctx context.Context, a *model.Availability) error {
	query := `
		UPDATE availability
		SET end_time = $2, status = $3, price_multiplier = $4, minimum_hours = $5,
		    buffer_before_minutes = $6, buffer_after_minutes = $7, notes = $8, requirements = $9,
		    template_id = $10, batch_id = $11, updated_at = now()
		WHERE id = $1 AND is_booked = false
		RETURNING updated_at
	`

	err := r.QueryRow(
		ctx, query,
		a.ID,
		a.EndTime,
		a.Status,
		a.PriceMultiplier,
		a.MinimumHours,
		a.BufferBeforeMinutes,
		a.BufferAfterMinutes,
		a.Notes,
		a.Requirements,
		a.TemplateID,
		a.BatchID,
	).Scan(&a.UpdatedAt)

	if err != nil {
		if base.IsNotFound(err) {
			return fmt.Errorf("update availability %d: %w", a.ID, ErrAlreadyBooked)
		}
		return fmt.Errorf("update availability: %w", err)
	}

	return nil
}

// UpdateStatus sets the artist-facing status.
func (r *AvailabilityRepository) UpdateStatus(ctx context.Context, id int64, status model.AvailabilityStatus) error {
	query := `UPDATE availability SET status = $2, updated_at = now() WHERE id = $1`

	affected, err := r.ExecAffected(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("update availability status: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("update availability status %d: %w", id, ErrNotFound)
	}
	return nil
}

// Book claims the row for bookingID. The update only matches an AVAILABLE,
// unbooked row, so concurrent reservations cannot both succeed.
func (r *AvailabilityRepository) Book(ctx context.Context, id, bookingID int64) error {
	query := `
		UPDATE availability
		SET is_booked = true, booking_id = $2, updated_at = now()
		WHERE id = $1 AND is_booked = false AND status = 'AVAILABLE'
	`

	affected, err := r.ExecAffected(ctx, query, id, bookingID)
	if err != nil {
		if base.IsUniqueViolation(err) {
			return fmt.Errorf("book availability %d: %w", id, ErrAlreadyBooked)
		}
		return fmt.Errorf("book availability: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("book availability %d: %w", id, ErrAlreadyBooked)
	}
	return nil
}

// ReleaseByBooking frees every row claimed by bookingID.
func (r *AvailabilityRepository) ReleaseByBooking(ctx context.Context, artistID, bookingID int64) (int64, error) {
	query := `
		UPDATE availability
		SET is_booked = false, booking_id = NULL, updated_at = now()
		WHERE artist_id = $1 AND booking_id = $2
	`

	affected, err := r.ExecAffected(ctx, query, artistID, bookingID)
	if err != nil {
		return 0, fmt.Errorf("release availability: %w", err)
	}
	return affected, nil
}

// ListBookedIDsByPattern returns ids of booked rows materialized from the pattern.
func (r *AvailabilityRepository) ListBookedIDsByPattern(ctx context.Context, patternID int64) ([]int64, error) {
	rows, err := r.Query(ctx, `SELECT id FROM availability WHERE pattern_id = $1 AND is_booked = true ORDER BY id`, patternID)
	if err != nil {
		return nil, fmt.Errorf("list availability by pattern: %w", err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("list availability by pattern: %w", err)
	}
	return ids, nil
}

// Delete removes an unbooked row.
func (r *AvailabilityRepository) Delete(ctx context.Context, id int64) error {
	affected, err := r.ExecAffected(ctx, `DELETE FROM availability WHERE id = $1 AND is_booked = false`, id)
	if err != nil {
		return fmt.Errorf("delete availability: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("delete availability %d: %w", id, ErrAlreadyBooked)
	}
	return nil
}
