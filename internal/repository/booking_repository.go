package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/artist_scheduler/internal/model"
	"github.com/Freeeeeet/artist_scheduler/internal/repository/base"
	"github.com/jackc/pgx/v5/pgxpool"
)

// BookingRepository reads the bookings table owned by the booking workflow.
// The availability engine never writes to it.
type BookingRepository struct {
	*base.Repository
}

// NewBookingRepository creates the read-only repository.
func NewBookingRepository(pool *pgxpool.Pool) *BookingRepository {
	return &BookingRepository{Repository: base.NewRepository(pool)}
}

// GetByID returns the booking or nil.
func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*model.Booking, error) {
	query := `
		SELECT id, artist_id, event_date, start_time, end_time, status
		FROM bookings
		WHERE id = $1
	`

	var booking model.Booking
	err := r.QueryRow(ctx, query, id).Scan(
		&booking.ID,
		&booking.ArtistID,
		&booking.EventDate,
		&booking.StartTime,
		&booking.EndTime,
		&booking.Status,
	)

	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get booking by id: %w", err)
	}

	return &booking, nil
}

// ListOverlapping returns the artist's bookings in one of statuses whose
// [start, end) overlaps [from, to).
func (r *BookingRepository) ListOverlapping(ctx context.Context, artistID int64, from, to time.Time, statuses []model.BookingStatus) ([]*model.Booking, error) {
	query := `
		SELECT id, artist_id, event_date, start_time, end_time, status
		FROM bookings
		WHERE artist_id = $1
		  AND start_time < $3
		  AND end_time > $2
		  AND status = ANY($4)
		ORDER BY start_time
	`

	names := make([]string, len(statuses))
	for i, s := range statuses {
		names[i] = string(s)
	}

	rows, err := r.Query(ctx, query, artistID, from, to, names)
	if err != nil {
		return nil, fmt.Errorf("list overlapping bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*model.Booking
	for rows.Next() {
		var booking model.Booking
		err := rows.Scan(
			&booking.ID,
			&booking.ArtistID,
			&booking.EventDate,
			&booking.StartTime,
			&booking.EndTime,
			&booking.Status,
		)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, &booking)
	}

	return bookings, rows.Err()
}
