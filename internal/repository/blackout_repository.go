package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/artist_scheduler/internal/model"
	"github.com/Freeeeeet/artist_scheduler/internal/repository/base"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// BlackoutRepository stores blackout ranges.
type BlackoutRepository struct {
	*base.Repository
}

// NewBlackoutRepository creates the repository.
func NewBlackoutRepository(pool *pgxpool.Pool) *BlackoutRepository {
	return &BlackoutRepository{Repository: base.NewRepository(pool)}
}

// Create inserts the blackout and closes the open availability it covers in
// one transaction. Returns the number of rows closed.
func (r *BlackoutRepository) Create(ctx context.Context, b *model.BlackoutDate, notes string) (int64, error) {
	insert := `
		INSERT INTO blackout_dates (artist_id, start_date, end_date, title, type, recurrence)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	closeSlots := `
		UPDATE availability
		SET status = 'UNAVAILABLE', notes = $4, updated_at = now()
		WHERE artist_id = $1
		  AND date >= $2
		  AND date <= $3
		  AND is_booked = false
		  AND status = 'AVAILABLE'
	`

	var flipped int64
	err := r.InTx(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, insert, b.ArtistID, b.StartDate, b.EndDate, b.Title, b.Type, b.Recurrence).
			Scan(&b.ID, &b.CreatedAt)
		if err != nil {
			return fmt.Errorf("create blackout: %w", err)
		}

		tag, err := tx.Exec(ctx, closeSlots, b.ArtistID, b.StartDate, b.EndDate, notes)
		if err != nil {
			return fmt.Errorf("mark availability unavailable: %w", err)
		}
		flipped = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, err
	}
	return flipped, nil
}

// GetByID returns the blackout or nil.
func (r *BlackoutRepository) GetByID(ctx context.Context, id int64) (*model.BlackoutDate, error) {
	query := `
		SELECT id, artist_id, start_date, end_date, title, type, recurrence, created_at
		FROM blackout_dates
		WHERE id = $1
	`

	var b model.BlackoutDate
	err := r.QueryRow(ctx, query, id).Scan(
		&b.ID, &b.ArtistID, &b.StartDate, &b.EndDate, &b.Title, &b.Type, &b.Recurrence, &b.CreatedAt,
	)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get blackout by id: %w", err)
	}
	return &b, nil
}

// GetByArtistID returns every blackout of the artist, including past ones,
// since yearly entries keep recurring.
func (r *BlackoutRepository) GetByArtistID(ctx context.Context, artistID int64) ([]*model.BlackoutDate, error) {
	query := `
		SELECT id, artist_id, start_date, end_date, title, type, recurrence, created_at
		FROM blackout_dates
		WHERE artist_id = $1
		ORDER BY start_date, id
	`

	rows, err := r.Query(ctx, query, artistID)
	if err != nil {
		return nil, fmt.Errorf("get blackouts by artist: %w", err)
	}
	defer rows.Close()

	var blackouts []*model.BlackoutDate
	for rows.Next() {
		var b model.BlackoutDate
		err := rows.Scan(&b.ID, &b.ArtistID, &b.StartDate, &b.EndDate, &b.Title, &b.Type, &b.Recurrence, &b.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan blackout: %w", err)
		}
		blackouts = append(blackouts, &b)
	}

	return blackouts, rows.Err()
}

// Delete removes the blackout. Rows it closed are left as they are.
func (r *BlackoutRepository) Delete(ctx context.Context, id int64) error {
	affected, err := r.ExecAffected(ctx, `DELETE FROM blackout_dates WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete blackout: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("delete blackout %d: %w", id, ErrNotFound)
	}
	return nil
}
