package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/artist_scheduler/internal/model"
	"github.com/Freeeeeet/artist_scheduler/internal/repository/base"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const patternColumns = `
	id, group_id, artist_id, frequency, day_of_week, day_of_month, week_of_month, custom_offsets,
	start_minute, end_minute, time_zone, price_multiplier, minimum_hours, valid_from, valid_until,
	is_active, created_at, updated_at`

// RecurringPatternRepository stores recurring availability rules.
type RecurringPatternRepository struct {
	*base.Repository
	logger *zap.Logger
}

// NewRecurringPatternRepository creates the repository.
func NewRecurringPatternRepository(pool *pgxpool.Pool, logger *zap.Logger) *RecurringPatternRepository {
	return &RecurringPatternRepository{
		Repository: base.NewRepository(pool),
		logger:     logger,
	}
}

func scanPattern(row pgx.Row) (*model.RecurringPattern, error) {
	var p model.RecurringPattern
	err := row.Scan(
		&p.ID,
		&p.GroupID,
		&p.ArtistID,
		&p.Frequency,
		&p.DayOfWeek,
		&p.DayOfMonth,
		&p.WeekOfMonth,
		&p.CustomOffsets,
		&p.StartTime,
		&p.EndTime,
		&p.TimeZone,
		&p.PriceMultiplier,
		&p.MinimumHours,
		&p.ValidFrom,
		&p.ValidUntil,
		&p.IsActive,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *RecurringPatternRepository) list(ctx context.Context, op, where string, args ...any) ([]*model.RecurringPattern, error) {
	query := `SELECT ` + patternColumns + ` FROM recurring_patterns ` + where + ` ORDER BY artist_id, id`

	rows, err := r.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var patterns []*model.RecurringPattern
	for rows.Next() {
		p, err := scanPattern(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recurring pattern: %w", err)
		}
		patterns = append(patterns, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	r.logger.Debug("loaded recurring patterns", zap.String("op", op), zap.Int("count", len(patterns)))
	return patterns, nil
}

// CreateGroup inserts patterns that share a group id in one transaction.
func (r *RecurringPatternRepository) CreateGroup(ctx context.Context, patterns []*model.RecurringPattern) error {
	query := `
		INSERT INTO recurring_patterns (group_id, artist_id, frequency, day_of_week, day_of_month, week_of_month,
		                                custom_offsets, start_minute, end_minute, time_zone, price_multiplier,
		                                minimum_hours, valid_from, valid_until, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id, created_at, updated_at
	`

	return r.InTx(ctx, func(tx pgx.Tx) error {
		for _, p := range patterns {
			err := tx.QueryRow(
				ctx, query,
				p.GroupID,
				p.ArtistID,
				p.Frequency,
				p.DayOfWeek,
				p.DayOfMonth,
				p.WeekOfMonth,
				p.CustomOffsets,
				p.StartTime,
				p.EndTime,
				p.TimeZone,
				p.PriceMultiplier,
				p.MinimumHours,
				p.ValidFrom,
				p.ValidUntil,
				p.IsActive,
			).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
			if err != nil {
				return fmt.Errorf("create recurring pattern: %w", err)
			}
		}
		return nil
	})
}

// GetByID returns the pattern or nil.
func (r *RecurringPatternRepository) GetByID(ctx context.Context, id int64) (*model.RecurringPattern, error) {
	query := `SELECT ` + patternColumns + ` FROM recurring_patterns WHERE id = $1`

	p, err := scanPattern(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get recurring pattern by id: %w", err)
	}
	return p, nil
}

// GetByArtistID returns every pattern of the artist.
func (r *RecurringPatternRepository) GetByArtistID(ctx context.Context, artistID int64) ([]*model.RecurringPattern, error) {
	return r.list(ctx, "get recurring patterns by artist", `WHERE artist_id = $1`, artistID)
}

// GetActiveByArtistID returns the artist's active patterns.
func (r *RecurringPatternRepository) GetActiveByArtistID(ctx context.Context, artistID int64) ([]*model.RecurringPattern, error) {
	return r.list(ctx, "get active recurring patterns by artist", `WHERE artist_id = $1 AND is_active = true`, artistID)
}

// GetAllActive is used by the background materializer.
func (r *RecurringPatternRepository) GetAllActive(ctx context.Context) ([]*model.RecurringPattern, error) {
	return r.list(ctx, "get all active recurring patterns", `WHERE is_active = true`)
}

// SetActive toggles the pattern. Deactivating also removes its unbooked
// materialized rows; the number removed is returned.
func (r *RecurringPatternRepository) SetActive(ctx context.Context, id int64, active bool) (int64, error) {
	query := `UPDATE recurring_patterns SET is_active = $2, updated_at = now() WHERE id = $1`

	var pruned int64
	err := r.InTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, query, id, active)
		if err != nil {
			return fmt.Errorf("set recurring pattern active: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("set recurring pattern active %d: %w", id, ErrNotFound)
		}
		if active {
			return nil
		}
		pruned, err = deleteUnbookedOccurrences(ctx, tx, id)
		return err
	})
	if err != nil {
		return 0, err
	}
	r.logger.Debug("updated recurring pattern active flag",
		zap.Int64("pattern_id", id),
		zap.Bool("active", active),
		zap.Int64("pruned_rows", pruned))
	return pruned, nil
}

// Delete removes the pattern and its unbooked materialized rows. Booked rows
// keep the foreign key and make the delete fail.
func (r *RecurringPatternRepository) Delete(ctx context.Context, id int64) (int64, error) {
	var pruned int64
	err := r.InTx(ctx, func(tx pgx.Tx) error {
		var err error
		pruned, err = deleteUnbookedOccurrences(ctx, tx, id)
		if err != nil {
			return err
		}

		tag, err := tx.Exec(ctx, `DELETE FROM recurring_patterns WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete recurring pattern: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("delete recurring pattern %d: %w", id, ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return pruned, nil
}

func deleteUnbookedOccurrences(ctx context.Context, tx pgx.Tx, patternID int64) (int64, error) {
	tag, err := tx.Exec(ctx, `DELETE FROM availability WHERE pattern_id = $1 AND is_booked = false`, patternID)
	if err != nil {
		return 0, fmt.Errorf("delete materialized availability: %w", err)
	}
	return tag.RowsAffected(), nil
}
