package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/artist_scheduler/internal/model"
	"github.com/Freeeeeet/artist_scheduler/internal/repository/base"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const templateColumns = `
	id, artist_id, name, duration_minutes, buffer_before_minutes, buffer_after_minutes,
	price_multiplier, min_advance_notice_hours, is_default, is_active, created_at, updated_at`

// TemplateRepository stores reusable slot templates.
type TemplateRepository struct {
	*base.Repository
}

// NewTemplateRepository creates the repository.
func NewTemplateRepository(pool *pgxpool.Pool) *TemplateRepository {
	return &TemplateRepository{Repository: base.NewRepository(pool)}
}

func scanTemplate(row pgx.Row) (*model.TimeSlotTemplate, error) {
	var t model.TimeSlotTemplate
	err := row.Scan(
		&t.ID,
		&t.ArtistID,
		&t.Name,
		&t.DurationMinutes,
		&t.BufferBeforeMinutes,
		&t.BufferAfterMinutes,
		&t.PriceMultiplier,
		&t.MinAdvanceNoticeHours,
		&t.IsDefault,
		&t.IsActive,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Create inserts the template. A default template clears the flag on the
// artist's other templates in the same transaction.
func (r *TemplateRepository) Create(ctx context.Context, t *model.TimeSlotTemplate) error {
	query := `
		INSERT INTO time_slot_templates (artist_id, name, duration_minutes, buffer_before_minutes, buffer_after_minutes,
		                                 price_multiplier, min_advance_notice_hours, is_default, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`

	return r.InTx(ctx, func(tx pgx.Tx) error {
		if t.IsDefault {
			_, err := tx.Exec(ctx,
				`UPDATE time_slot_templates SET is_default = false, updated_at = now() WHERE artist_id = $1 AND is_default = true`,
				t.ArtistID)
			if err != nil {
				return fmt.Errorf("clear default template: %w", err)
			}
		}

		err := tx.QueryRow(
			ctx, query,
			t.ArtistID,
			t.Name,
			t.DurationMinutes,
			t.BufferBeforeMinutes,
			t.BufferAfterMinutes,
			t.PriceMultiplier,
			t.MinAdvanceNoticeHours,
			t.IsDefault,
			t.IsActive,
		).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
		if err != nil {
			if base.IsUniqueViolation(err) {
				return fmt.Errorf("create template %q: %w", t.Name, ErrDuplicate)
			}
			return fmt.Errorf("create template: %w", err)
		}
		return nil
	})
}

// GetByID returns the template or nil.
func (r *TemplateRepository) GetByID(ctx context.Context, id int64) (*model.TimeSlotTemplate, error) {
	query := `SELECT ` + templateColumns + ` FROM time_slot_templates WHERE id = $1`

	t, err := scanTemplate(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get template by id: %w", err)
	}
	return t, nil
}

// GetByArtistID returns the artist's templates, default first.
func (r *TemplateRepository) GetByArtistID(ctx context.Context, artistID int64) ([]*model.TimeSlotTemplate, error) {
	query := `SELECT ` + templateColumns + ` FROM time_slot_templates WHERE artist_id = $1 ORDER BY is_default DESC, name`

	rows, err := r.Query(ctx, query, artistID)
	if err != nil {
		return nil, fmt.Errorf("get templates by artist: %w", err)
	}
	defer rows.Close()

	var templates []*model.TimeSlotTemplate
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		templates = append(templates, t)
	}

	return templates, rows.Err()
}

// Delete removes the template. Rows created from it keep their data.
func (r *TemplateRepository) Delete(ctx context.Context, id int64) error {
	affected, err := r.ExecAffected(ctx, `DELETE FROM time_slot_templates WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("delete template %d: %w", id, ErrNotFound)
	}
	return nil
}
