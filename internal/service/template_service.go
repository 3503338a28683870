package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/Freeeeeet/artist_scheduler/internal/events"
	"github.com/Freeeeeet/artist_scheduler/internal/interval"
	"github.com/Freeeeeet/artist_scheduler/internal/model"
	"github.com/Freeeeeet/artist_scheduler/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const maxTemplateDates = 366

// TemplateService manages templates and applies them to dates.
type TemplateService struct {
	*engine
}

// CreateTemplate stores a reusable slot shape. Marking it default clears the
// flag on the artist's other templates.
func (s *TemplateService) CreateTemplate(ctx context.Context, t *model.TimeSlotTemplate) (*model.TimeSlotTemplate, error) {
	t.Name = strings.TrimSpace(t.Name)
	if t.PriceMultiplier.IsZero() {
		t.PriceMultiplier = decimal.NewFromInt(1)
	}

	var verr ValidationError
	if t.Name == "" {
		verr.Add("name", "is required")
	}
	if t.DurationMinutes <= 0 || t.DurationMinutes > maxDurationMinutes {
		verr.Add("duration_minutes", fmt.Sprintf("must be between 1 and %d", maxDurationMinutes))
	}
	if t.BufferBeforeMinutes < 0 || t.BufferAfterMinutes < 0 {
		verr.Add("buffer_minutes", "must not be negative")
	}
	if t.PriceMultiplier.IsNegative() {
		verr.Add("price_multiplier", "must be positive")
	}
	if t.MinAdvanceNoticeHours < 0 {
		verr.Add("min_advance_notice_hours", "must not be negative")
	}
	if err := verr.Err(); err != nil {
		return nil, err
	}

	if _, err := s.artist(ctx, t.ArtistID); err != nil {
		return nil, err
	}

	err := s.Stores.Templates.Create(ctx, t)
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, fmt.Errorf("template %q: %w", t.Name, ErrAlreadyExists)
	}
	if err != nil {
		return nil, fmt.Errorf("create template: %w", err)
	}

	s.Logger.Info("Template created",
		zap.Int64("artist_id", t.ArtistID),
		zap.Int64("template_id", t.ID),
		zap.String("name", t.Name),
		zap.Bool("is_default", t.IsDefault))

	return t, nil
}

// ListTemplates returns the artist's templates, default first.
func (s *TemplateService) ListTemplates(ctx context.Context, artistID int64) ([]*model.TimeSlotTemplate, error) {
	if _, err := s.artist(ctx, artistID); err != nil {
		return nil, err
	}
	return s.Stores.Templates.GetByArtistID(ctx, artistID)
}

func (s *TemplateService) template(ctx context.Context, artistID, id int64) (*model.TimeSlotTemplate, error) {
	t, err := s.Stores.Templates.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get template: %w", err)
	}
	if t == nil || t.ArtistID != artistID {
		return nil, notFound("template", id)
	}
	return t, nil
}

// DeleteTemplate leaves the rows it produced in place.
func (s *TemplateService) DeleteTemplate(ctx context.Context, artistID, id int64) error {
	if _, err := s.template(ctx, artistID, id); err != nil {
		return err
	}
	if err := s.Stores.Templates.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	s.Logger.Info("Template deleted",
		zap.Int64("artist_id", artistID),
		zap.Int64("template_id", id))
	return nil
}

// ApplyTemplateRequest applies one template to a set of dates.
type ApplyTemplateRequest struct {
	ArtistID          int64
	TemplateID        int64
	Dates             []time.Time
	StartTime         interval.Clock
	OverwriteExisting bool
}

// ApplyTemplate produces one availability row per date. Each date commits on
// its own; failures are collected, never rolled back.
func (s *TemplateService) ApplyTemplate(ctx context.Context, req ApplyTemplateRequest) (*DateBatch, error) {
	var verr ValidationError
	if len(req.Dates) == 0 {
		verr.Add("dates", "must not be empty")
	} else if len(req.Dates) > maxTemplateDates {
		verr.Add("dates", fmt.Sprintf("at most %d dates per call", maxTemplateDates))
	}
	if !req.StartTime.Valid() {
		verr.Add("start_time", "must be between 00:00 and 23:59")
	}
	if err := verr.Err(); err != nil {
		return nil, err
	}

	if _, err := s.artist(ctx, req.ArtistID); err != nil {
		return nil, err
	}
	tmpl, err := s.template(ctx, req.ArtistID, req.TemplateID)
	if err != nil {
		return nil, err
	}
	if !tmpl.IsActive {
		return nil, invalid("template_id", "template is inactive")
	}

	dates := make([]time.Time, 0, len(req.Dates))
	for _, d := range req.Dates {
		dates = append(dates, interval.Day(d))
	}
	slices.SortFunc(dates, time.Time.Compare)
	dates = slices.CompactFunc(dates, time.Time.Equal)

	batchID := uuid.New()
	result := &DateBatch{}
	err = s.withArtistLock(ctx, req.ArtistID, func() error {
		for _, date := range dates {
			code, err := s.applyOne(ctx, tmpl, date, req.StartTime, req.OverwriteExisting, batchID)
			if err != nil {
				result.fail(date, code, err)
				continue
			}
			result.ok(date)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Info("Template applied",
		zap.Int64("artist_id", req.ArtistID),
		zap.Int64("template_id", tmpl.ID),
		zap.String("batch_id", batchID.String()),
		zap.Int("processed", len(result.Processed)),
		zap.Int("failed", len(result.Failed)))

	if len(result.Processed) > 0 {
		s.publish(ctx, events.TypeTemplateApplied, req.ArtistID, map[string]any{
			"template_id": tmpl.ID,
			"batch_id":    batchID.String(),
			"processed":   len(result.Processed),
			"failed":      len(result.Failed),
		})
	}
	return result, nil
}

func (s *TemplateService) applyOne(ctx context.Context, tmpl *model.TimeSlotTemplate, date time.Time, start interval.Clock, overwrite bool, batchID uuid.UUID) (FailureCode, error) {
	iv, err := interval.OnDate(date, start, tmpl.DurationMinutes)
	if err != nil {
		return FailureInternal, err
	}
	if earliest := s.Now().Add(hours(tmpl.MinAdvanceNoticeHours)); iv.Start.Before(earliest) {
		return FailureInsufficientNotice,
			fmt.Errorf("%s is within the template's %d hours notice", iv, tmpl.MinAdvanceNoticeHours)
	}

	existing, err := s.Stores.Availability.GetByStart(ctx, tmpl.ArtistID, iv.Start)
	if err != nil {
		return FailureInternal, fmt.Errorf("get availability: %w", err)
	}
	if existing != nil && !overwrite {
		return FailureAlreadyExists, fmt.Errorf("availability at %s: %w", iv, ErrAlreadyExists)
	}
	if existing != nil && existing.IsBooked {
		return FailureBooked, fmt.Errorf("availability at %s is booked", iv)
	}

	slot := existing
	if slot == nil {
		slot = &model.Availability{
			ArtistID:  tmpl.ArtistID,
			Date:      date,
			StartTime: iv.Start,
		}
	}
	templateID := tmpl.ID
	slot.EndTime = iv.End
	slot.Status = model.AvailabilityStatusAvailable
	slot.PriceMultiplier = tmpl.PriceMultiplier
	slot.MinimumHours = decimal.NewNullDecimal(decimal.NewFromInt(int64(tmpl.DurationMinutes)).Div(decimal.NewFromInt(60)))
	slot.BufferBeforeMinutes = tmpl.BufferBeforeMinutes
	slot.BufferAfterMinutes = tmpl.BufferAfterMinutes
	slot.Notes = "Template: " + tmpl.Name
	slot.TemplateID = &templateID
	slot.BatchID = &batchID

	if existing == nil {
		err = s.Stores.Availability.Create(ctx, slot)
	} else {
		err = s.Stores.Availability.Update(ctx, slot)
	}
	switch {
	case errors.Is(err, repository.ErrDuplicate):
		return FailureAlreadyExists, fmt.Errorf("availability at %s: %w", iv, ErrAlreadyExists)
	case errors.Is(err, repository.ErrAlreadyBooked):
		return FailureBooked, fmt.Errorf("availability at %s is booked", iv)
	case err != nil:
		return FailureInternal, err
	}
	return "", nil
}
