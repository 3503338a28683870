package service

import (
	"context"
	"time"

	"github.com/Freeeeeet/artist_scheduler/internal/model"
)

// Lookups return nil, nil when the row does not exist.

type ArtistStore interface {
	Create(ctx context.Context, artist *model.Artist) error
	GetByID(ctx context.Context, id int64) (*model.Artist, error)
}

// AvailabilityStore persists explicit and materialized slots.
type AvailabilityStore interface {
	Create(ctx context.Context, a *model.Availability) error
	GetByID(ctx context.Context, id int64) (*model.Availability, error)
	GetByStart(ctx context.Context, artistID int64, start time.Time) (*model.Availability, error)
	GetByArtistRange(ctx context.Context, artistID int64, from, to time.Time) ([]*model.Availability, error)
	Update(ctx context.Context, a *model.Availability) error
	UpdateStatus(ctx context.Context, id int64, status model.AvailabilityStatus) error
	Book(ctx context.Context, id, bookingID int64) error
	ReleaseByBooking(ctx context.Context, artistID, bookingID int64) (int64, error)
	ListBookedIDsByPattern(ctx context.Context, patternID int64) ([]int64, error)
	Delete(ctx context.Context, id int64) error
}

// PatternStore persists recurring patterns.
type PatternStore interface {
	CreateGroup(ctx context.Context, patterns []*model.RecurringPattern) error
	GetByID(ctx context.Context, id int64) (*model.RecurringPattern, error)
	GetByArtistID(ctx context.Context, artistID int64) ([]*model.RecurringPattern, error)
	GetActiveByArtistID(ctx context.Context, artistID int64) ([]*model.RecurringPattern, error)
	GetAllActive(ctx context.Context) ([]*model.RecurringPattern, error)
	// SetActive toggles the pattern. Deactivation drops its unbooked
	// materialized rows in the same transaction and returns their count.
	SetActive(ctx context.Context, id int64, active bool) (int64, error)
	// Delete removes the pattern together with its unbooked materialized rows.
	Delete(ctx context.Context, id int64) (int64, error)
}

type BlackoutStore interface {
	// Create stores b and, in the same transaction, marks unbooked AVAILABLE
	// rows dated within [b.StartDate, b.EndDate] UNAVAILABLE with notes.
	// It returns the number of rows flipped.
	Create(ctx context.Context, b *model.BlackoutDate, notes string) (int64, error)
	GetByID(ctx context.Context, id int64) (*model.BlackoutDate, error)
	GetByArtistID(ctx context.Context, artistID int64) ([]*model.BlackoutDate, error)
	Delete(ctx context.Context, id int64) error
}

// TemplateStore persists slot templates.
type TemplateStore interface {
	Create(ctx context.Context, t *model.TimeSlotTemplate) error
	GetByID(ctx context.Context, id int64) (*model.TimeSlotTemplate, error)
	GetByArtistID(ctx context.Context, artistID int64) ([]*model.TimeSlotTemplate, error)
	Delete(ctx context.Context, id int64) error
}

// BookingReader reads bookings owned by the booking workflow.
type BookingReader interface {
	GetByID(ctx context.Context, id int64) (*model.Booking, error)
	ListOverlapping(ctx context.Context, artistID int64, from, to time.Time, statuses []model.BookingStatus) ([]*model.Booking, error)
}

// Stores groups the persistence ports.
type Stores struct {
	Artists      ArtistStore
	Availability AvailabilityStore
	Patterns     PatternStore
	Blackouts    BlackoutStore
	Templates    TemplateStore
	Bookings     BookingReader
}
