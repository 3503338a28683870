package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Freeeeeet/artist_scheduler/internal/events"
	"github.com/Freeeeeet/artist_scheduler/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestCreateBlackout_RejectsConfirmedBookings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	confirmed := f.booking(day(time.June, 11), "19:00", "21:00", model.BookingStatusConfirmed)
	f.booking(day(time.June, 12), "19:00", "21:00", model.BookingStatusInquiry)

	_, err := f.svc.Blackouts.CreateBlackout(ctx, CreateBlackoutRequest{
		ArtistID:  f.artist.ID,
		StartDate: day(time.June, 10),
		EndDate:   day(time.June, 12),
		Title:     "Maintenance",
		Type:      model.BlackoutTypeMaintenance,
	})
	var sv *StateViolationError
	require.ErrorAs(t, err, &sv)
	require.Len(t, sv.Bookings, 1)
	assert.Equal(t, confirmed.ID, sv.Bookings[0].ID)

	list, err := f.svc.Blackouts.ListBlackouts(ctx, f.artist.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Empty(t, f.events.Events)
}

func TestCreateBlackout_FlipsOnlyUnbookedRows(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	inside := f.slot(t, day(time.June, 10), "10:00", "12:00")
	booked := f.slot(t, day(time.June, 12), "10:00", "12:00")
	require.NoError(t, f.store.Availability().Book(ctx, booked.ID, 5))
	outside := f.slot(t, day(time.June, 13), "10:00", "12:00")

	res, err := f.svc.Blackouts.CreateBlackout(ctx, CreateBlackoutRequest{
		ArtistID:  f.artist.ID,
		StartDate: day(time.June, 10),
		EndDate:   day(time.June, 12),
		Title:     "Studio move",
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.FlippedSlots)
	assert.Equal(t, model.BlackoutTypeOther, res.Blackout.Type)

	got, err := f.store.Availability().GetByID(ctx, inside.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AvailabilityStatusUnavailable, got.Status)
	assert.Equal(t, "Blackout: Studio move", got.Notes)

	got, err = f.store.Availability().GetByID(ctx, booked.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AvailabilityStatusAvailable, got.Status)

	got, err = f.store.Availability().GetByID(ctx, outside.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AvailabilityStatusAvailable, got.Status)

	assert.Equal(t, []string{events.TypeBlackoutCreated}, f.events.Types())
	assert.Equal(t, 1, f.messages.count())
}

func TestCreateBlackout_Validation(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Blackouts.CreateBlackout(context.Background(), CreateBlackoutRequest{
		ArtistID:  f.artist.ID,
		StartDate: day(time.June, 12),
		EndDate:   day(time.June, 10),
		Type:      "BOGUS",
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.FieldErrors, "end_date")
	assert.Contains(t, verr.FieldErrors, "title")
	assert.Contains(t, verr.FieldErrors, "type")
}

func TestYearlyBlackout_AppliesToLaterYears(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Blackouts.CreateBlackout(ctx, CreateBlackoutRequest{
		ArtistID:   f.artist.ID,
		StartDate:  time.Date(2024, time.June, 21, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2024, time.June, 21, 0, 0, 0, 0, time.UTC),
		Title:      "Midsummer",
		Type:       model.BlackoutTypeHoliday,
		Recurrence: model.BlackoutRecurrenceYearly,
	})
	require.NoError(t, err)
	f.slot(t, day(time.June, 21), "18:00", "23:00")

	res := f.check(t, day(time.June, 21), "19:00", 60)
	assert.Equal(t, OutcomeBlackout, res.Outcome)

	b := res.Blackout
	require.NotNil(t, b)
	require.NoError(t, f.svc.Blackouts.DeleteBlackout(ctx, f.artist.ID, b.ID))
	assert.True(t, f.check(t, day(time.June, 21), "19:00", 60).Available())
	assert.ErrorIs(t, f.svc.Blackouts.DeleteBlackout(ctx, f.artist.ID, b.ID), ErrNotFound)
}

func TestYearlyBlackout_RejectsBookingsInLaterYears(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	next := func(m time.Month, d, h int) time.Time { return time.Date(2026, m, d, h, 0, 0, 0, time.UTC) }
	covered := f.store.Bookings().Put(&model.Booking{
		ArtistID:  f.artist.ID,
		EventDate: next(time.June, 11, 0),
		StartTime: next(time.June, 11, 19),
		EndTime:   next(time.June, 11, 21),
		Status:    model.BookingStatusConfirmed,
	})
	f.store.Bookings().Put(&model.Booking{
		ArtistID:  f.artist.ID,
		EventDate: next(time.July, 1, 0),
		StartTime: next(time.July, 1, 19),
		EndTime:   next(time.July, 1, 21),
		Status:    model.BookingStatusPaid,
	})

	req := CreateBlackoutRequest{
		ArtistID:   f.artist.ID,
		StartDate:  day(time.June, 10),
		EndDate:    day(time.June, 12),
		Title:      "Festival week",
		Recurrence: model.BlackoutRecurrenceYearly,
	}
	_, err := f.svc.Blackouts.CreateBlackout(ctx, req)
	var sv *StateViolationError
	require.ErrorAs(t, err, &sv)
	require.Len(t, sv.Bookings, 1)
	assert.Equal(t, covered.ID, sv.Bookings[0].ID)

	list, err := f.svc.Blackouts.ListBlackouts(ctx, f.artist.ID)
	require.NoError(t, err)
	assert.Empty(t, list)

	// the same range without recurrence leaves next year alone
	req.Recurrence = model.BlackoutRecurrenceNone
	_, err = f.svc.Blackouts.CreateBlackout(ctx, req)
	require.NoError(t, err)
}

type failingBlackouts struct {
	BlackoutStore
}

func (failingBlackouts) Create(context.Context, *model.BlackoutDate, string) (int64, error) {
	return 0, errors.New("db down")
}

func TestCreateBlackout_StoreFailureLeavesNoState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	open := f.slot(t, day(time.June, 10), "10:00", "12:00")

	recorder := &events.Recorder{}
	svc := New(Dependencies{
		Stores: Stores{
			Artists:      f.store.Artists(),
			Availability: f.store.Availability(),
			Patterns:     f.store.Patterns(),
			Blackouts:    failingBlackouts{BlackoutStore: f.store.Blackouts()},
			Templates:    f.store.Templates(),
			Bookings:     f.store.Bookings(),
		},
		Publisher: recorder,
		Notifier:  f.messages,
		Now:       func() time.Time { return fixedNow },
		Logger:    zaptest.NewLogger(t),
	})

	_, err := svc.Blackouts.CreateBlackout(ctx, CreateBlackoutRequest{
		ArtistID:  f.artist.ID,
		StartDate: day(time.June, 10),
		EndDate:   day(time.June, 12),
		Title:     "Studio move",
	})
	require.ErrorContains(t, err, "db down")

	list, err := f.svc.Blackouts.ListBlackouts(ctx, f.artist.ID)
	require.NoError(t, err)
	assert.Empty(t, list)

	got, err := f.store.Availability().GetByID(ctx, open.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AvailabilityStatusAvailable, got.Status)
	assert.Empty(t, recorder.Events)
	assert.Zero(t, f.messages.count())
}
