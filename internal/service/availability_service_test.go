package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Freeeeeet/artist_scheduler/internal/events"
	"github.com/Freeeeeet/artist_scheduler/internal/interval"
	"github.com/Freeeeeet/artist_scheduler/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckAvailability_WeekendSlot(t *testing.T) {
	f := newFixture(t)
	slot := f.slot(t, day(time.June, 14), "18:00", "23:00")

	res := f.check(t, day(time.June, 14), "19:00", 120)

	require.True(t, res.Available(), res.Message)
	assert.Equal(t, slot.ID, res.Slot.ID)
	require.NotNil(t, res.Quote)
	assert.True(t, res.Quote.IsWeekend)
	assert.True(t, res.Quote.EffectiveHours.Equal(decimal.NewFromInt(3)))
	assert.True(t, res.Quote.FinalPrice.Equal(decimal.NewFromInt(675)), res.Quote.FinalPrice.String())
}

func TestCheckAvailability_SlotMinimumOverridesArtist(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Availability.CreateSlot(context.Background(), CreateSlotRequest{
		ArtistID:        f.artist.ID,
		Date:            day(time.June, 10),
		StartTime:       clockOf(t, "18:00"),
		EndTime:         clockOf(t, "23:00"),
		PriceMultiplier: decimal.RequireFromString("1.2"),
		MinimumHours:    decimal.NewNullDecimal(decimal.NewFromInt(1)),
	})
	require.NoError(t, err)

	res := f.check(t, day(time.June, 10), "19:00", 120)
	require.True(t, res.Available())
	assert.False(t, res.Quote.IsWeekend)
	// 150 * 2h * 1.2
	assert.True(t, res.Quote.FinalPrice.Equal(decimal.NewFromInt(360)), res.Quote.FinalPrice.String())
}

func TestCheckAvailability_TooSoon(t *testing.T) {
	f := newFixture(t)
	f.slot(t, day(time.June, 1), "11:00", "23:00")

	res := f.check(t, day(time.June, 1), "12:00", 60)
	assert.Equal(t, OutcomeTooSoon, res.Outcome)
	assert.NotEmpty(t, res.Message)
	assert.Nil(t, res.Slot)
}

func TestCheckAvailability_TooFar(t *testing.T) {
	f := newFixture(t)

	res := f.check(t, time.Date(2026, time.January, 10, 0, 0, 0, 0, time.UTC), "12:00", 60)
	assert.Equal(t, OutcomeTooFar, res.Outcome)
}

func TestCheckAvailability_NoAvailability(t *testing.T) {
	f := newFixture(t)
	f.slot(t, day(time.June, 14), "18:00", "20:00")

	res := f.check(t, day(time.June, 14), "19:00", 120)
	assert.Equal(t, OutcomeNoAvailability, res.Outcome)

	res = f.check(t, day(time.June, 15), "18:00", 60)
	assert.Equal(t, OutcomeNoAvailability, res.Outcome)
}

func TestCheckAvailability_BookingConflict(t *testing.T) {
	f := newFixture(t)
	f.slot(t, day(time.June, 14), "18:00", "23:00")

	f.booking(day(time.June, 14), "21:00", "22:00", model.BookingStatusCancelled)
	f.booking(day(time.June, 14), "18:00", "19:00", model.BookingStatusConfirmed)

	// touching the confirmed booking's end is fine
	assert.True(t, f.check(t, day(time.June, 14), "19:00", 120).Available())

	conflict := f.booking(day(time.June, 14), "20:30", "21:30", model.BookingStatusPaid)
	res := f.check(t, day(time.June, 14), "19:00", 120)
	assert.Equal(t, OutcomeBookingConflict, res.Outcome)
	require.Len(t, res.ConflictingBookings, 1)
	assert.Equal(t, conflict.ID, res.ConflictingBookings[0].ID)
}

func TestCheckAvailability_CompletedBookingBlocks(t *testing.T) {
	f := newFixture(t)
	f.slot(t, day(time.June, 14), "18:00", "23:00")
	done := f.booking(day(time.June, 14), "19:00", "20:00", model.BookingStatusCompleted)

	res := f.check(t, day(time.June, 14), "19:30", 60)
	assert.Equal(t, OutcomeBookingConflict, res.Outcome)
	require.Len(t, res.ConflictingBookings, 1)
	assert.Equal(t, done.ID, res.ConflictingBookings[0].ID)
}

func TestCheckAvailability_OverlappingConfirmedBookingNeverAvailable(t *testing.T) {
	f := newFixture(t)
	f.slot(t, day(time.June, 20), "10:00", "22:00")
	f.booking(day(time.June, 20), "14:00", "16:00", model.BookingStatusConfirmed)

	for start := 10 * 60; start+60 <= 22*60; start += 30 {
		c := interval.Clock(start)
		res := f.check(t, day(time.June, 20), c.String(), 60)
		overlaps := start < 16*60 && start+60 > 14*60
		if overlaps {
			assert.Equal(t, OutcomeBookingConflict, res.Outcome, c.String())
		} else {
			assert.Equal(t, OutcomeAvailable, res.Outcome, c.String())
		}
	}
}

func TestCheckAvailability_BlackoutScenario(t *testing.T) {
	f := newFixture(t)
	f.slot(t, day(time.June, 11), "14:00", "20:00")

	created, err := f.svc.Blackouts.CreateBlackout(context.Background(), CreateBlackoutRequest{
		ArtistID:  f.artist.ID,
		StartDate: day(time.June, 10),
		EndDate:   day(time.June, 12),
		Title:     "Maintenance",
		Type:      model.BlackoutTypeMaintenance,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, created.FlippedSlots)

	res := f.check(t, day(time.June, 11), "15:00", 120)
	assert.Equal(t, OutcomeBlackout, res.Outcome)
	require.NotNil(t, res.Blackout)
	assert.Equal(t, "Maintenance", res.Blackout.Title)
	assert.Contains(t, res.Message, "Maintenance")
}

func TestCheckAvailability_BlackoutBeatsPatternOccurrence(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Patterns.CreatePatterns(context.Background(), CreatePatternRequest{
		ArtistID:  f.artist.ID,
		Frequency: model.FrequencyDaily,
		StartTime: clockOf(t, "10:00"),
		EndTime:   clockOf(t, "18:00"),
		ValidFrom: day(time.June, 1),
	})
	require.NoError(t, err)
	_, err = f.svc.Blackouts.CreateBlackout(context.Background(), CreateBlackoutRequest{
		ArtistID:  f.artist.ID,
		StartDate: day(time.June, 10),
		EndDate:   day(time.June, 10),
		Title:     "Vacation",
		Type:      model.BlackoutTypePersonal,
	})
	require.NoError(t, err)

	assert.True(t, f.check(t, day(time.June, 9), "12:00", 60).Available())
	assert.Equal(t, OutcomeBlackout, f.check(t, day(time.June, 10), "12:00", 60).Outcome)
}

func TestCheckAvailability_Validation(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Availability.CheckAvailability(context.Background(), CheckRequest{
		ArtistID:        f.artist.ID,
		Date:            day(time.June, 14),
		StartTime:       clockOf(t, "19:00"),
		DurationMinutes: 0,
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.FieldErrors, "duration_minutes")

	_, err = f.svc.Availability.CheckAvailability(context.Background(), CheckRequest{
		ArtistID:        9999,
		Date:            day(time.June, 14),
		StartTime:       clockOf(t, "19:00"),
		DurationMinutes: 60,
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReserveSlot_ClaimsAndReleases(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	slot := f.slot(t, day(time.June, 14), "18:00", "23:00")

	req := ReserveRequest{
		CheckRequest: CheckRequest{
			ArtistID:        f.artist.ID,
			Date:            day(time.June, 14),
			StartTime:       clockOf(t, "19:00"),
			DurationMinutes: 120,
		},
		BookingID: 501,
	}
	res, err := f.svc.Availability.ReserveSlot(ctx, req)
	require.NoError(t, err)
	require.True(t, res.Available(), res.Message)
	assert.True(t, res.Slot.IsBooked)

	stored, err := f.store.Availability().GetByID(ctx, slot.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsBooked)
	require.NotNil(t, stored.BookingID)
	assert.EqualValues(t, 501, *stored.BookingID)

	req.BookingID = 502
	res, err = f.svc.Availability.ReserveSlot(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, OutcomeBookingConflict, res.Outcome)

	released, err := f.svc.Availability.ReleaseSlot(ctx, f.artist.ID, 501)
	require.NoError(t, err)
	assert.EqualValues(t, 1, released)
	assert.True(t, f.check(t, day(time.June, 14), "19:00", 120).Available())

	_, err = f.svc.Availability.ReleaseSlot(ctx, f.artist.ID, 501)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, []string{events.TypeSlotReserved, events.TypeSlotReleased}, f.events.Types())
	assert.Equal(t, 2, f.messages.count())
}

func TestReserveSlot_ConcurrentClaimsHaveOneWinner(t *testing.T) {
	f := newFixture(t)
	f.slot(t, day(time.June, 14), "18:00", "23:00")

	const workers = 16
	start := clockOf(t, "19:00")
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		outcomes = map[Outcome]int{}
	)
	for i := range workers {
		wg.Add(1)
		go func(bookingID int64) {
			defer wg.Done()
			res, err := f.svc.Availability.ReserveSlot(context.Background(), ReserveRequest{
				CheckRequest: CheckRequest{
					ArtistID:        f.artist.ID,
					Date:            day(time.June, 14),
					StartTime:       start,
					DurationMinutes: 120,
				},
				BookingID: bookingID,
			})
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			outcomes[res.Outcome]++
			mu.Unlock()
		}(int64(1000 + i))
	}
	wg.Wait()

	assert.Equal(t, 1, outcomes[OutcomeAvailable])
	assert.Equal(t, workers-1, outcomes[OutcomeBookingConflict])
}

func TestReserveSlot_PersistsPatternOccurrence(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	patterns, err := f.svc.Patterns.CreatePatterns(ctx, CreatePatternRequest{
		ArtistID:   f.artist.ID,
		Frequency:  model.FrequencyWeekly,
		DaysOfWeek: []int{int(time.Saturday)},
		StartTime:  clockOf(t, "18:00"),
		EndTime:    clockOf(t, "23:00"),
		ValidFrom:  day(time.June, 1),
	})
	require.NoError(t, err)
	require.Len(t, patterns, 1)

	res, err := f.svc.Availability.ReserveSlot(ctx, ReserveRequest{
		CheckRequest: CheckRequest{
			ArtistID:        f.artist.ID,
			Date:            day(time.June, 14),
			StartTime:       clockOf(t, "18:00"),
			DurationMinutes: 180,
		},
		BookingID: 77,
	})
	require.NoError(t, err)
	require.True(t, res.Available())
	assert.NotZero(t, res.Slot.ID)
	require.NotNil(t, res.Slot.PatternID)
	assert.Equal(t, patterns[0].ID, *res.Slot.PatternID)

	err = f.svc.Patterns.DeletePattern(ctx, f.artist.ID, patterns[0].ID)
	var sv *StateViolationError
	require.ErrorAs(t, err, &sv)
	assert.Equal(t, []int64{res.Slot.ID}, sv.AvailabilityIDs)
}

func TestFindAlternatives_AdjacentDayScenario(t *testing.T) {
	f := newFixture(t)
	f.slot(t, day(time.June, 11), "19:00", "21:00") // Wednesday

	res, err := f.svc.Availability.CheckAvailability(context.Background(), CheckRequest{
		ArtistID:            f.artist.ID,
		Date:                day(time.June, 10), // Tuesday
		StartTime:           clockOf(t, "19:00"),
		DurationMinutes:     120,
		IncludeAlternatives: true,
	})
	require.NoError(t, err)
	assert.Equal(t, OutcomeNoAvailability, res.Outcome)
	require.Len(t, res.Alternatives, 1)

	alt := res.Alternatives[0]
	assert.Equal(t, ReasonAdjacent, alt.Reason)
	assert.Equal(t, 1, alt.DayDifference)
	assert.Equal(t, day(time.June, 11), alt.Interval.Date())
	assert.True(t, alt.Quote.FinalPrice.IsPositive())
}

func TestFindAlternatives_RankingAndFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.slot(t, day(time.June, 20), "09:00", "10:00") // too short
	f.slot(t, day(time.June, 20), "20:00", "23:00") // same day
	f.slot(t, day(time.June, 20), "12:00", "15:00") // same day, earlier
	f.slot(t, day(time.June, 19), "18:00", "21:00") // -1
	f.slot(t, day(time.June, 23), "10:00", "13:00") // +3
	f.slot(t, day(time.June, 17), "10:00", "13:00") // -3
	f.slot(t, day(time.June, 21), "18:00", "20:00") // +1, partly booked
	f.booking(day(time.June, 21), "18:00", "19:00", model.BookingStatusConfirmed)
	f.slot(t, day(time.June, 25), "10:00", "13:00") // outside radius 3

	alts, err := f.svc.Availability.FindAlternatives(ctx, f.artist.ID, day(time.June, 20), clockOf(t, "16:00"), 120, 3)
	require.NoError(t, err)

	var diffs []int
	for _, a := range alts {
		diffs = append(diffs, a.DayDifference)
		assert.GreaterOrEqual(t, a.Interval.DurationMinutes(), 120)
	}
	assert.Equal(t, []int{0, 0, -1, -3, 3}, diffs)
	assert.Equal(t, 12, alts[0].Interval.Start.Hour())
	assert.Equal(t, ReasonSameDay, alts[0].Reason)
	assert.Equal(t, ReasonAdjacent, alts[2].Reason)
	assert.Equal(t, ReasonOtherTime, alts[3].Reason)

	for i := 1; i < len(alts); i++ {
		assert.LessOrEqual(t, abs(alts[i-1].DayDifference), abs(alts[i].DayDifference))
	}
}

func TestFindAlternatives_SlidesPastBookingAndCaps(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.slot(t, day(time.June, 21), "18:00", "21:00")
	f.booking(day(time.June, 21), "18:00", "19:00", model.BookingStatusConfirmed)

	alts, err := f.svc.Availability.FindAlternatives(ctx, f.artist.ID, day(time.June, 21), clockOf(t, "12:00"), 120, 1)
	require.NoError(t, err)
	require.Len(t, alts, 1)
	assert.Equal(t, 19, alts[0].Interval.Start.Hour())
	assert.Equal(t, 21, alts[0].Interval.End.Hour())

	for d := 5; d <= 30; d++ {
		f.slot(t, day(time.July, d), "10:00", "14:00")
	}
	alts, err = f.svc.Availability.FindAlternatives(ctx, f.artist.ID, day(time.July, 15), clockOf(t, "12:00"), 60, 30)
	require.NoError(t, err)
	assert.Len(t, alts, maxAlternatives)
}

func TestBulkUpdateStatus_PartialFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	free := f.slot(t, day(time.June, 14), "10:00", "12:00")
	booked := f.slot(t, day(time.June, 14), "18:00", "23:00")
	require.NoError(t, f.store.Availability().Book(ctx, booked.ID, 900))

	result, err := f.svc.Availability.BulkUpdateStatus(ctx, f.artist.ID,
		[]int64{free.ID, booked.ID, 12345}, model.AvailabilityStatusUnavailable)
	require.NoError(t, err)

	assert.Equal(t, []int64{free.ID}, result.Processed)
	require.Len(t, result.Failed, 2)
	codes := map[int64]FailureCode{}
	for _, fail := range result.Failed {
		codes[fail.Item] = fail.Code
	}
	assert.Equal(t, FailureBooked, codes[booked.ID])
	assert.Equal(t, FailureNotFound, codes[12345])

	stored, err := f.store.Availability().GetByID(ctx, free.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AvailabilityStatusUnavailable, stored.Status)
}

func TestDeleteSlot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	free := f.slot(t, day(time.June, 14), "10:00", "12:00")
	booked := f.slot(t, day(time.June, 14), "18:00", "23:00")
	require.NoError(t, f.store.Availability().Book(ctx, booked.ID, 900))

	require.NoError(t, f.svc.Availability.DeleteSlot(ctx, f.artist.ID, free.ID))

	var sv *StateViolationError
	require.ErrorAs(t, f.svc.Availability.DeleteSlot(ctx, f.artist.ID, booked.ID), &sv)
	assert.Equal(t, []int64{booked.ID}, sv.AvailabilityIDs)

	assert.ErrorIs(t, f.svc.Availability.DeleteSlot(ctx, f.artist.ID, free.ID), ErrNotFound)
}

func TestCreateSlot_Duplicate(t *testing.T) {
	f := newFixture(t)
	f.slot(t, day(time.June, 14), "10:00", "12:00")

	_, err := f.svc.Availability.CreateSlot(context.Background(), CreateSlotRequest{
		ArtistID:  f.artist.ID,
		Date:      day(time.June, 14),
		StartTime: clockOf(t, "10:00"),
		EndTime:   clockOf(t, "11:00"),
	})
	assert.ErrorIs(t, err, ErrAlreadyExists)

	_, err = f.svc.Availability.CreateSlot(context.Background(), CreateSlotRequest{
		ArtistID:  f.artist.ID,
		Date:      day(time.June, 14),
		StartTime: clockOf(t, "12:00"),
		EndTime:   clockOf(t, "11:00"),
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.FieldErrors, "end_time")
}

func TestMonthlyCalendar_MergesAndMarks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Patterns.CreatePatterns(ctx, CreatePatternRequest{
		ArtistID:   f.artist.ID,
		Frequency:  model.FrequencyWeekly,
		DaysOfWeek: []int{int(time.Friday)},
		StartTime:  clockOf(t, "18:00"),
		EndTime:    clockOf(t, "23:00"),
		ValidFrom:  day(time.June, 1),
	})
	require.NoError(t, err)

	explicit, err := f.svc.Availability.CreateSlot(ctx, CreateSlotRequest{
		ArtistID:        f.artist.ID,
		Date:            day(time.June, 6),
		StartTime:       clockOf(t, "18:00"),
		EndTime:         clockOf(t, "22:00"),
		PriceMultiplier: decimal.RequireFromString("2"),
	})
	require.NoError(t, err)

	_, err = f.svc.Blackouts.CreateBlackout(ctx, CreateBlackoutRequest{
		ArtistID:  f.artist.ID,
		StartDate: day(time.June, 20),
		EndDate:   day(time.June, 20),
		Title:     "Festival",
		Type:      model.BlackoutTypeOther,
	})
	require.NoError(t, err)

	cal, err := f.svc.Availability.MonthlyCalendar(ctx, f.artist.ID, 2025, time.June)
	require.NoError(t, err)
	require.Len(t, cal, 4) // Fridays 6, 13, 20, 27

	assert.Equal(t, explicit.ID, cal[0].ID)
	assert.True(t, cal[0].PriceMultiplier.Equal(decimal.NewFromInt(2)))
	assert.Zero(t, cal[1].ID)
	assert.NotNil(t, cal[1].PatternID)

	assert.Equal(t, day(time.June, 20), cal[2].Date)
	assert.Equal(t, model.AvailabilityStatusUnavailable, cal[2].Status)
	assert.Equal(t, "Blackout: Festival", cal[2].Notes)
	assert.Equal(t, model.AvailabilityStatusAvailable, cal[3].Status)

	_, err = f.svc.Availability.MonthlyCalendar(ctx, f.artist.ID, 2025, 13)
	assert.Error(t, err)
}
