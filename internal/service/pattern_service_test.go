package service

import (
	"context"
	"testing"
	"time"

	"github.com/Freeeeeet/artist_scheduler/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePatterns_WeeklyGroup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	patterns, err := f.svc.Patterns.CreatePatterns(ctx, CreatePatternRequest{
		ArtistID:   f.artist.ID,
		Frequency:  model.FrequencyWeekly,
		DaysOfWeek: []int{int(time.Saturday), int(time.Friday), int(time.Friday)},
		StartTime:  clockOf(t, "18:00"),
		EndTime:    clockOf(t, "23:00"),
		TimeZone:   "Europe/Berlin",
		ValidFrom:  day(time.June, 1),
	})
	require.NoError(t, err)
	require.Len(t, patterns, 2)
	assert.Equal(t, patterns[0].GroupID, patterns[1].GroupID)
	assert.Equal(t, int(time.Friday), *patterns[0].DayOfWeek)
	assert.Equal(t, int(time.Saturday), *patterns[1].DayOfWeek)
	assert.True(t, patterns[0].PriceMultiplier.Equal(patterns[1].PriceMultiplier))

	list, err := f.svc.Patterns.ListPatterns(ctx, f.artist.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestCreatePatterns_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	until := day(time.May, 1)

	tests := []struct {
		name  string
		req   CreatePatternRequest
		field string
	}{
		{
			name: "end before start",
			req: CreatePatternRequest{Frequency: model.FrequencyDaily,
				StartTime: clockOf(t, "20:00"), EndTime: clockOf(t, "18:00"), ValidFrom: day(time.June, 1)},
			field: "end_time",
		},
		{
			name: "weekly without day",
			req: CreatePatternRequest{Frequency: model.FrequencyWeekly,
				StartTime: clockOf(t, "18:00"), EndTime: clockOf(t, "20:00"), ValidFrom: day(time.June, 1)},
			field: "days_of_week",
		},
		{
			name: "monthly without day",
			req: CreatePatternRequest{Frequency: model.FrequencyMonthly,
				StartTime: clockOf(t, "18:00"), EndTime: clockOf(t, "20:00"), ValidFrom: day(time.June, 1)},
			field: "rule",
		},
		{
			name: "inverted window",
			req: CreatePatternRequest{Frequency: model.FrequencyDaily,
				StartTime: clockOf(t, "18:00"), EndTime: clockOf(t, "20:00"), ValidFrom: day(time.June, 1), ValidUntil: &until},
			field: "valid_until",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.req.ArtistID = f.artist.ID
			_, err := f.svc.Patterns.CreatePatterns(ctx, tt.req)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.FieldErrors, tt.field)
		})
	}
}

func TestSetPatternActive_StopsExpansion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	patterns, err := f.svc.Patterns.CreatePatterns(ctx, CreatePatternRequest{
		ArtistID:  f.artist.ID,
		Frequency: model.FrequencyDaily,
		StartTime: clockOf(t, "10:00"),
		EndTime:   clockOf(t, "18:00"),
		ValidFrom: day(time.June, 1),
	})
	require.NoError(t, err)
	assert.True(t, f.check(t, day(time.June, 9), "12:00", 60).Available())

	p, err := f.svc.Patterns.SetPatternActive(ctx, f.artist.ID, patterns[0].ID, false)
	require.NoError(t, err)
	assert.False(t, p.IsActive)
	assert.Equal(t, OutcomeNoAvailability, f.check(t, day(time.June, 9), "12:00", 60).Outcome)

	_, err = f.svc.Patterns.SetPatternActive(ctx, f.artist.ID+100, patterns[0].ID, true)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMaterializeAll(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	patterns, err := f.svc.Patterns.CreatePatterns(ctx, CreatePatternRequest{
		ArtistID:   f.artist.ID,
		Frequency:  model.FrequencyWeekly,
		DaysOfWeek: []int{int(time.Friday)},
		StartTime:  clockOf(t, "18:00"),
		EndTime:    clockOf(t, "23:00"),
		ValidFrom:  day(time.June, 1),
	})
	require.NoError(t, err)

	f.slot(t, day(time.June, 6), "18:00", "20:00")
	_, err = f.svc.Blackouts.CreateBlackout(ctx, CreateBlackoutRequest{
		ArtistID:  f.artist.ID,
		StartDate: day(time.June, 13),
		EndDate:   day(time.June, 13),
		Title:     "Off",
	})
	require.NoError(t, err)

	// Fridays 6, 13, 20, 27 within four weeks of 1 June; 6 is taken, 13 blacked out.
	created, err := f.svc.Patterns.MaterializeAll(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, 2, created)

	created, err = f.svc.Patterns.MaterializeAll(ctx, 4)
	require.NoError(t, err)
	assert.Zero(t, created)

	// unbooked rows do not pin the pattern and go away with it
	require.NoError(t, f.svc.Patterns.DeletePattern(ctx, f.artist.ID, patterns[0].ID))
	rows, err := f.store.Availability().GetByArtistRange(ctx, f.artist.ID, day(time.June, 1), day(time.June, 30))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].PatternID)
}

func TestSetPatternActive_PrunesMaterializedRows(t *testing.T) {
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
	id := patterns[0].ID

	// Saturdays 7, 14, 21, 28
	created, err := f.svc.Patterns.MaterializeAll(ctx, 4)
	require.NoError(t, err)
	require.Equal(t, 4, created)

	res, err := f.svc.Availability.ReserveSlot(ctx, ReserveRequest{
		CheckRequest: CheckRequest{
			ArtistID:        f.artist.ID,
			Date:            day(time.June, 21),
			StartTime:       clockOf(t, "19:00"),
			DurationMinutes: 120,
		},
		BookingID: 501,
	})
	require.NoError(t, err)
	require.True(t, res.Available())
	booked := res.Slot.ID

	_, err = f.svc.Patterns.SetPatternActive(ctx, f.artist.ID, id, false)
	require.NoError(t, err)

	assert.Equal(t, OutcomeNoAvailability, f.check(t, day(time.June, 14), "19:00", 120).Outcome)
	rows, err := f.store.Availability().GetByArtistRange(ctx, f.artist.ID, day(time.June, 1), day(time.June, 30))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, booked, rows[0].ID)

	// the paused pattern is not materialized again
	created, err = f.svc.Patterns.MaterializeAll(ctx, 4)
	require.NoError(t, err)
	assert.Zero(t, created)

	err = f.svc.Patterns.DeletePattern(ctx, f.artist.ID, id)
	var sv *StateViolationError
	require.ErrorAs(t, err, &sv)
	assert.Equal(t, []int64{booked}, sv.AvailabilityIDs)

	released, err := f.svc.Availability.ReleaseSlot(ctx, f.artist.ID, 501)
	require.NoError(t, err)
	assert.EqualValues(t, 1, released)
	require.NoError(t, f.svc.Patterns.DeletePattern(ctx, f.artist.ID, id))

	rows, err = f.store.Availability().GetByArtistRange(ctx, f.artist.ID, day(time.June, 1), day(time.June, 30))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestDeletePattern_WithoutDependents(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	patterns, err := f.svc.Patterns.CreatePatterns(ctx, CreatePatternRequest{
		ArtistID:    f.artist.ID,
		Frequency:   model.FrequencyMonthly,
		DaysOfWeek:  []int{int(time.Saturday)},
		WeekOfMonth: func() *int { v := 2; return &v }(),
		StartTime:   clockOf(t, "19:00"),
		EndTime:     clockOf(t, "21:00"),
		ValidFrom:   day(time.June, 1),
	})
	require.NoError(t, err)
	require.Len(t, patterns, 1)

	// second Saturday of June 2025
	assert.True(t, f.check(t, day(time.June, 14), "19:00", 120).Available())

	require.NoError(t, f.svc.Patterns.DeletePattern(ctx, f.artist.ID, patterns[0].ID))
	assert.ErrorIs(t, f.svc.Patterns.DeletePattern(ctx, f.artist.ID, patterns[0].ID), ErrNotFound)
}
