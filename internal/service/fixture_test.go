package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Freeeeeet/artist_scheduler/internal/events"
	"github.com/Freeeeeet/artist_scheduler/internal/interval"
	"github.com/Freeeeeet/artist_scheduler/internal/model"
	"github.com/Freeeeeet/artist_scheduler/internal/pricing"
	"github.com/Freeeeeet/artist_scheduler/internal/repository/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// Sunday, 1 June 2025, 10:00 local.
var fixedNow = time.Date(2025, time.June, 1, 10, 0, 0, 0, time.UTC)

type messages struct {
	mu   sync.Mutex
	sent []string
}

func (m *messages) Notify(_ context.Context, _ int64, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, text)
	return nil
}

func (m *messages) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

type fixture struct {
	store    *memory.Store
	svc      *Services
	events   *events.Recorder
	messages *messages
	artist   *model.Artist
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.New()
	f := &fixture{
		store:    store,
		events:   &events.Recorder{},
		messages: &messages{},
	}
	f.svc = New(Dependencies{
		Stores: Stores{
			Artists:      store.Artists(),
			Availability: store.Availability(),
			Patterns:     store.Patterns(),
			Blackouts:    store.Blackouts(),
			Templates:    store.Templates(),
			Bookings:     store.Bookings(),
		},
		Pricing:   pricing.NewCalculator(nil),
		Publisher: f.events,
		Notifier:  f.messages,
		Now:       func() time.Time { return fixedNow },
		Logger:    zaptest.NewLogger(t),
	})

	chatID := int64(42)
	artist, err := f.svc.Artists.CreateArtist(context.Background(), &model.Artist{
		Name:                   "DJ Test",
		HourlyRate:             decimal.RequireFromString("150"),
		MinimumHours:           decimal.RequireFromString("3"),
		WeekendMultiplier:      decimal.RequireFromString("1.5"),
		MinAdvanceBookingHours: 24,
		MaxAdvanceBookingDays:  180,
		TelegramChatID:         &chatID,
	})
	require.NoError(t, err)
	f.artist = artist
	return f
}

func day(m time.Month, d int) time.Time {
	return time.Date(2025, m, d, 0, 0, 0, 0, time.UTC)
}

func clockOf(t *testing.T, s string) interval.Clock {
	t.Helper()
	c, err := interval.ParseClock(s)
	require.NoError(t, err)
	return c
}

func (f *fixture) slot(t *testing.T, date time.Time, from, to string) *model.Availability {
	t.Helper()
	slot, err := f.svc.Availability.CreateSlot(context.Background(), CreateSlotRequest{
		ArtistID:  f.artist.ID,
		Date:      date,
		StartTime: clockOf(t, from),
		EndTime:   clockOf(t, to),
	})
	require.NoError(t, err)
	return slot
}

func (f *fixture) booking(date time.Time, from, to string, status model.BookingStatus) *model.Booking {
	start, _ := interval.ParseClock(from)
	end, _ := interval.ParseClock(to)
	return f.store.Bookings().Put(&model.Booking{
		ArtistID:  f.artist.ID,
		EventDate: date,
		StartTime: start.On(date),
		EndTime:   end.On(date),
		Status:    status,
	})
}

func (f *fixture) check(t *testing.T, date time.Time, start string, minutes int) *CheckResult {
	t.Helper()
	res, err := f.svc.Availability.CheckAvailability(context.Background(), CheckRequest{
		ArtistID:        f.artist.ID,
		Date:            date,
		StartTime:       clockOf(t, start),
		DurationMinutes: minutes,
	})
	require.NoError(t, err)
	return res
}
