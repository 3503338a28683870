package app

import (
	"github.com/Freeeeeet/artist_scheduler/internal/repository"
	"github.com/Freeeeeet/artist_scheduler/internal/repository/memory"
	"github.com/Freeeeeet/artist_scheduler/internal/service"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// PostgresStores wires the pgx repositories.
func PostgresStores(pool *pgxpool.Pool, logger *zap.Logger) service.Stores {
	return service.Stores{
		Artists:      repository.NewArtistRepository(pool),
		Availability: repository.NewAvailabilityRepository(pool),
		Patterns:     repository.NewRecurringPatternRepository(pool, logger),
		Blackouts:    repository.NewBlackoutRepository(pool),
		Templates:    repository.NewTemplateRepository(pool),
		Bookings:     repository.NewBookingRepository(pool),
	}
}

// MemoryStores wires the in-process store.
func MemoryStores(store *memory.Store) service.Stores {
	return service.Stores{
		Artists:      store.Artists(),
		Availability: store.Availability(),
		Patterns:     store.Patterns(),
		Blackouts:    store.Blackouts(),
		Templates:    store.Templates(),
		Bookings:     store.Bookings(),
	}
}
