package app

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Materializer persists upcoming pattern occurrences.
type Materializer interface {
	MaterializeAll(ctx context.Context, weeksAhead int) (int, error)
}

// Scheduler runs pattern materialization once at start and then on every tick.
type Scheduler struct {
	materializer Materializer
	weeksAhead   int
	every        time.Duration
	logger       *zap.Logger

	stopChan chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewScheduler creates a scheduler that materializes weeksAhead weeks every interval.
func NewScheduler(m Materializer, weeksAhead int, every time.Duration, logger *zap.Logger) *Scheduler {
	if every <= 0 {
		every = 24 * time.Hour
	}
	return &Scheduler{
		materializer: m,
		weeksAhead:   weeksAhead,
		every:        every,
		logger:       logger,
		stopChan:     make(chan struct{}),
		done:         make(chan struct{}),
	}
}

// Start launches the background loop. The first run happens immediately.
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting background scheduler",
		zap.Int("weeks_ahead", s.weeksAhead),
		zap.Duration("interval", s.every),
	)
	go s.run(ctx)
}

// Stop signals the loop and waits for the current run to finish.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.logger.Info("Stopping background scheduler")
		close(s.stopChan)
	})
	<-s.done
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.done)

	s.materialize(ctx)

	ticker := time.NewTicker(s.every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.materialize(ctx)
		case <-s.stopChan:
			s.logger.Info("Materialization task stopped")
			return
		case <-ctx.Done():
			s.logger.Info("Materialization task cancelled")
			return
		}
	}
}

func (s *Scheduler) materialize(ctx context.Context) {
	started := time.Now()
	created, err := s.materializer.MaterializeAll(ctx, s.weeksAhead)
	if err != nil {
		s.logger.Error("Failed to materialize patterns", zap.Error(err))
		return
	}
	s.logger.Info("Patterns materialized",
		zap.Int("created", created),
		zap.Duration("took", time.Since(started)),
	)
}
