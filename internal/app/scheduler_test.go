package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type countingMaterializer struct {
	mu    sync.Mutex
	calls []int
	err   error
}

func (m *countingMaterializer) MaterializeAll(_ context.Context, weeksAhead int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, weeksAhead)
	return 3, m.err
}

func (m *countingMaterializer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func TestScheduler_RunsImmediatelyAndOnTick(t *testing.T) {
	m := &countingMaterializer{}
	s := NewScheduler(m, 6, 10*time.Millisecond, zaptest.NewLogger(t))

	s.Start(context.Background())
	require.Eventually(t, func() bool { return m.count() >= 3 }, time.Second, 5*time.Millisecond)
	s.Stop()
	s.Stop()

	n := m.count()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, n, m.count(), "no runs after Stop")
	assert.Equal(t, 6, m.calls[0])
}

func TestScheduler_ContextCancelStopsLoop(t *testing.T) {
	m := &countingMaterializer{err: errors.New("db down")}
	s := NewScheduler(m, 4, time.Hour, zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	require.Eventually(t, func() bool { return m.count() == 1 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-s.done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not exit on cancel")
	}
	s.Stop()
}
