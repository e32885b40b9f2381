package engine

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundcue/soundcue/internal/model"
)

// countingStore counts snapshot fetches so the test can observe ticks.
type countingStore struct {
	fetches atomic.Int64
}

func (c *countingStore) GetActiveSchedules(ctx context.Context) ([]model.Schedule, error) {
	c.fetches.Add(1)
	return nil, nil
}

func (c *countingStore) RecordStart(ctx context.Context, scheduleID int, firedAt time.Time, markOneShotDone bool) error {
	return nil
}

func TestRunner_TicksAndStops(t *testing.T) {
	store := &countingStore{}
	eng := New(store, &fakeSessions{}, WithSettleDelays(SettleDelays{}))

	r := NewRunner(eng, 20*time.Millisecond)
	require.NoError(t, r.Start(context.Background()))

	deadline := time.Now().Add(2 * time.Second)
	for store.fetches.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	r.Stop()

	ticked := store.fetches.Load()
	assert.Positive(t, ticked, "runner never ticked")

	// No further ticks after Stop returns.
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, ticked, store.fetches.Load())
}

func TestNewRunner_DefaultsInterval(t *testing.T) {
	r := NewRunner(nil, 0)
	assert.Equal(t, time.Minute, r.interval)
}
