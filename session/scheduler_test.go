package session

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedulerWaitsOneIntervalThenTicks(t *testing.T) {
	var ticks atomic.Int64
	s := NewRefreshScheduler(50*time.Millisecond, func(ctx context.Context) {
		ticks.Add(1)
	})

	s.Start()
	defer s.Stop()

	assert.Zero(t, ticks.Load(), "no tick before the first interval elapses")
	require.Eventually(t, func() bool { return ticks.Load() >= 3 }, 2*time.Second, time.Millisecond)
}

func TestSchedulerStartIsIdempotent(t *testing.T) {
	var ticks atomic.Int64
	s := NewRefreshScheduler(10*time.Millisecond, func(ctx context.Context) {
		ticks.Add(1)
	})

	s.Start()
	s.Start()
	defer s.Stop()

	require.Eventually(t, func() bool { return ticks.Load() >= 2 }, time.Second, time.Millisecond)
	s.Stop()
	settled := ticks.Load()
	time.Sleep(50 * time.Millisecond)
	// At most one already-executing tick may land after Stop.
	assert.LessOrEqual(t, ticks.Load(), settled+1)
}

func TestSchedulerStopWhileIdleIsNoOp(t *testing.T) {
	s := NewRefreshScheduler(time.Minute, func(ctx context.Context) {})
	s.Stop()
	assert.False(t, s.Running())

	s.Start()
	assert.True(t, s.Running())
	s.Stop()
	s.Stop()
	assert.False(t, s.Running())
}

func TestSchedulerRestartsAfterStop(t *testing.T) {
	var ticks atomic.Int64
	s := NewRefreshScheduler(10*time.Millisecond, func(ctx context.Context) {
		ticks.Add(1)
	})

	s.Start()
	require.Eventually(t, func() bool { return ticks.Load() >= 1 }, time.Second, time.Millisecond)
	s.Stop()

	before := ticks.Load()
	s.Start()
	defer s.Stop()
	require.Eventually(t, func() bool { return ticks.Load() > before }, time.Second, time.Millisecond)
}
