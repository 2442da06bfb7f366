package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTickerLoopRunOnStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var ticks atomic.Int32

	done := make(chan error, 1)

	go func() {
		done <- TickerLoop(ctx, TickerConfig{
			Name:     "test",
			Interval: time.Hour,
			OnTick: func(context.Context) {
				ticks.Add(1)
			},
			RunOnStart: true,
		})
	}()

	require.Eventually(t, func() bool {
		return ticks.Load() == 1
	}, time.Second, 5*time.Millisecond)

	cancel()

	err := <-done
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(1), ticks.Load())
}

func TestTickerLoopFires(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var ticks atomic.Int32

	done := make(chan error, 1)

	go func() {
		done <- TickerLoop(ctx, TickerConfig{
			Name:     "test",
			Interval: 5 * time.Millisecond,
			OnTick: func(context.Context) {
				ticks.Add(1)
			},
		})
	}()

	require.Eventually(t, func() bool {
		return ticks.Load() >= 2
	}, time.Second, time.Millisecond)

	cancel()
	<-done
}

func TestTickerLoopZeroIntervalDoesNotPanic(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var ticks atomic.Int32

	done := make(chan error, 1)

	go func() {
		done <- TickerLoop(ctx, TickerConfig{
			Name:     "test",
			Interval: 0,
			OnTick: func(context.Context) {
				ticks.Add(1)
			},
			RunOnStart: true,
		})
	}()

	require.Eventually(t, func() bool {
		return ticks.Load() == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}

func TestTickerLoopRecoversFromPanic(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var ticks atomic.Int32

	done := make(chan error, 1)

	go func() {
		done <- TickerLoop(ctx, TickerConfig{
			Name:     "panicky",
			Interval: time.Hour,
			OnTick: func(context.Context) {
				ticks.Add(1)
				panic("boom")
			},
			RunOnStart: true,
		})
	}()

	require.Eventually(t, func() bool {
		return ticks.Load() == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}

func TestWait(t *testing.T) {
	assert.NoError(t, Wait(context.Background(), 0))
	assert.NoError(t, Wait(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, Wait(ctx, time.Hour), context.Canceled)
}

func TestRunWithTimeout(t *testing.T) {
	err := RunWithTimeout(context.Background(), 10*time.Millisecond, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
