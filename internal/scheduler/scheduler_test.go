package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryRunsJobAtStartAndOnTicks(t *testing.T) {
	var runs atomic.Int64

	r := NewRegistry(zerolog.Nop())
	r.Add(Job{
		Name:       "tick",
		Interval:   10 * time.Millisecond,
		RunAtStart: true,
		Run: func(ctx context.Context) error {
			runs.Add(1)
			return nil
		},
	})

	r.Start()
	require.Eventually(t, func() bool { return runs.Load() >= 3 }, time.Second, time.Millisecond)

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, r.Stop(stopCtx))
}

func TestRegistryWaitsForFirstInterval(t *testing.T) {
	var runs atomic.Int64

	r := NewRegistry(zerolog.Nop())
	r.Add(Job{
		Name:     "delayed",
		Interval: time.Hour,
		Run: func(ctx context.Context) error {
			runs.Add(1)
			return nil
		},
	})

	r.Start()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int64(0), runs.Load())

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, r.Stop(stopCtx))
}

func TestRegistryFailingJobKeepsTicking(t *testing.T) {
	var runs atomic.Int64

	r := NewRegistry(zerolog.Nop())
	r.Add(Job{
		Name:     "flaky",
		Interval: 10 * time.Millisecond,
		Run: func(ctx context.Context) error {
			runs.Add(1)
			return errors.New("boom")
		},
	})

	r.Start()
	require.Eventually(t, func() bool { return runs.Load() >= 2 }, time.Second, time.Millisecond)

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, r.Stop(stopCtx))
}

func TestRegistryRecoversFromPanickingJob(t *testing.T) {
	var runs atomic.Int64

	r := NewRegistry(zerolog.Nop())
	r.Add(Job{
		Name:       "panicky",
		Interval:   10 * time.Millisecond,
		RunAtStart: true,
		Run: func(ctx context.Context) error {
			runs.Add(1)
			panic("unexpected")
		},
	})

	r.Start()
	require.Eventually(t, func() bool { return runs.Load() >= 2 }, time.Second, time.Millisecond)

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, r.Stop(stopCtx))
}

func TestRegistryStopCancelsRunningJob(t *testing.T) {
	started := make(chan struct{})

	r := NewRegistry(zerolog.Nop())
	r.Add(Job{
		Name:       "blocked",
		Interval:   time.Hour,
		RunAtStart: true,
		Run: func(ctx context.Context) error {
			close(started)
			<-ctx.Done()
			return ctx.Err()
		},
	})

	r.Start()
	<-started

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, r.Stop(stopCtx))
}

func TestRegistryStopWithoutStart(t *testing.T) {
	r := NewRegistry(zerolog.Nop())
	require.NoError(t, r.Stop(context.Background()))
}
