package stress

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stressql/stressql/internal/config"
	"github.com/stressql/stressql/internal/workload"
)

// stubEngine lets tests script query outcomes.
type stubEngine struct {
	execute func(ctx context.Context, sql string, contextPath []string) error
}

func (e *stubEngine) Execute(ctx context.Context, sql string, contextPath []string) error {
	if e.execute != nil {
		return e.execute(ctx, sql, contextPath)
	}
	return nil
}

func (e *stubEngine) Close() error { return nil }

func singleQueryPool(t *testing.T) *workload.Pool {
	t.Helper()
	pool, err := workload.BuildPool(&config.Workload{
		Queries: []config.QueryTemplate{{QueryText: "SELECT 1"}},
	})
	require.NoError(t, err)
	return pool
}

func TestDispatcherCountsOutcomes(t *testing.T) {
	qp, err := workload.BuildPool(&config.Workload{
		Queries: []config.QueryTemplate{{QueryText: "SELECT 1", Frequency: 4}},
	})
	require.NoError(t, err)

	counters := NewCounters()
	// Workers = 1 so the scripted engine sees calls serially.
	pool := NewWorkerPool(1)

	calls := 0
	engine := &stubEngine{execute: func(ctx context.Context, sql string, contextPath []string) error {
		calls++
		if calls%2 == 0 {
			return errors.New("boom")
		}
		return nil
	}}

	d := NewDispatcher(pool, 1, qp, workload.NewSequentialSequencer(qp.Size(), -1), engine, counters, 0)

	ctx, cancel := context.WithCancel(context.Background())
	go d.Run(ctx)

	assert.Eventually(t, func() bool {
		return counters.Successful.Load()+counters.Failed.Load() == 4
	}, 2*time.Second, time.Millisecond)

	d.Stop()
	cancel()
	<-d.Done()

	assert.Equal(t, int64(4), counters.Submitted.Load())
	assert.Equal(t, int64(2), counters.Successful.Load())
	assert.Equal(t, int64(2), counters.Failed.Load())
}

func TestDispatcherBackpressureHysteresis(t *testing.T) {
	qp := singleQueryPool(t)
	counters := NewCounters()
	pool := NewWorkerPool(1)

	gate := make(chan struct{})
	engine := &stubEngine{execute: func(ctx context.Context, sql string, contextPath []string) error {
		<-gate
		return nil
	}}

	d := NewDispatcher(pool, 1, qp, workload.NewRandomSequencer(qp.Size()), engine, counters, 0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	// With one blocked worker, submission pauses once queue depth exceeds
	// 10x the pool size.
	require.Eventually(t, func() bool {
		return counters.Submitted.Load() >= 11
	}, 2*time.Second, time.Millisecond)

	// Let the throttled loop settle before reading the plateau.
	var plateau int64
	require.Eventually(t, func() bool {
		cur := counters.Submitted.Load()
		settled := cur == plateau
		plateau = cur
		return settled
	}, 2*time.Second, 150*time.Millisecond)

	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, plateau, counters.Submitted.Load(), "no submissions while throttled")
	assert.LessOrEqual(t, pool.QueueDepth(), 13)

	// Unblocking the engine drains the queue below 5x pool size and
	// submission resumes.
	close(gate)
	assert.Eventually(t, func() bool {
		return counters.Submitted.Load() > plateau
	}, 2*time.Second, time.Millisecond)

	d.Stop()
	<-d.Done()
}

func TestDispatcherSequentialExhaustionStopsSubmitting(t *testing.T) {
	qp, err := workload.BuildPool(&config.Workload{
		Queries: []config.QueryTemplate{{QueryText: "SELECT 1", Frequency: 3}},
	})
	require.NoError(t, err)

	counters := NewCounters()
	pool := NewWorkerPool(2)
	seq := workload.NewSequentialSequencer(qp.Size(), -1)
	d := NewDispatcher(pool, 2, qp, seq, &stubEngine{}, counters, 0)

	ctx, cancel := context.WithCancel(context.Background())
	go d.Run(ctx)

	assert.Eventually(t, func() bool {
		return counters.Submitted.Load() == 3 && seq.Exhausted()
	}, 2*time.Second, time.Millisecond)

	// Exhausted sequencer: the loop idles without submitting further work.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int64(3), counters.Submitted.Load())

	d.Stop()
	cancel()
	<-d.Done()
	assert.True(t, pool.Shutdown(time.Second))
}

func TestDispatcherBurstSubmission(t *testing.T) {
	// A group-referencing entry submits one task per statement.
	qp, err := workload.BuildPool(&config.Workload{
		Queries: []config.QueryTemplate{{QueryGroup: "g"}},
		QueryGroups: []config.QueryGroup{{
			Name:    "g",
			Queries: []string{"SELECT 1", "SELECT 2", "SELECT 3"},
		}},
	})
	require.NoError(t, err)

	counters := NewCounters()
	pool := NewWorkerPool(2)
	seq := workload.NewSequentialSequencer(qp.Size(), -1)
	d := NewDispatcher(pool, 2, qp, seq, &stubEngine{}, counters, 0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	assert.Eventually(t, func() bool {
		return counters.Successful.Load() == 3
	}, 2*time.Second, time.Millisecond)
	assert.Equal(t, int64(3), counters.Submitted.Load())

	d.Stop()
	<-d.Done()
}
