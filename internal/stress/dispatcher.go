package stress

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/stressql/stressql/internal/protocol"
	"github.com/stressql/stressql/internal/workload"
)

const (
	// Hysteresis band for queue-depth backpressure: pause submission above
	// throttleHighFactor*poolSize, resume below throttleLowFactor*poolSize.
	throttleHighFactor = 10
	throttleLowFactor  = 5

	throttleSleep     = 100 * time.Millisecond
	exhaustionBackoff = time.Second
)

// Dispatcher owns the main run loop: it asks the sequencer for the next pool
// index, resolves the chosen template into a burst of queries, and submits
// each as an independent task to the worker pool.
type Dispatcher struct {
	pool      *WorkerPool
	poolSize  int
	queryPool *workload.Pool
	sequencer workload.Sequencer
	engine    protocol.Engine
	counters  *Counters

	// limiter caps submission rate when a max QPS is configured; nil means
	// unlimited.
	limiter *rate.Limiter

	stopped atomic.Bool
	done    chan struct{}
	log     *logrus.Entry
}

// NewDispatcher wires a dispatcher; maxQPS <= 0 disables rate limiting.
func NewDispatcher(pool *WorkerPool, poolSize int, queryPool *workload.Pool, sequencer workload.Sequencer, engine protocol.Engine, counters *Counters, maxQPS float64) *Dispatcher {
	d := &Dispatcher{
		pool:      pool,
		poolSize:  poolSize,
		queryPool: queryPool,
		sequencer: sequencer,
		engine:    engine,
		counters:  counters,
		done:      make(chan struct{}),
		log:       logrus.WithField("component", "dispatcher"),
	}
	if maxQPS > 0 {
		d.limiter = rate.NewLimiter(rate.Limit(maxQPS), 1)
	}
	return d
}

// Run executes the dispatch loop until Stop is called or the context is
// cancelled. It never submits to the pool after returning, so the caller may
// safely shut the pool down once Done is closed.
func (d *Dispatcher) Run(ctx context.Context) {
	defer close(d.done)

	for !d.stopped.Load() {
		if ctx.Err() != nil {
			return
		}

		if d.pool.QueueDepth() > throttleHighFactor*d.poolSize {
			d.throttle(ctx)
			continue
		}

		idx, ok := d.sequencer.Next()
		if !ok {
			// Sequence exhausted: stop submitting and wait for the
			// monitor to end the run while in-flight queries drain.
			sleep(ctx, exhaustionBackoff)
			continue
		}

		burst, err := workload.MapQueries(d.queryPool.Entry(idx), d.queryPool)
		if err != nil {
			// Unreachable for validated workloads; group refs are checked
			// at load time.
			d.log.WithError(err).WithField("index", idx).Error("resolving query template")
			continue
		}

		if d.limiter != nil {
			if err := d.limiter.Wait(ctx); err != nil {
				return
			}
		}

		for _, q := range burst {
			q := q
			d.counters.Submitted.Add(1)
			d.pool.Submit(func() { d.execute(ctx, q) })
		}
	}
}

// throttle sleeps until queue depth falls back below the resume threshold.
func (d *Dispatcher) throttle(ctx context.Context) {
	for !d.stopped.Load() && ctx.Err() == nil {
		if d.pool.QueueDepth() < throttleLowFactor*d.poolSize {
			return
		}
		sleep(ctx, throttleSleep)
	}
}

// execute runs one resolved query, timing the call and recording the
// outcome. Errors never propagate past this boundary and nothing is retried.
func (d *Dispatcher) execute(ctx context.Context, q workload.ResolvedQuery) {
	start := time.Now()
	err := d.engine.Execute(ctx, q.SQL, q.Context)
	if err != nil {
		d.counters.RecordFailure()
		d.log.WithError(err).Warn("query failed")
		return
	}
	d.counters.RecordSuccess(time.Since(start))
}

// Stop makes the dispatch loop exit after the current iteration.
func (d *Dispatcher) Stop() {
	d.stopped.Store(true)
}

// Done is closed once the dispatch loop has exited.
func (d *Dispatcher) Done() <-chan struct{} {
	return d.done
}

func sleep(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
