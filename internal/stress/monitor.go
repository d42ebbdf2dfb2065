package stress

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/stressql/stressql/internal/workload"
)

// Monitor is the run's completion watchdog. It wakes on a fixed interval and
// ends the run once the target duration has elapsed or, in sequential mode,
// the sequencer is exhausted. Exactly one shutdown sequence runs per run:
// stop the dispatcher, drain the pool within a graceful window, then
// force-cancel whatever remains.
type Monitor struct {
	interval   time.Duration
	duration   time.Duration
	graceful   time.Duration
	start      time.Time
	sequencer  workload.Sequencer
	dispatcher *Dispatcher
	pool       *WorkerPool

	// force cancels the context all worker tasks execute under.
	force context.CancelFunc

	shutdownOnce sync.Once
	done         chan struct{}
	log          *logrus.Entry
}

// NewMonitor creates a monitor; Run must be started before the dispatch loop
// can be ended.
func NewMonitor(interval, duration, graceful time.Duration, sequencer workload.Sequencer, dispatcher *Dispatcher, pool *WorkerPool, force context.CancelFunc) *Monitor {
	return &Monitor{
		interval:   interval,
		duration:   duration,
		graceful:   graceful,
		start:      time.Now(),
		sequencer:  sequencer,
		dispatcher: dispatcher,
		pool:       pool,
		force:      force,
		done:       make(chan struct{}),
		log:        logrus.WithField("component", "monitor"),
	}
}

// Run blocks until the run ends. Context cancellation (signal handling)
// triggers the same shutdown sequence as the duration/exhaustion checks.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.log.Info("run cancelled, shutting down")
			m.shutdown()
			return
		case <-ticker.C:
			if elapsed := time.Since(m.start); elapsed >= m.duration {
				m.log.WithField("elapsed", elapsed.Round(time.Second)).Info("target duration reached")
				m.shutdown()
				return
			}
			if m.sequencer.Exhausted() {
				m.log.Info("query sequence exhausted")
				m.shutdown()
				return
			}
		}
	}
}

func (m *Monitor) shutdown() {
	m.shutdownOnce.Do(func() {
		m.dispatcher.Stop()
		<-m.dispatcher.Done()

		if !m.pool.Shutdown(m.graceful) {
			m.log.Warnf("workers did not drain within %s, forcing termination", m.graceful)
			m.force()
			m.pool.Wait()
		}
		close(m.done)
	})
}

// Done is closed once the shutdown sequence has completed.
func (m *Monitor) Done() <-chan struct{} {
	return m.done
}
