package stress

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/stressql/stressql/internal/protocol"
	"github.com/stressql/stressql/internal/workload"
)

// Config holds the run settings consumed by the stress engine.
type Config struct {
	// MaxInFlight is the worker pool size.
	MaxInFlight int

	// Duration is the target wall-clock run time.
	Duration time.Duration

	// MaxQPS caps submission rate; <= 0 means unlimited.
	MaxQPS float64

	// JSONSummaryPath, when set, receives the final summary as JSON.
	JSONSummaryPath string

	// ReportInterval and MonitorInterval default to 5s; GracefulStop to 10s.
	ReportInterval  time.Duration
	MonitorInterval time.Duration
	GracefulStop    time.Duration

	// Out receives progress lines and the final summary; defaults to stdout.
	Out io.Writer
}

func (c *Config) applyDefaults() {
	if c.MaxInFlight < 1 {
		c.MaxInFlight = 1
	}
	if c.ReportInterval <= 0 {
		c.ReportInterval = 5 * time.Second
	}
	if c.MonitorInterval <= 0 {
		c.MonitorInterval = 5 * time.Second
	}
	if c.GracefulStop <= 0 {
		c.GracefulStop = 10 * time.Second
	}
	if c.Out == nil {
		c.Out = os.Stdout
	}
}

// Runner wires the dispatcher, monitor, and reporter for one run.
type Runner struct {
	cfg       Config
	queryPool *workload.Pool
	sequencer workload.Sequencer
	engine    protocol.Engine
	log       *logrus.Entry
}

// NewRunner creates a runner over an already-built pool, sequencer, and
// connected engine.
func NewRunner(cfg Config, queryPool *workload.Pool, sequencer workload.Sequencer, engine protocol.Engine) *Runner {
	cfg.applyDefaults()
	return &Runner{
		cfg:       cfg,
		queryPool: queryPool,
		sequencer: sequencer,
		engine:    engine,
		log:       logrus.WithField("component", "runner"),
	}
}

// Run executes one stress run and blocks until it has shut down. Cancelling
// ctx ends the run through the same graceful-then-forced path as the
// duration and exhaustion triggers.
func (r *Runner) Run(ctx context.Context) error {
	counters := NewCounters()

	runCtx, force := context.WithCancel(ctx)
	defer force()

	pool := NewWorkerPool(r.cfg.MaxInFlight)
	dispatcher := NewDispatcher(pool, r.cfg.MaxInFlight, r.queryPool, r.sequencer, r.engine, counters, r.cfg.MaxQPS)
	reporter := NewReporter(counters, r.sequencer, r.cfg.Duration, r.cfg.ReportInterval, r.cfg.Out)
	monitor := NewMonitor(r.cfg.MonitorInterval, r.cfg.Duration, r.cfg.GracefulStop, r.sequencer, dispatcher, pool, force)

	r.log.WithFields(logrus.Fields{
		"workers":  r.cfg.MaxInFlight,
		"duration": r.cfg.Duration,
		"pool":     r.queryPool.Size(),
	}).Info("starting stress run")

	reportCtx, stopReporting := context.WithCancel(context.Background())
	defer stopReporting()
	reporterDone := make(chan struct{})
	go func() {
		defer close(reporterDone)
		reporter.Run(reportCtx)
	}()
	go monitor.Run(ctx)

	dispatcher.Run(runCtx)
	<-monitor.Done()

	stopReporting()
	<-reporterDone
	reporter.Final()

	if r.cfg.JSONSummaryPath != "" {
		if err := reporter.WriteJSONSummary(r.cfg.JSONSummaryPath); err != nil {
			return fmt.Errorf("writing JSON summary: %w", err)
		}
	}
	return nil
}
