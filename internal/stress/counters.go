package stress

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Counters holds the run's shared metrics. Counter fields are mutated by
// every worker via atomic increments and read concurrently by the reporter
// and monitor; the latency histogram has its own mutex since HDR recording
// is not thread-safe. One Counters value lives for exactly one run and is
// constructor-injected into dispatcher, monitor, and reporter.
type Counters struct {
	Submitted  atomic.Int64
	Successful atomic.Int64
	Failed     atomic.Int64

	// SuccessfulMillis accumulates wall-clock time of successful queries.
	SuccessfulMillis atomic.Int64

	histMu sync.Mutex
	hist   *hdrhistogram.Histogram
}

// histogram range: 1ms to 1h, 3 significant figures.
const (
	histMinMillis = 1
	histMaxMillis = 3600000
)

// NewCounters creates a zeroed Counters for one run.
func NewCounters() *Counters {
	return &Counters{
		hist: hdrhistogram.New(histMinMillis, histMaxMillis, 3),
	}
}

// RecordSuccess counts one successful query and records its latency.
func (c *Counters) RecordSuccess(elapsed time.Duration) {
	millis := elapsed.Milliseconds()
	c.Successful.Add(1)
	c.SuccessfulMillis.Add(millis)

	if millis < histMinMillis {
		millis = histMinMillis
	}
	if millis > histMaxMillis {
		millis = histMaxMillis
	}
	c.histMu.Lock()
	c.hist.RecordValue(millis)
	c.histMu.Unlock()
}

// RecordFailure counts one failed query.
func (c *Counters) RecordFailure() {
	c.Failed.Add(1)
}

// LatencyStats contains latency percentiles over successful queries, in
// milliseconds.
type LatencyStats struct {
	Mean float64 `json:"meanMs"`
	P50  int64   `json:"p50Ms"`
	P95  int64   `json:"p95Ms"`
	P99  int64   `json:"p99Ms"`
	Max  int64   `json:"maxMs"`
}

// Latencies returns percentiles over all successful queries so far.
func (c *Counters) Latencies() LatencyStats {
	c.histMu.Lock()
	defer c.histMu.Unlock()

	return LatencyStats{
		Mean: c.hist.Mean(),
		P50:  c.hist.ValueAtQuantile(50),
		P95:  c.hist.ValueAtQuantile(95),
		P99:  c.hist.ValueAtQuantile(99),
		Max:  c.hist.Max(),
	}
}
