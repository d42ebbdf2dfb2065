package stress

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/stressql/stressql/internal/workload"
)

// Reporter prints a progress line on a fixed interval and one final summary
// at the end of the run. Progress lines show both cumulative totals and
// this-interval deltas; the final summary covers the whole run, including
// latency percentiles over successful queries.
type Reporter struct {
	counters  *Counters
	sequencer workload.Sequencer
	duration  time.Duration
	interval  time.Duration
	start     time.Time
	out       io.Writer
	useColor  bool

	// previous-tick totals; only touched by the reporter goroutine.
	lastSuccessful int64
	lastFailed     int64
}

// NewReporter creates a reporter writing to out. Color is enabled only when
// out is a terminal.
func NewReporter(counters *Counters, sequencer workload.Sequencer, duration, interval time.Duration, out io.Writer) *Reporter {
	useColor := false
	if f, ok := out.(*os.File); ok {
		useColor = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &Reporter{
		counters:  counters,
		sequencer: sequencer,
		duration:  duration,
		interval:  interval,
		start:     time.Now(),
		out:       out,
		useColor:  useColor,
	}
}

// Run prints progress lines until the context is cancelled.
func (r *Reporter) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.progressLine()
		}
	}
}

func (r *Reporter) progressLine() {
	submitted := r.counters.Submitted.Load()
	successful := r.counters.Successful.Load()
	failed := r.counters.Failed.Load()

	succDelta := successful - r.lastSuccessful
	failDelta := failed - r.lastFailed
	r.lastSuccessful = successful
	r.lastFailed = failed

	rate := float64(succDelta) / r.interval.Seconds()
	failurePct := 0.0
	if succDelta+failDelta > 0 {
		failurePct = 100 * float64(failDelta) / float64(succDelta+failDelta)
	}

	line := fmt.Sprintf("queries submitted=%d successful=%s failed=%s | interval %s/s, %s failures | elapsed %s/%s",
		submitted,
		r.colorize(fmt.Sprintf("%d", successful), color.FgGreen),
		r.colorize(fmt.Sprintf("%d", failed), color.FgRed),
		fmt.Sprintf("%.1f", rate),
		fmt.Sprintf("%.1f%%", failurePct),
		time.Since(r.start).Round(time.Second),
		r.duration,
	)
	if pos := r.sequencer.Position(); pos >= 0 {
		line += fmt.Sprintf(" [index %d]", pos)
	}
	fmt.Fprintln(r.out, line)
}

// Summary is the final report over the whole run.
type Summary struct {
	Submitted      int64        `json:"submitted"`
	Successful     int64        `json:"successful"`
	Failed         int64        `json:"failed"`
	ElapsedSeconds float64      `json:"elapsedSeconds"`
	QueriesPerSec  float64      `json:"queriesPerSecond"`
	FailurePct     float64      `json:"failurePercent"`
	AvgQueryMillis float64      `json:"avgQueryMillis"`
	Latency        LatencyStats `json:"latency"`
}

// BuildSummary computes the whole-run summary from the counters.
func (r *Reporter) BuildSummary() Summary {
	submitted := r.counters.Submitted.Load()
	successful := r.counters.Successful.Load()
	failed := r.counters.Failed.Load()
	elapsed := time.Since(r.start)

	s := Summary{
		Submitted:      submitted,
		Successful:     successful,
		Failed:         failed,
		ElapsedSeconds: elapsed.Seconds(),
		Latency:        r.counters.Latencies(),
	}
	if elapsed > 0 {
		s.QueriesPerSec = float64(successful) / elapsed.Seconds()
	}
	if successful+failed > 0 {
		s.FailurePct = 100 * float64(failed) / float64(successful+failed)
	}
	if successful > 0 {
		s.AvgQueryMillis = float64(r.counters.SuccessfulMillis.Load()) / float64(successful)
	}
	return s
}

// Final prints the end-of-run summary.
func (r *Reporter) Final() {
	s := r.BuildSummary()

	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, r.colorize("==== Run summary ====", color.Bold))
	fmt.Fprintf(r.out, "Duration:      %s (target %s)\n", (time.Duration(s.ElapsedSeconds * float64(time.Second))).Round(time.Second), r.duration)
	fmt.Fprintf(r.out, "Submitted:     %d\n", s.Submitted)
	fmt.Fprintf(r.out, "Successful:    %s\n", r.colorize(fmt.Sprintf("%d", s.Successful), color.FgGreen))
	fmt.Fprintf(r.out, "Failed:        %s (%.1f%%)\n", r.colorize(fmt.Sprintf("%d", s.Failed), color.FgRed), s.FailurePct)
	fmt.Fprintf(r.out, "Throughput:    %.1f successful/s\n", s.QueriesPerSec)
	if s.Successful > 0 {
		fmt.Fprintf(r.out, "Latency (ms):  avg=%.1f p50=%d p95=%d p99=%d max=%d\n",
			s.AvgQueryMillis, s.Latency.P50, s.Latency.P95, s.Latency.P99, s.Latency.Max)
	}
}

// WriteJSONSummary writes the final summary as JSON to path.
func (r *Reporter) WriteJSONSummary(path string) error {
	data, err := json.MarshalIndent(r.BuildSummary(), "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}

func (r *Reporter) colorize(s string, attr color.Attribute) string {
	if !r.useColor {
		return s
	}
	return color.New(attr).Sprint(s)
}
