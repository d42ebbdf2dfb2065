package stress

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stressql/stressql/internal/workload"
)

func TestRunnerCompletesDuration(t *testing.T) {
	qp := singleQueryPool(t)
	var buf bytes.Buffer

	summaryPath := filepath.Join(t.TempDir(), "summary.json")
	runner := NewRunner(Config{
		MaxInFlight:     2,
		Duration:        60 * time.Millisecond,
		MonitorInterval: 10 * time.Millisecond,
		ReportInterval:  20 * time.Millisecond,
		GracefulStop:    time.Second,
		JSONSummaryPath: summaryPath,
		Out:             &buf,
	}, qp, workload.NewRandomSequencer(qp.Size()), &stubEngine{})

	require.NoError(t, runner.Run(context.Background()))

	out := buf.String()
	assert.Contains(t, out, "Run summary")
	assert.FileExists(t, summaryPath)
}

func TestRunnerSequentialRunEndsOnExhaustion(t *testing.T) {
	qp := singleQueryPool(t)
	seq := workload.NewSequentialSequencer(qp.Size(), -1)
	var buf bytes.Buffer

	runner := NewRunner(Config{
		MaxInFlight:     2,
		Duration:        time.Hour,
		MonitorInterval: 10 * time.Millisecond,
		Out:             &buf,
	}, qp, seq, &stubEngine{})

	done := make(chan error, 1)
	go func() { done <- runner.Run(context.Background()) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("run did not end after sequence exhaustion")
	}
	assert.Contains(t, buf.String(), "Submitted:     1")
}

func TestRunnerCancelledByCaller(t *testing.T) {
	qp := singleQueryPool(t)
	var buf bytes.Buffer

	runner := NewRunner(Config{
		MaxInFlight:     2,
		Duration:        time.Hour,
		MonitorInterval: 10 * time.Millisecond,
		Out:             &buf,
	}, qp, workload.NewRandomSequencer(qp.Size()), &stubEngine{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runner.Run(ctx) }()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("cancellation did not end the run")
	}
}
