package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

var (
	runsStartedTotal   atomic.Uint64
	runsCompletedTotal atomic.Uint64
	runsFailedTotal    atomic.Uint64
	runsTimedOutTotal  atomic.Uint64
	runsReceivedTotal  atomic.Uint64
	runsDroppedTotal   atomic.Uint64
	pollAttemptsTotal  atomic.Uint64
	resultRowsTotal    atomic.Uint64

	runDuration = newHistogram([]float64{10000, 30000, 60000, 120000, 300000, 600000, 1800000, 3600000})
)

// IncRunsStarted increments the started counter.
func IncRunsStarted() {
	runsStartedTotal.Add(1)
}

// IncRunsCompleted increments the completed counter.
func IncRunsCompleted() {
	runsCompletedTotal.Add(1)
}

// IncRunsFailed increments the failed counter.
func IncRunsFailed() {
	runsFailedTotal.Add(1)
}

// IncRunsTimedOut increments the poll timeout counter.
func IncRunsTimedOut() {
	runsTimedOutTotal.Add(1)
}

// IncRunsReceived counts queue messages picked up by a worker.
func IncRunsReceived() {
	runsReceivedTotal.Add(1)
}

// IncRunsDroppedUnrecoverable counts queue messages deleted without processing.
func IncRunsDroppedUnrecoverable() {
	runsDroppedTotal.Add(1)
}

// IncPollAttempts counts status queries issued while waiting on a job.
func IncPollAttempts() {
	pollAttemptsTotal.Add(1)
}

// AddResultRows counts rows written to result tables.
func AddResultRows(n int) {
	if n <= 0 {
		return
	}
	resultRowsTotal.Add(uint64(n))
}

// ObserveRunDurationMs records a run duration in milliseconds.
func ObserveRunDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	runDuration.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "bda_runs_started_total", "Total pipeline runs started", runsStartedTotal.Load())
	writeCounter(&buf, "bda_runs_completed_total", "Total pipeline runs completed", runsCompletedTotal.Load())
	writeCounter(&buf, "bda_runs_failed_total", "Total pipeline runs failed", runsFailedTotal.Load())
	writeCounter(&buf, "bda_runs_timed_out_total", "Total pipeline runs that exhausted the poll budget", runsTimedOutTotal.Load())
	writeCounter(&buf, "bda_runs_received_total", "Total run messages received by workers", runsReceivedTotal.Load())
	writeCounter(&buf, "bda_runs_dropped_total", "Total run messages dropped as unrecoverable", runsDroppedTotal.Load())
	writeCounter(&buf, "bda_poll_attempts_total", "Total job status queries", pollAttemptsTotal.Load())
	writeCounter(&buf, "bda_result_rows_total", "Total rows written to result tables", resultRowsTotal.Load())
	writeHistogram(&buf, "bda_run_duration_ms", "Pipeline run duration in milliseconds", runDuration.Snapshot())
	return buf.String()
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
	return out
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	// Observe already counts every bucket whose bound covers the value.
	for i, bound := range snap.buckets {
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), snap.counts[i])
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}
