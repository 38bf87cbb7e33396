package telemetry

import (
	"sync"
	"sync/atomic"
	"time"
)

// Metrics collects reliability-layer counters.
type Metrics struct {
	mu sync.RWMutex

	// Counters
	Detections        int64
	CompletionsRouted int64
	PendingReviews    int64
	Skips             int64
	FailuresDetected  int64
	RecoveriesStarted int64
	RecoveriesOK      int64
	RecoveriesFailed  int64
	EventsDropped     int64

	// Histograms (simplified)
	recoveryDurations []time.Duration

	// Exporter (optional)
	exporter MetricsExporter
}

// NewMetrics creates a new metrics collector.
func NewMetrics() *Metrics {
	return &Metrics{
		recoveryDurations: make([]time.Duration, 0, 1000),
	}
}

// IncDetections increments the keyword detection counter.
func (m *Metrics) IncDetections() {
	atomic.AddInt64(&m.Detections, 1)
}

// IncCompletionsRouted increments the auto-completed task counter.
func (m *Metrics) IncCompletionsRouted() {
	atomic.AddInt64(&m.CompletionsRouted, 1)
}

// IncPendingReviews increments the flagged-for-review counter.
func (m *Metrics) IncPendingReviews() {
	atomic.AddInt64(&m.PendingReviews, 1)
}

// IncSkips increments the skipped-signal counter.
func (m *Metrics) IncSkips() {
	atomic.AddInt64(&m.Skips, 1)
}

// IncFailuresDetected increments the classified-failure counter.
func (m *Metrics) IncFailuresDetected() {
	atomic.AddInt64(&m.FailuresDetected, 1)
}

// IncRecoveriesStarted increments the recovery-attempt counter.
func (m *Metrics) IncRecoveriesStarted() {
	atomic.AddInt64(&m.RecoveriesStarted, 1)
}

// IncRecoveriesOK increments the successful-recovery counter.
func (m *Metrics) IncRecoveriesOK() {
	atomic.AddInt64(&m.RecoveriesOK, 1)
}

// IncRecoveriesFailed increments the exhausted-recovery counter.
func (m *Metrics) IncRecoveriesFailed() {
	atomic.AddInt64(&m.RecoveriesFailed, 1)
}

// IncEventsDropped increments the counter of audit writes lost to store outages.
func (m *Metrics) IncEventsDropped() {
	atomic.AddInt64(&m.EventsDropped, 1)
}

// RecordRecoveryDuration records the wall time of a full fallback chain.
func (m *Metrics) RecordRecoveryDuration(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recoveryDurations = append(m.recoveryDurations, d)
}

// GetSummary returns a summary of collected metrics.
func (m *Metrics) GetSummary() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	summary := map[string]interface{}{
		"detections":         atomic.LoadInt64(&m.Detections),
		"completions_routed": atomic.LoadInt64(&m.CompletionsRouted),
		"pending_reviews":    atomic.LoadInt64(&m.PendingReviews),
		"skips":              atomic.LoadInt64(&m.Skips),
		"failures_detected":  atomic.LoadInt64(&m.FailuresDetected),
		"recoveries_started": atomic.LoadInt64(&m.RecoveriesStarted),
		"recoveries_ok":      atomic.LoadInt64(&m.RecoveriesOK),
		"recoveries_failed":  atomic.LoadInt64(&m.RecoveriesFailed),
		"events_dropped":     atomic.LoadInt64(&m.EventsDropped),
	}

	if len(m.recoveryDurations) > 0 {
		var total time.Duration
		for _, d := range m.recoveryDurations {
			total += d
		}
		summary["avg_recovery_duration_ms"] = total.Milliseconds() / int64(len(m.recoveryDurations))
	}

	return summary
}

// Reset resets all metrics.
func (m *Metrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	atomic.StoreInt64(&m.Detections, 0)
	atomic.StoreInt64(&m.CompletionsRouted, 0)
	atomic.StoreInt64(&m.PendingReviews, 0)
	atomic.StoreInt64(&m.Skips, 0)
	atomic.StoreInt64(&m.FailuresDetected, 0)
	atomic.StoreInt64(&m.RecoveriesStarted, 0)
	atomic.StoreInt64(&m.RecoveriesOK, 0)
	atomic.StoreInt64(&m.RecoveriesFailed, 0)
	atomic.StoreInt64(&m.EventsDropped, 0)

	m.recoveryDurations = m.recoveryDurations[:0]
}

// SetExporter attaches a metrics exporter.
func (m *Metrics) SetExporter(e MetricsExporter) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exporter = e
}

// Flush exports the current metrics snapshot with the given event label.
func (m *Metrics) Flush(event string, labels map[string]string) {
	m.mu.RLock()
	exporter := m.exporter
	m.mu.RUnlock()

	if exporter == nil {
		return
	}

	snapshot := MetricsSnapshot{
		Timestamp: time.Now(),
		Event:     event,
		Metrics:   m.GetSummary(),
		Labels:    labels,
	}
	// Best-effort export.
	_ = exporter.Export(snapshot)
}
