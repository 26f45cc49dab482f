package notifier

import (
	"sync/atomic"
	"time"
)

type ServiceMetrics struct {
	totalDelivered  int64
	totalFailed     int64
	totalSkipped    int64
	totalDurationNs int64
	lastResetNs     int64
}

func NewServiceMetrics() *ServiceMetrics {
	return &ServiceMetrics{
		lastResetNs: time.Now().UnixNano(),
	}
}

func (m *ServiceMetrics) RecordDelivery(duration time.Duration) {
	atomic.AddInt64(&m.totalDelivered, 1)
	atomic.AddInt64(&m.totalDurationNs, int64(duration))
}

func (m *ServiceMetrics) RecordFailure() {
	atomic.AddInt64(&m.totalFailed, 1)
}

// RecordSkip counts events dropped on purpose: already delivered, or
// the seller has no webhook configured.
func (m *ServiceMetrics) RecordSkip() {
	atomic.AddInt64(&m.totalSkipped, 1)
}

func (m *ServiceMetrics) GetStats() map[string]interface{} {
	delivered := atomic.LoadInt64(&m.totalDelivered)
	failed := atomic.LoadInt64(&m.totalFailed)
	skipped := atomic.LoadInt64(&m.totalSkipped)
	durationNs := atomic.LoadInt64(&m.totalDurationNs)
	lastResetNs := atomic.LoadInt64(&m.lastResetNs)

	elapsed := time.Since(time.Unix(0, lastResetNs)).Seconds()

	rate := 0.0
	if elapsed > 0 {
		rate = float64(delivered) / elapsed
	}

	avgDuration := time.Duration(0)
	if delivered > 0 {
		avgDuration = time.Duration(durationNs / delivered)
	}

	return map[string]interface{}{
		"total_delivered": delivered,
		"total_failed":    failed,
		"total_skipped":   skipped,
		"rate_per_second": rate,
		"avg_duration_ms": avgDuration.Milliseconds(),
		"uptime_seconds":  elapsed,
	}
}

func (m *ServiceMetrics) Reset() {
	atomic.StoreInt64(&m.totalDelivered, 0)
	atomic.StoreInt64(&m.totalFailed, 0)
	atomic.StoreInt64(&m.totalSkipped, 0)
	atomic.StoreInt64(&m.totalDurationNs, 0)
	atomic.StoreInt64(&m.lastResetNs, time.Now().UnixNano())
}
