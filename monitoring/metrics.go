package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	scansTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kiosk_scans_total",
			Help: "Total scans processed, by outcome",
		},
		[]string{"terminal_id", "outcome"},
	)

	transitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kiosk_transitions_total",
			Help: "Booking transitions attempted, by action and result",
		},
		[]string{"terminal_id", "action", "result"},
	)

	pendingQueueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "kiosk_pending_operations",
			Help: "Current depth of the pending-operation queue",
		},
		[]string{"terminal_id"},
	)

	retryAttempts = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kiosk_store_write_attempts",
			Help:    "Attempts needed per booking-store write",
			Buckets: prometheus.LinearBuckets(1, 1, 5),
		},
		[]string{"terminal_id"},
	)

	sessionRestarts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kiosk_session_restarts_total",
			Help: "Scanning-session restarts performed by the health monitor",
		},
		[]string{"terminal_id", "reason"},
	)

	memoryUsage = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "kiosk_memory_usage_bytes",
			Help: "Heap in use as sampled on the last heartbeat",
		},
		[]string{"terminal_id"},
	)
)

// Monitor labels every series with the owning terminal; each kiosk is a
// single-tenant process, so one Monitor per process.
type Monitor struct {
	terminalID string
}

func NewMonitor(terminalID string) *Monitor {
	return &Monitor{terminalID: terminalID}
}

func (m *Monitor) TrackScan(outcome string) {
	scansTotal.WithLabelValues(m.terminalID, outcome).Inc()
}

func (m *Monitor) TrackTransition(action, result string) {
	transitionsTotal.WithLabelValues(m.terminalID, action, result).Inc()
}

func (m *Monitor) SetPendingDepth(depth int) {
	pendingQueueDepth.WithLabelValues(m.terminalID).Set(float64(depth))
}

func (m *Monitor) TrackWriteAttempts(attempts int) {
	retryAttempts.WithLabelValues(m.terminalID).Observe(float64(attempts))
}

func (m *Monitor) TrackRestart(reason string) {
	sessionRestarts.WithLabelValues(m.terminalID, reason).Inc()
}

func (m *Monitor) SetMemoryUsage(bytes uint64) {
	memoryUsage.WithLabelValues(m.terminalID).Set(float64(bytes))
}
