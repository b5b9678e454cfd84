package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Conversation API metrics
var (
	// HTTP
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jan",
			Subsystem: "conversation_api",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "jan",
			Subsystem: "conversation_api",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "route", "status"},
	)

	// Tree operations
	OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jan",
			Subsystem: "conversation_api",
			Name:      "operations_total",
			Help:      "Conversation tree operations by outcome",
		},
		[]string{"operation", "status"},
	)

	TranscriptLength = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "jan",
			Subsystem: "conversation_api",
			Name:      "transcript_length",
			Help:      "Number of messages on a resolved branch",
			Buckets:   []float64{1, 2, 5, 10, 20, 50, 100, 250, 500},
		},
	)

	PrunedMessagesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "jan",
			Subsystem: "conversation_api",
			Name:      "pruned_messages_total",
			Help:      "Messages deleted by rewind",
		},
	)

	// Pointer reconciler
	PointersReconciledTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jan",
			Subsystem: "conversation_api",
			Name:      "pointers_reconciled_total",
			Help:      "Current-node pointers repaired by the reconciler",
		},
		[]string{"kind"},
	)

	// Sharing
	SharesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jan",
			Subsystem: "conversation_api",
			Name:      "shares_total",
			Help:      "Share create/revoke attempts",
		},
		[]string{"action", "status"},
	)

	PublicShareRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jan",
			Subsystem: "conversation_api",
			Name:      "public_share_requests_total",
			Help:      "Public share fetch requests",
		},
		[]string{"status"},
	)
)

// RecordRequest records an HTTP request with all relevant labels
func RecordRequest(method, route, status string, durationSec float64) {
	if route == "" {
		route = "unmatched"
	}
	HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, route, status).Observe(durationSec)
}

// RecordOperation records the outcome of a tree operation
func RecordOperation(operation string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	OperationsTotal.WithLabelValues(operation, status).Inc()
}

func ObserveTranscriptLength(n int) {
	TranscriptLength.Observe(float64(n))
}

func AddPrunedMessages(n int64) {
	if n > 0 {
		PrunedMessagesTotal.Add(float64(n))
	}
}

// RecordReconcile records one reconciler pass
func RecordReconcile(danglingCleared, settled, failed int) {
	PointersReconciledTotal.WithLabelValues("dangling").Add(float64(danglingCleared))
	PointersReconciledTotal.WithLabelValues("settled").Add(float64(settled))
	PointersReconciledTotal.WithLabelValues("failed").Add(float64(failed))
}

// RecordShare records a share create/revoke attempt
func RecordShare(action, status string) {
	if action == "" {
		action = "unknown"
	}
	if status == "" {
		status = "unknown"
	}
	SharesTotal.WithLabelValues(action, status).Inc()
}

// RecordPublicShareRequest records a public share GET
func RecordPublicShareRequest(status string) {
	if status == "" {
		status = "unknown"
	}
	PublicShareRequestsTotal.WithLabelValues(status).Inc()
}
