// Package metrics exposes Prometheus collectors for parcel verification and
// the HTTP boundary.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "parcel"

const unmatchedRoute = "unmatched"

// Verification outcomes.
const (
	OutcomeAccepted  = "accepted"
	OutcomeRejected  = "rejected"
	OutcomeMalformed = "malformed"
	OutcomeError     = "error"
)

var (
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Latency of HTTP requests by route pattern",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.05, 0.25, 1},
		},
		[]string{"method", "route", "status"},
	)

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route pattern and status",
		},
		[]string{"method", "route", "status"},
	)

	httpResponseBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_response_size_bytes",
			Help:      "Size of HTTP response bodies by route pattern",
			Buckets:   prometheus.ExponentialBuckets(64, 4, 6),
		},
		[]string{"route"},
	)

	verificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verifications_total",
			Help:      "Total parcel verifications by outcome",
		},
		[]string{"outcome"},
	)

	verificationScore = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "verification_score",
			Help:      "Integrity score of reconciled parcels",
			Buckets:   prometheus.LinearBuckets(0, 10, 11),
		},
	)

	findingsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verification_findings_total",
			Help:      "Reconciliation findings by severity",
		},
		[]string{"severity"},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestDuration,
		httpRequestsTotal,
		httpResponseBytes,
		verificationsTotal,
		verificationScore,
		findingsTotal,
	)
}

// ObserveMalformed counts a submission refused by structural validation.
func ObserveMalformed() {
	verificationsTotal.WithLabelValues(OutcomeMalformed).Inc()
}

// ObserveReconciled counts a reconciled submission with its score and findings.
func ObserveReconciled(accepted bool, score, errs, warnings int) {
	outcome := OutcomeRejected
	if accepted {
		outcome = OutcomeAccepted
	}
	verificationsTotal.WithLabelValues(outcome).Inc()
	verificationScore.Observe(float64(score))
	findingsTotal.WithLabelValues("error").Add(float64(errs))
	findingsTotal.WithLabelValues("warning").Add(float64(warnings))
}

// ObserveError counts a verification that failed outside the engine,
// such as an unreadable input file.
func ObserveError() {
	verificationsTotal.WithLabelValues(OutcomeError).Inc()
}
