// Package metrics exposes the dashboard's Prometheus instruments.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Fetch outcomes.
const (
	OutcomeSuccess    = "success"
	OutcomeError      = "error"
	OutcomeAborted    = "aborted"
	OutcomeSuperseded = "superseded"
)

// Identity resolution outcomes.
const (
	IdentityAnonymous   = "anonymous"
	IdentityProfile     = "profile"
	IdentitySynthesized = "synthesized"
	IdentityFailed      = "failed"
)

var (
	namespace = "dashboard"

	fetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_total",
			Help:      "Resource fetches by resource and outcome",
		},
		[]string{"resource", "outcome"},
	)

	fetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Time from activation to applied result",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"resource"},
	)

	identityTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "identity_resolutions_total",
			Help:      "Identity resolutions by outcome",
		},
		[]string{"outcome"},
	)

	boardRefreshTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "board_refresh_total",
			Help:      "Scheduled reference-data refreshes",
		},
	)

	activeSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Signed-in dashboard sessions",
		},
	)
)

// RecordFetch counts one fetch outcome. Durations are only observed for
// outcomes that were applied to state.
func RecordFetch(resource, outcome string, duration time.Duration) {
	fetchTotal.WithLabelValues(resource, outcome).Inc()
	if outcome == OutcomeSuccess || outcome == OutcomeError {
		fetchDuration.WithLabelValues(resource).Observe(duration.Seconds())
	}
}

// RecordIdentity counts one identity resolution outcome.
func RecordIdentity(outcome string) {
	identityTotal.WithLabelValues(outcome).Inc()
}

// IncBoardRefresh counts one scheduled board refresh.
func IncBoardRefresh() {
	boardRefreshTotal.Inc()
}

// SetActiveSessions reports the current number of signed-in sessions.
func SetActiveSessions(n int) {
	activeSessions.Set(float64(n))
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
