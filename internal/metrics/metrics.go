// Package metrics declares the Prometheus collectors exported at /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const Namespace = "trip_planner"

const (
	LabelOperation = "operation"
	LabelOutcome   = "outcome"
	LabelKind      = "kind"
	LabelUpstream  = "upstream"

	OutcomeOK    = "ok"
	OutcomeError = "error"
)

var TripMutations = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name:      "trip_mutations_total",
		Help:      "Trip read-modify-write operations by operation and outcome",
		Namespace: Namespace,
	},
	[]string{LabelOperation, LabelOutcome},
)

var Subscriptions = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name:      "live_subscriptions",
		Help:      "Active live subscriptions by kind (trip, user)",
		Namespace: Namespace,
	},
	[]string{LabelKind},
)

var SnapshotsDelivered = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name:      "live_snapshots_delivered_total",
		Help:      "Snapshots queued to live subscribers by kind",
		Namespace: Namespace,
	},
	[]string{LabelKind},
)

var UpstreamRequests = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name:      "upstream_requests_total",
		Help:      "Outbound requests to weather and geocoding providers",
		Namespace: Namespace,
	},
	[]string{LabelUpstream, LabelOutcome},
)

var RateLimited = promauto.NewCounter(
	prometheus.CounterOpts{
		Name:      "rate_limited_requests_total",
		Help:      "API requests rejected by the rate limiter",
		Namespace: Namespace,
	},
)

// Outcome maps an error to the outcome label value.
func Outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeOK
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
