// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Ledger metrics
	UnitsTotal      *prometheus.CounterVec
	UnitDuration    *prometheus.HistogramVec
	OperationErrors *prometheus.CounterVec

	// Swap pool metrics
	SwapsTotal       *prometheus.CounterVec
	SwapQuoteVolume  *prometheus.CounterVec
	LiquidityChanges *prometheus.CounterVec
	PoolsDisabled    prometheus.Counter

	// Lifecycle metrics
	StatusTransitions *prometheus.CounterVec
	TrackedTokens     *prometheus.GaugeVec

	// Custody metrics
	Liquidations       prometheus.Counter
	LiquidatedQuote    prometheus.Counter
	PlatformFeesQuote  prometheus.Counter
	HolderPoolReserved prometheus.Counter

	// Claim metrics
	ClaimsTotal   *prometheus.CounterVec
	ClaimedAmount *prometheus.CounterVec

	// Event metrics
	EventsPublished *prometheus.CounterVec
	EventsDropped   *prometheus.CounterVec
	WSClients       prometheus.Gauge

	// Health metrics
	LastSuccessfulSweep prometheus.Gauge
	UptimeSeconds       prometheus.Counter
}

// NewMetrics creates a new Metrics instance registered with reg.
// A nil reg registers with the default registry.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "launchpad_ledger"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		// Ledger metrics
		UnitsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "units_total",
			Help:      "Total number of atomic units by operation and outcome",
		}, []string{"operation", "outcome"}),
		UnitDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "unit_duration_seconds",
			Help:      "Atomic unit duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		OperationErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "operation_errors_total",
			Help:      "Total number of rejected operations by error kind",
		}, []string{"operation", "kind"}),

		// Swap pool metrics
		SwapsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "swap",
			Name:      "swaps_total",
			Help:      "Total number of executed swaps by side",
		}, []string{"side"}),
		SwapQuoteVolume: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "swap",
			Name:      "quote_volume_total",
			Help:      "Quote-side swap volume in lamports by side",
		}, []string{"side"}),
		LiquidityChanges: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "swap",
			Name:      "liquidity_changes_total",
			Help:      "Total number of liquidity changes by operation",
		}, []string{"operation"}),
		PoolsDisabled: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "swap",
			Name:      "pools_disabled_total",
			Help:      "Total number of pools disabled by custody",
		}),

		// Lifecycle metrics
		StatusTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "lifecycle",
			Name:      "status_transitions_total",
			Help:      "Total number of lifecycle status transitions",
		}, []string{"from", "to"}),
		TrackedTokens: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "lifecycle",
			Name:      "tracked_tokens",
			Help:      "Number of tracked tokens by status, as of the last sweep",
		}, []string{"status"}),

		// Custody metrics
		Liquidations: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "custody",
			Name:      "liquidations_total",
			Help:      "Total number of vault liquidations",
		}),
		LiquidatedQuote: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "custody",
			Name:      "liquidated_quote_total",
			Help:      "Quote released from custody by liquidation, in lamports",
		}),
		PlatformFeesQuote: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "custody",
			Name:      "platform_fees_quote_total",
			Help:      "Quote sent to the treasury by liquidation, in lamports",
		}),
		HolderPoolReserved: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "custody",
			Name:      "holder_pool_reserved_total",
			Help:      "Quote reserved for holder claims by liquidation, in lamports",
		}),

		// Claim metrics
		ClaimsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "claims",
			Name:      "claims_total",
			Help:      "Total number of paid claims by distribution kind",
		}, []string{"kind"}),
		ClaimedAmount: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "claims",
			Name:      "claimed_amount_total",
			Help:      "Total amount paid out by distribution kind",
		}, []string{"kind"}),

		// Event metrics
		EventsPublished: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Total number of ledger events published by kind",
		}, []string{"kind"}),
		EventsDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "dropped_total",
			Help:      "Total number of events a sink could not accept",
		}, []string{"sink"}),
		WSClients: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "ws_clients",
			Help:      "Number of connected WebSocket subscribers",
		}),

		// Health metrics
		LastSuccessfulSweep: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_sweep_timestamp",
			Help:      "Unix timestamp of last successful lifecycle sweep",
		}),
		UptimeSeconds: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "uptime_seconds_total",
			Help:      "Total uptime in seconds",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("", nil)

// RecordUnit records the outcome and duration of an atomic unit.
// errKind is empty on success.
func RecordUnit(operation string, seconds float64, errKind string) {
	DefaultMetrics.UnitDuration.WithLabelValues(operation).Observe(seconds)
	if errKind == "" {
		DefaultMetrics.UnitsTotal.WithLabelValues(operation, "committed").Inc()
		return
	}
	DefaultMetrics.UnitsTotal.WithLabelValues(operation, "rejected").Inc()
	DefaultMetrics.OperationErrors.WithLabelValues(operation, errKind).Inc()
}

// RecordSwap records an executed swap.
func RecordSwap(side string, quoteVolume uint64) {
	DefaultMetrics.SwapsTotal.WithLabelValues(side).Inc()
	DefaultMetrics.SwapQuoteVolume.WithLabelValues(side).Add(float64(quoteVolume))
}

// RecordLiquidityChange records an add or remove of pool liquidity.
func RecordLiquidityChange(operation string) {
	DefaultMetrics.LiquidityChanges.WithLabelValues(operation).Inc()
}

// RecordPoolDisabled records a pool being disabled.
func RecordPoolDisabled() {
	DefaultMetrics.PoolsDisabled.Inc()
}

// RecordStatusTransition records a lifecycle status change.
func RecordStatusTransition(from, to string) {
	DefaultMetrics.StatusTransitions.WithLabelValues(from, to).Inc()
}

// UpdateTrackedTokens sets the per-status token gauges.
func UpdateTrackedTokens(counts map[string]int) {
	for status, n := range counts {
		DefaultMetrics.TrackedTokens.WithLabelValues(status).Set(float64(n))
	}
}

// RecordLiquidation records a liquidation and how its value was split.
func RecordLiquidation(released, platformFee, holderPool uint64) {
	DefaultMetrics.Liquidations.Inc()
	DefaultMetrics.LiquidatedQuote.Add(float64(released))
	DefaultMetrics.PlatformFeesQuote.Add(float64(platformFee))
	DefaultMetrics.HolderPoolReserved.Add(float64(holderPool))
}

// RecordClaim records a paid claim.
func RecordClaim(kind string, amount uint64) {
	DefaultMetrics.ClaimsTotal.WithLabelValues(kind).Inc()
	DefaultMetrics.ClaimedAmount.WithLabelValues(kind).Add(float64(amount))
}

// RecordEventPublished records a published ledger event.
func RecordEventPublished(kind string) {
	DefaultMetrics.EventsPublished.WithLabelValues(kind).Inc()
}

// RecordEventDropped records an event a sink could not accept.
func RecordEventDropped(sink string) {
	DefaultMetrics.EventsDropped.WithLabelValues(sink).Inc()
}

// SetWSClients sets the connected WebSocket subscriber gauge.
func SetWSClients(n int) {
	DefaultMetrics.WSClients.Set(float64(n))
}

// RecordSweep records a completed lifecycle sweep.
func RecordSweep(unixSeconds int64) {
	DefaultMetrics.LastSuccessfulSweep.Set(float64(unixSeconds))
}
