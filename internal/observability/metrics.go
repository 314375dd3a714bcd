// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Bank linking metrics
	LinkTokensIssued prometheus.Counter
	ExchangesTotal   *prometheus.CounterVec // outcome: success|error
	BalanceRefreshes prometheus.Counter
	AggregatorErrors *prometheus.CounterVec // kind: configuration|upstream

	// Minting metrics
	MintsTotal   *prometheus.CounterVec // outcome: completed|failed|pending
	MintDuration prometheus.Histogram
	PendingMints prometheus.Gauge
	Reconciled   *prometheus.CounterVec // outcome: completed|failed

	// Latency metrics
	RPCCallLatency      *prometheus.HistogramVec // method
	HTTPRequestDuration *prometheus.HistogramVec // route, status

	// Database metrics
	DBQueryErrors *prometheus.CounterVec // store
}

// NewMetrics creates a Metrics instance registered on the default
// registry.
func NewMetrics(namespace string) *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer, namespace)
}

// NewMetricsWith creates a Metrics instance registered on reg. Tests use
// a fresh registry to avoid duplicate registration.
func NewMetricsWith(reg prometheus.Registerer, namespace string) *Metrics {
	if namespace == "" {
		namespace = "stablemint"
	}
	factory := promauto.With(reg)

	return &Metrics{
		LinkTokensIssued: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "banklink",
			Name:      "link_tokens_issued_total",
			Help:      "Total number of link tokens issued",
		}),
		ExchangesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "banklink",
			Name:      "exchanges_total",
			Help:      "Total number of public token exchanges by outcome",
		}, []string{"outcome"}),
		BalanceRefreshes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "banklink",
			Name:      "balance_refreshes_total",
			Help:      "Total number of live balance refreshes",
		}),
		AggregatorErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "banklink",
			Name:      "aggregator_errors_total",
			Help:      "Total number of aggregator failures by kind",
		}, []string{"kind"}),

		MintsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "minting",
			Name:      "mints_total",
			Help:      "Total number of mint attempts by outcome",
		}, []string{"outcome"}),
		MintDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "minting",
			Name:      "mint_duration_seconds",
			Help:      "Duration of the mint pipeline from build to confirmation",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		}),
		PendingMints: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "minting",
			Name:      "pending_records",
			Help:      "Number of mint records awaiting reconciliation",
		}),
		Reconciled: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "minting",
			Name:      "reconciled_total",
			Help:      "Total number of pending records resolved by the reconciler",
		}, []string{"outcome"}),

		RPCCallLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "rpc",
			Name:      "call_duration_seconds",
			Help:      "Duration of Solana RPC calls by method",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests by route and status",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "status"}),

		DBQueryErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "query_errors_total",
			Help:      "Total number of database errors by store",
		}, []string{"store"}),
	}
}

// The helpers below are nil-safe so components can take an optional
// *Metrics without guarding every call site.

// ObserveRPC records one RPC call's latency.
func (m *Metrics) ObserveRPC(method string, d time.Duration) {
	if m == nil {
		return
	}
	m.RPCCallLatency.WithLabelValues(method).Observe(d.Seconds())
}

// ObserveMint counts one mint attempt by outcome and records its
// duration.
func (m *Metrics) ObserveMint(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.MintsTotal.WithLabelValues(outcome).Inc()
	m.MintDuration.Observe(d.Seconds())
}

// SetPendingMints sets the pending-record gauge.
func (m *Metrics) SetPendingMints(n int) {
	if m == nil {
		return
	}
	m.PendingMints.Set(float64(n))
}

// AddReconciled counts one pending record resolved by the reconciler.
func (m *Metrics) AddReconciled(outcome string) {
	if m == nil {
		return
	}
	m.Reconciled.WithLabelValues(outcome).Inc()
}

// AddDBError counts one failed database operation for the named store.
func (m *Metrics) AddDBError(store string) {
	if m == nil {
		return
	}
	m.DBQueryErrors.WithLabelValues(store).Inc()
}

// Middleware records request duration by chi route pattern and status.
func (m *Metrics) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m == nil {
				next.ServeHTTP(w, r)
				return
			}
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			m.HTTPRequestDuration.WithLabelValues(route, strconv.Itoa(ww.Status())).Observe(time.Since(start).Seconds())
		})
	}
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
