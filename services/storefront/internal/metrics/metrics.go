package metrics

import (
	"net/http"

	grpc_prometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the storefront's cart counters. A nil *Metrics records nothing.
type Metrics struct {
	remoteOps *prometheus.CounterVec
	fallbacks *prometheus.CounterVec
	checkouts *prometheus.CounterVec
	sessions  prometheus.Gauge
}

// NewRegistry returns a registry with the go, process and grpc server collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()

	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	reg.MustRegister(grpc_prometheus.DefaultServerMetrics)

	return reg
}

func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{
		Registry: reg,
	})
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		remoteOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "cart_remote_ops_total",
			Help:      "Remote cart calls by operation and result (ok, error, stale).",
		}, []string{"op", "result"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "cart_fallbacks_total",
			Help:      "Failed remote writes handled by the fallback policy.",
		}, []string{"policy"}),
		checkouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "cart_checkouts_total",
			Help:      "Checkout attempts by result.",
		}, []string{"result"}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "storefront",
			Name:      "sessions_active",
			Help:      "Cart cores currently held in memory.",
		}),
	}

	reg.MustRegister(m.remoteOps, m.fallbacks, m.checkouts, m.sessions)

	return m
}

func (m *Metrics) RemoteOp(op, result string) {
	if m == nil {
		return
	}
	m.remoteOps.WithLabelValues(op, result).Inc()
}

func (m *Metrics) Fallback(policy string) {
	if m == nil {
		return
	}
	m.fallbacks.WithLabelValues(policy).Inc()
}

func (m *Metrics) Checkout(result string) {
	if m == nil {
		return
	}
	m.checkouts.WithLabelValues(result).Inc()
}

func (m *Metrics) SessionsActive(n int) {
	if m == nil {
		return
	}
	m.sessions.Set(float64(n))
}
