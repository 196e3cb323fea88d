// Package metrics exposes Prometheus counters for the evaluation loop.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

var Observer = New()

type Metrics struct {
	Signals     *prometheus.CounterVec
	Orders      *prometheus.CounterVec
	RiskDenials *prometheus.CounterVec
}

func New() *Metrics {
	return &Metrics{
		Signals: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "autotrader",
				Name:      "signals_total",
			}, []string{"symbol", "direction"}),
		Orders: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "autotrader",
				Name:      "orders_total",
			}, []string{"symbol", "state"}),
		RiskDenials: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "autotrader",
				Name:      "risk_denials_total",
			}, []string{"symbol", "reason"}),
	}
}

// Serve registers the observer and exposes /metrics on addr. Blocks, so
// callers run it in a goroutine.
func Serve(addr string) {
	prometheus.MustRegister(Observer.Signals, Observer.Orders, Observer.RiskDenials)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Error().Err(err).Str("addr", addr).Msg("metrics server stopped")
	}
}

func (m *Metrics) Signal(symbol, direction string) {
	m.Signals.WithLabelValues(symbol, direction).Inc()
}

func (m *Metrics) Order(symbol, state string) {
	m.Orders.WithLabelValues(symbol, state).Inc()
}

func (m *Metrics) RiskDenial(symbol, reason string) {
	m.RiskDenials.WithLabelValues(symbol, reason).Inc()
}
