package server

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type metrics struct {
	registry    *prometheus.Registry
	requests    *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	predictions *prometheus.CounterVec
}

// newMetrics usa um registro próprio por servidor para não colidir entre instâncias.
func newMetrics() *metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)
	return &metrics{
		registry: reg,
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "diagnostico_http_requests_total",
			Help: "Requisições HTTP por rota e status.",
		}, []string{"route", "code"}),
		latency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "diagnostico_http_request_duration_seconds",
			Help:    "Latência das requisições HTTP.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		}, []string{"route"}),
		predictions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "diagnostico_predictions_total",
			Help: "Predições servidas por mensagem.",
		}, []string{"message"}),
	}
}

func (m *metrics) observe(route, code string, elapsed time.Duration) {
	m.requests.WithLabelValues(route, code).Inc()
	m.latency.WithLabelValues(route).Observe(elapsed.Seconds())
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
