package main

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/golang/glog"
)

// prometheusMetrics is the concrete tree.MetricsRecorder the core only
// describes as an interface. It exists here, in the CLI, rather than in
// the tree package, so the engine never pulls in a Prometheus registry
// of its own.
type prometheusMetrics struct {
	appendDuration *prometheus.HistogramVec
	proofDuration  *prometheus.HistogramVec
}

func newPrometheusMetrics(reg prometheus.Registerer) *prometheusMetrics {
	m := &prometheusMetrics{
		appendDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "compactlog_append_duration_seconds",
			Help: "Latency of batch_push calls, labeled by batch size bucket.",
		}, []string{"size_bucket"}),
		proofDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "compactlog_proof_duration_seconds",
			Help: "Latency of proof generation calls, labeled by proof kind.",
		}, []string{"kind"}),
	}
	reg.MustRegister(m.appendDuration, m.proofDuration)
	return m
}

func (m *prometheusMetrics) ObserveAppend(n int, dur time.Duration) {
	m.appendDuration.WithLabelValues(sizeBucket(n)).Observe(dur.Seconds())
}

func (m *prometheusMetrics) ObserveProof(kind string, dur time.Duration) {
	m.proofDuration.WithLabelValues(kind).Observe(dur.Seconds())
}

func sizeBucket(n int) string {
	switch {
	case n <= 1:
		return "1"
	case n <= 10:
		return "2-10"
	case n <= 100:
		return "11-100"
	default:
		return "100+"
	}
}

// serveMetrics starts a /metrics HTTP endpoint in the background and
// returns the registry the caller should register collectors on.
func serveMetrics(addr string) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			glog.Errorf("compactlogctl: metrics server stopped: %v", err)
		}
	}()
	return reg
}
