package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/caffeineduck/cwsplay/bridge"
)

type metrics struct {
	registry *prometheus.Registry
	runs     *prometheus.CounterVec
	duration prometheus.Histogram
	lines    prometheus.Counter
	shares   *prometheus.CounterVec
	sockets  prometheus.Gauge
}

func newMetrics(engine string) *metrics {
	reg := prometheus.NewRegistry()
	labels := prometheus.Labels{"engine": engine}

	m := &metrics{
		registry: reg,
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "cwsplay",
			Name:        "runs_total",
			Help:        "Programs executed, by outcome.",
			ConstLabels: labels,
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   "cwsplay",
			Name:        "run_duration_seconds",
			Help:        "Wall time of one run.",
			ConstLabels: labels,
			Buckets:     prometheus.ExponentialBuckets(0.001, 4, 9),
		}),
		lines: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "cwsplay",
			Name:        "transcript_lines_total",
			Help:        "Lines appended to transcripts.",
			ConstLabels: labels,
		}),
		shares: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cwsplay",
			Name:      "share_links_total",
			Help:      "Share links created, by outcome.",
		}, []string{"outcome"}),
		sockets: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "cwsplay",
			Name:      "websocket_connections",
			Help:      "Open run websockets.",
		}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.runs, m.duration, m.lines, m.shares, m.sockets,
	)
	return m
}

func (m *metrics) observeRun(stats bridge.Stats) {
	if !stats.Executed {
		m.runs.WithLabelValues("empty").Inc()
		return
	}
	outcome := "ok"
	if stats.Failed {
		outcome = "failed"
	}
	m.runs.WithLabelValues(outcome).Inc()
	m.duration.Observe(stats.Duration.Seconds())
	m.lines.Add(float64(stats.Events))
}
