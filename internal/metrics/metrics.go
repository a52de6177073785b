package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder exposes the dashboard engine's Prometheus metrics. A nil *Recorder
// records nothing.
type Recorder struct {
	fetches       *prometheus.CounterVec
	fetchLatency  prometheus.Histogram
	alerts        *prometheus.CounterVec
	suppressed    *prometheus.CounterVec
	lastPrice     *prometheus.GaugeVec
	totalExposure *prometheus.GaugeVec
	clients       prometheus.Gauge
}

// New registers the collectors on reg. Pass prometheus.DefaultRegisterer in
// production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		fetches: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gexdash_snapshot_fetches_total",
				Help: "Snapshot fetches by result (ok, fetch_error, parse_error)",
			},
			[]string{"result"},
		),
		fetchLatency: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "gexdash_snapshot_fetch_duration_seconds",
				Help:    "Duration of upstream snapshot fetches in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		alerts: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gexdash_alerts_total",
				Help: "Alerts delivered by kind and source",
			},
			[]string{"kind", "source"},
		),
		suppressed: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gexdash_alerts_suppressed_total",
				Help: "Notifications dropped because alerts are disabled",
			},
			[]string{"source"},
		),
		lastPrice: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "gexdash_last_price",
				Help: "Underlying price of the last applied snapshot",
			},
			[]string{"ticker"},
		),
		totalExposure: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "gexdash_total_gamma_exposure",
				Help: "Total gamma exposure of the last applied snapshot",
			},
			[]string{"ticker"},
		),
		clients: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "gexdash_stream_clients",
				Help: "Connected websocket clients",
			},
		),
	}
}

func (r *Recorder) RecordFetch(result string, took time.Duration) {
	if r == nil {
		return
	}
	r.fetches.WithLabelValues(result).Inc()
	r.fetchLatency.Observe(took.Seconds())
}

func (r *Recorder) RecordAlert(kind, source string) {
	if r == nil {
		return
	}
	r.alerts.WithLabelValues(kind, source).Inc()
}

func (r *Recorder) RecordSuppressed(source string) {
	if r == nil {
		return
	}
	r.suppressed.WithLabelValues(source).Inc()
}

// RecordSnapshot sets the price and exposure gauges for ticker.
func (r *Recorder) RecordSnapshot(ticker string, price, totalExposure float64) {
	if r == nil {
		return
	}
	r.lastPrice.WithLabelValues(ticker).Set(price)
	r.totalExposure.WithLabelValues(ticker).Set(totalExposure)
}

func (r *Recorder) ClientConnected() {
	if r != nil {
		r.clients.Inc()
	}
}

func (r *Recorder) ClientDisconnected() {
	if r != nil {
		r.clients.Dec()
	}
}
