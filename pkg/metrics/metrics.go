// Package metrics exports monitor records as Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/itohio/fenceline/pkg/fence"
)

// Metrics holds the collectors fed from monitor records and store writes.
type Metrics struct {
	records     prometheus.Counter
	alarms      prometheus.Counter
	storeErrors prometheus.Counter
	storeTime   prometheus.Histogram
	loop        prometheus.Gauge
	raw         *prometheus.GaugeVec
	resistance  *prometheus.GaugeVec
	band        *prometheus.GaugeVec
	short       *prometheus.GaugeVec
}

// New creates the collectors and registers them with reg. A nil reg uses the
// default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		records: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fence_records_total",
			Help: "Records received from the monitor.",
		}),
		alarms: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fence_alarms_total",
			Help: "Records for which the short-circuit alarm sounded.",
		}),
		storeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fence_store_errors_total",
			Help: "Records that could not be written to the store.",
		}),
		storeTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "fence_store_latency_seconds",
			Help:    "Time to write one record to the store.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
		loop: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fence_loop",
			Help: "Loop counter of the latest record.",
		}),
		raw: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "fence_line_raw",
			Help: "Latest raw analog reading of the line while it was excited.",
		}, []string{"line"}),
		resistance: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "fence_line_resistance_ohms",
			Help: "Latest estimated loop resistance of the line.",
		}, []string{"line"}),
		band: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "fence_line_band",
			Help: "Resistance band of the line: 0 normal, 1 marginal, 2 fault.",
		}, []string{"line"}),
		short: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "fence_line_short_lines",
			Help: "Lines above the threshold while the line was excited, 0 when clear.",
		}, []string{"line"}),
	}

	reg.MustRegister(m.records, m.alarms, m.storeErrors, m.storeTime, m.loop,
		m.raw, m.resistance, m.band, m.short)
	return m
}

// Observe updates the metrics from one record.
func (m *Metrics) Observe(rec fence.Record) {
	line := rec.Line.String()

	m.records.Inc()
	m.loop.Set(float64(rec.Loop))
	if s, ok := rec.Sample(rec.Line); ok {
		m.raw.WithLabelValues(line).Set(float64(s.Raw))
	}
	m.resistance.WithLabelValues(line).Set(float64(rec.Resistance))
	m.band.WithLabelValues(line).Set(float64(fence.Classify(rec.Resistance)))
	m.short.WithLabelValues(line).Set(float64(rec.Short))
	if rec.Short > 0 {
		m.alarms.Inc()
	}
}

// ObserveStore records the outcome of one store write.
func (m *Metrics) ObserveStore(seconds float64, err error) {
	m.storeTime.Observe(seconds)
	if err != nil {
		m.storeErrors.Inc()
	}
}

// Handler serves g in the Prometheus exposition format. A nil g serves the
// default gatherer.
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
