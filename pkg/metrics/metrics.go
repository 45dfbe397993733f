// Package metrics exports jitter buffer events and statistics to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/channel-io/go-jitterbuf/pkg/jitter"
)

const streamLabel = "stream"

// Metrics holds the event counters shared by every buffer of a process.
// Each buffer gets its own Listener labelled with its stream name.
type Metrics struct {
	overflows  *prometheus.CounterVec
	late       *prometheus.CounterVec
	duplicates *prometheus.CounterVec
	flushes    *prometheus.CounterVec
	flushed    *prometheus.CounterVec
	delay      *prometheus.GaugeVec
}

func NewMetrics(reg prometheus.Registerer, namespace string) (*Metrics, error) {
	m := &Metrics{
		overflows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "jitter",
			Name:      "overflow_total",
			Help:      "Packets evicted because the buffer was full.",
		}, []string{streamLabel}),
		late: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "jitter",
			Name:      "late_total",
			Help:      "Packets rejected because their sequence was already played.",
		}, []string{streamLabel}),
		duplicates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "jitter",
			Name:      "duplicate_total",
			Help:      "Packets rejected as duplicates.",
		}, []string{streamLabel}),
		flushes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "jitter",
			Name:      "flush_total",
			Help:      "Buffer flushes.",
		}, []string{streamLabel}),
		flushed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "jitter",
			Name:      "flushed_packets_total",
			Help:      "Packets dropped by flushes.",
		}, []string{streamLabel}),
		delay: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "jitter",
			Name:      "adaptive_delay_ms",
			Help:      "Adaptive playout delay applied to new packets.",
		}, []string{streamLabel}),
	}

	for _, c := range []prometheus.Collector{m.overflows, m.late, m.duplicates, m.flushes, m.flushed, m.delay} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) Listener(stream string) jitter.Listener {
	return &streamListener{
		overflows:  m.overflows.WithLabelValues(stream),
		late:       m.late.WithLabelValues(stream),
		duplicates: m.duplicates.WithLabelValues(stream),
		flushes:    m.flushes.WithLabelValues(stream),
		flushed:    m.flushed.WithLabelValues(stream),
		delay:      m.delay.WithLabelValues(stream),
	}
}

// Delete drops every series of stream, e.g. when its call ends.
func (m *Metrics) Delete(stream string) {
	for _, vec := range []*prometheus.MetricVec{
		m.overflows.MetricVec, m.late.MetricVec, m.duplicates.MetricVec,
		m.flushes.MetricVec, m.flushed.MetricVec, m.delay.MetricVec,
	} {
		vec.DeleteLabelValues(stream)
	}
}

type streamListener struct {
	overflows  prometheus.Counter
	late       prometheus.Counter
	duplicates prometheus.Counter
	flushes    prometheus.Counter
	flushed    prometheus.Counter
	delay      prometheus.Gauge
}

func (l *streamListener) OnOverflow(jitter.Header) {
	l.overflows.Inc()
}

func (l *streamListener) OnLate(jitter.Header) {
	l.late.Inc()
}

func (l *streamListener) OnDuplicate(jitter.Header) {
	l.duplicates.Inc()
}

func (l *streamListener) OnFlush(dropped int) {
	l.flushes.Inc()
	l.flushed.Add(float64(dropped))
}

func (l *streamListener) OnDelayChanged(delayMs int32) {
	l.delay.Set(float64(delayMs))
}
