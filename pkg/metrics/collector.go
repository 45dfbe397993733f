package metrics

import (
	"errors"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/channel-io/go-jitterbuf/pkg/jitter"
)

type StatsSource interface {
	Stats() (jitter.Stats, error)
	Len() int
}

// StatsCollector reads statistics snapshots of registered buffers at scrape
// time.
type StatsCollector struct {
	mu      sync.Mutex
	sources map[string]StatsSource

	packets *prometheus.Desc
	puts    *prometheus.Desc
	gets    *prometheus.Desc
	oos     *prometheus.Desc
	lost    *prometheus.Desc
	under   *prometheus.Desc
	latePl  *prometheus.Desc
	peak    *prometheus.Desc
}

func NewStatsCollector(namespace string) *StatsCollector {
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "jitter", name), help, []string{streamLabel}, nil)
	}
	return &StatsCollector{
		sources: make(map[string]StatsSource),
		packets: desc("packets", "Packets currently buffered."),
		puts:    desc("puts", "Packets put since the last flush."),
		gets:    desc("gets", "Get calls since the last flush."),
		oos:     desc("out_of_order", "Out of order insertions since the last flush."),
		lost:    desc("lost", "Estimated lost packets since the last flush."),
		under:   desc("underflows", "Gets on an empty running buffer since the last flush."),
		latePl:  desc("late_playouts", "Packets buffered after their playout time since the last flush."),
		peak:    desc("peak_lateness_ms", "Worst lateness within the lateness window."),
	}
}

func (c *StatsCollector) Register(stream string, src StatsSource) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sources[stream] = src
}

func (c *StatsCollector) Unregister(stream string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.sources, stream)
}

func (c *StatsCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{c.packets, c.puts, c.gets, c.oos, c.lost, c.under, c.latePl, c.peak} {
		ch <- d
	}
}

func (c *StatsCollector) Collect(ch chan<- prometheus.Metric) {
	c.mu.Lock()
	sources := make(map[string]StatsSource, len(c.sources))
	for k, v := range c.sources {
		sources[k] = v
	}
	c.mu.Unlock()

	for stream, src := range sources {
		ch <- prometheus.MustNewConstMetric(c.packets, prometheus.GaugeValue, float64(src.Len()), stream)

		s, err := src.Stats()
		if errors.Is(err, jitter.ErrUnsupported) {
			continue
		} else if err != nil {
			ch <- prometheus.NewInvalidMetric(c.puts, err)
			continue
		}

		ch <- prometheus.MustNewConstMetric(c.puts, prometheus.GaugeValue, float64(s.Puts), stream)
		ch <- prometheus.MustNewConstMetric(c.gets, prometheus.GaugeValue, float64(s.Gets), stream)
		ch <- prometheus.MustNewConstMetric(c.oos, prometheus.GaugeValue, float64(s.OutOfOrder), stream)
		ch <- prometheus.MustNewConstMetric(c.lost, prometheus.GaugeValue, float64(s.Lost), stream)
		ch <- prometheus.MustNewConstMetric(c.under, prometheus.GaugeValue, float64(s.Underflows), stream)
		ch <- prometheus.MustNewConstMetric(c.latePl, prometheus.GaugeValue, float64(s.LatePlayouts), stream)
		ch <- prometheus.MustNewConstMetric(c.peak, prometheus.GaugeValue, float64(s.PeakLatenessMs), stream)
	}
}

var _ prometheus.Collector = (*StatsCollector)(nil)
