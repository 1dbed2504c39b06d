package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	emittedDesc = prometheus.NewDesc(
		"wire_pipeline_values_emitted_total",
		"Total number of timed values emitted by the pipeline",
		[]string{"key", "name"}, nil,
	)
	lastIntervalDesc = prometheus.NewDesc(
		"wire_pipeline_last_interval_milliseconds",
		"Interval carried by the last timed value of the pipeline",
		[]string{"key", "name"}, nil,
	)
	runningDesc = prometheus.NewDesc(
		"wire_pipeline_running",
		"1 while the pipeline is running",
		[]string{"key", "name"}, nil,
	)
)

// pipelineCollector reads the registry stats on every scrape.
type pipelineCollector struct {
	registry Registry
}

func (c pipelineCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- emittedDesc
	ch <- lastIntervalDesc
	ch <- runningDesc
}

func (c pipelineCollector) Collect(ch chan<- prometheus.Metric) {
	for key, stats := range c.registry.Stats() {
		running := 0.0
		if stats.Running {
			running = 1
		}
		ch <- prometheus.MustNewConstMetric(emittedDesc, prometheus.CounterValue, float64(stats.Emitted), key, stats.Name)
		ch <- prometheus.MustNewConstMetric(lastIntervalDesc, prometheus.GaugeValue, float64(stats.LastInterval), key, stats.Name)
		ch <- prometheus.MustNewConstMetric(runningDesc, prometheus.GaugeValue, running, key, stats.Name)
	}
}

// MetricsHandler serves the pipeline metrics in the Prometheus format.
func MetricsHandler(registry Registry) http.Handler {
	reg := prometheus.NewRegistry()
	reg.MustRegister(pipelineCollector{registry: registry})
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
