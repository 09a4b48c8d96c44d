package syshealth

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Exporter publishes health check results as Prometheus metrics on its own registry.
type Exporter struct {
	registry *prometheus.Registry

	usage       *prometheus.GaugeVec
	threshold   *prometheus.GaugeVec
	severity    *prometheus.GaugeVec
	overall     prometheus.Gauge
	lastCheck   prometheus.Gauge
	checksTotal *prometheus.CounterVec
}

// NewExporter creates an exporter with all metrics registered.
func NewExporter() *Exporter {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Exporter{
		registry: reg,
		usage: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "vmhealth_resource_usage_percent",
			Help: "Resource utilization percentage at the last check",
		}, []string{"resource"}),
		threshold: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "vmhealth_resource_threshold_percent",
			Help: "Configured warning threshold for the resource",
		}, []string{"resource"}),
		severity: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "vmhealth_resource_severity",
			Help: "Resource severity at the last check (0=OK, 1=WARNING, 2=CRITICAL)",
		}, []string{"resource"}),
		overall: factory.NewGauge(prometheus.GaugeOpts{
			Name: "vmhealth_overall_severity",
			Help: "Overall host severity at the last check (0=OK, 1=WARNING, 2=CRITICAL)",
		}),
		lastCheck: factory.NewGauge(prometheus.GaugeOpts{
			Name: "vmhealth_last_check_timestamp_seconds",
			Help: "Unix time of the last completed check",
		}),
		checksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vmhealth_checks_total",
			Help: "Total number of completed checks by overall severity",
		}, []string{"overall"}),
	}
}

// Observe records report in the exporter's metrics.
func (e *Exporter) Observe(report *HealthReport) {
	for _, m := range report.Metrics {
		label := string(m.Name)
		e.usage.WithLabelValues(label).Set(float64(m.Value))
		e.threshold.WithLabelValues(label).Set(float64(m.Threshold))
		e.severity.WithLabelValues(label).Set(float64(m.Severity))
	}
	e.overall.Set(float64(report.Overall))
	e.lastCheck.Set(float64(report.Timestamp.Unix()))
	e.checksTotal.WithLabelValues(report.Overall.String()).Inc()
}

// WriteTextfile writes the current metrics in the node_exporter textfile
// collector format. The file is replaced atomically.
func (e *Exporter) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, e.registry)
}

// Gatherer exposes the registry for HTTP exposition.
func (e *Exporter) Gatherer() prometheus.Gatherer {
	return e.registry
}
