// Package metric defines the factory's Prometheus metrics.
package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains all factory-level metrics
type Metrics struct {
	DeploymentsTotal   *prometheus.CounterVec
	DeploymentFailures *prometheus.CounterVec
	TemplateUpdates    *prometheus.CounterVec
	DeployDuration     *prometheus.HistogramVec
	RegistrySize       prometheus.Gauge
	NATSConnected      prometheus.Gauge
}

// NewMetrics creates a new Metrics instance
func NewMetrics() *Metrics {
	return &Metrics{
		DeploymentsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "luxuryx",
				Subsystem: "factory",
				Name:      "deployments_total",
				Help:      "Total number of successful deployments",
			},
			[]string{"product"},
		),

		DeploymentFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "luxuryx",
				Subsystem: "factory",
				Name:      "deployment_failures_total",
				Help:      "Total number of failed deployment attempts",
			},
			[]string{"product", "reason"},
		),

		TemplateUpdates: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "luxuryx",
				Subsystem: "factory",
				Name:      "template_updates_total",
				Help:      "Total number of template pointer overwrites",
			},
			[]string{"product"},
		),

		DeployDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "luxuryx",
				Subsystem: "factory",
				Name:      "deploy_duration_seconds",
				Help:      "Deployment duration in seconds, clone through registration",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"product"},
		),

		RegistrySize: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "luxuryx",
				Subsystem: "factory",
				Name:      "registry_size",
				Help:      "Number of deployments in the registry",
			},
		),

		NATSConnected: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "luxuryx",
				Subsystem: "nats",
				Name:      "connected",
				Help:      "NATS connection status (0=disconnected, 1=connected)",
			},
		),
	}
}

// Register registers all metrics with the given registerer
func (m *Metrics) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.DeploymentsTotal,
		m.DeploymentFailures,
		m.TemplateUpdates,
		m.DeployDuration,
		m.RegistrySize,
		m.NATSConnected,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// RecordDeployment increments the deployment counter and observes duration.
// All record helpers are nil-safe so callers can run without metrics wired.
func (m *Metrics) RecordDeployment(product string, duration time.Duration) {
	if m == nil {
		return
	}
	m.DeploymentsTotal.WithLabelValues(product).Inc()
	m.DeployDuration.WithLabelValues(product).Observe(duration.Seconds())
}

// RecordDeploymentFailure increments the failure counter
func (m *Metrics) RecordDeploymentFailure(product, reason string) {
	if m == nil {
		return
	}
	m.DeploymentFailures.WithLabelValues(product, reason).Inc()
}

// RecordTemplateUpdate increments the template update counter
func (m *Metrics) RecordTemplateUpdate(product string) {
	if m == nil {
		return
	}
	m.TemplateUpdates.WithLabelValues(product).Inc()
}

// RecordRegistrySize updates the registry size gauge
func (m *Metrics) RecordRegistrySize(size int) {
	if m == nil {
		return
	}
	m.RegistrySize.Set(float64(size))
}

// RecordNATSStatus updates the NATS connection gauge
func (m *Metrics) RecordNATSStatus(connected bool) {
	if m == nil {
		return
	}
	value := 0.0
	if connected {
		value = 1.0
	}
	m.NATSConnected.Set(value)
}
