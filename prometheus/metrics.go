package prometheus

import (
	"errors"
	"fmt"

	trustedproxies "github.com/redirectionio/trusted-proxies"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusMetrics is a Prometheus-backed implementation of
// trustedproxies.Metrics.
type PrometheusMetrics struct {
	resolutionTotal *prom.CounterVec
	securityEvents  *prom.CounterVec
}

// WithMetrics returns a trustedproxies option that installs
// Prometheus-backed metrics using prom.DefaultRegisterer.
func WithMetrics() trustedproxies.Option {
	return WithRegisterer(prom.DefaultRegisterer)
}

// WithRegisterer returns a trustedproxies option that installs
// Prometheus-backed metrics using the provided registerer.
//
// If registerer is nil, prom.DefaultRegisterer is used.
func WithRegisterer(registerer prom.Registerer) trustedproxies.Option {
	return trustedproxies.WithMetricsFactory(func() (trustedproxies.Metrics, error) {
		return NewWithRegisterer(registerer)
	})
}

// New creates PrometheusMetrics and registers its collectors on
// prom.DefaultRegisterer.
func New() (*PrometheusMetrics, error) {
	return NewWithRegisterer(prom.DefaultRegisterer)
}

// NewWithRegisterer creates PrometheusMetrics and registers its collectors
// on the given registerer.
//
// If registerer is nil, prom.DefaultRegisterer is used. If the metrics are
// already registered, existing compatible collectors are reused.
func NewWithRegisterer(registerer prom.Registerer) (*PrometheusMetrics, error) {
	if registerer == nil {
		registerer = prom.DefaultRegisterer
	}

	resolutionTotalCollector := prom.NewCounterVec(
		prom.CounterOpts{
			Name: "trusted_resolution_total",
			Help: "Total number of trusted identity resolutions by source (forwarded, x_forwarded_for, remote_addr).",
		},
		[]string{"source"},
	)
	securityEventsCollector := prom.NewCounterVec(
		prom.CounterOpts{
			Name: "trusted_resolution_security_events_total",
			Help: "Security-related events observed during trusted identity resolution, labeled by event.",
		},
		[]string{"event"},
	)

	resolutionTotal, err := registerCounterVec(registerer, resolutionTotalCollector, "trusted_resolution_total")
	if err != nil {
		return nil, err
	}

	securityEvents, err := registerCounterVec(registerer, securityEventsCollector, "trusted_resolution_security_events_total")
	if err != nil {
		return nil, err
	}

	return &PrometheusMetrics{
		resolutionTotal: resolutionTotal,
		securityEvents:  securityEvents,
	}, nil
}

func registerCounterVec(registerer prom.Registerer, collector *prom.CounterVec, metricName string) (*prom.CounterVec, error) {
	if err := registerer.Register(collector); err != nil {
		var alreadyRegistered prom.AlreadyRegisteredError
		if errors.As(err, &alreadyRegistered) {
			existing, ok := alreadyRegistered.ExistingCollector.(*prom.CounterVec)
			if ok {
				return existing, nil
			}
			return nil, fmt.Errorf("metric %q already registered with incompatible collector type %T", metricName, alreadyRegistered.ExistingCollector)
		}

		return nil, fmt.Errorf("register metric %q: %w", metricName, err)
	}

	return collector, nil
}

// RecordResolution increments trusted_resolution_total for the provided
// source label.
func (m *PrometheusMetrics) RecordResolution(source string) {
	m.resolutionTotal.WithLabelValues(source).Inc()
}

// RecordSecurityEvent increments trusted_resolution_security_events_total
// for the provided event label.
func (m *PrometheusMetrics) RecordSecurityEvent(event string) {
	m.securityEvents.WithLabelValues(event).Inc()
}
