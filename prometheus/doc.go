// Package prometheus provides a Prometheus adapter for
// github.com/redirectionio/trusted-proxies.
//
// The package exposes trustedproxies options that install a
// Prometheus-backed Metrics implementation on a resolver, using either the
// default registerer or a caller-provided registerer.
package prometheus
