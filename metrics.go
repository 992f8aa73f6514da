package trustedproxies

// Metrics records resolution outcomes and security events observed by
// Resolver.
//
// Implementations should be safe for concurrent use, as a single Resolver
// instance is typically shared across many goroutines.
type Metrics interface {
	// RecordResolution is called once per resolution with the source label
	// of the header family that produced the chain (or SourceRemoteAddr).
	RecordResolution(source string)
	// RecordSecurityEvent is called when the resolver observes a
	// security-relevant condition.
	RecordSecurityEvent(event string)
}

// noopMetrics is the default Metrics implementation when metrics are not
// explicitly configured.
type noopMetrics struct{}

func (noopMetrics) RecordResolution(string) {}

func (noopMetrics) RecordSecurityEvent(string) {}
