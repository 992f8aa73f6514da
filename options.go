package trustedproxies

import (
	"fmt"
	"net/netip"
)

// TrustRanges adds trusted network prefixes to the policy.
func TrustRanges(prefixes ...netip.Prefix) Option {
	prefixes = clonePrefixes(prefixes)

	return func(c *config) error {
		normalized, err := normalizeTrustedRanges(prefixes)
		if err != nil {
			return err
		}

		appendTrustedRanges(c, normalized...)
		return nil
	}
}

// TrustOnlyRanges replaces the trusted network prefixes, discarding the
// defaults and any ranges added by earlier options.
func TrustOnlyRanges(prefixes ...netip.Prefix) Option {
	prefixes = clonePrefixes(prefixes)

	return func(c *config) error {
		normalized, err := normalizeTrustedRanges(prefixes)
		if err != nil {
			return err
		}

		c.trustedRanges = mergeUniquePrefixes(nil, normalized...)
		return nil
	}
}

// TrustNoProxies clears the trusted ranges entirely.
//
// With no trusted ranges the peer is never trusted to report further hops, so
// forwarding headers are never consulted. This is a valid, safe state.
func TrustNoProxies() Option {
	return func(c *config) error {
		c.trustedRanges = nil
		return nil
	}
}

// TrustAddrs adds individual trusted proxy host addresses.
func TrustAddrs(addrs ...netip.Addr) Option {
	addrs = cloneAddrs(addrs)

	return func(c *config) error {
		prefixes := make([]netip.Prefix, 0, len(addrs))
		for _, addr := range addrs {
			if !addr.IsValid() {
				return fmt.Errorf("invalid proxy address %q", addr)
			}

			addr = normalizeIP(addr)
			prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
		}

		appendTrustedRanges(c, prefixes...)
		return nil
	}
}

// TrustLoopback adds loopback CIDRs to the trusted ranges.
func TrustLoopback() Option {
	return func(c *config) error {
		appendTrustedRanges(c, loopbackRanges...)
		return nil
	}
}

// TrustLinkLocal adds link-local CIDRs to the trusted ranges.
func TrustLinkLocal() Option {
	return func(c *config) error {
		appendTrustedRanges(c, linkLocalRanges...)
		return nil
	}
}

// TrustPrivateRanges adds RFC 1918 and RFC 4193 CIDRs to the trusted ranges.
func TrustPrivateRanges() Option {
	return func(c *config) error {
		appendTrustedRanges(c, privateRanges...)
		return nil
	}
}

// TrustHeaders replaces the set of header families the policy consults.
//
// Recognized names are HeaderForwarded, HeaderXForwardedFor,
// HeaderXForwardedHost, HeaderXForwardedProto and HeaderXForwardedBy
// (case-insensitive). An empty call disables every family.
func TrustHeaders(names ...string) Option {
	resolved := make([]string, len(names))
	copy(resolved, names)

	return func(c *config) error {
		c.trustForwarded = false
		c.trustXForwardedFor = false
		c.trustXForwardedHost = false
		c.trustXForwardedProto = false
		c.trustXForwardedBy = false

		for _, name := range resolved {
			switch NormalizeSourceName(name) {
			case "forwarded":
				c.trustForwarded = true
			case "x_forwarded_for":
				c.trustXForwardedFor = true
			case "x_forwarded_host":
				c.trustXForwardedHost = true
			case "x_forwarded_proto":
				c.trustXForwardedProto = true
			case "x_forwarded_by":
				c.trustXForwardedBy = true
			default:
				return fmt.Errorf("unknown forwarding header %q", name)
			}
		}

		return nil
	}
}

// TrustNoHeaders disables every header family; only the peer address is used.
func TrustNoHeaders() Option {
	return TrustHeaders()
}

// MaxChainLength sets the maximum number of hops taken from proxy headers.
//
// Hops beyond the limit are dropped and a security event is recorded;
// resolution still succeeds with the truncated chain.
func MaxChainLength(max int) Option {
	return func(c *config) error {
		c.maxChainLength = max
		return nil
	}
}

// WithLogger sets the logger implementation used for warning events.
func WithLogger(logger Logger) Option {
	return func(c *config) error {
		c.logger = logger
		return nil
	}
}

// WithMetrics sets a concrete metrics implementation.
//
// If previously configured, a metrics factory is disabled.
func WithMetrics(metrics Metrics) Option {
	return func(c *config) error {
		c.metrics = metrics
		c.metricsFactory = nil
		c.useMetricsFactory = false
		return nil
	}
}

// WithMetricsFactory configures a lazy metrics constructor.
//
// The factory is invoked only for the final winning metrics option after
// option validation succeeds.
func WithMetricsFactory(factory func() (Metrics, error)) Option {
	return func(c *config) error {
		if factory == nil {
			return fmt.Errorf("metrics factory cannot be nil")
		}

		c.metricsFactory = factory
		c.useMetricsFactory = true
		return nil
	}
}
