package trustedproxies

import (
	"fmt"
	"net/netip"
)

const (
	// DefaultMaxChainLength is the maximum number of hops accepted from a
	// single request's proxy headers. It bounds the work done on extremely
	// long header values; typical chains rarely exceed 5-10 entries. Hops
	// past the limit are dropped rather than rejected, keeping resolution
	// best-effort.
	DefaultMaxChainLength = 100
)

// Option configures a Resolver.
//
// Construct options using package-provided option builder functions.
type Option func(*config) error

// config holds resolver configuration state.
//
// It is mutated by Option functions during construction and is immutable
// afterwards.
type config struct {
	trustedRanges     []netip.Prefix
	trustedRangeMatch trustedRangeMatcher

	trustForwarded       bool
	trustXForwardedFor   bool
	trustXForwardedHost  bool
	trustXForwardedProto bool
	trustXForwardedBy    bool

	maxChainLength int

	logger  Logger
	metrics Metrics

	metricsFactory    func() (Metrics, error)
	useMetricsFactory bool
}

var (
	// loopbackRanges covers proxies running on the same host as the app.
	loopbackRanges = []netip.Prefix{
		mustParsePrefix("127.0.0.0/8"),
		mustParsePrefix("::1/128"),
	}

	// linkLocalRanges covers link-local peers, seen with some container and
	// cloud-metadata network setups.
	linkLocalRanges = []netip.Prefix{
		mustParsePrefix("169.254.0.0/16"),
		mustParsePrefix("fe80::/10"),
	}

	// privateRanges covers RFC 1918 and RFC 4193 networks commonly used for
	// upstream proxies in VM and internal network deployments.
	privateRanges = []netip.Prefix{
		mustParsePrefix("10.0.0.0/8"),
		mustParsePrefix("172.16.0.0/12"),
		mustParsePrefix("192.168.0.0/16"),
		mustParsePrefix("fc00::/7"),
	}
)

func mustParsePrefix(cidr string) netip.Prefix {
	prefix, err := netip.ParsePrefix(cidr)
	if err != nil {
		panic(fmt.Sprintf("invalid built-in CIDR %q: %v", cidr, err))
	}
	return prefix
}

// defaultTrustedRanges returns the default trust set: loopback, link-local
// and private networks.
func defaultTrustedRanges() []netip.Prefix {
	ranges := make([]netip.Prefix, 0, len(loopbackRanges)+len(linkLocalRanges)+len(privateRanges))
	ranges = append(ranges, loopbackRanges...)
	ranges = append(ranges, linkLocalRanges...)
	ranges = append(ranges, privateRanges...)
	return ranges
}

func clonePrefixes(prefixes []netip.Prefix) []netip.Prefix {
	if prefixes == nil {
		return nil
	}
	cloned := make([]netip.Prefix, len(prefixes))
	copy(cloned, prefixes)
	return cloned
}

func cloneAddrs(addrs []netip.Addr) []netip.Addr {
	if addrs == nil {
		return nil
	}
	cloned := make([]netip.Addr, len(addrs))
	copy(cloned, addrs)
	return cloned
}

func normalizeTrustedRanges(prefixes []netip.Prefix) ([]netip.Prefix, error) {
	normalized := make([]netip.Prefix, 0, len(prefixes))
	for _, prefix := range prefixes {
		if !prefix.IsValid() {
			return nil, fmt.Errorf("invalid trusted range %q", prefix)
		}
		normalized = append(normalized, prefix.Masked())
	}

	return normalized, nil
}

func mergeUniquePrefixes(existing []netip.Prefix, additions ...netip.Prefix) []netip.Prefix {
	if len(existing) == 0 && len(additions) == 0 {
		return nil
	}

	merged := make([]netip.Prefix, 0, len(existing)+len(additions))
	seen := make(map[netip.Prefix]struct{}, len(existing)+len(additions))

	for _, prefix := range existing {
		if _, ok := seen[prefix]; ok {
			continue
		}
		seen[prefix] = struct{}{}
		merged = append(merged, prefix)
	}

	for _, prefix := range additions {
		if _, ok := seen[prefix]; ok {
			continue
		}
		seen[prefix] = struct{}{}
		merged = append(merged, prefix)
	}

	return merged
}

func appendTrustedRanges(c *config, prefixes ...netip.Prefix) {
	if len(prefixes) == 0 {
		return
	}

	c.trustedRanges = mergeUniquePrefixes(c.trustedRanges, prefixes...)
}

func defaultConfig() *config {
	return &config{
		trustedRanges:        defaultTrustedRanges(),
		trustForwarded:       true,
		trustXForwardedFor:   true,
		trustXForwardedHost:  true,
		trustXForwardedProto: true,
		trustXForwardedBy:    true,
		maxChainLength:       DefaultMaxChainLength,
		logger:               noopLogger{},
		metrics:              noopMetrics{},
	}
}

func applyOptions(c *config, opts ...Option) error {
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return err
		}
	}

	return nil
}

func configFromOptions(opts ...Option) (*config, error) {
	cfg := defaultConfig()

	if err := applyOptions(cfg, opts...); err != nil {
		return nil, err
	}

	cfg.trustedRangeMatch = buildTrustedRangeMatcher(cfg.trustedRanges)

	if cfg.useMetricsFactory && cfg.metricsFactory == nil {
		return nil, fmt.Errorf("metrics factory cannot be nil")
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if cfg.useMetricsFactory {
		metrics, err := cfg.metricsFactory()
		if err != nil {
			return nil, err
		}
		cfg.metrics = metrics

		if err := cfg.validate(); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}
