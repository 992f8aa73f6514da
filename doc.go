// Package trustedproxies resolves the real client identity (IP address,
// host, port, scheme) behind a chain of reverse proxies, from an inbound
// HTTP request and the immediate TCP peer address, according to a
// configurable trust policy.
//
// # Features
//
//   - RFC 7239 Forwarded header support, preferred over the legacy
//     X-Forwarded-For / X-Forwarded-Host / X-Forwarded-Proto /
//     X-Forwarded-By family
//   - Trust-chain walk from the peer outward, halting at the first hop not
//     covered by the trust policy
//   - CIDR-based trust matching with safe defaults (loopback, link-local,
//     private networks)
//   - Best-effort degradation: resolution never fails, malformed claims are
//     skipped or end the walk at the last known-good value
//   - Optional observability with context-aware logging and pluggable
//     metrics
//   - Type-safe using modern Go netip.Addr
//
// # Basic Usage
//
// Resolution with the default policy:
//
//	resolver, err := trustedproxies.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	trusted := resolver.Resolve(req)
//	fmt.Printf("client %s via %s://%s:%d\n",
//	    trusted.IP(), trusted.Scheme(), trusted.Host(), trusted.Port())
//
// # Trust Policy
//
// The policy decides which peers may describe further hops and which header
// families are consulted at all:
//
//	cidrs, _ := trustedproxies.ParseCIDRs("203.0.113.0/24")
//	resolver, err := trustedproxies.New(
//	    trustedproxies.TrustOnlyRanges(cidrs...),
//	    trustedproxies.TrustHeaders(
//	        trustedproxies.HeaderForwarded,
//	        trustedproxies.HeaderXForwardedFor,
//	    ),
//	)
//
// Presets are available for common setups:
//
//	resolver, _ := trustedproxies.New(trustedproxies.PresetLoopbackReverseProxy())
//
// # Observability
//
// Add logging and metrics for production monitoring. The logger receives the
// request context, allowing trace and span IDs to flow through. A Prometheus
// metrics implementation is provided by the
// github.com/redirectionio/trusted-proxies/prometheus subpackage:
//
//	import tpprom "github.com/redirectionio/trusted-proxies/prometheus"
//
//	metrics, _ := tpprom.New()
//
//	resolver, err := trustedproxies.New(
//	    trustedproxies.WithLogger(slog.Default()),
//	    trustedproxies.WithMetrics(metrics),
//	)
//
// # Resolution Semantics
//
// The walk starts at the immediate peer address, which is always trusted as
// the live TCP source. While the current address falls within the trusted
// ranges, the next hop claim is consumed: its host, proto and by values are
// adopted, and its for address becomes the new current address. The walk
// stops at the first address outside the trusted ranges, at a hop without a
// parsable for value, or when the chain is exhausted. The result is the
// outermost address the policy could vouch for; with an untrusted peer that
// is the peer address itself, regardless of header content.
//
// # Thread Safety
//
// Resolver instances are safe for concurrent use. They are typically created
// once at application startup and reused across all requests.
package trustedproxies
