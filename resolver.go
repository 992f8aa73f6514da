package trustedproxies

import (
	"context"
	"fmt"
	"net/http"
	"net/netip"
)

// Resolver determines the real client identity (IP, host, port, scheme)
// behind a chain of reverse proxies, according to its trust policy.
//
// Resolver instances are safe for concurrent reuse: the configuration is
// read-only after New and every per-request value is freshly allocated.
type Resolver struct {
	config *config
}

// New creates a Resolver from zero or more Option builders.
//
// The default policy trusts loopback, link-local and private network ranges
// and consults all five forwarding header families.
func New(opts ...Option) (*Resolver, error) {
	cfg, err := configFromOptions(opts...)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &Resolver{config: cfg}, nil
}

// Resolve resolves the trusted client identity for an HTTP request, taking
// the peer address from Request.RemoteAddr.
//
// Resolution never fails: when nothing beyond the peer can be trusted the
// result degrades to the peer address and the request's own host, port and
// scheme.
func (r *Resolver) Resolve(req *http.Request) Trusted {
	if req == nil {
		req = &http.Request{}
	}

	return r.ResolvePeer(parseAddr(req.RemoteAddr), req)
}

// ResolvePeer is Resolve with a transport-supplied peer address, for servers
// that already hold the validated TCP source address.
func (r *Resolver) ResolvePeer(peer netip.Addr, req *http.Request) Trusted {
	if req == nil {
		req = &http.Request{}
	}

	return r.resolve(requestContext(req), peer, requestIdentityFromHTTP(req), collectHeaders(r.config, httpHeaderValues(req)))
}

// ResolveFrom resolves the trusted client identity from framework-agnostic
// request input.
func (r *Resolver) ResolveFrom(input RequestInput) Trusted {
	return r.resolve(requestInputContext(input), input.Peer, requestIdentityFromInput(input), collectHeaders(r.config, input.Headers))
}

// ResolveWithOptions is a one-shot convenience helper.
//
// It constructs a temporary resolver from opts and resolves the identity for
// req.
func ResolveWithOptions(req *http.Request, opts ...Option) (Trusted, error) {
	resolver, err := New(opts...)
	if err != nil {
		return Trusted{}, err
	}

	return resolver.Resolve(req), nil
}

// ResolveFromWithOptions is a one-shot convenience helper for
// framework-agnostic request input.
func ResolveFromWithOptions(input RequestInput, opts ...Option) (Trusted, error) {
	resolver, err := New(opts...)
	if err != nil {
		return Trusted{}, err
	}

	return resolver.ResolveFrom(input), nil
}

// isTrusted reports whether the policy trusts addr to describe the next hop.
func (r *Resolver) isTrusted(addr netip.Addr) bool {
	return r.config.trustedRangeMatch.contains(normalizeIP(addr))
}

// resolve walks the declared proxy chain outward from the peer address,
// committing claims hop by hop until the first untrusted or unparsable hop.
func (r *Resolver) resolve(ctx context.Context, peer netip.Addr, fallback requestIdentity, headers requestHeaders) Trusted {
	trusted := Trusted{
		ip:     normalizeIP(peer),
		host:   fallback.host,
		port:   fallback.port,
		scheme: fallback.scheme,
		source: SourceRemoteAddr,
	}

	if !r.isTrusted(peer) {
		if headers.anyPresent() {
			r.config.metrics.RecordSecurityEvent(securityEventUntrustedPeer)
			r.config.logger.WarnContext(ctx, "forwarding headers received from untrusted peer",
				"event", securityEventUntrustedPeer,
				"peer", trusted.ip.String(),
			)
		}

		r.config.metrics.RecordResolution(trusted.source)
		return trusted
	}

	chain := r.parseForwardedChain(ctx, headers.forwarded)
	legacy := false
	if len(chain) == 0 {
		chain = r.parseLegacyChain(ctx, headers)
		legacy = true
	}

	if len(chain) > 0 {
		if legacy {
			trusted.source = SourceXForwardedFor
		} else {
			trusted.source = SourceForwarded
		}
	}

	current := normalizeIP(peer)
	forPort := 0
	hostAdopted, schemeAdopted, byAdopted := false, false, false

	for _, hop := range chain {
		if !r.isTrusted(current) {
			break
		}

		if hop.hasHost && hop.host != "" {
			host, port := splitHostPort(hop.host)
			trusted.host = host
			if port > 0 {
				trusted.port = port
			}
			hostAdopted = true
		}
		if hop.hasScheme && hop.scheme != "" {
			trusted.scheme = hop.scheme
			schemeAdopted = true
		}
		if hop.hasBy && hop.by != "" {
			trusted.by = hop.by
			byAdopted = true
		}

		if !hop.hasFor {
			break
		}

		addr, port := parseAddrPort(hop.forValue)
		if !addr.IsValid() {
			r.config.metrics.RecordSecurityEvent(securityEventUnparsableForAddr)
			break
		}

		current = normalizeIP(addr)
		forPort = port
	}

	trusted.ip = current
	if forPort > 0 {
		trusted.port = forPort
	}

	// A Forwarded element may be partial; each missing field falls back to
	// its legacy single-value header independently.
	if !legacy {
		if !hostAdopted {
			if host, ok := singleLegacyValue(headers.xfHost); ok {
				bare, port := splitHostPort(host)
				trusted.host = bare
				if port > 0 && forPort == 0 {
					trusted.port = port
				}
			}
		}
		if !schemeAdopted {
			if scheme, ok := singleLegacyValue(headers.xfProto); ok {
				trusted.scheme = scheme
			}
		}
		if !byAdopted {
			if by, ok := singleLegacyValue(headers.xfBy); ok {
				trusted.by = by
			}
		}
	}

	r.config.metrics.RecordResolution(trusted.source)
	return trusted
}

// capChain truncates a chain to the configured maximum, keeping the hops
// nearest to the server.
func (r *Resolver) capChain(ctx context.Context, hops []hopClaim, sourceName string) []hopClaim {
	if len(hops) <= r.config.maxChainLength {
		return hops
	}

	r.config.metrics.RecordSecurityEvent(securityEventChainTruncated)
	r.config.logger.WarnContext(ctx, "proxy chain exceeds configured maximum length",
		"event", securityEventChainTruncated,
		"source", sourceName,
		"chain_length", len(hops),
		"max_length", r.config.maxChainLength,
	)

	return hops[:r.config.maxChainLength]
}

func requestContext(req *http.Request) context.Context {
	if req == nil {
		return context.Background()
	}

	return req.Context()
}
