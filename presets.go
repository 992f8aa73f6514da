package trustedproxies

// PresetDirectConnection configures resolution for direct client-to-app
// traffic.
//
// No peer is trusted, so forwarding headers are never consulted and the
// result is always the peer address plus the request's own identity.
func PresetDirectConnection() Option {
	return TrustNoProxies()
}

// PresetLoopbackReverseProxy configures resolution for apps behind a reverse
// proxy on the same host (for example NGINX on localhost).
//
// Only loopback peers are trusted to report further hops.
func PresetLoopbackReverseProxy() Option {
	return func(c *config) error {
		return applyOptions(c,
			TrustOnlyRanges(loopbackRanges...),
		)
	}
}

// PresetPrivateReverseProxy configures resolution for apps behind reverse
// proxies in a typical VM or private-network setup.
//
// Loopback and private network peers are trusted to report further hops;
// link-local peers are not.
func PresetPrivateReverseProxy() Option {
	return func(c *config) error {
		return applyOptions(c,
			TrustOnlyRanges(loopbackRanges...),
			TrustPrivateRanges(),
		)
	}
}

// PresetLegacyProxyHeaders keeps the default trusted ranges but restricts the
// policy to the X-Forwarded-* family, for proxies that never emit Forwarded.
func PresetLegacyProxyHeaders() Option {
	return TrustHeaders(
		HeaderXForwardedFor,
		HeaderXForwardedHost,
		HeaderXForwardedProto,
		HeaderXForwardedBy,
	)
}
