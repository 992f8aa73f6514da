package trustedproxies

const (
	securityEventUntrustedPeer      = "untrusted_peer"
	securityEventChainTruncated     = "chain_truncated"
	securityEventMalformedForwarded = "malformed_forwarded"
	securityEventUnparsableForAddr  = "unparsable_for_addr"
)
