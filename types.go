package trustedproxies

import (
	"fmt"
	"net/netip"
	"strings"
)

// Trusted is the resolved client identity for one request.
//
// The value is immutable once returned. IP is always set: it is either the
// outermost address the trust chain walk could vouch for, or the immediate
// peer address when nothing further could be trusted. Host, Port and Scheme
// fall back to the request's own values when no trusted header claimed them.
type Trusted struct {
	ip     netip.Addr
	host   string
	port   int
	scheme string
	by     string
	source string
}

// IP returns the resolved client address.
func (t Trusted) IP() netip.Addr {
	return t.ip
}

// Host returns the resolved host, without any port.
func (t Trusted) Host() string {
	return t.host
}

// Port returns the resolved port, or 0 when neither a trusted claim nor the
// request carried one.
func (t Trusted) Port() int {
	return t.port
}

// Scheme returns the resolved scheme, for example "http" or "https".
func (t Trusted) Scheme() string {
	return t.scheme
}

// By returns the identity the forwarding proxy reported for itself via a
// Forwarded by parameter or X-Forwarded-By, or "" when none was claimed.
func (t Trusted) By() string {
	return t.by
}

// Source returns the name of the header family that produced the resolved
// chain: SourceForwarded, SourceXForwardedFor, or SourceRemoteAddr when no
// usable chain was present.
func (t Trusted) Source() string {
	return t.source
}

// ParseCIDRs parses CIDR strings into prefixes for TrustRanges and friends.
func ParseCIDRs(cidrs ...string) ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(cidrs))
	for _, cidr := range cidrs {
		prefix, err := netip.ParsePrefix(cidr)
		if err != nil {
			return nil, fmt.Errorf("invalid CIDR %q: %w", cidr, err)
		}
		prefixes = append(prefixes, prefix)
	}
	return prefixes, nil
}

// NormalizeSourceName converts a header name to its source label form, for
// example "X-Forwarded-For" to "x_forwarded_for".
func NormalizeSourceName(headerName string) string {
	return strings.ToLower(strings.ReplaceAll(headerName, "-", "_"))
}
