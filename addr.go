package trustedproxies

import (
	"net"
	"net/netip"
	"strconv"
	"strings"
)

// parseAddr extracts an IP address from the formats found in proxy headers
// and peer addresses. It handles:
//   - Leading/trailing whitespace: "  192.168.1.1  "
//   - Port suffixes: "192.168.1.1:8080" or "[::1]:8080"
//   - Quoted values: "\"192.168.1.1\"" or "'192.168.1.1'"
//   - IPv6 brackets: "[::1]"
//
// Returns an invalid netip.Addr (IsValid() == false) if parsing fails.
func parseAddr(s string) netip.Addr {
	addr, _ := parseAddrPort(s)
	return addr
}

// parseAddrPort is parseAddr plus capture of an embedded port, as in
// "192.168.1.1:8080" or "[::1]:8080". The returned port is 0 when the value
// carried none.
func parseAddrPort(s string) (netip.Addr, int) {
	s = strings.TrimSpace(s)
	if s == "" {
		return netip.Addr{}, 0
	}

	s = trimMatchedChar(s, '"')
	s = trimMatchedChar(s, '\'')
	s = strings.TrimSpace(s)
	if s == "" {
		return netip.Addr{}, 0
	}

	port := 0
	if host, portStr, err := net.SplitHostPort(s); err == nil {
		s = host
		if parsed, perr := strconv.Atoi(portStr); perr == nil && parsed > 0 && parsed <= 65535 {
			port = parsed
		}
	}

	s = trimMatchedPair(s, '[', ']')

	ip, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Addr{}, 0
	}
	return ip, port
}

func normalizeIP(ip netip.Addr) netip.Addr {
	if ip.Is4In6() {
		return ip.Unmap()
	}
	return ip
}

// splitHostPort separates an authority or host claim into a bare host and an
// optional port. Unlike parseAddrPort the host part may be a DNS name.
func splitHostPort(s string) (string, int) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", 0
	}

	if host, portStr, err := net.SplitHostPort(s); err == nil {
		port := 0
		if parsed, perr := strconv.Atoi(portStr); perr == nil && parsed > 0 && parsed <= 65535 {
			port = parsed
		}
		return trimMatchedPair(host, '[', ']'), port
	}

	return trimMatchedPair(s, '[', ']'), 0
}

// trimMatchedPair removes one leading and trailing delimiter when both match.
func trimMatchedPair(s string, start, end byte) string {
	if len(s) < 2 {
		return s
	}

	if s[0] != start || s[len(s)-1] != end {
		return s
	}

	return s[1 : len(s)-1]
}

// trimMatchedChar removes one matching leading and trailing character.
func trimMatchedChar(s string, ch byte) string {
	return trimMatchedPair(s, ch, ch)
}
