package trustedproxies

import (
	"context"
	"net/http"
	"net/netip"
	"strings"
)

// Canonical names of the header families a trust policy can consult.
const (
	HeaderForwarded       = "Forwarded"
	HeaderXForwardedFor   = "X-Forwarded-For"
	HeaderXForwardedHost  = "X-Forwarded-Host"
	HeaderXForwardedProto = "X-Forwarded-Proto"
	HeaderXForwardedBy    = "X-Forwarded-By"
)

// Source labels reported by Trusted.Source and metrics.
const (
	// SourceForwarded marks a chain resolved from the RFC 7239 Forwarded
	// header.
	SourceForwarded = "forwarded"
	// SourceXForwardedFor marks a chain resolved from the X-Forwarded-*
	// family.
	SourceXForwardedFor = "x_forwarded_for"
	// SourceRemoteAddr marks a resolution that used only the peer address.
	SourceRemoteAddr = "remote_addr"
)

// HeaderValues provides access to request header values by name.
//
// Implementations should return one slice entry per received header line.
// Header names are requested in canonical MIME format (for example
// "X-Forwarded-For").
//
// net/http's http.Header satisfies this interface directly.
type HeaderValues interface {
	Values(name string) []string
}

// HeaderValuesFunc adapts a function to the HeaderValues interface.
type HeaderValuesFunc func(name string) []string

// Values implements HeaderValues.
func (f HeaderValuesFunc) Values(name string) []string {
	if f == nil {
		return nil
	}

	return f(name)
}

// RequestInput provides framework-agnostic request data for resolution.
//
// Peer is the immediate TCP peer address as supplied by the transport.
// Authority and Scheme are the request's own identity, used as fallback when
// no trusted header claims them. Context defaults to context.Background()
// when nil.
type RequestInput struct {
	Context   context.Context
	Peer      netip.Addr
	Authority string
	Scheme    string
	Headers   HeaderValues
}

func requestInputContext(input RequestInput) context.Context {
	if input.Context == nil {
		return context.Background()
	}

	return input.Context
}

// requestIdentity is the request's own host, port and scheme, the values the
// resolution degrades to when no trusted claim replaces them.
type requestIdentity struct {
	host   string
	port   int
	scheme string
}

func requestIdentityFromInput(input RequestInput) requestIdentity {
	host, port := splitHostPort(input.Authority)

	return requestIdentity{
		host:   host,
		port:   port,
		scheme: input.Scheme,
	}
}

func requestIdentityFromHTTP(req *http.Request) requestIdentity {
	host, port := splitHostPort(req.Host)

	return requestIdentity{
		host:   host,
		port:   port,
		scheme: schemeFromHTTP(req),
	}
}

func schemeFromHTTP(req *http.Request) string {
	if req.TLS != nil {
		return "https"
	}

	if req.URL != nil && req.URL.Scheme != "" {
		return strings.ToLower(req.URL.Scheme)
	}

	return "http"
}

func httpHeaderValues(req *http.Request) HeaderValues {
	if req.Header == nil {
		return http.Header{}
	}

	return req.Header
}

// requestHeaders holds the raw values of the header families the policy
// allows, collected once per resolution. Disallowed families are never read.
type requestHeaders struct {
	forwarded []string
	xff       []string
	xfHost    []string
	xfProto   []string
	xfBy      []string
}

func (h requestHeaders) anyPresent() bool {
	return len(h.forwarded) > 0 || len(h.xff) > 0 || len(h.xfHost) > 0 || len(h.xfProto) > 0 || len(h.xfBy) > 0
}

func collectHeaders(cfg *config, headers HeaderValues) requestHeaders {
	var collected requestHeaders

	if headers == nil || isNilInterface(headers) {
		return collected
	}

	if cfg.trustForwarded {
		collected.forwarded = headers.Values(HeaderForwarded)
	}
	if cfg.trustXForwardedFor {
		collected.xff = headers.Values(HeaderXForwardedFor)
	}
	if cfg.trustXForwardedHost {
		collected.xfHost = headers.Values(HeaderXForwardedHost)
	}
	if cfg.trustXForwardedProto {
		collected.xfProto = headers.Values(HeaderXForwardedProto)
	}
	if cfg.trustXForwardedBy {
		collected.xfBy = headers.Values(HeaderXForwardedBy)
	}

	return collected
}
