package trustedproxies

import (
	"context"
	"strings"
)

// parseLegacyChain builds a chain of hop claims from the X-Forwarded-*
// header family, ordered nearest-to-server first.
//
// X-Forwarded-For lists addresses client-first in wire order, so the
// flattened list is reversed. X-Forwarded-Host, -Proto and -By carry a
// single external-facing value each, not a per-hop chain; they are merged
// onto the nearest claim only. When they are present without any
// X-Forwarded-For addresses, a single otherwise-empty claim carries them.
func (r *Resolver) parseLegacyChain(ctx context.Context, headers requestHeaders) []hopClaim {
	hops := make([]hopClaim, 0, typicalChainCapacity)

	for _, value := range headers.xff {
		for _, part := range strings.Split(value, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				hops = append(hops, hopClaim{forValue: trimmed, hasFor: true})
			}
		}
	}

	hops = reverseHops(hops)

	host, hasHost := singleLegacyValue(headers.xfHost)
	scheme, hasScheme := singleLegacyValue(headers.xfProto)
	by, hasBy := singleLegacyValue(headers.xfBy)

	if hasHost || hasScheme || hasBy {
		if len(hops) == 0 {
			hops = append(hops, hopClaim{})
		}

		nearest := &hops[0]
		if hasHost {
			nearest.host = host
			nearest.hasHost = true
		}
		if hasScheme {
			nearest.scheme = scheme
			nearest.hasScheme = true
		}
		if hasBy {
			nearest.by = by
			nearest.hasBy = true
		}
	}

	if len(hops) == 0 {
		return nil
	}

	return r.capChain(ctx, hops, SourceXForwardedFor)
}

// singleLegacyValue selects the value of a single-valued X-Forwarded-*
// header. The first header instance wins when the header repeats; within
// that value a trailing comma list keeps the last element, which is the one
// the nearest proxy appended.
func singleLegacyValue(values []string) (string, bool) {
	if len(values) == 0 {
		return "", false
	}

	selected := ""
	for _, part := range strings.Split(values[0], ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			selected = trimmed
		}
	}

	if selected == "" {
		return "", false
	}

	return selected, true
}
