package trustedproxies

import (
	"context"
	"strings"
)

// typicalChainCapacity is the initial capacity used when parsing proxy
// chains.
//
// Most deployments have short chains (around 1-5 hops). Preallocating 8
// avoids reallocations in common cases without meaningful memory overhead.
const typicalChainCapacity = 8

// parseForwardedChain parses one or more Forwarded header values into a
// chain of hop claims ordered nearest-to-server first.
//
// Header values and their comma-separated elements are flattened in wire
// order and then reversed, since RFC 7239 proxies append their element after
// the existing ones. Malformed elements are skipped without aborting the
// rest; an element with no recognized parameter still yields an empty claim
// so it keeps its chain position.
func (r *Resolver) parseForwardedChain(ctx context.Context, values []string) []hopClaim {
	if len(values) == 0 {
		return nil
	}

	hops := make([]hopClaim, 0, typicalChainCapacity)
	malformed := 0

	for _, value := range values {
		for _, element := range splitQuoteAware(value, ',') {
			if element.malformed {
				malformed++
				continue
			}

			claim, ok := parseForwardedElement(element.text)
			if !ok {
				malformed++
				continue
			}

			hops = append(hops, claim)
		}
	}

	if malformed > 0 {
		r.config.metrics.RecordSecurityEvent(securityEventMalformedForwarded)
		r.config.logger.WarnContext(ctx, "skipped malformed Forwarded elements",
			"event", securityEventMalformedForwarded,
			"source", SourceForwarded,
			"skipped", malformed,
		)
	}

	if len(hops) == 0 {
		return nil
	}

	return r.capChain(ctx, reverseHops(hops), SourceForwarded)
}

// parseForwardedElement parses one Forwarded element, a semicolon-separated
// list of key=value parameters.
//
// Parameter names are case-insensitive; for, host, proto and by are
// recognized and anything else is ignored. A parameter without '=' or with
// an empty key marks the whole element malformed. Repeated recognized keys
// keep the last value. Quoted values lose their surrounding quotes; no
// further escape processing is applied.
func parseForwardedElement(element string) (hopClaim, bool) {
	var claim hopClaim

	for _, param := range splitQuoteAware(element, ';') {
		if param.malformed {
			return hopClaim{}, false
		}

		eq := strings.IndexByte(param.text, '=')
		if eq <= 0 {
			return hopClaim{}, false
		}

		key := strings.TrimSpace(param.text[:eq])
		value := unquoteForwardedValue(strings.TrimSpace(param.text[eq+1:]))

		switch {
		case strings.EqualFold(key, "for"):
			claim.forValue = value
			claim.hasFor = true
		case strings.EqualFold(key, "host"):
			claim.host = value
			claim.hasHost = true
		case strings.EqualFold(key, "proto"):
			claim.scheme = value
			claim.hasScheme = true
		case strings.EqualFold(key, "by"):
			claim.by = value
			claim.hasBy = true
		}
	}

	return claim, true
}

type segment struct {
	text      string
	malformed bool
}

// splitQuoteAware splits value by delimiter while keeping quoted sections
// intact. A segment left with an unbalanced quote is flagged malformed
// instead of failing the whole value.
func splitQuoteAware(value string, delimiter byte) []segment {
	var segments []segment

	start := 0
	inQuotes := false

	flush := func(end int) {
		text := strings.TrimSpace(value[start:end])
		if text == "" {
			return
		}

		segments = append(segments, segment{text: text, malformed: inQuotes})
	}

	for i := 0; i < len(value); i++ {
		ch := value[i]

		if ch == '"' {
			inQuotes = !inQuotes
			continue
		}

		if ch == delimiter && !inQuotes {
			flush(i)
			start = i + 1
		}
	}

	flush(len(value))

	return segments
}

// unquoteForwardedValue removes one pair of surrounding quotes. Escape
// sequences inside are left as-is; header claims carry addresses and host
// names, which never need them.
func unquoteForwardedValue(value string) string {
	return strings.TrimSpace(trimMatchedChar(value, '"'))
}
