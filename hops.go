package trustedproxies

// hopClaim is one link in a declared proxy chain.
//
// Every field is optional. A claim with no fields at all still occupies a
// chain position: the walk consumes it and then stops, because it names no
// next address to trust.
type hopClaim struct {
	forValue string
	host     string
	scheme   string
	by       string

	hasFor    bool
	hasHost   bool
	hasScheme bool
	hasBy     bool
}

// reverseHops flips a wire-order chain into nearest-to-server-first order.
func reverseHops(hops []hopClaim) []hopClaim {
	for i, j := 0, len(hops)-1; i < j; i, j = i+1, j-1 {
		hops[i], hops[j] = hops[j], hops[i]
	}
	return hops
}
