package flash

import "github.com/smit-ai/flash-engine/body"

// Pair is an unordered candidate pair of body ids in canonical order (A < B)
type Pair struct {
	A int32
	B int32
}

// Broadphase produces deduplicated candidate pairs from body bounds. Exactly
// one implementation is live per world; proxies are created once per body and
// moved when a body's fattened bound changes.
type Broadphase interface {
	// CreateProxy registers a body's bound and returns a proxy handle
	CreateProxy(id int32, bounds body.AABB) int32
	// MoveProxy updates a proxy's bound and returns the (possibly new)
	// proxy handle
	MoveProxy(proxy int32, bounds body.AABB) int32
	// QueryPairs writes overlapping pairs into out and returns the count.
	// Excess pairs beyond len(out) are dropped silently.
	QueryPairs(out []Pair) int
}
