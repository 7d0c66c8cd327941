package traverse

import "github.com/nao1215/webgrep/internal/resource"

// Policy decides whether a candidate resource participates in the run.
// A disallowed resource is neither fetched, searched, nor expanded; its
// construction may still have reserved a storage path, which is
// harmless.
type Policy struct {
	// IncludeAllOrigins admits resources regardless of origin.
	IncludeAllOrigins bool

	// IncludeSameOrigin admits resources whose origin matches their
	// parent's. Ignored when IncludeAllOrigins is set.
	IncludeSameOrigin bool
}

// Allowed reports whether res may be processed. The root resource and
// true data-scheme embedded resources are always allowed.
func (p Policy) Allowed(res *resource.Resource) bool {
	if res.Primary {
		return true
	}
	if p.IncludeAllOrigins {
		return true
	}
	return p.IncludeSameOrigin && res.SameOrigin
}
