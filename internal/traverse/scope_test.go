package traverse

import (
	"testing"

	"github.com/nao1215/webgrep/internal/resource"
)

// TestPolicyAllowed covers the full scope truth table.
func TestPolicyAllowed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		includeAll  bool
		includeSame bool
		primary     bool
		sameOrigin  bool
		want        bool
	}{
		{name: "primary always allowed", primary: true, want: true},
		{name: "primary allowed even with all flags off", primary: true, sameOrigin: false, want: true},
		{name: "include all admits cross origin", includeAll: true, want: true},
		{name: "include all admits same origin", includeAll: true, sameOrigin: true, want: true},
		{name: "same origin flag admits same origin", includeSame: true, sameOrigin: true, want: true},
		{name: "same origin flag rejects cross origin", includeSame: true, sameOrigin: false, want: false},
		{name: "no flags rejects same origin", includeSame: false, sameOrigin: true, want: false},
		{name: "no flags rejects cross origin", want: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := Policy{
				IncludeAllOrigins: tt.includeAll,
				IncludeSameOrigin: tt.includeSame,
			}
			res := &resource.Resource{
				Primary:    tt.primary,
				SameOrigin: tt.sameOrigin,
			}

			if got := p.Allowed(res); got != tt.want {
				t.Errorf("Allowed() = %v, want %v", got, tt.want)
			}
		})
	}
}
