package platform

import "batterybots/internal/scape"

// DefaultScapes are registered by every Polis on Init.
func DefaultScapes() []scape.Forage {
	large, _ := scape.NewForage("forage-large", 20, 20, 160)
	sparse, _ := scape.NewForage("forage-sparse", scape.DefaultRows, scape.DefaultCols, 10)
	return []scape.Forage{scape.DefaultForage(), large, sparse}
}
