// Package relations resolves the free-text friend and conflict references of
// a roster back to roster rows and derives same-class conflicts and broken
// mutual friendships.
//
// Identity is positional. Canonical names are the lookup key, but a reference
// always lands on a row index, and a row never relates to itself.
package relations

import (
	"github.com/alem-hub/roster-insights/internal/domain/naming"
	"github.com/alem-hub/roster-insights/internal/domain/roster"
)

// NameIndex maps name fragments to roster rows.
type NameIndex struct {
	rows     map[string][]int
	resolver *naming.Resolver
}

// NewNameIndex indexes the canonical names of r. The fuzzy pool holds each
// non-empty canonical name once, in the order of its first row, so ties are
// decided by roster order.
func NewNameIndex(r *roster.Roster) *NameIndex {
	rows := make(map[string][]int, r.Len())
	pool := make([]string, 0, r.Len())

	for _, s := range r.Students() {
		if s.CanonicalName == "" {
			continue
		}
		if _, seen := rows[s.CanonicalName]; !seen {
			pool = append(pool, s.CanonicalName)
		}
		rows[s.CanonicalName] = append(rows[s.CanonicalName], s.Row)
	}

	return &NameIndex{rows: rows, resolver: naming.NewResolver(pool)}
}

// Resolve returns the row that fragment refers to from the point of view of
// row self. The name is matched exactly first, then fuzzily. When several
// rows share the matched name, the first one other than self is returned.
// A name held only by self does not resolve.
//
// A plain name-to-row map would keep the last row bearing a duplicated name
// and could hand a row its own index back. Resolving per referencing row
// keeps two distinct students with the same name able to reference each other.
func (x *NameIndex) Resolve(fragment string, self int) (int, bool) {
	canon := naming.Canonicalize(fragment)
	if canon == "" {
		return -1, false
	}

	name, ok := x.resolver.Resolve(canon)
	if !ok {
		return -1, false
	}

	for _, row := range x.rows[name] {
		if row != self {
			return row, true
		}
	}
	return -1, false
}

// ResolveAll resolves every fragment for row self, dropping unresolved ones
// and repeats. Order follows the fragments. Friend lists use it; conflict
// counting resolves fragment by fragment and keeps repeats.
func (x *NameIndex) ResolveAll(fragments []string, self int) []int {
	var out []int
	seen := make(map[int]struct{}, len(fragments))
	for _, f := range fragments {
		row, ok := x.Resolve(f, self)
		if !ok {
			continue
		}
		if _, dup := seen[row]; dup {
			continue
		}
		seen[row] = struct{}{}
		out = append(out, row)
	}
	return out
}
