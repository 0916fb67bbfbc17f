package relations

import (
	"sort"

	"github.com/alem-hub/roster-insights/internal/domain/roster"
)

// BrokenPair is a mutual friendship split across two classes. A is always
// the earlier row.
type BrokenPair struct {
	A      string `json:"a"`
	AClass string `json:"a_class"`
	B      string `json:"b"`
	BClass string `json:"b_class"`
	ARow   int    `json:"a_row"`
	BRow   int    `json:"b_row"`
}

// FriendGraph is the directed "named as friend" relation between rows.
type FriendGraph map[int]map[int]struct{}

// Names reports whether row a names row b.
func (g FriendGraph) Names(a, b int) bool {
	_, ok := g[a][b]
	return ok
}

// Mutual reports whether a and b name each other.
func (g FriendGraph) Mutual(a, b int) bool {
	return g.Names(a, b) && g.Names(b, a)
}

// BuildFriendGraph resolves every friends cell of r. Unresolvable fragments
// are dropped. The graph is empty without name or friends columns.
func BuildFriendGraph(r *roster.Roster) FriendGraph {
	g := make(FriendGraph)
	if !r.HasNames() || !r.HasFriends() {
		return g
	}

	idx := NewNameIndex(r)
	for i := 0; i < r.Len(); i++ {
		targets := idx.ResolveAll(r.FriendFragments(i), i)
		if len(targets) == 0 {
			continue
		}
		set := make(map[int]struct{}, len(targets))
		for _, j := range targets {
			set[j] = struct{}{}
		}
		g[i] = set
	}
	return g
}

// FindBrokenPairs returns each mutual friendship whose rows carry different
// class labels, once, ordered by A row then B row.
func FindBrokenPairs(r *roster.Roster) []BrokenPair {
	pairs := []BrokenPair{}
	if !r.HasNames() || !r.HasClasses() || !r.HasFriends() {
		return pairs
	}

	g := BuildFriendGraph(r)
	students := r.Students()

	for a := range students {
		var partners []int
		for b := range g[a] {
			if a < b && g.Names(b, a) && students[a].ClassLabel != students[b].ClassLabel {
				partners = append(partners, b)
			}
		}
		sort.Ints(partners)

		for _, b := range partners {
			pairs = append(pairs, BrokenPair{
				A:      students[a].Name,
				AClass: students[a].ClassLabel,
				B:      students[b].Name,
				BClass: students[b].ClassLabel,
				ARow:   a,
				BRow:   b,
			})
		}
	}

	return pairs
}

// BrokenByClass counts pair sides per class: a pair adds one to each of its
// two classes.
func BrokenByClass(pairs []BrokenPair) map[string]int {
	out := make(map[string]int)
	for _, p := range pairs {
		out[p.AClass]++
		out[p.BClass]++
	}
	return out
}
