package naming

import "strings"

// ══════════════════════════════════════════════════════════════════════════════
// FUZZY NAME RESOLUTION
// Token-set Jaccard similarity plus a prefix bonus. Edit distance is too strict
// for "Last First" vs "First Last"; token overlap is not, and the bonus rewards
// one name being a truncation of the other.
// ══════════════════════════════════════════════════════════════════════════════

const (
	// PrefixBonus is added when a shared token prefixes either full name.
	PrefixBonus = 0.2

	// MatchThreshold is the minimum score a fuzzy candidate needs.
	MatchThreshold = 0.34
)

// Match describes how a reference was resolved.
type Match struct {
	// Name is the canonical name taken from the pool.
	Name string

	// Score is the similarity score; exact matches report 1.
	Score float64

	// Exact is true when the reference was found verbatim in the pool.
	Exact bool
}

type candidate struct {
	name   string
	tokens TokenSet
}

// Resolver matches canonical names against a fixed, ordered pool.
// Pool order decides ties: the first candidate with the best score wins.
type Resolver struct {
	members    map[string]struct{}
	candidates []candidate
}

// NewResolver prepares a resolver over pool. Tokens are computed once.
func NewResolver(pool []string) *Resolver {
	r := &Resolver{
		members:    make(map[string]struct{}, len(pool)),
		candidates: make([]candidate, 0, len(pool)),
	}
	for _, name := range pool {
		r.members[name] = struct{}{}
		r.candidates = append(r.candidates, candidate{name: name, tokens: Tokenize(name)})
	}
	return r
}

// Len returns the pool size.
func (r *Resolver) Len() int {
	return len(r.candidates)
}

// Resolve returns the pool name that target refers to, if any.
func (r *Resolver) Resolve(target string) (string, bool) {
	m, ok := r.ResolveMatch(target)
	return m.Name, ok
}

// ResolveMatch is Resolve with scoring details.
func (r *Resolver) ResolveMatch(target string) (Match, bool) {
	if _, ok := r.members[target]; ok {
		return Match{Name: target, Score: 1, Exact: true}, true
	}

	targetTokens := Tokenize(target)
	if len(targetTokens) == 0 {
		return Match{}, false
	}

	var best Match
	for _, c := range r.candidates {
		if len(c.tokens) == 0 {
			continue
		}
		score := similarity(target, targetTokens, c.name, c.tokens)
		if score > best.Score {
			best = Match{Name: c.name, Score: score}
		}
	}

	if best.Name == "" || best.Score < MatchThreshold {
		return Match{}, false
	}
	return best, true
}

// Resolve is a one-shot helper over an ad hoc pool.
func Resolve(target string, pool []string) (string, bool) {
	return NewResolver(pool).Resolve(target)
}

// Similarity scores two canonical names the way the resolver does.
func Similarity(target, candidate string) float64 {
	tt, ct := Tokenize(target), Tokenize(candidate)
	if len(tt) == 0 || len(ct) == 0 {
		return 0
	}
	return similarity(target, tt, candidate, ct)
}

func similarity(target string, tt TokenSet, cand string, ct TokenSet) float64 {
	shared := tt.Intersect(ct)
	union := len(tt) + len(ct) - len(shared)
	if union == 0 {
		return 0
	}

	score := float64(len(shared)) / float64(union)
	for tok := range shared {
		if strings.HasPrefix(cand, tok) || strings.HasPrefix(target, tok) {
			score += PrefixBonus
			break
		}
	}
	return score
}
