package routing

import (
	"sort"
	"strings"

	"github.com/amirasaad/kapital/pkg/currency"
)

const (
	// DefaultMaxHops bounds path length; exhaustive enumeration is
	// exponential in the currency count without it.
	DefaultMaxHops = 4
	// DefaultMaxResults bounds how many paths a single search may return.
	DefaultMaxResults = 32
)

// Path is one conversion route: an ordered currency sequence and the
// provider responsible for each hop.
//
// Invariant: len(Providers) == len(Currencies) - 1.
type Path struct {
	Currencies []currency.Code `json:"currencies"`
	Providers  []string        `json:"providers"`
}

// Hops returns the number of conversion hops in the path.
func (p Path) Hops() int {
	return len(p.Providers)
}

// Options bound a path search.
type Options struct {
	// MaxHops caps the number of hops per path; 0 means DefaultMaxHops.
	MaxHops int
	// MaxResults caps the number of returned paths; 0 means DefaultMaxResults.
	MaxResults int
}

func (o Options) maxHops() int {
	if o.MaxHops <= 0 {
		return DefaultMaxHops
	}
	return o.MaxHops
}

func (o Options) maxResults() int {
	if o.MaxResults <= 0 {
		return DefaultMaxResults
	}
	return o.MaxResults
}

// FindPaths enumerates simple paths (no repeated currency) from source to
// target by breadth-first traversal over the graph. Returns an empty slice
// when source or target is absent or unreachable.
//
// Results are sorted by hop count, then by the lexicographic provider
// sequence, so output order is deterministic regardless of map iteration.
func FindPaths(graph Graph, source, target currency.Code, opts Options) []Path {
	if _, ok := graph[source]; !ok {
		return nil
	}

	maxHops := opts.maxHops()
	maxResults := opts.maxResults()

	queue := []Path{{Currencies: []currency.Code{source}}}
	var results []Path

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		last := current.Currencies[len(current.Currencies)-1]
		if last == target {
			// A completed path is not extended further.
			results = append(results, current)
			continue
		}

		if current.Hops() >= maxHops {
			continue
		}

		for _, next := range sortedNeighbors(graph[last]) {
			if containsCode(current.Currencies, next) {
				continue
			}
			extended := Path{
				Currencies: append(append([]currency.Code{}, current.Currencies...), next),
				Providers:  append(append([]string{}, current.Providers...), graph[last][next]),
			}
			queue = append(queue, extended)
		}
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Hops() != results[j].Hops() {
			return results[i].Hops() < results[j].Hops()
		}
		pi := strings.Join(results[i].Providers, ",")
		pj := strings.Join(results[j].Providers, ",")
		if pi != pj {
			return pi < pj
		}
		return joinCodes(results[i].Currencies) < joinCodes(results[j].Currencies)
	})

	if len(results) > maxResults {
		results = results[:maxResults]
	}
	return results
}

func sortedNeighbors(edges map[currency.Code]string) []currency.Code {
	neighbors := make([]currency.Code, 0, len(edges))
	for next := range edges {
		neighbors = append(neighbors, next)
	}
	sort.Slice(neighbors, func(i, j int) bool { return neighbors[i] < neighbors[j] })
	return neighbors
}

func containsCode(codes []currency.Code, code currency.Code) bool {
	for _, c := range codes {
		if c == code {
			return true
		}
	}
	return false
}

func joinCodes(codes []currency.Code) string {
	parts := make([]string, len(codes))
	for i, c := range codes {
		parts[i] = c.String()
	}
	return strings.Join(parts, "-")
}
