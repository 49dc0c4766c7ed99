// Package routing builds the currency-exchange graph from the provider
// directory and enumerates multi-hop conversion paths across it.
package routing

import (
	"sort"

	"github.com/amirasaad/kapital/pkg/currency"
	"github.com/amirasaad/kapital/pkg/provider"
)

// Graph is a directed currency graph: base currency -> payout currency ->
// provider key serving that directed pair.
//
// When multiple providers serve the same pair the edge label is
// last-writer-wins in provider key order; PairIndex keeps the full provider
// set per pair so callers can still compare providers.
type Graph map[currency.Code]map[currency.Code]string

// PairIndex records every provider serving a directed currency pair, keyed
// by "BASE-PAYOUT".
type PairIndex map[string]map[string]struct{}

// PairKey builds the index key for a directed currency pair.
func PairKey(base, payout currency.Code) string {
	return base.String() + "-" + payout.String()
}

// BuildGraph turns the provider directory into a directed currency graph and
// a provider index per directed pair. An empty directory yields an empty
// graph. The graph is rebuilt on every call; nothing is cached.
func BuildGraph(directory *provider.Directory) (Graph, PairIndex) {
	graph := make(Graph)
	index := make(PairIndex)

	for _, key := range directory.Keys() {
		info, err := directory.Get(key)
		if err != nil {
			continue
		}
		for base, payouts := range info.SupportedCurrencies {
			if graph[base] == nil {
				graph[base] = make(map[currency.Code]string)
			}
			for _, payout := range payouts {
				graph[base][payout] = key

				pairKey := PairKey(base, payout)
				if index[pairKey] == nil {
					index[pairKey] = make(map[string]struct{})
				}
				index[pairKey][key] = struct{}{}
			}
		}
	}

	return graph, index
}

// SupportedCurrencies returns the union of all base currencies and all payout
// currencies advertised across the directory, each sorted lexicographically.
func SupportedCurrencies(directory *provider.Directory) (baseCurrencies, pairCurrencies []currency.Code) {
	baseSet := make(map[currency.Code]struct{})
	pairSet := make(map[currency.Code]struct{})

	for _, info := range directory.List() {
		for base, payouts := range info.SupportedCurrencies {
			baseSet[base] = struct{}{}
			for _, payout := range payouts {
				pairSet[payout] = struct{}{}
			}
		}
	}

	return sortedCodes(baseSet), sortedCodes(pairSet)
}

func sortedCodes(set map[currency.Code]struct{}) []currency.Code {
	codes := make([]currency.Code, 0, len(set))
	for code := range set {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}
