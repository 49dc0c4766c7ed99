package offering

import (
	"context"
	"log/slog"

	"github.com/amirasaad/kapital/pkg/currency"
	"github.com/amirasaad/kapital/pkg/provider"
	"github.com/amirasaad/kapital/pkg/routing"
)

// CatalogSource fetches a provider's full offering catalog. Implemented by
// the tbDEX protocol client (and its caching decorator).
type CatalogSource interface {
	GetOfferings(ctx context.Context, providerURI string) ([]Offering, error)
}

// ResolvedPath is a conversion path annotated with the offering selected for
// each hop. HopOffers is aligned with the path's providers; an unresolved
// hop is nil.
type ResolvedPath struct {
	routing.Path
	HopOffers []*Offering `json:"hopOffers"`
}

// Viable reports whether every hop resolved to an offering.
func (rp ResolvedPath) Viable() bool {
	if len(rp.HopOffers) != rp.Hops() {
		return false
	}
	for _, o := range rp.HopOffers {
		if o == nil {
			return false
		}
	}
	return true
}

// EstimatedRate multiplies the advertised rates along the path. The second
// return is false when the path is not viable or any rate is invalid.
func (rp ResolvedPath) EstimatedRate() (float64, bool) {
	if !rp.Viable() {
		return 0, false
	}
	rate := 1.0
	for _, o := range rp.HopOffers {
		r, err := o.Rate()
		if err != nil {
			return 0, false
		}
		rate *= r
	}
	return rate, true
}

// Resolver attaches concrete offerings to conversion paths by querying each
// hop's provider catalog, degrading to the static sample catalog when a
// fetch fails.
type Resolver struct {
	source    CatalogSource
	directory *provider.Directory
	fallback  []Offering
	logger    *slog.Logger
}

// NewResolver builds a resolver over the given catalog source and provider
// directory.
func NewResolver(
	source CatalogSource,
	directory *provider.Directory,
	logger *slog.Logger,
) *Resolver {
	return &Resolver{
		source:    source,
		directory: directory,
		fallback:  SampleCatalog(),
		logger:    logger.With("component", "offering.resolver"),
	}
}

// ResolveOffers annotates every path with the first applicable offering per
// hop. Resolution never fails: a hop whose catalog fetch errors falls back
// to the sample set, and a hop with no match stays nil. Callers must filter
// with Viable before presenting paths.
func (r *Resolver) ResolveOffers(ctx context.Context, paths []routing.Path) []ResolvedPath {
	resolved := make([]ResolvedPath, 0, len(paths))
	for _, path := range paths {
		rp := ResolvedPath{
			Path:      path,
			HopOffers: make([]*Offering, path.Hops()),
		}
		for hop := 0; hop < path.Hops(); hop++ {
			base := path.Currencies[hop]
			pair := path.Currencies[hop+1]
			rp.HopOffers[hop] = r.resolveHop(ctx, path.Providers[hop], base, pair)
		}
		resolved = append(resolved, rp)
	}
	return resolved
}

// Viable filters resolved paths down to those with an offering on every hop.
func Viable(paths []ResolvedPath) []ResolvedPath {
	out := make([]ResolvedPath, 0, len(paths))
	for _, rp := range paths {
		if rp.Viable() {
			out = append(out, rp)
		}
	}
	return out
}

func (r *Resolver) resolveHop(ctx context.Context, providerKey string, base, pair currency.Code) *Offering {
	info, err := r.directory.Get(providerKey)
	if err != nil {
		r.logger.Warn("unknown provider on path hop",
			"provider", providerKey, "base", base, "pair", pair)
		return PickApplicable(r.fallback, base, pair)
	}

	catalog, err := r.source.GetOfferings(ctx, info.URI)
	if err != nil {
		r.logger.Warn("offering catalog fetch failed, using sample set",
			"provider", info.Name, "uri", info.URI, "error", err)
		return PickApplicable(r.fallback, base, pair)
	}

	return PickApplicable(catalog, base, pair)
}
