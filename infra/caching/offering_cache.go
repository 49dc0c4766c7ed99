// Package caching decorates the offering catalog source with a Redis cache,
// keeping route discovery cheap while quotes stay live.
package caching

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/amirasaad/kapital/config"
	"github.com/amirasaad/kapital/pkg/offering"
)

// OfferingCache caches per-provider offering catalogs in Redis with a TTL.
// Cache failures degrade to the underlying source; a cache outage never
// blocks discovery.
type OfferingCache struct {
	source offering.CatalogSource
	client *redis.Client
	ttl    time.Duration
	prefix string
	logger *slog.Logger
}

// NewOfferingCache wraps a catalog source with Redis caching.
func NewOfferingCache(
	source offering.CatalogSource,
	client *redis.Client,
	cfg config.OfferingCache,
	logger *slog.Logger,
) *OfferingCache {
	return &OfferingCache{
		source: source,
		client: client,
		ttl:    cfg.TTL,
		prefix: cfg.Prefix,
		logger: logger.With("component", "offering_cache"),
	}
}

// GetOfferings implements offering.CatalogSource.
func (c *OfferingCache) GetOfferings(ctx context.Context, providerURI string) ([]offering.Offering, error) {
	key := c.prefix + providerURI

	if cached, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var catalog []offering.Offering
		if err := json.Unmarshal(cached, &catalog); err == nil {
			return catalog, nil
		}
		c.logger.Warn("discarding corrupt cached catalog", "key", key)
	} else if err != redis.Nil {
		c.logger.Warn("offering cache read failed", "key", key, "error", err)
	}

	catalog, err := c.source.GetOfferings(ctx, providerURI)
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(catalog)
	if err != nil {
		return catalog, nil
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("offering cache write failed", "key", key, "error", err)
	}
	return catalog, nil
}

// Invalidate drops the cached catalog for a provider.
func (c *OfferingCache) Invalidate(ctx context.Context, providerURI string) error {
	if err := c.client.Del(ctx, c.prefix+providerURI).Err(); err != nil {
		return fmt.Errorf("failed to invalidate offering cache: %w", err)
	}
	return nil
}

var _ offering.CatalogSource = (*OfferingCache)(nil)
