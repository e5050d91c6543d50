// Package catalog supplies the set of identifiers already present in the
// store catalog. The membership cache is an explicit object with a TTL,
// passed into callers, never a process-wide singleton.
package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Lister enumerates distinct catalog identifiers. Implementations wrap
// whatever store the host system uses; the pipeline only needs the set.
type Lister interface {
	ListASINs(ctx context.Context) ([]string, error)
}

// SliceLister adapts a fixed identifier slice, e.g. one loaded from a file.
type SliceLister []string

func (l SliceLister) ListASINs(context.Context) ([]string, error) {
	return l, nil
}

// SetFrom builds a membership set from an identifier slice.
func SetFrom(asins []string) map[string]struct{} {
	set := make(map[string]struct{}, len(asins))
	for _, asin := range asins {
		set[asin] = struct{}{}
	}
	return set
}

const knownSetKey = "known-asins"

// Cache caches the known-identifier set with time-based expiry so repeated
// jobs within the TTL don't re-query the catalog store.
type Cache struct {
	lister Lister
	sets   *expirable.LRU[string, map[string]struct{}]
}

// NewCache wraps a lister with an expiring cache. A non-positive ttl
// means entries never expire.
func NewCache(lister Lister, ttl time.Duration) *Cache {
	return &Cache{
		lister: lister,
		sets:   expirable.NewLRU[string, map[string]struct{}](1, nil, ttl),
	}
}

// Known returns the cached membership set, re-listing the catalog when the
// cached copy has expired.
func (c *Cache) Known(ctx context.Context) (map[string]struct{}, error) {
	if set, ok := c.sets.Get(knownSetKey); ok {
		return set, nil
	}

	asins, err := c.lister.ListASINs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list catalog identifiers: %w", err)
	}

	set := SetFrom(asins)
	c.sets.Add(knownSetKey, set)
	return set, nil
}
