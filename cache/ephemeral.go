// Package cache provides the process-local, time-boxed response cache that
// sits in front of the upstream adapters. Entries expire after a fixed TTL
// and the cache is size-bounded with LRU eviction, since this service runs as
// a long-lived process rather than a short-lived serverless instance.
package cache

import (
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	log "github.com/sirupsen/logrus"

	"listings-api-go/logcolors"
	"listings-api-go/providers"
)

// DefaultTTL is the response cache time-to-live.
const DefaultTTL = 5 * time.Minute

// Ephemeral caches normalized listing batches keyed by canonical query.
type Ephemeral struct {
	lru *expirable.LRU[string, []providers.Item]
	ttl time.Duration
}

// NewEphemeral creates a response cache holding at most maxEntries batches,
// each valid for ttl. Zero values fall back to sane defaults.
func NewEphemeral(maxEntries int, ttl time.Duration) *Ephemeral {
	if maxEntries <= 0 {
		maxEntries = 512
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &Ephemeral{
		lru: expirable.NewLRU[string, []providers.Item](maxEntries, nil, ttl),
		ttl: ttl,
	}
}

// Get returns the cached batch for key, or false when absent or expired.
func (e *Ephemeral) Get(key string) ([]providers.Item, bool) {
	items, ok := e.lru.Get(key)
	if !ok {
		return nil, false
	}
	return items, true
}

// Set stores a batch under key. The previous batch for the same key, if any,
// is replaced (last writer wins).
func (e *Ephemeral) Set(key string, items []providers.Item) {
	e.lru.Add(key, items)
	log.Debugf("%s Cached %d item(s) under %s (ttl %s)", logcolors.LogCache, len(items), key, e.ttl)
}

// Len returns the number of live entries.
func (e *Ephemeral) Len() int {
	return e.lru.Len()
}

// Purge drops every entry.
func (e *Ephemeral) Purge() {
	e.lru.Purge()
}

// Key builds the canonical cache key for a provider query. Field order is
// fixed, so two logically identical requests always produce identical keys.
func Key(provider string, q providers.Query) string {
	return fmt.Sprintf("listings:%s:hits=%d:offset=%d:keyword=%s:genre=%s",
		provider, q.Hits, q.Offset, strings.TrimSpace(q.Keyword), strings.TrimSpace(q.Genre))
}
