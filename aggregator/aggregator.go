// Package aggregator orchestrates listing requests across cache tiers, the
// persistent store and the upstream providers. Every request produces a
// response; upstream trouble degrades to stored or synthesized content
// instead of an error page.
package aggregator

import (
	"context"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"listings-api-go/cache"
	"listings-api-go/circuitbreaker"
	"listings-api-go/logcolors"
	"listings-api-go/metrics"
	"listings-api-go/notifier"
	"listings-api-go/providers"
	"listings-api-go/stats"
	"listings-api-go/store"
	"listings-api-go/throttle"
)

// Source tags describing which layer served a response. Kept verbatim from
// the previous deployment so existing clients keep working.
const (
	SourceAPI               = "api"
	SourceMemoryCache       = "memory_cache"
	SourcePersistentCache   = "persistent_cache"
	SourceFirestoreFallback = "firestore_fallback"
	SourceDemo              = "demo"
	SourceErrorFallback     = "error_fallback"
	SourceGeneralFallback   = "general_fallback"
)

// Result is the canonical listings response.
type Result struct {
	Success bool             `json:"success"`
	Data    []providers.Item `json:"data"`
	Source  string           `json:"source"`
	Error   string           `json:"error,omitempty"`
}

// HealthReport summarizes rate usage and store health.
type HealthReport struct {
	RateLimit             map[string]throttle.Usage `json:"rateLimit"`
	PersistentStoreStatus string                    `json:"persistentStoreStatus"`
}

// Config wires the aggregator's collaborators.
type Config struct {
	Registry         *providers.Registry
	Limiter          *throttle.Limiter
	Cache            *cache.Ephemeral
	Store            *store.ItemStore
	Metrics          *metrics.Metrics
	BreakerThreshold int
	BreakerCooldown  time.Duration
}

// Aggregator coordinates the full request lifecycle for listings.
type Aggregator struct {
	registry *providers.Registry
	limiter  *throttle.Limiter
	cache    *cache.Ephemeral
	store    *store.ItemStore
	metrics  *metrics.Metrics

	breakerMu        sync.Mutex
	breakers         map[string]*circuitbreaker.CircuitBreaker
	breakerThreshold int
	breakerCooldown  time.Duration

	persistWG sync.WaitGroup
	now       func() time.Time
}

// New creates an aggregator. Store may be nil when persistence failed to
// open; every store interaction degrades gracefully in that case.
func New(cfg Config) *Aggregator {
	return &Aggregator{
		registry:         cfg.Registry,
		limiter:          cfg.Limiter,
		cache:            cfg.Cache,
		store:            cfg.Store,
		metrics:          cfg.Metrics,
		breakers:         make(map[string]*circuitbreaker.CircuitBreaker),
		breakerThreshold: cfg.BreakerThreshold,
		breakerCooldown:  cfg.BreakerCooldown,
		now:              time.Now,
	}
}

// SetClock overrides the time source. Test hook.
func (a *Aggregator) SetClock(now func() time.Time) {
	a.now = now
}

// breaker returns the circuit breaker for a provider, creating it on first use.
func (a *Aggregator) breaker(name string) *circuitbreaker.CircuitBreaker {
	a.breakerMu.Lock()
	defer a.breakerMu.Unlock()

	if cb, ok := a.breakers[name]; ok {
		return cb
	}
	cb := circuitbreaker.New(circuitbreaker.Config{
		Name:      name,
		Threshold: a.breakerThreshold,
		Cooldown:  a.breakerCooldown,
	})
	a.breakers[name] = cb
	return cb
}

// FetchListings runs the full request state machine for one provider.
func (a *Aggregator) FetchListings(ctx context.Context, providerName string, q providers.Query) *Result {
	provider, err := a.registry.Get(providerName)
	if err != nil {
		return &Result{
			Success: false,
			Data:    []providers.Item{},
			Source:  SourceErrorFallback,
			Error:   err.Error(),
		}
	}

	caps := provider.Capabilities()

	// Store-first: providers whose catalog changes slowly are served from
	// the persistent store whenever it can fill the whole page, skipping
	// rate limiting and upstream entirely.
	storeMatches := 0
	if caps.StoreFirst && a.store != nil {
		n, err := a.store.Count(q.Keyword)
		if err != nil {
			log.Warnf("%s Count failed, skipping store-first: %v", logcolors.LogStore, err)
		} else {
			storeMatches = n
		}

		if storeMatches >= q.Hits {
			recs, err := a.store.Query(q.Hits, q.Offset-1, q.Keyword)
			if err == nil && len(recs) > 0 {
				log.Infof("%s Serving %d item(s) store-first for %s", logcolors.LogListings, len(recs), providerName)
				stats.Get().RecordStoreHit()
				return a.serve(providerName, SourcePersistentCache, recordItems(recs), "")
			}
			if err != nil {
				log.Warnf("%s Query failed, falling through: %v", logcolors.LogStore, err)
			}
		}
	}

	// Ephemeral cache: only consulted when the store had nothing, so a
	// freshly ingested catalog is preferred over a stale page.
	if !caps.StoreFirst || storeMatches == 0 {
		key := cache.Key(providerName, q)
		if items, ok := a.cache.Get(key); ok {
			log.Infof("%s Cache hit for %s", logcolors.LogCache, key)
			stats.Get().RecordCacheHit()
			return a.serve(providerName, SourceMemoryCache, items, "")
		}
		stats.Get().RecordCacheMiss()
	}

	// Circuit breaker: a tripped provider drains from fallbacks without
	// touching upstream.
	cb := a.breaker(providerName)
	if !cb.Allow() {
		log.Warnf("%s Circuit open for %s, serving fallback", logcolors.LogFallback, providerName)
		return a.degrade(providerName, provider, q, SourceDemo, "")
	}

	// Rate check: denial is a soft limit, never an error.
	if !a.limiter.CanMakeRequest(providerName) {
		usage := a.limiter.Usage(providerName)
		log.Warnf("%s Budget exhausted for %s (%d/%d), serving fallback",
			logcolors.LogThrottle, providerName, usage.Used, usage.Limit)
		stats.Get().RecordRateCeilingDeferred()
		notifier.PublishRateCeilingReached(providerName, usage.Used, usage.Limit)
		return a.degrade(providerName, provider, q, SourceDemo, "")
	}

	// Upstream fetch with the provider's own deadline.
	fetchCtx, cancel := context.WithTimeout(ctx, caps.Timeout)
	defer cancel()

	start := a.now()
	items, err := provider.Fetch(fetchCtx, q)
	a.metrics.ObserveUpstreamDuration(providerName, time.Since(start))

	if err != nil {
		return a.handleFetchError(providerName, provider, q, cb, err)
	}

	cb.RecordSuccess()
	a.limiter.RecordRequest(providerName)
	stats.Get().RecordUpstreamCall(false)
	a.metrics.IncUpstream(providerName, "success")

	if len(items) == 0 {
		log.Warnf("%s Upstream returned zero items for %s", logcolors.LogListings, providerName)
		return a.degradeEmpty(providerName, provider, q)
	}

	a.cache.Set(cache.Key(providerName, q), items)
	a.persist(providerName, items)

	return a.serve(providerName, SourceAPI, items, "")
}

// handleFetchError classifies an upstream failure and picks the degraded path.
func (a *Aggregator) handleFetchError(providerName string, provider providers.Provider, q providers.Query, cb *circuitbreaker.CircuitBreaker, err error) *Result {
	kind := providers.Classify(err)

	// A missing credential is a configuration problem, not upstream
	// weather; it neither trips the breaker nor has a fallback.
	if kind == providers.KindPrecondition {
		log.Errorf("%s Precondition failure for %s: %v", logcolors.LogListings, providerName, err)
		return &Result{
			Success: false,
			Data:    []providers.Item{},
			Source:  SourceErrorFallback,
			Error:   err.Error(),
		}
	}

	cb.RecordFailure()
	stats.Get().RecordUpstreamCall(true)
	a.metrics.IncUpstream(providerName, kind.String())

	log.Warnf("%s Upstream failure for %s (%s): %v", logcolors.LogFallback, providerName, kind, err)

	if kind == providers.KindBadRequest && !provider.Capabilities().FallbackOnBadRequest {
		// This provider's 400s are auth mistakes worth surfacing.
		return &Result{
			Success: false,
			Data:    []providers.Item{},
			Source:  SourceErrorFallback,
			Error:   err.Error(),
		}
	}

	source := SourceErrorFallback
	if kind == providers.KindUpstream {
		source = SourceGeneralFallback
	}
	return a.degrade(providerName, provider, q, source, err.Error())
}

// degrade serves the fallback chain: stored items by keyword first, then a
// synthesized page. syntheticSource tags the synthesized variant; errMsg is
// relayed for observability when the degradation was caused by a failure.
func (a *Aggregator) degrade(providerName string, provider providers.Provider, q providers.Query, syntheticSource, errMsg string) *Result {
	if a.store != nil {
		recs, err := a.store.Query(q.Hits, 0, q.Keyword)
		if err != nil {
			log.Warnf("%s Fallback query failed: %v", logcolors.LogStore, err)
		} else if len(recs) > 0 {
			log.Infof("%s Serving %d stored item(s) for %s", logcolors.LogFallback, len(recs), providerName)
			return a.serve(providerName, SourceFirestoreFallback, recordItems(recs), errMsg)
		}
	}

	log.Infof("%s Store empty, synthesizing %d item(s) for %s", logcolors.LogFallback, q.Hits, providerName)
	items := demoItems(provider.Name(), q.Hits, a.now())
	return a.serve(providerName, syntheticSource, items, errMsg)
}

// degradeEmpty handles a successful upstream call that returned nothing.
// Stored content still serves; with nothing anywhere this is the one
// terminal state besides a precondition failure that fails the request.
func (a *Aggregator) degradeEmpty(providerName string, provider providers.Provider, q providers.Query) *Result {
	if a.store != nil {
		recs, err := a.store.Query(q.Hits, 0, q.Keyword)
		if err == nil && len(recs) > 0 {
			return a.serve(providerName, SourceFirestoreFallback, recordItems(recs), "")
		}
	}

	return &Result{
		Success: false,
		Data:    []providers.Item{},
		Source:  SourceErrorFallback,
		Error:   "no content available from any source",
	}
}

// serve finalizes a successful (possibly degraded) response.
func (a *Aggregator) serve(providerName, source string, items []providers.Item, errMsg string) *Result {
	stats.Get().RecordSource(source)
	a.metrics.IncServed(providerName, source)
	return &Result{
		Success: true,
		Data:    items,
		Source:  source,
		Error:   errMsg,
	}
}

// persist writes fetched items through the store in the background. Writes
// are independent: one failure is logged and counted without cancelling its
// siblings or touching the response.
func (a *Aggregator) persist(providerName string, items []providers.Item) {
	if a.store == nil {
		return
	}

	a.persistWG.Add(1)
	go func() {
		defer a.persistWG.Done()

		failures := 0
		for _, item := range items {
			if err := a.store.Upsert(item); err != nil {
				failures++
				stats.Get().RecordPersist(true)
				a.metrics.IncPersist("failure")
				log.Errorf("%s Upsert failed for %s: %v", logcolors.LogStore, item.ID, err)
				continue
			}
			stats.Get().RecordPersist(false)
			a.metrics.IncPersist("success")
		}

		if failures > 0 {
			notifier.PublishPersistFailure(providerName, fmt.Errorf("%d of %d writes failed", failures, len(items)))
		}
	}()
}

// WaitPersist blocks until all background persistence writes have settled.
// Test hook.
func (a *Aggregator) WaitPersist() {
	a.persistWG.Wait()
}

// Health reports per-provider rate usage and persistent store status.
func (a *Aggregator) Health() HealthReport {
	report := HealthReport{
		RateLimit:             make(map[string]throttle.Usage),
		PersistentStoreStatus: store.StatusError,
	}

	for _, name := range a.registry.List() {
		report.RateLimit[name] = a.limiter.Usage(name)
	}

	if a.store != nil {
		report.PersistentStoreStatus = a.store.Status()
		if n, err := a.store.Count(""); err == nil {
			a.metrics.SetStoreRecords(n)
		}
	}

	return report
}

// PurgeExpired deletes persisted items older than the retention window.
func (a *Aggregator) PurgeExpired(retention time.Duration) (int, error) {
	if a.store == nil {
		return 0, fmt.Errorf("persistent store unavailable")
	}

	cutoff := a.now().Add(-retention)
	deleted, err := a.store.DeleteOlderThan(cutoff)
	if err != nil {
		notifier.PublishStorePurgeFailed(err)
		return 0, err
	}

	stats.Get().RecordPurged(deleted)
	notifier.PublishStorePurged(deleted)
	log.Infof("%s Purged %d record(s) older than %v", logcolors.LogPurge, deleted, retention)
	return deleted, nil
}

// Breakers exposes per-provider circuit breaker state for diagnostics.
func (a *Aggregator) Breakers() map[string]string {
	a.breakerMu.Lock()
	defer a.breakerMu.Unlock()

	out := make(map[string]string, len(a.breakers))
	for name, cb := range a.breakers {
		out[name] = cb.State().String()
	}
	return out
}

func recordItems(recs []store.Record) []providers.Item {
	items := make([]providers.Item, 0, len(recs))
	for _, rec := range recs {
		items = append(items, rec.Item)
	}
	return items
}
