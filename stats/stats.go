// Package stats tracks server counters with atomics so the hot path never
// takes a lock.
package stats

import (
	"sync/atomic"
	"time"
)

// Stats holds all server statistics with atomic counters
type Stats struct {
	// Server info
	StartTime time.Time

	// Request counters
	TotalRequests    atomic.Int64
	ListingsRequests atomic.Int64
	StatsRequests    atomic.Int64
	HealthRequests   atomic.Int64
	PurgeRequests    atomic.Int64
	OtherRequests    atomic.Int64

	// Cache performance
	CacheHits   atomic.Int64
	CacheMisses atomic.Int64
	StoreHits   atomic.Int64

	// Content origin: which layer ultimately served the response
	ServedUpstream        atomic.Int64
	ServedMemoryCache     atomic.Int64
	ServedPersistentCache atomic.Int64
	ServedStaleFallback   atomic.Int64
	ServedDemo            atomic.Int64
	ServedErrorFallback   atomic.Int64

	// Upstream budget
	UpstreamCalls       atomic.Int64
	UpstreamFailures    atomic.Int64
	RateCeilingDeferred atomic.Int64 // requests diverted to fallbacks by the per-provider budget

	// HTTP rate limiting
	RateLimitExceeded atomic.Int64 // requests rejected (429)

	// Persistence
	PersistWrites   atomic.Int64
	PersistFailures atomic.Int64
	PurgedRecords   atomic.Int64

	// Response status codes
	Status2xx atomic.Int64
	Status4xx atomic.Int64
	Status5xx atomic.Int64

	// Response time tracking (in microseconds for precision)
	totalResponseTime atomic.Int64
	responseCount     atomic.Int64
	minResponseTime   atomic.Int64
	maxResponseTime   atomic.Int64

	// Listings endpoint response times (microseconds)
	listingsResponseTime  atomic.Int64
	listingsResponseCount atomic.Int64
}

// Global stats instance
var global = &Stats{
	StartTime: time.Now(),
}

func init() {
	// Initialize min to a high value
	global.minResponseTime.Store(int64(^uint64(0) >> 1)) // Max int64
}

// Get returns the global stats instance
func Get() *Stats {
	return global
}

// RecordRequest records a request to a specific endpoint
func (s *Stats) RecordRequest(endpoint string) {
	s.TotalRequests.Add(1)
	switch endpoint {
	case "/api/listings":
		s.ListingsRequests.Add(1)
	case "/stats":
		s.StatsRequests.Add(1)
	case "/health":
		s.HealthRequests.Add(1)
	case "/maintenance/purge":
		s.PurgeRequests.Add(1)
	default:
		s.OtherRequests.Add(1)
	}
}

// RecordCacheHit records an ephemeral cache hit
func (s *Stats) RecordCacheHit() {
	s.CacheHits.Add(1)
}

// RecordCacheMiss records an ephemeral cache miss
func (s *Stats) RecordCacheMiss() {
	s.CacheMisses.Add(1)
}

// RecordStoreHit records a persistent store hit
func (s *Stats) RecordStoreHit() {
	s.StoreHits.Add(1)
}

// RecordSource records which layer ultimately served a listings response
func (s *Stats) RecordSource(source string) {
	switch source {
	case "api":
		s.ServedUpstream.Add(1)
	case "memory_cache":
		s.ServedMemoryCache.Add(1)
	case "persistent_cache", "firestore_fallback":
		s.ServedPersistentCache.Add(1)
	case "general_fallback":
		s.ServedStaleFallback.Add(1)
	case "demo":
		s.ServedDemo.Add(1)
	case "error_fallback":
		s.ServedErrorFallback.Add(1)
	}
}

// RecordUpstreamCall records one upstream fetch attempt
func (s *Stats) RecordUpstreamCall(failed bool) {
	s.UpstreamCalls.Add(1)
	if failed {
		s.UpstreamFailures.Add(1)
	}
}

// RecordRateCeilingDeferred records a request diverted to fallbacks by the
// per-provider upstream budget
func (s *Stats) RecordRateCeilingDeferred() {
	s.RateCeilingDeferred.Add(1)
}

// RecordRateLimitExceeded records an HTTP request rejected with 429
func (s *Stats) RecordRateLimitExceeded() {
	s.RateLimitExceeded.Add(1)
}

// RecordPersist records a background store write
func (s *Stats) RecordPersist(failed bool) {
	if failed {
		s.PersistFailures.Add(1)
		return
	}
	s.PersistWrites.Add(1)
}

// RecordPurged records records removed by a retention purge
func (s *Stats) RecordPurged(count int) {
	s.PurgedRecords.Add(int64(count))
}

// RecordStatusCode records a response status code
func (s *Stats) RecordStatusCode(code int) {
	switch {
	case code >= 200 && code < 300:
		s.Status2xx.Add(1)
	case code >= 400 && code < 500:
		s.Status4xx.Add(1)
	case code >= 500:
		s.Status5xx.Add(1)
	}
}

// RecordResponseTime records a response time
func (s *Stats) RecordResponseTime(duration time.Duration, endpoint string) {
	us := duration.Microseconds()

	s.totalResponseTime.Add(us)
	s.responseCount.Add(1)

	// Update min/max atomically
	for {
		current := s.minResponseTime.Load()
		if us >= current || s.minResponseTime.CompareAndSwap(current, us) {
			break
		}
	}
	for {
		current := s.maxResponseTime.Load()
		if us <= current || s.maxResponseTime.CompareAndSwap(current, us) {
			break
		}
	}

	if endpoint == "/api/listings" {
		s.listingsResponseTime.Add(us)
		s.listingsResponseCount.Add(1)
	}
}

// Uptime returns the server uptime
func (s *Stats) Uptime() time.Duration {
	return time.Since(s.StartTime)
}

// CacheHitRate returns the ephemeral cache hit rate as a percentage
func (s *Stats) CacheHitRate() float64 {
	hits := s.CacheHits.Load()
	misses := s.CacheMisses.Load()
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total) * 100
}

// AvgResponseTime returns the average response time
func (s *Stats) AvgResponseTime() time.Duration {
	count := s.responseCount.Load()
	if count == 0 {
		return 0
	}
	return time.Duration(s.totalResponseTime.Load()/count) * time.Microsecond
}

// MinResponseTime returns the minimum response time
func (s *Stats) MinResponseTime() time.Duration {
	min := s.minResponseTime.Load()
	if min == int64(^uint64(0)>>1) {
		return 0
	}
	return time.Duration(min) * time.Microsecond
}

// MaxResponseTime returns the maximum response time
func (s *Stats) MaxResponseTime() time.Duration {
	return time.Duration(s.maxResponseTime.Load()) * time.Microsecond
}

// AvgListingsResponseTime returns the average response time for listings requests
func (s *Stats) AvgListingsResponseTime() time.Duration {
	count := s.listingsResponseCount.Load()
	if count == 0 {
		return 0
	}
	return time.Duration(s.listingsResponseTime.Load()/count) * time.Microsecond
}

// Snapshot returns a point-in-time snapshot of all stats
func (s *Stats) Snapshot() map[string]interface{} {
	uptime := s.Uptime()

	return map[string]interface{}{
		"server": map[string]interface{}{
			"start_time":     s.StartTime.Format(time.RFC3339),
			"uptime":         uptime.String(),
			"uptime_seconds": int64(uptime.Seconds()),
		},
		"requests": map[string]interface{}{
			"total":    s.TotalRequests.Load(),
			"listings": s.ListingsRequests.Load(),
			"stats":    s.StatsRequests.Load(),
			"health":   s.HealthRequests.Load(),
			"purge":    s.PurgeRequests.Load(),
			"other":    s.OtherRequests.Load(),
		},
		"cache": map[string]interface{}{
			"hits":       s.CacheHits.Load(),
			"misses":     s.CacheMisses.Load(),
			"store_hits": s.StoreHits.Load(),
			"hit_rate":   s.CacheHitRate(),
		},
		"sources": map[string]interface{}{
			"api":              s.ServedUpstream.Load(),
			"memory_cache":     s.ServedMemoryCache.Load(),
			"persistent_cache": s.ServedPersistentCache.Load(),
			"general_fallback": s.ServedStaleFallback.Load(),
			"demo":             s.ServedDemo.Load(),
			"error_fallback":   s.ServedErrorFallback.Load(),
		},
		"upstream": map[string]interface{}{
			"calls":                 s.UpstreamCalls.Load(),
			"failures":              s.UpstreamFailures.Load(),
			"rate_ceiling_deferred": s.RateCeilingDeferred.Load(),
		},
		"rate_limiting": map[string]interface{}{
			"exceeded": s.RateLimitExceeded.Load(),
		},
		"persistence": map[string]interface{}{
			"writes":         s.PersistWrites.Load(),
			"write_failures": s.PersistFailures.Load(),
			"purged_records": s.PurgedRecords.Load(),
		},
		"responses": map[string]interface{}{
			"2xx": s.Status2xx.Load(),
			"4xx": s.Status4xx.Load(),
			"5xx": s.Status5xx.Load(),
		},
		"response_times": map[string]interface{}{
			"avg":          s.AvgResponseTime().String(),
			"min":          s.MinResponseTime().String(),
			"max":          s.MaxResponseTime().String(),
			"avg_listings": s.AvgListingsResponseTime().String(),
		},
	}
}
