// Package throttle implements a sliding-window request budget per upstream
// provider. It is deliberately best-effort: checks never block and never
// return errors, and an unconfigured provider is allowed through.
package throttle

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"listings-api-go/logcolors"
)

// Window is the trailing duration over which calls are counted.
const Window = 60 * time.Second

// Usage describes a provider's current window occupancy.
type Usage struct {
	Used      int `json:"used"`
	Limit     int `json:"limit"`
	Remaining int `json:"remaining"`
}

// Limiter tracks recent upstream call timestamps per provider and admits or
// rejects new call attempts against a per-provider ceiling.
//
// CanMakeRequest and RecordRequest form a check-then-act pair: two goroutines
// can both pass the check before either records. That race is accepted; the
// ceiling is a soft budget, not a hard invariant.
type Limiter struct {
	mu      sync.Mutex
	limits  map[string]int
	windows map[string][]time.Time
	now     func() time.Time
}

// New creates a limiter with per-provider per-minute ceilings. A provider
// absent from limits is never throttled.
func New(limits map[string]int) *Limiter {
	l := &Limiter{
		limits:  make(map[string]int, len(limits)),
		windows: make(map[string][]time.Time),
		now:     time.Now,
	}
	for provider, limit := range limits {
		l.limits[provider] = limit
	}
	return l
}

// SetClock replaces the time source. Intended for tests.
func (l *Limiter) SetClock(now func() time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = now
}

// prune drops timestamps older than the window. Callers must hold l.mu.
// Pruning rewrites the stored slice so the window cannot grow unbounded.
func (l *Limiter) prune(provider string, now time.Time) []time.Time {
	window := l.windows[provider]
	cutoff := now.Add(-Window)

	kept := window[:0]
	for _, ts := range window {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	l.windows[provider] = kept
	return kept
}

// CanMakeRequest reports whether another upstream call to provider fits
// within the trailing window. At-ceiling is an expected outcome, not an
// error.
func (l *Limiter) CanMakeRequest(provider string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	limit, ok := l.limits[provider]
	if !ok {
		return true
	}

	used := len(l.prune(provider, l.now()))
	if used >= limit {
		log.Debugf("%s %s at ceiling (%d/%d in trailing %s)", logcolors.LogThrottle, provider, used, limit, Window)
		return false
	}
	return true
}

// RecordRequest appends the current timestamp to the provider's window
// unconditionally. Callers are expected to have passed CanMakeRequest first.
func (l *Limiter) RecordRequest(provider string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.windows[provider] = append(l.windows[provider], l.now())
}

// Usage returns the provider's current window occupancy.
func (l *Limiter) Usage(provider string) Usage {
	l.mu.Lock()
	defer l.mu.Unlock()

	limit := l.limits[provider]
	used := len(l.prune(provider, l.now()))

	remaining := limit - used
	if remaining < 0 {
		remaining = 0
	}
	return Usage{Used: used, Limit: limit, Remaining: remaining}
}

// Providers returns the names of all providers with a configured ceiling.
func (l *Limiter) Providers() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	names := make([]string, 0, len(l.limits))
	for name := range l.limits {
		names = append(names, name)
	}
	return names
}
