package throttle

import (
	"testing"
	"time"
)

// testClock is a controllable time source for deterministic window tests.
type testClock struct{ current time.Time }

func (c *testClock) Now() time.Time          { return c.current }
func (c *testClock) Advance(d time.Duration) { c.current = c.current.Add(d) }

func newTestLimiter(limits map[string]int) (*Limiter, *testClock) {
	l := New(limits)
	clock := &testClock{current: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	l.SetClock(clock.Now)
	return l, clock
}

func TestCanMakeRequestUnderCeiling(t *testing.T) {
	l, _ := newTestLimiter(map[string]int{"duga": 3})

	for i := 0; i < 3; i++ {
		if !l.CanMakeRequest("duga") {
			t.Fatalf("Expected request %d to be admitted under ceiling", i+1)
		}
		l.RecordRequest("duga")
	}

	if l.CanMakeRequest("duga") {
		t.Error("Expected request to be denied at ceiling")
	}
}

func TestWindowExpiry(t *testing.T) {
	l, clock := newTestLimiter(map[string]int{"duga": 2})

	l.RecordRequest("duga")
	l.RecordRequest("duga")

	if l.CanMakeRequest("duga") {
		t.Fatal("Expected denial with a full window")
	}

	// Timestamps older than 60s must never count
	clock.Advance(61 * time.Second)

	if !l.CanMakeRequest("duga") {
		t.Error("Expected admission after window expired")
	}

	usage := l.Usage("duga")
	if usage.Used != 0 {
		t.Errorf("Expected 0 used after expiry, got %d", usage.Used)
	}
}

func TestWindowBoundary(t *testing.T) {
	l, clock := newTestLimiter(map[string]int{"sokmil": 1})

	l.RecordRequest("sokmil")
	clock.Advance(59 * time.Second)

	if l.CanMakeRequest("sokmil") {
		t.Error("Expected denial: timestamp still inside trailing 60s")
	}

	clock.Advance(2 * time.Second)
	if !l.CanMakeRequest("sokmil") {
		t.Error("Expected admission: timestamp aged out of trailing 60s")
	}
}

func TestProvidersAreIndependent(t *testing.T) {
	l, _ := newTestLimiter(map[string]int{"duga": 1, "sokmil": 2})

	l.RecordRequest("duga")

	if l.CanMakeRequest("duga") {
		t.Error("Expected duga to be at ceiling")
	}
	if !l.CanMakeRequest("sokmil") {
		t.Error("Expected sokmil window to be unaffected by duga calls")
	}
}

func TestUnconfiguredProviderAlwaysAdmitted(t *testing.T) {
	l, _ := newTestLimiter(map[string]int{"duga": 1})

	for i := 0; i < 50; i++ {
		if !l.CanMakeRequest("unknown") {
			t.Fatal("Expected unconfigured provider to be fail-open")
		}
		l.RecordRequest("unknown")
	}
}

func TestUsage(t *testing.T) {
	l, _ := newTestLimiter(map[string]int{"duga": 10})

	for i := 0; i < 4; i++ {
		l.RecordRequest("duga")
	}

	usage := l.Usage("duga")
	if usage.Used != 4 {
		t.Errorf("Expected used=4, got %d", usage.Used)
	}
	if usage.Limit != 10 {
		t.Errorf("Expected limit=10, got %d", usage.Limit)
	}
	if usage.Remaining != 6 {
		t.Errorf("Expected remaining=6, got %d", usage.Remaining)
	}
}

func TestUsageRemainingNeverNegative(t *testing.T) {
	l, _ := newTestLimiter(map[string]int{"duga": 1})

	// RecordRequest is unconditional; over-recording must not produce a
	// negative remaining count.
	l.RecordRequest("duga")
	l.RecordRequest("duga")
	l.RecordRequest("duga")

	usage := l.Usage("duga")
	if usage.Remaining != 0 {
		t.Errorf("Expected remaining=0, got %d", usage.Remaining)
	}
}

func TestProviders(t *testing.T) {
	l, _ := newTestLimiter(map[string]int{"duga": 1, "sokmil": 2})

	names := l.Providers()
	if len(names) != 2 {
		t.Fatalf("Expected 2 providers, got %d", len(names))
	}

	seen := map[string]bool{}
	for _, n := range names {
		seen[n] = true
	}
	if !seen["duga"] || !seen["sokmil"] {
		t.Errorf("Expected duga and sokmil in %v", names)
	}
}

func TestCheckDoesNotConsume(t *testing.T) {
	l, _ := newTestLimiter(map[string]int{"duga": 1})

	// Repeated checks without RecordRequest must not fill the window.
	for i := 0; i < 10; i++ {
		if !l.CanMakeRequest("duga") {
			t.Fatal("CanMakeRequest must be pure with respect to the ceiling")
		}
	}
}
