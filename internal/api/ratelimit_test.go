package api

import (
	"testing"
	"time"
)

func TestVisitorLimiters_burstThenThrottle(t *testing.T) {
	v := &visitorLimiters{
		rps:       1,
		burst:     2,
		seen:      make(map[string]*visitor),
		lastSweep: time.Now(),
	}

	if !v.allow("10.0.0.1") || !v.allow("10.0.0.1") {
		t.Fatal("burst requests should pass")
	}
	if v.allow("10.0.0.1") {
		t.Error("third immediate request should be throttled")
	}
	if !v.allow("10.0.0.2") {
		t.Error("a different ip has its own bucket")
	}
}

func TestVisitorLimiters_sweepEvictsIdle(t *testing.T) {
	v := &visitorLimiters{
		rps:   1,
		burst: 1,
		seen:  make(map[string]*visitor),
	}

	v.allow("10.0.0.1")
	v.allow("10.0.0.2")

	// Age one visitor past the eviction window and force the next sweep.
	v.seen["10.0.0.1"].lastSeen = time.Now().Add(-limiterIdleEviction - time.Minute)
	v.lastSweep = time.Now().Add(-limiterSweepEvery - time.Minute)

	v.allow("10.0.0.2")

	if _, ok := v.seen["10.0.0.1"]; ok {
		t.Error("idle visitor should have been evicted")
	}
	if _, ok := v.seen["10.0.0.2"]; !ok {
		t.Error("active visitor must survive the sweep")
	}
}
