package ratelimit

import (
	"testing"
	"time"
)

func TestAllowWithinLimit(t *testing.T) {
	l := NewLimiter(3, time.Minute)
	defer l.Stop()

	for i := 0; i < 3; i++ {
		if !l.Allow("user-1") {
			t.Fatalf("request %d should be allowed", i)
		}
	}
	if l.Allow("user-1") {
		t.Fatalf("fourth request should be rejected")
	}
	if !l.Allow("user-2") {
		t.Fatalf("different caller should have its own bucket")
	}
}

func TestEmptyCallerAlwaysAllowed(t *testing.T) {
	l := NewLimiter(1, time.Minute)
	defer l.Stop()

	for i := 0; i < 5; i++ {
		if !l.Allow("") {
			t.Fatalf("empty caller should never be limited")
		}
	}
}

func TestStrictLimitIsSeparate(t *testing.T) {
	l := NewLimiter(100, time.Minute)
	defer l.Stop()

	if !l.AllowStrict("1.2.3.4", 1, time.Minute) {
		t.Fatalf("first strict request should be allowed")
	}
	if l.AllowStrict("1.2.3.4", 1, time.Minute) {
		t.Fatalf("second strict request should be rejected")
	}
	if !l.Allow("1.2.3.4") {
		t.Fatalf("normal bucket should be unaffected by strict bucket")
	}
}

func TestWindowSlides(t *testing.T) {
	l := NewLimiter(1, 50*time.Millisecond)
	defer l.Stop()

	if !l.Allow("user-1") {
		t.Fatalf("first request should be allowed")
	}
	if l.Allow("user-1") {
		t.Fatalf("second request inside window should be rejected")
	}
	time.Sleep(60 * time.Millisecond)
	if !l.Allow("user-1") {
		t.Fatalf("request after window should be allowed")
	}
}
