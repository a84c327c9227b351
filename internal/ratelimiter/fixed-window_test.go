package ratelimiter

import (
	"testing"
	"time"
)

func TestFixedWindowLimiter(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewFixedWindowLimiter(2, 5*time.Second)
	rl.now = func() time.Time { return now }

	for i := range 2 {
		if ok, _ := rl.Allow("10.0.0.1"); !ok {
			t.Fatalf("request %d should pass", i)
		}
	}

	now = now.Add(2 * time.Second)
	ok, retryAfter := rl.Allow("10.0.0.1")
	if ok {
		t.Fatal("third request should be limited")
	}
	if retryAfter != 3*time.Second {
		t.Fatalf("unexpected retry after: %s", retryAfter)
	}

	if ok, _ := rl.Allow("10.0.0.2"); !ok {
		t.Fatal("other clients must not be limited")
	}

	now = now.Add(3 * time.Second)
	if ok, _ := rl.Allow("10.0.0.1"); !ok {
		t.Fatal("new window should reset the count")
	}
}
