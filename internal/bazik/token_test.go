package bazik

import (
	"testing"
	"time"
)

func TestTokenCacheHonoursExpiryBuffer(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	cache := NewTokenCache(5 * time.Minute)
	cache.WithClock(func() time.Time { return now })

	if _, ok := cache.Get(); ok {
		t.Fatal("expected empty cache to miss")
	}

	cache.Set("tok-1", time.Hour)

	token, ok := cache.Get()
	if !ok || token != "tok-1" {
		t.Fatalf("expected cached token, got %q ok=%v", token, ok)
	}

	// 56 minutes in: still inside the hour but within the 5 minute buffer.
	now = now.Add(56 * time.Minute)
	if _, ok := cache.Get(); ok {
		t.Fatal("expected token within expiry buffer to be treated as expired")
	}
}

func TestTokenCacheJustOutsideBuffer(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	cache := NewTokenCache(5 * time.Minute)
	cache.WithClock(func() time.Time { return now })

	cache.Set("tok-2", time.Hour)
	now = now.Add(54 * time.Minute)

	if _, ok := cache.Get(); !ok {
		t.Fatal("expected token outside the buffer window to still be valid")
	}
}
