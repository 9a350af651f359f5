package worker

import (
	"context"
	"testing"
	"time"
)

func TestLimiter_Allow_BurstThenThrottle(t *testing.T) {
	l := NewLimiter(1, 2)

	if !l.Allow("moderation") {
		t.Error("Expected first call allowed")
	}
	if !l.Allow("moderation") {
		t.Error("Expected second call allowed within burst")
	}
	if l.Allow("moderation") {
		t.Error("Expected third immediate call throttled")
	}
}

func TestLimiter_PerSourceIndependence(t *testing.T) {
	l := NewLimiter(1, 1)

	if !l.Allow("moderation") {
		t.Error("Expected moderation allowed")
	}
	if l.Allow("moderation") {
		t.Error("Expected moderation throttled")
	}
	// A different source has its own bucket.
	if !l.Allow("vision_judge") {
		t.Error("Expected vision_judge unaffected by moderation's bucket")
	}
}

func TestLimiter_SetSourceRate(t *testing.T) {
	l := NewLimiter(1, 1)
	l.SetSourceRate("generative", 100, 10)

	allowed := 0
	for i := 0; i < 10; i++ {
		if l.Allow("generative") {
			allowed++
		}
	}
	if allowed != 10 {
		t.Errorf("Expected the overridden burst of 10, got %d", allowed)
	}
}

func TestLimiter_Wait_HonorsContext(t *testing.T) {
	l := NewLimiter(0.001, 1)
	l.Allow("moderation") // drain the burst

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := l.Wait(ctx, "moderation"); err == nil {
		t.Error("Expected Wait to fail when the context expires first")
	}
}

func TestLimiter_Defaults(t *testing.T) {
	l := NewLimiter(0, 0)
	// Zero config falls back to a usable default instead of blocking forever.
	if !l.Allow("moderation") {
		t.Error("Expected default limiter to allow an initial call")
	}
}
