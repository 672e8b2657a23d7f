package ratelimit

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func newTestLimiter(start time.Time) (*Limiter, *time.Time) {
	clock := start
	l := NewLimiter()
	l.now = func() time.Time { return clock }
	return l, &clock
}

func TestCheckExhaustsWindow(t *testing.T) {
	l, _ := newTestLimiter(time.Unix(1700000000, 0))
	ctx := context.Background()

	max := Contexts["public"].MaxRequests
	for i := 0; i < max; i++ {
		res := l.Check(ctx, "1.2.3.4", "public", nil)
		if !res.Allowed {
			t.Fatalf("request %d denied, want allowed", i+1)
		}
		if want := max - i - 1; res.Remaining != want {
			t.Errorf("request %d: Remaining = %d, want %d", i+1, res.Remaining, want)
		}
	}

	res := l.Check(ctx, "1.2.3.4", "public", nil)
	if res.Allowed {
		t.Error("request past the budget allowed, want denied")
	}
	if res.ResetIn <= 0 {
		t.Errorf("ResetIn = %v, want > 0 on denial", res.ResetIn)
	}
}

func TestCheckWindowReset(t *testing.T) {
	l, clock := newTestLimiter(time.Unix(1700000000, 0))
	ctx := context.Background()

	max := Contexts["public"].MaxRequests
	for i := 0; i < max; i++ {
		l.Check(ctx, "1.2.3.4", "public", nil)
	}
	if res := l.Check(ctx, "1.2.3.4", "public", nil); res.Allowed {
		t.Fatal("expected denial before the window elapsed")
	}

	*clock = clock.Add(Contexts["public"].Window + time.Second)

	res := l.Check(ctx, "1.2.3.4", "public", nil)
	if !res.Allowed {
		t.Error("request after window reset denied, want allowed")
	}
	if res.Remaining != max-1 {
		t.Errorf("Remaining = %d, want %d after reset", res.Remaining, max-1)
	}
}

func TestCheckIdentifiersAreIndependent(t *testing.T) {
	l, _ := newTestLimiter(time.Unix(1700000000, 0))
	ctx := context.Background()

	max := Contexts["public"].MaxRequests
	for i := 0; i < max; i++ {
		l.Check(ctx, "1.2.3.4", "public", nil)
	}

	if res := l.Check(ctx, "5.6.7.8", "public", nil); !res.Allowed {
		t.Error("second identifier denied by first identifier's budget")
	}
	if res := l.Check(ctx, "1.2.3.4", "session", nil); !res.Allowed {
		t.Error("session context denied by public context's budget")
	}
}

func TestCheckUnknownContextFallsBackToPublic(t *testing.T) {
	l, _ := newTestLimiter(time.Unix(1700000000, 0))

	res := l.Check(context.Background(), "1.2.3.4", "no-such-tier", nil)
	if !res.Allowed {
		t.Fatal("first request denied")
	}
	if want := Contexts["public"].MaxRequests - 1; res.Remaining != want {
		t.Errorf("Remaining = %d, want public budget %d", res.Remaining, want)
	}
}

func TestCheckOverride(t *testing.T) {
	l, _ := newTestLimiter(time.Unix(1700000000, 0))
	ctx := context.Background()
	o := &Override{MaxRequests: 2, Window: time.Minute}

	for i := 0; i < 2; i++ {
		if res := l.Check(ctx, "1.2.3.4", "public", o); !res.Allowed {
			t.Fatalf("request %d denied under override", i+1)
		}
	}
	if res := l.Check(ctx, "1.2.3.4", "public", o); res.Allowed {
		t.Error("request past the override budget allowed")
	}
}

func TestCheckWithURLDuplicateRelief(t *testing.T) {
	l, _ := newTestLimiter(time.Unix(1700000000, 0))
	ctx := context.Background()
	url := "https://twitter.com/user/status/555"

	first := l.CheckWithURL(ctx, "1.2.3.4", "public", url, nil)
	if !first.Allowed {
		t.Fatal("first request denied")
	}

	// Repeats of the same URL never consume budget.
	for i := 0; i < 50; i++ {
		res := l.CheckWithURL(ctx, "1.2.3.4", "public", url, nil)
		if !res.Allowed {
			t.Fatalf("duplicate %d denied", i+1)
		}
		if res.Remaining != first.Remaining {
			t.Errorf("duplicate %d: Remaining = %d, want unchanged %d", i+1, res.Remaining, first.Remaining)
		}
	}

	res := l.CheckWithURL(ctx, "1.2.3.4", "public", "https://twitter.com/user/status/556", nil)
	if !res.Allowed {
		t.Fatal("distinct URL denied")
	}
	if res.Remaining != first.Remaining-1 {
		t.Errorf("distinct URL: Remaining = %d, want %d", res.Remaining, first.Remaining-1)
	}
}

func TestCheckWithURLReliefSurvivesExhaustion(t *testing.T) {
	l, _ := newTestLimiter(time.Unix(1700000000, 0))
	ctx := context.Background()
	url := "https://twitter.com/user/status/555"

	l.CheckWithURL(ctx, "1.2.3.4", "public", url, nil)
	max := Contexts["public"].MaxRequests
	for i := 1; i < max; i++ {
		l.CheckWithURL(ctx, "1.2.3.4", "public", fmt.Sprintf("https://twitter.com/user/status/%d", i), nil)
	}

	// Budget is gone for new URLs...
	if res := l.CheckWithURL(ctx, "1.2.3.4", "public", "https://twitter.com/user/status/999", nil); res.Allowed {
		t.Error("new URL allowed past an exhausted window")
	}
	// ...but the already-seen URL still passes.
	if res := l.CheckWithURL(ctx, "1.2.3.4", "public", url, nil); !res.Allowed {
		t.Error("seen URL denied in an exhausted window")
	}
}

func TestSweepDropsExpiredCounters(t *testing.T) {
	l, clock := newTestLimiter(time.Unix(1700000000, 0))
	ctx := context.Background()

	for i := 0; i <= sweepThreshold; i++ {
		l.Check(ctx, fmt.Sprintf("ip-%d", i), "public", nil)
	}
	if l.Size() <= sweepThreshold {
		t.Fatalf("Size = %d, expected the map to grow past the threshold", l.Size())
	}

	*clock = clock.Add(Contexts["public"].Window + time.Second)
	l.Check(ctx, "fresh", "public", nil)

	if got := l.Size(); got != 1 {
		t.Errorf("Size = %d after sweep, want 1", got)
	}
}
