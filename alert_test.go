package vidsum

import (
	"testing"
	"time"
)

func TestAlert_ExpiresAfterTTL(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	a := NewAlert(4*time.Second, clock.Now, nil)
	defer a.Clear()

	a.Set("boom")
	clock.Advance(3999 * time.Millisecond)
	if got := a.Current(); got != "boom" {
		t.Errorf("Current() before TTL = %q", got)
	}
	clock.Advance(time.Millisecond)
	if got := a.Current(); got != "" {
		t.Errorf("Current() at TTL = %q, want cleared", got)
	}
}

func TestAlert_StaleExpiryIsNoop(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	a := NewAlert(time.Hour, clock.Now, nil)
	defer a.Clear()

	first := a.Set("first")
	second := a.Set("second")
	if first == second {
		t.Fatal("generations must differ")
	}

	a.expire(first)
	if got := a.Current(); got != "second" {
		t.Errorf("stale expiry cleared the alert: %q", got)
	}

	a.expire(second)
	if got := a.Current(); got != "" {
		t.Errorf("Current() = %q, want cleared", got)
	}
}

func TestAlert_SetRestartsDeadline(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	a := NewAlert(4*time.Second, clock.Now, nil)
	defer a.Clear()

	a.Set("one")
	clock.Advance(3 * time.Second)
	a.Set("two")
	clock.Advance(3 * time.Second)
	if got := a.Current(); got != "two" {
		t.Errorf("Current() = %q, want two", got)
	}
}

func TestAlert_TimerNotifies(t *testing.T) {
	t.Parallel()

	fired := make(chan struct{}, 1)
	a := NewAlert(20*time.Millisecond, nil, func() { fired <- struct{}{} })

	a.Set("short")
	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("expiry callback not called")
	}
	if got := a.Current(); got != "" {
		t.Errorf("Current() = %q, want cleared", got)
	}
}

func TestAlert_ClearCancelsTimer(t *testing.T) {
	t.Parallel()

	fired := make(chan struct{}, 1)
	a := NewAlert(20*time.Millisecond, nil, func() { fired <- struct{}{} })

	a.Set("gone")
	a.Clear()
	if a.Current() != "" {
		t.Error("Clear should remove the message")
	}
	select {
	case <-fired:
		t.Error("cleared alert must not notify")
	case <-time.After(80 * time.Millisecond):
	}
}

func TestNewAlert_Defaults(t *testing.T) {
	t.Parallel()

	a := NewAlert(0, nil, nil)
	if a.ttl != DefaultAlertTTL {
		t.Errorf("ttl = %v, want %v", a.ttl, DefaultAlertTTL)
	}
}
