package vidsum

import (
	"sync"
	"time"
)

// DefaultAlertTTL is how long an alert stays visible.
const DefaultAlertTTL = 4 * time.Second

// Alert is a transient user-facing message. Each Set starts a new generation
// and schedules its own expiry; an expiry for an older generation does nothing.
// Current also hides a message whose deadline has passed even if the timer has
// not fired yet.
type Alert struct {
	ttl      time.Duration
	now      func() time.Time
	onExpire func()

	mu        sync.Mutex
	message   string
	expiresAt time.Time
	gen       uint64
	timer     *time.Timer
}

// NewAlert creates an empty Alert. onExpire, if non-nil, runs after a live
// message expires; it is called without the alert's lock held.
func NewAlert(ttl time.Duration, now func() time.Time, onExpire func()) *Alert {
	if ttl <= 0 {
		ttl = DefaultAlertTTL
	}
	if now == nil {
		now = time.Now
	}
	return &Alert{ttl: ttl, now: now, onExpire: onExpire}
}

// Set replaces the message and restarts the expiry. Returns the generation.
func (a *Alert) Set(msg string) uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.gen++
	gen := a.gen
	a.message = msg
	a.expiresAt = a.now().Add(a.ttl)

	if a.timer != nil {
		a.timer.Stop()
	}
	a.timer = time.AfterFunc(a.ttl, func() { a.expire(gen) })
	return gen
}

// Current returns the live message, or "" when none is set or it has expired.
func (a *Alert) Current() string {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.message != "" && !a.now().Before(a.expiresAt) {
		a.message = ""
	}
	return a.message
}

// Clear removes the message and cancels the pending expiry.
func (a *Alert) Clear() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.gen++
	a.message = ""
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
}

// expire clears the message if gen is still the current generation. The
// message may already be hidden by Current; onExpire still runs so observers
// see the change.
func (a *Alert) expire(gen uint64) {
	a.mu.Lock()
	if gen != a.gen {
		a.mu.Unlock()
		return
	}
	a.message = ""
	a.timer = nil
	a.mu.Unlock()

	if a.onExpire != nil {
		a.onExpire()
	}
}
