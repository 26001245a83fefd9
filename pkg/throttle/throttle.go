// Package throttle enforces per-host minimum intervals on outbound requests
package throttle

import (
	"context"
	"sync"
	"time"
)

// Limiter spaces requests to each host by a minimum interval. Wait blocks
// until the host's window opens; it never rejects.
type Limiter struct {
	mu       sync.Mutex
	last     map[string]time.Time
	interval time.Duration
	now      func() time.Time
	sleep    func(ctx context.Context, d time.Duration) error
}

// NewLimiter creates a limiter with the given minimum interval per host.
func NewLimiter(interval time.Duration) *Limiter {
	return &Limiter{
		last:     make(map[string]time.Time),
		interval: interval,
		now:      time.Now,
		sleep:    sleepCtx,
	}
}

// Wait blocks until the host is allowed another request, or until the
// context is cancelled. The slot is claimed before sleeping so concurrent
// callers for the same host queue up rather than stampede.
func (l *Limiter) Wait(ctx context.Context, host string) error {
	if l.interval <= 0 {
		return ctx.Err()
	}

	l.mu.Lock()
	now := l.now()
	next := now
	if last, ok := l.last[host]; ok && last.Add(l.interval).After(now) {
		next = last.Add(l.interval)
	}
	l.last[host] = next
	l.mu.Unlock()

	if wait := next.Sub(now); wait > 0 {
		return l.sleep(ctx, wait)
	}
	return ctx.Err()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
