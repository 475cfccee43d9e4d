// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package countdown provides a shared once-per-second tick service for
// deadline countdowns. A single ticker drives all subscriptions, so any
// number of visible countdowns cost one wake-up per interval.
package countdown

import (
	"context"
	"sync"
	"time"

	"github.com/samber/lo"
)

// Subscription tracks up to two absolute deadlines: an expiry deadline
// and a resend-available deadline. Zero-crossing callbacks fire exactly
// once per armed deadline.
type Subscription struct {
	svc *Service
	id  int64

	mu               sync.Mutex
	expiresAt        time.Time
	resendAt         time.Time
	expiredFired     bool
	resendReadyFired bool

	// OnExpired and OnResendReady are invoked from the tick loop when
	// the corresponding deadline is crossed. Both may be nil.
	OnExpired     func()
	OnResendReady func()
}

// Service owns the shared ticker and the subscription registry.
type Service struct {
	interval time.Duration

	mu     sync.Mutex
	subs   []*Subscription
	nextID int64
}

// New creates a countdown service. A non-positive interval falls back
// to one second.
func New(interval time.Duration) *Service {
	if interval <= 0 {
		interval = time.Second
	}
	return &Service{interval: interval}
}

// Run drives the shared ticker until the context is cancelled.
func (s *Service) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.Poll(now)
		}
	}
}

// Subscribe registers a new subscription with no deadlines armed.
func (s *Service) Subscribe() *Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	sub := &Subscription{svc: s, id: s.nextID}
	s.subs = append(s.subs, sub)
	return sub
}

// Unsubscribe removes the subscription from the service.
func (s *Service) Unsubscribe(sub *Subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.subs = lo.Filter(s.subs, func(c *Subscription, _ int) bool {
		return c.id != sub.id
	})
}

// Poll recomputes every subscription against the given wall-clock time
// and fires pending zero-crossing callbacks. Run calls it once per
// interval; tests call it directly.
func (s *Service) Poll(now time.Time) {
	s.mu.Lock()
	subs := make([]*Subscription, len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, sub := range subs {
		sub.poll(now)
	}
}

// SetExpiry arms (or, with the zero time, disarms) the expiry deadline.
func (c *Subscription) SetExpiry(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expiresAt = t
	c.expiredFired = false
}

// SetResend arms (or, with the zero time, disarms) the resend deadline.
func (c *Subscription) SetResend(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resendAt = t
	c.resendReadyFired = false
}

// Remaining returns the whole seconds left until the expiry and resend
// deadlines. A disarmed deadline reports zero.
func (c *Subscription) Remaining(now time.Time) (expiry, resend int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return secondsUntil(c.expiresAt, now), secondsUntil(c.resendAt, now)
}

func (c *Subscription) poll(now time.Time) {
	c.mu.Lock()
	var fireExpired, fireResend bool
	if !c.expiresAt.IsZero() && !c.expiredFired && !now.Before(c.expiresAt) {
		c.expiredFired = true
		fireExpired = true
	}
	if !c.resendAt.IsZero() && !c.resendReadyFired && !now.Before(c.resendAt) {
		c.resendReadyFired = true
		fireResend = true
	}
	onExpired, onResend := c.OnExpired, c.OnResendReady
	c.mu.Unlock()

	if fireExpired && onExpired != nil {
		onExpired()
	}
	if fireResend && onResend != nil {
		onResend()
	}
}

func secondsUntil(target, now time.Time) int {
	if target.IsZero() {
		return 0
	}
	d := target.Sub(now)
	if d <= 0 {
		return 0
	}
	return int(d / time.Second)
}
