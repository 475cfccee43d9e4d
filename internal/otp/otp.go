// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package otp implements the one-time-code challenge state machine used
// by the recovery and account-verification flows. Codes are issued and
// checked by the auth backend; this package only tracks the client-side
// lifecycle: request, resend gating, submission and autonomous expiry.
package otp

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Status is the lifecycle state of a challenge.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusSent      Status = "sent"
	StatusVerifying Status = "verifying"
	StatusVerified  Status = "verified"
	StatusFailed    Status = "failed"
	StatusExpired   Status = "expired"
)

// Channel identifies where the code is delivered.
type Channel string

const (
	ChannelPhone Channel = "phone"
	ChannelEmail Channel = "email"
)

// SendResult carries the backend's answer to a code request. Expiry and
// cooldown are optional; zero means the backend announced no deadline
// and no countdown is tracked.
type SendResult struct {
	Message               string
	ExpiryMinutes         int
	ResendCooldownSeconds int
}

// Sender issues and checks codes against the auth backend.
type Sender interface {
	SendCode(ctx context.Context, subjectID string, channel Channel) (SendResult, error)
	VerifyCode(ctx context.Context, subjectID string, channel Channel, code string) error
}

var (
	// ErrResendTooSoon is returned when a new code is requested before
	// the resend cooldown has elapsed.
	ErrResendTooSoon = errors.New("a new code cannot be requested yet")
	// ErrNoActiveCode is returned when a code is submitted while no
	// outstanding code exists.
	ErrNoActiveCode = errors.New("no active code to verify")
	// ErrVerifyInFlight is returned when a submission is already being
	// verified.
	ErrVerifyInFlight = errors.New("verification already in progress")
)

// Challenge tracks one verification attempt for a subject on a channel.
type Challenge struct {
	subjectID string
	channel   Channel
	sender    Sender
	now       func() time.Time

	mu                sync.Mutex
	status            Status
	sending           bool
	expiresAt         time.Time
	resendAvailableAt time.Time
}

// Option configures a Challenge.
type Option func(*Challenge)

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Challenge) { c.now = now }
}

// NewChallenge creates an idle challenge.
func NewChallenge(subjectID string, channel Channel, sender Sender, opts ...Option) *Challenge {
	c := &Challenge{
		subjectID: subjectID,
		channel:   channel,
		sender:    sender,
		now:       time.Now,
		status:    StatusIdle,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Status returns the current lifecycle state.
func (c *Challenge) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// SubjectID returns the identifier the challenge was created for.
func (c *Challenge) SubjectID() string { return c.subjectID }

// Channel returns the delivery channel.
func (c *Challenge) Channel() Channel { return c.channel }

// Deadlines returns the expiry and resend-available timestamps. Zero
// values mean no deadline is tracked.
func (c *Challenge) Deadlines() (expiresAt, resendAvailableAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.expiresAt, c.resendAvailableAt
}

// ResendAllowed reports whether a new code may be requested right now.
func (c *Challenge) ResendAllowed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resendAllowedLocked(c.now())
}

func (c *Challenge) resendAllowedLocked(now time.Time) bool {
	if c.sending {
		return false
	}
	switch c.status {
	case StatusIdle, StatusExpired, StatusFailed:
		return true
	case StatusSent:
		return c.resendAvailableAt.IsZero() || !now.Before(c.resendAvailableAt)
	default:
		return false
	}
}

// RequestCode asks the backend to deliver a new code. On success the
// challenge moves to Sent and the deadlines are recomputed from the
// backend's response. On failure state is left untouched. At most one
// send is in flight per challenge; a second request during the backend
// call is rejected like a cooldown violation.
func (c *Challenge) RequestCode(ctx context.Context) (SendResult, error) {
	c.mu.Lock()
	now := c.now()
	if !c.resendAllowedLocked(now) {
		c.mu.Unlock()
		return SendResult{}, ErrResendTooSoon
	}
	c.sending = true
	c.mu.Unlock()

	res, err := c.sender.SendCode(ctx, c.subjectID, c.channel)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.sending = false
	if err != nil {
		return SendResult{}, fmt.Errorf("request code: %w", err)
	}
	c.status = StatusSent
	sentAt := c.now()
	c.expiresAt = time.Time{}
	c.resendAvailableAt = time.Time{}
	if res.ExpiryMinutes > 0 {
		c.expiresAt = sentAt.Add(time.Duration(res.ExpiryMinutes) * time.Minute)
	}
	if res.ResendCooldownSeconds > 0 {
		c.resendAvailableAt = sentAt.Add(time.Duration(res.ResendCooldownSeconds) * time.Second)
	}
	return res, nil
}

// SubmitCode validates the code shape locally and, if well-formed,
// submits it to the backend. No network call is made for malformed
// codes. On backend rejection the challenge returns to Sent so the
// user can request or enter another code; callers must clear the
// entered code on rejection.
func (c *Challenge) SubmitCode(ctx context.Context, code string) error {
	if err := ValidateCode(code); err != nil {
		return err
	}

	c.mu.Lock()
	switch c.status {
	case StatusVerifying:
		c.mu.Unlock()
		return ErrVerifyInFlight
	case StatusSent:
		// Outstanding code, proceed.
	default:
		c.mu.Unlock()
		return ErrNoActiveCode
	}
	if !c.expiresAt.IsZero() && !c.now().Before(c.expiresAt) {
		c.expireLocked()
		c.mu.Unlock()
		return ErrNoActiveCode
	}
	c.status = StatusVerifying
	c.mu.Unlock()

	err := c.sender.VerifyCode(ctx, c.subjectID, c.channel, code)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.status = StatusSent
		return fmt.Errorf("verify code: %w", err)
	}
	c.status = StatusVerified
	c.expiresAt = time.Time{}
	c.resendAvailableAt = time.Time{}
	return nil
}

// Tick is the expiry watchdog. It reports true exactly once, on the
// tick that crosses the expiry deadline while a code is outstanding;
// later ticks are no-ops.
func (c *Challenge) Tick(now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status != StatusSent || c.expiresAt.IsZero() || now.Before(c.expiresAt) {
		return false
	}
	c.expireLocked()
	return true
}

func (c *Challenge) expireLocked() {
	c.status = StatusExpired
	c.expiresAt = time.Time{}
	c.resendAvailableAt = time.Time{}
}

// Reset returns the challenge to Idle and clears all deadlines. Used
// when the owning flow changes mode or is torn down.
func (c *Challenge) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = StatusIdle
	c.expiresAt = time.Time{}
	c.resendAvailableAt = time.Time{}
}
