// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package verification drives post-login account verification: the
// phone channel first, then the email channel. The visible step is
// always derived from the verification flags, never stored, so it
// cannot drift from the snapshot.
package verification

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Gayathri240502/persft-web-sub000/internal/otp"
)

// Step is the derived position in the wizard.
type Step int

const (
	StepPhone Step = iota
	StepEmail
	StepComplete
)

// User is the account snapshot fetched once when the flow starts. The
// backend stays authoritative; local flag flips only bridge the gap
// until the next reload.
type User struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName"`
	EmailVerified bool   `json:"isEmailVerified"`
	PhoneVerified bool   `json:"isPhoneVerified"`
}

// DeriveStep computes the wizard position from the verification flags
// alone: both verified means complete, phone verified means the email
// step, anything else the phone step.
func DeriveStep(u User) Step {
	switch {
	case u.PhoneVerified && u.EmailVerified:
		return StepComplete
	case u.PhoneVerified:
		return StepEmail
	default:
		return StepPhone
	}
}

// Client is the slice of the auth backend the flow needs.
type Client interface {
	SendVerificationCode(ctx context.Context, userID string, channel otp.Channel, destination string) (otp.SendResult, error)
	ConfirmVerificationCode(ctx context.Context, userID string, channel otp.Channel, destination, code string) error
}

// ErrStepComplete is returned when an operation targets a channel that
// is already verified or skipped past.
var ErrStepComplete = errors.New("verification step already complete")

// Identifiers for locally generated status messages, translated by the
// HTTP layer. Backend-provided messages pass through verbatim.
const (
	MsgCodeExpired   = "code_expired"
	MsgPhoneVerified = "phone_verified"
	MsgEmailVerified = "email_verified"
)

// Flow is one account-verification session.
type Flow struct {
	client Client
	clock  func() time.Time

	mu           sync.Mutex
	user         User
	skippedPhone bool
	skippedEmail bool
	phoneCh      *otp.Challenge
	emailCh      *otp.Challenge
	message      string
}

// Option configures a Flow.
type Option func(*Flow)

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(f *Flow) { f.clock = now }
}

// New creates a flow for the given account snapshot.
func New(user User, client Client, opts ...Option) *Flow {
	f := &Flow{user: user, client: client, clock: time.Now}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// User returns the current snapshot including local flag flips.
func (f *Flow) User() User {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.user
}

// Message returns the last status message.
func (f *Flow) Message() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.message
}

// Step returns the visible wizard position. Skipping counts as passing
// a step without flipping its flag.
func (f *Flow) Step() Step {
	f.mu.Lock()
	defer f.mu.Unlock()
	phoneDone := f.user.PhoneVerified || f.skippedPhone
	emailDone := f.user.EmailVerified || f.skippedEmail
	switch {
	case phoneDone && emailDone:
		return StepComplete
	case phoneDone:
		return StepEmail
	default:
		return StepPhone
	}
}

// Skip advances past the current step without verifying the channel.
func (f *Flow) Skip() {
	step := f.Step()
	f.mu.Lock()
	defer f.mu.Unlock()
	switch step {
	case StepPhone:
		f.skippedPhone = true
	case StepEmail:
		f.skippedEmail = true
	}
}

// RequestCode asks the backend to deliver a code for the channel.
func (f *Flow) RequestCode(ctx context.Context, channel otp.Channel) (otp.SendResult, error) {
	challenge, err := f.challengeFor(channel)
	if err != nil {
		return otp.SendResult{}, err
	}
	res, err := challenge.RequestCode(ctx)
	if err != nil {
		return otp.SendResult{}, err
	}
	f.mu.Lock()
	f.message = res.Message
	f.mu.Unlock()
	return res, nil
}

// SubmitCode verifies a user-entered code for the channel. On success
// the corresponding verified flag flips locally. On backend rejection
// the entered code is discarded; the caller starts from an empty field.
func (f *Flow) SubmitCode(ctx context.Context, channel otp.Channel, code string) error {
	challenge, err := f.challengeFor(channel)
	if err != nil {
		return err
	}
	if err := challenge.SubmitCode(ctx, code); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	switch channel {
	case otp.ChannelPhone:
		f.user.PhoneVerified = true
		f.message = MsgPhoneVerified
	case otp.ChannelEmail:
		f.user.EmailVerified = true
		f.message = MsgEmailVerified
	}
	return nil
}

// Tick runs the expiry watchdog over both challenges. It reports true
// when either outstanding code expired on this tick.
func (f *Flow) Tick(now time.Time) bool {
	f.mu.Lock()
	phoneCh, emailCh := f.phoneCh, f.emailCh
	f.mu.Unlock()

	expired := false
	if phoneCh != nil && phoneCh.Tick(now) {
		expired = true
	}
	if emailCh != nil && emailCh.Tick(now) {
		expired = true
	}
	if expired {
		f.mu.Lock()
		f.message = MsgCodeExpired
		f.mu.Unlock()
	}
	return expired
}

// Challenge returns the challenge for a channel, nil before the first
// code request.
func (f *Flow) Challenge(channel otp.Channel) *otp.Challenge {
	f.mu.Lock()
	defer f.mu.Unlock()
	if channel == otp.ChannelEmail {
		return f.emailCh
	}
	return f.phoneCh
}

func (f *Flow) challengeFor(channel otp.Channel) (*otp.Challenge, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch channel {
	case otp.ChannelEmail:
		if f.user.EmailVerified {
			return nil, ErrStepComplete
		}
		if f.emailCh == nil {
			f.emailCh = otp.NewChallenge(f.user.Email, channel, verificationSender{f.client, f.user.ID}, otp.WithClock(f.clock))
		}
		return f.emailCh, nil
	default:
		if f.user.PhoneVerified {
			return nil, ErrStepComplete
		}
		if f.phoneCh == nil {
			f.phoneCh = otp.NewChallenge(f.user.Phone, channel, verificationSender{f.client, f.user.ID}, otp.WithClock(f.clock))
		}
		return f.phoneCh, nil
	}
}

// verificationSender adapts Client to the otp.Sender shape, carrying
// the user ID alongside the channel destination.
type verificationSender struct {
	client Client
	userID string
}

func (s verificationSender) SendCode(ctx context.Context, subjectID string, channel otp.Channel) (otp.SendResult, error) {
	return s.client.SendVerificationCode(ctx, s.userID, channel, subjectID)
}

func (s verificationSender) VerifyCode(ctx context.Context, subjectID string, channel otp.Channel, code string) error {
	return s.client.ConfirmVerificationCode(ctx, s.userID, channel, subjectID, code)
}
