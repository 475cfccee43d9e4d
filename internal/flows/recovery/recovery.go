// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package recovery drives the forgot-password and forgot-username
// flows. Both start from a phone number; the password flow continues
// through an OTP step and a new-password step, the username flow
// finishes after the phone submission.
package recovery

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Gayathri240502/persft-web-sub000/internal/otp"
	"github.com/Gayathri240502/persft-web-sub000/internal/phone"
)

// Mode selects which credential is being recovered.
type Mode string

const (
	ModePassword Mode = "password"
	ModeUsername Mode = "username"
)

// Step is the ordinal position inside a mode's step sequence.
type Step int

const (
	StepEnterPhone Step = iota
	StepVerifyCode
	StepSetPassword
	StepDone
)

// Client is the slice of the auth backend the flows need.
type Client interface {
	SendPasswordResetCode(ctx context.Context, phone string) (otp.SendResult, error)
	ConfirmPasswordReset(ctx context.Context, phone, code, newPassword string) error
	RequestUsername(ctx context.Context, phone string) (string, error)
}

var (
	// ErrWrongStep is returned when an operation is invoked out of
	// sequence.
	ErrWrongStep = errors.New("operation not available at this step")
)

// Identifiers for locally generated status messages. The HTTP layer
// translates them before display; backend-provided messages pass
// through verbatim.
const (
	MsgCodeExpired     = "code_expired"
	MsgCodeResent      = "code_resent"
	MsgPasswordUpdated = "password_updated"
)

// Flow is one recovery attempt. A step only advances after the
// corresponding backend call succeeds; switching mode resets everything
// including the OTP challenge and its deadlines.
type Flow struct {
	client Client
	clock  func() time.Time

	mu        sync.Mutex
	mode      Mode
	step      Step
	phone     string
	code      string
	challenge *otp.Challenge
	message   string
	expired   bool
}

// Option configures a Flow.
type Option func(*Flow)

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(f *Flow) { f.clock = now }
}

// New creates a flow in the given mode at the first step.
func New(mode Mode, client Client, opts ...Option) *Flow {
	f := &Flow{client: client, mode: mode, clock: time.Now}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Mode returns the active recovery mode.
func (f *Flow) Mode() Mode {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mode
}

// Step returns the current step.
func (f *Flow) Step() Step {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.step
}

// Phone returns the normalized phone number, empty until the phone step
// succeeded.
func (f *Flow) Phone() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.phone
}

// Message returns the last status or warning message.
func (f *Flow) Message() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.message
}

// Challenge returns the OTP challenge, nil before a code was requested.
func (f *Flow) Challenge() *otp.Challenge {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.challenge
}

// SetMode switches between password and username recovery. Changing the
// mode resets the step to the beginning and clears all OTP and timer
// state; setting the current mode again is a no-op.
func (f *Flow) SetMode(mode Mode) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if mode == f.mode {
		return
	}
	f.mode = mode
	f.resetLocked()
}

func (f *Flow) resetLocked() {
	f.step = StepEnterPhone
	f.phone = ""
	f.code = ""
	f.message = ""
	f.expired = false
	if f.challenge != nil {
		f.challenge.Reset()
		f.challenge = nil
	}
}

// SubmitPhone normalizes and submits the phone number. In password mode
// a reset code is requested and the flow advances to the OTP step; in
// username mode the backend sends the username to the phone and the
// flow is done.
func (f *Flow) SubmitPhone(ctx context.Context, raw string) error {
	f.mu.Lock()
	if f.step != StepEnterPhone {
		f.mu.Unlock()
		return ErrWrongStep
	}
	f.mu.Unlock()

	normalized, err := phone.Normalize(raw)
	if err != nil {
		return err
	}

	switch f.Mode() {
	case ModeUsername:
		msg, err := f.client.RequestUsername(ctx, normalized)
		if err != nil {
			return err
		}
		f.mu.Lock()
		f.phone = normalized
		f.step = StepDone
		f.message = msg
		f.mu.Unlock()
		return nil

	default: // ModePassword
		challenge := otp.NewChallenge(normalized, otp.ChannelPhone, passwordSender{f.client}, otp.WithClock(f.clock))
		res, err := challenge.RequestCode(ctx)
		if err != nil {
			return err
		}
		f.mu.Lock()
		f.phone = normalized
		f.challenge = challenge
		f.step = StepVerifyCode
		f.message = res.Message
		f.expired = false
		f.mu.Unlock()
		return nil
	}
}

// ResendCode requests a fresh reset code during the OTP step.
func (f *Flow) ResendCode(ctx context.Context) error {
	f.mu.Lock()
	if f.mode != ModePassword || f.step != StepVerifyCode || f.challenge == nil {
		f.mu.Unlock()
		return ErrWrongStep
	}
	challenge := f.challenge
	f.mu.Unlock()

	res, err := challenge.RequestCode(ctx)
	if err != nil {
		return err
	}
	f.mu.Lock()
	f.message = res.Message
	if f.message == "" {
		f.message = MsgCodeResent
	}
	f.mu.Unlock()
	return nil
}

// SubmitCode checks the code shape and stores it for the final reset
// call. The backend only verifies the code together with the new
// password, so this step advances on local validation alone.
func (f *Flow) SubmitCode(code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mode != ModePassword || f.step != StepVerifyCode {
		return ErrWrongStep
	}
	if err := otp.ValidateCode(code); err != nil {
		return err
	}
	f.code = code
	f.step = StepSetPassword
	return nil
}

// SubmitNewPassword validates the password policy and submits phone,
// code and new password together. A backend rejection clears the stored
// code and returns the flow to the OTP step so a corrected code can be
// entered.
func (f *Flow) SubmitNewPassword(ctx context.Context, password, confirm string) error {
	f.mu.Lock()
	if f.mode != ModePassword || f.step != StepSetPassword {
		f.mu.Unlock()
		return ErrWrongStep
	}
	phoneNumber, code, challenge := f.phone, f.code, f.challenge
	f.mu.Unlock()

	if err := ValidatePassword(password, confirm); err != nil {
		return err
	}

	if err := f.client.ConfirmPasswordReset(ctx, phoneNumber, code, password); err != nil {
		f.mu.Lock()
		f.code = ""
		f.step = StepVerifyCode
		f.mu.Unlock()
		return fmt.Errorf("reset password: %w", err)
	}

	f.mu.Lock()
	f.step = StepDone
	f.message = MsgPasswordUpdated
	f.mu.Unlock()
	if challenge != nil {
		challenge.Reset()
	}
	return nil
}

// Tick runs the expiry watchdog. When the outstanding code expires the
// flow falls back to the phone step with a warning; the caller re-reads
// Step and Message after a true return.
func (f *Flow) Tick(now time.Time) bool {
	f.mu.Lock()
	challenge := f.challenge
	f.mu.Unlock()
	if challenge == nil || !challenge.Tick(now) {
		return false
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.expired {
		return false
	}
	f.expired = true
	f.step = StepEnterPhone
	f.code = ""
	f.message = MsgCodeExpired
	return true
}

// passwordSender adapts the recovery Client to the otp.Sender shape.
type passwordSender struct {
	client Client
}

func (s passwordSender) SendCode(ctx context.Context, subjectID string, _ otp.Channel) (otp.SendResult, error) {
	return s.client.SendPasswordResetCode(ctx, subjectID)
}

func (s passwordSender) VerifyCode(context.Context, string, otp.Channel, string) error {
	// The backend verifies the code only together with the new
	// password; see SubmitNewPassword.
	return nil
}
