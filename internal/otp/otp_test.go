// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package otp_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Gayathri240502/persft-web-sub000/internal/otp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubSender records calls and returns canned results.
type stubSender struct {
	sendResult otp.SendResult
	sendErr    error
	verifyErr  error
	sends      int
	verifies   int
	lastCode   string
}

func (s *stubSender) SendCode(_ context.Context, _ string, _ otp.Channel) (otp.SendResult, error) {
	s.sends++
	return s.sendResult, s.sendErr
}

func (s *stubSender) VerifyCode(_ context.Context, _ string, _ otp.Channel, code string) error {
	s.verifies++
	s.lastCode = code
	return s.verifyErr
}

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newChallenge(sender *stubSender, clock *fakeClock) *otp.Challenge {
	return otp.NewChallenge("+919876543210", otp.ChannelPhone, sender, otp.WithClock(clock.Now))
}

func TestValidateCode(t *testing.T) {
	tests := []struct {
		name string
		code string
		want error
	}{
		{"valid", "123456", nil},
		{"empty", "", otp.ErrCodeRequired},
		{"too short", "123", otp.ErrCodeLength},
		{"too long", "1234567", otp.ErrCodeLength},
		{"non numeric", "12a456", otp.ErrCodeDigits},
		{"length beats digits", "12a", otp.ErrCodeLength},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := otp.ValidateCode(tt.code)
			if tt.want == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}

func TestRequestCode_SetsDeadlines(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	sender := &stubSender{sendResult: otp.SendResult{
		Message:               "code sent",
		ExpiryMinutes:         5,
		ResendCooldownSeconds: 30,
	}}
	c := newChallenge(sender, clock)

	res, err := c.RequestCode(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "code sent", res.Message)
	assert.Equal(t, otp.StatusSent, c.Status())

	expiresAt, resendAt := c.Deadlines()
	assert.Equal(t, clock.t.Add(5*time.Minute), expiresAt)
	assert.Equal(t, clock.t.Add(30*time.Second), resendAt)
}

func TestRequestCode_NoDeadlinesWhenBackendOmitsThem(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	sender := &stubSender{sendResult: otp.SendResult{Message: "code sent"}}
	c := newChallenge(sender, clock)

	_, err := c.RequestCode(context.Background())
	require.NoError(t, err)

	expiresAt, resendAt := c.Deadlines()
	assert.True(t, expiresAt.IsZero())
	assert.True(t, resendAt.IsZero())
	assert.True(t, c.ResendAllowed())
}

func TestRequestCode_ResendGatedByCooldown(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	sender := &stubSender{sendResult: otp.SendResult{ResendCooldownSeconds: 30, ExpiryMinutes: 5}}
	c := newChallenge(sender, clock)

	_, err := c.RequestCode(context.Background())
	require.NoError(t, err)

	_, err = c.RequestCode(context.Background())
	assert.ErrorIs(t, err, otp.ErrResendTooSoon)
	assert.Equal(t, 1, sender.sends)

	clock.Advance(31 * time.Second)
	_, err = c.RequestCode(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, sender.sends)
}

func TestRequestCode_FailureLeavesStateUntouched(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	sender := &stubSender{sendErr: errors.New("backend down")}
	c := newChallenge(sender, clock)

	_, err := c.RequestCode(context.Background())
	require.Error(t, err)
	assert.Equal(t, otp.StatusIdle, c.Status())
}

func TestSubmitCode_RejectsMalformedWithoutNetworkCall(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	sender := &stubSender{sendResult: otp.SendResult{ExpiryMinutes: 5}}
	c := newChallenge(sender, clock)
	_, err := c.RequestCode(context.Background())
	require.NoError(t, err)

	assert.ErrorIs(t, c.SubmitCode(context.Background(), ""), otp.ErrCodeRequired)
	assert.ErrorIs(t, c.SubmitCode(context.Background(), "123"), otp.ErrCodeLength)
	assert.ErrorIs(t, c.SubmitCode(context.Background(), "12a456"), otp.ErrCodeDigits)
	assert.Equal(t, 0, sender.verifies)
}

func TestSubmitCode_Succeeds(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	sender := &stubSender{sendResult: otp.SendResult{ExpiryMinutes: 5}}
	c := newChallenge(sender, clock)
	_, err := c.RequestCode(context.Background())
	require.NoError(t, err)

	require.NoError(t, c.SubmitCode(context.Background(), "123456"))
	assert.Equal(t, otp.StatusVerified, c.Status())
	assert.Equal(t, "123456", sender.lastCode)

	expiresAt, resendAt := c.Deadlines()
	assert.True(t, expiresAt.IsZero())
	assert.True(t, resendAt.IsZero())
}

func TestSubmitCode_BackendRejectionReturnsToSent(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	sender := &stubSender{sendResult: otp.SendResult{ExpiryMinutes: 5}, verifyErr: errors.New("wrong code")}
	c := newChallenge(sender, clock)
	_, err := c.RequestCode(context.Background())
	require.NoError(t, err)

	err = c.SubmitCode(context.Background(), "123456")
	require.Error(t, err)
	assert.Equal(t, otp.StatusSent, c.Status())

	// Correcting the code is still possible.
	sender.verifyErr = nil
	require.NoError(t, c.SubmitCode(context.Background(), "654321"))
	assert.Equal(t, otp.StatusVerified, c.Status())
}

func TestSubmitCode_WithoutOutstandingCode(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	c := newChallenge(&stubSender{}, clock)

	err := c.SubmitCode(context.Background(), "123456")
	assert.ErrorIs(t, err, otp.ErrNoActiveCode)
}

func TestTick_ExpiresOutstandingCode(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := &fakeClock{t: t0}
	sender := &stubSender{sendResult: otp.SendResult{ExpiryMinutes: 5, ResendCooldownSeconds: 30}}
	c := newChallenge(sender, clock)
	_, err := c.RequestCode(context.Background())
	require.NoError(t, err)

	assert.False(t, c.Tick(t0.Add(299*time.Second)))
	assert.Equal(t, otp.StatusSent, c.Status())

	assert.True(t, c.Tick(t0.Add(301*time.Second)))
	assert.Equal(t, otp.StatusExpired, c.Status())

	expiresAt, resendAt := c.Deadlines()
	assert.True(t, expiresAt.IsZero())
	assert.True(t, resendAt.IsZero())
}

func TestTick_Idempotent(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := &fakeClock{t: t0}
	sender := &stubSender{sendResult: otp.SendResult{ExpiryMinutes: 5}}
	c := newChallenge(sender, clock)
	_, err := c.RequestCode(context.Background())
	require.NoError(t, err)

	assert.True(t, c.Tick(t0.Add(6*time.Minute)))
	assert.False(t, c.Tick(t0.Add(7*time.Minute)))
	assert.False(t, c.Tick(t0.Add(8*time.Minute)))
	assert.Equal(t, otp.StatusExpired, c.Status())
}

func TestRequestCode_AllowedAgainAfterExpiry(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := &fakeClock{t: t0}
	sender := &stubSender{sendResult: otp.SendResult{ExpiryMinutes: 5, ResendCooldownSeconds: 300}}
	c := newChallenge(sender, clock)
	_, err := c.RequestCode(context.Background())
	require.NoError(t, err)

	clock.Advance(6 * time.Minute)
	require.True(t, c.Tick(clock.Now()))

	_, err = c.RequestCode(context.Background())
	require.NoError(t, err)
	assert.Equal(t, otp.StatusSent, c.Status())
}

// gateSender blocks SendCode until released, so a second request can be
// issued while the first is still outstanding.
type gateSender struct {
	entered chan struct{}
	release chan struct{}
	sends   atomic.Int32
}

func (s *gateSender) SendCode(context.Context, string, otp.Channel) (otp.SendResult, error) {
	s.sends.Add(1)
	select {
	case s.entered <- struct{}{}:
	default:
	}
	<-s.release
	return otp.SendResult{ResendCooldownSeconds: 30}, nil
}

func (s *gateSender) VerifyCode(context.Context, string, otp.Channel, string) error {
	return nil
}

func TestRequestCode_SingleSendInFlight(t *testing.T) {
	sender := &gateSender{entered: make(chan struct{}, 1), release: make(chan struct{})}
	c := otp.NewChallenge("+919876543210", otp.ChannelPhone, sender)

	first := make(chan error, 1)
	go func() {
		_, err := c.RequestCode(context.Background())
		first <- err
	}()
	<-sender.entered

	// The cooldown gate must already be closed while the first send is
	// still on the wire.
	assert.False(t, c.ResendAllowed())
	_, err := c.RequestCode(context.Background())
	assert.ErrorIs(t, err, otp.ErrResendTooSoon)

	close(sender.release)
	require.NoError(t, <-first)
	assert.Equal(t, int32(1), sender.sends.Load())
	assert.Equal(t, otp.StatusSent, c.Status())
}

func TestReset(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	sender := &stubSender{sendResult: otp.SendResult{ExpiryMinutes: 5}}
	c := newChallenge(sender, clock)
	_, err := c.RequestCode(context.Background())
	require.NoError(t, err)

	c.Reset()
	assert.Equal(t, otp.StatusIdle, c.Status())
	expiresAt, _ := c.Deadlines()
	assert.True(t, expiresAt.IsZero())
}
