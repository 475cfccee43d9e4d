// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Gayathri240502/persft-web-sub000/internal/countdown"
	"github.com/Gayathri240502/persft-web-sub000/internal/flows/recovery"
	"github.com/Gayathri240502/persft-web-sub000/internal/flows/verification"
	"github.com/Gayathri240502/persft-web-sub000/internal/otp"
)

type verificationEntry struct {
	flow *verification.Flow
	sub  *countdown.Subscription
}

// verificationRegistry keeps one verification flow per signed-in user.
type verificationRegistry struct {
	mu      sync.Mutex
	entries map[string]*verificationEntry
}

func newVerificationRegistry() *verificationRegistry {
	return &verificationRegistry{entries: make(map[string]*verificationEntry)}
}

func (r *verificationRegistry) get(userID string) *verificationEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entries[userID]
}

func (r *verificationRegistry) put(userID string, e *verificationEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[userID] = e
}

func (r *verificationRegistry) remove(userID string) *verificationEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := r.entries[userID]
	delete(r.entries, userID)
	return e
}

// StartVerification handles POST /api/verification. It fetches a fresh
// account snapshot and (re)starts the wizard from it.
func (h *Handlers) StartVerification(c echo.Context) error {
	sess := currentSession(c)

	user, err := h.backends.Core.GetUser(c.Request().Context(), sess.UserID)
	if err != nil {
		return errorJSON(c, errorStatus(err), err)
	}

	if old := h.verifications.remove(sess.UserID); old != nil {
		h.countdown.Unsubscribe(old.sub)
	}

	flow := verification.New(user, h.backends.Auth)
	sub := h.countdown.Subscribe()
	sub.OnExpired = func() { flow.Tick(time.Now()) }

	h.verifications.put(sess.UserID, &verificationEntry{flow: flow, sub: sub})
	return c.JSON(http.StatusCreated, verificationState(c, flow, sub))
}

// VerificationState handles GET /api/verification.
func (h *Handlers) VerificationState(c echo.Context) error {
	e := h.verifications.get(currentSession(c).UserID)
	if e == nil {
		return messageJSON(c, http.StatusNotFound, "verification not started")
	}
	e.flow.Tick(time.Now())
	return c.JSON(http.StatusOK, verificationState(c, e.flow, e.sub))
}

type verificationSendRequest struct {
	Channel string `json:"channel"`
}

// VerificationSend handles POST /api/verification/send.
func (h *Handlers) VerificationSend(c echo.Context) error {
	e := h.verifications.get(currentSession(c).UserID)
	if e == nil {
		return messageJSON(c, http.StatusNotFound, "verification not started")
	}

	var req verificationSendRequest
	if err := c.Bind(&req); err != nil {
		return messageJSON(c, http.StatusBadRequest, "invalid request body")
	}

	channel := parseChannel(req.Channel)
	if _, err := e.flow.RequestCode(c.Request().Context(), channel); err != nil {
		return errorJSON(c, errorStatus(err), err)
	}

	syncVerificationDeadlines(e, channel)
	return c.JSON(http.StatusOK, verificationState(c, e.flow, e.sub))
}

type verificationCodeRequest struct {
	Channel string `json:"channel"`
	Code    string `json:"code"`
}

// VerificationCode handles POST /api/verification/code.
func (h *Handlers) VerificationCode(c echo.Context) error {
	e := h.verifications.get(currentSession(c).UserID)
	if e == nil {
		return messageJSON(c, http.StatusNotFound, "verification not started")
	}

	var req verificationCodeRequest
	if err := c.Bind(&req); err != nil {
		return messageJSON(c, http.StatusBadRequest, "invalid request body")
	}

	channel := parseChannel(req.Channel)
	if err := e.flow.SubmitCode(c.Request().Context(), channel, req.Code); err != nil {
		return errorJSON(c, errorStatus(err), err)
	}

	syncVerificationDeadlines(e, channel)
	return c.JSON(http.StatusOK, verificationState(c, e.flow, e.sub))
}

// VerificationSkip handles POST /api/verification/skip.
func (h *Handlers) VerificationSkip(c echo.Context) error {
	e := h.verifications.get(currentSession(c).UserID)
	if e == nil {
		return messageJSON(c, http.StatusNotFound, "verification not started")
	}

	e.flow.Skip()
	return c.JSON(http.StatusOK, verificationState(c, e.flow, e.sub))
}

func parseChannel(s string) otp.Channel {
	if s == string(otp.ChannelEmail) {
		return otp.ChannelEmail
	}
	return otp.ChannelPhone
}

// syncVerificationDeadlines mirrors the active channel's challenge
// deadlines into the countdown subscription. Only one channel is
// visible at a time, so one subscription suffices.
func syncVerificationDeadlines(e *verificationEntry, channel otp.Channel) {
	ch := e.flow.Challenge(channel)
	if ch == nil {
		e.sub.SetExpiry(time.Time{})
		e.sub.SetResend(time.Time{})
		return
	}
	expiresAt, resendAt := ch.Deadlines()
	e.sub.SetExpiry(expiresAt)
	e.sub.SetResend(resendAt)
}

var verificationStepNames = map[verification.Step]string{
	verification.StepPhone:    "phone",
	verification.StepEmail:    "email",
	verification.StepComplete: "complete",
}

func verificationState(c echo.Context, flow *verification.Flow, sub *countdown.Subscription) map[string]any {
	user := flow.User()
	expiry, resend := sub.Remaining(time.Now())

	return map[string]any{
		"step":            verificationStepNames[flow.Step()],
		"message":         flowMessage(c.Request().Context(), flow.Message()),
		"maskedPhone":     recovery.MaskPhone(user.Phone),
		"email":           user.Email,
		"isPhoneVerified": user.PhoneVerified,
		"isEmailVerified": user.EmailVerified,
		"expirySeconds":   expiry,
		"resendSeconds":   resend,
	}
}
