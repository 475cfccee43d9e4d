// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Gayathri240502/persft-web-sub000/internal/countdown"
	"github.com/Gayathri240502/persft-web-sub000/internal/flows/recovery"
)

// recoveryTTL bounds how long an abandoned recovery attempt is kept.
const recoveryTTL = 30 * time.Minute

type recoveryEntry struct {
	flow      *recovery.Flow
	sub       *countdown.Subscription
	createdAt time.Time
}

type recoveryRegistry struct {
	mu      sync.Mutex
	entries map[string]*recoveryEntry
}

func newRecoveryRegistry() *recoveryRegistry {
	return &recoveryRegistry{entries: make(map[string]*recoveryEntry)}
}

func (r *recoveryRegistry) get(id string) *recoveryEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entries[id]
}

func (r *recoveryRegistry) put(id string, e *recoveryEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[id] = e
}

// prune drops entries older than the TTL and returns their
// subscriptions for cleanup.
func (r *recoveryRegistry) prune(now time.Time) []*countdown.Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()

	var stale []*countdown.Subscription
	for id, e := range r.entries {
		if now.Sub(e.createdAt) > recoveryTTL {
			stale = append(stale, e.sub)
			delete(r.entries, id)
		}
	}
	return stale
}

type startRecoveryRequest struct {
	Mode string `json:"mode"`
}

// StartRecovery handles POST /api/recovery. It creates a fresh flow in
// the requested mode and returns its ID for the follow-up steps.
func (h *Handlers) StartRecovery(c echo.Context) error {
	var req startRecoveryRequest
	if err := c.Bind(&req); err != nil {
		return messageJSON(c, http.StatusBadRequest, "invalid request body")
	}

	mode := recovery.ModePassword
	if req.Mode == string(recovery.ModeUsername) {
		mode = recovery.ModeUsername
	}

	for _, sub := range h.recoveries.prune(time.Now()) {
		h.countdown.Unsubscribe(sub)
	}

	flow := recovery.New(mode, h.backends.Auth)
	sub := h.countdown.Subscribe()
	sub.OnExpired = func() { flow.Tick(time.Now()) }

	id := uuid.NewString()
	h.recoveries.put(id, &recoveryEntry{flow: flow, sub: sub, createdAt: time.Now()})

	return c.JSON(http.StatusCreated, recoveryState(c, id, flow, sub))
}

// RecoveryState handles GET /api/recovery/:id.
func (h *Handlers) RecoveryState(c echo.Context) error {
	e := h.recoveries.get(c.Param("id"))
	if e == nil {
		return messageJSON(c, http.StatusNotFound, "recovery attempt not found")
	}
	// Let an expiry that happened between ticks surface immediately.
	e.flow.Tick(time.Now())
	return c.JSON(http.StatusOK, recoveryState(c, c.Param("id"), e.flow, e.sub))
}

// RecoveryMode handles POST /api/recovery/:id/mode. Switching mode
// resets the flow, including any outstanding code and its deadlines.
func (h *Handlers) RecoveryMode(c echo.Context) error {
	e := h.recoveries.get(c.Param("id"))
	if e == nil {
		return messageJSON(c, http.StatusNotFound, "recovery attempt not found")
	}

	var req startRecoveryRequest
	if err := c.Bind(&req); err != nil {
		return messageJSON(c, http.StatusBadRequest, "invalid request body")
	}

	mode := recovery.ModePassword
	if req.Mode == string(recovery.ModeUsername) {
		mode = recovery.ModeUsername
	}

	e.flow.SetMode(mode)
	syncRecoveryDeadlines(e)
	return c.JSON(http.StatusOK, recoveryState(c, c.Param("id"), e.flow, e.sub))
}

type recoveryPhoneRequest struct {
	Phone string `json:"phone"`
}

// RecoveryPhone handles POST /api/recovery/:id/phone.
func (h *Handlers) RecoveryPhone(c echo.Context) error {
	e := h.recoveries.get(c.Param("id"))
	if e == nil {
		return messageJSON(c, http.StatusNotFound, "recovery attempt not found")
	}

	var req recoveryPhoneRequest
	if err := c.Bind(&req); err != nil {
		return messageJSON(c, http.StatusBadRequest, "invalid request body")
	}

	if err := e.flow.SubmitPhone(c.Request().Context(), req.Phone); err != nil {
		return errorJSON(c, errorStatus(err), err)
	}

	syncRecoveryDeadlines(e)
	return c.JSON(http.StatusOK, recoveryState(c, c.Param("id"), e.flow, e.sub))
}

// RecoveryResend handles POST /api/recovery/:id/resend.
func (h *Handlers) RecoveryResend(c echo.Context) error {
	e := h.recoveries.get(c.Param("id"))
	if e == nil {
		return messageJSON(c, http.StatusNotFound, "recovery attempt not found")
	}

	if err := e.flow.ResendCode(c.Request().Context()); err != nil {
		return errorJSON(c, errorStatus(err), err)
	}

	syncRecoveryDeadlines(e)
	return c.JSON(http.StatusOK, recoveryState(c, c.Param("id"), e.flow, e.sub))
}

type recoveryCodeRequest struct {
	Code string `json:"code"`
}

// RecoveryCode handles POST /api/recovery/:id/code.
func (h *Handlers) RecoveryCode(c echo.Context) error {
	e := h.recoveries.get(c.Param("id"))
	if e == nil {
		return messageJSON(c, http.StatusNotFound, "recovery attempt not found")
	}

	var req recoveryCodeRequest
	if err := c.Bind(&req); err != nil {
		return messageJSON(c, http.StatusBadRequest, "invalid request body")
	}

	if err := e.flow.SubmitCode(req.Code); err != nil {
		return errorJSON(c, errorStatus(err), err)
	}

	return c.JSON(http.StatusOK, recoveryState(c, c.Param("id"), e.flow, e.sub))
}

type recoveryPasswordRequest struct {
	Password string `json:"password"`
	Confirm  string `json:"confirm"`
}

// RecoveryPassword handles POST /api/recovery/:id/password.
func (h *Handlers) RecoveryPassword(c echo.Context) error {
	e := h.recoveries.get(c.Param("id"))
	if e == nil {
		return messageJSON(c, http.StatusNotFound, "recovery attempt not found")
	}

	var req recoveryPasswordRequest
	if err := c.Bind(&req); err != nil {
		return messageJSON(c, http.StatusBadRequest, "invalid request body")
	}

	if err := e.flow.SubmitNewPassword(c.Request().Context(), req.Password, req.Confirm); err != nil {
		syncRecoveryDeadlines(e)
		return errorJSON(c, errorStatus(err), err)
	}

	syncRecoveryDeadlines(e)
	return c.JSON(http.StatusOK, recoveryState(c, c.Param("id"), e.flow, e.sub))
}

// syncRecoveryDeadlines mirrors the challenge deadlines into the
// countdown subscription after any operation that may have moved them.
func syncRecoveryDeadlines(e *recoveryEntry) {
	ch := e.flow.Challenge()
	if ch == nil {
		e.sub.SetExpiry(time.Time{})
		e.sub.SetResend(time.Time{})
		return
	}
	expiresAt, resendAt := ch.Deadlines()
	e.sub.SetExpiry(expiresAt)
	e.sub.SetResend(resendAt)
}

var recoveryStepNames = map[recovery.Step]string{
	recovery.StepEnterPhone:  "enterPhone",
	recovery.StepVerifyCode:  "verifyCode",
	recovery.StepSetPassword: "setPassword",
	recovery.StepDone:        "done",
}

func recoveryState(c echo.Context, id string, flow *recovery.Flow, sub *countdown.Subscription) map[string]any {
	expiry, resend := sub.Remaining(time.Now())

	state := map[string]any{
		"flowId":        id,
		"mode":          string(flow.Mode()),
		"step":          recoveryStepNames[flow.Step()],
		"message":       flowMessage(c.Request().Context(), flow.Message()),
		"expirySeconds": expiry,
		"resendSeconds": resend,
	}
	if p := flow.Phone(); p != "" {
		state["maskedPhone"] = recovery.MaskPhone(p)
	}
	if ch := flow.Challenge(); ch != nil {
		state["resendAllowed"] = ch.ResendAllowed()
	}
	return state
}
