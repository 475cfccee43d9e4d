// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package handlers contains the JSON endpoints of the admin console.
// The console holds no business data of its own; handlers translate
// between browser requests, the flow state machines, and the platform
// backends.
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Gayathri240502/persft-web-sub000/internal/backend"
	"github.com/Gayathri240502/persft-web-sub000/internal/cache"
	"github.com/Gayathri240502/persft-web-sub000/internal/countdown"
	"github.com/Gayathri240502/persft-web-sub000/internal/flows/recovery"
	"github.com/Gayathri240502/persft-web-sub000/internal/flows/verification"
	"github.com/Gayathri240502/persft-web-sub000/internal/i18n"
	"github.com/Gayathri240502/persft-web-sub000/internal/otp"
	"github.com/Gayathri240502/persft-web-sub000/internal/phone"
	"github.com/Gayathri240502/persft-web-sub000/internal/session"
	"github.com/Gayathri240502/persft-web-sub000/internal/workorder"
)

// Backends bundles the platform service clients.
type Backends struct {
	Auth      *backend.AuthClient
	Core      *backend.CoreClient
	Vendor    *backend.VendorClient
	Support   *backend.SupportClient
	Scheduler *backend.SchedulerClient
}

// Handlers holds all HTTP handlers and their shared state.
type Handlers struct {
	backends  Backends
	sessions  *session.Manager
	cache     *cache.Service
	countdown *countdown.Service

	recoveries    *recoveryRegistry
	verifications *verificationRegistry
	workOrders    *workOrderRegistry
}

// New creates the handlers.
func New(backends Backends, sessions *session.Manager, cacheSvc *cache.Service, cd *countdown.Service) *Handlers {
	return &Handlers{
		backends:      backends,
		sessions:      sessions,
		cache:         cacheSvc,
		countdown:     cd,
		recoveries:    newRecoveryRegistry(),
		verifications: newVerificationRegistry(),
		workOrders:    newWorkOrderRegistry(),
	}
}

// Health handles GET /health.
func (h *Handlers) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// errorMessageIDs maps local validation errors to their translation
// keys. The English texts live in the translation bundle next to their
// Hindi counterparts.
var errorMessageIDs = map[error]string{
	phone.ErrInvalid:               "invalid_phone",
	otp.ErrCodeRequired:            "code_required",
	otp.ErrCodeLength:              "code_length",
	otp.ErrCodeDigits:              "code_digits",
	otp.ErrResendTooSoon:           "resend_too_soon",
	otp.ErrNoActiveCode:            "no_active_code",
	otp.ErrVerifyInFlight:          "verify_in_progress",
	recovery.ErrWrongStep:          "wrong_step",
	recovery.ErrPasswordRequired:   "password_required",
	recovery.ErrPasswordTooShort:   "password_too_short",
	recovery.ErrPasswordTooSimple:  "password_too_simple",
	recovery.ErrPasswordsDontMatch: "passwords_dont_match",
	verification.ErrStepComplete:   "step_complete",
	workorder.ErrUpdateInFlight:    "update_in_progress",
	workorder.ErrDeclined:          "update_declined",
	workorder.ErrUnknownTarget:     "target_not_found",
	workorder.ErrInvalidStatus:     "invalid_status",
}

// userMessage picks the string shown to the browser. Backend responses
// surface their message field verbatim, local validation errors are
// translated; transport failures and message-less backend errors
// collapse to the generic message.
func userMessage(ctx context.Context, err error) string {
	var be *backend.Error
	if errors.As(err, &be) && be.Message != "" {
		return be.Message
	}
	for sentinel, id := range errorMessageIDs {
		if errors.Is(err, sentinel) {
			return i18n.T(ctx, id)
		}
	}
	return i18n.T(ctx, "generic_error")
}

// flowMessageIDs are the status messages the flows generate themselves;
// everything else in a flow's message slot came from a backend and is
// shown as-is.
var flowMessageIDs = map[string]bool{
	recovery.MsgCodeExpired:       true,
	recovery.MsgCodeResent:        true,
	recovery.MsgPasswordUpdated:   true,
	verification.MsgPhoneVerified: true,
	verification.MsgEmailVerified: true,
}

// flowMessage renders a flow status message in the request's locale.
func flowMessage(ctx context.Context, msg string) string {
	if flowMessageIDs[msg] {
		return i18n.T(ctx, msg)
	}
	return msg
}

// errorJSON renders a backend or validation error as {"message": ...}.
func errorJSON(c echo.Context, status int, err error) error {
	return c.JSON(status, map[string]string{"message": userMessage(c.Request().Context(), err)})
}

// messageJSON renders a plain message body.
func messageJSON(c echo.Context, status int, msg string) error {
	return c.JSON(status, map[string]string{"message": msg})
}

// errorStatus maps an error to an HTTP status for the mutation and
// flow endpoints.
func errorStatus(err error) int {
	var be *backend.Error
	switch {
	case errors.As(err, &be):
		// Client errors pass through, server-side failures surface
		// as a bad gateway.
		if be.StatusCode >= 400 && be.StatusCode < 500 {
			return be.StatusCode
		}
		return http.StatusBadGateway
	case errors.Is(err, workorder.ErrUnknownTarget):
		return http.StatusNotFound
	case errors.Is(err, workorder.ErrUpdateInFlight), errors.Is(err, otp.ErrVerifyInFlight):
		return http.StatusConflict
	case errors.Is(err, otp.ErrResendTooSoon):
		return http.StatusTooManyRequests
	default:
		return http.StatusUnprocessableEntity
	}
}
