// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Gayathri240502/persft-web-sub000/internal/i18n"
	"github.com/Gayathri240502/persft-web-sub000/internal/session"
)

const sessionContextKey = "console.session"

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login handles POST /api/login. Credentials go to the auth service;
// the returned token is stored in the session cookie.
func (h *Handlers) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return messageJSON(c, http.StatusBadRequest, "invalid request body")
	}
	if req.Username == "" || req.Password == "" {
		return messageJSON(c, http.StatusBadRequest, "username and password are required")
	}

	token, err := h.backends.Auth.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return errorJSON(c, errorStatus(err), err)
	}

	cookie, sess, err := h.sessions.Create(token)
	if err != nil {
		if errors.Is(err, session.ErrTokenInvalid) {
			return messageJSON(c, http.StatusBadGateway, "login response could not be processed")
		}
		return err
	}

	c.SetCookie(cookie)
	return c.JSON(http.StatusOK, map[string]string{
		"userId": sess.UserID,
		"role":   sess.Role,
	})
}

// Logout handles POST /api/logout.
func (h *Handlers) Logout(c echo.Context) error {
	c.SetCookie(h.sessions.Clear())
	return c.NoContent(http.StatusNoContent)
}

// RequireSession rejects requests without a valid, unexpired session.
func (h *Handlers) RequireSession() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()

			sess, err := h.sessions.FromRequest(c.Request())
			if err != nil {
				return messageJSON(c, http.StatusUnauthorized, i18n.T(ctx, "login_required"))
			}
			if sess.Expired(time.Now()) {
				c.SetCookie(h.sessions.Clear())
				return messageJSON(c, http.StatusUnauthorized, i18n.T(ctx, "session_expired"))
			}

			c.Set(sessionContextKey, sess)
			return next(c)
		}
	}
}

// currentSession returns the session stored by RequireSession.
func currentSession(c echo.Context) *session.Session {
	sess, _ := c.Get(sessionContextKey).(*session.Session)
	return sess
}
