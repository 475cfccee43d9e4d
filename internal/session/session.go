// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package session stores the backend-issued access token in a single
// signed cookie. The console never validates token signatures (it does
// not hold the backend's key); it only decodes claims to gate screens
// by role and to drop sessions that are obviously stale.
package session

import (
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/securecookie"
)

var (
	// ErrNoSession is returned when the request carries no session
	// cookie or the cookie fails signature verification.
	ErrNoSession = errors.New("no valid session")
	// ErrTokenInvalid is returned when the stored access token cannot
	// be decoded.
	ErrTokenInvalid = errors.New("stored token is not decodable")
)

// Session is the decoded state carried by the cookie.
type Session struct {
	Token     string
	UserID    string
	Role      string
	ExpiresAt time.Time
}

// Expired reports whether the token's exp claim has passed. A missing
// exp claim never expires client-side.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

type cookiePayload struct {
	Token string `json:"token"`
}

// Manager encodes and decodes the session cookie.
type Manager struct {
	codec      *securecookie.SecureCookie
	cookieName string
	maxAge     int
	secure     bool
}

// NewManager creates a manager. hashKey is a 32- or 64-byte hex string;
// blockKey is optional and enables encryption on top of signing.
func NewManager(cookieName, hashKey, blockKey string, maxAge int, secure bool) (*Manager, error) {
	hk, err := hex.DecodeString(hashKey)
	if err != nil || len(hk) == 0 {
		return nil, errors.New("session hash key must be a non-empty hex string")
	}

	var bk []byte
	if blockKey != "" {
		bk, err = hex.DecodeString(blockKey)
		if err != nil {
			return nil, errors.New("session block key must be a hex string")
		}
	}

	codec := securecookie.New(hk, bk)
	codec.MaxAge(maxAge)

	return &Manager{
		codec:      codec,
		cookieName: cookieName,
		maxAge:     maxAge,
		secure:     secure,
	}, nil
}

// Create builds the session cookie for an access token. The token's
// claims are decoded up front so an undecodable token is rejected at
// login rather than on every later request.
func (m *Manager) Create(token string) (*http.Cookie, *Session, error) {
	sess, err := decodeToken(token)
	if err != nil {
		return nil, nil, err
	}

	encoded, err := m.codec.Encode(m.cookieName, cookiePayload{Token: token})
	if err != nil {
		return nil, nil, fmt.Errorf("encode session cookie: %w", err)
	}

	return &http.Cookie{
		Name:     m.cookieName,
		Value:    encoded,
		Path:     "/",
		MaxAge:   m.maxAge,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}, sess, nil
}

// FromRequest extracts and decodes the session from the request.
func (m *Manager) FromRequest(r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(m.cookieName)
	if err != nil {
		return nil, ErrNoSession
	}

	var payload cookiePayload
	if err := m.codec.Decode(m.cookieName, cookie.Value, &payload); err != nil {
		return nil, ErrNoSession
	}

	return decodeToken(payload.Token)
}

// Clear returns a cookie that removes the session.
func (m *Manager) Clear() *http.Cookie {
	return &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func decodeToken(token string) (*Session, error) {
	claims := jwt.MapClaims{}
	// Signature verification happens backend-side; the console only
	// needs the claims.
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	sess := &Session{Token: token}
	if sub, err := claims.GetSubject(); err == nil {
		sess.UserID = sub
	}
	if role, ok := claims["role"].(string); ok {
		sess.Role = role
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		sess.ExpiresAt = exp.Time
	}
	return sess, nil
}
