// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package backend

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Gayathri240502/persft-web-sub000/internal/otp"
)

// AuthClient talks to the auth/kiosk service: login, password and
// username recovery, and channel verification codes.
type AuthClient struct {
	*Client
}

// NewAuthClient creates a client for the auth service.
func NewAuthClient(baseURL string, timeout time.Duration) *AuthClient {
	return &AuthClient{Client: NewClient(baseURL, timeout)}
}

type sendCodeResponse struct {
	Message               string `json:"message"`
	ExpiryMinutes         int    `json:"expiryMinutes"`
	ResendCooldownSeconds int    `json:"resendCooldownSeconds"`
}

func (r sendCodeResponse) toResult() otp.SendResult {
	return otp.SendResult{
		Message:               r.Message,
		ExpiryMinutes:         r.ExpiryMinutes,
		ResendCooldownSeconds: r.ResendCooldownSeconds,
	}
}

// Login exchanges credentials for an access token.
func (c *AuthClient) Login(ctx context.Context, username, password string) (string, error) {
	var resp struct {
		Token string `json:"token"`
	}
	err := c.do(ctx, http.MethodPost, "/auth/login", map[string]string{
		"username": username,
		"password": password,
	}, &resp)
	if err != nil {
		return "", err
	}
	return resp.Token, nil
}

// SendPasswordResetCode requests a reset code for the phone number.
func (c *AuthClient) SendPasswordResetCode(ctx context.Context, phone string) (otp.SendResult, error) {
	var resp sendCodeResponse
	err := c.do(ctx, http.MethodPost, "/auth/forgot-password/send", map[string]string{
		"phone": phone,
	}, &resp)
	if err != nil {
		return otp.SendResult{}, err
	}
	return resp.toResult(), nil
}

// ConfirmPasswordReset submits phone, code and the new password in one
// call; the backend verifies the code as part of the reset.
func (c *AuthClient) ConfirmPasswordReset(ctx context.Context, phone, code, newPassword string) error {
	return c.do(ctx, http.MethodPost, "/auth/forgot-password/verify", map[string]string{
		"phone":       phone,
		"otp":         code,
		"newPassword": newPassword,
	}, nil)
}

// RequestUsername asks the backend to deliver the username to the
// phone. The returned string is the backend's status message.
func (c *AuthClient) RequestUsername(ctx context.Context, phone string) (string, error) {
	var resp struct {
		Message string `json:"message"`
	}
	err := c.do(ctx, http.MethodPost, "/auth/forgot-username", map[string]string{
		"phone": phone,
	}, &resp)
	if err != nil {
		return "", err
	}
	return resp.Message, nil
}

// SendVerificationCode requests a verification code for a channel.
func (c *AuthClient) SendVerificationCode(ctx context.Context, userID string, channel otp.Channel, destination string) (otp.SendResult, error) {
	var resp sendCodeResponse
	err := c.do(ctx, http.MethodPost, verifyPath(channel, "send"), verifyBody(userID, channel, destination, ""), &resp)
	if err != nil {
		return otp.SendResult{}, err
	}
	return resp.toResult(), nil
}

// ConfirmVerificationCode checks a user-entered verification code.
func (c *AuthClient) ConfirmVerificationCode(ctx context.Context, userID string, channel otp.Channel, destination, code string) error {
	return c.do(ctx, http.MethodPost, verifyPath(channel, "verify"), verifyBody(userID, channel, destination, code), nil)
}

func verifyPath(channel otp.Channel, action string) string {
	if channel == otp.ChannelEmail {
		return fmt.Sprintf("/auth/verify-email/%s", action)
	}
	return fmt.Sprintf("/auth/verify-phone/%s", action)
}

func verifyBody(userID string, channel otp.Channel, destination, code string) map[string]string {
	body := map[string]string{"userId": userID}
	if channel == otp.ChannelEmail {
		body["email"] = destination
		if code != "" {
			body["code"] = code
		}
	} else {
		body["phone"] = destination
		if code != "" {
			body["otp"] = code
		}
	}
	return body
}
