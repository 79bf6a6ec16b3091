package client

import (
	"context"
	"net/http"
)

// AuthClient covers the credential and token lifecycle. Only ChangePassword
// needs a bearer token; everything else goes out unauthenticated.
type AuthClient struct{ c *Client }

type User struct {
	ID    string `json:"_id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Tokens is what login and refresh hand back. RefreshToken is also set as
// an http-only cookie; the body copy lets a CLI keep it across runs.
type Tokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
	User         *User  `json:"user,omitempty"`
}

func (a *AuthClient) Login(ctx context.Context, email, password string) (Tokens, error) {
	env, err := call[Tokens](ctx, a.c, request{
		method: http.MethodPost,
		path:   "/auth/login",
		body:   map[string]string{"email": email, "password": password},
		anon:   true,
	})
	return env.Data, err
}

func (a *AuthClient) Logout(ctx context.Context) error {
	_, err := call[any](ctx, a.c, request{method: http.MethodPost, path: "/auth/logout", anon: true})
	return err
}

// RefreshToken trades a refresh token for a new access token. An empty
// argument relies on the cookie alone.
func (a *AuthClient) RefreshToken(ctx context.Context, refreshToken string) (Tokens, error) {
	rq := request{method: http.MethodPost, path: "/auth/refresh-token", anon: true}
	if refreshToken != "" {
		rq.body = map[string]string{"refreshToken": refreshToken}
	}
	env, err := call[Tokens](ctx, a.c, rq)
	return env.Data, err
}

// Register creates an unverified account; the server mails an OTP.
func (a *AuthClient) Register(ctx context.Context, name, email, password string) (string, error) {
	return a.message(ctx, http.MethodPost, "/user/register",
		map[string]string{"name": name, "email": email, "password": password}, true)
}

func (a *AuthClient) VerifyOTP(ctx context.Context, email, otp string) (string, error) {
	return a.message(ctx, http.MethodPost, "/user/verify-otp",
		map[string]string{"email": email, "otp": otp}, true)
}

func (a *AuthClient) ResendOTP(ctx context.Context, email string) (string, error) {
	return a.message(ctx, http.MethodPost, "/user/resend-otp",
		map[string]string{"email": email}, true)
}

func (a *AuthClient) ForgotPassword(ctx context.Context, email string) (string, error) {
	return a.message(ctx, http.MethodPost, "/auth/forgot-password",
		map[string]string{"email": email}, true)
}

// ResetPassword completes a forgot-password flow with the token and user id
// from the reset link.
func (a *AuthClient) ResetPassword(ctx context.Context, token, userID, password string) (string, error) {
	return a.message(ctx, http.MethodPost, "/auth/reset-password",
		map[string]string{"token": token, "userId": userID, "password": password}, true)
}

func (a *AuthClient) ChangePassword(ctx context.Context, current, next string) (string, error) {
	return a.message(ctx, http.MethodPut, "/auth/change-password",
		map[string]string{"currentPassword": current, "newPassword": next}, false)
}

// message is for the endpoints whose reply carries nothing but a message.
func (a *AuthClient) message(ctx context.Context, method, path string, body any, anon bool) (string, error) {
	env, err := call[any](ctx, a.c, request{method: method, path: path, body: body, anon: anon})
	return env.Message, err
}

// Refresher adapts RefreshToken to the shape a token source calls.
func (a *AuthClient) Refresher() func(ctx context.Context, refreshToken string) (string, string, error) {
	return func(ctx context.Context, refreshToken string) (string, string, error) {
		t, err := a.RefreshToken(ctx, refreshToken)
		return t.AccessToken, t.RefreshToken, err
	}
}
