package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/Beegash/BBWallet/internal/cqrs"
	"github.com/Beegash/BBWallet/internal/models"
	"github.com/gin-gonic/gin"
)

type mockAuthQuerier struct {
	loginFn   func(cqrs.LoginCommand) (string, error)
	refreshFn func(cqrs.RefreshTokenCommand) (string, error)
}

func (m *mockAuthQuerier) Login(_ context.Context, cmd cqrs.LoginCommand) (string, error) {
	if m.loginFn != nil {
		return m.loginFn(cmd)
	}
	return "", fmt.Errorf("not configured")
}

func (m *mockAuthQuerier) RefreshToken(_ context.Context, cmd cqrs.RefreshTokenCommand) (string, error) {
	if m.refreshFn != nil {
		return m.refreshFn(cmd)
	}
	return "", fmt.Errorf("not configured")
}

func newAuthTestRouter(qrys AuthQuerier) *gin.Engine {
	r := newTestEngine("")
	h := NewAuthHandler(qrys)
	auth := r.Group("/v1/auth")
	auth.POST("/login", h.Login)
	auth.POST("/refresh", h.RefreshToken)
	return r
}

func TestLogin(t *testing.T) {
	tests := []struct {
		name           string
		body           any
		loginFn        func(cqrs.LoginCommand) (string, error)
		expectedStatus int
	}{
		{
			name: "success - valid credentials",
			body: map[string]any{"email": "parent@example.com", "password": "secret123"},
			loginFn: func(cmd cqrs.LoginCommand) (string, error) {
				if cmd.Email != "parent@example.com" {
					return "", fmt.Errorf("unexpected email %q", cmd.Email)
				}
				return "signed-token", nil
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "unauthorized - wrong password",
			body:           map[string]any{"email": "parent@example.com", "password": "nope"},
			loginFn:        func(cqrs.LoginCommand) (string, error) { return "", models.ErrInvalidCredentials },
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "bad request - invalid email",
			body:           map[string]any{"email": "not-an-email", "password": "secret123"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "bad request - malformed json",
			body:           `{"email":`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "internal error - store unavailable",
			body:           map[string]any{"email": "parent@example.com", "password": "secret123"},
			loginFn:        func(cqrs.LoginCommand) (string, error) { return "", fmt.Errorf("connection refused") },
			expectedStatus: http.StatusInternalServerError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newAuthTestRouter(&mockAuthQuerier{loginFn: tt.loginFn})
			w := doRequest(router, http.MethodPost, "/v1/auth/login", tt.body)
			if w.Code != tt.expectedStatus {
				t.Errorf("[%s] expected %d got %d; body: %s", tt.name, tt.expectedStatus, w.Code, w.Body.String())
			}
			if w.Code == http.StatusOK {
				var resp AuthResponse
				if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || resp.Token != "signed-token" {
					t.Errorf("unexpected response %s", w.Body.String())
				}
			}
		})
	}
}

func TestRefreshToken(t *testing.T) {
	tests := []struct {
		name           string
		body           any
		refreshFn      func(cqrs.RefreshTokenCommand) (string, error)
		expectedStatus int
	}{
		{
			name:           "success - valid token",
			body:           map[string]any{"token": "old-token"},
			refreshFn:      func(cqrs.RefreshTokenCommand) (string, error) { return "new-token", nil },
			expectedStatus: http.StatusOK,
		},
		{
			name:           "unauthorized - expired token",
			body:           map[string]any{"token": "expired"},
			refreshFn:      func(cqrs.RefreshTokenCommand) (string, error) { return "", models.ErrInvalidCredentials },
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "bad request - missing token",
			body:           map[string]any{},
			expectedStatus: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newAuthTestRouter(&mockAuthQuerier{refreshFn: tt.refreshFn})
			w := doRequest(router, http.MethodPost, "/v1/auth/refresh", tt.body)
			if w.Code != tt.expectedStatus {
				t.Errorf("[%s] expected %d got %d; body: %s", tt.name, tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}
