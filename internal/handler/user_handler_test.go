package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/Beegash/BBWallet/internal/cqrs"
	"github.com/Beegash/BBWallet/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type mockUserCommander struct {
	createFn     func(cqrs.CreateUserCommand) (*models.UserView, error)
	updateFn     func(cqrs.UpdateUserCommand) (*models.UserView, error)
	connectFn    func(cqrs.ConnectWalletCommand) (*models.UserView, error)
	disconnectFn func(cqrs.DisconnectWalletCommand) (*models.UserView, error)
}

func (m *mockUserCommander) CreateUser(_ context.Context, cmd cqrs.CreateUserCommand) (*models.UserView, error) {
	if m.createFn != nil {
		return m.createFn(cmd)
	}
	return nil, fmt.Errorf("not configured")
}

func (m *mockUserCommander) UpdateUser(_ context.Context, cmd cqrs.UpdateUserCommand) (*models.UserView, error) {
	if m.updateFn != nil {
		return m.updateFn(cmd)
	}
	return nil, fmt.Errorf("not configured")
}

func (m *mockUserCommander) ConnectWallet(_ context.Context, cmd cqrs.ConnectWalletCommand) (*models.UserView, error) {
	if m.connectFn != nil {
		return m.connectFn(cmd)
	}
	return nil, fmt.Errorf("not configured")
}

func (m *mockUserCommander) DisconnectWallet(_ context.Context, cmd cqrs.DisconnectWalletCommand) (*models.UserView, error) {
	if m.disconnectFn != nil {
		return m.disconnectFn(cmd)
	}
	return nil, fmt.Errorf("not configured")
}

type mockUserQuerier struct {
	getFn   func(cqrs.GetUserQuery) (*models.UserView, error)
	statsFn func(cqrs.StatsQuery) (*models.Stats, error)
}

func (m *mockUserQuerier) GetUser(_ context.Context, q cqrs.GetUserQuery) (*models.UserView, error) {
	if m.getFn != nil {
		return m.getFn(q)
	}
	return nil, fmt.Errorf("not configured")
}

func (m *mockUserQuerier) Stats(_ context.Context, q cqrs.StatsQuery) (*models.Stats, error) {
	if m.statsFn != nil {
		return m.statsFn(q)
	}
	return nil, fmt.Errorf("not configured")
}

func newUserTestRouter(cmds UserCommander, qrys UserQuerier, authUserID string) *gin.Engine {
	r := newTestEngine(authUserID)
	h := NewUserHandler(cmds, qrys)
	r.POST("/v1/users", h.CreateUser)
	r.GET("/v1/users/:userId", h.GetUser)
	r.PATCH("/v1/users/:userId", h.UpdateUser)
	r.POST("/v1/users/:userId/wallet", h.ConnectWallet)
	r.DELETE("/v1/users/:userId/wallet", h.DisconnectWallet)
	r.GET("/v1/stats", h.Stats)
	return r
}

var uTestUserView = &models.UserView{
	ID: "usr-001", Username: "parent", Email: "parent@example.com",
	FirstName: "Pat", LastName: "Doe",
	TotalSavings: decimal.RequireFromString("1250.00"),
	CreatedAt:    time.Now(), UpdatedAt: time.Now(),
}

func uValidCreateBody() map[string]any {
	return map[string]any{
		"username":  "parent",
		"email":     "parent@example.com",
		"password":  "supersecret",
		"firstName": "Pat",
		"lastName":  "Doe",
	}
}

func TestCreateUser(t *testing.T) {
	tests := []struct {
		name           string
		body           any
		createFn       func(cqrs.CreateUserCommand) (*models.UserView, error)
		expectedStatus int
	}{
		{
			name:           "success - register",
			body:           uValidCreateBody(),
			createFn:       func(cqrs.CreateUserCommand) (*models.UserView, error) { return uTestUserView, nil },
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "conflict - email already registered",
			body:           uValidCreateBody(),
			createFn:       func(cqrs.CreateUserCommand) (*models.UserView, error) { return nil, models.ErrEmailTaken },
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "bad request - short password",
			body:           map[string]any{"username": "parent", "email": "parent@example.com", "password": "short"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "bad request - missing username",
			body:           map[string]any{"email": "parent@example.com", "password": "supersecret"},
			expectedStatus: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newUserTestRouter(&mockUserCommander{createFn: tt.createFn}, &mockUserQuerier{}, "")
			w := doRequest(router, http.MethodPost, "/v1/users", tt.body)
			if w.Code != tt.expectedStatus {
				t.Errorf("[%s] expected %d got %d; body: %s", tt.name, tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestCreateUserNeverEchoesPassword(t *testing.T) {
	createFn := func(cqrs.CreateUserCommand) (*models.UserView, error) { return uTestUserView, nil }
	router := newUserTestRouter(&mockUserCommander{createFn: createFn}, &mockUserQuerier{}, "")
	w := doRequest(router, http.MethodPost, "/v1/users", uValidCreateBody())

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	for _, key := range []string{"password", "passwordHash", "PasswordHash"} {
		if _, ok := body[key]; ok {
			t.Errorf("response exposes %q", key)
		}
	}
}

func TestGetUser(t *testing.T) {
	tests := []struct {
		name           string
		userID         string
		getFn          func(cqrs.GetUserQuery) (*models.UserView, error)
		expectedStatus int
	}{
		{
			name:           "success - fetch self",
			userID:         "usr-001",
			getFn:          func(cqrs.GetUserQuery) (*models.UserView, error) { return uTestUserView, nil },
			expectedStatus: http.StatusOK,
		},
		{
			name:           "forbidden - fetch another user",
			userID:         "usr-999",
			getFn:          func(cqrs.GetUserQuery) (*models.UserView, error) { return nil, models.ErrForbidden },
			expectedStatus: http.StatusForbidden,
		},
		{
			name:           "not found - user deleted",
			userID:         "usr-001",
			getFn:          func(cqrs.GetUserQuery) (*models.UserView, error) { return nil, models.ErrUserNotFound },
			expectedStatus: http.StatusNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newUserTestRouter(&mockUserCommander{}, &mockUserQuerier{getFn: tt.getFn}, "usr-001")
			w := doRequest(router, http.MethodGet, "/v1/users/"+tt.userID, nil)
			if w.Code != tt.expectedStatus {
				t.Errorf("[%s] expected %d got %d; body: %s", tt.name, tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestUpdateUserPassesOnlyProvidedFields(t *testing.T) {
	var got cqrs.UpdateUserCommand
	updateFn := func(cmd cqrs.UpdateUserCommand) (*models.UserView, error) {
		got = cmd
		return uTestUserView, nil
	}
	router := newUserTestRouter(&mockUserCommander{updateFn: updateFn}, &mockUserQuerier{}, "usr-001")
	w := doRequest(router, http.MethodPatch, "/v1/users/usr-001", map[string]any{"firstName": "Sam"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d; body: %s", w.Code, w.Body.String())
	}
	if got.FirstName == nil || *got.FirstName != "Sam" {
		t.Errorf("expected firstName Sam, got %v", got.FirstName)
	}
	if got.Email != nil || got.LastName != nil {
		t.Errorf("expected untouched fields to be nil, got %+v", got)
	}
	if got.RequestingUserID != "usr-001" {
		t.Errorf("expected requesting user usr-001, got %q", got.RequestingUserID)
	}

	w = doRequest(router, http.MethodPatch, "/v1/users/usr-001", map[string]any{"email": "bad"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for invalid email, got %d", w.Code)
	}
}

func TestWalletEndpoints(t *testing.T) {
	connected := *uTestUserView
	connected.WalletConnected = true
	connected.WalletAddress = "0xabc"
	cmds := &mockUserCommander{
		connectFn: func(cmd cqrs.ConnectWalletCommand) (*models.UserView, error) {
			if cmd.UserID != cmd.RequestingUserID {
				return nil, models.ErrForbidden
			}
			return &connected, nil
		},
		disconnectFn: func(cqrs.DisconnectWalletCommand) (*models.UserView, error) { return nil, models.ErrNoActiveWallet },
	}
	router := newUserTestRouter(cmds, &mockUserQuerier{}, "usr-001")

	tests := []struct {
		name           string
		method         string
		url            string
		body           any
		expectedStatus int
	}{
		{"connect own wallet", http.MethodPost, "/v1/users/usr-001/wallet", map[string]any{"walletAddress": "0xabc", "walletType": "metamask"}, http.StatusOK},
		{"connect for another user", http.MethodPost, "/v1/users/usr-002/wallet", map[string]any{"walletAddress": "0xabc", "walletType": "metamask"}, http.StatusForbidden},
		{"connect without address", http.MethodPost, "/v1/users/usr-001/wallet", map[string]any{"walletType": "metamask"}, http.StatusBadRequest},
		{"disconnect with no wallet", http.MethodDelete, "/v1/users/usr-001/wallet", nil, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(router, tt.method, tt.url, tt.body)
			if w.Code != tt.expectedStatus {
				t.Errorf("[%s] expected %d got %d; body: %s", tt.name, tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestStats(t *testing.T) {
	statsFn := func(q cqrs.StatsQuery) (*models.Stats, error) {
		if q.UserID != "usr-001" {
			return nil, fmt.Errorf("unexpected user %q", q.UserID)
		}
		return &models.Stats{
			TotalSavings:          decimal.RequireFromString("1500.50"),
			AccountCount:          2,
			ActiveInvestmentCount: 1,
		}, nil
	}
	router := newUserTestRouter(&mockUserCommander{}, &mockUserQuerier{statsFn: statsFn}, "usr-001")
	w := doRequest(router, http.MethodGet, "/v1/stats", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d; body: %s", w.Code, w.Body.String())
	}
	var body struct {
		TotalSavings          string `json:"totalSavings"`
		AccountCount          int    `json:"accountCount"`
		ActiveInvestmentCount int    `json:"activeInvestmentCount"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if body.TotalSavings != "1500.5" || body.AccountCount != 2 || body.ActiveInvestmentCount != 1 {
		t.Errorf("unexpected stats %+v", body)
	}
}
