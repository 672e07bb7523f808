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

type mockChildCommander struct {
	createFn     func(cqrs.CreateChildCommand) (*models.ChildView, error)
	updateFn     func(cqrs.UpdateChildCommand) (*models.ChildView, error)
	deactivateFn func(cqrs.DeactivateChildCommand) error
}

func (m *mockChildCommander) CreateChild(_ context.Context, cmd cqrs.CreateChildCommand) (*models.ChildView, error) {
	if m.createFn != nil {
		return m.createFn(cmd)
	}
	return nil, fmt.Errorf("not configured")
}

func (m *mockChildCommander) UpdateChild(_ context.Context, cmd cqrs.UpdateChildCommand) (*models.ChildView, error) {
	if m.updateFn != nil {
		return m.updateFn(cmd)
	}
	return nil, fmt.Errorf("not configured")
}

func (m *mockChildCommander) DeactivateChild(_ context.Context, cmd cqrs.DeactivateChildCommand) error {
	if m.deactivateFn != nil {
		return m.deactivateFn(cmd)
	}
	return fmt.Errorf("not configured")
}

type mockGoalCommander struct {
	setFn func(cqrs.SetGoalCommand) (*models.InvestmentGoal, error)
}

func (m *mockGoalCommander) SetGoal(_ context.Context, cmd cqrs.SetGoalCommand) (*models.InvestmentGoal, error) {
	if m.setFn != nil {
		return m.setFn(cmd)
	}
	return nil, fmt.Errorf("not configured")
}

type mockChildQuerier struct {
	getFn     func(cqrs.GetChildQuery) (*models.ChildDetail, error)
	listFn    func(cqrs.ListChildrenQuery) ([]models.ChildDetail, error)
	getGoalFn func(cqrs.GetGoalQuery) (*models.GoalView, error)
}

func (m *mockChildQuerier) GetChild(_ context.Context, q cqrs.GetChildQuery) (*models.ChildDetail, error) {
	if m.getFn != nil {
		return m.getFn(q)
	}
	return nil, fmt.Errorf("not configured")
}

func (m *mockChildQuerier) ListChildren(_ context.Context, q cqrs.ListChildrenQuery) ([]models.ChildDetail, error) {
	if m.listFn != nil {
		return m.listFn(q)
	}
	return nil, fmt.Errorf("not configured")
}

func (m *mockChildQuerier) GetGoal(_ context.Context, q cqrs.GetGoalQuery) (*models.GoalView, error) {
	if m.getGoalFn != nil {
		return m.getGoalFn(q)
	}
	return nil, fmt.Errorf("not configured")
}

func newChildTestRouter(cmds ChildCommander, goals GoalCommander, qrys ChildQuerier) *gin.Engine {
	r := newTestEngine("usr-001")
	h := NewChildHandler(cmds, goals, qrys)
	r.POST("/v1/children", h.CreateChild)
	r.GET("/v1/children", h.ListChildren)
	r.GET("/v1/children/:childId", h.GetChild)
	r.PATCH("/v1/children/:childId", h.UpdateChild)
	r.DELETE("/v1/children/:childId", h.DeactivateChild)
	r.PUT("/v1/children/:childId/goal", h.SetGoal)
	r.GET("/v1/children/:childId/goal", h.GetGoal)
	return r
}

var cTestChild = models.ChildView{
	ID: "chd-001", UserID: "usr-001", Name: "Ada",
	DateOfBirth:    time.Date(2016, 5, 1, 0, 0, 0, 0, time.UTC),
	TargetAmount:   decimal.NewFromInt(10000),
	CurrentBalance: decimal.NewFromInt(2500),
	UnlockAge:      18, ColorTheme: "#3B82F6", IsActive: true,
}

func TestCreateChild(t *testing.T) {
	tests := []struct {
		name           string
		body           any
		createFn       func(cqrs.CreateChildCommand) (*models.ChildView, error)
		expectedStatus int
	}{
		{
			name: "success - create child",
			body: map[string]any{"name": "Ada", "dateOfBirth": "2016-05-01", "targetAmount": "10000"},
			createFn: func(cmd cqrs.CreateChildCommand) (*models.ChildView, error) {
				if cmd.UserID != "usr-001" || cmd.DateOfBirth.Year() != 2016 {
					return nil, fmt.Errorf("unexpected command %+v", cmd)
				}
				v := cTestChild
				return &v, nil
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "bad request - missing name",
			body:           map[string]any{"dateOfBirth": "2016-05-01"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "bad request - malformed date of birth",
			body:           map[string]any{"name": "Ada", "dateOfBirth": "01/05/2016"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "bad request - negative target",
			body:           map[string]any{"name": "Ada", "dateOfBirth": "2016-05-01", "targetAmount": "-5"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "bad request - unknown gender",
			body:           map[string]any{"name": "Ada", "dateOfBirth": "2016-05-01", "gender": "X"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "internal error - store failure",
			body:           map[string]any{"name": "Ada", "dateOfBirth": "2016-05-01"},
			createFn:       func(cqrs.CreateChildCommand) (*models.ChildView, error) { return nil, fmt.Errorf("db down") },
			expectedStatus: http.StatusInternalServerError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newChildTestRouter(&mockChildCommander{createFn: tt.createFn}, &mockGoalCommander{}, &mockChildQuerier{})
			w := doRequest(router, http.MethodPost, "/v1/children", tt.body)
			if w.Code != tt.expectedStatus {
				t.Errorf("[%s] expected %d got %d; body: %s", tt.name, tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestGetChildIncludesProjections(t *testing.T) {
	getFn := func(q cqrs.GetChildQuery) (*models.ChildDetail, error) {
		switch q.ChildID {
		case "chd-001":
			return &models.ChildDetail{
				ChildView: cTestChild,
				ChildProjection: models.ChildProjection{
					Age: 10, YearsUntilUnlock: 8,
					ProgressPercentage:     decimal.NewFromInt(25),
					ProjectedValueAtUnlock: decimal.RequireFromString("16217.33"),
				},
			}, nil
		case "chd-999":
			return nil, models.ErrChildNotFound
		}
		return nil, models.ErrForbidden
	}
	router := newChildTestRouter(&mockChildCommander{}, &mockGoalCommander{}, &mockChildQuerier{getFn: getFn})

	w := doRequest(router, http.MethodGet, "/v1/children/chd-001", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d; body: %s", w.Code, w.Body.String())
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	for _, key := range []string{"currentBalance", "age", "yearsUntilUnlock", "progressPercentage", "projectedValueAtUnlock"} {
		if _, ok := body[key]; !ok {
			t.Errorf("response missing %q: %s", key, w.Body.String())
		}
	}
	if _, ok := body["UserID"]; ok {
		t.Error("response exposes owner id")
	}

	if w := doRequest(router, http.MethodGet, "/v1/children/chd-999", nil); w.Code != http.StatusNotFound {
		t.Errorf("expected 404 got %d", w.Code)
	}
	if w := doRequest(router, http.MethodGet, "/v1/children/chd-555", nil); w.Code != http.StatusForbidden {
		t.Errorf("expected 403 got %d", w.Code)
	}
}

func TestListChildrenIncludeInactive(t *testing.T) {
	var got cqrs.ListChildrenQuery
	listFn := func(q cqrs.ListChildrenQuery) ([]models.ChildDetail, error) {
		got = q
		return []models.ChildDetail{{ChildView: cTestChild}}, nil
	}
	router := newChildTestRouter(&mockChildCommander{}, &mockGoalCommander{}, &mockChildQuerier{listFn: listFn})

	w := doRequest(router, http.MethodGet, "/v1/children?includeInactive=true", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d; body: %s", w.Code, w.Body.String())
	}
	if !got.IncludeInactive || got.UserID != "usr-001" {
		t.Errorf("unexpected query %+v", got)
	}
	var resp ListChildrenResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(resp.Children) != 1 {
		t.Errorf("expected 1 child, got %d", len(resp.Children))
	}

	doRequest(router, http.MethodGet, "/v1/children", nil)
	if got.IncludeInactive {
		t.Error("expected inactive children to be excluded by default")
	}
}

func TestUpdateChildIgnoresBalance(t *testing.T) {
	var got cqrs.UpdateChildCommand
	updateFn := func(cmd cqrs.UpdateChildCommand) (*models.ChildView, error) {
		got = cmd
		v := cTestChild
		return &v, nil
	}
	router := newChildTestRouter(&mockChildCommander{updateFn: updateFn}, &mockGoalCommander{}, &mockChildQuerier{})

	w := doRequest(router, http.MethodPatch, "/v1/children/chd-001", map[string]any{
		"name":           "Ada L.",
		"gender":         "F",
		"currentBalance": "999999",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d; body: %s", w.Code, w.Body.String())
	}
	if got.Name == nil || *got.Name != "Ada L." {
		t.Errorf("expected name update, got %v", got.Name)
	}
	if got.Gender == nil || *got.Gender != models.GenderFemale {
		t.Errorf("expected gender F, got %v", got.Gender)
	}
	if got.TargetAmount != nil || got.UnlockAge != nil || got.DateOfBirth != nil {
		t.Errorf("expected untouched fields to stay nil: %+v", got)
	}
}

func TestDeactivateChild(t *testing.T) {
	tests := []struct {
		name           string
		deactivateFn   func(cqrs.DeactivateChildCommand) error
		expectedStatus int
	}{
		{"success - deactivated", func(cqrs.DeactivateChildCommand) error { return nil }, http.StatusNoContent},
		{"forbidden - not owner", func(cqrs.DeactivateChildCommand) error { return models.ErrForbidden }, http.StatusForbidden},
		{"not found - unknown child", func(cqrs.DeactivateChildCommand) error { return models.ErrChildNotFound }, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newChildTestRouter(&mockChildCommander{deactivateFn: tt.deactivateFn}, &mockGoalCommander{}, &mockChildQuerier{})
			w := doRequest(router, http.MethodDelete, "/v1/children/chd-001", nil)
			if w.Code != tt.expectedStatus {
				t.Errorf("[%s] expected %d got %d; body: %s", tt.name, tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestSetGoal(t *testing.T) {
	goal := &models.InvestmentGoal{
		ID: "gol-001", ChildID: "chd-001",
		TargetAmount:        decimal.NewFromInt(5000),
		TargetDate:          time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
		MonthlyContribution: decimal.NewFromInt(50),
	}
	tests := []struct {
		name           string
		body           any
		setFn          func(cqrs.SetGoalCommand) (*models.InvestmentGoal, error)
		expectedStatus int
	}{
		{
			name: "success - upsert goal",
			body: map[string]any{"targetAmount": "5000", "targetDate": "2030-01-01", "monthlyContribution": "50"},
			setFn: func(cmd cqrs.SetGoalCommand) (*models.InvestmentGoal, error) {
				if cmd.ChildID != "chd-001" || !cmd.TargetAmount.Equal(decimal.NewFromInt(5000)) {
					return nil, fmt.Errorf("unexpected command %+v", cmd)
				}
				return goal, nil
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "bad request - zero target",
			body:           map[string]any{"targetAmount": "0", "targetDate": "2030-01-01"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "bad request - missing target date",
			body:           map[string]any{"targetAmount": "5000"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "forbidden - child of another user",
			body:           map[string]any{"targetAmount": "5000", "targetDate": "2030-01-01"},
			setFn:          func(cqrs.SetGoalCommand) (*models.InvestmentGoal, error) { return nil, models.ErrForbidden },
			expectedStatus: http.StatusForbidden,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newChildTestRouter(&mockChildCommander{}, &mockGoalCommander{setFn: tt.setFn}, &mockChildQuerier{})
			w := doRequest(router, http.MethodPut, "/v1/children/chd-001/goal", tt.body)
			if w.Code != tt.expectedStatus {
				t.Errorf("[%s] expected %d got %d; body: %s", tt.name, tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestGetGoal(t *testing.T) {
	getGoalFn := func(q cqrs.GetGoalQuery) (*models.GoalView, error) {
		if q.ChildID != "chd-001" {
			return nil, models.ErrGoalNotFound
		}
		return &models.GoalView{
			InvestmentGoal:     models.InvestmentGoal{ID: "gol-001", ChildID: "chd-001", TargetAmount: decimal.NewFromInt(5000)},
			ProgressPercentage: decimal.NewFromInt(50),
			MonthsRemaining:    12,
		}, nil
	}
	router := newChildTestRouter(&mockChildCommander{}, &mockGoalCommander{}, &mockChildQuerier{getGoalFn: getGoalFn})

	w := doRequest(router, http.MethodGet, "/v1/children/chd-001/goal", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d; body: %s", w.Code, w.Body.String())
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if body["monthsRemaining"] != float64(12) {
		t.Errorf("expected monthsRemaining 12, got %v", body["monthsRemaining"])
	}

	if w := doRequest(router, http.MethodGet, "/v1/children/chd-002/goal", nil); w.Code != http.StatusNotFound {
		t.Errorf("expected 404 got %d", w.Code)
	}
}
