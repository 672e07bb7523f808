package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/Beegash/BBWallet/internal/cqrs"
	"github.com/Beegash/BBWallet/internal/middleware"
	"github.com/Beegash/BBWallet/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// ChildCommander defines the write-side operations used by ChildHandler.
type ChildCommander interface {
	CreateChild(context.Context, cqrs.CreateChildCommand) (*models.ChildView, error)
	UpdateChild(context.Context, cqrs.UpdateChildCommand) (*models.ChildView, error)
	DeactivateChild(context.Context, cqrs.DeactivateChildCommand) error
}

// GoalCommander saves a child's savings goal.
type GoalCommander interface {
	SetGoal(context.Context, cqrs.SetGoalCommand) (*models.InvestmentGoal, error)
}

// ChildQuerier defines the read-side operations used by ChildHandler.
type ChildQuerier interface {
	GetChild(context.Context, cqrs.GetChildQuery) (*models.ChildDetail, error)
	ListChildren(context.Context, cqrs.ListChildrenQuery) ([]models.ChildDetail, error)
	GetGoal(context.Context, cqrs.GetGoalQuery) (*models.GoalView, error)
}

// ChildHandler handles child account and savings goal requests.
type ChildHandler struct {
	commands ChildCommander
	goals    GoalCommander
	queries  ChildQuerier
}

type CreateChildRequest struct {
	Name         string          `json:"name" validate:"required,max=100"`
	DateOfBirth  string          `json:"dateOfBirth" validate:"required,datetime=2006-01-02"`
	Gender       string          `json:"gender" validate:"omitempty,oneof=M F O"`
	TargetAmount decimal.Decimal `json:"targetAmount" validate:"gte=0"`
	UnlockAge    int             `json:"unlockAge" validate:"omitempty,gte=1,lte=100"`
	ColorTheme   string          `json:"colorTheme" validate:"omitempty,max=20"`
}

// UpdateChildRequest has no balance field; balances only change through transactions.
type UpdateChildRequest struct {
	Name         *string          `json:"name" validate:"omitempty,max=100"`
	DateOfBirth  *string          `json:"dateOfBirth" validate:"omitempty,datetime=2006-01-02"`
	Gender       *string          `json:"gender" validate:"omitempty,oneof=M F O"`
	TargetAmount *decimal.Decimal `json:"targetAmount" validate:"omitempty,gte=0"`
	UnlockAge    *int             `json:"unlockAge" validate:"omitempty,gte=1,lte=100"`
	ColorTheme   *string          `json:"colorTheme" validate:"omitempty,max=20"`
}

type SetGoalRequest struct {
	TargetAmount        decimal.Decimal `json:"targetAmount" validate:"required,gt=0"`
	TargetDate          string          `json:"targetDate" validate:"required,datetime=2006-01-02"`
	MonthlyContribution decimal.Decimal `json:"monthlyContribution" validate:"gte=0"`
	Description         string          `json:"description"`
}

type ListChildrenResponse struct {
	Children []models.ChildDetail `json:"children"`
}

func NewChildHandler(commands ChildCommander, goals GoalCommander, queries ChildQuerier) *ChildHandler {
	return &ChildHandler{commands: commands, goals: goals, queries: queries}
}

func (h *ChildHandler) CreateChild(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req CreateChildRequest
	if !bindJSON(c, &req) {
		return
	}

	child, err := h.commands.CreateChild(c.Request.Context(), cqrs.CreateChildCommand{
		UserID:       userID,
		Name:         req.Name,
		DateOfBirth:  mustDate(req.DateOfBirth),
		Gender:       models.Gender(req.Gender),
		TargetAmount: req.TargetAmount,
		UnlockAge:    req.UnlockAge,
		ColorTheme:   req.ColorTheme,
	})
	if err != nil {
		middleware.RespondWithDomainError(c, err, "Failed to create child")
		return
	}

	c.JSON(http.StatusCreated, child)
}

// ListChildren returns active children; ?includeInactive=true adds deactivated ones.
func (h *ChildHandler) ListChildren(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	includeInactive, _ := strconv.ParseBool(c.Query("includeInactive"))

	children, err := h.queries.ListChildren(c.Request.Context(), cqrs.ListChildrenQuery{
		UserID:          userID,
		IncludeInactive: includeInactive,
	})
	if err != nil {
		middleware.RespondWithDomainError(c, err, "Failed to list children")
		return
	}

	c.JSON(http.StatusOK, ListChildrenResponse{Children: children})
}

func (h *ChildHandler) GetChild(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	child, err := h.queries.GetChild(c.Request.Context(), cqrs.GetChildQuery{
		ChildID:          c.Param("childId"),
		RequestingUserID: userID,
	})
	if err != nil {
		middleware.RespondWithDomainError(c, err, "Failed to fetch child")
		return
	}

	c.JSON(http.StatusOK, child)
}

func (h *ChildHandler) UpdateChild(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req UpdateChildRequest
	if !bindJSON(c, &req) {
		return
	}
	cmd := cqrs.UpdateChildCommand{
		ChildID:          c.Param("childId"),
		RequestingUserID: userID,
		Name:             req.Name,
		DateOfBirth:      optionalDate(req.DateOfBirth),
		TargetAmount:     req.TargetAmount,
		UnlockAge:        req.UnlockAge,
		ColorTheme:       req.ColorTheme,
	}
	if req.Gender != nil {
		g := models.Gender(*req.Gender)
		cmd.Gender = &g
	}

	child, err := h.commands.UpdateChild(c.Request.Context(), cmd)
	if err != nil {
		middleware.RespondWithDomainError(c, err, "Failed to update child")
		return
	}

	c.JSON(http.StatusOK, child)
}

func (h *ChildHandler) DeactivateChild(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	err := h.commands.DeactivateChild(c.Request.Context(), cqrs.DeactivateChildCommand{
		ChildID:          c.Param("childId"),
		RequestingUserID: userID,
	})
	if err != nil {
		middleware.RespondWithDomainError(c, err, "Failed to deactivate child")
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *ChildHandler) SetGoal(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req SetGoalRequest
	if !bindJSON(c, &req) {
		return
	}

	goal, err := h.goals.SetGoal(c.Request.Context(), cqrs.SetGoalCommand{
		ChildID:             c.Param("childId"),
		RequestingUserID:    userID,
		TargetAmount:        req.TargetAmount,
		TargetDate:          mustDate(req.TargetDate),
		MonthlyContribution: req.MonthlyContribution,
		Description:         req.Description,
	})
	if err != nil {
		middleware.RespondWithDomainError(c, err, "Failed to save goal")
		return
	}

	c.JSON(http.StatusOK, goal)
}

func (h *ChildHandler) GetGoal(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	goal, err := h.queries.GetGoal(c.Request.Context(), cqrs.GetGoalQuery{
		ChildID:          c.Param("childId"),
		RequestingUserID: userID,
	})
	if err != nil {
		middleware.RespondWithDomainError(c, err, "Failed to fetch goal")
		return
	}

	c.JSON(http.StatusOK, goal)
}
