package handler

import (
	"context"
	"net/http"

	"github.com/Beegash/BBWallet/internal/cqrs"
	"github.com/Beegash/BBWallet/internal/middleware"
	"github.com/Beegash/BBWallet/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type InvestmentCommander interface {
	CreateInvestment(context.Context, cqrs.CreateInvestmentCommand) (*models.Investment, error)
	UpdateInvestmentStatus(context.Context, cqrs.UpdateInvestmentStatusCommand) (*models.Investment, error)
}

type InvestmentQuerier interface {
	GetInvestment(context.Context, cqrs.GetInvestmentQuery) (*models.InvestmentView, error)
	ListInvestments(context.Context, cqrs.ListInvestmentsQuery) ([]models.InvestmentView, error)
}

type InvestmentHandler struct {
	commands InvestmentCommander
	queries  InvestmentQuerier
}

type CreateInvestmentRequest struct {
	ChildID   string          `json:"childId" validate:"required"`
	Type      string          `json:"investmentType" validate:"required,oneof=one_time recurring"`
	Amount    decimal.Decimal `json:"amount" validate:"required,gt=0"`
	Frequency string          `json:"frequency" validate:"required_if=Type recurring,omitempty,oneof=weekly monthly quarterly yearly"`
	StartDate string          `json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate   *string         `json:"endDate" validate:"omitempty,datetime=2006-01-02"`
}

type UpdateInvestmentStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active paused completed cancelled"`
}

type ListInvestmentsResponse struct {
	Investments []models.InvestmentView `json:"investments"`
}

func NewInvestmentHandler(commands InvestmentCommander, queries InvestmentQuerier) *InvestmentHandler {
	return &InvestmentHandler{commands: commands, queries: queries}
}

func (h *InvestmentHandler) CreateInvestment(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req CreateInvestmentRequest
	if !bindJSON(c, &req) {
		return
	}

	investment, err := h.commands.CreateInvestment(c.Request.Context(), cqrs.CreateInvestmentCommand{
		UserID:    userID,
		ChildID:   req.ChildID,
		Type:      models.InvestmentType(req.Type),
		Amount:    req.Amount,
		Frequency: models.Frequency(req.Frequency),
		StartDate: mustDate(req.StartDate),
		EndDate:   optionalDate(req.EndDate),
	})
	if err != nil {
		middleware.RespondWithDomainError(c, err, "Failed to create investment")
		return
	}

	c.JSON(http.StatusCreated, investment)
}

// ListInvestments supports ?childId= and ?status= filters.
func (h *InvestmentHandler) ListInvestments(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	status := models.InvestmentStatus(c.Query("status"))
	if status != "" && !status.Valid() {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid status filter")
		return
	}

	investments, err := h.queries.ListInvestments(c.Request.Context(), cqrs.ListInvestmentsQuery{
		UserID:  userID,
		ChildID: c.Query("childId"),
		Status:  status,
	})
	if err != nil {
		middleware.RespondWithDomainError(c, err, "Failed to list investments")
		return
	}

	c.JSON(http.StatusOK, ListInvestmentsResponse{Investments: investments})
}

func (h *InvestmentHandler) GetInvestment(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	investment, err := h.queries.GetInvestment(c.Request.Context(), cqrs.GetInvestmentQuery{
		InvestmentID:     c.Param("investmentId"),
		RequestingUserID: userID,
	})
	if err != nil {
		middleware.RespondWithDomainError(c, err, "Failed to fetch investment")
		return
	}

	c.JSON(http.StatusOK, investment)
}

func (h *InvestmentHandler) UpdateInvestmentStatus(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req UpdateInvestmentStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	investment, err := h.commands.UpdateInvestmentStatus(c.Request.Context(), cqrs.UpdateInvestmentStatusCommand{
		InvestmentID:     c.Param("investmentId"),
		RequestingUserID: userID,
		Status:           models.InvestmentStatus(req.Status),
	})
	if err != nil {
		middleware.RespondWithDomainError(c, err, "Failed to update investment")
		return
	}

	c.JSON(http.StatusOK, investment)
}
