package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/Beegash/BBWallet/internal/cqrs"
	"github.com/Beegash/BBWallet/internal/middleware"
	"github.com/Beegash/BBWallet/internal/models"
	"github.com/Beegash/BBWallet/internal/reports"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// TransactionCommander defines the write-side operations used by TransactionHandler.
type TransactionCommander interface {
	CreateTransaction(context.Context, cqrs.CreateTransactionCommand) (*models.TransactionView, error)
	UpdateTransactionStatus(context.Context, cqrs.UpdateTransactionStatusCommand) (*models.TransactionView, error)
}

// TransactionQuerier defines the read-side operations used by TransactionHandler.
type TransactionQuerier interface {
	GetTransaction(context.Context, cqrs.GetTransactionQuery) (*models.TransactionView, error)
	ListTransactions(context.Context, cqrs.ListTransactionsQuery) ([]models.TransactionView, error)
	Statement(context.Context, cqrs.StatementQuery) (*reports.Statement, error)
}

type TransactionHandler struct {
	commands TransactionCommander
	queries  TransactionQuerier
}

type CreateTransactionRequest struct {
	ChildID         string          `json:"childId" validate:"required"`
	InvestmentID    string          `json:"investmentId"`
	Type            string          `json:"transactionType" validate:"required,oneof=investment withdrawal interest fee refund"`
	Amount          decimal.Decimal `json:"amount" validate:"required,gt=0"`
	Token           string          `json:"token" validate:"omitempty,oneof=USDC USDT ETH BTC"`
	Status          string          `json:"status" validate:"omitempty,oneof=pending completed"`
	TransactionHash string          `json:"transactionHash" validate:"omitempty,max=66"`
	Description     string          `json:"description"`
}

type UpdateTransactionStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending completed failed cancelled"`
}

type ListTransactionsResponse struct {
	Transactions []models.TransactionView `json:"transactions"`
}

func NewTransactionHandler(commands TransactionCommander, queries TransactionQuerier) *TransactionHandler {
	return &TransactionHandler{commands: commands, queries: queries}
}

func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req CreateTransactionRequest
	if !bindJSON(c, &req) {
		return
	}

	transaction, err := h.commands.CreateTransaction(c.Request.Context(), cqrs.CreateTransactionCommand{
		UserID:          userID,
		ChildID:         req.ChildID,
		InvestmentID:    req.InvestmentID,
		Type:            models.TransactionType(req.Type),
		Amount:          req.Amount,
		Token:           models.Token(req.Token),
		Status:          models.TransactionStatus(req.Status),
		TransactionHash: req.TransactionHash,
		Description:     req.Description,
	})
	if err != nil {
		middleware.RespondWithDomainError(c, err, "Failed to create transaction")
		return
	}

	c.JSON(http.StatusCreated, transaction)
}

func (h *TransactionHandler) UpdateTransactionStatus(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req UpdateTransactionStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	transaction, err := h.commands.UpdateTransactionStatus(c.Request.Context(), cqrs.UpdateTransactionStatusCommand{
		TransactionID:    c.Param("transactionId"),
		RequestingUserID: userID,
		Status:           models.TransactionStatus(req.Status),
	})
	if err != nil {
		middleware.RespondWithDomainError(c, err, "Failed to update transaction")
		return
	}

	c.JSON(http.StatusOK, transaction)
}

// ListTransactions supports ?childId= and ?status= filters.
func (h *TransactionHandler) ListTransactions(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	status := models.TransactionStatus(c.Query("status"))
	if status != "" && !status.Valid() {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid status filter")
		return
	}

	transactions, err := h.queries.ListTransactions(c.Request.Context(), cqrs.ListTransactionsQuery{
		UserID:  userID,
		ChildID: c.Query("childId"),
		Status:  status,
	})
	if err != nil {
		middleware.RespondWithDomainError(c, err, "Failed to list transactions")
		return
	}

	c.JSON(http.StatusOK, ListTransactionsResponse{Transactions: transactions})
}

func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	transaction, err := h.queries.GetTransaction(c.Request.Context(), cqrs.GetTransactionQuery{
		TransactionID:    c.Param("transactionId"),
		RequestingUserID: userID,
	})
	if err != nil {
		middleware.RespondWithDomainError(c, err, "Failed to fetch transaction")
		return
	}

	c.JSON(http.StatusOK, transaction)
}

// Statement renders the caller's transactions for ?year= (default: current year) as a PDF.
func (h *TransactionHandler) Statement(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	year := time.Now().UTC().Year()
	if raw := c.Query("year"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1900 || parsed > 9999 {
			middleware.RespondWithError(c, http.StatusBadRequest, "year must be a four digit year")
			return
		}
		year = parsed
	}

	statement, err := h.queries.Statement(c.Request.Context(), cqrs.StatementQuery{UserID: userID, Year: year})
	if err != nil {
		middleware.RespondWithDomainError(c, err, "Failed to build statement")
		return
	}
	pdf, err := reports.RenderPDF(statement)
	if err != nil {
		middleware.RespondWithDomainError(c, err, "Failed to build statement")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, statement.Filename()))
	c.Data(http.StatusOK, "application/pdf", pdf)
}
