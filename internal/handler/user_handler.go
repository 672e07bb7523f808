package handler

import (
	"context"
	"net/http"

	"github.com/Beegash/BBWallet/internal/cqrs"
	"github.com/Beegash/BBWallet/internal/middleware"
	"github.com/Beegash/BBWallet/internal/models"
	"github.com/gin-gonic/gin"
)

// UserCommander defines the write-side operations used by UserHandler.
type UserCommander interface {
	CreateUser(context.Context, cqrs.CreateUserCommand) (*models.UserView, error)
	UpdateUser(context.Context, cqrs.UpdateUserCommand) (*models.UserView, error)
	ConnectWallet(context.Context, cqrs.ConnectWalletCommand) (*models.UserView, error)
	DisconnectWallet(context.Context, cqrs.DisconnectWalletCommand) (*models.UserView, error)
}

// UserQuerier defines the read-side operations used by UserHandler.
type UserQuerier interface {
	GetUser(context.Context, cqrs.GetUserQuery) (*models.UserView, error)
	Stats(context.Context, cqrs.StatsQuery) (*models.Stats, error)
}

// UserHandler routes requests to the command or query service as appropriate.
type UserHandler struct {
	commands UserCommander
	queries  UserQuerier
}

type CreateUserRequest struct {
	Username  string `json:"username" validate:"required,min=3,max=150"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"firstName" validate:"max=150"`
	LastName  string `json:"lastName" validate:"max=150"`
}

type UpdateUserRequest struct {
	Email     *string `json:"email" validate:"omitempty,email"`
	FirstName *string `json:"firstName" validate:"omitempty,max=150"`
	LastName  *string `json:"lastName" validate:"omitempty,max=150"`
}

type ConnectWalletRequest struct {
	WalletAddress string `json:"walletAddress" validate:"required,max=42"`
	WalletType    string `json:"walletType" validate:"required,max=50"`
}

func NewUserHandler(commands UserCommander, queries UserQuerier) *UserHandler {
	return &UserHandler{commands: commands, queries: queries}
}

func (h *UserHandler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.commands.CreateUser(c.Request.Context(), cqrs.CreateUserCommand{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		middleware.RespondWithDomainError(c, err, "Failed to create user")
		return
	}

	c.JSON(http.StatusCreated, user)
}

func (h *UserHandler) GetUser(c *gin.Context) {
	requestingUserID, _ := middleware.GetUserID(c)

	view, err := h.queries.GetUser(c.Request.Context(), cqrs.GetUserQuery{
		UserID:           c.Param("userId"),
		RequestingUserID: requestingUserID,
	})
	if err != nil {
		middleware.RespondWithDomainError(c, err, "Failed to fetch user")
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *UserHandler) UpdateUser(c *gin.Context) {
	requestingUserID, _ := middleware.GetUserID(c)

	var req UpdateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	view, err := h.commands.UpdateUser(c.Request.Context(), cqrs.UpdateUserCommand{
		UserID:           c.Param("userId"),
		RequestingUserID: requestingUserID,
		Email:            req.Email,
		FirstName:        req.FirstName,
		LastName:         req.LastName,
	})
	if err != nil {
		middleware.RespondWithDomainError(c, err, "Failed to update user")
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *UserHandler) ConnectWallet(c *gin.Context) {
	requestingUserID, _ := middleware.GetUserID(c)

	var req ConnectWalletRequest
	if !bindJSON(c, &req) {
		return
	}

	view, err := h.commands.ConnectWallet(c.Request.Context(), cqrs.ConnectWalletCommand{
		UserID:           c.Param("userId"),
		RequestingUserID: requestingUserID,
		WalletAddress:    req.WalletAddress,
		WalletType:       req.WalletType,
	})
	if err != nil {
		middleware.RespondWithDomainError(c, err, "Failed to connect wallet")
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *UserHandler) DisconnectWallet(c *gin.Context) {
	requestingUserID, _ := middleware.GetUserID(c)

	view, err := h.commands.DisconnectWallet(c.Request.Context(), cqrs.DisconnectWalletCommand{
		UserID:           c.Param("userId"),
		RequestingUserID: requestingUserID,
	})
	if err != nil {
		middleware.RespondWithDomainError(c, err, "Failed to disconnect wallet")
		return
	}

	c.JSON(http.StatusOK, view)
}

// Stats returns the caller's savings aggregates, computed on demand.
func (h *UserHandler) Stats(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	stats, err := h.queries.Stats(c.Request.Context(), cqrs.StatsQuery{UserID: userID})
	if err != nil {
		middleware.RespondWithDomainError(c, err, "Failed to compute statistics")
		return
	}

	c.JSON(http.StatusOK, stats)
}
