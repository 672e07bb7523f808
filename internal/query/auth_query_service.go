package query

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Beegash/BBWallet/internal/cqrs"
	"github.com/Beegash/BBWallet/internal/middleware"
	"github.com/Beegash/BBWallet/internal/models"
	"github.com/Beegash/BBWallet/internal/repository"
	"github.com/Beegash/BBWallet/internal/utils"
)

// AuthQueryService handles login and token refresh. There's no CommandService
// for auth because these operations don't mutate application state.
type AuthQueryService struct {
	userRepo *repository.UserWriteRepository
	secret   []byte
	ttl      time.Duration
}

func NewAuthQueryService(userRepo *repository.UserWriteRepository, secret []byte, ttl time.Duration) *AuthQueryService {
	return &AuthQueryService{userRepo: userRepo, secret: secret, ttl: ttl}
}

func (s *AuthQueryService) Login(ctx context.Context, cmd cqrs.LoginCommand) (string, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(cmd.Email))
	if errors.Is(err, models.ErrNotFound) {
		return "", models.ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}
	if !utils.CheckPassword(cmd.Password, user.PasswordHash) {
		return "", models.ErrInvalidCredentials
	}
	return middleware.IssueToken(s.secret, user.ID, user.Email, s.ttl, time.Now())
}

// RefreshToken exchanges a valid token for a fresh one, provided its user still exists.
func (s *AuthQueryService) RefreshToken(ctx context.Context, cmd cqrs.RefreshTokenCommand) (string, error) {
	claims, err := middleware.ParseToken(s.secret, cmd.Token)
	if err != nil {
		return "", models.ErrInvalidCredentials
	}
	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if errors.Is(err, models.ErrNotFound) {
		return "", models.ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}
	return middleware.IssueToken(s.secret, user.ID, user.Email, s.ttl, time.Now())
}
