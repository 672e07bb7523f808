package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/Beegash/BBWallet/internal/cqrs"
	"github.com/Beegash/BBWallet/internal/events"
	"github.com/Beegash/BBWallet/internal/models"
	"github.com/Beegash/BBWallet/internal/repository"
	"github.com/Beegash/BBWallet/internal/utils"
	"go.uber.org/zap"
)

// UserCommandService writes user state to PostgreSQL and keeps the Redis
// read model up to date.
type UserCommandService struct {
	writeRepo *repository.UserWriteRepository
	readRepo  *repository.UserReadRepository
	notifier
}

func NewUserCommandService(
	writeRepo *repository.UserWriteRepository,
	readRepo *repository.UserReadRepository,
	publisher events.Publisher,
	logger *zap.Logger,
) *UserCommandService {
	return &UserCommandService{
		writeRepo: writeRepo,
		readRepo:  readRepo,
		notifier:  notifier{publisher: publisher, logger: logger},
	}
}

func (s *UserCommandService) CreateUser(ctx context.Context, cmd cqrs.CreateUserCommand) (*models.UserView, error) {
	passwordHash, err := utils.HashPassword(cmd.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	ts := now()
	user := &models.User{
		ID:           utils.GenerateID(utils.PrefixUser),
		Username:     cmd.Username,
		Email:        strings.ToLower(cmd.Email),
		PasswordHash: passwordHash,
		FirstName:    cmd.FirstName,
		LastName:     cmd.LastName,
		CreatedAt:    ts,
		UpdatedAt:    ts,
	}
	if err := s.writeRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	view := repository.UserToView(user)
	s.readRepo.CacheUserView(ctx, view)
	s.publish(ctx, events.UserEventsStream, events.UserCreated, events.UserCreatedEvent{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.FullName(),
	})
	return view, nil
}

func (s *UserCommandService) UpdateUser(ctx context.Context, cmd cqrs.UpdateUserCommand) (*models.UserView, error) {
	if cmd.UserID != cmd.RequestingUserID {
		return nil, models.ErrForbidden
	}
	user, err := s.writeRepo.GetByID(ctx, cmd.UserID)
	if err != nil {
		return nil, err
	}
	if cmd.Email != nil {
		user.Email = strings.ToLower(*cmd.Email)
	}
	if cmd.FirstName != nil {
		user.FirstName = *cmd.FirstName
	}
	if cmd.LastName != nil {
		user.LastName = *cmd.LastName
	}
	user.UpdatedAt = now()
	if err := s.writeRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	view := repository.UserToView(user)
	s.readRepo.CacheUserView(ctx, view)
	s.publish(ctx, events.UserEventsStream, events.UserUpdated, events.UserUpdatedEvent{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.FullName(),
	})
	return view, nil
}

// ConnectWallet replaces any active wallet connection with the given one.
func (s *UserCommandService) ConnectWallet(ctx context.Context, cmd cqrs.ConnectWalletCommand) (*models.UserView, error) {
	if cmd.UserID != cmd.RequestingUserID {
		return nil, models.ErrForbidden
	}
	user, err := s.writeRepo.GetByID(ctx, cmd.UserID)
	if err != nil {
		return nil, err
	}
	ts := now()
	conn := &models.WalletConnection{
		ID:            utils.GenerateID(utils.PrefixWallet),
		UserID:        user.ID,
		WalletType:    cmd.WalletType,
		WalletAddress: cmd.WalletAddress,
		ConnectedAt:   ts,
		IsActive:      true,
	}
	user.WalletAddress = cmd.WalletAddress
	user.WalletType = cmd.WalletType
	user.WalletConnected = true
	user.UpdatedAt = ts
	if err := s.writeRepo.ConnectWallet(ctx, user, conn); err != nil {
		return nil, err
	}
	view := repository.UserToView(user)
	s.readRepo.CacheUserView(ctx, view)
	s.publish(ctx, events.UserEventsStream, events.WalletConnected, events.WalletEvent{
		UserID:        user.ID,
		WalletAddress: conn.WalletAddress,
		WalletType:    conn.WalletType,
	})
	return view, nil
}

func (s *UserCommandService) DisconnectWallet(ctx context.Context, cmd cqrs.DisconnectWalletCommand) (*models.UserView, error) {
	if cmd.UserID != cmd.RequestingUserID {
		return nil, models.ErrForbidden
	}
	user, err := s.writeRepo.GetByID(ctx, cmd.UserID)
	if err != nil {
		return nil, err
	}
	if !user.WalletConnected {
		return nil, models.ErrNoActiveWallet
	}
	previous := events.WalletEvent{UserID: user.ID, WalletAddress: user.WalletAddress, WalletType: user.WalletType}
	user.WalletAddress = ""
	user.WalletType = ""
	user.WalletConnected = false
	user.UpdatedAt = now()
	if err := s.writeRepo.DisconnectWallet(ctx, user); err != nil {
		return nil, err
	}
	view := repository.UserToView(user)
	s.readRepo.CacheUserView(ctx, view)
	s.publish(ctx, events.UserEventsStream, events.WalletDisconnected, previous)
	return view, nil
}
