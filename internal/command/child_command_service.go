package command

import (
	"context"
	"fmt"

	"github.com/Beegash/BBWallet/internal/cqrs"
	"github.com/Beegash/BBWallet/internal/events"
	"github.com/Beegash/BBWallet/internal/models"
	"github.com/Beegash/BBWallet/internal/repository"
	"github.com/Beegash/BBWallet/internal/utils"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	DefaultUnlockAge  = 18
	DefaultColorTheme = "#3B82F6"
)

// ChildCommandService writes child accounts and keeps the read model in sync.
// It never writes CurrentBalance; that belongs to the ledger.
type ChildCommandService struct {
	writeRepo childStore
	readRepo  childViews
	notifier
}

func NewChildCommandService(
	writeRepo childStore,
	readRepo childViews,
	publisher events.Publisher,
	logger *zap.Logger,
) *ChildCommandService {
	return &ChildCommandService{
		writeRepo: writeRepo,
		readRepo:  readRepo,
		notifier:  notifier{publisher: publisher, logger: logger},
	}
}

func (s *ChildCommandService) CreateChild(ctx context.Context, cmd cqrs.CreateChildCommand) (*models.ChildView, error) {
	if err := validateTarget(cmd.TargetAmount); err != nil {
		return nil, err
	}
	unlockAge := cmd.UnlockAge
	if unlockAge == 0 {
		unlockAge = DefaultUnlockAge
	}
	colorTheme := cmd.ColorTheme
	if colorTheme == "" {
		colorTheme = DefaultColorTheme
	}
	ts := now()
	child := &models.Child{
		ID:             utils.GenerateID(utils.PrefixChild),
		UserID:         cmd.UserID,
		Name:           cmd.Name,
		DateOfBirth:    utils.DateOnly(cmd.DateOfBirth),
		Gender:         cmd.Gender,
		TargetAmount:   cmd.TargetAmount,
		CurrentBalance: decimal.Zero,
		UnlockAge:      unlockAge,
		ColorTheme:     colorTheme,
		IsActive:       true,
		CreatedAt:      ts,
		UpdatedAt:      ts,
	}
	if err := s.writeRepo.Create(ctx, child); err != nil {
		return nil, err
	}
	view := repository.ChildToView(child)
	s.readRepo.CacheChildView(ctx, view)
	s.publish(ctx, events.ChildEventsStream, events.ChildCreated, childEvent(child))
	return view, nil
}

func (s *ChildCommandService) UpdateChild(ctx context.Context, cmd cqrs.UpdateChildCommand) (*models.ChildView, error) {
	if cmd.TargetAmount != nil {
		if err := validateTarget(*cmd.TargetAmount); err != nil {
			return nil, err
		}
	}
	child, err := s.ownedWriteModel(ctx, cmd.ChildID, cmd.RequestingUserID)
	if err != nil {
		return nil, err
	}
	if cmd.Name != nil {
		child.Name = *cmd.Name
	}
	if cmd.DateOfBirth != nil {
		child.DateOfBirth = utils.DateOnly(*cmd.DateOfBirth)
	}
	if cmd.Gender != nil {
		child.Gender = *cmd.Gender
	}
	if cmd.TargetAmount != nil {
		child.TargetAmount = *cmd.TargetAmount
	}
	if cmd.UnlockAge != nil {
		child.UnlockAge = *cmd.UnlockAge
	}
	if cmd.ColorTheme != nil {
		child.ColorTheme = *cmd.ColorTheme
	}
	child.UpdatedAt = now()
	if err := s.writeRepo.Update(ctx, child); err != nil {
		return nil, err
	}
	// The row may predate a concurrent ledger write; never cache it.
	s.readRepo.InvalidateChildView(ctx, child.ID)
	s.publish(ctx, events.ChildEventsStream, events.ChildUpdated, childEvent(child))
	return repository.ChildToView(child), nil
}

// DeactivateChild hides the child from default listings. Its transactions are kept.
func (s *ChildCommandService) DeactivateChild(ctx context.Context, cmd cqrs.DeactivateChildCommand) error {
	child, err := s.ownedWriteModel(ctx, cmd.ChildID, cmd.RequestingUserID)
	if err != nil {
		return err
	}
	child.IsActive = false
	child.UpdatedAt = now()
	if err := s.writeRepo.Deactivate(ctx, child); err != nil {
		return err
	}
	s.readRepo.InvalidateChildView(ctx, child.ID)
	s.publish(ctx, events.ChildEventsStream, events.ChildDeactivated, childEvent(child))
	return nil
}

// ownedWriteModel reads Postgres directly so updates never start from a stale cached balance.
func (s *ChildCommandService) ownedWriteModel(ctx context.Context, childID, userID string) (*models.Child, error) {
	child, err := s.writeRepo.GetByID(ctx, childID)
	if err != nil {
		return nil, err
	}
	if child.UserID != userID {
		return nil, models.ErrForbidden
	}
	return child, nil
}

func validateTarget(target decimal.Decimal) error {
	if target.IsNegative() {
		return fmt.Errorf("%w: targetAmount must not be negative", models.ErrValidation)
	}
	if !models.IsMoney(target) {
		return models.ErrAmountPrecision
	}
	return nil
}

func childEvent(c *models.Child) events.ChildEvent {
	return events.ChildEvent{
		ChildID:      c.ID,
		UserID:       c.UserID,
		Name:         c.Name,
		TargetAmount: c.TargetAmount,
	}
}
