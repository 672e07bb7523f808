package command

import (
	"context"
	"fmt"

	"github.com/Beegash/BBWallet/internal/cqrs"
	"github.com/Beegash/BBWallet/internal/events"
	"github.com/Beegash/BBWallet/internal/models"
	"github.com/Beegash/BBWallet/internal/repository"
	"github.com/Beegash/BBWallet/internal/utils"
	"go.uber.org/zap"
)

type GoalCommandService struct {
	repo      *repository.GoalRepository
	childRepo *repository.ChildReadRepository
	notifier
}

func NewGoalCommandService(
	repo *repository.GoalRepository,
	childRepo *repository.ChildReadRepository,
	publisher events.Publisher,
	logger *zap.Logger,
) *GoalCommandService {
	return &GoalCommandService{
		repo:      repo,
		childRepo: childRepo,
		notifier:  notifier{publisher: publisher, logger: logger},
	}
}

// SetGoal creates or replaces the child's savings goal.
func (s *GoalCommandService) SetGoal(ctx context.Context, cmd cqrs.SetGoalCommand) (*models.InvestmentGoal, error) {
	if !cmd.TargetAmount.IsPositive() {
		return nil, models.ErrInvalidAmount
	}
	if cmd.MonthlyContribution.IsNegative() {
		return nil, fmt.Errorf("%w: monthlyContribution must not be negative", models.ErrValidation)
	}
	if !models.IsMoney(cmd.TargetAmount) || !models.IsMoney(cmd.MonthlyContribution) {
		return nil, models.ErrAmountPrecision
	}
	if _, err := ownedChild(ctx, s.childRepo, cmd.ChildID, cmd.RequestingUserID); err != nil {
		return nil, err
	}

	ts := now()
	goal, err := s.repo.Upsert(ctx, &models.InvestmentGoal{
		ID:                  utils.GenerateID(utils.PrefixGoal),
		ChildID:             cmd.ChildID,
		TargetAmount:        cmd.TargetAmount,
		TargetDate:          utils.DateOnly(cmd.TargetDate),
		MonthlyContribution: cmd.MonthlyContribution,
		Description:         cmd.Description,
		IsActive:            true,
		CreatedAt:           ts,
		UpdatedAt:           ts,
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.ChildEventsStream, events.GoalSet, events.GoalSetEvent{
		GoalID:       goal.ID,
		ChildID:      goal.ChildID,
		TargetAmount: goal.TargetAmount,
	})
	return goal, nil
}
