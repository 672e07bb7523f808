package command

import (
	"context"
	"fmt"

	"github.com/Beegash/BBWallet/internal/cqrs"
	"github.com/Beegash/BBWallet/internal/events"
	"github.com/Beegash/BBWallet/internal/models"
	"github.com/Beegash/BBWallet/internal/projection"
	"github.com/Beegash/BBWallet/internal/repository"
	"github.com/Beegash/BBWallet/internal/utils"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type InvestmentCommandService struct {
	repo      *repository.InvestmentRepository
	childRepo *repository.ChildReadRepository
	notifier
}

func NewInvestmentCommandService(
	repo *repository.InvestmentRepository,
	childRepo *repository.ChildReadRepository,
	publisher events.Publisher,
	logger *zap.Logger,
) *InvestmentCommandService {
	return &InvestmentCommandService{
		repo:      repo,
		childRepo: childRepo,
		notifier:  notifier{publisher: publisher, logger: logger},
	}
}

func (s *InvestmentCommandService) CreateInvestment(ctx context.Context, cmd cqrs.CreateInvestmentCommand) (*models.Investment, error) {
	if !cmd.Amount.IsPositive() {
		return nil, models.ErrInvalidAmount
	}
	if !models.IsMoney(cmd.Amount) {
		return nil, models.ErrAmountPrecision
	}
	if !cmd.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown investment type %q", models.ErrValidation, cmd.Type)
	}
	switch {
	case cmd.Type == models.InvestmentRecurring && !cmd.Frequency.Valid():
		return nil, fmt.Errorf("%w: frequency is required for recurring investments", models.ErrValidation)
	case cmd.Type == models.InvestmentOneTime && cmd.Frequency != "":
		return nil, fmt.Errorf("%w: frequency is only allowed for recurring investments", models.ErrValidation)
	}
	startDate := utils.DateOnly(cmd.StartDate)
	if cmd.EndDate != nil && cmd.EndDate.Before(startDate) {
		return nil, fmt.Errorf("%w: endDate must not be before startDate", models.ErrValidation)
	}
	if _, err := ownedChild(ctx, s.childRepo, cmd.ChildID, cmd.UserID); err != nil {
		return nil, err
	}

	ts := now()
	inv := &models.Investment{
		ID:               utils.GenerateID(utils.PrefixInvestment),
		UserID:           cmd.UserID,
		ChildID:          cmd.ChildID,
		Type:             cmd.Type,
		Amount:           cmd.Amount,
		Frequency:        cmd.Frequency,
		Status:           models.InvestmentActive,
		StartDate:        startDate,
		EndDate:          cmd.EndDate,
		NextPaymentDate:  projection.NextPaymentDate(cmd.Type, cmd.Frequency, utils.Today()),
		TotalContributed: decimal.Zero,
		CreatedAt:        ts,
		UpdatedAt:        ts,
	}
	if err := s.repo.Create(ctx, inv); err != nil {
		return nil, err
	}
	s.publish(ctx, events.ChildEventsStream, events.InvestmentCreated, investmentEvent(inv))
	return inv, nil
}

// UpdateInvestmentStatus pauses, resumes, completes or cancels an investment.
// Only active recurring investments keep a next payment date.
func (s *InvestmentCommandService) UpdateInvestmentStatus(ctx context.Context, cmd cqrs.UpdateInvestmentStatusCommand) (*models.Investment, error) {
	if !cmd.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown investment status %q", models.ErrValidation, cmd.Status)
	}
	inv, err := s.repo.GetByID(ctx, cmd.InvestmentID)
	if err != nil {
		return nil, err
	}
	if inv.UserID != cmd.RequestingUserID {
		return nil, models.ErrForbidden
	}
	if inv.Status == models.InvestmentCompleted || inv.Status == models.InvestmentCancelled {
		if cmd.Status != inv.Status {
			return nil, models.ErrInvalidStateMove
		}
		return inv, nil
	}
	if inv.Status == cmd.Status {
		return inv, nil
	}

	inv.Status = cmd.Status
	if cmd.Status == models.InvestmentActive {
		inv.NextPaymentDate = projection.NextPaymentDate(inv.Type, inv.Frequency, utils.Today())
	} else {
		inv.NextPaymentDate = nil
	}
	inv.UpdatedAt = now()
	if err := s.repo.UpdateStatus(ctx, inv); err != nil {
		return nil, err
	}
	s.publish(ctx, events.ChildEventsStream, events.InvestmentUpdated, investmentEvent(inv))
	return inv, nil
}

func investmentEvent(inv *models.Investment) events.InvestmentEvent {
	return events.InvestmentEvent{
		InvestmentID: inv.ID,
		ChildID:      inv.ChildID,
		UserID:       inv.UserID,
		Type:         string(inv.Type),
		Status:       string(inv.Status),
		Amount:       inv.Amount,
	}
}
