package command

import (
	"context"
	"fmt"

	"github.com/Beegash/BBWallet/internal/cqrs"
	"github.com/Beegash/BBWallet/internal/events"
	"github.com/Beegash/BBWallet/internal/ledger"
	"github.com/Beegash/BBWallet/internal/models"
	"github.com/Beegash/BBWallet/internal/repository"
	"github.com/Beegash/BBWallet/internal/utils"
	"go.uber.org/zap"
)

// TransactionCommandService records transactions through the ledger, then
// refreshes the read models and publishes what happened.
type TransactionCommandService struct {
	ledger    *ledger.Ledger
	readRepo  transactionViews
	childRepo childViews
	notifier
}

func NewTransactionCommandService(
	l *ledger.Ledger,
	readRepo transactionViews,
	childRepo childViews,
	publisher events.Publisher,
	logger *zap.Logger,
) *TransactionCommandService {
	return &TransactionCommandService{
		ledger:    l,
		readRepo:  readRepo,
		childRepo: childRepo,
		notifier:  notifier{publisher: publisher, logger: logger},
	}
}

func (s *TransactionCommandService) CreateTransaction(ctx context.Context, cmd cqrs.CreateTransactionCommand) (*models.TransactionView, error) {
	status := cmd.Status
	if status == "" {
		status = models.TxPending
	}
	if status != models.TxPending && status != models.TxCompleted {
		return nil, fmt.Errorf("%w: new transactions must be pending or completed", models.ErrValidation)
	}
	token := cmd.Token
	if token == "" {
		token = models.TokenUSDC
	}
	if _, err := ownedChild(ctx, s.childRepo, cmd.ChildID, cmd.UserID); err != nil {
		return nil, err
	}

	result, err := s.ledger.RecordTransaction(ctx, &models.Transaction{
		ID:              utils.GenerateID(utils.PrefixTransaction),
		UserID:          cmd.UserID,
		ChildID:         cmd.ChildID,
		InvestmentID:    cmd.InvestmentID,
		Type:            cmd.Type,
		Amount:          cmd.Amount,
		Token:           token,
		Status:          status,
		TransactionHash: cmd.TransactionHash,
		Description:     cmd.Description,
	})
	if err != nil {
		return nil, err
	}
	return s.afterWrite(ctx, result), nil
}

// UpdateTransactionStatus moves an existing transaction to a new status. Only
// the first move into completed changes the balance.
func (s *TransactionCommandService) UpdateTransactionStatus(ctx context.Context, cmd cqrs.UpdateTransactionStatusCommand) (*models.TransactionView, error) {
	if !cmd.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown transaction status %q", models.ErrValidation, cmd.Status)
	}
	current, err := s.readRepo.GetByID(ctx, cmd.TransactionID)
	if err != nil {
		return nil, err
	}
	if current.UserID != cmd.RequestingUserID {
		return nil, models.ErrForbidden
	}

	result, err := s.ledger.RecordTransaction(ctx, &models.Transaction{
		ID:           current.ID,
		UserID:       current.UserID,
		ChildID:      current.ChildID,
		InvestmentID: current.InvestmentID,
		Type:         current.Type,
		Amount:       current.Amount,
		Status:       cmd.Status,
	})
	if err != nil {
		return nil, err
	}
	return s.afterWrite(ctx, result), nil
}

func (s *TransactionCommandService) afterWrite(ctx context.Context, result *ledger.Result) *models.TransactionView {
	t := result.Transaction
	child := result.Child
	view := repository.TransactionToView(t, child.Name)
	s.readRepo.CacheTransactionView(ctx, view)

	switch {
	case result.Created:
		s.publish(ctx, events.TransactionEventsStream, events.TransactionCreated, events.TransactionCreatedEvent{
			TransactionID: t.ID,
			ChildID:       t.ChildID,
			UserID:        t.UserID,
			Amount:        t.Amount,
			Type:          string(t.Type),
			Status:        string(t.Status),
			Token:         string(t.Token),
		})
	case result.StatusChanged():
		s.publish(ctx, events.TransactionEventsStream, events.TransactionStatus, events.TransactionStatusChangedEvent{
			TransactionID:  t.ID,
			ChildID:        t.ChildID,
			UserID:         t.UserID,
			PreviousStatus: string(result.PreviousStatus),
			Status:         string(t.Status),
		})
	}

	if result.Applied {
		s.childRepo.InvalidateChildView(ctx, child.ID)
		s.publish(ctx, events.TransactionEventsStream, events.BalanceUpdated, events.BalanceUpdatedEvent{
			ChildID:         child.ID,
			UserID:          child.UserID,
			TransactionID:   t.ID,
			PreviousBalance: child.CurrentBalance.Sub(result.Delta),
			NewBalance:      child.CurrentBalance,
			Change:          result.Delta,
			TargetAmount:    child.TargetAmount,
		})
	}
	return view
}
