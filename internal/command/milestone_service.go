package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/Beegash/BBWallet/internal/events"
	"github.com/Beegash/BBWallet/internal/models"
	"github.com/Beegash/BBWallet/internal/projection"
	"github.com/Beegash/BBWallet/internal/utils"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Milestones are the savings progress percentages that earn a milestone NFT.
var Milestones = []int64{25, 50, 75, 100}

// MilestoneStore is the part of the blockchain repository the milestone worker needs.
type MilestoneStore interface {
	DeployedNFTContract(ctx context.Context, childID string) (*models.SmartContract, error)
	// CreateNFT returns an error wrapping models.ErrConflict when the child
	// already holds the milestone.
	CreateNFT(ctx context.Context, n *models.NFT, milestone *int64) error
}

// MilestoneService issues pending milestone NFTs when a balance update moves a
// child's progress across a milestone.
type MilestoneService struct {
	store MilestoneStore
	notifier
}

func NewMilestoneService(store MilestoneStore, publisher events.Publisher, logger *zap.Logger) *MilestoneService {
	return &MilestoneService{
		store:    store,
		notifier: notifier{publisher: publisher, logger: logger},
	}
}

// CrossedMilestones returns the milestones reached by moving from previous to current progress.
func CrossedMilestones(previous, current decimal.Decimal) []int64 {
	var crossed []int64
	for _, m := range Milestones {
		mark := decimal.NewFromInt(m)
		if previous.LessThan(mark) && current.GreaterThanOrEqual(mark) {
			crossed = append(crossed, m)
		}
	}
	return crossed
}

// HandleEvent is an events.Handler. Events other than balance.updated are ignored.
func (s *MilestoneService) HandleEvent(ctx context.Context, event events.Event) error {
	if event.Type != events.BalanceUpdated {
		return nil
	}
	payload, err := events.Decode[events.BalanceUpdatedEvent](event)
	if err != nil {
		s.logger.Error("Dropping malformed balance.updated event", zap.String("event_id", event.ID), zap.Error(err))
		return nil
	}

	crossed := CrossedMilestones(
		projection.ProgressPercentage(payload.PreviousBalance, payload.TargetAmount),
		projection.ProgressPercentage(payload.NewBalance, payload.TargetAmount),
	)
	if len(crossed) == 0 {
		return nil
	}

	contract, err := s.store.DeployedNFTContract(ctx, payload.ChildID)
	if errors.Is(err, models.ErrNotFound) {
		s.logger.Info("No deployed nft contract, skipping milestones",
			zap.String("child_id", payload.ChildID),
			zap.Int64s("milestones", crossed))
		return nil
	}
	if err != nil {
		return fmt.Errorf("find nft contract for child %s: %w", payload.ChildID, err)
	}

	for _, m := range crossed {
		if err := s.issue(ctx, contract, payload, m); err != nil {
			return err
		}
	}
	return nil
}

func (s *MilestoneService) issue(ctx context.Context, contract *models.SmartContract, payload events.BalanceUpdatedEvent, milestone int64) error {
	ts := now()
	nft := &models.NFT{
		ID:              utils.GenerateID(utils.PrefixNFT),
		UserID:          contract.UserID,
		ChildID:         payload.ChildID,
		SmartContractID: contract.ID,
		NFTType:         models.NFTMilestone,
		Metadata: map[string]any{
			"milestone":      milestone,
			"balance":        payload.NewBalance.StringFixed(2),
			"target_amount":  payload.TargetAmount.StringFixed(2),
			"transaction_id": payload.TransactionID,
		},
		Status:    models.NFTPending,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	err := s.store.CreateNFT(ctx, nft, &milestone)
	if errors.Is(err, models.ErrConflict) {
		s.logger.Debug("Milestone already issued",
			zap.String("child_id", payload.ChildID),
			zap.Int64("milestone", milestone))
		return nil
	}
	if err != nil {
		return fmt.Errorf("issue milestone %d for child %s: %w", milestone, payload.ChildID, err)
	}

	s.logger.Info("Milestone nft issued",
		zap.String("child_id", payload.ChildID),
		zap.String("nft_id", nft.ID),
		zap.Int64("milestone", milestone))
	s.publish(ctx, events.BlockchainEventsStream, events.MilestoneNFTCreated, nftEvent(nft))
	return nil
}
