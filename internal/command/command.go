package command

import (
	"context"
	"time"

	"github.com/Beegash/BBWallet/internal/events"
	"github.com/Beegash/BBWallet/internal/models"
	"go.uber.org/zap"
)

// notifier publishes domain events; failures are logged and never fail the write.
type notifier struct {
	publisher events.Publisher
	logger    *zap.Logger
}

func (n notifier) publish(ctx context.Context, stream, eventType string, data any) {
	if err := n.publisher.Publish(ctx, stream, eventType, data); err != nil {
		n.logger.Error("Failed to publish event",
			zap.String("stream", stream),
			zap.String("event_type", eventType),
			zap.Error(err))
	}
}

// childViews is the cached read side of children.
type childViews interface {
	GetByID(ctx context.Context, childID string) (*models.ChildView, error)
	CacheChildView(ctx context.Context, view *models.ChildView)
	InvalidateChildView(ctx context.Context, childID string)
}

// childStore is the Postgres write side of children.
type childStore interface {
	Create(ctx context.Context, child *models.Child) error
	GetByID(ctx context.Context, childID string) (*models.Child, error)
	Update(ctx context.Context, child *models.Child) error
	Deactivate(ctx context.Context, child *models.Child) error
}

type transactionViews interface {
	GetByID(ctx context.Context, id string) (*models.TransactionView, error)
	CacheTransactionView(ctx context.Context, view *models.TransactionView)
}

func now() time.Time {
	return time.Now().UTC()
}

// ownedChild loads a child and checks it belongs to userID.
func ownedChild(ctx context.Context, readRepo childViews, childID, userID string) (*models.ChildView, error) {
	child, err := readRepo.GetByID(ctx, childID)
	if err != nil {
		return nil, err
	}
	if child.UserID != userID {
		return nil, models.ErrForbidden
	}
	return child, nil
}
