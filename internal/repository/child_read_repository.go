package repository

import (
	"context"
	"time"

	"github.com/Beegash/BBWallet/internal/models"
	sharedredis "github.com/Beegash/BBWallet/internal/redis"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const childViewKeyPrefix = "child:view:"

// childCacheEntry is the Redis representation of a child. Unlike
// models.ChildView's JSON form it keeps UserID for ownership checks.
type childCacheEntry struct {
	models.ChildView
	OwnerID string `json:"ownerId"`
}

// ChildReadRepository treats Redis as the primary read store and falls back
// to Postgres, warming the cache on every cold read.
type ChildReadRepository struct {
	writeRepo *ChildWriteRepository
	cache     *sharedredis.ViewCache[childCacheEntry]
}

func NewChildReadRepository(writeRepo *ChildWriteRepository, redisClient *goredis.Client, ttl time.Duration, logger *zap.Logger) *ChildReadRepository {
	return &ChildReadRepository{
		writeRepo: writeRepo,
		cache:     sharedredis.NewViewCache[childCacheEntry](redisClient, ttl, logger),
	}
}

// ChildToView converts the Postgres write model to the read view model.
func ChildToView(c *models.Child) *models.ChildView {
	return &models.ChildView{
		ID:             c.ID,
		UserID:         c.UserID,
		Name:           c.Name,
		DateOfBirth:    c.DateOfBirth,
		Gender:         c.Gender,
		TargetAmount:   c.TargetAmount,
		CurrentBalance: c.CurrentBalance,
		UnlockAge:      c.UnlockAge,
		ColorTheme:     c.ColorTheme,
		IsActive:       c.IsActive,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

// GetByID returns a ChildView, trying Redis first then Postgres.
func (r *ChildReadRepository) GetByID(ctx context.Context, childID string) (*models.ChildView, error) {
	if entry, ok := r.cache.Get(ctx, childViewKeyPrefix+childID); ok {
		view := entry.ChildView
		view.UserID = entry.OwnerID
		return &view, nil
	}

	child, err := r.writeRepo.GetByID(ctx, childID)
	if err != nil {
		return nil, err
	}
	view := ChildToView(child)
	r.CacheChildView(ctx, view)
	return view, nil
}

// ListByUserID always reads Postgres so balances in list views are current.
func (r *ChildReadRepository) ListByUserID(ctx context.Context, userID string, includeInactive bool) ([]models.ChildView, error) {
	children, err := r.writeRepo.ListByUserID(ctx, userID, includeInactive)
	if err != nil {
		return nil, err
	}
	views := make([]models.ChildView, len(children))
	for i := range children {
		views[i] = *ChildToView(&children[i])
	}
	return views, nil
}

func (r *ChildReadRepository) CacheChildView(ctx context.Context, view *models.ChildView) {
	r.cache.Set(ctx, childViewKeyPrefix+view.ID, &childCacheEntry{ChildView: *view, OwnerID: view.UserID})
}

// InvalidateChildView drops the cached view. Balance changes go through here
// instead of CacheChildView.
func (r *ChildReadRepository) InvalidateChildView(ctx context.Context, childID string) {
	r.cache.Delete(ctx, childViewKeyPrefix+childID)
}
