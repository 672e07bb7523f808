package repository

import (
	"context"
	"time"

	"github.com/Beegash/BBWallet/internal/models"
	sharedredis "github.com/Beegash/BBWallet/internal/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const userViewKeyPrefix = "user:view:"

// UserReadRepository handles all read operations for users.
// It uses Redis as the primary read store, falling back to PostgreSQL on a miss.
// Cached views never carry TotalSavings; it is derived on every read.
type UserReadRepository struct {
	writeRepo *UserWriteRepository
	cache     *sharedredis.ViewCache[models.UserView]
}

func NewUserReadRepository(writeRepo *UserWriteRepository, redisClient *goredis.Client, ttl time.Duration, logger *zap.Logger) *UserReadRepository {
	return &UserReadRepository{
		writeRepo: writeRepo,
		cache:     sharedredis.NewViewCache[models.UserView](redisClient, ttl, logger),
	}
}

// UserToView converts the write model to the read model, dropping the password hash.
func UserToView(u *models.User) *models.UserView {
	return &models.UserView{
		ID:              u.ID,
		Username:        u.Username,
		Email:           u.Email,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		WalletAddress:   u.WalletAddress,
		WalletConnected: u.WalletConnected,
		WalletType:      u.WalletType,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
}

func (r *UserReadRepository) GetByID(ctx context.Context, id string) (*models.UserView, error) {
	if view, ok := r.cache.Get(ctx, userViewKeyPrefix+id); ok {
		return view, nil
	}

	user, err := r.writeRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	view := UserToView(user)
	r.CacheUserView(ctx, view)
	return view, nil
}

func (r *UserReadRepository) CacheUserView(ctx context.Context, view *models.UserView) {
	cached := *view
	cached.TotalSavings = decimal.Zero
	r.cache.Set(ctx, userViewKeyPrefix+view.ID, &cached)
}

func (r *UserReadRepository) InvalidateUserView(ctx context.Context, id string) {
	r.cache.Delete(ctx, userViewKeyPrefix+id)
}
