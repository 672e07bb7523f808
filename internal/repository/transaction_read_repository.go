package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Beegash/BBWallet/internal/models"
	"github.com/Beegash/BBWallet/internal/projection"
	sharedredis "github.com/Beegash/BBWallet/internal/redis"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const transactionViewKeyPrefix = "transaction:view:"

var transactionColumnList = []string{
	"id", "user_id", "child_id", "investment_id", "transaction_type", "amount", "token", "status",
	"transaction_hash", "block_number", "gas_used", "gas_price", "description", "balance_applied_at",
	"created_at", "updated_at",
}

var (
	transactionColumns          = strings.Join(transactionColumnList, ", ")
	qualifiedTransactionColumns = "t." + strings.Join(transactionColumnList, ", t.")
)

func scanTransaction(row rowScanner, extra ...any) (*models.Transaction, error) {
	var t models.Transaction
	var investmentID, hash sql.NullString
	var block, gasUsed, gasPrice sql.NullInt64
	var applied sql.NullTime
	dest := []any{
		&t.ID, &t.UserID, &t.ChildID, &investmentID, &t.Type, &t.Amount, &t.Token, &t.Status,
		&hash, &block, &gasUsed, &gasPrice, &t.Description, &applied,
		&t.CreatedAt, &t.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	t.InvestmentID = investmentID.String
	t.TransactionHash = hash.String
	t.BlockNumber = int64Ptr(block)
	t.GasUsed = int64Ptr(gasUsed)
	t.GasPrice = int64Ptr(gasPrice)
	t.BalanceAppliedAt = timePtr(applied)
	return &t, nil
}

// transactionCacheEntry keeps the owner id that TransactionView hides from JSON.
type transactionCacheEntry struct {
	models.TransactionView
	OwnerID string `json:"ownerId"`
}

// TransactionReadRepository handles all read operations for transactions.
// Single transactions are served from Redis first; lists always read Postgres.
type TransactionReadRepository struct {
	db    *sql.DB
	cache *sharedredis.ViewCache[transactionCacheEntry]
}

func NewTransactionReadRepository(db *sql.DB, redisClient *goredis.Client, ttl time.Duration, logger *zap.Logger) *TransactionReadRepository {
	return &TransactionReadRepository{
		db:    db,
		cache: sharedredis.NewViewCache[transactionCacheEntry](redisClient, ttl, logger),
	}
}

// TransactionToView converts the write model to the read view model.
func TransactionToView(t *models.Transaction, childName string) *models.TransactionView {
	return &models.TransactionView{
		ID:              t.ID,
		UserID:          t.UserID,
		ChildID:         t.ChildID,
		ChildName:       childName,
		InvestmentID:    t.InvestmentID,
		Type:            t.Type,
		Amount:          t.Amount,
		Token:           t.Token,
		Status:          t.Status,
		TransactionHash: t.TransactionHash,
		BlockNumber:     t.BlockNumber,
		GasCostEth:      projection.GasCostInNativeUnit(t.GasUsed, t.GasPrice),
		Description:     t.Description,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
}

// GetByID returns a TransactionView by attempting Redis first, then PostgreSQL.
func (r *TransactionReadRepository) GetByID(ctx context.Context, id string) (*models.TransactionView, error) {
	if entry, ok := r.cache.Get(ctx, transactionViewKeyPrefix+id); ok {
		view := entry.TransactionView
		view.UserID = entry.OwnerID
		return &view, nil
	}

	query := `SELECT ` + qualifiedTransactionColumns + `, c.name
		FROM transactions t
		JOIN children c ON c.id = t.child_id
		WHERE t.id = $1`
	var childName string
	txn, err := scanTransaction(r.db.QueryRowContext(ctx, query, id), &childName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrTransactionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	view := TransactionToView(txn, childName)
	r.CacheTransactionView(ctx, view)
	return view, nil
}

// List returns a user's transactions newest first, optionally for one child,
// one status, one investment, or a created_at window [from, to).
func (r *TransactionReadRepository) List(ctx context.Context, f TransactionFilter) ([]models.TransactionView, error) {
	query := `SELECT ` + qualifiedTransactionColumns + `, c.name
		FROM transactions t
		JOIN children c ON c.id = t.child_id
		WHERE t.user_id = $1
		  AND ($2 = '' OR t.child_id = $2)
		  AND ($3 = '' OR t.status = $3)
		  AND ($4 = '' OR t.investment_id = $4)
		  AND ($5::timestamptz IS NULL OR t.created_at >= $5)
		  AND ($6::timestamptz IS NULL OR t.created_at < $6)
		ORDER BY t.created_at DESC, t.id`
	rows, err := r.db.QueryContext(ctx, query,
		f.UserID, f.ChildID, string(f.Status), f.InvestmentID, nullTime(f.From), nullTime(f.To))
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	views := []models.TransactionView{}
	for rows.Next() {
		var childName string
		txn, err := scanTransaction(rows, &childName)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		views = append(views, *TransactionToView(txn, childName))
	}
	return views, rows.Err()
}

type TransactionFilter struct {
	UserID       string
	ChildID      string
	InvestmentID string
	Status       models.TransactionStatus
	From         *time.Time
	To           *time.Time
}

// CacheTransactionView stores the read model for a transaction in Redis.
// Called by the command service after every ledger write.
func (r *TransactionReadRepository) CacheTransactionView(ctx context.Context, view *models.TransactionView) {
	r.cache.Set(ctx, transactionViewKeyPrefix+view.ID, &transactionCacheEntry{TransactionView: *view, OwnerID: view.UserID})
}
