package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Beegash/BBWallet/internal/ledger"
	"github.com/Beegash/BBWallet/internal/models"
	"github.com/shopspring/decimal"
)

// LedgerStore is the Postgres unit of work behind the balance ledger. Each
// WithinTx call is one database transaction; child and transaction rows are
// locked with SELECT ... FOR UPDATE for its duration.
type LedgerStore struct {
	db *sql.DB
}

func NewLedgerStore(db *sql.DB) *LedgerStore {
	return &LedgerStore{db: db}
}

func (s *LedgerStore) WithinTx(ctx context.Context, fn func(tx ledger.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(&ledgerTx{tx: tx}); err != nil {
		_ = tx.Rollback()
		return mapPQError(err, nil)
	}
	if err := tx.Commit(); err != nil {
		return mapPQError(fmt.Errorf("failed to commit: %w", err), nil)
	}
	return nil
}

type ledgerTx struct {
	tx *sql.Tx
}

func (t *ledgerTx) LockChild(ctx context.Context, childID, userID string) (*models.Child, error) {
	query := `SELECT ` + childColumns + `
		FROM children
		WHERE id = $1 AND user_id = $2
		FOR UPDATE`
	child, err := scanChild(t.tx.QueryRowContext(ctx, query, childID, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrChildNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock child: %w", err)
	}
	return child, nil
}

func (t *ledgerTx) LockTransaction(ctx context.Context, transactionID string) (*models.Transaction, error) {
	query := `SELECT ` + transactionColumns + `
		FROM transactions
		WHERE id = $1
		FOR UPDATE`
	txn, err := scanTransaction(t.tx.QueryRowContext(ctx, query, transactionID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrTransactionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock transaction: %w", err)
	}
	return txn, nil
}

func (t *ledgerTx) GetInvestment(ctx context.Context, investmentID, userID string) (*models.Investment, error) {
	query := `SELECT ` + investmentColumns + `
		FROM investments
		WHERE id = $1 AND user_id = $2`
	inv, err := scanInvestment(t.tx.QueryRowContext(ctx, query, investmentID, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrInvestmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get investment: %w", err)
	}
	return inv, nil
}

func (t *ledgerTx) InsertTransaction(ctx context.Context, txn *models.Transaction) error {
	query := `
		INSERT INTO transactions (id, user_id, child_id, investment_id, transaction_type, amount, token, status,
			transaction_hash, block_number, gas_used, gas_price, description, balance_applied_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	_, err := t.tx.ExecContext(ctx, query,
		txn.ID, txn.UserID, txn.ChildID, nullString(txn.InvestmentID), txn.Type, txn.Amount, txn.Token, txn.Status,
		nullString(txn.TransactionHash), nullInt64(txn.BlockNumber), nullInt64(txn.GasUsed), nullInt64(txn.GasPrice),
		txn.Description, nullTime(txn.BalanceAppliedAt), txn.CreatedAt, txn.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", transactionInsertError(err))
	}
	return nil
}

// transactionInsertError reports a reused hash as a conflict; a duplicate id
// means a concurrent writer created the row first, which the ledger retries.
func transactionInsertError(err error) error {
	if isUniqueViolationOn(err, "transactions_transaction_hash_key") {
		return models.ErrDuplicateHash
	}
	return mapPQError(err, nil)
}

func (t *ledgerTx) UpdateTransactionStatus(ctx context.Context, txn *models.Transaction) error {
	query := `
		UPDATE transactions
		SET status = $2, balance_applied_at = $3, updated_at = $4
		WHERE id = $1
	`
	result, err := t.tx.ExecContext(ctx, query, txn.ID, txn.Status, nullTime(txn.BalanceAppliedAt), txn.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update transaction status: %w", err)
	}
	return expectOneRow(result, models.ErrTransactionNotFound)
}

func (t *ledgerTx) UpdateChildBalance(ctx context.Context, childID string, balance decimal.Decimal, at time.Time) error {
	query := `UPDATE children SET current_balance = $2, updated_at = $3 WHERE id = $1`
	result, err := t.tx.ExecContext(ctx, query, childID, balance, at)
	if err != nil {
		return fmt.Errorf("failed to update balance: %w", err)
	}
	return expectOneRow(result, models.ErrChildNotFound)
}

func (t *ledgerTx) AddInvestmentContribution(ctx context.Context, investmentID string, amount decimal.Decimal, at time.Time) error {
	query := `
		UPDATE investments
		SET total_contributed = total_contributed + $2, updated_at = $3
		WHERE id = $1
	`
	result, err := t.tx.ExecContext(ctx, query, investmentID, amount, at)
	if err != nil {
		return fmt.Errorf("failed to update investment contribution: %w", err)
	}
	return expectOneRow(result, models.ErrInvestmentNotFound)
}

func expectOneRow(result sql.Result, notFound error) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return notFound
	}
	return nil
}
