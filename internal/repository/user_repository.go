package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Beegash/BBWallet/internal/models"
)

const userColumns = `id, username, email, password_hash, first_name, last_name,
	wallet_address, wallet_connected, wallet_type, created_at, updated_at`

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
		&u.WalletAddress, &u.WalletConnected, &u.WalletType, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func userUniqueError(err error) error {
	switch {
	case isUniqueViolationOn(err, "users_email_key"):
		return models.ErrEmailTaken
	case isUniqueViolationOn(err, "users_username_key"):
		return models.ErrUsernameTaken
	}
	return mapPQError(err, models.ErrConflict)
}

// UserWriteRepository handles all state-mutating operations for users.
// It operates exclusively against the PostgreSQL write store (source of truth).
type UserWriteRepository struct {
	db *sql.DB
}

func NewUserWriteRepository(db *sql.DB) *UserWriteRepository {
	return &UserWriteRepository{db: db}
}

func (r *UserWriteRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, username, email, password_hash, first_name, last_name,
			wallet_address, wallet_connected, wallet_type, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Username, user.Email, user.PasswordHash, user.FirstName, user.LastName,
		user.WalletAddress, user.WalletConnected, user.WalletType, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", userUniqueError(err))
	}
	return nil
}

// GetByID fetches the full write model (including PasswordHash) for internal operations.
func (r *UserWriteRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *UserWriteRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email)
}

func (r *UserWriteRepository) getOne(ctx context.Context, query string, arg string) (*models.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (r *UserWriteRepository) Update(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users
		SET email = $2, first_name = $3, last_name = $4, updated_at = $5
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query, user.ID, user.Email, user.FirstName, user.LastName, user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", userUniqueError(err))
	}
	return expectOneRow(result, models.ErrUserNotFound)
}

// ConnectWallet closes any active connection, records the new one and updates
// the user's wallet fields in one transaction.
func (r *UserWriteRepository) ConnectWallet(ctx context.Context, user *models.User, conn *models.WalletConnection) error {
	return r.withinTx(ctx, func(tx *sql.Tx) error {
		if err := closeActiveWallets(ctx, tx, user.ID, conn.ConnectedAt); err != nil {
			return err
		}
		insert := `
			INSERT INTO wallet_connections (id, user_id, wallet_type, wallet_address, connected_at, is_active)
			VALUES ($1, $2, $3, $4, $5, TRUE)
		`
		if _, err := tx.ExecContext(ctx, insert, conn.ID, conn.UserID, conn.WalletType, conn.WalletAddress, conn.ConnectedAt); err != nil {
			return fmt.Errorf("failed to record wallet connection: %w", err)
		}
		return updateWalletFields(ctx, tx, user)
	})
}

// DisconnectWallet closes the active connection and clears the user's wallet fields.
func (r *UserWriteRepository) DisconnectWallet(ctx context.Context, user *models.User) error {
	return r.withinTx(ctx, func(tx *sql.Tx) error {
		if err := closeActiveWallets(ctx, tx, user.ID, user.UpdatedAt); err != nil {
			return err
		}
		return updateWalletFields(ctx, tx, user)
	})
}

func (r *UserWriteRepository) ActiveWallet(ctx context.Context, userID string) (*models.WalletConnection, error) {
	query := `
		SELECT id, user_id, wallet_type, wallet_address, connected_at, disconnected_at, is_active
		FROM wallet_connections
		WHERE user_id = $1 AND is_active
		ORDER BY connected_at DESC
		LIMIT 1
	`
	var conn models.WalletConnection
	var disconnected sql.NullTime
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&conn.ID, &conn.UserID, &conn.WalletType, &conn.WalletAddress, &conn.ConnectedAt, &disconnected, &conn.IsActive,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNoActiveWallet
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet connection: %w", err)
	}
	conn.DisconnectedAt = timePtr(disconnected)
	return &conn, nil
}

func (r *UserWriteRepository) withinTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

func closeActiveWallets(ctx context.Context, tx *sql.Tx, userID string, at time.Time) error {
	query := `UPDATE wallet_connections SET is_active = FALSE, disconnected_at = $2 WHERE user_id = $1 AND is_active`
	if _, err := tx.ExecContext(ctx, query, userID, at); err != nil {
		return fmt.Errorf("failed to close wallet connections: %w", err)
	}
	return nil
}

func updateWalletFields(ctx context.Context, tx *sql.Tx, user *models.User) error {
	query := `
		UPDATE users
		SET wallet_address = $2, wallet_connected = $3, wallet_type = $4, updated_at = $5
		WHERE id = $1
	`
	result, err := tx.ExecContext(ctx, query, user.ID, user.WalletAddress, user.WalletConnected, user.WalletType, user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update wallet fields: %w", err)
	}
	return expectOneRow(result, models.ErrUserNotFound)
}
