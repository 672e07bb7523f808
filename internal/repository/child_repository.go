package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Beegash/BBWallet/internal/models"
)

const childColumns = `id, user_id, name, date_of_birth, gender, target_amount, current_balance,
	unlock_age, color_theme, is_active, created_at, updated_at`

func scanChild(row rowScanner) (*models.Child, error) {
	var c models.Child
	var gender string
	err := row.Scan(
		&c.ID, &c.UserID, &c.Name, &c.DateOfBirth, &gender, &c.TargetAmount, &c.CurrentBalance,
		&c.UnlockAge, &c.ColorTheme, &c.IsActive, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.Gender = models.Gender(gender)
	c.DateOfBirth = c.DateOfBirth.UTC()
	return &c, nil
}

// ChildWriteRepository handles all state-mutating operations for child accounts
// except the balance, which only the ledger store writes.
type ChildWriteRepository struct {
	db *sql.DB
}

func NewChildWriteRepository(db *sql.DB) *ChildWriteRepository {
	return &ChildWriteRepository{db: db}
}

func (r *ChildWriteRepository) Create(ctx context.Context, child *models.Child) error {
	query := `
		INSERT INTO children (id, user_id, name, date_of_birth, gender, target_amount, current_balance,
			unlock_age, color_theme, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.db.ExecContext(ctx, query,
		child.ID, child.UserID, child.Name, child.DateOfBirth, string(child.Gender), child.TargetAmount,
		child.CurrentBalance, child.UnlockAge, child.ColorTheme, child.IsActive, child.CreatedAt, child.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create child: %w", mapPQError(err, models.ErrConflict))
	}
	return nil
}

// GetByID fetches the full write model including UserID for ownership checks.
func (r *ChildWriteRepository) GetByID(ctx context.Context, childID string) (*models.Child, error) {
	query := `SELECT ` + childColumns + ` FROM children WHERE id = $1`
	child, err := scanChild(r.db.QueryRowContext(ctx, query, childID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrChildNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get child: %w", err)
	}
	return child, nil
}

// Update writes the editable profile fields. current_balance is never part of it.
func (r *ChildWriteRepository) Update(ctx context.Context, child *models.Child) error {
	query := `
		UPDATE children
		SET name = $2, date_of_birth = $3, gender = $4, target_amount = $5, unlock_age = $6,
			color_theme = $7, updated_at = $8
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query,
		child.ID, child.Name, child.DateOfBirth, string(child.Gender), child.TargetAmount,
		child.UnlockAge, child.ColorTheme, child.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update child: %w", mapPQError(err, models.ErrConflict))
	}
	return expectOneRow(result, models.ErrChildNotFound)
}

func (r *ChildWriteRepository) Deactivate(ctx context.Context, child *models.Child) error {
	query := `UPDATE children SET is_active = FALSE, updated_at = $2 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, child.ID, child.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to deactivate child: %w", err)
	}
	return expectOneRow(result, models.ErrChildNotFound)
}

// ListByUserID returns the write models of a user's children, active ones only
// unless includeInactive is set.
func (r *ChildWriteRepository) ListByUserID(ctx context.Context, userID string, includeInactive bool) ([]models.Child, error) {
	query := `SELECT ` + childColumns + `
		FROM children
		WHERE user_id = $1 AND (is_active OR $2)
		ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID, includeInactive)
	if err != nil {
		return nil, fmt.Errorf("failed to list children: %w", err)
	}
	defer rows.Close()

	children := []models.Child{}
	for rows.Next() {
		child, err := scanChild(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan child: %w", err)
		}
		children = append(children, *child)
	}
	return children, rows.Err()
}
