package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Beegash/BBWallet/internal/models"
)

const investmentColumns = `id, user_id, child_id, investment_type, amount, frequency, status, start_date,
	end_date, next_payment_date, total_contributed, smart_contract_address, transaction_hash, created_at, updated_at`

func scanInvestment(row rowScanner) (*models.Investment, error) {
	var inv models.Investment
	var endDate, nextPayment sql.NullTime
	err := row.Scan(
		&inv.ID, &inv.UserID, &inv.ChildID, &inv.Type, &inv.Amount, &inv.Frequency, &inv.Status, &inv.StartDate,
		&endDate, &nextPayment, &inv.TotalContributed, &inv.SmartContractAddress, &inv.TransactionHash,
		&inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	inv.StartDate = inv.StartDate.UTC()
	inv.EndDate = timePtr(endDate)
	inv.NextPaymentDate = timePtr(nextPayment)
	return &inv, nil
}

// InvestmentRepository stores investment plans. total_contributed is only
// written by the ledger store.
type InvestmentRepository struct {
	db *sql.DB
}

func NewInvestmentRepository(db *sql.DB) *InvestmentRepository {
	return &InvestmentRepository{db: db}
}

func (r *InvestmentRepository) Create(ctx context.Context, inv *models.Investment) error {
	query := `
		INSERT INTO investments (id, user_id, child_id, investment_type, amount, frequency, status, start_date,
			end_date, next_payment_date, total_contributed, smart_contract_address, transaction_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err := r.db.ExecContext(ctx, query,
		inv.ID, inv.UserID, inv.ChildID, inv.Type, inv.Amount, inv.Frequency, inv.Status, inv.StartDate,
		nullTime(inv.EndDate), nullTime(inv.NextPaymentDate), inv.TotalContributed, inv.SmartContractAddress,
		inv.TransactionHash, inv.CreatedAt, inv.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create investment: %w", mapPQError(err, models.ErrConflict))
	}
	return nil
}

func (r *InvestmentRepository) GetByID(ctx context.Context, id string) (*models.Investment, error) {
	query := `SELECT ` + investmentColumns + ` FROM investments WHERE id = $1`
	inv, err := scanInvestment(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrInvestmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get investment: %w", err)
	}
	return inv, nil
}

// List returns a user's investments, optionally narrowed to one child and/or status.
func (r *InvestmentRepository) List(ctx context.Context, userID, childID string, status models.InvestmentStatus) ([]models.Investment, error) {
	query := `SELECT ` + investmentColumns + `
		FROM investments
		WHERE user_id = $1
		  AND ($2 = '' OR child_id = $2)
		  AND ($3 = '' OR status = $3)
		ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID, childID, string(status))
	if err != nil {
		return nil, fmt.Errorf("failed to list investments: %w", err)
	}
	defer rows.Close()

	investments := []models.Investment{}
	for rows.Next() {
		inv, err := scanInvestment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan investment: %w", err)
		}
		investments = append(investments, *inv)
	}
	return investments, rows.Err()
}

func (r *InvestmentRepository) UpdateStatus(ctx context.Context, inv *models.Investment) error {
	query := `
		UPDATE investments
		SET status = $2, next_payment_date = $3, updated_at = $4
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query, inv.ID, inv.Status, nullTime(inv.NextPaymentDate), inv.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update investment: %w", err)
	}
	return expectOneRow(result, models.ErrInvestmentNotFound)
}
