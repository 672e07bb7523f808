package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Beegash/BBWallet/internal/models"
)

// GoalRepository stores at most one savings goal per child.
type GoalRepository struct {
	db *sql.DB
}

func NewGoalRepository(db *sql.DB) *GoalRepository {
	return &GoalRepository{db: db}
}

// Upsert creates the child's goal or replaces its fields, keeping the original id.
func (r *GoalRepository) Upsert(ctx context.Context, goal *models.InvestmentGoal) (*models.InvestmentGoal, error) {
	query := `
		INSERT INTO investment_goals (id, child_id, target_amount, target_date, monthly_contribution,
			description, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (child_id) DO UPDATE
		SET target_amount = EXCLUDED.target_amount,
			target_date = EXCLUDED.target_date,
			monthly_contribution = EXCLUDED.monthly_contribution,
			description = EXCLUDED.description,
			is_active = EXCLUDED.is_active,
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_at
	`
	saved := *goal
	err := r.db.QueryRowContext(ctx, query,
		goal.ID, goal.ChildID, goal.TargetAmount, goal.TargetDate, goal.MonthlyContribution,
		goal.Description, goal.IsActive, goal.CreatedAt, goal.UpdatedAt,
	).Scan(&saved.ID, &saved.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to save goal: %w", mapPQError(err, models.ErrConflict))
	}
	return &saved, nil
}

func (r *GoalRepository) GetByChildID(ctx context.Context, childID string) (*models.InvestmentGoal, error) {
	query := `
		SELECT id, child_id, target_amount, target_date, monthly_contribution, description, is_active, created_at, updated_at
		FROM investment_goals
		WHERE child_id = $1
	`
	var g models.InvestmentGoal
	err := r.db.QueryRowContext(ctx, query, childID).Scan(
		&g.ID, &g.ChildID, &g.TargetAmount, &g.TargetDate, &g.MonthlyContribution,
		&g.Description, &g.IsActive, &g.CreatedAt, &g.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrGoalNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get goal: %w", err)
	}
	g.TargetDate = g.TargetDate.UTC()
	return &g, nil
}
