package query

import (
	"context"

	"github.com/Beegash/BBWallet/internal/cqrs"
	"github.com/Beegash/BBWallet/internal/models"
	"github.com/Beegash/BBWallet/internal/projection"
	"github.com/Beegash/BBWallet/internal/repository"
	"github.com/shopspring/decimal"
)

// savings computes a user's aggregates from Postgres on every call.
type savings struct {
	childRepo      *repository.ChildWriteRepository
	investmentRepo *repository.InvestmentRepository
}

func (s savings) load(ctx context.Context, userID string) ([]models.Child, []models.Investment, error) {
	children, err := s.childRepo.ListByUserID(ctx, userID, true)
	if err != nil {
		return nil, nil, err
	}
	investments, err := s.investmentRepo.List(ctx, userID, "", "")
	if err != nil {
		return nil, nil, err
	}
	return children, investments, nil
}

func (s savings) total(ctx context.Context, userID string) (decimal.Decimal, error) {
	children, investments, err := s.load(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	return projection.TotalSavings(children, investments), nil
}

// UserQueryService reads user views from the Redis cache (with a Postgres fallback).
type UserQueryService struct {
	readRepo *repository.UserReadRepository
	savings
}

func NewUserQueryService(
	readRepo *repository.UserReadRepository,
	childRepo *repository.ChildWriteRepository,
	investmentRepo *repository.InvestmentRepository,
) *UserQueryService {
	return &UserQueryService{
		readRepo: readRepo,
		savings:  savings{childRepo: childRepo, investmentRepo: investmentRepo},
	}
}

func (s *UserQueryService) GetUser(ctx context.Context, q cqrs.GetUserQuery) (*models.UserView, error) {
	if q.UserID != q.RequestingUserID {
		return nil, models.ErrForbidden
	}
	view, err := s.readRepo.GetByID(ctx, q.UserID)
	if err != nil {
		return nil, err
	}
	total, err := s.total(ctx, q.UserID)
	if err != nil {
		return nil, err
	}
	view.TotalSavings = total
	return view, nil
}

// Stats aggregates across all of the user's children and investments.
func (s *UserQueryService) Stats(ctx context.Context, q cqrs.StatsQuery) (*models.Stats, error) {
	children, investments, err := s.load(ctx, q.UserID)
	if err != nil {
		return nil, err
	}
	stats := &models.Stats{TotalSavings: projection.TotalSavings(children, investments)}
	for _, c := range children {
		if c.IsActive {
			stats.AccountCount++
		}
	}
	for _, inv := range investments {
		if inv.Status == models.InvestmentActive {
			stats.ActiveInvestmentCount++
		}
	}
	return stats, nil
}
