package query

import (
	"context"
	"time"

	"github.com/Beegash/BBWallet/internal/cqrs"
	"github.com/Beegash/BBWallet/internal/models"
	"github.com/Beegash/BBWallet/internal/reports"
	"github.com/Beegash/BBWallet/internal/repository"
)

// TransactionQueryService serves transaction reads, investments with their
// transactions, and yearly statements.
type TransactionQueryService struct {
	readRepo       *repository.TransactionReadRepository
	childRepo      *repository.ChildReadRepository
	investmentRepo *repository.InvestmentRepository
	userRepo       *repository.UserReadRepository
}

func NewTransactionQueryService(
	readRepo *repository.TransactionReadRepository,
	childRepo *repository.ChildReadRepository,
	investmentRepo *repository.InvestmentRepository,
	userRepo *repository.UserReadRepository,
) *TransactionQueryService {
	return &TransactionQueryService{
		readRepo:       readRepo,
		childRepo:      childRepo,
		investmentRepo: investmentRepo,
		userRepo:       userRepo,
	}
}

func (s *TransactionQueryService) GetTransaction(ctx context.Context, q cqrs.GetTransactionQuery) (*models.TransactionView, error) {
	view, err := s.readRepo.GetByID(ctx, q.TransactionID)
	if err != nil {
		return nil, err
	}
	if view.UserID != q.RequestingUserID {
		return nil, models.ErrForbidden
	}
	return view, nil
}

// ListTransactions returns the user's transactions. A ChildID filter must name one of their children.
func (s *TransactionQueryService) ListTransactions(ctx context.Context, q cqrs.ListTransactionsQuery) ([]models.TransactionView, error) {
	if q.ChildID != "" {
		if _, err := ownedChildView(ctx, s.childRepo, q.ChildID, q.UserID); err != nil {
			return nil, err
		}
	}
	return s.readRepo.List(ctx, repository.TransactionFilter{
		UserID:  q.UserID,
		ChildID: q.ChildID,
		Status:  q.Status,
	})
}

func (s *TransactionQueryService) GetInvestment(ctx context.Context, q cqrs.GetInvestmentQuery) (*models.InvestmentView, error) {
	inv, err := s.investmentRepo.GetByID(ctx, q.InvestmentID)
	if err != nil {
		return nil, err
	}
	if inv.UserID != q.RequestingUserID {
		return nil, models.ErrForbidden
	}
	return s.investmentView(ctx, inv)
}

func (s *TransactionQueryService) ListInvestments(ctx context.Context, q cqrs.ListInvestmentsQuery) ([]models.InvestmentView, error) {
	if q.ChildID != "" {
		if _, err := ownedChildView(ctx, s.childRepo, q.ChildID, q.UserID); err != nil {
			return nil, err
		}
	}
	investments, err := s.investmentRepo.List(ctx, q.UserID, q.ChildID, q.Status)
	if err != nil {
		return nil, err
	}
	views := make([]models.InvestmentView, 0, len(investments))
	for i := range investments {
		view, err := s.investmentView(ctx, &investments[i])
		if err != nil {
			return nil, err
		}
		views = append(views, *view)
	}
	return views, nil
}

// investmentView counts the investment-type transactions linked to inv.
func (s *TransactionQueryService) investmentView(ctx context.Context, inv *models.Investment) (*models.InvestmentView, error) {
	child, err := s.childRepo.GetByID(ctx, inv.ChildID)
	if err != nil {
		return nil, err
	}
	txs, err := s.readRepo.List(ctx, repository.TransactionFilter{UserID: inv.UserID, InvestmentID: inv.ID})
	if err != nil {
		return nil, err
	}
	view := &models.InvestmentView{
		Investment:   *inv,
		ChildName:    child.Name,
		Transactions: txs,
	}
	for _, t := range txs {
		if t.Type == models.TxInvestment {
			view.TotalInvestments++
		}
	}
	return view, nil
}

// Statement collects the user's transactions created during q.Year.
func (s *TransactionQueryService) Statement(ctx context.Context, q cqrs.StatementQuery) (*reports.Statement, error) {
	user, err := s.userRepo.GetByID(ctx, q.UserID)
	if err != nil {
		return nil, err
	}
	from, to := reports.YearRange(q.Year)
	txs, err := s.readRepo.List(ctx, repository.TransactionFilter{UserID: q.UserID, From: &from, To: &to})
	if err != nil {
		return nil, err
	}
	return reports.NewStatement(*user, q.Year, txs, time.Now().UTC()), nil
}
