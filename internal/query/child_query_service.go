package query

import (
	"context"

	"github.com/Beegash/BBWallet/internal/cqrs"
	"github.com/Beegash/BBWallet/internal/models"
	"github.com/Beegash/BBWallet/internal/projection"
	"github.com/Beegash/BBWallet/internal/repository"
	"github.com/Beegash/BBWallet/internal/utils"
)

// ChildQueryService serves child views with their projections recomputed on every read.
type ChildQueryService struct {
	readRepo *repository.ChildReadRepository
	goalRepo *repository.GoalRepository
}

func NewChildQueryService(readRepo *repository.ChildReadRepository, goalRepo *repository.GoalRepository) *ChildQueryService {
	return &ChildQueryService{readRepo: readRepo, goalRepo: goalRepo}
}

func (s *ChildQueryService) GetChild(ctx context.Context, q cqrs.GetChildQuery) (*models.ChildDetail, error) {
	view, err := ownedChildView(ctx, s.readRepo, q.ChildID, q.RequestingUserID)
	if err != nil {
		return nil, err
	}
	return &models.ChildDetail{
		ChildView:       *view,
		ChildProjection: projection.ForChild(view, utils.Today()),
	}, nil
}

func (s *ChildQueryService) ListChildren(ctx context.Context, q cqrs.ListChildrenQuery) ([]models.ChildDetail, error) {
	views, err := s.readRepo.ListByUserID(ctx, q.UserID, q.IncludeInactive)
	if err != nil {
		return nil, err
	}
	today := utils.Today()
	details := make([]models.ChildDetail, len(views))
	for i := range views {
		details[i] = models.ChildDetail{
			ChildView:       views[i],
			ChildProjection: projection.ForChild(&views[i], today),
		}
	}
	return details, nil
}

func (s *ChildQueryService) GetGoal(ctx context.Context, q cqrs.GetGoalQuery) (*models.GoalView, error) {
	child, err := ownedChildView(ctx, s.readRepo, q.ChildID, q.RequestingUserID)
	if err != nil {
		return nil, err
	}
	goal, err := s.goalRepo.GetByChildID(ctx, child.ID)
	if err != nil {
		return nil, err
	}
	return &models.GoalView{
		InvestmentGoal:     *goal,
		ProgressPercentage: projection.GoalProgressPercentage(child.CurrentBalance, goal),
		MonthsRemaining:    projection.MonthsRemaining(goal.TargetDate, utils.Today()),
	}, nil
}

// ownedChildView enforces ownership using the UserID the view carries (json:"-").
func ownedChildView(ctx context.Context, readRepo *repository.ChildReadRepository, childID, userID string) (*models.ChildView, error) {
	view, err := readRepo.GetByID(ctx, childID)
	if err != nil {
		return nil, err
	}
	if view.UserID != userID {
		return nil, models.ErrForbidden
	}
	return view, nil
}
