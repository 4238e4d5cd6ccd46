package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"devhabit/internal/middleware"
	"devhabit/internal/models"
	"devhabit/internal/observability"
	"devhabit/internal/repository"
	"devhabit/internal/validation"
)

type GoalService struct {
	goalRepo repository.GoalRepository
	now      func() time.Time
}

type CreateGoalInput struct {
	UserID         uint
	Title          string
	Description    string
	Category       models.Category
	StartDate      *time.Time
	CompletionDate *time.Time
	Priority       models.Priority
	IsCompleted    bool
	Metrics        []models.Metric
}

// UpdateGoalInput lists the mutable goal fields. Nil means unchanged.
type UpdateGoalInput struct {
	Title          *string
	Description    *string
	Category       *models.Category
	StartDate      *time.Time
	CompletionDate *time.Time
	Priority       *models.Priority
	IsCompleted    *bool
	Metrics        *[]models.Metric
	// ClearCompletionDate unsets the completion date and takes precedence over CompletionDate.
	ClearCompletionDate bool
}

func NewGoalService(goalRepo repository.GoalRepository) *GoalService {
	return &GoalService{goalRepo: goalRepo, now: time.Now}
}

// CreateGoal stores a new goal owned by in.UserID with its metrics filtered by category.
func (s *GoalService) CreateGoal(ctx context.Context, in CreateGoalInput) (*models.Goal, error) {
	ctx, span := observability.StartSpan(ctx, "GoalService.CreateGoal",
		observability.AttrUserID.Int64(int64(in.UserID)),
		observability.AttrGoalCategory.String(string(in.Category)))
	defer span.End()

	goal := &models.Goal{
		UserID:         in.UserID,
		Title:          strings.TrimSpace(in.Title),
		Description:    strings.TrimSpace(in.Description),
		Category:       in.Category,
		CompletionDate: in.CompletionDate,
		Priority:       in.Priority,
		IsCompleted:    in.IsCompleted,
		Metrics:        in.Metrics,
	}
	if in.StartDate != nil {
		goal.StartDate = *in.StartDate
	} else {
		goal.StartDate = s.now()
	}
	if goal.Priority == "" {
		goal.Priority = models.PriorityMedium
	}

	if err := s.filterAndValidate(ctx, goal); err != nil {
		return nil, err
	}
	if err := s.goalRepo.Create(ctx, goal); err != nil {
		return nil, err
	}
	return goal, nil
}

func (s *GoalService) ListGoals(ctx context.Context, userID uint) ([]models.Goal, error) {
	return s.goalRepo.ListByUser(ctx, userID)
}

func (s *GoalService) GetGoal(ctx context.Context, userID, goalID uint) (*models.Goal, error) {
	return s.goalRepo.GetByIDForUser(ctx, goalID, userID)
}

// UpdateGoal applies a partial update to an owned goal. Metric filtering runs against the
// resulting category so a category change also prunes the existing metrics.
func (s *GoalService) UpdateGoal(ctx context.Context, userID, goalID uint, in UpdateGoalInput) (*models.Goal, error) {
	goal, err := s.goalRepo.GetByIDForUser(ctx, goalID, userID)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		goal.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		goal.Description = strings.TrimSpace(*in.Description)
	}
	if in.Category != nil {
		goal.Category = *in.Category
	}
	if in.StartDate != nil {
		goal.StartDate = *in.StartDate
	}
	switch {
	case in.ClearCompletionDate:
		goal.CompletionDate = nil
	case in.CompletionDate != nil:
		goal.CompletionDate = in.CompletionDate
	}
	if in.Priority != nil {
		goal.Priority = *in.Priority
	}
	if in.IsCompleted != nil {
		goal.IsCompleted = *in.IsCompleted
	}
	if in.Metrics != nil {
		goal.Metrics = *in.Metrics
	}

	if err := s.filterAndValidate(ctx, goal); err != nil {
		return nil, err
	}
	if err := s.goalRepo.Update(ctx, goal); err != nil {
		return nil, err
	}
	return goal, nil
}

// DeleteGoal removes an owned goal and its library.
func (s *GoalService) DeleteGoal(ctx context.Context, userID, goalID uint) error {
	return s.goalRepo.DeleteForUser(ctx, goalID, userID)
}

func (s *GoalService) filterAndValidate(ctx context.Context, goal *models.Goal) error {
	kept, err := models.FilterMetrics(goal.Category, goal.Metrics)
	if err != nil {
		if errors.Is(err, models.ErrUnknownCategory) {
			result := validation.ValidateGoal(goal)
			return result.Err()
		}
		return models.NewInternalError(err)
	}

	if dropped := len(goal.Metrics) - len(kept); dropped > 0 {
		middleware.Logger.DebugContext(ctx, "dropped metrics outside category whitelist",
			slog.String("category", string(goal.Category)),
			slog.Int("dropped", dropped),
		)
		observability.RecordMetricsDropped(string(goal.Category), dropped)
	}
	goal.Metrics = kept

	result := validation.ValidateGoal(goal)
	return result.Err()
}
