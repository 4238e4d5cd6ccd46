package repository

import (
	"context"

	"devhabit/internal/models"
	"devhabit/internal/observability"

	"gorm.io/gorm"
)

// GoalRepository defines persistence operations for goals. Every lookup is scoped to the owner.
type GoalRepository interface {
	Create(ctx context.Context, goal *models.Goal) error
	ListByUser(ctx context.Context, userID uint) ([]models.Goal, error)
	GetByIDForUser(ctx context.Context, id, userID uint) (*models.Goal, error)
	Update(ctx context.Context, goal *models.Goal) error
	DeleteForUser(ctx context.Context, id, userID uint) error
}

type goalRepository struct {
	db *gorm.DB
}

// NewGoalRepository returns a new GoalRepository implementation.
func NewGoalRepository(db *gorm.DB) GoalRepository {
	return &goalRepository{db: db}
}

func (r *goalRepository) Create(ctx context.Context, goal *models.Goal) error {
	defer observability.TrackQuery("create", "goals")()

	if err := r.db.WithContext(ctx).Create(goal).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *goalRepository) ListByUser(ctx context.Context, userID uint) ([]models.Goal, error) {
	defer observability.TrackQuery("list_by_user", "goals")()

	goals := []models.Goal{}
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id ASC").
		Find(&goals).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return goals, nil
}

func (r *goalRepository) GetByIDForUser(ctx context.Context, id, userID uint) (*models.Goal, error) {
	defer observability.TrackQuery("get_by_id", "goals")()

	var goal models.Goal
	if err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&goal).Error; err != nil {
		return nil, goalErrors.wrap(err)
	}
	return &goal, nil
}

func (r *goalRepository) Update(ctx context.Context, goal *models.Goal) error {
	defer observability.TrackQuery("update", "goals")()

	if err := r.db.WithContext(ctx).Save(goal).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// DeleteForUser removes an owned goal and its library.
func (r *goalRepository) DeleteForUser(ctx context.Context, id, userID uint) error {
	defer observability.TrackQuery("delete", "goals")()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND user_id = ?", id, userID).Delete(&models.Goal{})
		if res.Error != nil {
			return models.NewInternalError(res.Error)
		}
		if res.RowsAffected == 0 {
			return goalErrors.missing()
		}
		if err := tx.Where("goal_id = ?", id).Delete(&models.Library{}).Error; err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
}
