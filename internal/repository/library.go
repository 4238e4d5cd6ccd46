package repository

import (
	"context"
	"errors"

	"devhabit/internal/models"
	"devhabit/internal/observability"

	"gorm.io/gorm"
)

// LibraryRepository defines persistence operations for goal libraries.
// A library is read and written as a whole row.
type LibraryRepository interface {
	// GetByGoalID returns nil without error when the goal has no library yet.
	GetByGoalID(ctx context.Context, goalID uint) (*models.Library, error)
	Save(ctx context.Context, library *models.Library) error
}

type libraryRepository struct {
	db *gorm.DB
}

// NewLibraryRepository returns a new LibraryRepository implementation.
func NewLibraryRepository(db *gorm.DB) LibraryRepository {
	return &libraryRepository{db: db}
}

func (r *libraryRepository) GetByGoalID(ctx context.Context, goalID uint) (*models.Library, error) {
	defer observability.TrackQuery("get_by_goal", "libraries")()

	var library models.Library
	if err := r.db.WithContext(ctx).Where("goal_id = ?", goalID).First(&library).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, libraryErrors.wrap(err)
	}
	return &library, nil
}

func (r *libraryRepository) Save(ctx context.Context, library *models.Library) error {
	defer observability.TrackQuery("save", "libraries")()

	if library.Resources == nil {
		library.Resources = []models.Resource{}
	}
	if err := r.db.WithContext(ctx).Save(library).Error; err != nil {
		return libraryErrors.wrap(err)
	}
	return nil
}
