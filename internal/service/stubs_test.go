package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"devhabit/internal/models"

	"github.com/stretchr/testify/require"
)

type userRepoStub struct {
	getByIDFn    func(context.Context, uint) (*models.User, error)
	getByEmailFn func(context.Context, string) (*models.User, error)
	createFn     func(context.Context, *models.User) error
	updateFn     func(context.Context, *models.User) error
	deleteFn     func(context.Context, uint) error
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) Update(ctx context.Context, user *models.User) error {
	return s.updateFn(ctx, user)
}
func (s *userRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn: func(context.Context, uint) (*models.User, error) {
			return nil, models.NewNotFoundError("User not found")
		},
		getByEmailFn: func(context.Context, string) (*models.User, error) {
			return nil, models.NewNotFoundError("User not found")
		},
		createFn: func(context.Context, *models.User) error { return nil },
		updateFn: func(context.Context, *models.User) error { return nil },
		deleteFn: func(context.Context, uint) error { return nil },
	}
}

type goalRepoStub struct {
	createFn         func(context.Context, *models.Goal) error
	listByUserFn     func(context.Context, uint) ([]models.Goal, error)
	getByIDForUserFn func(context.Context, uint, uint) (*models.Goal, error)
	updateFn         func(context.Context, *models.Goal) error
	deleteForUserFn  func(context.Context, uint, uint) error
}

func (s *goalRepoStub) Create(ctx context.Context, goal *models.Goal) error {
	return s.createFn(ctx, goal)
}
func (s *goalRepoStub) ListByUser(ctx context.Context, userID uint) ([]models.Goal, error) {
	return s.listByUserFn(ctx, userID)
}
func (s *goalRepoStub) GetByIDForUser(ctx context.Context, id, userID uint) (*models.Goal, error) {
	return s.getByIDForUserFn(ctx, id, userID)
}
func (s *goalRepoStub) Update(ctx context.Context, goal *models.Goal) error {
	return s.updateFn(ctx, goal)
}
func (s *goalRepoStub) DeleteForUser(ctx context.Context, id, userID uint) error {
	return s.deleteForUserFn(ctx, id, userID)
}

func noopGoalRepo() *goalRepoStub {
	return &goalRepoStub{
		createFn:     func(context.Context, *models.Goal) error { return nil },
		listByUserFn: func(context.Context, uint) ([]models.Goal, error) { return []models.Goal{}, nil },
		getByIDForUserFn: func(context.Context, uint, uint) (*models.Goal, error) {
			return nil, models.NewNotFoundError("Goal not found")
		},
		updateFn:        func(context.Context, *models.Goal) error { return nil },
		deleteForUserFn: func(context.Context, uint, uint) error { return nil },
	}
}

// ownedGoalRepo resolves goalID only for ownerID.
func ownedGoalRepo(goalID, ownerID uint) *goalRepoStub {
	repo := noopGoalRepo()
	repo.getByIDForUserFn = func(_ context.Context, id, userID uint) (*models.Goal, error) {
		if id == goalID && userID == ownerID {
			return &models.Goal{ID: id, UserID: userID, Title: "goal", Category: models.CategoryLearningLanguage, Priority: models.PriorityMedium}, nil
		}
		return nil, models.NewNotFoundError("Goal not found")
	}
	return repo
}

// memLibraryRepo keeps libraries by goal id and hands out copies, like a row store.
type memLibraryRepo struct {
	libs  map[uint]models.Library
	saves int
	err   error
}

func newMemLibraryRepo() *memLibraryRepo {
	return &memLibraryRepo{libs: map[uint]models.Library{}}
}

func (r *memLibraryRepo) GetByGoalID(_ context.Context, goalID uint) (*models.Library, error) {
	if r.err != nil {
		return nil, r.err
	}
	lib, ok := r.libs[goalID]
	if !ok {
		return nil, nil
	}
	lib.Resources = append([]models.Resource(nil), lib.Resources...)
	return &lib, nil
}

func (r *memLibraryRepo) Save(_ context.Context, library *models.Library) error {
	if r.err != nil {
		return r.err
	}
	r.saves++
	if library.ID == 0 {
		library.ID = uint(len(r.libs) + 1)
	}
	stored := *library
	stored.Resources = append([]models.Resource(nil), library.Resources...)
	r.libs[library.GoalID] = stored
	return nil
}

type tokenStub struct {
	signFn  func(uint) (string, time.Time, error)
	parseFn func(string) (uint, error)
}

func (s *tokenStub) Sign(userID uint) (string, time.Time, error) { return s.signFn(userID) }
func (s *tokenStub) Parse(token string) (uint, error) { return s.parseFn(token) }

func noopTokens() *tokenStub {
	return &tokenStub{
		signFn:  func(uint) (string, time.Time, error) { return "token", time.Now(), nil },
		parseFn: func(string) (uint, error) { return 0, errors.New("invalid token") },
	}
}

func requireAppError(t *testing.T, err error, code, message string) {
	t.Helper()
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, code, appErr.Code)
	if message != "" {
		require.Equal(t, message, appErr.Message)
	}
}
