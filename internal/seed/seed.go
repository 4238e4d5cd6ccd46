// Package seed creates demo data for local development and tests.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"devhabit/internal/middleware"
	"devhabit/internal/models"
	"devhabit/internal/repository"
	"devhabit/internal/service"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DemoPassword is the plaintext password of every seeded user.
const DemoPassword = "devhabit123"

// SeedOptions tune the amount of generated data.
type SeedOptions struct {
	Users            int
	GoalsPerUser     int
	ResourcesPerGoal int
}

// Seeder persists demo users, goals and libraries through the regular services,
// so seeded goals go through the same metric filtering as API requests.
type Seeder struct {
	db       *gorm.DB
	faker    *gofakeit.Faker
	users    repository.UserRepository
	goals    *service.GoalService
	library  *service.LibraryService
	sequence int
}

// NewSeeder creates a Seeder bound to db. A non-zero randSeed makes the generated
// data reproducible; zero picks a random seed.
func NewSeeder(db *gorm.DB, randSeed int64) *Seeder {
	goalRepo := repository.NewGoalRepository(db)
	return &Seeder{
		db:      db,
		faker:   gofakeit.New(randSeed),
		users:   repository.NewUserRepository(db),
		goals:   service.NewGoalService(goalRepo),
		library: service.NewLibraryService(goalRepo, repository.NewLibraryRepository(db)),
	}
}

// ClearAll removes every library, goal and user.
func (s *Seeder) ClearAll() error {
	for _, model := range []any{&models.Library{}, &models.Goal{}, &models.User{}} {
		if err := s.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
			return fmt.Errorf("clear %T: %w", model, err)
		}
	}
	return nil
}

// CreateUser builds and persists a user whose password is DemoPassword.
func (s *Seeder) CreateUser(ctx context.Context, overrides ...func(*models.User)) (*models.User, error) {
	s.sequence++
	first := strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' {
			return r
		}
		return -1
	}, strings.ToLower(s.faker.FirstName()))
	if first == "" {
		first = "user"
	}
	user := &models.User{
		Username: fmt.Sprintf("%s%03d", first, s.sequence),
		Email:    fmt.Sprintf("%s.%d@example.com", first, s.sequence),
		FullName: s.faker.Name(),
	}
	if err := user.SetPassword(DemoPassword, bcrypt.MinCost); err != nil {
		return nil, err
	}
	for _, override := range overrides {
		override(user)
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// CreateGoal builds a goal in a random category with metrics drawn from every category,
// leaving the service to drop the ones that do not belong.
func (s *Seeder) CreateGoal(ctx context.Context, user *models.User) (*models.Goal, error) {
	categories := models.Categories()
	category := categories[s.faker.Number(0, len(categories)-1)]
	priorities := []models.Priority{models.PriorityHigh, models.PriorityMedium, models.PriorityLow}

	return s.goals.CreateGoal(ctx, service.CreateGoalInput{
		UserID:      user.ID,
		Title:       s.faker.HipsterSentence(4),
		Description: s.faker.Sentence(10),
		Category:    category,
		Priority:    priorities[s.faker.Number(0, len(priorities)-1)],
		IsCompleted: s.faker.Bool(),
		Metrics:     s.metrics(),
	})
}

func (s *Seeder) metrics() []models.Metric {
	hours := float64(s.faker.Number(10, 200))
	commits := s.faker.Number(3, 30)
	solved := s.faker.Number(0, 50)
	return []models.Metric{
		{Type: models.MetricHoursToDedicate, Progress: float64(s.faker.Number(0, 100)), TargetHours: &hours},
		{Type: models.MetricKeyConcepts, ConceptsToComplete: []string{s.faker.BuzzWord(), s.faker.BuzzWord()}},
		{Type: models.MetricMilestones, Milestones: []string{s.faker.HackerVerb() + " " + s.faker.HackerNoun()}},
		{Type: models.MetricCodeCommits, WeeklyCommitGoal: &commits},
		{Type: models.MetricCoreAlgorithms, CoreAlgorithms: []string{"binary search", "dijkstra"}},
		{Type: models.MetricWeeklyProblemGoals, SolvedProblemsCount: &solved},
	}
}

// AddResources appends n generated resources to the goal's library.
func (s *Seeder) AddResources(ctx context.Context, user *models.User, goal *models.Goal, n int) (*models.Library, error) {
	types := []string{"video", "article", "book", "course", "documentation"}
	var library *models.Library
	for i := 0; i < n; i++ {
		var err error
		library, err = s.library.AddResource(ctx, user.ID, goal.ID, service.ResourceInput{
			Type:        types[s.faker.Number(0, len(types)-1)],
			Title:       s.faker.HipsterSentence(3),
			URL:         fmt.Sprintf("https://%s/%s", s.faker.DomainName(), s.faker.UUID()),
			Description: s.faker.Sentence(8),
		})
		if err != nil {
			return nil, err
		}
	}
	return library, nil
}

// Demo seeds opts.Users users, each with goals and libraries.
func (s *Seeder) Demo(ctx context.Context, opts SeedOptions) ([]*models.User, error) {
	users := make([]*models.User, 0, opts.Users)
	for i := 0; i < opts.Users; i++ {
		user, err := s.CreateUser(ctx)
		if err != nil {
			return nil, fmt.Errorf("create user: %w", err)
		}
		users = append(users, user)

		for j := 0; j < opts.GoalsPerUser; j++ {
			goal, err := s.CreateGoal(ctx, user)
			if err != nil {
				return nil, fmt.Errorf("create goal: %w", err)
			}
			if opts.ResourcesPerGoal > 0 {
				if _, err := s.AddResources(ctx, user, goal, opts.ResourcesPerGoal); err != nil {
					return nil, fmt.Errorf("add resources: %w", err)
				}
			}
		}
	}

	middleware.Logger.InfoContext(ctx, "demo data seeded",
		slog.Int("users", len(users)),
		slog.Int("goals_per_user", opts.GoalsPerUser),
		slog.Int("resources_per_goal", opts.ResourcesPerGoal),
	)
	return users, nil
}
