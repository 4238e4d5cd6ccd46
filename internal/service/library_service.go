package service

import (
	"context"
	"strings"

	"devhabit/internal/models"
	"devhabit/internal/observability"
	"devhabit/internal/repository"
	"devhabit/internal/validation"

	"github.com/google/uuid"
)

const (
	msgNoResources     = "No resources found for this goal"
	msgLibraryNotFound = "Library not found for this goal"
	msgResourceMissing = "Resource not found"
)

// LibraryService manages the resources attached to a caller's goals.
// Every operation first resolves the goal under the caller's ownership.
type LibraryService struct {
	goalRepo    repository.GoalRepository
	libraryRepo repository.LibraryRepository
	newID       func() string
}

type ResourceInput struct {
	Type        string
	Title       string
	URL         string
	Description string
}

// UpdateResourceInput lists the mutable resource fields. Nil means unchanged.
type UpdateResourceInput struct {
	Type        *string
	Title       *string
	URL         *string
	Description *string
}

func NewLibraryService(goalRepo repository.GoalRepository, libraryRepo repository.LibraryRepository) *LibraryService {
	return &LibraryService{goalRepo: goalRepo, libraryRepo: libraryRepo, newID: uuid.NewString}
}

// AddResource appends a resource to the goal's library, creating the library on first use.
func (s *LibraryService) AddResource(ctx context.Context, userID, goalID uint, in ResourceInput) (*models.Library, error) {
	ctx, span := observability.StartSpan(ctx, "LibraryService.AddResource",
		observability.AttrUserID.Int64(int64(userID)),
		observability.AttrGoalID.Int64(int64(goalID)))
	defer span.End()

	if _, err := s.goalRepo.GetByIDForUser(ctx, goalID, userID); err != nil {
		return nil, err
	}

	resource := models.Resource{
		Type:        strings.TrimSpace(in.Type),
		Title:       validation.StripHTML(in.Title),
		URL:         strings.TrimSpace(in.URL),
		Description: validation.StripHTML(in.Description),
	}
	result := validation.ValidateResource(&resource)
	if err := result.Err(); err != nil {
		return nil, err
	}

	library, err := s.libraryRepo.GetByGoalID(ctx, goalID)
	if err != nil {
		return nil, err
	}
	if library == nil {
		library = &models.Library{GoalID: goalID, Resources: []models.Resource{}}
	}

	resource.ID = s.newID()
	library.Resources = append(library.Resources, resource)
	if err := s.libraryRepo.Save(ctx, library); err != nil {
		return nil, err
	}
	return library, nil
}

// ListResources returns the goal's resources in insertion order.
func (s *LibraryService) ListResources(ctx context.Context, userID, goalID uint) ([]models.Resource, error) {
	library, err := s.loadLibrary(ctx, userID, goalID, msgNoResources)
	if err != nil {
		return nil, err
	}
	if library.Resources == nil {
		return []models.Resource{}, nil
	}
	return library.Resources, nil
}

func (s *LibraryService) GetResource(ctx context.Context, userID, goalID uint, resourceID string) (*models.Resource, error) {
	library, err := s.loadLibrary(ctx, userID, goalID, msgLibraryNotFound)
	if err != nil {
		return nil, err
	}
	idx, ok := library.FindResource(resourceID)
	if !ok {
		return nil, models.NewNotFoundError(msgResourceMissing)
	}
	resource := library.Resources[idx]
	return &resource, nil
}

// UpdateResource overwrites only the supplied fields and re-validates the result.
// The whole library row is written back, so concurrent updates are last-write-wins.
func (s *LibraryService) UpdateResource(ctx context.Context, userID, goalID uint, resourceID string, in UpdateResourceInput) (*models.Resource, error) {
	library, err := s.loadLibrary(ctx, userID, goalID, msgLibraryNotFound)
	if err != nil {
		return nil, err
	}
	idx, ok := library.FindResource(resourceID)
	if !ok {
		return nil, models.NewNotFoundError(msgResourceMissing)
	}

	resource := library.Resources[idx]
	if in.Type != nil {
		resource.Type = strings.TrimSpace(*in.Type)
	}
	if in.Title != nil {
		resource.Title = validation.StripHTML(*in.Title)
	}
	if in.URL != nil {
		resource.URL = strings.TrimSpace(*in.URL)
	}
	if in.Description != nil {
		resource.Description = validation.StripHTML(*in.Description)
	}

	result := validation.ValidateResource(&resource)
	if err := result.Err(); err != nil {
		return nil, err
	}

	library.Resources[idx] = resource
	if err := s.libraryRepo.Save(ctx, library); err != nil {
		return nil, err
	}
	return &resource, nil
}

// DeleteResource removes one resource. An emptied library is kept.
func (s *LibraryService) DeleteResource(ctx context.Context, userID, goalID uint, resourceID string) error {
	library, err := s.loadLibrary(ctx, userID, goalID, msgLibraryNotFound)
	if err != nil {
		return err
	}
	idx, ok := library.FindResource(resourceID)
	if !ok {
		return models.NewNotFoundError(msgResourceMissing)
	}

	library.RemoveResourceAt(idx)
	return s.libraryRepo.Save(ctx, library)
}

func (s *LibraryService) loadLibrary(ctx context.Context, userID, goalID uint, missing string) (*models.Library, error) {
	if _, err := s.goalRepo.GetByIDForUser(ctx, goalID, userID); err != nil {
		return nil, err
	}
	library, err := s.libraryRepo.GetByGoalID(ctx, goalID)
	if err != nil {
		return nil, err
	}
	if library == nil {
		return nil, models.NewNotFoundError(missing)
	}
	return library, nil
}
