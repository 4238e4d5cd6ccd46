package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"devhabit/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLibraryService(goals *goalRepoStub, libs *memLibraryRepo) *LibraryService {
	svc := NewLibraryService(goals, libs)
	n := 0
	svc.newID = func() string {
		n++
		return fmt.Sprintf("res-%d", n)
	}
	return svc
}

func validResource() ResourceInput {
	return ResourceInput{Type: "video", Title: "Tour of Go", URL: "https://go.dev/tour"}
}

func TestLibraryService_AddResource(t *testing.T) {
	t.Parallel()

	t.Run("creates library lazily", func(t *testing.T) {
		t.Parallel()
		libs := newMemLibraryRepo()
		svc := newLibraryService(ownedGoalRepo(5, 1), libs)

		lib, err := svc.AddResource(context.Background(), 1, 5, validResource())
		require.NoError(t, err)
		assert.Equal(t, uint(5), lib.GoalID)
		require.Len(t, lib.Resources, 1)
		assert.Equal(t, "res-1", lib.Resources[0].ID)
		assert.Equal(t, "Tour of Go", lib.Resources[0].Title)

		lib, err = svc.AddResource(context.Background(), 1, 5, ResourceInput{
			Type: "article", Title: "<b>Effective</b> Go", URL: " https://go.dev/doc/effective_go ",
			Description: "<script>x()</script>style guide",
		})
		require.NoError(t, err)
		require.Len(t, lib.Resources, 2)
		assert.Equal(t, "Effective Go", lib.Resources[1].Title)
		assert.Equal(t, "https://go.dev/doc/effective_go", lib.Resources[1].URL)
		assert.Equal(t, "style guide", lib.Resources[1].Description)
		assert.Len(t, libs.libs, 1)
	})

	t.Run("rejects non url", func(t *testing.T) {
		t.Parallel()
		libs := newMemLibraryRepo()
		in := validResource()
		in.URL = "not a url"

		_, err := newLibraryService(ownedGoalRepo(5, 1), libs).AddResource(context.Background(), 1, 5, in)
		requireAppError(t, err, models.CodeValidation, "")
		assert.Zero(t, libs.saves)
	})

	t.Run("goal of another user", func(t *testing.T) {
		t.Parallel()
		libs := newMemLibraryRepo()
		_, err := newLibraryService(ownedGoalRepo(5, 1), libs).AddResource(context.Background(), 2, 5, validResource())
		requireAppError(t, err, models.CodeNotFound, "Goal not found")
		assert.Zero(t, libs.saves)
	})

	t.Run("store failure", func(t *testing.T) {
		t.Parallel()
		libs := newMemLibraryRepo()
		libs.err = models.NewInternalError(errors.New("db down"))
		_, err := newLibraryService(ownedGoalRepo(5, 1), libs).AddResource(context.Background(), 1, 5, validResource())
		requireAppError(t, err, models.CodeInternal, "")
	})
}

func TestLibraryService_ListResources(t *testing.T) {
	t.Parallel()

	libs := newMemLibraryRepo()
	svc := newLibraryService(ownedGoalRepo(5, 1), libs)
	ctx := context.Background()

	_, err := svc.ListResources(ctx, 1, 5)
	requireAppError(t, err, models.CodeNotFound, "No resources found for this goal")

	_, err = svc.AddResource(ctx, 1, 5, validResource())
	require.NoError(t, err)

	resources, err := svc.ListResources(ctx, 1, 5)
	require.NoError(t, err)
	assert.Len(t, resources, 1)

	_, err = svc.ListResources(ctx, 1, 6)
	requireAppError(t, err, models.CodeNotFound, "Goal not found")
}

func TestLibraryService_GetUpdateDelete(t *testing.T) {
	t.Parallel()

	libs := newMemLibraryRepo()
	svc := newLibraryService(ownedGoalRepo(5, 1), libs)
	ctx := context.Background()

	_, err := svc.GetResource(ctx, 1, 5, "res-1")
	requireAppError(t, err, models.CodeNotFound, "Library not found for this goal")

	_, err = svc.AddResource(ctx, 1, 5, validResource())
	require.NoError(t, err)
	_, err = svc.AddResource(ctx, 1, 5, ResourceInput{Type: "book", Title: "GOPL", URL: "https://gopl.io"})
	require.NoError(t, err)

	res, err := svc.GetResource(ctx, 1, 5, "res-2")
	require.NoError(t, err)
	assert.Equal(t, "GOPL", res.Title)

	_, err = svc.GetResource(ctx, 1, 5, "res-9")
	requireAppError(t, err, models.CodeNotFound, "Resource not found")

	title := "The Go Programming Language"
	updated, err := svc.UpdateResource(ctx, 1, 5, "res-2", UpdateResourceInput{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)
	assert.Equal(t, "https://gopl.io", updated.URL)
	assert.Equal(t, "book", updated.Type)

	badURL := "gopl.io"
	_, err = svc.UpdateResource(ctx, 1, 5, "res-2", UpdateResourceInput{URL: &badURL})
	requireAppError(t, err, models.CodeValidation, "")
	stored, err := svc.GetResource(ctx, 1, 5, "res-2")
	require.NoError(t, err)
	assert.Equal(t, "https://gopl.io", stored.URL)

	_, err = svc.UpdateResource(ctx, 1, 5, "res-9", UpdateResourceInput{Title: &title})
	requireAppError(t, err, models.CodeNotFound, "Resource not found")

	require.NoError(t, svc.DeleteResource(ctx, 1, 5, "res-1"))
	requireAppError(t, svc.DeleteResource(ctx, 1, 5, "res-1"), models.CodeNotFound, "Resource not found")

	remaining, err := svc.ListResources(ctx, 1, 5)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "res-2", remaining[0].ID)

	require.NoError(t, svc.DeleteResource(ctx, 1, 5, "res-2"))
	emptied, err := svc.ListResources(ctx, 1, 5)
	require.NoError(t, err)
	assert.Empty(t, emptied)

	requireAppError(t, svc.DeleteResource(ctx, 2, 5, "res-2"), models.CodeNotFound, "Goal not found")
}
