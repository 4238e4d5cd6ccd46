package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"testing"

	"devhabit/internal/models"
	"devhabit/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addResource(t *testing.T, app *fiber.App, token string, goalID uint, body fiber.Map) models.Library {
	t.Helper()
	status, raw := doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/v1/libraries/%d/resources", goalID), token, body)
	require.Equal(t, http.StatusCreated, status, string(raw))
	return decode[models.Library](t, raw)
}

func TestResources_Lifecycle(t *testing.T) {
	_, app, db := newTestServer(t)
	_, token := signUp(t, app, "nina")
	goal := createGoal(t, app, token, fiber.Map{"title": "Learn Go", "category": "Learning Language"})
	base := fmt.Sprintf("/api/v1/libraries/%d/resources", goal.ID)

	status, raw := doJSON(t, app, http.MethodGet, base, token, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "No resources found for this goal", errorMessage(t, raw))

	status, raw = doJSON(t, app, http.MethodGet, base+"/missing", token, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Library not found for this goal", errorMessage(t, raw))

	library := addResource(t, app, token, goal.ID, fiber.Map{
		"type":        "book",
		"title":       "  <b>Effective</b> Go ",
		"url":         " https://go.dev/doc/effective_go ",
		"description": "<script>alert(1)</script>Official guide",
	})
	assert.Equal(t, goal.ID, library.GoalID)
	require.Len(t, library.Resources, 1)
	first := library.Resources[0]
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, "Effective Go", first.Title)
	assert.Equal(t, "https://go.dev/doc/effective_go", first.URL)
	assert.Equal(t, "Official guide", first.Description)

	library = addResource(t, app, token, goal.ID, fiber.Map{
		"type": "video", "title": "Concurrency is not parallelism", "url": "http://youtu.be/oV9rvDllKEg",
	})
	require.Len(t, library.Resources, 2)
	second := library.Resources[1]
	assert.NotEqual(t, first.ID, second.ID)

	var count int64
	require.NoError(t, db.Model(&models.Library{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	status, raw = doJSON(t, app, http.MethodGet, base, token, nil)
	require.Equal(t, http.StatusOK, status)
	resources := decode[[]models.Resource](t, raw)
	require.Len(t, resources, 2)
	assert.Equal(t, first.ID, resources[0].ID)

	status, raw = doJSON(t, app, http.MethodGet, base+"/"+second.ID, token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "video", decode[models.Resource](t, raw).Type)

	status, raw = doJSON(t, app, http.MethodPut, base+"/"+second.ID, token, fiber.Map{"title": "Rob Pike talk"})
	require.Equal(t, http.StatusOK, status, string(raw))
	updated := decode[models.Resource](t, raw)
	assert.Equal(t, "Rob Pike talk", updated.Title)
	assert.Equal(t, "http://youtu.be/oV9rvDllKEg", updated.URL)

	status, raw = doJSON(t, app, http.MethodPut, base+"/"+second.ID, token, `{"rating": 5}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, `Field "rating" cannot be updated`, errorMessage(t, raw))

	status, _ = doJSON(t, app, http.MethodPut, base+"/"+second.ID, token, fiber.Map{"url": "ftp://example.com"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, raw = doJSON(t, app, http.MethodDelete, base+"/"+first.ID, token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Resource deleted successfully", decode[map[string]string](t, raw)["message"])

	status, raw = doJSON(t, app, http.MethodGet, base+"/"+first.ID, token, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Resource not found", errorMessage(t, raw))

	status, _ = doJSON(t, app, http.MethodDelete, base+"/"+first.ID, token, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = doJSON(t, app, http.MethodDelete, base+"/"+second.ID, token, nil)
	require.Equal(t, http.StatusOK, status)

	// An emptied library is kept.
	status, raw = doJSON(t, app, http.MethodGet, base, token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, "[]", string(raw))
}

func TestAddResource_Validation(t *testing.T) {
	_, app, db := newTestServer(t)
	_, token := signUp(t, app, "omar")
	goal := createGoal(t, app, token, fiber.Map{"title": "Graphs", "category": "Algorithm Mastery"})
	base := fmt.Sprintf("/api/v1/libraries/%d/resources", goal.ID)

	tests := []struct {
		name  string
		body  fiber.Map
		field string
	}{
		{name: "bad url", body: fiber.Map{"type": "article", "title": "x", "url": "example.com"}, field: "url"},
		{name: "url with space", body: fiber.Map{"type": "article", "title": "x", "url": "https://exa mple.com"}, field: "url"},
		{name: "missing type", body: fiber.Map{"title": "x", "url": "https://example.com"}, field: "type"},
		{name: "markup only title", body: fiber.Map{"type": "article", "title": "<i></i>", "url": "https://example.com"}, field: "title"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, raw := doJSON(t, app, http.MethodPost, base, token, tt.body)
			require.Equal(t, http.StatusBadRequest, status, string(raw))
			resp := decode[models.ErrorResponse](t, raw)
			require.NotEmpty(t, resp.Fields)
			assert.Equal(t, tt.field, resp.Fields[0].Field)
		})
	}

	// Rejected resources never create a library.
	var count int64
	require.NoError(t, db.Model(&models.Library{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestResources_RequireGoalOwnership(t *testing.T) {
	_, app, _ := newTestServer(t)
	_, owner := signUp(t, app, "pat")
	_, other := signUp(t, app, "quinn")
	goal := createGoal(t, app, owner, fiber.Map{"title": "Owner goal", "category": "Project Development"})
	library := addResource(t, app, owner, goal.ID, fiber.Map{"type": "repo", "title": "Repo", "url": "https://github.com/golang/go"})
	base := fmt.Sprintf("/api/v1/libraries/%d/resources", goal.ID)
	one := base + "/" + library.Resources[0].ID

	requests := []struct {
		method string
		path   string
		body   any
	}{
		{http.MethodPost, base, fiber.Map{"type": "repo", "title": "x", "url": "https://example.com"}},
		{http.MethodGet, base, nil},
		{http.MethodGet, one, nil},
		{http.MethodPut, one, fiber.Map{"title": "mine now"}},
		{http.MethodDelete, one, nil},
	}
	for _, r := range requests {
		t.Run(r.method+" "+r.path, func(t *testing.T) {
			status, raw := doJSON(t, app, r.method, r.path, other, r.body)
			assert.Equal(t, http.StatusNotFound, status)
			assert.Equal(t, "Goal not found", errorMessage(t, raw))
		})
	}

	status, _ := doJSON(t, app, http.MethodGet, "/api/v1/libraries/9999/resources", owner, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestUpdateResource_ConcurrentLastWriteWins(t *testing.T) {
	s, app, _ := newTestServer(t)
	userID, token := signUp(t, app, "rosa")
	goal := createGoal(t, app, token, fiber.Map{"title": "Concurrency", "category": "Learning Language"})
	library := addResource(t, app, token, goal.ID, fiber.Map{"type": "book", "title": "original", "url": "https://example.com"})
	resourceID := library.Resources[0].ID

	const writers = 8
	titles := make([]string, writers)
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		titles[i] = fmt.Sprintf("title-%d", i)
		wg.Add(1)
		go func(title string) {
			defer wg.Done()
			_, err := s.libraryService.UpdateResource(context.Background(), userID, goal.ID, resourceID, service.UpdateResourceInput{Title: &title})
			errs <- err
		}(titles[i])
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	status, raw := doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/v1/libraries/%d/resources", goal.ID), token, nil)
	require.Equal(t, http.StatusOK, status)
	resources := decode[[]models.Resource](t, raw)
	require.Len(t, resources, 1)
	assert.Contains(t, titles, resources[0].Title)
}
