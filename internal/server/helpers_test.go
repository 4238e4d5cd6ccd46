package server

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"devhabit/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHumanizeParam(t *testing.T) {
	tests := map[string]string{
		"id":         "ID",
		"userId":     "user ID",
		"goalId":     "goal ID",
		"resourceId": "resource ID",
		"myGoalId":   "my goal ID",
		"slug":       "slug",
	}
	for in, want := range tests {
		assert.Equal(t, want, humanizeParam(in), in)
	}
}

func TestBearerToken(t *testing.T) {
	tests := map[string]string{
		"Bearer abc":      "abc",
		"  Bearer  abc  ": "abc",
		"bearer abc":      "",
		"Basic abc":       "",
		"Bearer":          "",
		"":                "",
	}
	for header, want := range tests {
		assert.Equal(t, want, bearerToken(header), header)
	}
}

func TestParseStrictBody(t *testing.T) {
	type item struct {
		Name string `json:"name"`
	}
	type payload struct {
		Title *string `json:"title"`
		Items *[]item `json:"items"`
	}

	app := fiber.New()
	app.Post("/", func(c *fiber.Ctx) error {
		var p payload
		if err := parseStrictBody(c, &p); err != nil {
			return nil
		}
		return c.JSON(p)
	})

	tests := []struct {
		name        string
		body        string
		contentType string
		status      int
		message     string
	}{
		{name: "known field", body: `{"title":"ok"}`, status: http.StatusOK},
		{name: "known field any case", body: `{"Title":"ok"}`, status: http.StatusOK},
		{name: "empty object", body: `{}`, status: http.StatusOK},
		{name: "json with charset", body: `{"title":"ok"}`, contentType: "application/json; charset=utf-8", status: http.StatusOK},
		{name: "unknown nested key ignored", body: `{"items":[{"name":"a","colour":"red"}]}`, status: http.StatusOK},
		{name: "unknown field", body: `{"title":"ok","owner":1}`, status: http.StatusBadRequest, message: `Field "owner" cannot be updated`},
		{name: "first unknown field wins", body: `{"zeta":1,"alpha":2}`, status: http.StatusBadRequest, message: `Field "alpha" cannot be updated`},
		{name: "malformed", body: `{"title":`, status: http.StatusBadRequest, message: "Invalid request body"},
		{name: "null document", body: `null`, status: http.StatusBadRequest, message: "Invalid request body"},
		{name: "array document", body: `[]`, status: http.StatusBadRequest, message: "Invalid request body"},
		{name: "trailing document", body: `{"title":"a"}{"title":"b"}`, status: http.StatusBadRequest, message: "Invalid request body"},
		{name: "wrong type", body: `{"title":5}`, status: http.StatusBadRequest, message: "Invalid request body"},
		{name: "form encoded", body: `title=ok`, contentType: "application/x-www-form-urlencoded", status: http.StatusBadRequest, message: "Invalid request body"},
		{name: "no content type", body: `{"title":"ok"}`, contentType: "-", status: http.StatusBadRequest, message: "Invalid request body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(tt.body))
			switch tt.contentType {
			case "":
				req.Header.Set("Content-Type", "application/json")
			case "-":
			default:
				req.Header.Set("Content-Type", tt.contentType)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.status, resp.StatusCode)

			if tt.message != "" {
				var body models.ErrorResponse
				require.NoError(t, jsonDecode(resp, &body))
				assert.Equal(t, tt.message, body.Error)
				assert.Equal(t, models.CodeValidation, body.Code)
			}
		})
	}
}

func TestJSONFieldNames(t *testing.T) {
	type base struct {
		ID uint `json:"id"`
	}
	type req struct {
		base
		Title   string `json:"title,omitempty"`
		Skipped string `json:"-"`
		Plain   string
		hidden  string
	}

	assert.Equal(t, map[string]bool{"id": true, "title": true, "plain": true}, jsonFieldNames(reflect.TypeOf(&req{})))
}

func TestErrorHandler(t *testing.T) {
	s := &Server{}
	app := fiber.New(fiber.Config{ErrorHandler: s.ErrorHandler})
	app.Get("/boom", func(c *fiber.Ctx) error { return errors.New("db exploded") })
	app.Get("/teapot", func(c *fiber.Ctx) error { return fiber.NewError(fiber.StatusTeapot, "short and stout") })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/boom", nil))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	var body models.ErrorResponse
	require.NoError(t, jsonDecode(resp, &body))
	assert.Equal(t, "Something broke!", body.Error)
	assert.Equal(t, models.CodeInternal, body.Code)

	resp2, err := app.Test(httptest.NewRequest(http.MethodGet, "/teapot", nil))
	require.NoError(t, err)
	defer func() { _ = resp2.Body.Close() }()
	assert.Equal(t, http.StatusTeapot, resp2.StatusCode)

	resp3, err := app.Test(httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	require.NoError(t, err)
	defer func() { _ = resp3.Body.Close() }()
	assert.Equal(t, http.StatusNotFound, resp3.StatusCode)
}

func TestRespondServiceError(t *testing.T) {
	app := fiber.New()
	app.Get("/:kind", func(c *fiber.Ctx) error {
		switch c.Params("kind") {
		case "missing":
			return respondServiceError(c, models.NewNotFoundError("Goal not found"))
		case "invalid":
			return respondServiceError(c, models.NewValidationError("bad", models.FieldError{Field: "title", Message: "required"}))
		default:
			return respondServiceError(c, models.NewInternalError(errors.New("connection reset")))
		}
	})

	tests := []struct {
		path   string
		status int
		error  string
	}{
		{"/missing", http.StatusNotFound, "Goal not found"},
		{"/invalid", http.StatusBadRequest, "bad"},
		{"/internal", http.StatusInternalServerError, "Internal server error"},
	}
	for _, tt := range tests {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, tt.path, nil))
		require.NoError(t, err)
		var body models.ErrorResponse
		require.NoError(t, jsonDecode(resp, &body))
		_ = resp.Body.Close()

		assert.Equal(t, tt.status, resp.StatusCode, tt.path)
		assert.Equal(t, tt.error, body.Error, tt.path)
		assert.NotContains(t, body.Error, "connection reset")
	}
}
