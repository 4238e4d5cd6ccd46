package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"devhabit/internal/config"
	"devhabit/internal/database"
	"devhabit/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const testPassword = "secret123"

func testConfig() *config.Config {
	return &config.Config{
		Port:           "0",
		Env:            "test",
		JWTSecret:      "test-secret-key-that-is-long-enough-for-hs256",
		TokenTTLHours:  1,
		BcryptCost:     bcrypt.MinCost,
		AllowedOrigins: "*",
		DBMaxOpenConns: 1,
	}
}

// newTestServer builds a server backed by an in-memory SQLite database.
func newTestServer(t *testing.T) (*Server, *fiber.App, *gorm.DB) {
	t.Helper()
	t.Setenv("APP_ENV", "test")

	cfg := testConfig()
	db, err := database.Open(sqlite.Open(":memory:"), cfg)
	require.NoError(t, err)

	s, err := NewServerWithDeps(cfg, db, nil)
	require.NoError(t, err)
	return s, s.NewApp(), db
}

// doJSON sends body as JSON (a string is sent verbatim) and returns status and raw response.
func doJSON(t *testing.T, app *fiber.App, method, path, token string, body any) (int, []byte) {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return out
}

func errorMessage(t *testing.T, raw []byte) string {
	t.Helper()
	return decode[models.ErrorResponse](t, raw).Error
}

func registerUser(t *testing.T, app *fiber.App, username, email string) uint {
	t.Helper()
	status, raw := doJSON(t, app, http.MethodPost, "/api/v1/users/register", "", fiber.Map{
		"username": username,
		"email":    email,
		"password": testPassword,
	})
	require.Equal(t, http.StatusCreated, status, string(raw))
	return decode[struct {
		UserID uint `json:"userId"`
	}](t, raw).UserID
}

func loginUser(t *testing.T, app *fiber.App, email string) string {
	t.Helper()
	status, raw := doJSON(t, app, http.MethodPost, "/api/v1/users/login", "", fiber.Map{
		"email":    email,
		"password": testPassword,
	})
	require.Equal(t, http.StatusOK, status, string(raw))
	token := decode[struct {
		Token string `json:"token"`
	}](t, raw).Token
	require.NotEmpty(t, token)
	return token
}

// signUp registers a user and logs them in.
func signUp(t *testing.T, app *fiber.App, username string) (uint, string) {
	t.Helper()
	email := username + "@example.com"
	id := registerUser(t, app, username, email)
	return id, loginUser(t, app, email)
}

func createGoal(t *testing.T, app *fiber.App, token string, body fiber.Map) models.Goal {
	t.Helper()
	status, raw := doJSON(t, app, http.MethodPost, "/api/v1/goals", token, body)
	require.Equal(t, http.StatusCreated, status, string(raw))
	return decode[models.Goal](t, raw)
}

func jsonDecode(resp *http.Response, out any) error {
	return json.NewDecoder(resp.Body).Decode(out)
}
