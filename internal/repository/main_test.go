package repository

import (
	"context"
	"regexp"
	"testing"

	"devhabit/internal/config"
	"devhabit/internal/database"
	"devhabit/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// newTestDB returns a migrated in-memory database private to the test.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(sqlite.Open(":memory:"), &config.Config{Env: "test", DBMaxOpenConns: 1})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func createUser(t *testing.T, db *gorm.DB, username, email string) *models.User {
	t.Helper()
	u := &models.User{Username: username, Email: email, Password: "hash"}
	require.NoError(t, NewUserRepository(db).Create(context.Background(), u))
	return u
}

func quote(sql string) string {
	return regexp.QuoteMeta(sql)
}
