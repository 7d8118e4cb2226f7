// internal/database/databasetest/databasetest.go
package databasetest

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/vials-labs/vials-backend/internal/config"
	"github.com/vials-labs/vials-backend/internal/database"
)

// Open returns a migrated in-memory SQLite database private to the test.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := database.Initialize(config.DatabaseConfig{
		Driver:       "sqlite",
		SQLitePath:   "file:" + uuid.NewString() + "?mode=memory&cache=shared",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		LogLevel:     "silent",
	})
	require.NoError(t, err)
	require.NoError(t, database.RunMigrations(db))

	t.Cleanup(func() { database.Close(db) })
	return db
}
