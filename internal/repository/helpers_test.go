package repository

import (
	"fmt"
	"testing"
	"time"

	"threadline/internal/database"
	"threadline/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	return gormDB, mock
}

// setupTestDB returns a migrated in-memory SQLite database private to the test.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

func createUser(t *testing.T, db *gorm.DB, handle string) *models.User {
	t.Helper()
	u := &models.User{
		ExternalID: "ext_" + handle,
		Name:       handle,
		Username:   handle,
		Image:      fmt.Sprintf("https://img.test/%s.png", handle),
		Onboarded:  true,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func createRoot(t *testing.T, db *gorm.DB, author *models.User, text string, at time.Time) *models.Thread {
	t.Helper()
	th := &models.Thread{Text: text, AuthorID: author.ID, CreatedAt: at}
	require.NoError(t, NewThreadRepository(db).Create(t.Context(), th))
	return th
}

func createReply(t *testing.T, db *gorm.DB, author *models.User, parent *models.Thread, text string) *models.Thread {
	t.Helper()
	parentID := parent.ID
	th := &models.Thread{Text: text, AuthorID: author.ID, ParentID: &parentID}
	require.NoError(t, NewThreadRepository(db).CreateReply(t.Context(), th))
	return th
}
