package bootstrap

import (
	"testing"

	"threadline/internal/database"
	"threadline/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestSeedIfEmpty(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.Migrate(db))

	require.NoError(t, seedIfEmpty(t.Context(), db))
	var users int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	assert.Positive(t, users)

	var threads int64
	require.NoError(t, db.Model(&models.Thread{}).Count(&threads).Error)

	// A populated database is left alone.
	require.NoError(t, seedIfEmpty(t.Context(), db))
	var again int64
	require.NoError(t, db.Model(&models.Thread{}).Count(&again).Error)
	assert.Equal(t, threads, again)
}

func TestRuntimeFlushTracesWithoutTracer(t *testing.T) {
	rt := &Runtime{}
	rt.FlushTraces(t.Context())
}
