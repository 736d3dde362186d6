// Package database opens the record store and keeps its schema in step with the models.
package database

import (
	"database/sql"
	"fmt"
	"time"

	"threadline/internal/config"
	"threadline/internal/middleware"
	"threadline/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var (
	// DB is the primary (read-write) connection.
	DB *gorm.DB
	// ReadDB is the optional replica used by read-only queries.
	ReadDB *gorm.DB
)

// PersistentModels returns the schema-managed GORM models.
func PersistentModels() []any {
	return []any{
		&models.User{},
		&models.Community{},
		&models.CommunityMember{},
		&models.Thread{},
		&models.ThreadEdge{},
		&models.ThreadLike{},
	}
}

// Migrate creates or updates every table the service owns.
func Migrate(db *gorm.DB) error {
	if err := db.SetupJoinTable(&models.User{}, "Communities", &models.CommunityMember{}); err != nil {
		return fmt.Errorf("setup community_members join table: %w", err)
	}
	if err := db.SetupJoinTable(&models.Community{}, "Members", &models.CommunityMember{}); err != nil {
		return fmt.Errorf("setup community_members join table: %w", err)
	}
	if err := db.AutoMigrate(PersistentModels()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// DSN builds a libpq-style connection string.
func DSN(host, port, user, password, name, sslMode string) string {
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, name, sslMode,
	)
}

// Open parses dsn with pgx and hands the resulting pool to GORM.
func Open(dsn string) (*gorm.DB, error) {
	pgxCfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid database settings: %w", err)
	}
	pgxCfg.RuntimeParams["application_name"] = "threadline"

	sqlDB := stdlib.OpenDB(*pgxCfg)
	configurePool(sqlDB)

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: NewGormLogger(middleware.Logger),
	})
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

func configurePool(sqlDB *sql.DB) {
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)
}

// Connect opens the primary database (and the replica when DB_READ_HOST is set).
func Connect(cfg *config.Config) (*gorm.DB, error) {
	db, err := Open(DSN(cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSSLMode))
	if err != nil {
		return nil, err
	}
	middleware.Logger.Info("Database connected successfully")

	if !cfg.IsProduction() {
		if err := Migrate(db); err != nil {
			return nil, err
		}
		middleware.Logger.Info("Database migration completed")
	}

	DB = db
	ReadDB = nil
	if cfg.DBReadHost != "" {
		replica, err := Open(DSN(cfg.DBReadHost, cfg.DBReadPort, cfg.DBReadUser, cfg.DBReadPassword, cfg.DBName, cfg.DBSSLMode))
		if err != nil {
			middleware.Logger.Warn("read replica unavailable, using primary", "error", err)
		} else {
			ReadDB = replica
		}
	}
	return DB, nil
}

// GetReadDB returns the replica when one is connected, otherwise the primary.
func GetReadDB() *gorm.DB {
	if ReadDB != nil {
		return ReadDB
	}
	return DB
}

// Close releases both pools.
func Close() error {
	for _, db := range []*gorm.DB{ReadDB, DB} {
		if db == nil {
			continue
		}
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		if err := sqlDB.Close(); err != nil {
			return err
		}
	}
	return nil
}
