package db

import (
	"context"
	"embed"
	"fmt"
	"log"
	"strings"

	"github.com/pressly/goose/v3"
	"github.com/readyresponse/dispatch/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

var DB *gorm.DB

// ConnectDatabase opens the Postgres database and stores it in DB.
func ConnectDatabase(dsn string) (*gorm.DB, error) {
	conn, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})

	if err != nil {
		return nil, err
	}

	DB = conn
	return conn, nil
}

// OpenSQLite opens a SQLite database with foreign keys enforced. Writes are
// funnelled through a single connection so row locking degrades to
// database-level serialization.
func OpenSQLite(dsn string) (*gorm.DB, error) {
	if !strings.Contains(dsn, "_foreign_keys") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "_foreign_keys=on"
	}

	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})

	if err != nil {
		return nil, err
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	return conn, nil
}

// MigrateDatabase runs the embedded goose migrations on Postgres and falls
// back to AutoMigrate for other dialects.
func MigrateDatabase(conn *gorm.DB) error {
	if conn.Dialector.Name() != "postgres" {
		return conn.AutoMigrate(
			&models.User{},
			&models.Incident{},
			&models.Resource{},
			&models.ResourceAssignment{},
			&models.Message{},
			&models.Notification{},
		)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}

	goose.SetBaseFS(migrationFS)

	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	if err := goose.UpContext(context.Background(), sqlDB, "migrations"); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	log.Println("Database migrations applied")
	return nil
}

// MigrationStatus prints the state of every embedded migration.
func MigrationStatus(conn *gorm.DB) error {
	if conn.Dialector.Name() != "postgres" {
		return fmt.Errorf("migration status is only tracked on postgres, got %s", conn.Dialector.Name())
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}

	goose.SetBaseFS(migrationFS)

	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	return goose.StatusContext(context.Background(), sqlDB, "migrations")
}

// Ping checks that the database answers.
func Ping(ctx context.Context, conn *gorm.DB) error {
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
