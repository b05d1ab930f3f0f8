// Package testutil opens the Postgres database used by integration tests.
package testutil

import (
	"os"
	"testing"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"p9e.in/fieldreport/config"
)

// DB connects to TEST_DB_DSN and runs migrations. Tests calling it are
// skipped when the variable is not set.
func DB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set, skipping database test")
	}
	zap.ReplaceGlobals(zap.NewNop())

	db, err := config.Connect(config.DatabaseConfig{DSN: dsn, MaxOpenConns: 5, MaxIdleConns: 1, LogLevel: "silent"})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := config.Migrations(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}
