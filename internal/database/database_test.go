package database

import (
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/MorseWayne/planet_shoes/internal/config"
)

func TestDSN(t *testing.T) {
	driver, dsn, err := DSN(config.DatabaseConfig{
		Driver: "mysql", User: "root", Password: "pw", Host: "db", Port: 3306, DBName: "planet_shoes",
	})
	if err != nil {
		t.Fatalf("DSN() error = %v", err)
	}
	if driver != DriverMySQL || !strings.HasPrefix(dsn, "root:pw@tcp(db:3306)/planet_shoes?") || !strings.Contains(dsn, "parseTime=true") {
		t.Errorf("unexpected mysql dsn: %s %s", driver, dsn)
	}

	driver, dsn, err = DSN(config.DatabaseConfig{Driver: "sqlite", Path: "/tmp/a.db"})
	if err != nil || driver != DriverSQLite || !strings.HasPrefix(dsn, "/tmp/a.db?") {
		t.Errorf("unexpected sqlite dsn: %s %s %v", driver, dsn, err)
	}

	if _, _, err := DSN(config.DatabaseConfig{Driver: "oracle"}); err == nil {
		t.Error("expected error for unsupported driver")
	}
}

func TestSQLiteMigrations(t *testing.T) {
	cfg := &config.Config{Database: config.DatabaseConfig{
		Driver: DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "audit.db"),
	}}

	db, err := New(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer db.Close()

	dir := filepath.Join("..", "..", "migrations", "sqlite")
	if err := db.RunMigrations(dir); err != nil {
		t.Fatalf("RunMigrations() error = %v", err)
	}
	// 再次执行无变化
	if err := db.RunMigrations(dir); err != nil {
		t.Fatalf("second RunMigrations() error = %v", err)
	}

	if _, err := db.Exec(`INSERT INTO order_requests (session_id, username, style, article, size, quantity, price, status)
		VALUES ('s', 'u@x.mx', '3390', '101', '25', 1, '499.90', 'submitted')`); err != nil {
		t.Fatalf("insert after migration: %v", err)
	}

	if err := db.MigrateDown(dir, 1); err != nil {
		t.Fatalf("MigrateDown() error = %v", err)
	}
	if _, err := db.Exec(`SELECT 1 FROM order_requests`); err == nil {
		t.Error("table should be dropped after rollback")
	}

	if err := db.MigrateToVersion(dir, 1); err != nil {
		t.Fatalf("MigrateToVersion() error = %v", err)
	}
	if err := db.ForceMigrationVersion(dir, 1); err != nil {
		t.Fatalf("ForceMigrationVersion() error = %v", err)
	}
}
