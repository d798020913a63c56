// Package database 提供订单审计库的连接与迁移功能，支持 MySQL 与 SQLite。
package database

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/MorseWayne/planet_shoes/internal/config"
)

// 支持的驱动
const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

// DB 封装数据库连接
type DB struct {
	*sql.DB
	logger *zap.Logger
	driver string
	dsn    string
}

// DSN 根据配置构建驱动名与连接串
func DSN(cfg config.DatabaseConfig) (string, string, error) {
	switch cfg.Driver {
	case DriverMySQL:
		return DriverMySQL, fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=true&loc=Local",
			cfg.User,
			cfg.Password,
			cfg.Host,
			cfg.Port,
			cfg.DBName,
		), nil
	case DriverSQLite:
		return DriverSQLite, cfg.Path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", nil
	default:
		return "", "", fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// New 创建数据库连接
func New(cfg *config.Config, logger *zap.Logger) (*DB, error) {
	driver, dsn, err := DSN(cfg.Database)
	if err != nil {
		return nil, err
	}

	sqlDB, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// 配置连接池；SQLite 单写者
	if driver == DriverSQLite {
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(10)
	}

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger.Info("database connected",
		zap.String("driver", driver),
		zap.String("host", cfg.Database.Host),
		zap.String("database", cfg.Database.DBName),
		zap.String("path", cfg.Database.Path),
	)

	return &DB{DB: sqlDB, logger: logger, driver: driver, dsn: dsn}, nil
}

// Driver 返回驱动名
func (db *DB) Driver() string {
	return db.driver
}

// newMigrator 为迁移打开独立连接，避免迁移出错影响主连接。
// 返回的 cleanup 关闭 migrate 实例及其持有的连接。
func (db *DB) newMigrator(migrationsDir string) (*migrate.Migrate, func(), error) {
	conn, err := sql.Open(db.driver, db.dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open database for migration: %w", err)
	}

	var driver migratedb.Driver
	switch db.driver {
	case DriverSQLite:
		driver, err = sqlite.WithInstance(conn, &sqlite.Config{})
	default:
		driver, err = mysql.WithInstance(conn, &mysql.Config{})
	}
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("create %s migration driver: %w", db.driver, err)
	}

	m, err := migrate.NewWithDatabaseInstance(fmt.Sprintf("file://%s", migrationsDir), db.driver, driver)
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("create migrate instance: %w", err)
	}

	return m, func() { _, _ = m.Close() }, nil
}

// currentVersion 读取当前版本，脏状态返回错误
func currentVersion(m *migrate.Migrate) (uint, error) {
	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return 0, fmt.Errorf("get current version: %w", err)
	}
	if dirty {
		return version, fmt.Errorf("database is in dirty state at version %d, please check and fix manually", version)
	}
	return version, nil
}

// RunMigrations 执行全部待执行的向上迁移
func (db *DB) RunMigrations(migrationsDir string) error {
	m, cleanup, err := db.newMigrator(migrationsDir)
	if err != nil {
		return err
	}
	defer cleanup()

	from, err := currentVersion(m)
	if err != nil {
		return err
	}
	db.logger.Info("current migration version", zap.Uint("version", from))

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			db.logger.Info("no new migrations to apply")
			return nil
		}
		return fmt.Errorf("run migrations: %w", err)
	}

	to, _, err := m.Version()
	if err != nil {
		return fmt.Errorf("get new version: %w", err)
	}

	db.logger.Info("migrations completed successfully",
		zap.Uint("from_version", from),
		zap.Uint("to_version", to),
	)
	return nil
}

// MigrateDown 回滚指定步数
func (db *DB) MigrateDown(migrationsDir string, steps int) error {
	m, cleanup, err := db.newMigrator(migrationsDir)
	if err != nil {
		return err
	}
	defer cleanup()

	from, err := currentVersion(m)
	if err != nil {
		return err
	}

	db.logger.Info("starting migration rollback",
		zap.Uint("current_version", from),
		zap.Int("steps", steps),
	)

	if err := m.Steps(-steps); err != nil {
		return fmt.Errorf("migrate down: %w", err)
	}

	to, _, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("get new version: %w", err)
	}

	db.logger.Info("migration rollback completed",
		zap.Uint("from_version", from),
		zap.Uint("to_version", to),
	)
	return nil
}

// MigrateToVersion 迁移到指定版本
func (db *DB) MigrateToVersion(migrationsDir string, version uint) error {
	m, cleanup, err := db.newMigrator(migrationsDir)
	if err != nil {
		return err
	}
	defer cleanup()

	from, err := currentVersion(m)
	if err != nil {
		return err
	}

	db.logger.Info("migrating to specific version",
		zap.Uint("current_version", from),
		zap.Uint("target_version", version),
	)

	if err := m.Migrate(version); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			db.logger.Info("already at target version", zap.Uint("version", version))
			return nil
		}
		return fmt.Errorf("migrate to version %d: %w", version, err)
	}

	db.logger.Info("migration to version completed",
		zap.Uint("from_version", from),
		zap.Uint("to_version", version),
	)
	return nil
}

// ForceMigrationVersion 强制设置迁移版本，仅用于修复脏状态
func (db *DB) ForceMigrationVersion(migrationsDir string, version uint) error {
	m, cleanup, err := db.newMigrator(migrationsDir)
	if err != nil {
		return err
	}
	defer cleanup()

	db.logger.Warn("forcing migration version", zap.Uint("version", version))

	if err := m.Force(int(version)); err != nil {
		return fmt.Errorf("force migration version: %w", err)
	}

	db.logger.Info("migration version forced successfully", zap.Uint("version", version))
	return nil
}
