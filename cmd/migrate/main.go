// Package main 订单审计库的迁移工具，支持 mysql 与 sqlite
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/MorseWayne/planet_shoes/internal/config"
	"github.com/MorseWayne/planet_shoes/internal/database"
	"github.com/MorseWayne/planet_shoes/internal/logger"
)

const usage = `Usage: %s -action=[up|down|goto|force] [options]

Options:
  -action string   up, down, goto, force (default "up")
  -steps int       number of steps for down (default 1)
  -target uint     target version for goto or force
  -dir string      migrations directory (default $MIGRATIONS_DIR or migrations/<driver>)

Examples:
  DB_DRIVER=sqlite DB_PATH=audit.db ./migrate -action=up
  ./migrate -action=down -steps=1
  ./migrate -action=goto -target=1
  ./migrate -action=force -target=0
`

func main() {
	var (
		action = flag.String("action", "up", "Migration action: up, down, goto, force")
		steps  = flag.Int("steps", 1, "Number of steps for down migration")
		target = flag.Uint("target", 0, "Target version for goto or force")
		dir    = flag.String("dir", "", "Migrations directory")
	)
	flag.Usage = func() { fmt.Fprintf(os.Stderr, usage, os.Args[0]) }
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	lg, err := logger.New(cfg.App.Env, cfg.Log.Level, cfg.Log.Encoding, "migrate", cfg.App.Version)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	migrationsDir := cfg.Migrations.Dir
	if *dir != "" {
		migrationsDir = *dir
	}

	db, err := database.New(cfg, lg)
	if err != nil {
		lg.Sugar().Fatalw("failed to connect to database", "driver", cfg.Database.Driver, "error", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			lg.Sugar().Errorw("failed to close database", "error", err)
		}
	}()

	slg := lg.Sugar().With("driver", db.Driver(), "dir", migrationsDir)

	switch *action {
	case "up":
		slg.Info("running up migrations")
		err = db.RunMigrations(migrationsDir)
	case "down":
		slg.Infow("running down migrations", "steps", *steps)
		err = db.MigrateDown(migrationsDir, *steps)
	case "goto":
		if *target == 0 {
			slg.Fatal("target version must be specified for goto")
		}
		slg.Infow("migrating to version", "target", *target)
		err = db.MigrateToVersion(migrationsDir, *target)
	case "force":
		// 版本 0 表示回到无迁移状态
		slg.Warnw("forcing migration version, dirty state will be cleared", "target", *target)
		err = db.ForceMigrationVersion(migrationsDir, *target)
	default:
		flag.Usage()
		os.Exit(2)
	}

	if err != nil {
		slg.Fatalw("migration failed", "action", *action, "error", err)
	}
	slg.Infow("migration completed", "action", *action)
}
