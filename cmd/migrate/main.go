package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/pos-terminal/pkg/config"
	"github.com/angelmondragon/pos-terminal/pkg/db"
	"github.com/angelmondragon/pos-terminal/pkg/logger"
	"github.com/angelmondragon/pos-terminal/pkg/migrate"
)

func main() {
	_ = godotenv.Load()

	cmd := flag.String("cmd", "up", "up|down|status|to|create|check")
	dir := flag.String("dir", "", "migrations directory (empty uses the embedded set)")
	name := flag.String("name", "", "migration name for -cmd=create")
	target := flag.String("version", "", "target version (YYYYMMDDHHMMSS) for -cmd=to")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "pos-migrate"})
	ctx := logg.WithField(context.Background(), "cmd", *cmd)

	// create and check work on files only.
	switch *cmd {
	case "create":
		if *name == "" {
			fail(ctx, logg, "missing -name for create", nil)
		}
		out := *dir
		if out == "" {
			out = migrate.DefaultDir
		}
		file, err := migrate.NewFile(out, *name, time.Now())
		if err != nil {
			fail(ctx, logg, "create migration", err)
		}
		fmt.Println("created", file.Path)
		return
	case "check":
		files, err := migrate.Check(*dir)
		if err != nil {
			fail(ctx, logg, "check migrations", err)
		}
		fmt.Printf("%d migrations ok\n", len(files))
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fail(ctx, logg, "load config", err)
	}
	logg = logger.New(logger.Options{
		ServiceName: "pos-migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "sqlite": cfg.FeatureFlags.UseSQLite})

	dbClient, err := db.New(ctx, cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	if err != nil {
		fail(ctx, logg, "connect database", err)
	}
	defer dbClient.Close()

	if cfg.FeatureFlags.UseSQLite {
		if *cmd != "up" {
			fail(ctx, logg, "only -cmd=up is supported with sqlite", nil)
		}
		if err := dbClient.AutoMigrate(ctx); err != nil {
			fail(ctx, logg, "auto migrate sqlite", err)
		}
		logg.Info(ctx, "sqlite schema migrated")
		return
	}

	sqlDB, err := dbClient.DB().DB()
	if err != nil {
		fail(ctx, logg, "sql handle", err)
	}
	runner, err := migrate.NewRunner(sqlDB, *dir)
	if err != nil {
		fail(ctx, logg, "prepare migrations", err)
	}

	if err := execute(ctx, logg, runner, *cmd, *target); err != nil {
		fail(ctx, logg, "migration failed", err)
	}
}

func execute(ctx context.Context, logg *logger.Logger, runner *migrate.Runner, cmd, target string) error {
	switch cmd {
	case "up":
		applied, err := runner.Up(ctx)
		if err != nil {
			return err
		}
		logg.Info(logg.WithField(ctx, "applied", applied), "migrations applied")
	case "down":
		version, err := runner.Down(ctx)
		if err != nil {
			return err
		}
		logg.Info(logg.WithField(ctx, "version", version), "migration rolled back")
	case "status":
		states, err := runner.Status(ctx)
		if err != nil {
			return err
		}
		for _, st := range states {
			applied := "pending"
			if st.Applied {
				applied = st.AppliedAt.UTC().Format(time.RFC3339)
			}
			fmt.Printf("%d\t%-28s\t%s\n", st.Version, applied, st.Path)
		}
	case "to":
		version, err := strconv.ParseInt(target, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid -version %q: %w", target, err)
		}
		if err := runner.To(ctx, version); err != nil {
			return err
		}
		logg.Info(logg.WithField(ctx, "version", version), "migrated to version")
	default:
		return fmt.Errorf("unknown -cmd %q", cmd)
	}
	return nil
}

func fail(ctx context.Context, logg *logger.Logger, msg string, err error) {
	if err == nil {
		err = fmt.Errorf("%s", msg)
	}
	logg.Error(ctx, msg, err)
	os.Exit(1)
}
