package migrate

import (
	"context"
	"fmt"

	"github.com/angelmondragon/pos-terminal/pkg/config"
	"github.com/angelmondragon/pos-terminal/pkg/db"
	"github.com/angelmondragon/pos-terminal/pkg/logger"
)

// MaybeRunDev brings the schema up at startup. SQLite terminals always AutoMigrate; postgres
// runs the embedded goose migrations only in dev with the auto-migrate flag on.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if cfg.FeatureFlags.UseSQLite {
		logg.Info(ctx, "auto migrating sqlite schema")
		return client.AutoMigrate(ctx)
	}
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}
	runner, err := NewRunner(sqlDB, "")
	if err != nil {
		return err
	}

	applied, err := runner.Up(ctx)
	if err != nil {
		return err
	}
	logg.Info(logg.WithField(ctx, "applied", applied), "schema migrations applied")
	return nil
}
