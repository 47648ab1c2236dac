package migrate

import (
	"context"
	"fmt"

	"github.com/franchisehub/backoffice/pkg/config"
	"github.com/franchisehub/backoffice/pkg/db"
	"github.com/franchisehub/backoffice/pkg/logger"
)

// MaybeRun applies the embedded migrations at boot when the feature flag is
// enabled. Production only auto-migrates when running on SQLite.
func MaybeRun(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.FeatureFlags.AutoMigrate {
		return nil
	}
	if cfg.App.IsProd() && client.Dialect() != db.DialectSQLite {
		logg.Warn(ctx, "auto migrate ignored in prod; run cmd/migrate instead")
		return nil
	}

	sqlDB, err := client.SQL()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "dialect": client.Dialect()})
	logg.Info(ctx, "running goose migrations (auto-run)")

	applied, err := UpEmbedded(ctx, sqlDB, client.Dialect())
	if err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}

	logg.Info(logg.WithField(ctx, "applied", applied), "goose migrations completed")
	return nil
}
