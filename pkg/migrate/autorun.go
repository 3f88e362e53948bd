package migrate

import (
	"context"
	"fmt"

	"github.com/retailsignals/pricewise-backend/pkg/db"
	"github.com/retailsignals/pricewise-backend/pkg/logger"
)

// AutoRun brings the schema up to date on boot when the feature flag allows it.
// Intended for dev and review environments; production runs cmd/migrate explicitly.
func AutoRun(ctx context.Context, client *db.Client, logg *logger.Logger) error {
	if client == nil {
		return fmt.Errorf("db client is required")
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("unwrap sql.DB: %w", err)
	}

	logg.Info(logg.WithField(ctx, "dir", DefaultDir), "running database migrations")

	if err := Run(ctx, sqlDB, DefaultDir, "up"); err != nil {
		return err
	}

	logg.Info(ctx, "database migrations complete")
	return nil
}
