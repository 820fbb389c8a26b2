package migrate

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mpapenbr/pacelock/log"
	"github.com/mpapenbr/pacelock/pkg/cmd/util"
	"github.com/mpapenbr/pacelock/pkg/config"
	"github.com/mpapenbr/pacelock/pkg/db/migrate"
	"github.com/mpapenbr/pacelock/pkg/db/sqlite"
	"github.com/mpapenbr/pacelock/pkg/repository/factory"
)

func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "performs database migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return startMigration(cmd.Context())
		},
	}
}

func startMigration(ctx context.Context) error {
	if !factory.IsPostgres(config.DB) {
		path := sqlite.PathFromURL(config.DB)
		log.Info("Migrating sqlite database", log.String("path", path))
		if err := migrate.MigrateSqlite(path); err != nil {
			return fmt.Errorf("migrate %s: %w", path, err)
		}
		log.Info("Migration done")
		return nil
	}

	if err := util.WaitForDB(ctx); err != nil {
		return err
	}
	log.Info("Migrating postgres database")
	if err := migrate.MigrateDb(config.DB); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	log.Info("Migration done")
	return nil
}
