package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/chatling/chatling/pkg/repository/sqlite"
	"github.com/chatling/chatling/pkg/utils/logging"
)

func cmdMigrate() *cli.Command {
	var dsn string

	return &cli.Command{
		Name:    "migrate",
		Aliases: []string{"m"},
		Usage:   "Create or update the SQLite schema",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "database-dsn",
				Usage:       "SQLite database path",
				Required:    true,
				Sources:     cli.EnvVars("CHATLING_DATABASE_DSN"),
				Destination: &dsn,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()

			// New applies the schema on open
			repo, err := sqlite.New(ctx, dsn)
			if err != nil {
				return goerr.Wrap(err, "failed to migrate database", goerr.V("dsn", dsn))
			}
			if err := repo.Close(); err != nil {
				return goerr.Wrap(err, "failed to close database")
			}

			logger.Info("Migration completed", "dsn", dsn)
			return nil
		},
	}
}
