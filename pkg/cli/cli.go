package cli

import (
	"context"

	"github.com/joho/godotenv"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/chatling/chatling/pkg/cli/config"
	"github.com/chatling/chatling/pkg/utils/logging"
)

func Run(ctx context.Context, args []string, version string) error {
	var loggerCfg config.Logger
	var envFile string
	var closer func()

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "env",
			Usage:       "Load environment variables from the given dotenv file",
			Sources:     cli.EnvVars("CHATLING_ENV_FILE"),
			Destination: &envFile,
		},
	}
	flags = append(flags, loggerCfg.Flags()...)

	app := &cli.Command{
		Name:    "chatling",
		Usage:   "Webhook-driven conversational agent with summarized long-term memory",
		Version: version,
		Flags:   flags,
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			if envFile != "" {
				if err := godotenv.Load(envFile); err != nil {
					return ctx, goerr.Wrap(err, "failed to load dotenv file", goerr.V("path", envFile))
				}
			}

			f, err := loggerCfg.Configure()
			if err != nil {
				return ctx, err
			}
			closer = f

			logging.Default().Info("Starting chatling", "logger", loggerCfg.LogValue())
			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			if closer != nil {
				closer()
			}
			return nil
		},
		Commands: []*cli.Command{
			cmdServe(),
			cmdMigrate(),
		},
	}

	if err := app.Run(ctx, args); err != nil {
		logging.Default().Error("failed to run app", "error", err)
		return err
	}

	return nil
}
