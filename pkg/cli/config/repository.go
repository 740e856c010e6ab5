package config

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/chatling/chatling/pkg/domain/interfaces"
	"github.com/chatling/chatling/pkg/repository/memory"
	"github.com/chatling/chatling/pkg/repository/sqlite"
	"github.com/chatling/chatling/pkg/utils/logging"
)

// Repository holds CLI flags for repository backend configuration
type Repository struct {
	backend string
	dsn     string
}

// Flags returns CLI flags for repository configuration
func (r *Repository) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "repository-backend",
			Usage:       "Repository backend type (sqlite or memory)",
			Value:       "sqlite",
			Category:    "Storage",
			Sources:     cli.EnvVars("CHATLING_REPOSITORY_BACKEND"),
			Destination: &r.backend,
		},
		&cli.StringFlag{
			Name:        "database-dsn",
			Usage:       "SQLite database path (required when using sqlite backend)",
			Category:    "Storage",
			Sources:     cli.EnvVars("CHATLING_DATABASE_DSN"),
			Destination: &r.dsn,
		},
	}
}

// DSN returns the configured database DSN
func (r *Repository) DSN() string {
	return r.dsn
}

// Configure initializes and returns a repository based on the configured
// backend. The caller is responsible for calling Close() on the returned
// repository.
func (r *Repository) Configure(ctx context.Context) (interfaces.Repository, error) {
	switch r.backend {
	case "sqlite":
		if r.dsn == "" {
			return nil, goerr.New("database-dsn is required when using sqlite backend")
		}
		repo, err := sqlite.New(ctx, r.dsn)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to initialize sqlite repository")
		}
		logging.Default().Info("Using SQLite repository", "dsn", r.dsn)
		return repo, nil

	case "memory":
		logging.Default().Info("Using in-memory repository (development mode)")
		return memory.New(), nil

	default:
		return nil, goerr.New("invalid repository backend", goerr.V("backend", r.backend))
	}
}
