// Command admin runs one-off maintenance tasks against the opsdesk database.
package main

import (
	"context"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"go.uber.org/zap"

	"opsdesk/internal/cache"
	"opsdesk/internal/config"
	"opsdesk/internal/database"
	"opsdesk/internal/database/migration"
	"opsdesk/internal/logger"
	"opsdesk/internal/repository/postgres"
	"opsdesk/internal/service"
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.LogLevel, cfg.Location())
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	e := &env{
		out:     os.Stdout,
		connect: postgresBackend(cfg, log),
	}
	if err := newRootCmd(e).Execute(); err != nil {
		log.Sync()
		os.Exit(1)
	}
}

func postgresBackend(cfg *config.AppConfig, log *zap.Logger) func(context.Context) (*backend, error) {
	return func(ctx context.Context) (*backend, error) {
		db, err := database.NewPostgres(ctx, cfg.Database, logger.Component(log, "database"))
		if err != nil {
			return nil, err
		}
		// Account changes invalidate the API's cached analytics.
		c, closeCache := cache.FromConfig(ctx, cfg.Redis, logger.Component(log, "cache"))
		repo := postgres.NewUserPostgres(db)
		return &backend{
			users:    service.NewUserService(repo, c, logger.Component(log, "service")),
			userRepo: repo,
			migrate: func(ctx context.Context) error {
				return migration.EnsureMigrated(ctx, db, log, cfg.Database.Host)
			},
			close: func() {
				closeCache()
				_ = db.Close()
			},
		}, nil
	}
}
