package app

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect"
	"github.com/sirupsen/logrus"

	"github.com/eslsoft/flashnet/internal/infrastructure/config"
	"github.com/eslsoft/flashnet/internal/infrastructure/database"
	"github.com/eslsoft/flashnet/internal/repository"
	"github.com/eslsoft/flashnet/internal/usecase/backup"
	"github.com/eslsoft/flashnet/internal/usecase/learning"
)

// provideDatabase opens the configured database and, when
// server.auto_migrate is set, applies the schema.
func provideDatabase(cfg *config.Config, logger *logrus.Logger) (dialect.Driver, func(), error) {
	ctx := context.Background()
	drv, cleanup, err := database.Open(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Server.AutoMigrate {
		if err := database.Migrate(ctx, drv); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("auto migrate: %w", err)
		}
		logger.Info("database schema up to date")
	}
	return drv, cleanup, nil
}

func provideSessionManager(cfg *config.Config, flashcards repository.FlashcardRepository, logger *logrus.Logger) *learning.Manager {
	opts := []learning.Option{learning.WithStoreTimeout(cfg.Session.StoreTimeout)}
	if cfg.Session.RollbackOnFailure {
		opts = append(opts, learning.WithWritePolicy(learning.WriteRollback))
	}
	return learning.NewManager(flashcards, cfg.Session.TTL, logger.WithField("component", "sessions"), opts...)
}

func provideBackup(cfg *config.Config, categories repository.CategoryRepository, flashcards repository.FlashcardRepository) *backup.Service {
	return backup.NewService(categories, flashcards, backup.WithBatchSize(cfg.Backup.BatchSize))
}
