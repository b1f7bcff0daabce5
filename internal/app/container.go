package app

import (
	"entgo.io/ent/dialect"
	"github.com/sirupsen/logrus"

	"github.com/eslsoft/flashnet/internal/infrastructure/config"
	"github.com/eslsoft/flashnet/internal/infrastructure/server"
	"github.com/eslsoft/flashnet/internal/usecase"
	"github.com/eslsoft/flashnet/internal/usecase/backup"
	"github.com/eslsoft/flashnet/internal/usecase/learning"
)

// Container aggregates the application dependencies produced by Wire.
type Container struct {
	Config   *config.Config
	Logger   *logrus.Logger
	Server   *server.Server
	Sessions *learning.Manager
}

// Tools is what the offline commands need, working directly against the
// configured database.
type Tools struct {
	Config     *config.Config
	Logger     *logrus.Logger
	Driver     dialect.Driver
	Flashcards usecase.FlashcardUsecase
	Backup     *backup.Service
}
