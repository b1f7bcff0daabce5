//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"

	"github.com/eslsoft/flashnet/internal/adapter/connectrpc"
	"github.com/eslsoft/flashnet/internal/adapter/repository"
	"github.com/eslsoft/flashnet/internal/adapter/rest"
	"github.com/eslsoft/flashnet/internal/infrastructure/auth"
	"github.com/eslsoft/flashnet/internal/infrastructure/config"
	"github.com/eslsoft/flashnet/internal/infrastructure/server"
	"github.com/eslsoft/flashnet/internal/usecase"
	"github.com/eslsoft/flashnet/internal/usecase/learning"
)

var configSet = wire.NewSet(
	config.Load,
	server.NewLogger,
)

var databaseSet = wire.NewSet(
	provideDatabase,
)

var repositorySet = wire.NewSet(
	repository.NewCategoryRepository,
	repository.NewFlashcardRepository,
)

var usecaseSet = wire.NewSet(
	usecase.NewCategoryUsecase,
	usecase.NewFlashcardUsecase,
	provideSessionManager,
)

var serviceSet = wire.NewSet(
	rest.NewHandler,
	connectrpc.NewLearningServiceServer,
	wire.Bind(new(connectrpc.SessionHost), new(*learning.Manager)),
)

var serverSet = wire.NewSet(
	auth.NewAuthenticator,
	server.NewServer,
)

// Initialize builds the application container using Wire.
func Initialize() (*Container, func(), error) {
	wire.Build(
		configSet,
		databaseSet,
		repositorySet,
		usecaseSet,
		serviceSet,
		serverSet,
		wire.Struct(new(Container), "Config", "Logger", "Server", "Sessions"),
	)
	return nil, nil, nil
}

// InitializeTools builds the dependencies of the offline commands.
func InitializeTools() (*Tools, func(), error) {
	wire.Build(
		configSet,
		databaseSet,
		repositorySet,
		usecase.NewFlashcardUsecase,
		provideBackup,
		wire.Struct(new(Tools), "Config", "Logger", "Driver", "Flashcards", "Backup"),
	)
	return nil, nil, nil
}
