// Package server wires the development remote: storage backend, gRPC entity
// services and graceful shutdown on signals.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/daybook/internal/common"
	"github.com/dmitrijs2005/daybook/internal/logging"
	"github.com/dmitrijs2005/daybook/internal/server/config"
	"github.com/dmitrijs2005/daybook/internal/server/repositories/repomanager"

	gs "github.com/dmitrijs2005/daybook/internal/server/grpc"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	manager repomanager.RepositoryManager
	server  *gs.GRPCServer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewStdoutLogger(slog.LevelInfo)

	m, err := repomanager.Open(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if c.DatabaseDSN == "" {
		logger.Warn(ctx, "no database DSN, entities are kept in memory")
	}
	if c.SecretKey == "" {
		logger.Warn(ctx, "no secret key, access tokens are not checked")
	}

	s := gs.NewGRPCServer(c.EndpointAddrGRPC, logger, m.Entities(), c.SecretKey, common.KindTasks, common.KindJournal)

	return &App{config: c, logger: logger, manager: m, server: s}, nil
}

func (app *App) initSignalHandler(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
}

// Run serves until ctx is done or a termination signal arrives.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := app.initSignalHandler(ctx)
	defer stop()

	app.logger.Info(ctx, "Starting app...")

	err := app.server.Run(ctx)
	if cerr := app.manager.Close(); cerr != nil {
		app.logger.Error(ctx, "closing storage", "error", cerr)
	}
	if err != nil {
		return err
	}

	app.logger.Info(ctx, "App stopped")
	return nil
}
