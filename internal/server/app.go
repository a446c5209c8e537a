// Package server initializes and runs the keydir server application.
// It selects a storage backend, wires the registry, auth and snapshot
// services to the HTTP endpoint, and handles graceful shutdown.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/keydir/internal/logging"
	"github.com/dmitrijs2005/keydir/internal/server/auth"
	"github.com/dmitrijs2005/keydir/internal/server/config"
	"github.com/dmitrijs2005/keydir/internal/server/httpapi"
	"github.com/dmitrijs2005/keydir/internal/server/registry"
	"github.com/dmitrijs2005/keydir/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/keydir/internal/server/snapshot"
)

type App struct {
	config *config.Config
	logger logging.Logger
	repos  repomanager.RepositoryManager
	server *httpapi.Server
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	rm, err := repomanager.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	rs := registry.NewService(rm.Entries())
	as := auth.NewService([]byte(cfg.SecretKey),
		cfg.AccessTokenValidityDuration, cfg.ChallengeValidityDuration)
	ss := snapshot.NewService(rm.Entries(), cfg)

	srv := httpapi.NewServer(cfg.EndpointAddr, logger, rs, as, ss, cfg.AdminSigners)

	return &App{config: cfg, logger: logger, repos: rm, server: srv}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "starting keydir server",
		"addr", app.config.EndpointAddr, "backend", app.config.StorageBackend)

	app.initSignalHandler(cancelFunc)

	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
	}

	if err := app.repos.Close(); err != nil {
		app.logger.Error(ctx, err.Error())
	}
}
