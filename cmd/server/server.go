package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"jan-server/services/conversation-api/internal/config"
	"jan-server/services/conversation-api/internal/infrastructure/crontab"
	"jan-server/services/conversation-api/internal/infrastructure/logger"
	"jan-server/services/conversation-api/internal/infrastructure/observability"
	"jan-server/services/conversation-api/internal/interfaces/httpserver"
)

type Application struct {
	httpServer *httpserver.HttpServer
	crontab    *crontab.Crontab
	config     *config.Config
}

// @title Jan Server Conversation API
// @version 1.0
// @description Branching conversation store: message trees, branch switching, rewind and public share snapshots.
// @contact.name Jan Server Team
// @contact.url https://github.com/janhq/jan-server
// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func (application *Application) Start(ctx context.Context) error {
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return application.crontab.Run(ctx, application.config)
	})
	eg.Go(func() error {
		return application.httpServer.Run(ctx)
	})
	return eg.Wait()
}

func main() {
	if err := run(); err != nil {
		log := logger.GetLogger()
		log.Fatal().Err(err).Msg("application stopped with error")
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := CreateApplication()
	if err != nil {
		return fmt.Errorf("create application: %w", err)
	}

	// CreateApplication installs the configured logger globally
	log := logger.GetLogger()

	otelShutdown, err := observability.Setup(ctx, application.config, log)
	if err != nil {
		log.Error().Err(err).Msg("initialize observability")
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := otelShutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("shutdown telemetry")
			}
		}()
	}

	if err := application.Start(ctx); err != nil {
		return err
	}
	log.Info().Msg("application exited cleanly")
	return nil
}
