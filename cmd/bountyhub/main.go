package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/GlebRadaev/bountyhub/internal/app"
	"github.com/rs/zerolog/log"
	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/zap"
)

//	@title			Bountyhub API
//	@version		1.0
//	@description	Task claiming, evidence review and reward settlement.

// @host						localhost:8080
// @BasePath					/
// @securityDefinitions.apikey	BearerAuth
// @in							header
// @name						Authorization
func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	app := app.New()
	err := app.Start(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Can't start application")
		zap.L().Fatal("Can't start application: ", zap.Error(err))
	}

	undo, err := maxprocs.Set(maxprocs.Logger(zap.S().Infof))
	defer undo()
	if err != nil {
		zap.L().Warn("failed to set GOMAXPROCS", zap.Error(err))
	}

	err = app.Wait(ctx, cancel)
	if err != nil {
		zap.L().Fatal("All systems closed with errors. LastError:", zap.Error(err))
	}

	zap.L().Info("All systems closed without errors")
}
