package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/SergioBezerra-apps/distribuicao-processos-del260/internal/app"
	"github.com/SergioBezerra-apps/distribuicao-processos-del260/internal/config"
	"github.com/SergioBezerra-apps/distribuicao-processos-del260/internal/db"
	httpapi "github.com/SergioBezerra-apps/distribuicao-processos-del260/internal/http"
	"github.com/SergioBezerra-apps/distribuicao-processos-del260/internal/http/handlers"
	"github.com/SergioBezerra-apps/distribuicao-processos-del260/internal/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	zerolog.TimeFieldFormat = time.RFC3339
	level, _ := zerolog.ParseLevel(cfg.LogLevel)
	logger := log.Level(level).With().Str("service", "distribuicao").Logger()

	settings, err := config.LoadRunSettings(cfg.RunConfigPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load run settings")
	}

	ctx := context.Background()
	var (
		store  *db.Store
		reader handlers.RunReader
	)
	if cfg.DatabaseURL != "" {
		store, err = db.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect db")
		}
		defer store.Close()
		reader = store
	} else {
		logger.Warn().Msg("DATABASE_URL not set, run history disabled")
	}

	collector := metrics.New(nil, "")
	svc, err := app.NewService(ctx, cfg, store, collector, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build processing service")
	}

	router := httpapi.Router(cfg, reader, svc, settings, collector, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.RequestTimeout,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctxShutdown)
	logger.Info().Msg("server stopped")
}
