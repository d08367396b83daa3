package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ormperfapi/config"
	"ormperfapi/logging"
	"ormperfapi/routers"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		bootLog := logging.New("info", os.Stderr)
		bootLog.Fatal().Err(err).Msg("load config")
	}

	logger := logging.New(cfg.LogLevel, os.Stdout)

	api, cleanup, err := routers.NewAPI(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("init api")
	}
	defer cleanup()

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      routers.Route(api, cfg, logger),
		WriteTimeout: 60 * time.Second,
		ReadTimeout:  60 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("listen")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("shutdown")
	}
}
