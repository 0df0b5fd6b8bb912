package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/reliefline/disaster-response-api/api/handlers"
	"github.com/reliefline/disaster-response-api/api/scheduler"
	"github.com/reliefline/disaster-response-api/config"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// a missing .env is fine, the environment may already be populated
	_ = godotenv.Load()

	a := handlers.App{}
	a.Config = *config.New()

	ctx := context.Background()
	if err := a.Initialize(ctx); err != nil { //initialize database and router
		zap.S().Fatalw("failed to initialize", "error", err)
	}

	retrier := scheduler.NewScheduler(a.Service, a.Config.GeocodeRetrySchedule)
	if err := retrier.Start(); err != nil {
		zap.S().Warnw("geocode retry job disabled", "error", err)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%v", a.Config.Port),
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zap.S().Infow("disaster-response-api is up and running",
			"port", a.Config.Port,
			"url", a.Config.BaseURL,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.S().Fatalw("server stopped", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zap.S().Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	retrier.Stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.S().Errorw("failed to shut down server", "error", err)
	}
	if err := a.Close(shutdownCtx); err != nil {
		zap.S().Errorw("failed to close connections", "error", err)
	}
}
