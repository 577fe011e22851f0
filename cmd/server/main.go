package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ferreteria/internal/config"
	"ferreteria/internal/infra"
	"ferreteria/internal/repository"
	"ferreteria/internal/router"
	"ferreteria/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.Env == "production" {
		// JSON logs in production, pretty console elsewhere
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	if err := infra.RunMigrations(db); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	// Async pipeline — worker handlers are wired here (composition root) so
	// the pool has full access to all infrastructure dependencies.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sunatClient := infra.NewSUNATClient(cfg.SUNATSidecarURL)
	sunatCB := infra.NewCircuitBreaker(infra.DefaultCBConfig())
	mailer := infra.NewMailer(cfg)
	dispatcher := worker.NewDispatcher(rdb)

	comprobanteRepo := repository.NewComprobanteRepository(db)
	fiscalRepo := repository.NewFiscalRepository(db)

	comprobanteWorker := worker.NewComprobanteWorker(
		comprobanteRepo, fiscalRepo, sunatClient, sunatCB, dispatcher, cfg.PDFStoragePath)
	worker.StartWorkerPool(ctx, rdb, worker.QueueComprobantes, cfg.WorkerPoolSize,
		map[string]worker.Handler{"comprobante": comprobanteWorker})
	worker.StartWorkerPool(ctx, rdb, worker.QueueEmail, 2,
		map[string]worker.Handler{"email": worker.NewEmailWorker(mailer)})

	worker.StartRetryCron(ctx, worker.RetryCronConfig{
		Comprobantes: comprobanteRepo,
		CB:           sunatCB,
		Dispatcher:   dispatcher,
		RDB:          rdb,
	})

	r := router.New(cfg, db, rdb, sunatCB, dispatcher)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("ferreteria backend listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server exited")
}
