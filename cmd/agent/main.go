package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"almapos/internal/cloudstore"
	"almapos/internal/config"
	"almapos/internal/infra"
	"almapos/internal/localstore"
	"almapos/internal/repository"
	"almapos/internal/router"
	"almapos/internal/sync"
	"almapos/internal/worker"

	"cloud.google.com/go/firestore"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
)

func main() {
	// Structured logger — dev: pretty, prod: JSON
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// A register without its local store is unusable: fail fast, the
	// supervisor restarts the agent.
	db, err := localstore.Open(filepath.Join(cfg.DataDir, "almapos.db"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open local store")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	conn := infra.NewConnectivity(cfg.ConnectivityURL, 0)
	go conn.Run(ctx)

	// The cloud store is optional: a register without Firestore credentials
	// runs stand-alone and every record simply stays pending.
	var cloud cloudstore.Store = cloudstore.Deshabilitado{}
	if cfg.FirestoreProjectID != "" && cfg.CompanyID != "" {
		var opts []option.ClientOption
		if cfg.FirestoreCredentials != "" {
			opts = append(opts, option.WithCredentialsFile(cfg.FirestoreCredentials))
		}
		client, err := firestore.NewClient(ctx, cfg.FirestoreProjectID, opts...)
		if err != nil {
			log.Error().Err(err).Msg("firestore client failed, sync disabled")
		} else {
			defer client.Close()
			cloud = cloudstore.NewFirestore(client, cfg.CompanyID, conn.Online)
		}
	} else {
		log.Warn().Msg("no cloud store configured, sync disabled")
	}

	engine := sync.New(db, cloud)
	scheduler := sync.NewScheduler(engine, time.Duration(cfg.SyncIntervalSeconds)*time.Second, conn.Restored())
	go scheduler.Run(ctx)

	// Async workers: fiscal authorization and closing reports.
	afipClient := infra.NewAFIPClient(cfg.AFIPSidecarURL, cfg.AFIPCUITEmisor, cfg.AFIPPuntoVenta)
	mailer := infra.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPFrom, cfg.SMTPRecipients())
	ventaRepo := repository.NewVentaRepository(db)

	dispatcher := worker.NewDispatcher(0)
	dispatcher.Register(worker.JobFacturacion, worker.NewFacturacionWorker(afipClient, ventaRepo))
	dispatcher.Register(worker.JobEmail, worker.NewEmailWorker(mailer))
	dispatcher.StartWorkerPool(ctx, cfg.WorkerPoolSize)

	retry := worker.NewRetryCron(dispatcher, ventaRepo, 0)
	go retry.Run(ctx)

	r := router.New(cfg, db, conn, afipClient, engine, scheduler, dispatcher)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("almapos agent listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down agent…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("agent exited")
}
