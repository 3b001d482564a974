// Command scorerd serves the write-to-earn content scoring API.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/writetoearn/scorer/internal/api"
	"github.com/writetoearn/scorer/internal/auth"
	"github.com/writetoearn/scorer/internal/config"
	"github.com/writetoearn/scorer/internal/fetcher"
	"github.com/writetoearn/scorer/internal/scheduler"
	"github.com/writetoearn/scorer/internal/scorer"
	"github.com/writetoearn/scorer/internal/store"
	"github.com/writetoearn/scorer/internal/tools"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to config file")
	flag.Parse()

	godotenv.Load()

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if err := run(*configPath, log); err != nil {
		log.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(configPath string, log *slog.Logger) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	auditStore, err := store.New(cfg.Store.Path, log)
	if err != nil {
		return err
	}
	defer auditStore.Close()

	credentials := auth.NewCredentialStore(cfg.Twitter.CookieDir)
	sessions := auth.NewSessionManager(
		cfg.Twitter.Username,
		auth.Strategies(cfg.Twitter, credentials),
		credentials,
		log,
	)

	threads := fetcher.New(sessions, log)
	articles := fetcher.NewArticleFetcher()
	registry := tools.NewContentRegistry(threads, articles)

	scoring := scorer.New(
		scorer.NewModelClient(cfg.Scoring.APIKey),
		registry,
		scorer.Options{
			Model:       cfg.Scoring.Model,
			MaxSteps:    cfg.Scoring.MaxSteps,
			StepTimeout: time.Duration(cfg.Scoring.StepTimeoutSecs) * time.Second,
			PromptDir:   cfg.Scoring.PromptDir,
		},
		auditStore,
		log,
	)

	jobs, err := scheduler.New(cfg.Scheduler.Timezone, log)
	if err != nil {
		return err
	}
	if err := jobs.AddJob("session-liveness", cfg.Scheduler.LivenessSchedule, func(ctx context.Context) error {
		return sessions.Probe(ctx)
	}); err != nil {
		return err
	}
	retention := time.Duration(cfg.Store.RetentionDays) * 24 * time.Hour
	if err := jobs.AddJob("exchange-prune", cfg.Scheduler.PruneSchedule, func(ctx context.Context) error {
		removed, err := auditStore.Prune(ctx, retention)
		if err != nil {
			return err
		}
		log.Info("pruned exchanges", "removed", removed)
		return nil
	}); err != nil {
		return err
	}
	jobs.Start()
	defer jobs.Stop()

	handler := api.NewHandler(scoring, auditStore, cfg.Server.Production, log)
	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.NewRouter(handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", cfg.Server.Addr, "production", cfg.Server.Production)
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		log.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}
