package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hray3182/LifeLedger/internal/ai"
	"github.com/hray3182/LifeLedger/internal/api"
	"github.com/hray3182/LifeLedger/internal/config"
	"github.com/hray3182/LifeLedger/internal/cron"
	"github.com/hray3182/LifeLedger/internal/preferences"
	"github.com/hray3182/LifeLedger/internal/repository"
	"github.com/hray3182/LifeLedger/internal/seed"
	"github.com/hray3182/LifeLedger/internal/service"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the recurring scheduler",
		RunE:  runServe,
	}
	cmd.Flags().Int("port", 8080, "listen port")
	cmd.Flags().Bool("migrate", true, "apply database migrations on startup")
	cmd.Flags().Bool("scheduler", true, "process due recurring transactions in the background")
	_ = viper.BindPFlag(config.KeyPort, cmd.Flags().Lookup("port"))
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if err := cfg.ValidateServer(); err != nil {
		return err
	}
	runMigrations, _ := cmd.Flags().GetBool("migrate")
	runScheduler, _ := cmd.Flags().GetBool("scheduler")

	defaults, err := seed.Defaults()
	if err != nil {
		return err
	}
	deps := api.Deps{
		Defaults:     defaults,
		JWTSecret:    []byte(cfg.JWTSecret),
		CronSecret:   cfg.CronSecret,
		RateLimitMax: cfg.RateLimitMax,
	}

	if cfg.AIEnabled() {
		deps.Parser = ai.New(cfg.AIAPIKey, cfg.AIBaseURL, cfg.AIModel)
		slog.Info("AI quick add enabled", "model", cfg.AIModel)
	} else {
		slog.Info("AI client not configured, quick add disabled")
	}

	if cfg.DatabaseURI == "" {
		slog.Warn("DATABASE_URI is not set, serving health and cron hooks only")
	} else {
		db, err := openDB(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		if runMigrations {
			if err := db.Migrate(ctx); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}
			slog.Info("Database migrations completed")
		}

		svc := service.New(db, service.Stores{
			Transactions: repository.NewTransactionRepository(db),
			Recurring:    repository.NewRecurringRepository(db),
			Categories:   repository.NewCategoryRepository(db),
			Planning:     repository.NewPlanningRepository(db),
			NetWorth:     repository.NewNetWorthRepository(db),
			Members:      repository.NewMemberRepository(db),
		}, cfg.Location)
		prefs := preferences.New(db, repository.NewPreferenceRepository(db))

		processor, err := newProcessor(db)
		if err != nil {
			return err
		}

		deps.Ledger = svc
		deps.Cron = processor
		deps.Preferences = prefs

		if runScheduler {
			sched := cron.NewScheduler(processor, cfg.CronInterval)
			sched.AddJob("purge-preferences", prefs.Purge)
			go sched.Start(ctx)
		}
	}

	app := api.New(deps)
	errCh := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		slog.Info("HTTP server listening", "addr", addr)
		errCh <- app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down HTTP server")
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return nil
}
