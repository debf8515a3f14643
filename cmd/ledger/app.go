package main

import (
	"context"
	"log/slog"

	"github.com/hray3182/LifeLedger/internal/cron"
	"github.com/hray3182/LifeLedger/internal/database"
	"github.com/hray3182/LifeLedger/internal/notify"
	"github.com/hray3182/LifeLedger/internal/repository"
)

func openDB(ctx context.Context) (*database.DB, error) {
	if err := cfg.RequireDatabase(); err != nil {
		return nil, err
	}
	db, err := database.New(ctx, cfg.DatabaseURI, cfg.BranchDSNTemplate)
	if err != nil {
		return nil, err
	}
	slog.Info("Connected to database")
	return db, nil
}

// newProcessor builds the recurring processor, with Telegram notifications
// when a bot token is configured.
func newProcessor(db *database.DB) (*cron.Processor, error) {
	p := cron.NewProcessor(db, repository.NewRecurringRepository(db), repository.NewTransactionRepository(db), cfg.Location)
	if cfg.TelegramEnabled() {
		n, err := notify.NewTelegram(cfg.TelegramToken, cfg.TelegramChatID)
		if err != nil {
			return nil, err
		}
		p.SetNotifier(n)
		slog.Info("Telegram notifications enabled", "chat_id", cfg.TelegramChatID)
	}
	return p, nil
}
