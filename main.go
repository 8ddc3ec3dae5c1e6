package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"

	"github.com/example/arabot/internal/bot"
	"github.com/example/arabot/internal/config"
	"github.com/example/arabot/internal/database"
	"github.com/example/arabot/internal/leaderboard"
	"github.com/example/arabot/internal/scheduler"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// .env is optional, real deployments use environment variables.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client, err := database.Connect(ctx, cfg.MongoDB.URI)
	if err != nil {
		logger.Error("failed to connect to MongoDB", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			logger.Error("error disconnecting from MongoDB", "error", err)
		}
	}()

	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		logger.Error("failed to create bot API", "error", err)
		os.Exit(1)
	}

	store := database.NewMongoStore(client.Database(cfg.MongoDB.Database))
	configRepo := database.NewConfigRepository(store)
	tg := bot.NewClient(api, logger)
	loc := cfg.Location()

	b := bot.New(api, tg, configRepo, logger, loc)
	users := database.NewUserRepository(store, tg.Audit, b.Excluded)
	board := leaderboard.New(users, configRepo, tg, logger)
	b.Attach(users, board)

	sched := scheduler.New(board, users, configRepo, tg, tg.Audit, logger, loc)
	sched.Start()
	defer sched.Stop()

	// Run the update loop until a termination signal arrives.
	done := make(chan error, 1)
	go func() {
		done <- b.Start(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("received signal, shutting down", "signal", sig.String())
		cancel()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			logger.Warn("shutdown timed out")
		}
	case err := <-done:
		if err != nil && err != context.Canceled {
			logger.Error("bot stopped with error", "error", err)
			os.Exit(1)
		}
	}
	logger.Info("bot stopped")
}
