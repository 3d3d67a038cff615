package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"go.uber.org/zap"

	"github.com/ivanslavinskyi/ai-antiscam-bot/internal/admin_chats"
	"github.com/ivanslavinskyi/ai-antiscam-bot/internal/config"
	"github.com/ivanslavinskyi/ai-antiscam-bot/internal/llm_client"
	"github.com/ivanslavinskyi/ai-antiscam-bot/internal/metrics"
	"github.com/ivanslavinskyi/ai-antiscam-bot/internal/moderation"
	"github.com/ivanslavinskyi/ai-antiscam-bot/internal/notifier"
	"github.com/ivanslavinskyi/ai-antiscam-bot/internal/repository"
	"github.com/ivanslavinskyi/ai-antiscam-bot/internal/server"
	"github.com/ivanslavinskyi/ai-antiscam-bot/internal/telegram_bot"
)

func main() {
	// Load configuration first so the log level can follow it
	cfgPath := "configs/config.yml"
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		fallback, _ := zap.NewDevelopment()
		fallback.Fatal("Failed to load config", zap.Error(err))
	}

	var logger *zap.Logger
	if cfg.Debug {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = logger.Sync() // Flushes buffer, if any
	}()

	for _, raw := range cfg.Moderation.InvalidAdminChatIDs {
		logger.Warn("Invalid admin chat id in config, skipping", zap.String("value", raw))
	}
	if len(cfg.Moderation.AdminChatIDs) == 0 {
		logger.Warn("No global admin chats configured; cards go only to chats bound via /as_set_admin_chat")
	}

	// The HTTP API slice logs through logrus
	log := logrus.New()
	if cfg.Debug {
		log.SetLevel(logrus.DebugLevel)
	}

	// Database connection
	db, err := repository.NewPostgresDB(cfg.Database.URL, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	repository.MigrateDB(db, logger)

	// Initialize repositories
	chatRepo := repository.NewChatRepository(db, logger)
	userRepo := repository.NewUserRepository(db, logger)
	memberRepo := repository.NewMemberRepository(db, logger)
	recordRepo := repository.NewRecordRepository(db, logger)

	resolver := admin_chats.NewResolver(chatRepo, cfg.Moderation.AdminChatIDs, logger)
	recorder := metrics.NewRecorder(cfg.Metrics.Enabled)

	// Classifier client
	classifier := llm_client.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.Model, logger)

	// Telegram transport
	bot, err := telegram_bot.NewBot(cfg, resolver, chatRepo, recordRepo, logger)
	if err != nil {
		logger.Fatal("Failed to initialize Telegram bot", zap.Error(err))
	}

	// Moderation pipeline; the bot is both its transport and its card
	// sender, so the pipeline is attached after construction.
	router := notifier.NewRouter(resolver, bot, recorder, logger)
	overrideSvc := notifier.NewOverrideService(resolver, userRepo, recordRepo, bot, recorder, logger)
	orchestrator := moderation.NewOrchestrator(
		cfg.Moderation.ConfidenceThreshold,
		bot,
		classifier,
		resolver,
		chatRepo,
		userRepo,
		memberRepo,
		recordRepo,
		router,
		recorder,
		logger,
	)
	bot.SetPipeline(orchestrator, overrideSvc)

	// Context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Run the Telegram bot in a goroutine
	go func() {
		if err := bot.Start(ctx); err != nil {
			logger.Error("Telegram bot failed", zap.Error(err))
		}
	}()

	// Initialize and run the admin API server
	srv := server.NewServer(db, cfg, log, logger)
	go srv.Run(":" + cfg.Server.Port)

	<-ctx.Done()
	logger.Info("Application stopped.")
}
