package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"paypaladin/config"
	"paypaladin/internal/httpserver"
	"paypaladin/internal/middleware"
	tgDelivery "paypaladin/internal/payment/delivery/telegram"
	walletRepo "paypaladin/internal/payment/repository/sqlite"
	"paypaladin/internal/payment/usecase"
	"paypaladin/pkg/assistant"
	"paypaladin/pkg/log"
	"paypaladin/pkg/telegram"
	"paypaladin/pkg/xrpl"
)

func main() {
	// 1. Configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Failed to load config: ", err)
		return
	}

	// 2. Logger
	logger := log.Init(log.ZapConfig{
		Level:        cfg.Logger.Level,
		Mode:         cfg.Logger.Mode,
		Encoding:     cfg.Logger.Encoding,
		ColorEnabled: cfg.Logger.ColorEnabled,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info(ctx, "Starting PayPaladin...")
	logger.Infof(ctx, "Environment: %s", cfg.Environment.Name)

	// 3. Payment domain
	var telegramHandler tgDelivery.Handler

	if cfg.Telegram.BotToken != "" && cfg.OpenAI.APIKey != "" {
		logger.Info(ctx, "Initializing payment components...")

		// Telegram Bot client
		telegramBot := telegram.NewBot(cfg.Telegram.BotToken)

		// Language assistant (intent extraction + voice transcription)
		assistantClient := assistant.NewClient(assistant.Config{
			APIKey:             cfg.OpenAI.APIKey,
			BaseURL:            cfg.OpenAI.BaseURL,
			Model:              cfg.OpenAI.Model,
			TranscriptionModel: cfg.OpenAI.TranscriptionModel,
		})

		// XRP Ledger client
		ledgerClient := xrpl.NewClient(xrpl.Config{
			RPCURL:    cfg.XRPL.RPCURL,
			FaucetURL: cfg.XRPL.FaucetURL,
		})

		// Wallet repository
		wallets, repoErr := walletRepo.New(cfg.Wallet.DBPath, logger)
		if repoErr != nil {
			logger.Errorf(ctx, "Failed to open wallet store: %v", repoErr)
			return
		}
		defer wallets.Close()

		// Payment UseCase
		paymentUC := usecase.New(logger, assistantClient, telegramBot, assistantClient, ledgerClient, wallets, telegramBot, usecase.Config{
			ExtractTimeout: cfg.OpenAI.Timeout,
			SubmitTimeout:  cfg.XRPL.SubmitTimeout,
			RetryAttempts:  cfg.XRPL.RetryAttempts,
			RetryBaseDelay: cfg.XRPL.RetryBaseDelay,
			AbandonAfter:   cfg.Session.AbandonAfter,
			SweepInterval:  cfg.Session.SweepInterval,
		})

		// Telegram Delivery handler
		telegramHandler = tgDelivery.New(logger, paymentUC, telegramBot)

		// Register webhook when configured
		if cfg.Telegram.WebhookURL != "" {
			if whErr := telegramBot.SetWebhook(ctx, cfg.Telegram.WebhookURL); whErr != nil {
				logger.Warnf(ctx, "Failed to set Telegram webhook: %v", whErr)
			} else {
				logger.Infof(ctx, "Telegram webhook registered at %s", cfg.Telegram.WebhookURL)
			}
		}

		logger.Info(ctx, "Payment components initialized successfully")
	} else {
		logger.Warn(ctx, "Payment domain skipped: TELEGRAM_BOT_TOKEN or OPENAI_API_KEY is missing")
	}

	// 4. HTTP Server
	httpServer, err := httpserver.New(logger, httpserver.Config{
		Logger:          logger,
		Port:            cfg.HTTPServer.Port,
		Mode:            cfg.HTTPServer.Mode,
		Environment:     cfg.Environment.Name,
		TelegramHandler: telegramHandler,
		RateLimiter:     middleware.New(logger, cfg.Telegram.RateLimitPerMin),
	})
	if err != nil {
		logger.Error(ctx, "Failed to initialize HTTP server: ", err)
		return
	}

	// 5. Run
	if err := httpServer.Run(); err != nil {
		logger.Error(ctx, "Failed to run server: ", err)
		return
	}

	logger.Info(ctx, "Server stopped gracefully")
}
