package main

import (
	"context"
	"log" // Use standard log only for initial fatal errors before logger is set up
	"os"

	"pocketSignalBot/config"
	"pocketSignalBot/internal/adapters/logger"
	"pocketSignalBot/internal/adapters/pocketoption"
	"pocketSignalBot/internal/adapters/sqlite"
	"pocketSignalBot/internal/adapters/telegram"
	"pocketSignalBot/internal/app"
	"pocketSignalBot/internal/dispatch"
	"pocketSignalBot/internal/engine"
	"pocketSignalBot/internal/ledger"
	"pocketSignalBot/internal/ports"
	"pocketSignalBot/internal/report"
	"pocketSignalBot/internal/schedule"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err) // Use standard log before logger is ready
	}

	// 2. Initialize Logger
	appLogger := logger.NewZeroLogger(logger.ParseLevel(cfg.LogLevel))
	appLogger.Info(context.Background(), "Logger initialized", map[string]interface{}{"level": cfg.LogLevel})

	// 3. Initialize Repository (Database Adapter)
	repo, err := sqlite.NewRepository(sqlite.Config{
		DBPath: cfg.DBPath,
		Logger: appLogger,
	})
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize database repository")
		log.Fatalf("FATAL: Failed to initialize database repository: %v", err) // Also log to stderr
	}
	defer func() {
		if err := repo.Close(); err != nil {
			appLogger.Error(context.Background(), err, "Error closing database repository")
		}
	}()
	appLogger.Info(context.Background(), "Database repository initialized")

	// 4. Initialize Broker Gateway (Pocket Option Adapter)
	broker, err := pocketoption.New(pocketoption.Config{
		Endpoint:             cfg.BrokerEndpoint,
		SessionID:            cfg.SessionID,
		Demo:                 cfg.Demo,
		Logger:               appLogger,
		ReconnectDelay:       cfg.ReconnectDelay,
		MaxReconnectAttempts: cfg.MaxReconnectAttempts,
	})
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize broker gateway")
		log.Fatalf("FATAL: Failed to initialize broker gateway: %v", err)
	}
	defer broker.Close()
	appLogger.Info(context.Background(), "Broker gateway initialized", map[string]interface{}{"demo": cfg.Demo})

	// 5. Initialize Execution Pipeline
	// Opening balance is re-seeded from the broker once the session connects.
	sessionLedger := ledger.New(0)
	scheduler := schedule.New(ports.RealClock{}, 0, appLogger)

	eng, err := engine.New(engine.Config{
		Broker:       broker,
		Ledger:       sessionLedger,
		Scheduler:    scheduler,
		TradeLog:     repo,
		Logger:       appLogger,
		PollInterval: cfg.OutcomePollInterval,
	})
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize execution engine")
		log.Fatalf("FATAL: Failed to initialize execution engine: %v", err)
	}

	dispatcher, err := dispatch.New(dispatch.Config{
		Executor: eng,
		Channels: cfg.Channels,
		Stake:    cfg.TradeAmount,
		Logger:   appLogger,
	})
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize dispatcher")
		log.Fatalf("FATAL: Failed to initialize dispatcher: %v", err)
	}
	appLogger.Info(context.Background(), "Execution pipeline initialized", map[string]interface{}{
		"tradeAmount": cfg.TradeAmount,
		"channels":    len(cfg.Channels),
	})

	// 6. Initialize Signal Source (Telegram Adapter)
	listener, err := telegram.NewListener(telegram.Config{
		Token:        cfg.TelegramToken,
		AllowedChats: cfg.AllowedChats(),
		PollTimeout:  cfg.PollTimeout,
		Logger:       appLogger,
	})
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize Telegram listener")
		log.Fatalf("FATAL: Failed to initialize Telegram listener: %v", err)
	}
	appLogger.Info(context.Background(), "Telegram listener initialized")

	// 7. Initialize Application Service
	service, err := app.NewService(app.Config{
		Logger:         appLogger,
		Broker:         broker,
		Source:         listener,
		Dispatcher:     dispatcher,
		Ledger:         sessionLedger,
		Renderer:       report.NewRenderer(os.Stdout, cfg.TradeAmount),
		ReportInterval: cfg.ReportInterval,
		CSVExportPath:  cfg.CSVExportPath,
	})
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize application service")
		log.Fatalf("FATAL: Failed to initialize application service: %v", err)
	}
	appLogger.Info(context.Background(), "Application service initialized")

	// 8. Start the Service
	// Use context.Background() as the base context for the application run
	if err := service.Start(context.Background()); err != nil {
		appLogger.Error(context.Background(), err, "Session exited with error")
		log.Fatalf("FATAL: Session exited with error: %v", err)
	}

	appLogger.Info(context.Background(), "Application finished gracefully.")
}
