// Package app orchestrates the bot session: broker connection, signal
// intake, live reporting, and shutdown.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pocketSignalBot/internal/dispatch"
	"pocketSignalBot/internal/ledger"
	"pocketSignalBot/internal/ports"
	"pocketSignalBot/internal/report"
)

const defaultReportInterval = time.Second

// Service wires the signal source into the dispatcher and keeps the session
// report refreshed until shutdown.
type Service struct {
	logger     ports.Logger
	broker     ports.BrokerGateway
	source     ports.SignalSource
	dispatcher *dispatch.Dispatcher
	ledger     *ledger.Ledger
	renderer   *report.Renderer

	reportInterval time.Duration
	csvExportPath  string
}

// Config holds the service dependencies.
type Config struct {
	Logger     ports.Logger
	Broker     ports.BrokerGateway
	Source     ports.SignalSource
	Dispatcher *dispatch.Dispatcher
	Ledger     *ledger.Ledger
	Renderer   *report.Renderer

	ReportInterval time.Duration
	CSVExportPath  string // Session CSV written on shutdown; empty disables export
}

// NewService creates a new application service instance.
func NewService(cfg Config) (*Service, error) {
	if cfg.Logger == nil || cfg.Broker == nil || cfg.Source == nil || cfg.Dispatcher == nil || cfg.Ledger == nil || cfg.Renderer == nil {
		return nil, fmt.Errorf("missing required dependencies for Service")
	}
	interval := cfg.ReportInterval
	if interval <= 0 {
		interval = defaultReportInterval
	}
	return &Service{
		logger:         cfg.Logger,
		broker:         cfg.Broker,
		source:         cfg.Source,
		dispatcher:     cfg.Dispatcher,
		ledger:         cfg.Ledger,
		renderer:       cfg.Renderer,
		reportInterval: interval,
		csvExportPath:  cfg.CSVExportPath,
	}, nil
}

// Start runs the session until a shutdown signal arrives or the signal
// source dies. A dead source is fatal: without intake the session has
// nothing left to do, so Start returns an error for main to act on.
func (s *Service) Start(ctx context.Context) error {
	s.logger.Info(ctx, "Starting signal bot session...")

	// Create a context that can be canceled by signals
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			s.logger.Info(ctx, "Received shutdown signal", map[string]interface{}{"signal": sig.String()})
			cancel()
		case <-ctx.Done():
		}
	}()

	// --- Initialization Steps ---
	// 1. Establish the broker session.
	if err := s.broker.Connect(ctx); err != nil {
		s.logger.Error(ctx, err, "Failed to connect to broker")
		return fmt.Errorf("failed to connect to broker: %w", err)
	}

	// 2. Seed the ledger with the real opening capital.
	balance, err := s.broker.GetBalance(ctx)
	if err != nil {
		s.logger.Error(ctx, err, "Failed to fetch opening balance")
		return fmt.Errorf("failed to fetch opening balance: %w", err)
	}
	s.ledger.SetOpeningBalance(balance)
	s.logger.Info(ctx, "Opening balance fetched", map[string]interface{}{"balance": balance})

	// 3. Start the signal source. Every message funnels into the dispatcher,
	// which decides whether it is a tradable signal.
	sourceDone, err := s.source.Start(ctx, func(rawText string, channelID int64) {
		s.dispatcher.OnSignal(ctx, rawText, channelID)
	})
	if err != nil {
		s.logger.Error(ctx, err, "Failed to start signal source")
		return fmt.Errorf("failed to start signal source: %w", err)
	}

	// --- Main Loop ---
	ticker := time.NewTicker(s.reportInterval)
	defer ticker.Stop()

	var runErr error
loop:
	for {
		select {
		case <-ctx.Done():
			s.logger.Info(ctx, "Shutting down...")
			break loop
		case <-sourceDone:
			runErr = fmt.Errorf("%w: signal source terminated", ports.ErrListenerStopped)
			s.logger.Error(ctx, runErr, "Signal source died, aborting session")
			break loop
		case <-ticker.C:
			s.renderer.Render(s.ledger.Snapshot(), s.ledger.Stats())
		}
	}

	s.shutdown(ctx)
	return runErr
}

// shutdown stops intake, drains in-flight execution tasks, and writes the
// final session report.
func (s *Service) shutdown(ctx context.Context) {
	s.source.Stop()

	s.logger.Info(ctx, "Waiting for in-flight trades to finish...")
	s.dispatcher.Wait()

	records := s.ledger.Snapshot()
	s.renderer.Render(records, s.ledger.Stats())

	if s.csvExportPath != "" {
		if err := report.WriteSessionCSV(records, s.csvExportPath); err != nil {
			s.logger.Error(ctx, err, "Failed to export session CSV", map[string]interface{}{"path": s.csvExportPath})
		} else {
			s.logger.Info(ctx, "Session CSV exported", map[string]interface{}{"path": s.csvExportPath, "records": len(records)})
		}
	}

	s.logger.Info(ctx, "Session finished")
}
