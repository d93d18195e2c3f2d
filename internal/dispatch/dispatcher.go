// Package dispatch accepts inbound channel messages, parses them, and fans
// each valid signal out to its own execution task.
package dispatch

import (
	"context"
	"fmt"

	"pocketSignalBot/internal/domain"
	"pocketSignalBot/internal/parser"
	"pocketSignalBot/internal/ports"
)

// Executor runs one signal's chain to a terminal outcome. Satisfied by the
// martingale engine.
type Executor interface {
	Execute(ctx context.Context, signal domain.TradeSignal, stake float64, mtgl domain.MartingaleConfig) domain.TradeResult
}

// Dispatcher parses raw messages and spawns one independent execution task
// per valid signal. Failures inside a task stay contained to that task and
// its ledger records; they never abort other in-flight signals.
type Dispatcher struct {
	executor Executor
	channels map[int64]domain.MartingaleConfig
	stake    float64
	pool     *TaskPool
	logger   ports.Logger
}

// Config holds the dispatcher's dependencies.
type Config struct {
	Executor Executor
	Channels map[int64]domain.MartingaleConfig
	Stake    float64
	Logger   ports.Logger
}

// New creates a dispatcher.
func New(cfg Config) (*Dispatcher, error) {
	if cfg.Executor == nil || cfg.Logger == nil {
		return nil, fmt.Errorf("missing required dependencies for Dispatcher")
	}
	if cfg.Stake <= 0 {
		return nil, fmt.Errorf("%w: trade stake must be positive", ports.ErrConfigurationError)
	}
	return &Dispatcher{
		executor: cfg.Executor,
		channels: cfg.Channels,
		stake:    cfg.Stake,
		pool:     &TaskPool{},
		logger:   cfg.Logger,
	}, nil
}

// OnSignal handles one inbound message. Messages that do not parse into a
// complete signal are dropped. For valid signals it returns the handle of
// the launched execution task; otherwise nil.
func (d *Dispatcher) OnSignal(ctx context.Context, rawText string, channelID int64) *Handle {
	sig := parser.Parse(rawText)
	if sig == nil {
		d.logger.Debug(ctx, "message did not parse into a signal", map[string]interface{}{"channelID": channelID})
		return nil
	}
	sig.ChannelID = channelID

	mtgl, ok := d.channels[channelID]
	if !ok {
		mtgl = domain.DefaultMartingaleConfig()
	}

	d.logger.Info(ctx, "signal dispatched", map[string]interface{}{
		"pair":      sig.Pair,
		"direction": sig.Direction,
		"expiry":    sig.Expiry,
		"entryTime": sig.EntryTime,
		"channelID": channelID,
	})

	signal := *sig
	return d.pool.Go(func() {
		d.executor.Execute(ctx, signal, d.stake, mtgl)
	})
}

// Wait blocks until all in-flight execution tasks have finished.
func (d *Dispatcher) Wait() {
	d.pool.Wait()
}
