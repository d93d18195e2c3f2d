// Package engine drives one originating signal through placement,
// settlement, and the martingale loss-recovery ladder.
package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"pocketSignalBot/internal/domain"
	"pocketSignalBot/internal/ledger"
	"pocketSignalBot/internal/ports"
	"pocketSignalBot/internal/schedule"
)

// Engine places trades against the broker gateway and tracks every attempt
// in the ledger. One Execute call owns one signal's whole chain; retries
// within a chain are strictly sequential, while separate signals run in
// independent tasks.
type Engine struct {
	broker       ports.BrokerGateway
	ledger       *ledger.Ledger
	scheduler    *schedule.Scheduler
	tradeLog     ports.TradeLogRepository
	logger       ports.Logger
	clock        ports.Clock
	pollInterval time.Duration
}

// Config holds the engine's dependencies. TradeLog is optional; without it
// settled records live only in the in-memory ledger.
type Config struct {
	Broker       ports.BrokerGateway
	Ledger       *ledger.Ledger
	Scheduler    *schedule.Scheduler
	TradeLog     ports.TradeLogRepository
	Logger       ports.Logger
	Clock        ports.Clock
	PollInterval time.Duration
}

// New creates an execution engine.
func New(cfg Config) (*Engine, error) {
	if cfg.Broker == nil || cfg.Ledger == nil || cfg.Scheduler == nil || cfg.Logger == nil {
		return nil, fmt.Errorf("missing required dependencies for Engine")
	}
	if cfg.Clock == nil {
		cfg.Clock = ports.RealClock{}
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	return &Engine{
		broker:       cfg.Broker,
		ledger:       cfg.Ledger,
		scheduler:    cfg.Scheduler,
		tradeLog:     cfg.TradeLog,
		logger:       cfg.Logger,
		clock:        cfg.Clock,
		pollInterval: cfg.PollInterval,
	}, nil
}

// attempt is the accumulated state threaded through one chain of placements
// for a single signal.
type attempt struct {
	signal  domain.TradeSignal
	chainID string
	stake   float64
	level   int
}

// Execute runs a parsed signal to its terminal outcome. On loss it retries
// with an increased stake while the martingale ceiling allows, each retry as
// a separate chained record placed immediately, without re-waiting for the
// signal's entry time. The signal terminates on WIN, on any non-retryable
// outcome, or when the ceiling is exhausted.
func (e *Engine) Execute(ctx context.Context, signal domain.TradeSignal, stake float64, mtgl domain.MartingaleConfig) domain.TradeResult {
	op := "Execute"
	e.logger.Info(ctx, op+": signal accepted", map[string]interface{}{
		"pair":          signal.Pair,
		"direction":     signal.Direction,
		"expiry":        signal.Expiry,
		"entryTime":     signal.EntryTime,
		"channelID":     signal.ChannelID,
		"mtglEnabled":   mtgl.Enabled,
		"mtglMaxLevel":  mtgl.MaxLevel,
		"mtglIncrement": mtgl.IncrementPercent,
	})

	att := attempt{
		signal:  signal,
		chainID: uuid.NewString(),
		stake:   stake,
	}
	maxAttempts := mtgl.MaxAttempts()
	result := domain.ResultFailed

	for att.level < maxAttempts {
		idx := e.appendRecord(att)

		if att.level == 0 {
			if signal.HasEntryTime() {
				e.logger.Info(ctx, op+": waiting for entry time", map[string]interface{}{"pair": signal.Pair, "entryTime": signal.EntryTime})
				if err := e.awaitEntry(ctx, idx, signal.EntryTime); err != nil {
					e.logger.Error(ctx, err, op+": entry wait aborted", map[string]interface{}{"pair": signal.Pair})
					e.finalize(ctx, idx, domain.ResultFailed, "")
					return domain.ResultFailed
				}
			}
			if open := e.assetOpen(ctx, signal.Pair); !open {
				e.logger.Warn(ctx, op+": market closed, not risking stake", map[string]interface{}{"pair": signal.Pair})
				e.finalize(ctx, idx, domain.ResultMarketClosed, "")
				return domain.ResultMarketClosed
			}
		}

		result = e.placeAndSettle(ctx, idx, att)

		switch result {
		case domain.ResultWin:
			e.refreshBalance(ctx)
			e.logger.Info(ctx, op+": chain won", map[string]interface{}{"pair": signal.Pair, "level": att.level})
			return result

		case domain.ResultLoose:
			if !mtgl.Enabled || att.level+1 >= maxAttempts {
				e.logger.Info(ctx, op+": loss not retried", map[string]interface{}{
					"pair":        signal.Pair,
					"level":       att.level,
					"mtglEnabled": mtgl.Enabled,
				})
				return result
			}
			att.stake = mtgl.NextStake(att.stake)
			att.level++
			e.logger.Info(ctx, op+": martingale retry", map[string]interface{}{
				"pair":  signal.Pair,
				"level": att.level,
				"stake": att.stake,
			})

		case domain.ResultFailed:
			// Placement failure consumes an attempt but does not grow the
			// stake; the next attempt gets a fresh chained record.
			att.level++
			if att.level >= maxAttempts {
				e.logger.Warn(ctx, op+": retry ceiling reached after placement failure", map[string]interface{}{"pair": signal.Pair, "attempts": att.level})
				return result
			}
			e.logger.Warn(ctx, op+": placement failed, retrying", map[string]interface{}{"pair": signal.Pair, "level": att.level})

		default:
			// DRAW, UNKNOWN: never retried, regardless of configuration.
			e.logger.Info(ctx, op+": non-retryable outcome", map[string]interface{}{"pair": signal.Pair, "result": result})
			return result
		}
	}
	return result
}

// appendRecord creates the WAITING/PENDING record for one attempt.
func (e *Engine) appendRecord(att attempt) int {
	return e.ledger.Append(&domain.TradeRecord{
		ChainID:         att.chainID,
		ChannelID:       att.signal.ChannelID,
		Asset:           att.signal.Pair,
		OrderID:         domain.OrderPending,
		ExpirationLabel: domain.ExpirationLabel(att.signal.Expiry),
		Position:        att.signal.Direction.Position(),
		Stake:           att.stake,
		Result:          domain.ResultWaiting,
		Level:           att.level,
	})
}

// awaitEntry delegates to the scheduler, mirroring the countdown into the
// record's order ID field so the session table shows live state.
func (e *Engine) awaitEntry(ctx context.Context, idx int, entryTime string) error {
	return e.scheduler.AwaitEntry(ctx, entryTime, func(status string) {
		e.ledger.Mutate(idx, func(rec *domain.TradeRecord) {
			rec.OrderID = status
			rec.OpenTime = ""
			rec.CloseTime = ""
		})
	})
}

// assetOpen consults the gateway's optional schedule capability; gateways
// without it are assumed open.
func (e *Engine) assetOpen(ctx context.Context, pair string) bool {
	checker, ok := e.broker.(ports.AssetScheduleChecker)
	if !ok {
		return true
	}
	open, err := checker.IsAssetOpen(ctx, pair)
	if err != nil {
		e.logger.Warn(ctx, "asset schedule check failed, assuming open", map[string]interface{}{"pair": pair, "error": err.Error()})
		return true
	}
	return open
}

// placeAndSettle performs one placement and blocks until the broker reports
// its settlement, updating the record's live countdown along the way.
func (e *Engine) placeAndSettle(ctx context.Context, idx int, att attempt) domain.TradeResult {
	op := "placeAndSettle"
	sig := att.signal

	e.logger.Info(ctx, op+": placing order", map[string]interface{}{
		"pair":   sig.Pair,
		"stake":  att.stake,
		"level":  att.level,
		"expiry": sig.Expiry,
	})

	res, err := e.broker.PlaceOrder(ctx, att.stake, sig.Pair, sig.Direction, sig.Expiry)
	if err != nil || res == nil || res.OrderID == "" {
		if err == nil {
			err = ports.ErrOrderPlacementFailed
		}
		e.logger.Error(ctx, err, op+": order placement failed", map[string]interface{}{"pair": sig.Pair, "stake": att.stake})
		e.finalize(ctx, idx, domain.ResultFailed, "")
		return domain.ResultFailed
	}

	openTime := e.clock.Now()
	deadline := openTime.Add(time.Duration(sig.Expiry) * time.Second)
	e.ledger.Mutate(idx, func(rec *domain.TradeRecord) {
		rec.OrderID = res.OrderID
		rec.OpenTime = domain.FormatOpenTime(openTime)
		rec.CloseTime = "Pending"
		rec.CloseDeadline = deadline
	})
	e.logger.Info(ctx, op+": order accepted", map[string]interface{}{"pair": sig.Pair, "orderID": res.OrderID, "deadline": deadline})

	// Blocking settlement wait: poll until the deadline passes, ticking the
	// visible countdown each iteration.
	for {
		now := e.clock.Now()
		left := deadline.Sub(now)
		if left <= 0 {
			break
		}
		leftSec := int(left.Seconds())
		e.ledger.Mutate(idx, func(rec *domain.TradeRecord) {
			rec.CloseTime = fmt.Sprintf("Pending (%d:%02d Left)", leftSec/60, leftSec%60)
		})
		e.clock.Sleep(ctx, e.pollInterval)
		if ctx.Err() != nil {
			e.logger.Warn(ctx, op+": settlement wait canceled", map[string]interface{}{"pair": sig.Pair, "orderID": res.OrderID})
			e.finalize(ctx, idx, domain.ResultUnknown, domain.FormatCloseTime(e.clock.Now()))
			return domain.ResultUnknown
		}
	}

	outcome, err := e.broker.CheckOutcome(ctx, res.OrderID)
	result := domain.ResultUnknown
	var profit float64
	if err != nil {
		e.logger.Error(ctx, err, op+": settlement query failed", map[string]interface{}{"pair": sig.Pair, "orderID": res.OrderID})
	} else if outcome != nil {
		profit = outcome.Profit
		result = normalizeStatus(outcome.Status)
	}

	e.ledger.Mutate(idx, func(rec *domain.TradeRecord) {
		rec.Profit = profit
	})
	e.finalize(ctx, idx, result, domain.FormatCloseTime(e.clock.Now()))
	e.logger.Info(ctx, op+": settled", map[string]interface{}{
		"pair":    sig.Pair,
		"orderID": res.OrderID,
		"result":  result,
		"profit":  profit,
	})
	return result
}

// finalize writes the terminal result and mirrors the settled record to the
// trade log when one is configured.
func (e *Engine) finalize(ctx context.Context, idx int, result domain.TradeResult, closeTime string) {
	if !e.ledger.SetResult(idx, result, closeTime) {
		return
	}
	if e.tradeLog == nil {
		return
	}
	rec, ok := e.ledger.Get(idx)
	if !ok {
		return
	}
	if _, err := e.tradeLog.CreateTrade(ctx, &rec); err != nil {
		e.logger.Error(ctx, err, "failed to persist settled trade", map[string]interface{}{"asset": rec.Asset, "orderID": rec.OrderID})
	}
}

// refreshBalance pulls the account balance after a win so the session PnL
// stays current.
func (e *Engine) refreshBalance(ctx context.Context) {
	balance, err := e.broker.GetBalance(ctx)
	if err != nil {
		e.logger.Error(ctx, err, "failed to refresh balance after win")
		return
	}
	e.ledger.SetBalance(balance)
}

// normalizeStatus maps the broker's settlement string onto the result enum,
// case-insensitively. Anything unrecognized is UNKNOWN: ambiguous results
// never risk further stake.
func normalizeStatus(status string) domain.TradeResult {
	switch strings.ToUpper(strings.TrimSpace(status)) {
	case "WIN":
		return domain.ResultWin
	case "LOOSE":
		return domain.ResultLoose
	case "DRAW":
		return domain.ResultDraw
	default:
		return domain.ResultUnknown
	}
}
