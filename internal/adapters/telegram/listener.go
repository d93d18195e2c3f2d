// Package telegram implements the signal source on the Telegram Bot API,
// forwarding channel posts from an allow-list of channels.
package telegram

import (
	"context"
	"fmt"
	"sync"
	"time"

	tele "gopkg.in/telebot.v3"

	"pocketSignalBot/internal/ports"
)

const defaultPollTimeout = 10 * time.Second

// Listener implements ports.SignalSource using telebot's long poller.
type Listener struct {
	bot     *tele.Bot
	allowed map[int64]struct{}
	logger  ports.Logger

	startOnce sync.Once
	done      chan struct{}
}

// Config holds the Telegram listener configuration.
type Config struct {
	Token        string
	AllowedChats []int64 // Channel IDs signals are accepted from
	PollTimeout  time.Duration
	Logger       ports.Logger
}

// NewListener creates the Telegram listener. It validates the token against
// the Bot API, so network access is required here.
func NewListener(cfg Config) (*Listener, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for Telegram listener")
	}
	if cfg.Token == "" {
		return nil, fmt.Errorf("%w: telegram token must be set", ports.ErrConfigurationError)
	}
	if len(cfg.AllowedChats) == 0 {
		return nil, fmt.Errorf("%w: at least one allowed channel must be configured", ports.ErrConfigurationError)
	}

	timeout := cfg.PollTimeout
	if timeout <= 0 {
		timeout = defaultPollTimeout
	}

	bot, err := tele.NewBot(tele.Settings{
		Token:  cfg.Token,
		Poller: &tele.LongPoller{Timeout: timeout},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create telegram bot: %v", ports.ErrConnectionFailed, err)
	}

	allowed := make(map[int64]struct{}, len(cfg.AllowedChats))
	for _, id := range cfg.AllowedChats {
		allowed[id] = struct{}{}
	}

	return &Listener{
		bot:     bot,
		allowed: allowed,
		logger:  cfg.Logger,
		done:    make(chan struct{}),
	}, nil
}

// Start registers the message handlers and begins long polling in its own
// goroutine. The returned channel is closed when polling stops; the caller
// treats that as fatal.
func (l *Listener) Start(ctx context.Context, handler ports.SignalHandler) (<-chan struct{}, error) {
	if handler == nil {
		return nil, fmt.Errorf("%w: signal handler must not be nil", ports.ErrInvalidRequest)
	}

	var started bool
	l.startOnce.Do(func() {
		started = true

		forward := func(c tele.Context) error {
			chat := c.Chat()
			if chat == nil {
				return nil
			}
			if _, ok := l.allowed[chat.ID]; !ok {
				l.logger.Debug(ctx, "ignoring message from unlisted chat", map[string]interface{}{"chatID": chat.ID})
				return nil
			}
			text := c.Text()
			if text == "" {
				return nil
			}
			l.logger.Debug(ctx, "message received", map[string]interface{}{"chatID": chat.ID})
			handler(text, chat.ID)
			return nil
		}

		// Signal channels deliver as channel posts; groups used for testing
		// deliver as plain text messages.
		l.bot.Handle(tele.OnChannelPost, forward)
		l.bot.Handle(tele.OnText, forward)

		go func() {
			defer close(l.done)
			l.logger.Info(ctx, "Telegram listener started", map[string]interface{}{"allowedChats": len(l.allowed)})
			l.bot.Start()
			l.logger.Warn(ctx, "Telegram listener stopped")
		}()
	})

	if !started {
		return nil, fmt.Errorf("%w: listener already started", ports.ErrInvalidRequest)
	}
	return l.done, nil
}

// Stop shuts the long poller down.
func (l *Listener) Stop() {
	l.bot.Stop()
}
