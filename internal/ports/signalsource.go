package ports

import "context"

// SignalHandler receives one inbound message from an allowed channel.
// Delivery is at-least-once and unordered across channels.
type SignalHandler func(rawText string, channelID int64)

// SignalSource is a stream of raw signal messages, restricted to a
// configured allow-list of channel identifiers.
type SignalSource interface {
	// Start begins delivering messages to the handler and returns a channel
	// that is closed when the listener stops for any reason. A stopped
	// listener is fatal for the process; there is no auto-reconnect.
	Start(ctx context.Context, handler SignalHandler) (done <-chan struct{}, err error)

	// Stop shuts the listener down.
	Stop()
}
