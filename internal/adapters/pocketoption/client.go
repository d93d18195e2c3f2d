// Package pocketoption implements the broker gateway against the Pocket
// Option websocket API.
package pocketoption

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jpillora/backoff"

	"pocketSignalBot/internal/domain"
	"pocketSignalBot/internal/ports"
)

const (
	defaultEndpoint       = "wss://api-po.trade/socket"
	defaultDialTimeout    = 10 * time.Second
	defaultRequestTimeout = 15 * time.Second
)

// Client implements ports.BrokerGateway and the optional
// ports.AssetScheduleChecker capability over a single websocket session.
type Client struct {
	cfg    Config
	logger ports.Logger

	writeMu sync.Mutex
	conn    *websocket.Conn

	pendingMu sync.Mutex
	pending   map[string]chan response

	closeOnce sync.Once
	closed    chan struct{}
}

// Config holds the gateway configuration.
type Config struct {
	Endpoint             string
	SessionID            string // Broker session id (ssid) used to authenticate
	Demo                 bool   // Trade against the demo balance
	Logger               ports.Logger
	DialTimeout          time.Duration
	RequestTimeout       time.Duration
	ReconnectDelay       time.Duration // Initial backoff between dial attempts
	MaxReconnectAttempts int
}

// frame is the wire envelope in both directions.
type frame struct {
	ID      string          `json:"id"`
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Error   string          `json:"error,omitempty"`
}

type response struct {
	payload json.RawMessage
	err     error
}

// New creates the gateway client. Connect must be called before use.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for pocketoption client")
	}
	if cfg.SessionID == "" {
		return nil, fmt.Errorf("%w: broker session id must be set", ports.ErrConfigurationError)
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultEndpoint
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = defaultDialTimeout
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = time.Second
	}
	if cfg.MaxReconnectAttempts <= 0 {
		cfg.MaxReconnectAttempts = 5
	}
	return &Client{
		cfg:     cfg,
		logger:  cfg.Logger,
		pending: map[string]chan response{},
		closed:  make(chan struct{}),
	}, nil
}

// Connect dials the websocket endpoint with exponential backoff and
// authenticates the session. On success it starts the read loop that
// correlates responses back to in-flight requests.
func (c *Client) Connect(ctx context.Context) error {
	op := "Connect"
	b := &backoff.Backoff{
		Min:    c.cfg.ReconnectDelay,
		Max:    30 * time.Second,
		Factor: 2,
		Jitter: true,
	}

	var conn *websocket.Conn
	var err error
	for attempt := 1; attempt <= c.cfg.MaxReconnectAttempts; attempt++ {
		dialer := websocket.Dialer{HandshakeTimeout: c.cfg.DialTimeout}
		conn, _, err = dialer.DialContext(ctx, c.cfg.Endpoint, nil)
		if err == nil {
			break
		}
		delay := b.Duration()
		c.logger.Warn(ctx, op+": dial failed, retrying", map[string]interface{}{
			"endpoint": c.cfg.Endpoint,
			"attempt":  attempt,
			"delay":    delay.String(),
		})
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", ports.ErrContextCanceled, ctx.Err())
		}
	}
	if err != nil {
		return fmt.Errorf("%w: dialing %s: %v", ports.ErrConnectionFailed, c.cfg.Endpoint, err)
	}
	c.conn = conn
	go c.readLoop()

	authPayload, _ := json.Marshal(map[string]interface{}{
		"session": c.cfg.SessionID,
		"demo":    c.cfg.Demo,
	})
	if _, err := c.request(ctx, "auth", authPayload); err != nil {
		c.Close()
		return fmt.Errorf("%w: %v", ports.ErrAuthenticationFailed, err)
	}

	c.logger.Info(ctx, op+": broker session established", map[string]interface{}{"endpoint": c.cfg.Endpoint, "demo": c.cfg.Demo})
	return nil
}

// GetBalance retrieves the current account balance.
func (c *Client) GetBalance(ctx context.Context) (float64, error) {
	raw, err := c.request(ctx, "balance", nil)
	if err != nil {
		return 0, err
	}
	var out struct {
		Balance float64 `json:"balance"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return 0, fmt.Errorf("decoding balance response: %w", err)
	}
	return out.Balance, nil
}

// PlaceOrder opens a binary-options position. An accepted call with no
// order id in the response is reported as a placement without identifier,
// not as a transport error.
func (c *Client) PlaceOrder(ctx context.Context, stake float64, pair string, direction domain.Direction, expirySeconds int) (*ports.OrderResult, error) {
	payload, _ := json.Marshal(map[string]interface{}{
		"amount":      stake,
		"asset":       pair,
		"action":      string(direction),
		"expirations": expirySeconds,
	})
	raw, err := c.request(ctx, "open_order", payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ports.ErrOrderPlacementFailed, err)
	}
	var out struct {
		OrderID string `json:"order_id"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decoding order response: %w", err)
	}
	return &ports.OrderResult{OrderID: out.OrderID, Raw: string(raw)}, nil
}

// CheckOutcome queries the settlement result for an order.
func (c *Client) CheckOutcome(ctx context.Context, orderID string) (*ports.Outcome, error) {
	payload, _ := json.Marshal(map[string]string{"order_id": orderID})
	raw, err := c.request(ctx, "check_order", payload)
	if err != nil {
		return nil, err
	}
	var out struct {
		Profit float64 `json:"profit"`
		Status string  `json:"status"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decoding outcome response: %w", err)
	}
	return &ports.Outcome{Profit: out.Profit, Status: out.Status}, nil
}

// IsAssetOpen reports whether the instrument is currently tradable.
func (c *Client) IsAssetOpen(ctx context.Context, pair string) (bool, error) {
	payload, _ := json.Marshal(map[string]string{"asset": pair})
	raw, err := c.request(ctx, "asset_status", payload)
	if err != nil {
		return false, err
	}
	var out struct {
		Open bool `json:"open"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return false, fmt.Errorf("decoding asset status response: %w", err)
	}
	return out.Open, nil
}

// Close tears the websocket down and fails all in-flight requests.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.closed)
		if c.conn != nil {
			c.conn.Close()
		}
		c.failPending(ports.ErrBrokerUnavailable)
	})
}

// request sends one frame and blocks for its correlated response.
func (c *Client) request(ctx context.Context, action string, payload json.RawMessage) (json.RawMessage, error) {
	if c.conn == nil {
		return nil, ports.ErrConnectionFailed
	}

	id := uuid.NewString()
	ch := make(chan response, 1)
	c.pendingMu.Lock()
	c.pending[id] = ch
	c.pendingMu.Unlock()
	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, id)
		c.pendingMu.Unlock()
	}()

	c.writeMu.Lock()
	err := c.conn.WriteJSON(frame{ID: id, Action: action, Payload: payload})
	c.writeMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("%w: writing %s frame: %v", ports.ErrBrokerUnavailable, action, err)
	}

	timer := time.NewTimer(c.cfg.RequestTimeout)
	defer timer.Stop()
	select {
	case resp := <-ch:
		return resp.payload, resp.err
	case <-timer.C:
		return nil, fmt.Errorf("%w: no %s response", ports.ErrTimeout, action)
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", ports.ErrContextCanceled, ctx.Err())
	case <-c.closed:
		return nil, ports.ErrBrokerUnavailable
	}
}

// readLoop dispatches inbound frames to their waiting requests.
func (c *Client) readLoop() {
	for {
		var f frame
		if err := c.conn.ReadJSON(&f); err != nil {
			select {
			case <-c.closed:
			default:
				c.logger.Error(context.Background(), err, "broker read loop terminated")
				c.failPending(fmt.Errorf("%w: %v", ports.ErrBrokerUnavailable, err))
			}
			return
		}

		c.pendingMu.Lock()
		ch, ok := c.pending[f.ID]
		c.pendingMu.Unlock()
		if !ok {
			// Unsolicited frame (price tick, keepalive): nothing waits on it.
			continue
		}

		resp := response{payload: f.Payload}
		if f.Error != "" {
			resp.err = fmt.Errorf("broker error on %s: %s", f.Action, f.Error)
		}
		ch <- resp
	}
}

func (c *Client) failPending(err error) {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()
	for id, ch := range c.pending {
		select {
		case ch <- response{err: err}:
		default:
		}
		delete(c.pending, id)
	}
}
