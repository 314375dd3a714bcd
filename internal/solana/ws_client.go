package solana

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// WSConfirmerConfig configures WSConfirmer behavior.
type WSConfirmerConfig struct {
	// HandshakeTimeout bounds the WebSocket dial.
	HandshakeTimeout time.Duration
	// SubscribeTimeout bounds the wait for subscription confirmation.
	SubscribeTimeout time.Duration
	// WriteTimeout bounds individual frame writes.
	WriteTimeout time.Duration
}

// DefaultWSConfirmerConfig returns default configuration.
func DefaultWSConfirmerConfig() WSConfirmerConfig {
	return WSConfirmerConfig{
		HandshakeTimeout: 10 * time.Second,
		SubscribeTimeout: 30 * time.Second,
		WriteTimeout:     10 * time.Second,
	}
}

// WSConfirmer implements ConfirmationWaiter over a signatureSubscribe
// WebSocket subscription. The node fires the notification once when the
// signature reaches confirmed commitment and removes the subscription.
type WSConfirmer struct {
	endpoint string
	config   WSConfirmerConfig

	conn      *websocket.Conn
	connMu    sync.Mutex
	closed    atomic.Bool
	requestID atomic.Uint64

	// pending maps request ID to the waiter awaiting its subscription
	// ack. The read loop moves waiters into the waiters map before it
	// processes any further frame, so a notification arriving right
	// behind the ack is never dropped.
	pending   map[uint64]*wsWaiter
	pendingMu sync.Mutex

	// waiters maps subscription ID to the waiter receiving the result
	waiters   map[int64]*wsWaiter
	waitersMu sync.Mutex

	done chan struct{}
	wg   sync.WaitGroup
}

// Compile-time interface check.
var _ ConfirmationWaiter = (*WSConfirmer)(nil)

// NewWSConfirmer dials the endpoint and starts the read loop.
func NewWSConfirmer(ctx context.Context, endpoint string, config *WSConfirmerConfig) (*WSConfirmer, error) {
	cfg := DefaultWSConfirmerConfig()
	if config != nil {
		cfg = *config
	}

	c := &WSConfirmer{
		endpoint: endpoint,
		config:   cfg,
		pending:  make(map[uint64]*wsWaiter),
		waiters:  make(map[int64]*wsWaiter),
		done:     make(chan struct{}),
	}

	dialer := websocket.Dialer{HandshakeTimeout: cfg.HandshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial: %w", err)
	}
	c.conn = conn

	c.wg.Add(1)
	go c.readLoop()

	return c, nil
}

// WaitForSignature subscribes to the signature and blocks for its
// confirmation.
func (c *WSConfirmer) WaitForSignature(ctx context.Context, signature string) (*ConfirmationResult, error) {
	if c.closed.Load() {
		return nil, fmt.Errorf("confirmer closed")
	}

	reqID := c.requestID.Add(1)
	req := wsRequest{
		JSONRPC: "2.0",
		ID:      reqID,
		Method:  "signatureSubscribe",
		Params: []interface{}{
			signature,
			map[string]string{"commitment": "confirmed"},
		},
	}

	w := &wsWaiter{
		subID:  make(chan int64, 1),
		result: make(chan ConfirmationResult, 1),
	}
	c.pendingMu.Lock()
	c.pending[reqID] = w
	c.pendingMu.Unlock()

	c.connMu.Lock()
	c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	err := c.conn.WriteJSON(req)
	c.connMu.Unlock()
	if err != nil {
		c.abandon(reqID, w)
		return nil, fmt.Errorf("write subscribe: %w", err)
	}

	var subID int64
	select {
	case subID = <-w.subID:
	case <-time.After(c.config.SubscribeTimeout):
		c.abandon(reqID, w)
		return nil, fmt.Errorf("subscription timeout after %v", c.config.SubscribeTimeout)
	case <-c.done:
		return nil, fmt.Errorf("confirmer closed")
	case <-ctx.Done():
		c.abandon(reqID, w)
		return nil, ctx.Err()
	}

	select {
	case result := <-w.result:
		return &result, nil
	case <-c.done:
		return nil, fmt.Errorf("confirmer closed")
	case <-ctx.Done():
		c.waitersMu.Lock()
		delete(c.waiters, subID)
		c.waitersMu.Unlock()
		return nil, ctx.Err()
	}
}

// wsWaiter carries one subscription through both phases: the ack with
// its subscription ID, then the notification result. The result channel
// exists before the subscribe frame is written.
type wsWaiter struct {
	subID  chan int64
	result chan ConfirmationResult
}

// abandon removes a waiter whose caller gave up. If the ack already
// arrived the waiter has moved to the waiters map and is removed there.
func (c *WSConfirmer) abandon(reqID uint64, w *wsWaiter) {
	c.pendingMu.Lock()
	_, wasPending := c.pending[reqID]
	delete(c.pending, reqID)
	c.pendingMu.Unlock()
	if wasPending {
		return
	}

	select {
	case subID := <-w.subID:
		c.waitersMu.Lock()
		delete(c.waiters, subID)
		c.waitersMu.Unlock()
	default:
	}
}

// readLoop dispatches subscription confirmations and signature
// notifications until the connection dies or Close is called.
func (c *WSConfirmer) readLoop() {
	defer c.wg.Done()

	for {
		select {
		case <-c.done:
			return
		default:
		}

		_, data, err := c.conn.ReadMessage()
		if err != nil {
			// Connection lost; callers time out and fall back to
			// status polling.
			if !c.closed.Swap(true) {
				close(c.done)
			}
			return
		}

		c.dispatch(data)
	}
}

func (c *WSConfirmer) dispatch(data []byte) {
	var msg wsMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}

	// Subscription confirmation: {"id": N, "result": subID}
	if msg.ID != 0 && msg.Result != nil {
		var subID int64
		if err := json.Unmarshal(msg.Result, &subID); err != nil {
			return
		}
		c.pendingMu.Lock()
		w, ok := c.pending[msg.ID]
		if ok {
			delete(c.pending, msg.ID)
		}
		c.pendingMu.Unlock()
		if ok {
			// Register the result waiter before handing back the subID
			// so a notification in the very next frame finds it.
			c.waitersMu.Lock()
			c.waiters[subID] = w
			c.waitersMu.Unlock()
			w.subID <- subID
		}
		return
	}

	// Signature notification
	if msg.Method != "signatureNotification" || msg.Params == nil {
		return
	}

	var params signatureNotificationParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return
	}

	c.waitersMu.Lock()
	w, ok := c.waiters[params.Subscription]
	if ok {
		delete(c.waiters, params.Subscription)
	}
	c.waitersMu.Unlock()

	if ok {
		w.result <- ConfirmationResult{
			Slot: params.Result.Context.Slot,
			Err:  params.Result.Value.Err,
		}
	}
}

// Close closes the WebSocket connection and wakes all waiters.
func (c *WSConfirmer) Close() error {
	if !c.closed.Swap(true) {
		close(c.done)
	}

	c.connMu.Lock()
	err := c.conn.Close()
	c.connMu.Unlock()

	c.wg.Wait()
	return err
}

// wsRequest is a JSON-RPC 2.0 request over the socket.
type wsRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

// wsMessage is any inbound frame: either a request response or a
// subscription notification.
type wsMessage struct {
	ID     uint64          `json:"id,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Method string          `json:"method,omitempty"`
	Params json.RawMessage `json:"params,omitempty"`
}

// signatureNotificationParams is the payload of signatureNotification.
type signatureNotificationParams struct {
	Subscription int64 `json:"subscription"`
	Result       struct {
		Context struct {
			Slot int64 `json:"slot"`
		} `json:"context"`
		Value struct {
			Err interface{} `json:"err"`
		} `json:"value"`
	} `json:"result"`
}
