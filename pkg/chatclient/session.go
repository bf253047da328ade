package chatclient

import (
	"encoding/json"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	// StateOffline means the retry budget is spent. Durable fetch/send keep
	// working; only the push overlay is gone. Explicit, never silent.
	StateOffline
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateOffline:
		return "offline"
	default:
		return "disconnected"
	}
}

type Client struct {
	cfg Config

	mu            sync.Mutex
	wmu           sync.Mutex // serializes websocket writes
	conn          *websocket.Conn
	state         State
	open          string // partner id of the open conversation, "" when none
	conversations map[string][]Message
	unread        map[string]int
	seen          map[string]struct{} // message id de-dupe across push paths

	done chan struct{}
}

func New(cfg Config) *Client {
	return &Client{
		cfg:           cfg.withDefaults(),
		conversations: make(map[string][]Message),
		unread:        make(map[string]int),
		seen:          make(map[string]struct{}),
		done:          make(chan struct{}),
	}
}

// Connect starts the realtime session loop: dial, join own room, read until
// the connection drops, then retry with backoff. It returns immediately.
func (c *Client) Connect() {
	go c.run()
}

// Close tears the session down for good.
func (c *Client) Close() {
	c.mu.Lock()
	select {
	case <-c.done:
	default:
		close(c.done)
	}
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
}

func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// budgetResetAfter is how long a connection must stay up before the retry
// budget is earned back. Resetting on every successful dial would let a
// server that accepts the upgrade and drops immediately bypass the ceiling.
const budgetResetAfter = 30 * time.Second

func (c *Client) run() {
	retries := 0
	delay := c.cfg.RetryDelay

	for {
		select {
		case <-c.done:
			return
		default:
		}

		c.setState(StateConnecting)
		conn, err := c.dial()
		if err == nil {
			c.mu.Lock()
			c.conn = conn
			c.mu.Unlock()

			// join own room before trusting events
			if err := c.sendEvent("join", map[string]string{"userId": c.cfg.UserID}); err == nil {
				c.setState(StateConnected)
				start := time.Now()

				c.readLoop(conn)

				if time.Since(start) >= budgetResetAfter {
					retries = 0
					delay = c.cfg.RetryDelay
				}
			}

			c.mu.Lock()
			if c.conn == conn {
				c.conn = nil
			}
			c.mu.Unlock()
			_ = conn.Close()
		}

		select {
		case <-c.done:
			return
		default:
		}

		// a failed dial and a dropped connection spend the budget alike;
		// a server-initiated disconnect is just another drop
		retries++
		if retries >= c.cfg.MaxRetries {
			c.setState(StateOffline)
			slog.Warn("chat channel offline, retry budget spent", "attempts", retries)
			return
		}

		c.setState(StateDisconnected)
		select {
		case <-c.done:
			return
		case <-time.After(delay):
		}
		delay *= 2
		if delay > c.cfg.RetryDelayMax {
			delay = c.cfg.RetryDelayMax
		}
	}
}

func (c *Client) dial() (*websocket.Conn, error) {
	u, err := url.Parse(c.cfg.WSURL)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("access_token", c.cfg.Token)
	u.RawQuery = q.Encode()

	dialer := websocket.Dialer{HandshakeTimeout: c.cfg.DialTimeout}
	conn, _, err := dialer.Dial(u.String(), nil)
	return conn, err
}

func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		var evt struct {
			Type    string          `json:"type"`
			Payload json.RawMessage `json:"payload"`
		}
		if err := conn.ReadJSON(&evt); err != nil {
			return
		}

		switch evt.Type {
		case "newMessage":
			var p struct {
				Message Message  `json:"message"`
				Sender  Identity `json:"sender"`
			}
			// malformed events are dropped, never fatal
			if json.Unmarshal(evt.Payload, &p) != nil || p.Message.ID == "" || p.Sender.ID == "" {
				continue
			}
			c.handleNewMessage(p.Message, p.Sender)

		case "messageRead":
			var p struct {
				ReadBy string `json:"readBy"`
			}
			if json.Unmarshal(evt.Payload, &p) != nil || p.ReadBy == "" {
				continue
			}
			c.handleMessageRead(p.ReadBy)

		case "error":
			var p struct {
				Message string `json:"message"`
			}
			_ = json.Unmarshal(evt.Payload, &p)
			slog.Warn("chat channel error event", "message", p.Message)
		}
	}
}

func (c *Client) handleNewMessage(m Message, sender Identity) {
	if sender.ID == c.cfg.UserID {
		return // own relay echoed back
	}

	c.mu.Lock()
	if _, dup := c.seen[m.ID]; dup {
		c.mu.Unlock()
		return
	}
	c.appendLocked(sender.ID, m)
	if c.open != sender.ID {
		c.unread[sender.ID]++
	}
	cb := c.cfg.OnNewMessage
	c.mu.Unlock()

	if cb != nil {
		cb(sender.ID, m)
	}
}

// handleMessageRead flips every cached outgoing message to partnerID to read.
// Coarse bulk flip, not per-message reconciliation.
func (c *Client) handleMessageRead(partnerID string) {
	c.mu.Lock()
	msgs := c.conversations[partnerID]
	for i := range msgs {
		if msgs[i].SenderID == c.cfg.UserID {
			msgs[i].Read = true
		}
	}
	cb := c.cfg.OnRead
	c.mu.Unlock()

	if cb != nil {
		cb(partnerID)
	}
}

// appendLocked adds m to the partner's cache with id de-dupe. Callers hold mu.
func (c *Client) appendLocked(partnerID string, m Message) {
	if _, dup := c.seen[m.ID]; dup {
		return
	}
	c.seen[m.ID] = struct{}{}
	c.conversations[partnerID] = append(c.conversations[partnerID], m)
}

func (c *Client) setState(s State) {
	c.mu.Lock()
	if c.state == s {
		c.mu.Unlock()
		return
	}
	c.state = s
	cb := c.cfg.OnState
	c.mu.Unlock()

	if cb != nil {
		cb(s)
	}
}

func (c *Client) sendEvent(typ string, payload any) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return websocket.ErrCloseSent
	}

	c.wmu.Lock()
	defer c.wmu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteJSON(map[string]any{"type": typ, "payload": payload})
}

// relay asks the hub to push the already-persisted message to the recipient.
// Failures are swallowed: the durable write already succeeded.
func (c *Client) relay(recipientID string, m Message) {
	if err := c.sendEvent("sendMessage", map[string]any{
		"recipientId": recipientID,
		"message":     m,
	}); err != nil {
		slog.Debug("chat relay skipped", "err", err)
	}
}

// signalRead pushes the read receipt for the conversation with partnerID.
func (c *Client) signalRead(partnerID string) {
	if err := c.sendEvent("markAsRead", map[string]string{
		"senderId": partnerID,
	}); err != nil {
		slog.Debug("chat read receipt skipped", "err", err)
	}
}
