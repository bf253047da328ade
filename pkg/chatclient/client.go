// Package chatclient is the Go client for the messaging core: the durable
// REST API plus the realtime channel session, with reconnection and local
// conversation state kept consistent between pushed events and fetched
// history.
package chatclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type Identity struct {
	ID           string  `json:"id"`
	FirstName    string  `json:"firstName"`
	LastName     string  `json:"lastName"`
	Role         string  `json:"role"`
	ProfilePhoto *string `json:"profilePhoto,omitempty"`
	Batch        *string `json:"batch,omitempty"`
	Department   *string `json:"department,omitempty"`
}

type Message struct {
	ID          string    `json:"id"`
	SenderID    string    `json:"senderId"`
	RecipientID string    `json:"recipientId"`
	Text        string    `json:"text"`
	Read        bool      `json:"read"`
	CreatedAt   time.Time `json:"createdAt"`
	Sender      *Identity `json:"sender,omitempty"`
	Recipient   *Identity `json:"recipient,omitempty"`
}

type Conversation struct {
	User        Identity `json:"user"`
	LastMessage Message  `json:"lastMessage"`
	UnreadCount int      `json:"unreadCount"`
}

type candidatesResponse struct {
	Users   []Identity `json:"users"`
	Message string     `json:"message"`
}

// APIError is the decoded server error envelope.
type APIError struct {
	Status  int
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d (%s): %s", e.Status, e.Code, e.Message)
}

type Config struct {
	BaseURL string // durable API, e.g. http://localhost:5000
	WSURL   string // realtime channel, e.g. ws://localhost:5000/ws
	Token   string
	UserID  string

	MaxRetries    int           // reconnect ceiling, default 5
	RetryDelay    time.Duration // first backoff step, default 1s
	RetryDelayMax time.Duration // backoff cap, default 5s
	DialTimeout   time.Duration // per-attempt handshake timeout, default 20s

	HTTPClient *http.Client

	// Optional callbacks; invoked without the state lock held.
	OnState      func(State)
	OnNewMessage func(partnerID string, m Message)
	OnRead       func(partnerID string)
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.MaxRetries <= 0 {
		out.MaxRetries = 5
	}
	if out.RetryDelay <= 0 {
		out.RetryDelay = time.Second
	}
	if out.RetryDelayMax <= 0 {
		out.RetryDelayMax = 5 * time.Second
	}
	if out.DialTimeout <= 0 {
		out.DialTimeout = 20 * time.Second
	}
	if out.HTTPClient == nil {
		out.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	out.BaseURL = strings.TrimRight(out.BaseURL, "/")
	return out
}

// --- durable API ---

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var envelope struct {
			Error APIError `json:"error"`
		}
		apiErr := &APIError{Status: resp.StatusCode, Message: resp.Status}
		if json.NewDecoder(resp.Body).Decode(&envelope) == nil && envelope.Error.Message != "" {
			apiErr.Code = envelope.Error.Code
			apiErr.Message = envelope.Error.Message
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Send durably creates the message, merges it into the local cache and then
// relays it over the channel. The relay is best-effort: a disconnected channel
// never blocks or fails the send.
func (c *Client) Send(ctx context.Context, recipientID, text string) (*Message, error) {
	var msg Message
	err := c.doJSON(ctx, http.MethodPost, "/api/messages/send", map[string]string{
		"recipientId": recipientID,
		"text":        text,
	}, &msg)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.appendLocked(recipientID, msg)
	c.mu.Unlock()

	c.relay(recipientID, msg)
	return &msg, nil
}

// OpenConversation fetches the full history with partnerID (which durably
// marks incoming messages read), replaces the local cache, resets the unread
// counter and signals markAsRead over the channel so the partner sees the
// receipt promptly.
func (c *Client) OpenConversation(ctx context.Context, partnerID string) ([]Message, error) {
	var msgs []Message
	if err := c.doJSON(ctx, http.MethodGet, "/api/messages/conversation/"+partnerID, nil, &msgs); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.open = partnerID
	c.conversations[partnerID] = msgs
	c.unread[partnerID] = 0
	for _, m := range msgs {
		c.seen[m.ID] = struct{}{}
	}
	out := make([]Message, len(msgs))
	copy(out, msgs)
	c.mu.Unlock()

	c.signalRead(partnerID)
	return out, nil
}

// CloseConversation marks no conversation as open; subsequent pushes from the
// former partner count as unread again.
func (c *Client) CloseConversation() {
	c.mu.Lock()
	c.open = ""
	c.mu.Unlock()
}

// Conversations fetches the server-truth aggregated view. Called after any
// gap in channel connectivity to reconcile the local unread cache.
func (c *Client) Conversations(ctx context.Context) ([]Conversation, error) {
	var out []Conversation
	if err := c.doJSON(ctx, http.MethodGet, "/api/messages/conversations", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Candidates lists the identities the user is allowed to message.
func (c *Client) Candidates(ctx context.Context) ([]Identity, error) {
	var resp candidatesResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/messages/users", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Users, nil
}

// Unread returns the locally tracked unread count for partnerID.
func (c *Client) Unread(partnerID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.unread[partnerID]
}

// History returns a copy of the locally cached conversation with partnerID.
func (c *Client) History(partnerID string) []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	msgs := c.conversations[partnerID]
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out
}
