package ws

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

type TokenVerifier interface {
	Verify(token string) (string, error)
}

type Server struct {
	upgrader websocket.Upgrader
	hub      *Hub
	verifier TokenVerifier

	pingEvery time.Duration
	pongWait  time.Duration
}

func NewServer(hub *Hub, verifier TokenVerifier, pingEvery, pongWait time.Duration) *Server {
	if pingEvery <= 0 {
		pingEvery = 25 * time.Second
	}
	if pongWait <= 0 {
		pongWait = 60 * time.Second
	}
	return &Server{
		hub:      hub,
		verifier: verifier,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		pingEvery: pingEvery,
		pongWait:  pongWait,
	}
}

// WS endpoint: GET /ws?access_token=...
//
// The connection is upgraded unauthenticated; the token is only verified when
// the join event arrives. Until a join succeeds the connection belongs to no
// room and its relay events are ignored.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimSpace(r.URL.Query().Get("access_token"))

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("ws upgrade failed", "err", err)
		return
	}

	c := newWsConn(conn)
	go s.writeLoop(c)
	s.readLoop(c, token)

	s.hub.remove(c)
	if err := c.Close(); err != nil {
		slog.Debug("ws close failed", "err", err)
	}
}

func (s *Server) readLoop(c *wsConn, token string) {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(1 << 20)
	_ = c.conn.SetReadDeadline(time.Now().Add(s.pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(s.pongWait))
	})

	var member *Membership

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var evt Event
		if err := json.Unmarshal(data, &evt); err != nil {
			continue
		}

		switch evt.Type {
		case TypeJoin:
			var p JoinPayload
			if decode(evt.Payload, &p) != nil || p.UserID == "" {
				_ = c.Send(Event{Type: TypeError, Payload: ErrorPayload{Message: "Invalid user ID"}})
				continue
			}
			identityID, err := s.verifier.Verify(token)
			if err != nil {
				// explicit error, then terminate; never a silent drop
				_ = c.Send(Event{Type: TypeError, Payload: ErrorPayload{Message: "Authentication error: Invalid token"}})
				return
			}
			if p.UserID != identityID {
				// a connection may only join the room of its own identity
				_ = c.Send(Event{Type: TypeError, Payload: ErrorPayload{Message: "Authentication error: Identity mismatch"}})
				continue
			}
			member = s.hub.Join(c, identityID)
			slog.Debug("ws joined", "identity", identityID)

		case TypeSendMessage:
			if member == nil {
				continue // unauthenticated relays are ignored
			}
			var p SendMessagePayload
			if decode(evt.Payload, &p) != nil || p.RecipientID == "" || p.Message.ID == "" {
				_ = c.Send(Event{Type: TypeError, Payload: ErrorPayload{Message: "Invalid message data"}})
				continue
			}
			sender := p.Message.Sender
			if sender == nil {
				sender = &IdentitySummary{ID: member.IdentityID()}
			}
			s.hub.Broadcast(p.RecipientID, Event{
				Type:    TypeNewMessage,
				Payload: NewMessagePayload{Message: p.Message, Sender: *sender},
			})

		case TypeMarkAsRead:
			if member == nil {
				continue
			}
			var p MarkAsReadPayload
			if decode(evt.Payload, &p) != nil || p.SenderID == "" {
				continue
			}
			s.hub.Broadcast(p.SenderID, Event{
				Type: TypeMessageRead,
				Payload: MessageReadPayload{
					SenderID:  p.SenderID,
					ReadBy:    member.IdentityID(),
					Timestamp: time.Now(),
				},
			})

		default:
			// ignore
		}
	}
}

func (s *Server) writeLoop(c *wsConn) {
	ticker := time.NewTicker(s.pingEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_ = c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
		case <-c.closed:
			return
		}
	}
}

func decode(payload interface{}, dst interface{}) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return json.Unmarshal(b, dst)
}

type wsConn struct {
	conn   *websocket.Conn
	sendMu chan struct{}
	closed chan struct{}
}

func newWsConn(c *websocket.Conn) *wsConn {
	return &wsConn{
		conn:   c,
		sendMu: make(chan struct{}, 1),
		closed: make(chan struct{}),
	}
}

func (c *wsConn) Send(evt Event) error {
	c.sendMu <- struct{}{}
	defer func() { <-c.sendMu }()
	_ = c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))

	return c.conn.WriteJSON(evt)
}

func (c *wsConn) Close() error {
	select {
	case <-c.closed:
	default:
		close(c.closed)
	}

	return c.conn.Close()
}
