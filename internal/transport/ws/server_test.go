package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/muhammadhuzaifasarfraz/collab-sphere/internal/domain"
)

// tokenMap verifies tokens by table lookup.
type tokenMap map[string]string

func (m tokenMap) Verify(token string) (string, error) {
	if id, ok := m[token]; ok {
		return id, nil
	}
	return "", domain.ErrUnauthorized
}

func newTestServer(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub()
	verifier := tokenMap{
		"tok-alice": "alice",
		"tok-bob":   "bob",
	}
	srv := NewServer(hub, verifier, 25*time.Second, 60*time.Second)
	ts := httptest.NewServer(http.HandlerFunc(srv.HandleWS))
	t.Cleanup(ts.Close)
	return hub, ts
}

func dialWS(t *testing.T, ts *httptest.Server, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/?access_token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

type wireEvent struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func sendEvent(t *testing.T, conn *websocket.Conn, typ string, payload any) {
	t.Helper()
	if err := conn.WriteJSON(map[string]any{"type": typ, "payload": payload}); err != nil {
		t.Fatalf("write %s: %v", typ, err)
	}
}

func readEvent(t *testing.T, conn *websocket.Conn) wireEvent {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var evt wireEvent
	if err := conn.ReadJSON(&evt); err != nil {
		t.Fatalf("read event: %v", err)
	}
	return evt
}

// expectSilence asserts nothing arrives on conn within the window.
func expectSilence(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	var evt wireEvent
	if err := conn.ReadJSON(&evt); err == nil {
		t.Fatalf("unexpected event: %+v", evt)
	}
}

func join(t *testing.T, conn *websocket.Conn, userID string) {
	t.Helper()
	sendEvent(t, conn, TypeJoin, JoinPayload{UserID: userID})
}

func waitRoom(t *testing.T, hub *Hub, id string, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.RoomSize(id) == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("room %s size = %d, want %d", id, hub.RoomSize(id), want)
}

func TestJoin_BadTokenGetsErrorAndNoMembership(t *testing.T) {
	hub, ts := newTestServer(t)
	conn := dialWS(t, ts, "tok-forged")

	join(t, conn, "alice")

	evt := readEvent(t, conn)
	if evt.Type != TypeError {
		t.Fatalf("event type = %s, want error", evt.Type)
	}
	if hub.RoomSize("alice") != 0 {
		t.Fatal("forged token must not join a room")
	}

	// the server terminates the connection after the auth failure
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatal("connection should be closed")
	}
}

func TestJoin_IdentityMismatchRejected(t *testing.T) {
	hub, ts := newTestServer(t)
	conn := dialWS(t, ts, "tok-alice")

	join(t, conn, "bob") // valid token, wrong room

	evt := readEvent(t, conn)
	if evt.Type != TypeError {
		t.Fatalf("event type = %s, want error", evt.Type)
	}
	if hub.RoomSize("bob") != 0 || hub.RoomSize("alice") != 0 {
		t.Fatal("mismatched join must not create membership")
	}
}

func TestRelay_DeliveredToRecipientRoom(t *testing.T) {
	hub, ts := newTestServer(t)

	alice := dialWS(t, ts, "tok-alice")
	bob := dialWS(t, ts, "tok-bob")
	join(t, alice, "alice")
	join(t, bob, "bob")
	waitRoom(t, hub, "alice", 1)
	waitRoom(t, hub, "bob", 1)

	msg := MessageItem{
		ID:          "m1",
		SenderID:    "alice",
		RecipientID: "bob",
		Text:        "hello bob",
		CreatedAt:   time.Now(),
		Sender:      &IdentitySummary{ID: "alice", FirstName: "Alice", Role: "student"},
	}
	sendEvent(t, alice, TypeSendMessage, SendMessagePayload{RecipientID: "bob", Message: msg})

	evt := readEvent(t, bob)
	if evt.Type != TypeNewMessage {
		t.Fatalf("event type = %s, want newMessage", evt.Type)
	}
	var p NewMessagePayload
	if err := json.Unmarshal(evt.Payload, &p); err != nil {
		t.Fatal(err)
	}
	if p.Message.ID != "m1" || p.Message.Text != "hello bob" {
		t.Fatalf("payload = %+v", p)
	}
	if p.Sender.ID != "alice" {
		t.Fatalf("sender = %+v, want alice", p.Sender)
	}
}

func TestRelay_IgnoredBeforeJoin(t *testing.T) {
	hub, ts := newTestServer(t)

	bob := dialWS(t, ts, "tok-bob")
	join(t, bob, "bob")
	waitRoom(t, hub, "bob", 1)

	// connection with a valid token that never joined
	lurker := dialWS(t, ts, "tok-alice")
	sendEvent(t, lurker, TypeSendMessage, SendMessagePayload{
		RecipientID: "bob",
		Message:     MessageItem{ID: "m9", Text: "sneaky"},
	})

	expectSilence(t, bob)
}

func TestMarkAsRead_PushesReceiptToSender(t *testing.T) {
	hub, ts := newTestServer(t)

	alice := dialWS(t, ts, "tok-alice")
	bob := dialWS(t, ts, "tok-bob")
	join(t, alice, "alice")
	join(t, bob, "bob")
	waitRoom(t, hub, "alice", 1)
	waitRoom(t, hub, "bob", 1)

	before := time.Now()
	sendEvent(t, bob, TypeMarkAsRead, MarkAsReadPayload{SenderID: "alice"})

	evt := readEvent(t, alice)
	if evt.Type != TypeMessageRead {
		t.Fatalf("event type = %s, want messageRead", evt.Type)
	}
	var p MessageReadPayload
	if err := json.Unmarshal(evt.Payload, &p); err != nil {
		t.Fatal(err)
	}
	if p.ReadBy != "bob" || p.SenderID != "alice" {
		t.Fatalf("payload = %+v", p)
	}
	if p.Timestamp.Before(before.Add(-time.Second)) {
		t.Fatalf("timestamp %v too old", p.Timestamp)
	}
}

func TestInvalidJSONIsIgnored(t *testing.T) {
	hub, ts := newTestServer(t)

	alice := dialWS(t, ts, "tok-alice")
	join(t, alice, "alice")
	waitRoom(t, hub, "alice", 1)

	if err := alice.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatal(err)
	}

	// the connection stays usable
	bob := dialWS(t, ts, "tok-bob")
	join(t, bob, "bob")
	waitRoom(t, hub, "bob", 1)

	sendEvent(t, bob, TypeSendMessage, SendMessagePayload{
		RecipientID: "alice",
		Message:     MessageItem{ID: "m2", SenderID: "bob", Text: "still here"},
	})
	evt := readEvent(t, alice)
	if evt.Type != TypeNewMessage {
		t.Fatalf("event type = %s, want newMessage", evt.Type)
	}
}
