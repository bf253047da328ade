package ws

import (
	"time"

	"github.com/muhammadhuzaifasarfraz/collab-sphere/internal/domain"
)

// Client -> server events
const (
	TypeJoin        = "join"        // authenticate and enter own room
	TypeSendMessage = "sendMessage" // notify-only relay, persistence happens over HTTP
	TypeMarkAsRead  = "markAsRead"  // read-receipt push to the original sender
)

// Server -> client events
const (
	TypeNewMessage  = "newMessage"
	TypeMessageRead = "messageRead"
	TypeError       = "error" // delivered to the offending connection only
)

type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type JoinPayload struct {
	UserID string `json:"userId"`
}

type SendMessagePayload struct {
	RecipientID string      `json:"recipientId"`
	Message     MessageItem `json:"message"`
}

type MarkAsReadPayload struct {
	SenderID string `json:"senderId"`
}

type NewMessagePayload struct {
	Message MessageItem     `json:"message"`
	Sender  IdentitySummary `json:"sender"`
}

type MessageReadPayload struct {
	SenderID  string    `json:"senderId"`
	ReadBy    string    `json:"readBy"`
	Timestamp time.Time `json:"timestamp"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

type IdentitySummary struct {
	ID           string  `json:"id"`
	FirstName    string  `json:"firstName"`
	LastName     string  `json:"lastName"`
	Role         string  `json:"role"`
	ProfilePhoto *string `json:"profilePhoto,omitempty"`
}

type MessageItem struct {
	ID          string           `json:"id"`
	SenderID    string           `json:"senderId"`
	RecipientID string           `json:"recipientId"`
	Text        string           `json:"text"`
	Read        bool             `json:"read"`
	CreatedAt   time.Time        `json:"createdAt"`
	Sender      *IdentitySummary `json:"sender,omitempty"`
	Recipient   *IdentitySummary `json:"recipient,omitempty"`
}

func summaryOf(u *domain.Identity) *IdentitySummary {
	if u == nil {
		return nil
	}
	return &IdentitySummary{
		ID:           u.ID,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Role:         string(u.Role),
		ProfilePhoto: u.AvatarURL,
	}
}

// NewMessageEvent builds the push emitted to the recipient's room after a
// durable send. Consumers de-duplicate by message id, since the same message
// may also arrive via the sender's channel relay.
func NewMessageEvent(m *domain.Message) Event {
	item := MessageItem{
		ID:          m.ID,
		SenderID:    m.SenderID,
		RecipientID: m.RecipientID,
		Text:        m.Text,
		Read:        m.Read,
		CreatedAt:   m.CreatedAt,
		Sender:      summaryOf(m.Sender),
		Recipient:   summaryOf(m.Recipient),
	}
	var sender IdentitySummary
	if item.Sender != nil {
		sender = *item.Sender
	} else {
		sender = IdentitySummary{ID: m.SenderID}
	}
	return Event{
		Type:    TypeNewMessage,
		Payload: NewMessagePayload{Message: item, Sender: sender},
	}
}
