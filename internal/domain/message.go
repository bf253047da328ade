package domain

import "time"

type Message struct {
	ID          string    `db:"id"`
	SenderID    string    `db:"sender_id"`
	RecipientID string    `db:"recipient_id"`
	Text        string    `db:"text"`
	Read        bool      `db:"read"`
	CreatedAt   time.Time `db:"created_at"`

	// Expanded identity summaries; nil when the caller asked for raw rows.
	Sender    *Identity `db:"-"`
	Recipient *Identity `db:"-"`
}

// Conversation is derived from the message set on every query, never stored.
type Conversation struct {
	Partner     Identity
	LastMessage Message
	UnreadCount int
}
