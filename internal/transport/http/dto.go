package http

import (
	"time"

	"github.com/muhammadhuzaifasarfraz/collab-sphere/internal/domain"
)

type SendMessageRequest struct {
	RecipientID string `json:"recipientId"`
	Text        string `json:"text"`
}

type IdentitySummary struct {
	ID           string  `json:"id"`
	FirstName    string  `json:"firstName"`
	LastName     string  `json:"lastName"`
	Role         string  `json:"role"`
	ProfilePhoto *string `json:"profilePhoto,omitempty"`
	Batch        *string `json:"batch,omitempty"`
	Department   *string `json:"department,omitempty"`
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

type ConversationItem struct {
	User        IdentitySummary `json:"user"`
	LastMessage MessageItem     `json:"lastMessage"`
	UnreadCount int             `json:"unreadCount"`
}

// CandidatesResponse always carries the users array; Message is the
// informational flag for an empty (still non-error) listing.
type CandidatesResponse struct {
	Users   []IdentitySummary `json:"users"`
	Message string            `json:"message,omitempty"`
}

func summaryItem(u *domain.Identity) *IdentitySummary {
	if u == nil {
		return nil
	}
	return &IdentitySummary{
		ID:           u.ID,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Role:         string(u.Role),
		ProfilePhoto: u.AvatarURL,
		Batch:        u.Batch,
		Department:   u.Department,
	}
}

func messageItem(m *domain.Message) MessageItem {
	return MessageItem{
		ID:          m.ID,
		SenderID:    m.SenderID,
		RecipientID: m.RecipientID,
		Text:        m.Text,
		Read:        m.Read,
		CreatedAt:   m.CreatedAt,
		Sender:      summaryItem(m.Sender),
		Recipient:   summaryItem(m.Recipient),
	}
}
