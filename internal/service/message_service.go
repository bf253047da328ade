package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/muhammadhuzaifasarfraz/collab-sphere/internal/domain"
)

const maxMessageLen = 4000

type MessageRepo interface {
	Insert(ctx context.Context, senderID, recipientID, text string) (*domain.Message, error)
	ConversationBetween(ctx context.Context, selfID, otherID string) ([]domain.Message, error)
	MarkRead(ctx context.Context, selfID, otherID string) error
	AllTouching(ctx context.Context, selfID string) ([]domain.Message, error)
}

type IdentityRepo interface {
	Get(ctx context.Context, id string) (*domain.Identity, error)
	ListActiveByRole(ctx context.Context, role domain.Role, excludeID string) ([]domain.Identity, error)
}

type MessageService struct {
	messages   MessageRepo
	identities IdentityRepo
}

func NewMessageService(messages MessageRepo, identities IdentityRepo) *MessageService {
	return &MessageService{messages: messages, identities: identities}
}

// Send validates, applies the pairing policy and persists exactly one message,
// returned with sender/recipient expanded. Nothing is written when any check
// fails.
func (s *MessageService) Send(ctx context.Context, senderID, recipientID, text string) (*domain.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, domain.ErrEmptyMessage
	}
	if utf8.RuneCountInString(text) > maxMessageLen {
		return nil, domain.ErrMessageTooLong
	}
	if senderID == recipientID {
		return nil, domain.ErrSelfMessage
	}

	sender, err := s.identities.Get(ctx, senderID)
	if err != nil {
		return nil, err
	}
	recipient, err := s.identities.Get(ctx, recipientID)
	if err != nil {
		return nil, err
	}

	if !CanMessage(sender, recipient) {
		return nil, domain.ErrInvalidInteraction
	}

	return s.messages.Insert(ctx, senderID, recipientID, text)
}

// GetConversation returns the full history with other, oldest first, and
// durably flips other's unread messages to read as part of the same call.
func (s *MessageService) GetConversation(ctx context.Context, selfID, otherID string) ([]domain.Message, error) {
	return s.messages.ConversationBetween(ctx, selfID, otherID)
}

// MarkRead is the standalone bulk read-mark; idempotent.
func (s *MessageService) MarkRead(ctx context.Context, selfID, otherID string) error {
	return s.messages.MarkRead(ctx, selfID, otherID)
}
