package service

import (
	"context"

	"github.com/muhammadhuzaifasarfraz/collab-sphere/internal/domain"
)

type ConversationService struct {
	messages   MessageRepo
	identities IdentityRepo
}

func NewConversationService(messages MessageRepo, identities IdentityRepo) *ConversationService {
	return &ConversationService{messages: messages, identities: identities}
}

// ListConversations derives the per-partner view from the raw message set:
// one entry per distinct correspondent with the newest message and the exact
// unread count. The repo hands back messages newest-first with a deterministic
// id tiebreak, so the first message seen per partner is the last message and
// first-appearance order is already newest-conversation-first.
func (s *ConversationService) ListConversations(ctx context.Context, selfID string) ([]domain.Conversation, error) {
	msgs, err := s.messages.AllTouching(ctx, selfID)
	if err != nil {
		return nil, err
	}

	index := make(map[string]int)
	out := make([]domain.Conversation, 0)
	for _, m := range msgs {
		partnerID := m.SenderID
		partner := m.Sender
		if m.SenderID == selfID {
			partnerID = m.RecipientID
			partner = m.Recipient
		}

		i, ok := index[partnerID]
		if !ok {
			i = len(out)
			index[partnerID] = i
			c := domain.Conversation{LastMessage: m}
			if partner != nil {
				c.Partner = *partner
			} else {
				c.Partner = domain.Identity{ID: partnerID}
			}
			out = append(out, c)
		}
		if m.RecipientID == selfID && !m.Read {
			out[i].UnreadCount++
		}
	}
	return out, nil
}

// ListCandidates returns everyone self is allowed to start a conversation
// with: active identities of the opposite role, by display name. The target
// role comes back alongside so the transport can phrase the empty-result
// notice; an empty result is a normal outcome, not an error.
func (s *ConversationService) ListCandidates(ctx context.Context, selfID string) ([]domain.Identity, domain.Role, error) {
	self, err := s.identities.Get(ctx, selfID)
	if err != nil {
		return nil, "", err
	}
	target := self.Role.Opposite()
	users, err := s.identities.ListActiveByRole(ctx, target, selfID)
	if err != nil {
		return nil, "", err
	}
	return users, target, nil
}
