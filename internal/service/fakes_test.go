package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/muhammadhuzaifasarfraz/collab-sphere/internal/domain"
)

// memStore is an in-memory stand-in for both repositories, mirroring the
// postgres semantics: AllTouching newest-first with id tiebreak,
// ConversationBetween oldest-first with the read flip applied after the
// select, summaries resolved from the identity table.
type memStore struct {
	identities map[string]*domain.Identity
	messages   []domain.Message
	seq        int
}

func newMemStore() *memStore {
	return &memStore{identities: make(map[string]*domain.Identity)}
}

func (s *memStore) addIdentity(id, first, last string, role domain.Role, active bool) {
	s.identities[id] = &domain.Identity{
		ID:        id,
		FirstName: first,
		LastName:  last,
		Role:      role,
		IsActive:  active,
	}
}

// addMessage injects a message with an explicit timestamp, for ordering and
// tie-break cases.
func (s *memStore) addMessage(senderID, recipientID, text string, at time.Time, read bool) domain.Message {
	s.seq++
	m := domain.Message{
		ID:          fmt.Sprintf("m%04d", s.seq),
		SenderID:    senderID,
		RecipientID: recipientID,
		Text:        text,
		Read:        read,
		CreatedAt:   at,
	}
	s.messages = append(s.messages, m)
	return m
}

func (s *memStore) Insert(_ context.Context, senderID, recipientID, text string) (*domain.Message, error) {
	m := s.addMessage(senderID, recipientID, text, time.Now(), false)
	return s.resolve(m), nil
}

func (s *memStore) ConversationBetween(_ context.Context, selfID, otherID string) ([]domain.Message, error) {
	var out []domain.Message
	for i := range s.messages {
		m := s.messages[i]
		if (m.SenderID == selfID && m.RecipientID == otherID) ||
			(m.SenderID == otherID && m.RecipientID == selfID) {
			out = append(out, *s.resolve(m))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})

	// flip after the select, as the store does inside its transaction
	for i := range s.messages {
		m := &s.messages[i]
		if m.SenderID == otherID && m.RecipientID == selfID && !m.Read {
			m.Read = true
		}
	}
	return out, nil
}

func (s *memStore) MarkRead(_ context.Context, selfID, otherID string) error {
	for i := range s.messages {
		m := &s.messages[i]
		if m.SenderID == otherID && m.RecipientID == selfID && !m.Read {
			m.Read = true
		}
	}
	return nil
}

func (s *memStore) AllTouching(_ context.Context, selfID string) ([]domain.Message, error) {
	var out []domain.Message
	for i := range s.messages {
		m := s.messages[i]
		if m.SenderID == selfID || m.RecipientID == selfID {
			out = append(out, *s.resolve(m))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *memStore) Get(_ context.Context, id string) (*domain.Identity, error) {
	u, ok := s.identities[id]
	if !ok {
		return nil, domain.ErrIdentityNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *memStore) ListActiveByRole(_ context.Context, role domain.Role, excludeID string) ([]domain.Identity, error) {
	var out []domain.Identity
	for _, u := range s.identities {
		if u.Role == role && u.ID != excludeID && u.IsActive {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FirstName != out[j].FirstName {
			return out[i].FirstName < out[j].FirstName
		}
		return out[i].LastName < out[j].LastName
	})
	return out, nil
}

func (s *memStore) resolve(m domain.Message) *domain.Message {
	if u, ok := s.identities[m.SenderID]; ok {
		cp := *u
		m.Sender = &cp
	}
	if u, ok := s.identities[m.RecipientID]; ok {
		cp := *u
		m.Recipient = &cp
	}
	return &m
}

func (s *memStore) count() int { return len(s.messages) }
