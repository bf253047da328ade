package service

import "github.com/muhammadhuzaifasarfraz/collab-sphere/internal/domain"

// CanMessage is the single pairing rule: students message alumni and vice
// versa, nothing else. Stateless; callers must evaluate it against freshly
// loaded identities on every send, since roles can change between calls.
func CanMessage(a, b *domain.Identity) bool {
	if a == nil || b == nil {
		return false
	}
	if !a.Role.Valid() || !b.Role.Valid() {
		return false
	}
	return a.Role != b.Role
}
