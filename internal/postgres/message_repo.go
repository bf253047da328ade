package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/muhammadhuzaifasarfraz/collab-sphere/internal/domain"
)

type MessageRepository struct {
	db *pgxpool.Pool
}

func NewMessageRepository(db *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{db: db}
}

// Both identity summaries are joined on every read so the transport never has
// to re-resolve sender/recipient.
const messageColumns = `
	m.id, m.sender_id, m.recipient_id, m.text, m.read, m.created_at,
	s.first_name, s.last_name, s.role, s.avatar_url,
	r.first_name, r.last_name, r.role, r.avatar_url`

const messageJoins = `
	JOIN users s ON s.id = m.sender_id
	JOIN users r ON r.id = m.recipient_id`

func (r *MessageRepository) Insert(ctx context.Context, senderID, recipientID, text string) (*domain.Message, error) {
	row := r.db.QueryRow(ctx, `
		WITH ins AS (
			INSERT INTO messages (sender_id, recipient_id, text)
			VALUES ($1, $2, $3)
			RETURNING id, sender_id, recipient_id, text, read, created_at
		)
		SELECT`+messageColumns+`
		FROM ins m`+messageJoins,
		senderID, recipientID, text)

	m, err := scanMessage(row)
	if err != nil {
		return nil, fmt.Errorf("%w: insert message: %v", domain.ErrStorage, err)
	}
	return m, nil
}

// ConversationBetween returns every message between self and other in both
// directions, ascending (created_at, id), and in the same transaction flips
// unread incoming rows to read. Viewing a conversation and marking it read are
// one operation; the returned rows still show the pre-flip read state, exactly
// like a plain select would.
func (r *MessageRepository) ConversationBetween(ctx context.Context, selfID, otherID string) ([]domain.Message, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: begin: %v", domain.ErrStorage, err)
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `
		SELECT`+messageColumns+`
		FROM messages m`+messageJoins+`
		WHERE (m.sender_id = $1 AND m.recipient_id = $2)
		   OR (m.sender_id = $2 AND m.recipient_id = $1)
		ORDER BY m.created_at ASC, m.id ASC`,
		selfID, otherID)
	if err != nil {
		return nil, fmt.Errorf("%w: select conversation: %v", domain.ErrStorage, err)
	}

	var out []domain.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("%w: scan conversation: %v", domain.ErrStorage, err)
		}
		out = append(out, *m)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: conversation rows: %v", domain.ErrStorage, err)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE messages SET read = TRUE
		WHERE sender_id = $2 AND recipient_id = $1 AND read = FALSE`,
		selfID, otherID); err != nil {
		return nil, fmt.Errorf("%w: mark read: %v", domain.ErrStorage, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("%w: commit: %v", domain.ErrStorage, err)
	}
	return out, nil
}

// MarkRead flips every unread message from other to self. Idempotent; zero
// matched rows is not an error.
func (r *MessageRepository) MarkRead(ctx context.Context, selfID, otherID string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE messages SET read = TRUE
		WHERE sender_id = $2 AND recipient_id = $1 AND read = FALSE`,
		selfID, otherID)
	if err != nil {
		return fmt.Errorf("%w: mark read: %v", domain.ErrStorage, err)
	}
	return nil
}

// AllTouching returns every message where self is sender or recipient, newest
// first, for the conversation aggregator.
func (r *MessageRepository) AllTouching(ctx context.Context, selfID string) ([]domain.Message, error) {
	rows, err := r.db.Query(ctx, `
		SELECT`+messageColumns+`
		FROM messages m`+messageJoins+`
		WHERE m.sender_id = $1 OR m.recipient_id = $1
		ORDER BY m.created_at DESC, m.id DESC`,
		selfID)
	if err != nil {
		return nil, fmt.Errorf("%w: select messages: %v", domain.ErrStorage, err)
	}
	defer rows.Close()

	var out []domain.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan message: %v", domain.ErrStorage, err)
		}
		out = append(out, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: message rows: %v", domain.ErrStorage, err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMessage(row rowScanner) (*domain.Message, error) {
	var (
		m      domain.Message
		sender domain.Identity
		recip  domain.Identity
	)
	if err := row.Scan(
		&m.ID, &m.SenderID, &m.RecipientID, &m.Text, &m.Read, &m.CreatedAt,
		&sender.FirstName, &sender.LastName, &sender.Role, &sender.AvatarURL,
		&recip.FirstName, &recip.LastName, &recip.Role, &recip.AvatarURL,
	); err != nil {
		return nil, err
	}
	sender.ID = m.SenderID
	recip.ID = m.RecipientID
	m.Sender = &sender
	m.Recipient = &recip
	return &m, nil
}
