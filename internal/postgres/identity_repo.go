package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/muhammadhuzaifasarfraz/collab-sphere/internal/domain"
)

// IdentityRepository reads the users table owned by the auth service.
// Messaging never writes identities.
type IdentityRepository struct {
	db *pgxpool.Pool
}

func NewIdentityRepository(db *pgxpool.Pool) *IdentityRepository {
	return &IdentityRepository{db: db}
}

func (r *IdentityRepository) Get(ctx context.Context, id string) (*domain.Identity, error) {
	var u domain.Identity
	err := r.db.QueryRow(ctx, `
		SELECT id, first_name, last_name, role, avatar_url, batch, department, is_active
		FROM users WHERE id = $1`,
		id).Scan(&u.ID, &u.FirstName, &u.LastName, &u.Role, &u.AvatarURL, &u.Batch, &u.Department, &u.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrIdentityNotFound
		}
		return nil, fmt.Errorf("%w: get identity: %v", domain.ErrStorage, err)
	}
	return &u, nil
}

// ListActiveByRole returns every active identity of the given role except
// excludeID, ordered by display name.
func (r *IdentityRepository) ListActiveByRole(ctx context.Context, role domain.Role, excludeID string) ([]domain.Identity, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, first_name, last_name, role, avatar_url, batch, department, is_active
		FROM users
		WHERE role = $1 AND id <> $2 AND is_active
		ORDER BY first_name, last_name`,
		role, excludeID)
	if err != nil {
		return nil, fmt.Errorf("%w: list identities: %v", domain.ErrStorage, err)
	}
	defer rows.Close()

	var out []domain.Identity
	for rows.Next() {
		var u domain.Identity
		if err := rows.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Role, &u.AvatarURL, &u.Batch, &u.Department, &u.IsActive); err != nil {
			return nil, fmt.Errorf("%w: scan identity: %v", domain.ErrStorage, err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: identity rows: %v", domain.ErrStorage, err)
	}
	return out, nil
}
