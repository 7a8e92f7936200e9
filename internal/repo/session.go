package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SessionRepo struct {
	pool *pgxpool.Pool
}

func NewSessionRepo(pool *pgxpool.Pool) *SessionRepo {
	return &SessionRepo{pool: pool}
}

// UserID возвращает владельца действующей сессии.
func (r *SessionRepo) UserID(ctx context.Context, token string) (string, error) {
	var userID string
	err := r.pool.QueryRow(ctx, `
		SELECT user_id FROM sessions WHERE token = $1 AND expires_at > now()
	`, token).Scan(&userID)

	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrorNotFound
	}
	return userID, err
}
