package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/BuzzLyutic/team-tasks/internal/model"
)

type TeamRepo struct {
	pool *pgxpool.Pool
}

func NewTeamRepo(pool *pgxpool.Pool) *TeamRepo {
	return &TeamRepo{pool: pool}
}

// Role returns ErrorNotFound when the user is not a member of the team.
func (r *TeamRepo) Role(ctx context.Context, teamID int64, userID string) (model.Role, error) {
	var role string
	err := r.pool.QueryRow(ctx, `
		SELECT role FROM team_members WHERE team_id = $1 AND user_id = $2
	`, teamID, userID).Scan(&role)

	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrorNotFound
	}
	return model.Role(role), err
}
