package repo

import (
	"context"

	"github.com/BuzzLyutic/team-tasks/internal/model"
)

// TaskRepository определяет интерфейс для работы с задачами
type TaskRepository interface {
	Create(ctx context.Context, t model.Task) (model.Task, error)
	Get(ctx context.Context, id int64) (model.Task, error)
	List(ctx context.Context, filter model.TaskFilter, limit int) ([]model.Task, error)
	// Update перезаписывает задачу, если ее версия не изменилась с момента чтения
	Update(ctx context.Context, t model.Task) (model.Task, error)
	Delete(ctx context.Context, id int64) error
	SaveIdempotencyKey(ctx context.Context, key string, resourceID int64) error
	GetIdempotencyKey(ctx context.Context, key string) (int64, error)
}

type ProfileRepository interface {
	GetByIDs(ctx context.Context, ids []string) ([]model.Profile, error)
}

type TeamRepository interface {
	Role(ctx context.Context, teamID int64, userID string) (model.Role, error)
}

type SessionRepository interface {
	UserID(ctx context.Context, token string) (string, error)
}
