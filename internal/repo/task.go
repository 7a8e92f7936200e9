package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/BuzzLyutic/team-tasks/internal/model"
)

var (
	ErrorNotFound = errors.New("not found")
	ErrorConflict = errors.New("conflict")
)

const taskColumns = `id, title, description, priority, steps, team_id, assigned_to, assigned_by,
	due_date, completed_at, version, created_at, updated_at`

type TaskRepo struct { // Репозиторий для работы непосредственно с БД
	pool *pgxpool.Pool
}

func NewTaskRepo(pool *pgxpool.Pool) *TaskRepo { // Конструктор
	return &TaskRepo{
		pool: pool,
	}
}

func scanTask(row pgx.Row) (model.Task, error) {
	var t model.Task
	err := row.Scan(
		&t.ID, &t.Title, &t.Description, &t.Priority, &t.Steps, &t.TeamID, &t.AssignedTo, &t.AssignedBy,
		&t.DueDate, &t.CompletedAt, &t.Version, &t.CreatedAt, &t.UpdatedAt,
	)
	if t.Steps == nil {
		t.Steps = []model.Step{}
	}
	return t, err
}

func stepsParam(steps []model.Step) []model.Step {
	if steps == nil {
		return []model.Step{} // иначе в jsonb уйдет null
	}
	return steps
}

func (r *TaskRepo) Create(ctx context.Context, t model.Task) (model.Task, error) {
	created, err := scanTask(r.pool.QueryRow(ctx, `
		INSERT INTO tasks (title, description, priority, steps, team_id, assigned_to, assigned_by, due_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+taskColumns,
		t.Title, t.Description, t.Priority, stepsParam(t.Steps), t.TeamID, t.AssignedTo, t.AssignedBy, t.DueDate,
	))
	return created, r.mapError(err)
}

func (r *TaskRepo) Get(ctx context.Context, id int64) (model.Task, error) {
	t, err := scanTask(r.pool.QueryRow(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE id = $1
	`, id))

	if errors.Is(err, pgx.ErrNoRows) {
		return t, ErrorNotFound
	}
	return t, err
}

func (r *TaskRepo) List(ctx context.Context, filter model.TaskFilter, limit int) ([]model.Task, error) {
	var assignedTo, assignedBy *string
	switch filter.Scope {
	case model.ScopeAssigned:
		assignedTo = &filter.UserID
	case model.ScopeCreated:
		assignedBy = &filter.UserID
	}

	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE (assigned_to = $1 OR assigned_by = $1)
		  AND ($2::text IS NULL OR assigned_to = $2)
		  AND ($3::text IS NULL OR assigned_by = $3)
		  AND ($4::bool IS NULL OR (completed_at IS NOT NULL) = $4)
		  AND ($5::bigint IS NULL OR team_id = $5)
		ORDER BY priority DESC, created_at DESC, id DESC
		LIMIT $6
	`

	rows, err := r.pool.Query(ctx, query, filter.UserID, assignedTo, assignedBy, filter.Completed, filter.TeamID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := make([]model.Task, 0, limit)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (r *TaskRepo) Update(ctx context.Context, t model.Task) (model.Task, error) {
	updated, err := scanTask(r.pool.QueryRow(ctx, `
		UPDATE tasks
		SET title = $2, description = $3, priority = $4, steps = $5, assigned_to = $6,
			due_date = $7, completed_at = $8, version = version + 1, updated_at = now()
		WHERE id = $1 AND version = $9
		RETURNING `+taskColumns,
		t.ID, t.Title, t.Description, t.Priority, stepsParam(t.Steps), t.AssignedTo,
		t.DueDate, t.CompletedAt, t.Version,
	))

	if errors.Is(err, pgx.ErrNoRows) {
		return t, ErrorConflict
	}
	return updated, err
}

// Delete удаляет задачу вместе с ключами идемпотентности, которые на нее ссылаются.
func (r *TaskRepo) Delete(ctx context.Context, id int64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	cmd, err := tx.Exec(ctx, "DELETE FROM tasks WHERE id = $1", id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrorNotFound
	}
	if _, err := tx.Exec(ctx, "DELETE FROM idempotency_keys WHERE resource_id = $1", id); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *TaskRepo) SaveIdempotencyKey(ctx context.Context, key string, resourceID int64) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO idempotency_keys (key, resource_id) VALUES ($1, $2)
		ON CONFLICT (key) DO NOTHING
	`, key, resourceID)
	return err
}

func (r *TaskRepo) GetIdempotencyKey(ctx context.Context, key string) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		SELECT resource_id FROM idempotency_keys WHERE key = $1
	`, key).Scan(&id)

	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrorNotFound
	}
	return id, err
}

func (r *TaskRepo) mapError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return ErrorConflict
		}
	}
	return err
}
