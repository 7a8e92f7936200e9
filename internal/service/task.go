package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/team-tasks/internal/chain"
	"github.com/BuzzLyutic/team-tasks/internal/model"
	"github.com/BuzzLyutic/team-tasks/internal/policy"
	"github.com/BuzzLyutic/team-tasks/internal/repo"
)

var (
	ErrValidation      = errors.New("validation error")
	ErrForbidden       = errors.New("forbidden")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrTaskCompleted   = errors.New("cannot update completed task")
)

type TaskService struct {
	repo     repo.TaskRepository
	profiles chain.ProfileLookup
	teams    repo.TeamRepository
	logger   *zap.Logger
	now      func() time.Time
}

func NewTaskService(tasks repo.TaskRepository, profiles chain.ProfileLookup, teams repo.TeamRepository, logger *zap.Logger) *TaskService {
	return &TaskService{
		repo:     tasks,
		profiles: profiles,
		teams:    teams,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *TaskService) Create(ctx context.Context, userID string, req model.CreateTaskRequest, idempKey string) (model.TaskView, error) {
	if userID == "" {
		return model.TaskView{}, ErrUnauthenticated
	}

	// Права в команде проверяются до валидации полей
	if req.TeamID != nil {
		if err := s.checkTeamRole(ctx, *req.TeamID, userID); err != nil {
			return model.TaskView{}, err
		}
	}

	if err := s.validate(req); err != nil {
		return model.TaskView{}, err
	}

	if idempKey != "" { // Повторный запрос с тем же ключом возвращает уже созданную задачу
		if existingID, err := s.repo.GetIdempotencyKey(ctx, scopedKey(userID, idempKey)); err == nil {
			existing, err := s.repo.Get(ctx, existingID)
			switch {
			case err == nil:
				return chain.Build(ctx, s.profiles, existing)
			case !errors.Is(err, repo.ErrorNotFound):
				return model.TaskView{}, err
			}
			// Задача по ключу уже удалена: создаем новую
		}
	}

	task := model.Task{
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Priority:    normalizePriority(req.Priority),
		Steps:       model.BuildLog(req.Steps, req.Checklist),
		TeamID:      req.TeamID,
		AssignedTo:  strings.TrimSpace(req.AssigneeID),
		AssignedBy:  userID,
		DueDate:     s.parseDueDate(req.DueDate),
	}

	created, err := s.repo.Create(ctx, task)
	if err != nil {
		return model.TaskView{}, err
	}

	if idempKey != "" {
		if err := s.repo.SaveIdempotencyKey(ctx, scopedKey(userID, idempKey), created.ID); err != nil {
			s.logger.Warn("failed to save idempotency key", zap.Int64("task_id", created.ID), zap.Error(err))
		}
	}

	s.logger.Info("task created",
		zap.Int64("task_id", created.ID),
		zap.String("assigned_by", created.AssignedBy),
		zap.String("assigned_to", created.AssignedTo),
	)
	return chain.Build(ctx, s.profiles, created)
}

func (s *TaskService) Get(ctx context.Context, id int64, userID string) (model.TaskView, error) {
	t, err := s.authorize(ctx, id, userID, policy.ActionRead)
	if err != nil {
		return model.TaskView{}, err
	}
	return chain.Build(ctx, s.profiles, t)
}

func (s *TaskService) List(ctx context.Context, userID string, filter model.TaskFilter, limit int) ([]model.TaskView, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	filter.UserID = userID

	tasks, err := s.repo.List(ctx, filter, limit)
	if err != nil {
		return nil, err
	}
	return chain.Attach(ctx, s.profiles, tasks...)
}

// Reassign hands the task to newAssignee and records the previous assignee
// in the step log. Both changes are written in one conditional update.
func (s *TaskService) Reassign(ctx context.Context, id int64, newAssignee string, userID string) (model.TaskView, error) {
	t, err := s.authorize(ctx, id, userID, policy.ActionReassign)
	if err != nil {
		return model.TaskView{}, err
	}

	newAssignee = strings.TrimSpace(newAssignee)
	if newAssignee == "" {
		return model.TaskView{}, fmt.Errorf("%w: assigneeId is required", ErrValidation)
	}

	prev := t.AssignedTo
	t.Steps = append(t.Steps, model.ReassignmentFrom(prev))
	t.AssignedTo = newAssignee

	updated, err := s.repo.Update(ctx, t)
	if err != nil {
		return model.TaskView{}, err
	}

	s.logger.Info("task reassigned",
		zap.Int64("task_id", id),
		zap.String("from", prev),
		zap.String("to", newAssignee),
	)
	return chain.Build(ctx, s.profiles, updated)
}

// Complete is idempotent: an already completed task is returned as is.
func (s *TaskService) Complete(ctx context.Context, id int64, userID string) (model.TaskView, error) {
	t, err := s.authorize(ctx, id, userID, policy.ActionComplete)
	if err != nil {
		return model.TaskView{}, err
	}

	if !t.Completed() {
		now := s.now().UTC()
		t.CompletedAt = &now

		if t, err = s.repo.Update(ctx, t); err != nil {
			return model.TaskView{}, err
		}
		s.logger.Info("task completed", zap.Int64("task_id", id), zap.String("user_id", userID))
	}

	return chain.Build(ctx, s.profiles, t)
}

// UpdateSteps replaces the step and checklist entries of the log with those
// in steps. The reassignment history is kept from the stored task: reassignment
// entries sent by the caller are ignored, so a stale or hand-edited array can
// neither drop nor forge assignees. A non-zero expectedVersion must match the
// stored version, otherwise ErrorConflict is returned.
func (s *TaskService) UpdateSteps(ctx context.Context, id int64, steps []model.Step, expectedVersion int, userID string) (model.TaskView, error) {
	t, err := s.authorize(ctx, id, userID, policy.ActionRead)
	if err != nil {
		return model.TaskView{}, err
	}
	if t.Completed() {
		return model.TaskView{}, ErrTaskCompleted
	}
	if !policy.CanPerform(policy.ActionUpdate, t, userID) {
		return model.TaskView{}, ErrForbidden
	}
	if expectedVersion != 0 && expectedVersion != t.Version {
		return model.TaskView{}, repo.ErrorConflict
	}

	steps = model.MergeLog(model.NormalizeSteps(steps), t.Steps)
	if err := model.ValidateSteps(steps); err != nil {
		return model.TaskView{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	t.Steps = steps

	updated, err := s.repo.Update(ctx, t)
	if err != nil {
		return model.TaskView{}, err
	}
	return chain.Build(ctx, s.profiles, updated)
}

func (s *TaskService) Delete(ctx context.Context, id int64, userID string) error {
	if _, err := s.authorize(ctx, id, userID, policy.ActionDelete); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("task deleted", zap.Int64("task_id", id), zap.String("user_id", userID))
	return nil
}

// authorize loads the task and checks action against it. A missing task is
// reported before a denied one.
func (s *TaskService) authorize(ctx context.Context, id int64, userID string, action policy.Action) (model.Task, error) {
	if userID == "" {
		return model.Task{}, ErrUnauthenticated
	}

	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return t, err
	}
	if !policy.CanPerform(action, t, userID) {
		return t, ErrForbidden
	}
	return t, nil
}

func (s *TaskService) checkTeamRole(ctx context.Context, teamID int64, userID string) error {
	role, err := s.teams.Role(ctx, teamID, userID)
	if errors.Is(err, repo.ErrorNotFound) {
		return ErrForbidden
	}
	if err != nil {
		return err
	}
	if !policy.CanCreateInTeam(role) {
		return ErrForbidden
	}
	return nil
}

func (s *TaskService) validate(req model.CreateTaskRequest) error {
	if strings.TrimSpace(req.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if strings.TrimSpace(req.AssigneeID) == "" {
		return fmt.Errorf("%w: assigneeId is required", ErrValidation)
	}
	return nil
}

// parseDueDate returns nil for empty or unparsable input.
func (s *TaskService) parseDueDate(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	d, err := time.Parse(model.DueDateLayout, raw)
	if err != nil {
		s.logger.Debug("ignoring unparsable due date", zap.String("due_date", raw))
		return nil
	}
	return &d
}

func normalizePriority(p int) int {
	if p < model.PriorityMin || p > model.PriorityMax {
		return model.PriorityDefault
	}
	return p
}

func scopedKey(userID, key string) string {
	return userID + ":" + key
}
